// Command vox is the command-line surface over this module's
// repository package: a small plain-text-over-stdio tool, dispatched
// the same way go-git's own cli/go-git/main.go dispatches its
// receive-pack/upload-pack/version commands, rather than pulling in a
// flags-parsing library for a handful of subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

const usage = `vox is a small content-addressed version control tool.

Usage:
	vox <command> [arguments]

Commands:
	init         create a new repository
	hash-object  compute (and optionally store) a blob hash
	cat-file     print a stored object
	add          stage files
	rm           unstage and remove files
	ls-files     list staged files
	write-tree   write the index as a tree object
	status       show staged/modified/untracked files
	commit       record a commit
	log          show commit history
	show         show one commit's changes
	branch       list, create or delete branches
	checkout     switch to a branch or commit
	diff         show working-tree status or compare commits
	clone        clone a remote repository over SSH
`

var commands = map[string]func(log logrus.FieldLogger, args []string) error{
	"init":        runInit,
	"hash-object": runHashObject,
	"cat-file":    runCatFile,
	"add":         runAdd,
	"rm":          runRm,
	"ls-files":    runLsFiles,
	"write-tree":  runWriteTree,
	"status":      runStatus,
	"commit":      runCommit,
	"log":         runLog,
	"show":        runShow,
	"branch":      runBranch,
	"checkout":    runCheckout,
	"diff":        runDiff,
	"clone":       runClone,
}

func main() {
	log := newLogger()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "vox: unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(1)
	}

	if err := cmd(log, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "vox:", err)
		os.Exit(1)
	}
}

func newLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if os.Getenv("VOX_DEBUG") != "" {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}
