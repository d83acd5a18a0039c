package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Niko256/vox/difftree"
	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/plumbing/object"
	"github.com/Niko256/vox/repository"
)

// runDiff implements "vox diff [<from>] [<to>]":
//   - no args: working tree vs the index (modified/deleted/untracked paths)
//   - one arg: the named commit's tree vs the index (the closest
//     approximation of "commit vs workdir" this repo's diff engine can
//     produce without a synthetic workdir tree object)
//   - two args: the two named commits' trees against each other
func runDiff(log logrus.FieldLogger, args []string) error {
	if len(args) > 2 {
		return fmt.Errorf("usage: vox diff [<from>] [<to>]")
	}

	r, err := openRepo(log)
	if err != nil {
		return err
	}

	switch len(args) {
	case 0:
		st, err := r.Status()
		if err != nil {
			return err
		}
		printGroup("Modified", st.Modified)
		printGroup("Deleted", st.Deleted)
		printGroup("Untracked", st.Untracked)
		return nil

	case 1:
		fromTree, err := commitTreeOf(r, args[0])
		if err != nil {
			return err
		}
		toTree, err := r.WriteTree()
		if err != nil {
			return err
		}
		changes, err := difftree.CompareTrees(r.Objects, fromTree, toTree)
		if err != nil {
			return err
		}
		return printChangeList(changes)

	default:
		fromHash, err := r.ResolveCommit(args[0])
		if err != nil {
			return err
		}
		toHash, err := r.ResolveCommit(args[1])
		if err != nil {
			return err
		}
		changes, err := difftree.CompareCommits(r.Objects, fromHash, toHash)
		if err != nil {
			return err
		}
		return printChangeList(changes)
	}
}

// commitTreeOf resolves target to a commit and returns its tree hash.
func commitTreeOf(r *repository.Repository, target string) (hash.Hash, error) {
	commitHash, err := r.ResolveCommit(target)
	if err != nil {
		return hash.ZeroHash, err
	}
	obj, err := object.Load(r.Objects, commitHash)
	if err != nil {
		return hash.ZeroHash, err
	}
	c, ok := obj.(*object.Commit)
	if !ok {
		return hash.ZeroHash, fmt.Errorf("%s is not a commit", commitHash)
	}
	return c.TreeHash, nil
}

func printChangeList(changes []object.Change) error {
	for _, ch := range changes {
		path := ch.Path
		if ch.Kind == object.Renamed {
			path = ch.OldPath + " -> " + ch.Path
		}
		fmt.Printf("%s %s\n", changeKindNames[ch.Kind], path)
		if ch.Summary != nil && ch.Summary.Diff != "" {
			fmt.Print(ch.Summary.Diff)
		}
	}
	return nil
}
