package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Niko256/vox/branch"
)

// runBranch implements "vox branch", "vox branch <name>" and
// "vox branch -d <name>".
func runBranch(log logrus.FieldLogger, args []string) error {
	r, err := openRepo(log)
	if err != nil {
		return err
	}
	store := branch.New(r.Paths.Dot, r.Refs)

	if len(args) == 0 {
		names, err := store.List()
		if err != nil {
			return err
		}
		current, _, ok, err := r.Refs.CurrentBranch()
		if err != nil {
			return err
		}
		for _, name := range names {
			if ok && name == current {
				fmt.Printf("* %s\n", name)
			} else {
				fmt.Printf("  %s\n", name)
			}
		}
		return nil
	}

	if args[0] == "-d" {
		if len(args) != 2 {
			return fmt.Errorf("usage: vox branch -d <name>")
		}
		if err := store.Delete(args[1]); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"op": "branch-delete", "name": args[1]}).Info("deleted branch")
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("usage: vox branch <name>")
	}
	_, h, _, err := r.Refs.CurrentBranch()
	if err != nil {
		return err
	}
	if err := store.Create(args[0], h); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"op": "branch-create", "name": args[0], "hash": h}).Info("created branch")
	return nil
}
