package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/plumbing/object"
)

var changeKindNames = map[object.ChangeKind]string{
	object.Added:    "added",
	object.Deleted:  "deleted",
	object.Modified: "modified",
	object.Renamed:  "renamed",
}

// runShow implements "vox show <commit-hash>".
func runShow(log logrus.FieldLogger, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: vox show <commit-hash>")
	}
	h, err := hash.FromHex(args[0])
	if err != nil {
		return fmt.Errorf("invalid hash %q: %w", args[0], err)
	}

	r, err := openRepo(log)
	if err != nil {
		return err
	}
	c, changes, err := r.Show(h)
	if err != nil {
		return err
	}

	fmt.Printf("commit %s\nAuthor: %s\n\n\t%s\n\n", h, c.Author, c.Message)
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
