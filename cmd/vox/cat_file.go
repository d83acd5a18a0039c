package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/plumbing/object"
)

// runCatFile implements "vox cat-file [-t] <hash>": -t prints just the
// object's type, otherwise its content is rendered.
func runCatFile(log logrus.FieldLogger, args []string) error {
	typeOnly := false
	var hexHash string
	for _, a := range args {
		if a == "-t" {
			typeOnly = true
			continue
		}
		hexHash = a
	}
	if hexHash == "" {
		return fmt.Errorf("usage: vox cat-file [-t] <hash>")
	}

	h, err := hash.FromHex(hexHash)
	if err != nil {
		return fmt.Errorf("invalid hash %q: %w", hexHash, err)
	}

	r, err := openRepo(log)
	if err != nil {
		return err
	}

	typ, payload, err := r.Objects.ReadObject(h)
	if err != nil {
		return err
	}
	if typeOnly {
		fmt.Println(typ)
		return nil
	}

	switch typ {
	case object.BlobObject:
		os.Stdout.Write(payload)
	case object.TreeObject:
		tree, err := object.DecodeTree(payload)
		if err != nil {
			return err
		}
		for _, e := range tree.Entries {
			entryType := object.BlobObject
			if e.Mode.IsDir() {
				entryType = object.TreeObject
			}
			fmt.Printf("%06o %s %s\t%s\n", uint32(e.Mode), entryType, e.Hash, e.Name)
		}
	case object.CommitObject:
		c, err := object.DecodeCommit(payload)
		if err != nil {
			return err
		}
		fmt.Printf("tree %s\n", c.TreeHash)
		if c.ParentHash != nil {
			fmt.Printf("parent %s\n", *c.ParentHash)
		}
		fmt.Printf("author %s\n\n%s\n", c.Author, c.Message)
	default:
		os.Stdout.Write(payload)
	}
	return nil
}
