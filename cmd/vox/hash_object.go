package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Niko256/vox/plumbing/object"
)

// runHashObject implements "vox hash-object [-w] <file>": compute the
// blob hash of a file's content, writing it into the object store if
// -w is given.
func runHashObject(log logrus.FieldLogger, args []string) error {
	write := false
	var path string
	for _, a := range args {
		if a == "-w" {
			write = true
			continue
		}
		path = a
	}
	if path == "" {
		return fmt.Errorf("usage: vox hash-object [-w] <file>")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	blob := object.NewBlob(content)

	if !write {
		h, err := blob.Hash()
		if err != nil {
			return err
		}
		fmt.Println(h)
		return nil
	}

	r, err := openRepo(log)
	if err != nil {
		return err
	}
	h, err := object.Save(r.Objects, blob)
	if err != nil {
		return err
	}
	fmt.Println(h)
	return nil
}
