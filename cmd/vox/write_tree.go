package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// runWriteTree implements "vox write-tree": write the current index as
// a tree object and print its hash.
func runWriteTree(log logrus.FieldLogger, args []string) error {
	r, err := openRepo(log)
	if err != nil {
		return err
	}
	h, err := r.WriteTree()
	if err != nil {
		return err
	}
	fmt.Println(h)
	return nil
}
