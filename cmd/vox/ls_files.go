package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// runLsFiles implements "vox ls-files" and "vox ls-files --stage".
func runLsFiles(log logrus.FieldLogger, args []string) error {
	var stage bool
	for _, a := range args {
		if a == "--stage" {
			stage = true
		}
	}

	r, err := openRepo(log)
	if err != nil {
		return err
	}
	for _, e := range r.Index.Entries() {
		if stage {
			// No merge-conflict support means every entry is stage 0.
			fmt.Printf("%06o %s %d\t%s\n", e.Mode, e.Hash, 0, e.Path)
		} else {
			fmt.Println(e.Path)
		}
	}
	return nil
}
