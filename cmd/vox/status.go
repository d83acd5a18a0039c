package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// runStatus implements "vox status".
func runStatus(log logrus.FieldLogger, args []string) error {
	r, err := openRepo(log)
	if err != nil {
		return err
	}
	st, err := r.Status()
	if err != nil {
		return err
	}

	printGroup("Staged", st.Staged)
	printGroup("Modified", st.Modified)
	printGroup("Deleted", st.Deleted)
	printGroup("Untracked", st.Untracked)
	return nil
}

func printGroup(label string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Println(label + ":")
	for _, p := range paths {
		fmt.Println("\t" + p)
	}
}
