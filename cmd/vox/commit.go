package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// runCommit implements "vox commit -m <message> [--author <name>]".
func runCommit(log logrus.FieldLogger, args []string) error {
	var message, author string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-m", "--message":
			i++
			if i >= len(args) {
				return fmt.Errorf("usage: vox commit -m <message> [--author <name>]")
			}
			message = args[i]
		case "--author":
			i++
			if i >= len(args) {
				return fmt.Errorf("usage: vox commit -m <message> [--author <name>]")
			}
			author = args[i]
		}
	}
	if message == "" {
		return fmt.Errorf("usage: vox commit -m <message> [--author <name>]")
	}

	r, err := openRepo(log)
	if err != nil {
		return err
	}
	h, err := r.Commit(message, author)
	if err != nil {
		return err
	}
	fmt.Println(h)
	return nil
}
