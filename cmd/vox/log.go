package main

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
)

// runLog implements "vox log [-n N]".
func runLog(log logrus.FieldLogger, args []string) error {
	limit := 0
	for i := 0; i < len(args); i++ {
		if args[i] == "-n" && i+1 < len(args) {
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return fmt.Errorf("invalid -n value %q: %w", args[i], err)
			}
			limit = n
		}
	}

	r, err := openRepo(log)
	if err != nil {
		return err
	}
	commits, err := r.Log(limit)
	if err != nil {
		return err
	}

	for _, c := range commits {
		h, err := c.Hash()
		if err != nil {
			return err
		}
		fmt.Printf("commit %s\n", h)
		fmt.Printf("Author: %s\n\n\t%s\n\n", c.Author, c.Message)
	}
	return nil
}
