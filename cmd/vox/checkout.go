package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// runCheckout implements "vox checkout [--force] <branch-or-hash>".
func runCheckout(log logrus.FieldLogger, args []string) error {
	var force bool
	var target string
	for _, a := range args {
		if a == "--force" || a == "-f" {
			force = true
			continue
		}
		target = a
	}
	if target == "" {
		return fmt.Errorf("usage: vox checkout [--force] <branch-or-hash>")
	}

	r, err := openRepo(log)
	if err != nil {
		return err
	}
	return r.Checkout(target, force)
}
