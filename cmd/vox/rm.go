package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Niko256/vox/index"
)

// runRm implements "vox rm [--cached] [--force] <path>...": unstage a
// path and, unless --cached is given, delete it from the working tree.
// --force is accepted but has no additional effect since this index
// never tracks dirty-workdir state for rm (status is computed fresh).
func runRm(log logrus.FieldLogger, args []string) error {
	var cached bool
	var paths []string
	for _, a := range args {
		switch a {
		case "--cached":
			cached = true
		case "--force", "-f":
			// accepted for compatibility with git's flag surface; no-op
		default:
			paths = append(paths, a)
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("usage: vox rm [--cached] [--force] <path>...")
	}

	r, err := openRepo(log)
	if err != nil {
		return err
	}

	for _, path := range paths {
		path = index.NormalizePath(path)
		if _, ok := r.Index.Remove(path); !ok {
			return fmt.Errorf("%s is not staged", path)
		}
		if !cached {
			if err := r.Paths.Work.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("removing %s: %w", path, err)
			}
		}
	}

	return r.SaveIndex()
}
