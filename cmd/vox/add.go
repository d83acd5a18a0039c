package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Niko256/vox/index"
	"github.com/Niko256/vox/plumbing/object"
)

// runAdd implements "vox add <path>...": hash each file's current
// content, store it as a blob, and stage it.
func runAdd(log logrus.FieldLogger, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: vox add <path>...")
	}

	r, err := openRepo(log)
	if err != nil {
		return err
	}

	for _, path := range args {
		path = index.NormalizePath(path)

		f, err := r.Paths.Work.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		content, err := readAll(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		h, err := object.Save(r.Objects, object.NewBlob(content))
		if err != nil {
			return err
		}

		fi, err := r.Paths.Work.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		fullPath := r.Paths.Work.Join(r.Paths.Work.Root(), path)
		r.Index.Insert(index.FromFileInfo(path, fullPath, fi, h))
	}

	if err := r.SaveIndex(); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"op": "add", "paths": len(args)}).Info("staged paths")
	return nil
}
