package main

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sirupsen/logrus"

	"github.com/Niko256/vox/repository"
)

// workdir returns a billy.Filesystem rooted at the process's current
// directory, the same real-filesystem root every subcommand operates
// against.
func workdir() (billy.Filesystem, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("vox: getting working directory: %w", err)
	}
	return osfs.New(cwd), nil
}

// openRepo opens the repository rooted at the current directory.
func openRepo(log logrus.FieldLogger) (*repository.Repository, error) {
	work, err := workdir()
	if err != nil {
		return nil, err
	}
	return repository.Open(work, log)
}
