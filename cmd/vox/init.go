package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Niko256/vox/repository"
)

func runInit(log logrus.FieldLogger, args []string) error {
	work, err := workdir()
	if err != nil {
		return err
	}
	r, err := repository.Init(work, log)
	if err != nil {
		return err
	}
	fmt.Printf("initialized empty repository in %s/%s\n", work.Root(), repository.DotDir)
	return r.SaveIndex()
}
