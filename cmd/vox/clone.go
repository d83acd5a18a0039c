package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sirupsen/logrus"

	"github.com/Niko256/vox/repository"
	"github.com/Niko256/vox/transport/ssh"
)

// runClone implements "vox clone <ssh-url> [<dir>] [--identity <path>]".
func runClone(log logrus.FieldLogger, args []string) error {
	var rawURL, dir, identityFile string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--identity":
			i++
			if i >= len(args) {
				return fmt.Errorf("usage: vox clone <ssh-url> [<dir>] [--identity <path>]")
			}
			identityFile = args[i]
		default:
			if rawURL == "" {
				rawURL = args[i]
			} else if dir == "" {
				dir = args[i]
			}
		}
	}
	if rawURL == "" {
		return fmt.Errorf("usage: vox clone <ssh-url> [<dir>] [--identity <path>]")
	}

	ep, err := ssh.ParseEndpoint(rawURL)
	if err != nil {
		return fmt.Errorf("parsing remote url: %w", err)
	}

	if dir == "" {
		dir = filepath.Base(ep.Path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	work := osfs.New(dir)

	ctx := context.Background()
	client, err := ssh.Dial(ctx, ep, identityFile)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", rawURL, err)
	}
	defer client.Close()

	r, err := repository.Clone(ctx, work, client, log)
	if err != nil {
		return fmt.Errorf("cloning into %s: %w", dir, err)
	}
	fmt.Printf("cloned into %s\n", r.Paths.Work.Root())
	return nil
}
