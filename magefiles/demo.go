//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Demo mg.Namespace

// Run renders the demo session with the software backend into imdemo.png.
func (Demo) Run() error {
	_, err := executeCmd("go", withArgs("run", "./cmd/imdemo",
		"-config", "cmd/imdemo/imdemo.toml",
		"-backend", "software",
		"-output", "imdemo.png"), withStream())
	return err
}

// Watch re-renders the demo whenever its config changes.
func (Demo) Watch() error {
	_, err := executeCmd("go", withArgs("run", "./cmd/imdemo",
		"-config", "cmd/imdemo/imdemo.toml",
		"-watch"), withStream())
	return err
}
