//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

// Test runs the unit tests with the race detector.
func Test() error {
	mg.Deps(Shaders.Check)
	_, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./..."), withEnv("CGO_ENABLED", "1"), withStream())
	return err
}

// Vet runs go vet.
func Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}
