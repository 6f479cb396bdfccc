//go:build mage

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/gogpu/naga"
	"github.com/magefile/mage/mg"
)

type Shaders mg.Namespace

const shaderPath = "internal/pipeline/shaders/imgui.wgsl"

// Check parses, validates and compiles the GUI shader to SPIR-V with naga.
func (Shaders) Check() error {
	src, err := os.ReadFile(shaderPath)
	if err != nil {
		return err
	}
	ast, err := naga.Parse(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", shaderPath, err)
	}
	module, err := naga.LowerWithSource(ast, string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", shaderPath, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return fmt.Errorf("%s: %w", shaderPath, err)
	}
	if len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i := range verrs {
			errs[i] = &verrs[i]
		}
		return fmt.Errorf("%s: %w", shaderPath, errors.Join(errs...))
	}
	spv, err := naga.Compile(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", shaderPath, err)
	}
	fmt.Printf("%s: ok, %d entry points, %d bytes of SPIR-V\n", shaderPath, len(module.EntryPoints), len(spv))
	return nil
}
