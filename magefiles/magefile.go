//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main contains Mage build targets for citation-engine developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "citation-engine"
	cmdPkg  = "./cmd/citation-engine"
)

// Default target when mage runs without arguments.
var Default = Build

// Build compiles the CLI binary into bin/, stamping the version from
// CITATION_ENGINE_VERSION when set.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version := os.Getenv("CITATION_ENGINE_VERSION")
	if version == "" {
		version = "dev"
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet over every package.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Cites builds the CLI and runs it against a CSV file or publisher code,
// skipping the confirmation prompt.
func Cites(input string) error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "cites", "--yes", input)
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}

// Stats prints Go production and test line counts per package directory.
func Stats() error {
	prod, test := map[string]int{}, map[string]int{}
	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); name != "." && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == binDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return err
		}
		if strings.HasSuffix(path, "_test.go") {
			test[filepath.Dir(path)] += n
		} else {
			prod[filepath.Dir(path)] += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	var prodTotal, testTotal int
	for dir, n := range prod {
		fmt.Printf("%-32s %6d prod %6d test\n", dir, n, test[dir])
		prodTotal += n
		testTotal += test[dir]
	}
	fmt.Printf("%-32s %6d prod %6d test\n", "total", prodTotal, testTotal)
	return nil
}

// countLines counts non-blank lines in a file.
func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	n := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			n++
		}
	}
	return n, scanner.Err()
}
