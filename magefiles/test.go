// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets.
type Test mg.Namespace

// All runs every package's tests.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Race runs every package's tests with the race detector. The cache and
// Collect tests exercise concurrent lookups.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover writes a coverage profile to bin/cover.out and prints the summary.
func (Test) Cover() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	profile := binaryDir + "/cover.out"
	if err := sh.RunV(binGo, "test", "-coverprofile", profile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func", profile)
}

// Engine runs only the combinatorics packages, skipping the store and CLI.
func (Test) Engine() error {
	pkgs := []string{"./internal/radix", "./internal/codec", "./internal/lru", "./pkg/types", "./pkg/comb", "./pkg/tree"}
	fmt.Println("Testing", len(pkgs), "engine packages")
	return sh.RunV(binGo, append([]string{"test"}, pkgs...)...)
}
