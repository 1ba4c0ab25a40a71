//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Extract builds the CLI and runs it with the legacy defaults in the
// current directory (CIK-File-6-input.txt -> output2.txt).
func Extract() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName))
}

// Index builds the CLI and ingests the default input into the CIK index.
func Index() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "index", "store")
}
