// Package testutil provides testing utilities for simfleet tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// Toolchain describes a fake toolchain installation on disk.
type Toolchain struct {
	// InstallPath is the directory a user would pass as the tool path
	// (the ".app" bundle).
	InstallPath string
	// Root is the directory holding the marker file.
	Root string
	// Binary is the executable tool path.
	Binary string
}

// SetupToolchain creates a fake installation laid out like
//
//	<tmp>/Xcode.app/Contents/version.plist
//	<tmp>/Xcode.app/Contents/Developer/usr/bin/simctl
//
// The binary is an executable shell script that exits 0. The directory is
// removed when the test completes.
func SetupToolchain(t *testing.T) Toolchain {
	t.Helper()

	install := filepath.Join(t.TempDir(), "Xcode.app")
	root := filepath.Join(install, "Contents")
	binary := filepath.Join(root, "Developer", "usr", "bin", "simctl")

	WriteFile(t, filepath.Join(root, "version.plist"), "<plist version=\"1.0\"><dict/></plist>\n", 0644)
	WriteFile(t, binary, "#!/bin/sh\nexit 0\n", 0755)

	return Toolchain{InstallPath: install, Root: root, Binary: binary}
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	// WriteFile does not change the mode of an existing file.
	if err := os.Chmod(path, perm); err != nil {
		t.Fatalf("failed to chmod %s: %v", path, err)
	}
}

// SkipIfNoShell skips the test if /bin/sh is not available.
func SkipIfNoShell(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

// SkipIfNoSimctl skips the test if the real simulator tool is not installed.
func SkipIfNoSimctl(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("xcode-select"); err != nil {
		t.Skip("xcode-select not available")
	}
}
