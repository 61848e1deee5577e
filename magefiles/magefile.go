//go:build mage

// Package main contains Mage build targets for stackpair developer tooling.
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

// projectDirs lists the working directories the CLI expects.
var projectDirs = []string{
	"dumps",
	"out",
}

// Init creates the dumps/ and out/ directories.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized. Extract each site's Posts.xml into dumps/<site>/.")
	return nil
}

const (
	binDir  = "bin"
	binName = "stackpair"
	cmdPkg  = "./cmd/stackpair"
)

func binPath() string {
	return filepath.Join(binDir, binName)
}

// Build compiles the CLI binary into bin/, stamping the git version when
// one is available.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
		version = "dev"
	}
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", binPath(), cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", binPath(), version)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Pair builds the CLI and pairs every dataset under dumps/ into out/.
// Extra arguments come from STACKPAIR_ environment variables or stackpair.yaml.
func Pair() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "pair")
}

// Clean removes the binary and all generated tables.
func Clean() error {
	for _, dir := range []string{binDir, "out"} {
		if err := sh.Rm(dir); err != nil {
			return err
		}
	}
	return nil
}

// Stats prints Go production and test line counts per top-level directory.
func Stats() error {
	prod := map[string]int{}
	test := map[string]int{}
	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), "_") || d.Name() == ".git" {
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
		top := strings.SplitN(filepath.ToSlash(path), "/", 2)[0]
		if strings.HasSuffix(path, "_test.go") {
			test[top] += n
		} else {
			prod[top] += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	var prodTotal, testTotal int
	for _, dir := range []string{"cmd", "internal", "pkg", "magefiles"} {
		fmt.Printf("%-10s  production %6d  tests %6d\n", dir, prod[dir], test[dir])
		prodTotal += prod[dir]
		testTotal += test[dir]
	}
	fmt.Printf("%-10s  production %6d  tests %6d\n", "total", prodTotal, testTotal)
	return nil
}

// countLines counts non-blank lines in a file.
func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n, sc.Err()
}
