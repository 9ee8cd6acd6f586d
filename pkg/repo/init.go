package repo

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultBranch = "master"

const defaultDescription = "Unnamed repository; edit this file 'description' to name the repository.\n"

// Init creates a new repository at path. It lays out the .pal/ directory
// (objects/, refs/heads/, refs/tags/, branches/, info/), a HEAD pointing at
// the default branch, a description file and an INI config. Returns
// ErrRepositoryExists if .pal/ already exists.
func Init(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: abs path: %w", err)
	}
	palDir := filepath.Join(abs, MetaDirName)

	if _, err := os.Stat(palDir); err == nil {
		return nil, fmt.Errorf("init: %s: %w", palDir, ErrRepositoryExists)
	}

	dirs := []string{
		filepath.Join(palDir, "objects"),
		filepath.Join(palDir, "refs", "heads"),
		filepath.Join(palDir, "refs", "tags"),
		filepath.Join(palDir, "branches"),
		filepath.Join(palDir, "info"),
		filepath.Join(palDir, "logs", "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	if err := os.WriteFile(filepath.Join(palDir, "HEAD"), []byte("ref: refs/heads/"+defaultBranch+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}
	if err := os.WriteFile(filepath.Join(palDir, "description"), []byte(defaultDescription), 0o644); err != nil {
		return nil, fmt.Errorf("init: write description: %w", err)
	}

	r := newRepo(abs, palDir)
	if err := r.WriteConfig(DefaultConfig()); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	r.log.WithField("path", palDir).Debug("initialized repository")
	return r, nil
}

// Open searches upward from path for a .pal/ directory and opens the
// repository.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		palDir := filepath.Join(cur, MetaDirName)
		info, err := os.Stat(palDir)
		if err == nil && info.IsDir() {
			return newRepo(cur, palDir), nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open %s: %w (or any parent up to /)", abs, ErrNotARepository)
		}
		cur = parent
	}
}
