// Package config manages reorg settings and filesystem paths.
//
// The default root is ~/.reorg/ containing the descriptor history and the
// settings file. The root can be moved with the REORG_HOME environment
// variable.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the root directory.
const HomeEnv = "REORG_HOME"

// Paths contains all the filesystem paths used by reorg.
type Paths struct {
	// Root is the base directory for all reorg data (default: ~/.reorg)
	Root string

	// History is the directory containing saved descriptors
	History string

	// Config is the path to the settings file
	Config string
}

// DefaultPaths returns the default paths, honouring REORG_HOME.
func DefaultPaths() (*Paths, error) {
	root := os.Getenv(HomeEnv)
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".reorg")
	}
	return PathsAt(root), nil
}

// PathsAt returns the paths below root.
func PathsAt(root string) *Paths {
	return &Paths{
		Root:    root,
		History: filepath.Join(root, "history"),
		Config:  filepath.Join(root, "config.yaml"),
	}
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.Root, p.History} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
