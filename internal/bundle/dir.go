package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrExists is returned by DirSink when a target exists and Overwrite is off.
var ErrExists = errors.New("file already exists")

// DirSink writes bundle files under Dir.
type DirSink struct {
	Dir string
	// Overwrite replaces existing files. When off, an existing file is an
	// ErrExists error.
	Overwrite bool
	// Backup copies an existing file to <path>.bak before replacing it.
	Backup bool
}

// Put writes f to Dir/path, creating parent directories as needed.
func (s DirSink) Put(_ context.Context, path string, f File) error {
	abs := filepath.Join(s.Dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(abs), err)
	}

	old, err := os.ReadFile(abs)
	switch {
	case err == nil:
		if !s.Overwrite {
			return fmt.Errorf("%s: %w", abs, ErrExists)
		}
		if s.Backup {
			if err := os.WriteFile(abs+".bak", old, 0o644); err != nil {
				return fmt.Errorf("backup %s: %w", abs, err)
			}
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("stat %s: %w", abs, err)
	}

	mode := f.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := os.WriteFile(abs, f.Data, mode); err != nil {
		return fmt.Errorf("write %s: %w", abs, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(abs, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", abs, err)
	}
	return nil
}
