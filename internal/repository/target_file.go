package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultTargetPath is where the plain-text target is kept when no path is
// configured.
const DefaultTargetPath = "target_temperature.txt"

// TargetFile keeps the target temperature as a single float in a text file.
// One owner only: there is no cross-process locking.
type TargetFile struct {
	path string
}

func NewTargetFile(path string) *TargetFile {
	if path == "" {
		path = DefaultTargetPath
	}
	return &TargetFile{path: path}
}

var _ TargetStore = (*TargetFile)(nil)

func (t *TargetFile) Path() string { return t.path }

// Save overwrites the stored value. The write goes through a temp file and a
// rename so a crash never leaves a half-written number behind.
func (t *TargetFile) Save(ctx context.Context, valueC float64) error {
	tmp, err := os.CreateTemp(filepath.Dir(t.path), filepath.Base(t.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("target file: create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(strconv.FormatFloat(valueC, 'f', -1, 64) + "\n"); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("target file: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("target file: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.path); err != nil {
		return fmt.Errorf("target file: rename: %w", err)
	}
	return nil
}

// Load returns ok=false when no target is stored.
func (t *TargetFile) Load(ctx context.Context) (float64, bool, error) {
	b, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("target file: read: %w", err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		return 0, false, fmt.Errorf("target file: parse %q: %w", t.path, err)
	}
	return v, true, nil
}

// Delete removes the stored value; a missing file is not an error.
func (t *TargetFile) Delete(ctx context.Context) error {
	if err := os.Remove(t.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("target file: delete: %w", err)
	}
	return nil
}
