// All output files related functions
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PartialSuffix marks an output that is still being written.
const PartialSuffix = ".partial"

func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	return nil
}

// Stage returns the path a stream is written to before Commit.
// Any stale partial from an interrupted run is removed.
func Stage(final string) (string, error) {
	if err := EnsureDir(filepath.Dir(final)); err != nil {
		return "", err
	}
	partial := final + PartialSuffix
	if err := os.Remove(partial); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("remove stale %s: %w", partial, err)
	}
	return partial, nil
}

// Commit moves a finished partial onto its final name.
func Commit(partial, final string) error {
	if err := os.Rename(partial, final); err != nil {
		return fmt.Errorf("commit %s: %w", final, err)
	}
	return nil
}

// Discard removes a partial, a missing file is not an error.
func Discard(partial string) error {
	err := os.Remove(partial)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// WriteJSON writes v indented to a temp file next to path and renames it
// into place.
func WriteJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
