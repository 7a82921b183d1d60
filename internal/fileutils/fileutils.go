package fileutils

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileGitKeep writes a .gitkeep file to the path.
func WriteFileGitKeep(path string) error {
	file, err := os.Create(filepath.Join(path, ".gitkeep"))
	if err != nil {
		return err
	}

	defer file.Close()

	return nil
}

// MkdirAllGitKeep creates a directory with a .gitkeep file. This will create all parent
// directories if they do not already exist.
func MkdirAllGitKeep(path string) error {
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return err
	}

	return WriteFileGitKeep(path)
}

// WriteFileAtomic writes data to a temporary file in the directory of path and renames it over
// path, so readers observe either the previous content or the new content.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	return nil
}
