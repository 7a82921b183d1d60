package jsonutils

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/smartcontractkit/starknet-deployments/internal/fileutils"
)

// WriteFile marshals data into pretty JSON and atomically writes it at path with the permission
// bits perm.
func WriteFile(path string, data any, perm os.FileMode) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	return fileutils.WriteFileAtomic(path, append(b, '\n'), perm)
}

// LoadFile loads a JSON file from the OS filesystem into T.
func LoadFile[T any](path string) (T, error) {
	var v T

	f, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err = json.Unmarshal(f, &v); err != nil {
		return v, fmt.Errorf("failed to unmarshal JSON at path %s: %w", path, err)
	}

	return v, nil
}
