package network

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DevnetMetadata holds metadata of a network backed by a local starknet-devnet container.
type DevnetMetadata struct {
	DevnetConfig *DevnetConfig `yaml:"devnet_config,omitempty"`
}

// DevnetConfig holds the configuration for starting a starknet-devnet node.
type DevnetConfig struct {
	Image string `yaml:"image"`
	Seed  uint   `yaml:"seed"`
}

// Validate checks if the DevnetConfig has all required fields set.
func (d DevnetConfig) Validate() error {
	if d.Image == "" {
		return errors.New("image is not defined")
	}

	return nil
}

// DecodeMetadata converts the metadata field from an any interface to a user-specified type using
// yaml marshaling.
func DecodeMetadata[T any](metadata any) (T, error) {
	var target T
	if metadata == nil {
		return target, errors.New("metadata is nil")
	}

	yamlBytes, err := yaml.Marshal(metadata)
	if err != nil {
		return target, fmt.Errorf("failed to marshal metadata to YAML: %w", err)
	}

	if err := yaml.Unmarshal(yamlBytes, &target); err != nil {
		return target, fmt.Errorf("failed to unmarshal metadata to target type: %w", err)
	}

	return target, nil
}
