package network

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the networks file location relative to the project root.
const DefaultPath = "networks.yaml"

// Manifest is the YAML representation of network configuration.
type Manifest struct {
	// A YAML array of networks.
	Networks []Network `yaml:"networks"`
}

// Config represents the configuration of a collection of networks. This is loaded from the YAML
// manifest file/s.
type Config struct {
	// networks is keyed by network name so that names are unique.
	networks map[string]Network
}

// NewConfig creates a new config from a slice of networks. Any duplicate names will be
// overwritten.
func NewConfig(networks []Network) *Config {
	nmap := make(map[string]Network)

	for _, network := range networks {
		nmap[network.Name] = network
	}

	return &Config{
		networks: nmap,
	}
}

// Validate ensures that all networks are valid.
func (c *Config) Validate() error {
	for _, network := range c.Networks() {
		if err := network.Validate(); err != nil {
			return fmt.Errorf("network %q: %w", network.Name, err)
		}
	}

	return nil
}

// Networks returns all networks in the config sorted by name.
func (c *Config) Networks() []Network {
	networks := make([]Network, 0, len(c.networks))
	for _, name := range c.Names() {
		networks = append(networks, c.networks[name])
	}

	return networks
}

// Names returns the sorted network names.
func (c *Config) Names() []string {
	return slices.Sorted(maps.Keys(c.networks))
}

// NetworkByName retrieves a network by its name. If the network is not found, an error is
// returned.
func (c *Config) NetworkByName(name string) (Network, error) {
	network, ok := c.networks[name]
	if !ok {
		return Network{}, fmt.Errorf("network %q not found in configuration", name)
	}

	return network, nil
}

// Merge merges another config into the current config.
// It overwrites any networks with the same name.
func (c *Config) Merge(other *Config) {
	maps.Copy(c.networks, other.networks)
}

// MarshalYAML implements the yaml.Marshaler interface for the Config struct.
func (c *Config) MarshalYAML() (any, error) {
	return Manifest{Networks: c.Networks()}, nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for the Config struct.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	node := Manifest{}

	if err := value.Decode(&node); err != nil {
		return err
	}

	*c = *NewConfig(node.Networks)

	return nil
}

// NetworkFilter defines a function type that filters networks based on certain criteria.
type NetworkFilter func(Network) bool

// FilterWith returns a new Config containing only Networks that pass all provided filter functions.
func (c *Config) FilterWith(filters ...NetworkFilter) *Config {
	networks := c.Networks()

	for _, filter := range filters {
		networks = slices.DeleteFunc(networks, func(network Network) bool {
			return !filter(network)
		})
	}

	return NewConfig(networks)
}

// TypesFilter returns a filter function that matches networks with the specified network types.
func TypesFilter(networkTypes ...NetworkType) NetworkFilter {
	return func(network Network) bool {
		return slices.Contains(networkTypes, network.Type)
	}
}

// ChainIDFilter returns a filter function that matches networks serving the given chain id.
func ChainIDFilter(chainID string) NetworkFilter {
	return func(network Network) bool {
		id, err := network.ResolvedChainID()
		if err != nil {
			return false
		}

		return id == chainID
	}
}

// transformHTTPURLs transforms the HTTP URLs of the networks in the config.
func (c *Config) transformHTTPURLs(transform URLTransformer) {
	for k, n := range c.networks {
		rpcs := slices.Clone(n.RPCs)
		for i, rpc := range rpcs {
			rpc.HTTPURL = transform(rpc.HTTPURL)
			rpcs[i] = rpc
		}
		n.RPCs = rpcs

		c.networks[k] = n
	}
}

// Load loads configuration from the specified file paths, and merges them into a single Config.
func Load(filePaths []string, opts ...LoadOption) (*Config, error) {
	cfg := NewConfig([]Network{})

	loadCfg := &loadConfig{}
	for _, opt := range opts {
		opt(loadCfg)
	}

	for _, fp := range filePaths {
		data, err := os.ReadFile(fp)
		if err != nil {
			return nil, fmt.Errorf("failed to read networks file: %w", err)
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal networks YAML: %w", err)
		}

		cfg.Merge(&fileCfg)
	}

	if loadCfg.HTTPURLTransformer != nil {
		cfg.transformHTTPURLs(loadCfg.HTTPURLTransformer)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate networks configuration: %w", err)
	}

	return cfg, nil
}

// LoadOption defines a function which modifies the load configuration.
type LoadOption func(*loadConfig)

// loadConfig holds the configuration for loading the config.
type loadConfig struct {
	HTTPURLTransformer URLTransformer
}

// URLTransformer is a function that transforms a URL.
type URLTransformer func(string) string

// WithHTTPURLTransformer transforms the HTTP URLs of the networks RPCs after loading.
func WithHTTPURLTransformer(t URLTransformer) LoadOption {
	return func(opts *loadConfig) {
		opts.HTTPURLTransformer = t
	}
}

// WithEnvExpansion expands $VAR and ${VAR} references in RPC URLs, so that API keys can stay out
// of the networks file.
func WithEnvExpansion() LoadOption {
	return WithHTTPURLTransformer(os.ExpandEnv)
}
