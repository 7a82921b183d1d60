package config

import (
	"errors"
	"io/fs"
	"os"
	"slices"

	"github.com/spf13/viper"
)

// DefaultNetwork is used when no network is configured.
const DefaultNetwork = "devnet"

// StarknetConfig is the configuration of the Starknet connection and deployer account.
//
// WARNING: This data type contains sensitive fields and should not be logged or set in file
// configuration.
type StarknetConfig struct {
	Network        string `mapstructure:"network" yaml:"network"`                 // The network to deploy to, e.g. sepolia
	RPCURL         string `mapstructure:"rpc_url" yaml:"rpc_url"`                 // Overrides the RPC URL of the networks file
	AccountAddress string `mapstructure:"account_address" yaml:"account_address"` // The address of the deployer account contract
	PrivateKey     string `mapstructure:"private_key" yaml:"private_key"`         // Secret: The STARK private key of the deployer account.
}

// CatalogConfig is the configuration to connect to the SQL catalog.
//
// WARNING: This data type contains sensitive fields and should not be logged or set in file
// configuration.
type CatalogConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"` // Secret: The postgres connection string, may embed credentials.
}

// LogConfig is the configuration of the logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // The minimum log level, e.g. debug
}

// Config wraps the entire environment configuration of the deployment tooling.
type Config struct {
	Starknet StarknetConfig `mapstructure:"starknet" yaml:"starknet"`
	Catalog  CatalogConfig  `mapstructure:"catalog" yaml:"catalog"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// Load loads the config from the file path, falling back to env vars if the file does not exist.
// If the file exists, any env vars that are set will override the values loaded from the file.
func Load(filePath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(filePath)

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	// A missing file falls back to environment variables only
	if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg)

	return cfg, err
}

// LoadEnv loads the config from the environment variables.
func LoadEnv() (*Config, error) {
	v := newViper()

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg)

	return cfg, err
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("starknet.network", DefaultNetwork)
	v.SetDefault("log.level", "info")

	return v
}

var (
	// envBindings maps config keys to the environment variables that can provide their value.
	//
	// The first element in the list is the preferred environment variable name, the following ones
	// are the per-network names used by existing scaffold projects. Viper uses the first one that
	// is set.
	envBindings = map[string][]string{
		"starknet.network":         {"STARKNET_NETWORK"},
		"starknet.rpc_url":         {"STARKNET_RPC_URL", "RPC_URL_SEPOLIA"},
		"starknet.account_address": {"STARKNET_ACCOUNT_ADDRESS", "ACCOUNT_ADDRESS_SEPOLIA"},
		"starknet.private_key":     {"STARKNET_PRIVATE_KEY", "PRIVATE_KEY_SEPOLIA"},
		"catalog.dsn":              {"CATALOG_DSN", "DATABASE_URL"},
		"log.level":                {"LOG_LEVEL"},
	}
)

// bindEnvs binds the environment variables to the viper instance.
func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		// Prepend the config key to the start of the arguments
		inputs := slices.Insert(slices.Clone(envs), 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}
