// Package plan loads deploy plans: YAML files listing the contracts to deploy on a network
// together with their artifacts, constructor arguments and fee settings.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/chain/starknet/abi"
	"github.com/smartcontractkit/starknet-deployments/deployment"
)

// DefaultPath is the deploy plan location relative to the project root.
const DefaultPath = "deploy.yaml"

// Plan is a deploy plan.
type Plan struct {
	// Network overrides the network of the environment configuration when set.
	Network       string     `yaml:"network,omitempty"`
	Concurrency   int        `yaml:"concurrency,omitempty"`
	FailOnPartial bool       `yaml:"failOnPartial,omitempty"`
	Defaults      Defaults   `yaml:"defaults,omitempty"`
	Contracts     []Contract `yaml:"contracts"`

	// dir resolves relative artifact paths.
	dir string
}

// Defaults apply to every contract of the plan.
type Defaults struct {
	Fee *Fee `yaml:"fee,omitempty"`
}

// Contract is one deployment of the plan.
type Contract struct {
	Contract        string `yaml:"contract"`
	ExportName      string `yaml:"exportName,omitempty"`
	ClassHash       string `yaml:"classHash"`
	ABI             string `yaml:"abi"`
	ConstructorArgs []Arg  `yaml:"constructorArgs,omitempty"`
	Fee             *Fee   `yaml:"fee,omitempty"`
	Salt            string `yaml:"salt,omitempty"`
	Unique          *bool  `yaml:"unique,omitempty"`
	Redeploy        bool   `yaml:"redeploy,omitempty"`
}

// Arg is a named constructor argument. Values keep their YAML shape: scalars, lists for arrays
// and tuples, mappings for structs and enums.
type Arg struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

// Load reads and validates the plan at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deploy plan: %w", err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("deploy plan %s: %w", path, err)
	}
	p.dir = filepath.Dir(path)

	return p, nil
}

// Parse decodes and validates a plan. Relative artifact paths of a parsed plan resolve against
// the working directory.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// Validate checks the settings of the plan as a whole. Problems scoped to a single contract,
// such as arguments that do not match the constructor, are reported when deploying.
func (p *Plan) Validate() error {
	if len(p.Contracts) == 0 {
		return errors.New("at least one contract is required")
	}
	if p.Concurrency < 0 {
		return errors.New("concurrency must not be negative")
	}
	if _, err := p.DefaultFees(); err != nil {
		return fmt.Errorf("invalid default fee: %w", err)
	}

	seen := make(map[string]bool, len(p.Contracts))
	for i, c := range p.Contracts {
		if err := c.validate(); err != nil {
			return fmt.Errorf("contract #%d: %w", i, err)
		}
		id := c.id()
		if seen[id] && !c.Redeploy {
			return fmt.Errorf("contract %s is listed twice", id)
		}
		seen[id] = true
	}

	return nil
}

// DefaultFees returns the plan wide fee options.
func (p *Plan) DefaultFees() (deployment.FeeOptions, error) {
	if p.Defaults.Fee == nil {
		return deployment.FeeOptions{}, nil
	}
	opts, err := p.Defaults.Fee.Options()
	if err != nil {
		return deployment.FeeOptions{}, err
	}

	return opts, opts.Validate()
}

// Specs converts the contracts of the plan into deployment specs, reading their ABI files.
func (p *Plan) Specs() ([]deployment.ContractSpec, error) {
	specs := make([]deployment.ContractSpec, 0, len(p.Contracts))
	for _, c := range p.Contracts {
		spec, err := c.spec(p.dir)
		if err != nil {
			return nil, fmt.Errorf("contract %s: %w", c.id(), err)
		}
		specs = append(specs, spec)
	}

	return specs, nil
}

func (c Contract) id() string {
	if c.ExportName != "" {
		return c.ExportName
	}

	return c.Contract
}

// validate checks the fields of c parse. Whether they fit the contract is left to the builder.
func (c Contract) validate() error {
	if c.id() == "" {
		return errors.New("contract name is required")
	}
	if c.ClassHash != "" {
		if _, err := starknet.ParseFelt(c.ClassHash); err != nil {
			return fmt.Errorf("invalid class hash: %w", err)
		}
	}
	if c.Salt != "" {
		if _, err := starknet.ParseFelt(c.Salt); err != nil {
			return fmt.Errorf("invalid salt: %w", err)
		}
	}
	if c.Fee != nil {
		if _, err := c.Fee.Options(); err != nil {
			return fmt.Errorf("invalid fee: %w", err)
		}
	}

	return nil
}

func (c Contract) spec(dir string) (deployment.ContractSpec, error) {
	spec := deployment.ContractSpec{
		Contract:   c.Contract,
		ExportName: c.ExportName,
		Unique:     c.Unique,
		Redeploy:   c.Redeploy,
	}

	var err error
	if c.ClassHash != "" {
		if spec.Artifact.ClassHash, err = starknet.ParseFelt(c.ClassHash); err != nil {
			return spec, fmt.Errorf("invalid class hash: %w", err)
		}
	}
	if c.ABI != "" {
		path := c.ABI
		if !filepath.IsAbs(path) && dir != "" {
			path = filepath.Join(dir, path)
		}
		if spec.Artifact.ABI, err = LoadABI(path); err != nil {
			return spec, err
		}
	}
	if c.Salt != "" {
		if spec.Salt, err = starknet.ParseFelt(c.Salt); err != nil {
			return spec, fmt.Errorf("invalid salt: %w", err)
		}
	}
	if c.Fee != nil {
		opts, feeErr := c.Fee.Options()
		if feeErr != nil {
			return spec, fmt.Errorf("invalid fee: %w", feeErr)
		}
		spec.Fee = &opts
	}
	for _, a := range c.ConstructorArgs {
		spec.ConstructorArgs = append(spec.ConstructorArgs, abi.Arg{Name: a.Name, Value: a.Value})
	}

	return spec, nil
}

// LoadABI reads the ABI of a contract. The file holds either the ABI array itself or a compiled
// contract class whose "abi" field is the array or its JSON encoding.
func LoadABI(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read abi: %w", err)
	}

	var probe any
	if err = json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse abi %s: %w", path, err)
	}

	switch v := probe.(type) {
	case []any:
		return json.RawMessage(data), nil
	case map[string]any:
		switch a := v["abi"].(type) {
		case []any:
			return json.Marshal(a)
		case string:
			if !json.Valid([]byte(a)) {
				return nil, fmt.Errorf("abi field of %s is not valid JSON", path)
			}

			return json.RawMessage(a), nil
		default:
			return nil, fmt.Errorf("%s has no abi field", path)
		}
	default:
		return nil, fmt.Errorf("%s holds neither an abi nor a contract class", path)
	}
}
