package deployment

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/chain/starknet/abi"
)

// Artifact is a declared contract class and its ABI.
type Artifact struct {
	ClassHash *felt.Felt
	ABI       json.RawMessage
}

// ContractSpec is a caller supplied description of one contract to deploy.
type ContractSpec struct {
	// Contract is the artifact name, e.g. CounterContract.
	Contract string
	// ExportName is the name the deployment is recorded under in the manifest. Defaults to Contract.
	ExportName string
	Artifact   Artifact
	// ConstructorArgs are the constructor arguments by parameter name. The string "$deployer"
	// stands for the deployer account address.
	ConstructorArgs []abi.Arg
	// Fee overrides the default fee options field by field.
	Fee *FeeOptions
	// Salt is random when nil.
	Salt *felt.Felt
	// Unique mixes the deployer address into the address derivation. Defaults to true.
	Unique *bool
	// Redeploy deploys again even if the manifest already records an identical deployment.
	Redeploy bool
}

// ID returns the identifier the deployment is recorded under.
func (s ContractSpec) ID() string {
	if s.ExportName != "" {
		return s.ExportName
	}

	return s.Contract
}

// DeployRequest is a validated, fully encoded deployment of one contract. It is immutable: the
// getters return copies.
type DeployRequest struct {
	contract        string
	artifact        string
	network         string
	classHash       *felt.Felt
	abi             json.RawMessage
	args            []abi.Arg
	calldata        []*felt.Felt
	salt            *felt.Felt
	unique          bool
	fee             FeeOptions
	deployer        *felt.Felt
	expectedAddress *felt.Felt
	redeploy        bool
	fingerprint     string
}

// Contract returns the identifier the deployment is recorded under.
func (r DeployRequest) Contract() string { return r.contract }

// Artifact returns the artifact name.
func (r DeployRequest) Artifact() string { return r.artifact }

// Network returns the target network name.
func (r DeployRequest) Network() string { return r.network }

func (r DeployRequest) ClassHash() *felt.Felt { return cloneFelt(r.classHash) }

func (r DeployRequest) ABI() json.RawMessage { return slices.Clone(r.abi) }

// Args returns the constructor arguments in constructor order, placeholders resolved.
func (r DeployRequest) Args() []abi.Arg { return slices.Clone(r.args) }

// Calldata returns the encoded constructor calldata.
func (r DeployRequest) Calldata() []*felt.Felt { return cloneFelts(r.calldata) }

func (r DeployRequest) Salt() *felt.Felt { return cloneFelt(r.salt) }

func (r DeployRequest) Unique() bool { return r.unique }

// Fee returns the merged fee options.
func (r DeployRequest) Fee() FeeOptions { return FeeOptions{}.Merge(r.fee) }

// ExpectedAddress returns the locally computed address of the contract, nil when the deployer is
// unknown.
func (r DeployRequest) ExpectedAddress() *felt.Felt { return cloneFelt(r.expectedAddress) }

func (r DeployRequest) Redeploy() bool { return r.redeploy }

// Fingerprint identifies the deployment independently of a randomly chosen salt: two requests with
// the same fingerprint deploy the same class with the same constructor calldata.
func (r DeployRequest) Fingerprint() string { return r.fingerprint }

// Call returns the Universal Deployer call performing the deployment.
func (r DeployRequest) Call() starknet.Call {
	return starknet.UDCDeployCall(r.ClassHash(), r.Salt(), r.unique, r.Calldata())
}

type fingerprintFields struct {
	Network   string   `json:"network"`
	Deployer  string   `json:"deployer"`
	ClassHash string   `json:"classHash"`
	Unique    bool     `json:"unique"`
	Salt      string   `json:"salt,omitempty"`
	Calldata  []string `json:"calldata"`
}

// fingerprint hashes what determines the deployed contract. The salt only counts when it was
// chosen explicitly.
func fingerprint(network string, deployer, classHash, explicitSalt *felt.Felt, unique bool, calldata []*felt.Felt) string {
	f := fingerprintFields{
		Network:   network,
		ClassHash: classHash.String(),
		Unique:    unique,
		Calldata:  starknet.FeltStrings(calldata),
	}
	if deployer != nil {
		f.Deployer = deployer.String()
	}
	if explicitSalt != nil {
		f.Salt = explicitSalt.String()
	}

	// marshalling a struct of strings cannot fail
	b, _ := json.Marshal(f)
	sum := sha256.Sum256(b)

	return hex.EncodeToString(sum[:])
}

func cloneFelt(f *felt.Felt) *felt.Felt {
	if f == nil {
		return nil
	}

	return new(felt.Felt).Set(f)
}

func cloneFelts(fs []*felt.Felt) []*felt.Felt {
	out := make([]*felt.Felt, len(fs))
	for i, f := range fs {
		out[i] = cloneFelt(f)
	}

	return out
}
