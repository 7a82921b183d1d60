// Package manifest persists accepted deployments per network so other tooling can find the
// deployed contracts, their addresses and their ABIs.
package manifest

import (
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/smartcontractkit/starknet-deployments/deployment"
)

// ErrEntryNotFound is returned when the manifest holds no entry for a network and contract.
var ErrEntryNotFound = errors.New("manifest entry not found")

// Entry is a deployed contract as recorded in the manifest.
type Entry struct {
	Contract        string          `json:"contract"`
	Artifact        string          `json:"artifact,omitempty"`
	Address         *felt.Felt      `json:"address"`
	ClassHash       *felt.Felt      `json:"classHash"`
	TransactionHash *felt.Felt      `json:"transactionHash"`
	BlockNumber     uint64          `json:"blockNumber,omitempty"`
	ABI             json.RawMessage `json:"abi,omitempty"`
	Fingerprint     string          `json:"fingerprint"`
	DeployedAt      time.Time       `json:"deployedAt"`
}

// EntryFromResult converts an accepted deployment into a manifest entry.
func EntryFromResult(r deployment.DeployResult) Entry {
	return Entry{
		Contract:        r.Contract,
		Artifact:        r.Artifact,
		Address:         r.Address,
		ClassHash:       r.ClassHash,
		TransactionHash: r.TransactionHash,
		BlockNumber:     r.BlockNumber,
		ABI:             r.ABI,
		Fingerprint:     r.Fingerprint,
		DeployedAt:      r.DeployedAt,
	}
}

// Result converts the entry of network back into a deployment result.
func (e Entry) Result(network string) deployment.DeployResult {
	return deployment.DeployResult{
		Network:         network,
		Contract:        e.Contract,
		Artifact:        e.Artifact,
		Address:         e.Address,
		TransactionHash: e.TransactionHash,
		ClassHash:       e.ClassHash,
		ABI:             e.ABI,
		Fingerprint:     e.Fingerprint,
		BlockNumber:     e.BlockNumber,
		DeployedAt:      e.DeployedAt,
	}
}

// Manifest maps network name to contract name to the deployed entry.
type Manifest map[string]map[string]Entry

// Get returns the entry of contract on network.
func (m Manifest) Get(network, contract string) (Entry, error) {
	e, ok := m[network][contract]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}

	return e, nil
}

// Networks returns the network names in sorted order.
func (m Manifest) Networks() []string {
	return slices.Sorted(maps.Keys(m))
}

// Entries returns the entries of network sorted by contract name.
func (m Manifest) Entries(network string) []Entry {
	contracts := slices.Sorted(maps.Keys(m[network]))
	out := make([]Entry, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, m[network][c])
	}

	return out
}

// Merge records results under network. Results replace entries of the same contract; entries of
// other contracts and other networks are kept.
func (m Manifest) Merge(network string, results []deployment.DeployResult) {
	if len(results) == 0 {
		return
	}
	if m[network] == nil {
		m[network] = make(map[string]Entry, len(results))
	}
	for _, r := range results {
		m[network][r.Contract] = EntryFromResult(r)
	}
}

// Filter returns the entries of network for which every predicate holds.
func (m Manifest) Filter(network string, filters ...FilterFunc) []Entry {
	entries := m.Entries(network)
	for _, f := range filters {
		entries = f(entries)
	}

	return entries
}

// FilterFunc narrows a list of entries.
type FilterFunc func([]Entry) []Entry

func entryFilter(predicate func(Entry) bool) FilterFunc {
	return func(entries []Entry) []Entry {
		filtered := make([]Entry, 0, len(entries))
		for _, e := range entries {
			if predicate(e) {
				filtered = append(filtered, e)
			}
		}

		return filtered
	}
}

// ByContract keeps the entry of the named contract.
func ByContract(contract string) FilterFunc {
	return entryFilter(func(e Entry) bool { return e.Contract == contract })
}

// ByArtifact keeps entries deployed from the given artifact.
func ByArtifact(artifact string) FilterFunc {
	return entryFilter(func(e Entry) bool { return e.Artifact == artifact })
}

// ByClassHash keeps entries of the given class.
func ByClassHash(classHash *felt.Felt) FilterFunc {
	return entryFilter(func(e Entry) bool { return e.ClassHash != nil && e.ClassHash.Equal(classHash) })
}

// DeployedAfter keeps entries deployed strictly after t.
func DeployedAfter(t time.Time) FilterFunc {
	return entryFilter(func(e Entry) bool { return e.DeployedAt.After(t) })
}
