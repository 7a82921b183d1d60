package deployment

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/NethermindEth/juno/core/felt"
)

// DeployResult is an accepted deployment.
type DeployResult struct {
	Network         string          `json:"network"`
	Contract        string          `json:"contract"`
	Artifact        string          `json:"artifact,omitempty"`
	Address         *felt.Felt      `json:"address"`
	TransactionHash *felt.Felt      `json:"transactionHash"`
	ClassHash       *felt.Felt      `json:"classHash"`
	ABI             json.RawMessage `json:"abi,omitempty"`
	Fingerprint     string          `json:"fingerprint"`
	BlockNumber     uint64          `json:"blockNumber"`
	DeployedAt      time.Time       `json:"deployedAt"`
}

// Outcome is the resolution of one requested contract: a result or a classified error.
type Outcome struct {
	Contract string
	Result   *DeployResult
	Err      *Error
	// Reused is set when the result was taken from the manifest without submitting a transaction.
	Reused bool
}

// Succeeded reports whether the contract is deployed.
func (o Outcome) Succeeded() bool { return o.Err == nil && o.Result != nil }

// Summary lists the outcome of every requested contract in request order.
type Summary struct {
	Network  string
	Outcomes []Outcome
}

// Results returns the results of the successful outcomes.
func (s Summary) Results() []DeployResult {
	var out []DeployResult
	for _, o := range s.Outcomes {
		if o.Succeeded() {
			out = append(out, *o.Result)
		}
	}

	return out
}

// Failed returns the failed outcomes.
func (s Summary) Failed() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if !o.Succeeded() {
			out = append(out, o)
		}
	}

	return out
}

// Err joins the errors of every failed outcome, nil when all succeeded.
func (s Summary) Err() error {
	var errs []error
	for _, o := range s.Failed() {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}

	return errors.Join(errs...)
}
