package deployment

import (
	"context"
	"errors"

	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// ErrPartialFailure is returned by Pipeline.Run when failOnPartial is set and at least one
// contract failed to deploy.
var ErrPartialFailure = errors.New("one or more contracts failed to deploy")

// Pipeline runs the checks, builds the requests, executes them and exports the results.
type Pipeline struct {
	checker  *Checker
	builder  *Builder
	executor *Executor
	manifest Manifest
	journal  *Journal
	lggr     logger.Logger

	failOnPartial bool
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithFailOnPartial makes Run return ErrPartialFailure when any contract failed.
func WithFailOnPartial() PipelineOption {
	return func(p *Pipeline) {
		p.failOnPartial = true
	}
}

// WithPipelineJournal clears journal entries of exported deployments.
func WithPipelineJournal(j *Journal) PipelineOption {
	return func(p *Pipeline) {
		p.journal = j
	}
}

// NewPipeline returns a Pipeline. manifest may be nil, in which case nothing is exported.
func NewPipeline(
	checker *Checker, builder *Builder, executor *Executor, manifest Manifest, lggr logger.Logger, opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		checker:  checker,
		builder:  builder,
		executor: executor,
		manifest: manifest,
		lggr:     lggr.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run deploys specs. A failed precondition aborts the run before any request is built and is
// returned as the error. Contracts that fail to build or deploy are reported in the Summary
// without affecting the others. Successful results are exported; an export failure is returned as
// a KindExportFailure error.
func (p *Pipeline) Run(ctx context.Context, specs []ContractSpec, defaults FeeOptions) (Summary, error) {
	if err := p.checker.CheckAll(ctx); err != nil {
		return Summary{}, err
	}

	// outcomes of specs that fail to build, by position
	buildFailures := make(map[int]Outcome)
	queue := NewQueue()
	for i, spec := range specs {
		req, err := p.builder.Build(spec, defaults)
		if err != nil {
			dErr := classify(spec.ID(), err)
			p.lggr.Warnw("Contract spec rejected", "contract", spec.ID(), "error", err)
			buildFailures[i] = Outcome{Contract: spec.ID(), Err: dErr}

			continue
		}
		queue.Enqueue(req)
	}

	reqs := queue.Drain()
	p.lggr.Infow("Executing deployments", "requests", len(reqs), "rejected", len(buildFailures))
	executed := p.executor.Execute(ctx, reqs)

	summary := Summary{Network: executed.Network, Outcomes: mergeOutcomes(len(specs), buildFailures, executed.Outcomes)}

	if err := p.export(summary); err != nil {
		return summary, err
	}

	failed := summary.Failed()
	for _, o := range failed {
		p.lggr.Warnw("Contract not deployed", "contract", o.Contract, "kind", o.Err.Kind, "reason", o.Err.Reason)
	}
	if p.failOnPartial && len(failed) > 0 {
		return summary, errors.Join(ErrPartialFailure, summary.Err())
	}

	return summary, nil
}

func (p *Pipeline) export(summary Summary) error {
	results := summary.Results()
	if p.manifest == nil || len(results) == 0 {
		return nil
	}

	if err := p.manifest.Export(summary.Network, results); err != nil {
		p.lggr.Errorw("Failed to export manifest", "error", err)
		return newError(KindExportFailure, GlobalScope, "manifest export failed", err)
	}
	p.lggr.Infow("Exported deployments", "network", summary.Network, "count", len(results))

	if p.journal != nil {
		fps := make([]string, 0, len(results))
		for _, r := range results {
			fps = append(fps, r.Fingerprint)
		}
		if err := p.journal.Remove(fps...); err != nil {
			p.lggr.Warnw("Failed to clear journal", "error", err)
		}
	}

	return nil
}

// mergeOutcomes interleaves build failures with executed outcomes in input order. Executed outcomes
// are in queue order, which follows input order except where a contract replaced an earlier pending one.
func mergeOutcomes(n int, buildFailures map[int]Outcome, executed []Outcome) []Outcome {
	out := make([]Outcome, 0, n)
	next := 0
	for i := range n {
		if o, ok := buildFailures[i]; ok {
			out = append(out, o)
			continue
		}
		if next < len(executed) {
			out = append(out, executed[next])
			next++
		}
	}

	return append(out, executed[next:]...)
}
