package binding

import (
	"context"
	"sync"
	"time"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet/abi"
)

const (
	// DefaultPollInterval is the time between two reads of a Poller.
	DefaultPollInterval = 10 * time.Second
	// DefaultSettleDelay is the wait between a write and the read refreshing its result.
	DefaultSettleDelay = 2 * time.Second
)

// Reading is the result of one read of a Poller.
type Reading struct {
	Values []any
	Err    error
	At     time.Time
}

// Poller keeps the result of a read up to date. It reads on a fixed interval and once more a
// short while after each write reported through AfterWrite.
type Poller struct {
	contract *Contract
	function string
	args     []abi.Arg

	interval time.Duration
	settle   time.Duration

	refresh chan struct{}
	updates chan Reading

	mu     sync.RWMutex
	latest *Reading
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the time between two reads. Non-positive values are ignored.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithSettleDelay sets the wait between a write and the refreshing read. Negative values are
// ignored.
func WithSettleDelay(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d >= 0 {
			p.settle = d
		}
	}
}

// NewPoller returns a Poller reading function of c with args.
func NewPoller(c *Contract, function string, args []abi.Arg, opts ...PollerOption) *Poller {
	p := &Poller{
		contract: c,
		function: function,
		args:     args,
		interval: DefaultPollInterval,
		settle:   DefaultSettleDelay,
		refresh:  make(chan struct{}, 1),
		updates:  make(chan Reading, 1),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Updates delivers readings whose values changed or that failed. A slow consumer only misses
// intermediate readings, Latest always holds the most recent one.
func (p *Poller) Updates() <-chan Reading { return p.updates }

// Latest returns the most recent reading.
func (p *Poller) Latest() (Reading, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.latest == nil {
		return Reading{}, false
	}

	return *p.latest, true
}

// AfterWrite schedules a read once the settle delay has passed. Calls made while a refresh is
// pending are coalesced.
func (p *Poller) AfterWrite() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Run reads immediately and then keeps reading until ctx is done. It returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var settled <-chan time.Time
	p.read(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.read(ctx)
		case <-p.refresh:
			if settled == nil {
				settled = time.After(p.settle)
			}
		case <-settled:
			settled = nil
			p.read(ctx)
			ticker.Reset(p.interval)
		}
	}
}

func (p *Poller) read(ctx context.Context) {
	values, err := p.contract.Call(ctx, p.function, p.args...)
	if ctx.Err() != nil {
		return
	}
	r := Reading{Values: values, Err: err, At: time.Now()}

	p.mu.Lock()
	changed := p.latest == nil || err != nil || p.latest.Err != nil || !equalValues(p.latest.Values, values)
	p.latest = &r
	p.mu.Unlock()

	if err != nil {
		p.contract.lggr.Warnw("Read failed", "function", p.function, "err", err)
	}
	if !changed {
		return
	}

	// Replace an unconsumed reading with the newer one
	select {
	case <-p.updates:
	default:
	}
	select {
	case p.updates <- r:
	default:
	}
}
