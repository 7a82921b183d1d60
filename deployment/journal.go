package deployment

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"sync"
	"time"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/smartcontractkit/starknet-deployments/internal/jsonutils"
)

// JournalEntry is a submitted deployment transaction whose result has not been exported yet.
type JournalEntry struct {
	Network         string     `json:"network"`
	Contract        string     `json:"contract"`
	TransactionHash *felt.Felt `json:"transactionHash"`
	// ExpectedAddress is the address computed from the submitted salt. A later run builds the
	// request with a fresh salt, so it cannot recompute it.
	ExpectedAddress *felt.Felt `json:"expectedAddress,omitempty"`
	SubmittedAt     time.Time  `json:"submittedAt"`
}

type journalFile struct {
	Pending map[string]JournalEntry `json:"pending"`
}

// Journal records submitted deployment transactions by request fingerprint before their
// acceptance is known, so an interrupted run waits for the earlier transaction instead of
// submitting a duplicate deployment. It is safe for concurrent use.
type Journal struct {
	mu      sync.Mutex
	path    string
	entries map[string]JournalEntry
}

// NewMemoryJournal returns a journal that is not persisted.
func NewMemoryJournal() *Journal {
	return &Journal{entries: map[string]JournalEntry{}}
}

// OpenJournal loads the journal at path. A missing file is an empty journal.
func OpenJournal(path string) (*Journal, error) {
	j := &Journal{path: path, entries: map[string]JournalEntry{}}

	f, err := jsonutils.LoadFile[journalFile](path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return j, nil
		}

		return nil, fmt.Errorf("failed to load journal: %w", err)
	}
	maps.Copy(j.entries, f.Pending)

	return j, nil
}

// Pending returns the entry recorded for fingerprint.
func (j *Journal) Pending(fingerprint string) (JournalEntry, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	e, ok := j.entries[fingerprint]

	return e, ok
}

// Record stores entry under fingerprint and persists the journal.
func (j *Journal) Record(fingerprint string, entry JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries[fingerprint] = entry

	return j.persist()
}

// Remove deletes the entries of the given fingerprints and persists the journal.
func (j *Journal) Remove(fingerprints ...string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	removed := false
	for _, fp := range fingerprints {
		if _, ok := j.entries[fp]; ok {
			delete(j.entries, fp)
			removed = true
		}
	}
	if !removed {
		return nil
	}

	return j.persist()
}

// Len returns the number of pending entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	return len(j.entries)
}

func (j *Journal) persist() error {
	if j.path == "" {
		return nil
	}
	if err := jsonutils.WriteFile(j.path, journalFile{Pending: j.entries}, 0o600); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}

	return nil
}
