// Package catalog mirrors manifest entries into a SQL table so that services without access to
// the manifest file can resolve deployed contracts.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/manifest"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"

	_ "github.com/lib/pq"
)

// DriverPostgres is the database/sql driver name registered by lib/pq.
const DriverPostgres = "postgres"

// ErrNotFound is returned when the catalog holds no row for a network and contract.
var ErrNotFound = errors.New("catalog entry not found")

// Store reads and writes the starknet_deployments table.
//
// A Store serializes its own statements; it is safe for concurrent use.
type Store struct {
	db   *dbController
	lggr logger.Logger

	mu sync.Mutex
}

// Open connects to the catalog database and verifies the connection.
func Open(ctx context.Context, driver, dsn string, lggr logger.Logger) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to reach catalog database: %w", err)
	}

	return NewStore(db, lggr), nil
}

// NewStore returns a Store backed by db.
func NewStore(db *sql.DB, lggr logger.Logger) *Store {
	return &Store{db: newDbController(db), lggr: lggr.Named("catalog")}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.base.Close()
}

// Migrate creates the deployments table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, schemaDeployments); err != nil {
		return fmt.Errorf("failed to create deployments table: %w", err)
	}

	return nil
}

// Sync writes every entry of m into the catalog in a single transaction, replacing rows of the
// same network and contract. It returns the number of rows written.
func (s *Store) Sync(ctx context.Context, m manifest.Manifest) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.db.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, s.db.Rollback())
			n = 0

			return
		}
		err = s.db.Commit()
	}()

	for _, network := range m.Networks() {
		for _, e := range m.Entries(network) {
			if err = s.upsert(ctx, network, e); err != nil {
				return 0, fmt.Errorf("failed to sync %s on %s: %w", e.Contract, network, err)
			}
			n++
		}
	}
	s.lggr.Infow("Catalog synced", "rows", n, "networks", len(m))

	return n, nil
}

// Get returns the catalog row of contract on network.
func (s *Store) Get(ctx context.Context, network, contract string) (manifest.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.query(ctx, querySelectDeployment, entryID(network, contract))
	if err != nil {
		return manifest.Entry{}, err
	}
	if len(entries) == 0 {
		return manifest.Entry{}, ErrNotFound
	}

	return entries[0], nil
}

// List returns the catalog rows of network sorted by contract name.
func (s *Store) List(ctx context.Context, network string) ([]manifest.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.query(ctx, queryListDeployments, network)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(entries, func(a, b manifest.Entry) int {
		return strings.Compare(a.Contract, b.Contract)
	})

	return entries, nil
}

func (s *Store) upsert(ctx context.Context, network string, e manifest.Entry) error {
	id := entryID(network, e.Contract)
	if _, err := s.db.ExecContext(ctx, queryDeleteDeployment, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, queryInsertDeployment,
		id,
		network,
		e.Contract,
		e.Artifact,
		feltString(e.Address),
		feltString(e.ClassHash),
		feltString(e.TransactionHash),
		int64(e.BlockNumber), //nolint:gosec // block numbers fit in int64
		e.Fingerprint,
		e.DeployedAt.UTC().Format(time.RFC3339Nano),
	)

	return err
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]manifest.Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var entries []manifest.Entry
	for rows.Next() {
		e, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog rows: %w", err)
	}

	return entries, nil
}

func scanEntry(rows *sql.Rows) (manifest.Entry, error) {
	var (
		network, address, classHash, txHash, deployedAt string
		blockNumber                                     int64
		e                                               manifest.Entry
	)
	err := rows.Scan(&network, &e.Contract, &e.Artifact, &address, &classHash, &txHash,
		&blockNumber, &e.Fingerprint, &deployedAt)
	if err != nil {
		return manifest.Entry{}, fmt.Errorf("failed to scan catalog row: %w", err)
	}

	if e.Address, err = starknet.ParseFelt(address); err != nil {
		return manifest.Entry{}, fmt.Errorf("invalid address of %s: %w", e.Contract, err)
	}
	if e.ClassHash, err = starknet.ParseFelt(classHash); err != nil {
		return manifest.Entry{}, fmt.Errorf("invalid class hash of %s: %w", e.Contract, err)
	}
	if e.TransactionHash, err = starknet.ParseFelt(txHash); err != nil {
		return manifest.Entry{}, fmt.Errorf("invalid transaction hash of %s: %w", e.Contract, err)
	}
	if e.DeployedAt, err = time.Parse(time.RFC3339Nano, deployedAt); err != nil {
		return manifest.Entry{}, fmt.Errorf("invalid deployment time of %s: %w", e.Contract, err)
	}
	e.BlockNumber = uint64(blockNumber) //nolint:gosec // stored from a uint64

	return e, nil
}

func entryID(network, contract string) string {
	return network + "/" + contract
}

func feltString(f *felt.Felt) string {
	if f == nil {
		return "0x0"
	}

	return f.String()
}
