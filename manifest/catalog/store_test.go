package catalog

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/manifest"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"

	_ "github.com/proullon/ramsql/driver"
)

var deployedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// openMemStoreForTest opens a migrated store on an in-memory ramsql database.
func openMemStoreForTest(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("ramsql", t.Name())
	require.NoError(t, err)

	s := NewStore(db, logger.Test(t))
	t.Cleanup(func() {
		assert.NoError(t, s.Close())
	})
	require.NoError(t, s.Migrate(t.Context()))

	return s
}

func testEntry(contract, address string) manifest.Entry {
	return manifest.Entry{
		Contract:        contract,
		Artifact:        "CounterContract",
		Address:         starknet.MustParseFelt(address),
		ClassHash:       starknet.MustParseFelt("0xc1a55"),
		TransactionHash: starknet.MustParseFelt("0xbeef"),
		BlockNumber:     101,
		Fingerprint:     "fp-" + contract,
		DeployedAt:      deployedAt,
	}
}

func TestStore_Sync(t *testing.T) {
	t.Parallel()

	s := openMemStoreForTest(t)

	n, err := s.Sync(t.Context(), manifest.Manifest{
		"sepolia": {
			"CounterContract": testEntry("CounterContract", "0x1"),
			"Token":           testEntry("Token", "0x2"),
		},
		"mainnet": {
			"CounterContract": testEntry("CounterContract", "0x9"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := s.Get(t.Context(), "sepolia", "CounterContract")
	require.NoError(t, err)
	assert.Equal(t, "0x1", got.Address.String())
	assert.Equal(t, "0xc1a55", got.ClassHash.String())
	assert.Equal(t, "0xbeef", got.TransactionHash.String())
	assert.Equal(t, uint64(101), got.BlockNumber)
	assert.Equal(t, "fp-CounterContract", got.Fingerprint)
	assert.True(t, deployedAt.Equal(got.DeployedAt))

	list, err := s.List(t.Context(), "sepolia")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "CounterContract", list[0].Contract)
	assert.Equal(t, "Token", list[1].Contract)
}

func TestStore_SyncReplacesRows(t *testing.T) {
	t.Parallel()

	s := openMemStoreForTest(t)

	_, err := s.Sync(t.Context(), manifest.Manifest{
		"sepolia": {"CounterContract": testEntry("CounterContract", "0x1")},
	})
	require.NoError(t, err)

	redeployed := testEntry("CounterContract", "0x3")
	redeployed.BlockNumber = 202
	_, err = s.Sync(t.Context(), manifest.Manifest{
		"sepolia": {"CounterContract": redeployed},
	})
	require.NoError(t, err)

	list, err := s.List(t.Context(), "sepolia")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "0x3", list[0].Address.String())
	assert.Equal(t, uint64(202), list[0].BlockNumber)
}

func TestStore_Get_NotFound(t *testing.T) {
	t.Parallel()

	s := openMemStoreForTest(t)

	_, err := s.Get(t.Context(), "sepolia", "CounterContract")
	require.ErrorIs(t, err, ErrNotFound)

	list, err := s.List(t.Context(), "mainnet")
	require.NoError(t, err)
	assert.Empty(t, list)
}
