package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/deployment"
	fmanifest "github.com/smartcontractkit/starknet-deployments/manifest"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// writeManifest exports two sepolia contracts and one mainnet contract and returns the path.
func writeManifest(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "manifest.json")
	e := fmanifest.NewExporter(path, logger.Test(t))

	result := func(network, contract, artifact, address string) deployment.DeployResult {
		return deployment.DeployResult{
			Network:         network,
			Contract:        contract,
			Artifact:        artifact,
			Address:         starknet.MustParseFelt(address),
			TransactionHash: starknet.MustParseFelt("0xbeef"),
			ClassHash:       starknet.MustParseFelt("0xc1a55"),
			ABI:             json.RawMessage(`[]`),
			Fingerprint:     "fp-" + contract,
			DeployedAt:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		}
	}

	require.NoError(t, e.Export("sepolia", []deployment.DeployResult{
		result("sepolia", "CounterContract", "CounterContract", "0x111"),
		result("sepolia", "Token", "Erc20", "0x222"),
	}))
	require.NoError(t, e.Export("mainnet", []deployment.DeployResult{
		result("mainnet", "CounterContract", "CounterContract", "0x333"),
	}))

	return path
}

func TestNewCommand_Structure(t *testing.T) {
	t.Parallel()

	cmd, err := NewCommand(Config{Logger: logger.Nop()})
	require.NoError(t, err)

	assert.Equal(t, "manifest", cmd.Use)
	assert.Equal(t, manifestShort, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	subs := cmd.Commands()
	require.Len(t, subs, 1)
	assert.Equal(t, "show", subs[0].Use)

	for _, name := range []string{"manifest", "network", "contract", "artifact", "json"} {
		assert.NotNil(t, subs[0].Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestShow(t *testing.T) {
	t.Parallel()

	path := writeManifest(t)

	tests := []struct {
		name        string
		args        []string
		wantContain []string
		wantMissing []string
		wantErr     string
	}{
		{
			name:        "all networks",
			args:        []string{},
			wantContain: []string{"0x111", "0x222", "0x333", "2025-03-01T12:00:00Z"},
		},
		{
			name:        "one network",
			args:        []string{"-n", "mainnet"},
			wantContain: []string{"0x333"},
			wantMissing: []string{"0x111", "0x222"},
		},
		{
			name:        "by artifact",
			args:        []string{"--artifact", "Erc20"},
			wantContain: []string{"Token", "0x222"},
			wantMissing: []string{"0x111", "0x333"},
		},
		{
			name:        "unknown network",
			args:        []string{"-n", "devnet"},
			wantContain: []string{"No contracts in"},
		},
		{
			name:    "unknown contract",
			args:    []string{"--contract", "Missing"},
			wantErr: "contract Missing: manifest entry not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd, err := NewCommand(Config{Logger: logger.Test(t)})
			require.NoError(t, err)

			out := new(bytes.Buffer)
			cmd.SetOut(out)
			cmd.SetErr(out)
			cmd.SetArgs(append([]string{"show", "-m", path}, tt.args...))

			err = cmd.Execute()
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)

				return
			}
			require.NoError(t, err)
			for _, s := range tt.wantContain {
				assert.Contains(t, out.String(), s)
			}
			for _, s := range tt.wantMissing {
				assert.NotContains(t, out.String(), s)
			}
		})
	}
}

func TestShow_JSON(t *testing.T) {
	t.Parallel()

	cmd, err := NewCommand(Config{Logger: logger.Test(t)})
	require.NoError(t, err)

	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetArgs([]string{"show", "-m", writeManifest(t), "-n", "sepolia", "--contract", "CounterContract", "--json"})
	require.NoError(t, cmd.Execute())

	var got map[string][]fmanifest.Entry
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got["sepolia"], 1)
	assert.Equal(t, "0x111", got["sepolia"][0].Address.String())
}

func TestShow_LoaderError(t *testing.T) {
	t.Parallel()

	cmd, err := NewCommand(Config{
		Logger: logger.Nop(),
		Deps: Deps{
			ManifestLoader: func(string, logger.Logger) (fmanifest.Manifest, error) {
				return nil, errors.New("failed to load manifest: unexpected EOF")
			},
		},
	})
	require.NoError(t, err)

	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"show"})
	require.ErrorContains(t, cmd.Execute(), "unexpected EOF")
}
