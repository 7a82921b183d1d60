package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetwork(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{Use: "test", Run: func(cmd *cobra.Command, _ []string) {}}
	Network(cmd)

	f := cmd.Flags().Lookup("network")
	require.NotNil(t, f)
	assert.Equal(t, "n", f.Shorthand)
	assert.Empty(t, f.DefValue)

	cmd.SetArgs([]string{"-n", "sepolia"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "sepolia", MustString(cmd.Flags().GetString("network")))
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		add       func(*cobra.Command)
		flag      string
		shorthand string
		want      string
	}{
		{name: "plan", add: Plan, flag: "plan", shorthand: "p", want: "deploy.yaml"},
		{name: "manifest", add: Manifest, flag: "manifest", shorthand: "m", want: "deployments/manifest.json"},
		{name: "config", add: Config, flag: "config", shorthand: "c", want: ""},
		{name: "networks", add: Networks, flag: "networks", want: "networks.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := &cobra.Command{Use: "test"}
			tt.add(cmd)

			f := cmd.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.want, f.DefValue)
		})
	}
}

func TestManifest_DeploymentsAlias(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{Use: "test", Run: func(cmd *cobra.Command, _ []string) {}}
	Manifest(cmd)

	cmd.SetArgs([]string{"--deployments", "out/deployments.json"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "out/deployments.json", MustString(cmd.Flags().GetString("manifest")))
}

func TestContract(t *testing.T) {
	t.Parallel()

	t.Run("is required", func(t *testing.T) {
		t.Parallel()

		cmd := &cobra.Command{Use: "test"}
		Contract(cmd)

		err := cmd.ValidateRequiredFlags()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "contract")
	})

	t.Run("args are repeatable", func(t *testing.T) {
		t.Parallel()

		cmd := &cobra.Command{Use: "test", Run: func(cmd *cobra.Command, _ []string) {}}
		Contract(cmd)
		Args(cmd)

		cmd.SetArgs([]string{"--contract", "CounterContract", "--arg", "amount=5", "--arg", "to=0x1"})
		require.NoError(t, cmd.Execute())
		assert.Equal(t, []string{"amount=5", "to=0x1"}, MustStringArray(cmd.Flags().GetStringArray("arg")))
	})
}
