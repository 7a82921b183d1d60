// Package flags provides reusable flag helpers for CLI commands.
//
// This package should only contain common flags that can be used by multiple commands
// to ensure unified naming and consistent behavior across the CLI.
// Command-specific flags should be defined locally in the command file.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smartcontractkit/starknet-deployments/engine/config/network"
	"github.com/smartcontractkit/starknet-deployments/engine/config/plan"
	fmanifest "github.com/smartcontractkit/starknet-deployments/manifest"
)

// MustString returns the string value, ignoring the error.
// Safe to use with registered flags where GetString cannot fail.
func MustString(s string, _ error) string { return s }

// MustBool returns the bool value, ignoring the error.
// Safe to use with registered flags where GetBool cannot fail.
func MustBool(b bool, _ error) bool { return b }

// MustStringArray returns the string array value, ignoring the error.
func MustStringArray(s []string, _ error) []string { return s }

// Network adds the --network/-n flag overriding the configured network.
// Retrieve the value with cmd.Flags().GetString("network").
func Network(cmd *cobra.Command) {
	cmd.Flags().StringP("network", "n", "", "Network to use, overrides STARKNET_NETWORK")
}

// Plan adds the --plan/-p flag for the deploy plan file.
// Retrieve the value with cmd.Flags().GetString("plan").
func Plan(cmd *cobra.Command) {
	cmd.Flags().StringP("plan", "p", plan.DefaultPath, "Deploy plan file")
}

// Manifest adds the --manifest/-m flag for the manifest file.
// Also supports the --deployments alias, the name of the manifest in older checkouts.
// Retrieve the value with cmd.Flags().GetString("manifest").
func Manifest(cmd *cobra.Command) {
	cmd.Flags().StringP("manifest", "m", fmanifest.DefaultPath, "Manifest file")

	existingNormalize := cmd.Flags().GetNormalizeFunc()
	cmd.Flags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "deployments" {
			return pflag.NormalizedName("manifest")
		}
		if existingNormalize != nil {
			return existingNormalize(f, name)
		}

		return pflag.NormalizedName(name)
	})
}

// Config adds the --config/-c flag for the environment configuration file. Without it the
// configuration is read from environment variables only.
// Retrieve the value with cmd.Flags().GetString("config").
func Config(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "Environment configuration file")
}

// Networks adds the --networks flag for the networks file.
// Retrieve the value with cmd.Flags().GetString("networks").
func Networks(cmd *cobra.Command) {
	cmd.Flags().String("networks", network.DefaultPath, "Networks file")
}

// Contract adds the required --contract flag naming a manifest entry.
// Retrieve the value with cmd.Flags().GetString("contract").
func Contract(cmd *cobra.Command) {
	cmd.Flags().String("contract", "", "Contract name in the manifest (required)")
	_ = cmd.MarkFlagRequired("contract")
}

// Args adds the repeatable --arg flag for named function arguments in name=value form.
// Retrieve the value with cmd.Flags().GetStringArray("arg").
func Args(cmd *cobra.Command) {
	cmd.Flags().StringArray("arg", nil, "Function argument as name=value, repeatable")
}
