/*
Package chain provides the blockchain abstraction shared by the deployment tooling.

# Overview

The package defines the BlockChain interface every connected chain satisfies and the Provider
interface used to set chains up, either against a live RPC endpoint or against a local devnet
container in tests.

# Core BlockChain Interface

	type BlockChain interface {
		String() string         // "sepolia (SN_SEPOLIA)"
		Name() string           // "sepolia"
		ChainSelector() uint64  // chain selector, zero for private devnets
		Family() string         // "starknet"
	}

# Provider System

	blockchain, err := provider.Initialize(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s: %w", provider.Name(), err)
	}

	sn, ok := blockchain.(starknet.Chain)
*/
package chain
