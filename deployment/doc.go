// Package deployment deploys Cairo contracts to a Starknet network from a single deployer account.
//
// A run is a pipeline of five stages:
//
//	Checker  -> verifies the deployer, the rpc endpoint and the signing key
//	Builder  -> validates each ContractSpec against its ABI and encodes a DeployRequest
//	Queue    -> collects the requests until they are drained for execution
//	Executor -> submits each request through the Universal Deployer and waits for acceptance
//	Manifest -> records the accepted deployments per network
//
// Pipeline.Run wires the stages together. Failures are classified by Kind: a failed precondition
// aborts the run, every other failure is reported for the contract it concerns without affecting
// the rest.
package deployment
