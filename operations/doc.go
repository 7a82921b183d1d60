/*
Package operations provides the Operations API for executing deployment steps in a structured,
reliable and traceable manner.

# Core Components

Operation:
  - A single versioned step with typed input, dependencies and output
  - Performs at most one side effect, such as submitting one transaction

ExecuteOperation:
  - Runs an operation with an optional retry policy and input hook
  - Skips the run and returns the previous result when the same input already succeeded

Reporter:
  - Records a Report per execution (input, output, error, timestamp)
  - MemoryReporter keeps reports for the current run, FileReporter persists them as JSON files

# Basic Usage

	op := operations.NewOperation("deploy-contract", semver.MustParse("1.0.0"),
		"Deploys a contract through the universal deployer", handler)

	bundle := operations.NewBundle(func() context.Context { return ctx }, lggr, operations.NewMemoryReporter())
	report, err := operations.ExecuteOperation(bundle, op, deps, input)
*/
package operations
