package starknet

import (
	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
)

// UniversalDeployerAddress is the address of the Universal Deployer Contract, identical on all
// public networks and predeployed on starknet-devnet.
var UniversalDeployerAddress = MustParseFelt("0x041a78e741e5af2fec34b695679bc6891742439f7afb8484ecd7766661ad02bf")

var contractAddressPrefix = MustShortString("STARKNET_CONTRACT_ADDRESS")

// ContractAddress computes the address of a contract deployed by deployer with the given class
// hash, salt and constructor calldata.
func ContractAddress(deployer, classHash, salt *felt.Felt, calldata []*felt.Felt) *felt.Felt {
	calldataHash := crypto.PedersenArray(calldata...)

	return crypto.PedersenArray(contractAddressPrefix, deployer, salt, classHash, calldataHash)
}

// UDCDeployedAddress computes the address a Universal Deployer deployment resolves to. Unique
// deployments mix the caller address into the salt; non-unique ones use a zero deployer.
func UDCDeployedAddress(caller, classHash, salt *felt.Felt, unique bool, calldata []*felt.Felt) *felt.Felt {
	if unique {
		return ContractAddress(UniversalDeployerAddress, classHash, crypto.Pedersen(caller, salt), calldata)
	}

	return ContractAddress(new(felt.Felt), classHash, salt, calldata)
}

// UDCDeployCall builds the call to the Universal Deployer's deployContract entry point.
func UDCDeployCall(classHash, salt *felt.Felt, unique bool, calldata []*felt.Felt) Call {
	uniq := new(felt.Felt)
	if unique {
		uniq = FeltFromUint64(1)
	}

	data := make([]*felt.Felt, 0, len(calldata)+4)
	data = append(data, classHash, salt, uniq, FeltFromUint64(uint64(len(calldata))))
	data = append(data, calldata...)

	return Call{
		To:       UniversalDeployerAddress,
		Selector: GetSelectorFromName("deployContract"),
		Calldata: data,
	}
}

// ContractDeployedSelector is the key of the event emitted by the Universal Deployer.
var ContractDeployedSelector = GetSelectorFromName("ContractDeployed")

// DeployedAddressFromEvents returns the address reported by the first ContractDeployed event the
// Universal Deployer emitted in the receipt.
func DeployedAddressFromEvents(events []Event) (*felt.Felt, bool) {
	for _, ev := range events {
		if ev.FromAddress == nil || !ev.FromAddress.Equal(UniversalDeployerAddress) {
			continue
		}
		if len(ev.Keys) == 0 || !ev.Keys[0].Equal(ContractDeployedSelector) || len(ev.Data) == 0 {
			continue
		}

		return ev.Data[0], true
	}

	return nil, false
}
