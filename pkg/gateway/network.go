/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

// A Network object represents a Fabric network (channel).
// Applications should get a Network instance from a Gateway using the GetNetwork method.
type Network struct {
	name    string
	gateway *Gateway
}

func newNetwork(gateway *Gateway, name string) *Network {
	return &Network{name: name, gateway: gateway}
}

// Name is the name of the network (also known as channel name)
func (n *Network) Name() string {
	return n.name
}

// GetContract returns instance of a smart contract on the current network.
//
//	Parameters:
//	chaincodeID is the name of the chaincode that contains the smart contract
//
//	Returns:
//	A Contract object representing the smart contract
func (n *Network) GetContract(chaincodeID string) *Contract {
	return newContract(n, chaincodeID, "")
}

// GetContractWithName returns instance of a named smart contract within a chaincode.
// Transaction names are qualified as "name:transaction".
func (n *Network) GetContractWithName(chaincodeID string, name string) *Contract {
	return newContract(n, chaincodeID, name)
}
