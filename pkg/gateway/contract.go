/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"context"
	"time"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/status"
)

// A Contract object represents a smart contract instance in a network.
// Applications should get a Contract instance from a Network using the GetContract method
type Contract struct {
	chaincodeID string
	name        string
	network     *Network
}

func newContract(network *Network, chaincodeID string, name string) *Contract {
	return &Contract{network: network, chaincodeID: chaincodeID, name: name}
}

// Name returns the name of the smart contract
func (c *Contract) Name() string {
	qualifiedName := c.chaincodeID
	if len(c.name) != 0 {
		qualifiedName += ":" + c.name
	}
	return qualifiedName
}

// ChaincodeID returns the name of the chaincode
func (c *Contract) ChaincodeID() string {
	return c.chaincodeID
}

func (c *Contract) qualifiedTransactionName(name string) string {
	if len(c.name) != 0 {
		return c.name + ":" + name
	}
	return name
}

// EvaluateTransaction will evaluate a transaction function and return its results.
// The transaction function 'name' will be evaluated on the gateway peer but the
// response will not be sent to the ordering service and hence will not be committed
// to the ledger. This can be used for querying the world state.
//
//	Parameters:
//	name is the name of the transaction function to be invoked in the smart contract.
//	args are the arguments to be sent to the transaction function.
//
//	Returns:
//	The return value of the transaction function in the smart contract.
func (c *Contract) EvaluateTransaction(ctx context.Context, name string, args ...string) ([]byte, error) {
	proposal, err := c.NewProposal(name, WithArguments(args...))
	if err != nil {
		return nil, err
	}
	return proposal.Evaluate(ctx)
}

// SubmitTransaction will submit a transaction to the ledger and wait for it to be committed.
// The transaction function 'name' will be endorsed and then submitted to the ordering service
// for committing to the ledger.
//
//	Parameters:
//	name is the name of the transaction function to be invoked in the smart contract.
//	args are the arguments to be sent to the transaction function.
//
//	Returns:
//	The return value of the transaction function in the smart contract.
//	A *status.CommitError is returned if the transaction was ordered but failed validation.
func (c *Contract) SubmitTransaction(ctx context.Context, name string, args ...string) ([]byte, error) {
	gwMetrics := c.network.gateway.metrics
	start := time.Now()

	result, err := c.submit(ctx, name, args)
	gwMetrics.observeSubmit(c.chaincodeID, name, start, err)

	return result, err
}

func (c *Contract) submit(ctx context.Context, name string, args []string) ([]byte, error) {
	commit, err := c.submitAsync(ctx, name, args)
	if err != nil {
		return nil, err
	}

	commitStatus, err := commit.Status(ctx)
	if err != nil {
		return nil, err
	}

	if !commitStatus.Successful {
		return nil, &status.CommitError{TransactionID: commitStatus.TransactionID, Code: commitStatus.Code}
	}

	return commit.Result(), nil
}

// SubmitAsync endorses the transaction and submits it to the ordering service without
// waiting for it to be committed. The returned Commit holds the transaction result
// and may be used to await the commit status.
func (c *Contract) SubmitAsync(ctx context.Context, name string, args ...string) (*Commit, error) {
	gwMetrics := c.network.gateway.metrics
	start := time.Now()

	commit, err := c.submitAsync(ctx, name, args)
	gwMetrics.observeSubmit(c.chaincodeID, name, start, err)

	return commit, err
}

func (c *Contract) submitAsync(ctx context.Context, name string, args []string) (*Commit, error) {
	proposal, err := c.NewProposal(name, WithArguments(args...))
	if err != nil {
		return nil, err
	}

	transaction, err := proposal.Endorse(ctx)
	if err != nil {
		return nil, err
	}

	return transaction.Submit(ctx)
}

// NewProposal creates a proposal for the transaction function 'name' that can be evaluated,
// or endorsed and then submitted. A new proposal must be created for each invocation.
func (c *Contract) NewProposal(name string, options ...ProposalOption) (*Proposal, error) {
	if err := c.network.gateway.checkOpen(); err != nil {
		return nil, err
	}
	return newProposal(c, name, options...)
}
