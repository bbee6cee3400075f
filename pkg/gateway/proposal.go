/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"context"
	"time"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/status"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/core/deadline"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/fab/txn"
	gp "github.com/hyperledger/fabric-protos-go/gateway"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
)

// Proposal is a signed transaction proposal that can be evaluated, or endorsed and then submitted
type Proposal struct {
	contract      *Contract
	name          string
	request       txn.ChaincodeInvokeRequest
	endorsingOrgs []string
	txnID         txn.TransactionID
	signed        *pb.SignedProposal
}

// ProposalOption is an optional argument to the NewProposal method
type ProposalOption func(*Proposal) error

// WithArguments sets the string arguments passed to the transaction function
func WithArguments(args ...string) ProposalOption {
	return func(p *Proposal) error {
		p.request.Args = make([][]byte, len(args))
		for i, v := range args {
			p.request.Args[i] = []byte(v)
		}
		return nil
	}
}

// WithBytesArguments sets the raw arguments passed to the transaction function
func WithBytesArguments(args ...[]byte) ProposalOption {
	return func(p *Proposal) error {
		p.request.Args = args
		return nil
	}
}

// WithTransient sets the transient data that will be passed to the transaction function
// but will not be stored on the ledger. This can be used to pass private data to a
// transaction function.
func WithTransient(data map[string][]byte) ProposalOption {
	return func(p *Proposal) error {
		p.request.TransientMap = data
		return nil
	}
}

// WithEndorsingOrganizations restricts endorsement (or evaluation) to peers of the given organizations
func WithEndorsingOrganizations(mspids ...string) ProposalOption {
	return func(p *Proposal) error {
		p.endorsingOrgs = mspids
		return nil
	}
}

func newProposal(contract *Contract, name string, options ...ProposalOption) (*Proposal, error) {
	p := &Proposal{
		contract: contract,
		name:     name,
		request: txn.ChaincodeInvokeRequest{
			ChaincodeID: contract.chaincodeID,
			Fcn:         contract.qualifiedTransactionName(name),
		},
	}

	for _, option := range options {
		if err := option(p); err != nil {
			return nil, err
		}
	}

	gw := contract.network.gateway

	txnID, err := txn.NewID(gw.creator, gw.newHash)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create transaction ID")
	}

	tp, err := txn.CreateChaincodeInvokeProposal(txnID, contract.network.name, p.request)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create proposal")
	}

	p.signed, err = txn.SignProposal(gw.signer, tp.Proposal)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to sign proposal")
	}
	p.txnID = txnID

	return p, nil
}

// TransactionID returns the ID of the proposed transaction
func (p *Proposal) TransactionID() string {
	return p.txnID.ID
}

// State returns Created: a proposal has not been sent for endorsement
func (p *Proposal) State() State {
	return Created
}

// Evaluate invokes the transaction function on the gateway peer without ordering the transaction
func (p *Proposal) Evaluate(ctx context.Context) ([]byte, error) {
	gw := p.contract.network.gateway
	start := time.Now()

	result, err := p.evaluate(ctx)
	gw.metrics.observeEvaluate(p.contract.chaincodeID, p.name, start, err)

	return result, err
}

func (p *Proposal) evaluate(ctx context.Context) ([]byte, error) {
	gw := p.contract.network.gateway

	reqCtx, cancel := gw.callContext(ctx, deadline.Evaluate)
	defer cancel()

	logger.Debugf("evaluating transaction [%s] %s on [%s]", p.txnID.ID, p.name, p.contract.Name())

	response, err := gw.client.Evaluate(reqCtx, &gp.EvaluateRequest{
		TransactionId:       p.txnID.ID,
		ChannelId:           p.contract.network.name,
		ProposedTransaction: p.signed,
		TargetOrganizations: p.endorsingOrgs,
	})
	if err != nil {
		return nil, gw.rpcError(status.OpEvaluate, p.txnID.ID, err)
	}

	return response.GetResult().GetPayload(), nil
}

// Endorse obtains endorsement of the proposal. The returned transaction carries the
// result of the transaction function and is ready to be submitted.
func (p *Proposal) Endorse(ctx context.Context) (*Transaction, error) {
	gw := p.contract.network.gateway

	reqCtx, cancel := gw.callContext(ctx, deadline.Endorse)
	defer cancel()

	logger.Debugf("endorsing transaction [%s] %s on [%s]", p.txnID.ID, p.name, p.contract.Name())

	response, err := gw.client.Endorse(reqCtx, &gp.EndorseRequest{
		TransactionId:          p.txnID.ID,
		ChannelId:              p.contract.network.name,
		ProposedTransaction:    p.signed,
		EndorsingOrganizations: p.endorsingOrgs,
	})
	if err != nil {
		return nil, gw.rpcError(status.OpEndorse, p.txnID.ID, err)
	}

	return newTransaction(p, response.GetPreparedTransaction())
}
