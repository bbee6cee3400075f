/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"context"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/status"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/core/deadline"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/fab/txn"
	"github.com/hyperledger/fabric-protos-go/common"
	gp "github.com/hyperledger/fabric-protos-go/gateway"
	"github.com/pkg/errors"
)

// Transaction is an endorsed transaction, signed and ready to be submitted for ordering
type Transaction struct {
	proposal *Proposal
	envelope *common.Envelope
	result   []byte
}

func newTransaction(proposal *Proposal, prepared *common.Envelope) (*Transaction, error) {
	if prepared == nil {
		return nil, errors.Errorf("no prepared transaction returned for [%s]", proposal.txnID.ID)
	}

	result, err := txn.ResultFromEnvelope(prepared)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to extract result of transaction [%s]", proposal.txnID.ID)
	}

	envelope, err := txn.SignEnvelope(proposal.contract.network.gateway.signer, prepared)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to sign transaction [%s]", proposal.txnID.ID)
	}

	return &Transaction{proposal: proposal, envelope: envelope, result: result}, nil
}

// TransactionID returns the ID of the transaction
func (t *Transaction) TransactionID() string {
	return t.proposal.txnID.ID
}

// Result returns the value returned by the transaction function during endorsement
func (t *Transaction) Result() []byte {
	return t.result
}

// State returns Endorsed: the transaction has not been submitted
func (t *Transaction) State() State {
	return Endorsed
}

// Submit sends the transaction to the ordering service and returns without waiting for commit
func (t *Transaction) Submit(ctx context.Context) (*Commit, error) {
	p := t.proposal
	gw := p.contract.network.gateway

	reqCtx, cancel := gw.callContext(ctx, deadline.Submit)
	defer cancel()

	logger.Debugf("submitting transaction [%s]", p.txnID.ID)

	_, err := gw.client.Submit(reqCtx, &gp.SubmitRequest{
		TransactionId:       p.txnID.ID,
		ChannelId:           p.contract.network.name,
		PreparedTransaction: t.envelope,
	})
	if err != nil {
		return nil, gw.rpcError(status.OpSubmit, p.txnID.ID, err)
	}

	request, err := t.signedCommitStatusRequest()
	if err != nil {
		return nil, err
	}

	return newCommit(gw, p.txnID.ID, t.result, request), nil
}

func (t *Transaction) signedCommitStatusRequest() (*gp.SignedCommitStatusRequest, error) {
	p := t.proposal
	gw := p.contract.network.gateway

	requestBytes, err := proto.Marshal(&gp.CommitStatusRequest{
		TransactionId: p.txnID.ID,
		ChannelId:     p.contract.network.name,
		Identity:      gw.creator,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal commit status request failed")
	}

	signature, err := gw.signer.Sign(requestBytes)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to sign commit status request")
	}

	return &gp.SignedCommitStatusRequest{Request: requestBytes, Signature: signature}, nil
}
