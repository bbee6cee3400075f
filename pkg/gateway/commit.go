/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"context"
	"sync"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/status"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/core/deadline"
	gp "github.com/hyperledger/fabric-protos-go/gateway"
	pb "github.com/hyperledger/fabric-protos-go/peer"
)

// State is the progress of a transaction through the endorse, order and commit pipeline
type State int

// Transaction states. Committed and Rejected are terminal.
const (
	Created State = iota
	Endorsed
	Ordered
	Committed
	Rejected
)

var stateNames = [...]string{"Created", "Endorsed", "Ordered", "Committed", "Rejected"}

func (s State) String() string {
	if s < Created || s > Rejected {
		return "Unknown"
	}
	return stateNames[s]
}

// Status is the outcome of a committed transaction
type Status struct {
	TransactionID string
	Code          pb.TxValidationCode
	Successful    bool
	BlockNumber   uint64
}

// Commit is a transaction that has been submitted for ordering. The commit status may be
// awaited from several goroutines: one remote request is in flight at a time and the
// status is cached once obtained.
type Commit struct {
	gateway *Gateway
	txID    string
	result  []byte
	request *gp.SignedCommitStatusRequest

	// sem serializes commit status requests
	sem chan struct{}

	mutex  sync.RWMutex
	status *Status
}

func newCommit(gw *Gateway, txID string, result []byte, request *gp.SignedCommitStatusRequest) *Commit {
	return &Commit{
		gateway: gw,
		txID:    txID,
		result:  result,
		request: request,
		sem:     make(chan struct{}, 1),
	}
}

// TransactionID returns the ID of the transaction
func (c *Commit) TransactionID() string {
	return c.txID
}

// Result returns the value returned by the transaction function during endorsement.
// It is available immediately, before the transaction is committed.
func (c *Commit) Result() []byte {
	return c.result
}

// State returns Ordered until the commit status has been obtained, then Committed or Rejected
func (c *Commit) State() State {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	switch {
	case c.status == nil:
		return Ordered
	case c.status.Successful:
		return Committed
	default:
		return Rejected
	}
}

func (c *Commit) cachedStatus() *Status {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.status
}

// Status blocks until the commit status of the transaction is available. A failed request
// is not cached so Status may be called again.
func (c *Commit) Status(ctx context.Context) (*Status, error) {
	if s := c.cachedStatus(); s != nil {
		return s, nil
	}

	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, status.FromRPCError(status.OpCommitStatus, c.txID, ctx.Err())
	}
	defer func() { <-c.sem }()

	// another caller may have resolved the status while we waited
	if s := c.cachedStatus(); s != nil {
		return s, nil
	}

	reqCtx, cancel := c.gateway.callContext(ctx, deadline.CommitStatus)
	defer cancel()

	logger.Debugf("awaiting commit status of transaction [%s]", c.txID)

	response, err := c.gateway.client.CommitStatus(reqCtx, c.request)
	if err != nil {
		return nil, c.gateway.rpcError(status.OpCommitStatus, c.txID, err)
	}

	s := &Status{
		TransactionID: c.txID,
		Code:          response.GetResult(),
		Successful:    response.GetResult() == pb.TxValidationCode_VALID,
		BlockNumber:   response.GetBlockNumber(),
	}

	if s.Successful {
		logger.Debugf("transaction [%s] committed in block %d", c.txID, s.BlockNumber)
	} else {
		logger.Warnf("transaction [%s] rejected with code %s in block %d", c.txID, s.Code, s.BlockNumber)
	}

	c.mutex.Lock()
	c.status = s
	c.mutex.Unlock()

	return s, nil
}
