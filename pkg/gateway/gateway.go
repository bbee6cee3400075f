/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package gateway submits transactions to, and evaluates queries against, smart contracts
// deployed on a Fabric network through the gateway service of a peer.
//
// Basic usage:
//
//	conn, err := comm.Open(ctx, endpoint)
//	gw, err := gateway.Connect(conn, identity, signer)
//	contract := gw.GetNetwork("mychannel").GetContract("basic")
//	result, err := contract.SubmitTransaction(ctx, "CreateAsset", "asset1", "blue", "5", "Tomoko", "300")
package gateway

import (
	"context"
	"crypto/sha256"
	"hash"
	"sync/atomic"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/status"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/logging"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/metrics"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/core/deadline"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/fab/comm"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/msp"
	gp "github.com/hyperledger/fabric-protos-go/gateway"
	"github.com/pkg/errors"
)

var logger = logging.NewLogger("fabgw/gateway")

// Gateway is the connection of a specific client identity to a Fabric gateway peer.
// It is safe for concurrent use.
type Gateway struct {
	client   gp.GatewayClient
	conn     *comm.Connection
	identity *msp.Identity
	creator  []byte
	signer   msp.Signer
	policy   *deadline.Policy
	metrics  *gatewayMetrics
	newHash  func() hash.Hash
	closed   int32
}

// Option configures a Gateway
type Option func(*Gateway) error

// Connect creates a gateway for the given client identity over an open connection.
// The connection is not owned by the gateway and may be shared.
func Connect(conn *comm.Connection, identity *msp.Identity, signer msp.Signer, options ...Option) (*Gateway, error) {
	if conn == nil {
		return nil, errors.New("connection is required")
	}
	gw, err := newGateway(gp.NewGatewayClient(conn.ClientConn()), identity, signer, options...)
	if err != nil {
		return nil, err
	}
	gw.conn = conn
	return gw, nil
}

func newGateway(client gp.GatewayClient, identity *msp.Identity, signer msp.Signer, options ...Option) (*Gateway, error) {
	if identity == nil {
		return nil, errors.New("identity is required")
	}
	if signer == nil {
		return nil, errors.New("signer is required")
	}

	creator, err := identity.Serialize()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to serialize identity")
	}

	gw := &Gateway{
		client:   client,
		identity: identity,
		creator:  creator,
		signer:   signer,
		policy:   deadline.New(),
		newHash:  sha256.New,
	}

	for _, option := range options {
		if err := option(gw); err != nil {
			return nil, errors.Wrap(err, "Failed to apply gateway option")
		}
	}

	if gw.metrics == nil {
		gw.metrics = newGatewayMetrics(&metrics.DisabledProvider{})
	}

	logger.Debugf("Connected gateway for [%s]", identity.MSPID)

	return gw, nil
}

// WithDeadlinePolicy sets the deadlines applied to each remote operation
func WithDeadlinePolicy(policy *deadline.Policy) Option {
	return func(gw *Gateway) error {
		if policy == nil {
			return errors.New("deadline policy is nil")
		}
		gw.policy = policy
		return nil
	}
}

// WithMetrics records evaluation and submission metrics with the given provider
func WithMetrics(provider metrics.Provider) Option {
	return func(gw *Gateway) error {
		if provider == nil {
			return errors.New("metrics provider is nil")
		}
		gw.metrics = newGatewayMetrics(provider)
		return nil
	}
}

// WithHash sets the hash function used to compute transaction IDs. Defaults to SHA-256.
func WithHash(newHash func() hash.Hash) Option {
	return func(gw *Gateway) error {
		if newHash == nil {
			return errors.New("hash function is nil")
		}
		gw.newHash = newHash
		return nil
	}
}

// Identity returns the client identity of the gateway
func (gw *Gateway) Identity() *msp.Identity {
	return gw.identity
}

// GetNetwork returns an object representing a network (channel)
func (gw *Gateway) GetNetwork(name string) *Network {
	return newNetwork(gw, name)
}

// Close releases the gateway. Further operations fail; the underlying connection stays open.
func (gw *Gateway) Close() {
	if atomic.CompareAndSwapInt32(&gw.closed, 0, 1) {
		logger.Debugf("Closed gateway for [%s]", gw.identity.MSPID)
	}
}

func (gw *Gateway) checkOpen() error {
	if atomic.LoadInt32(&gw.closed) == 1 {
		return errors.New("gateway is closed")
	}
	return nil
}

// callContext bounds a remote call by the deadline of its kind and by the lifetime of the connection
func (gw *Gateway) callContext(ctx context.Context, kind deadline.Kind) (context.Context, context.CancelFunc) {
	reqCtx, cancel := gw.policy.Context(ctx, kind)
	if gw.conn == nil {
		return reqCtx, cancel
	}

	connCtx, connCancel := gw.conn.Context(reqCtx)
	return connCtx, func() {
		connCancel()
		cancel()
	}
}

// rpcError translates the error of a remote call. A call torn down by closing the
// connection is reported as cancelled whatever status the transport returned.
func (gw *Gateway) rpcError(op, txID string, err error) error {
	if gw.conn != nil && gw.conn.Closed() {
		return status.FromRPCError(op, txID, context.Canceled)
	}
	return status.FromRPCError(op, txID, err)
}
