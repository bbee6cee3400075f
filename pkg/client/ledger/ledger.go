/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ledger reads the blocks of a channel through the query system chaincode (qscc)
// of a Fabric gateway peer and builds an ordered index of the transactions they contain.
//
//	Basic Flow:
//	1) Open a connection to the gateway peer
//	2) Create ledger client for the channel
//	3) Query the ledger or build the transaction index
package ledger

import (
	"context"
	"crypto/sha256"
	"hash"
	"strconv"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/retry"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/status"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/logging"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/core/deadline"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/fab/comm"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/fab/txn"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/msp"
	"github.com/hyperledger/fabric-protos-go/common"
	gp "github.com/hyperledger/fabric-protos-go/gateway"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
)

var logger = logging.NewLogger("fabgw/ledger")

const (
	qscc              = "qscc"
	qsccChannelInfo   = "GetChainInfo"
	qsccBlockByNumber = "GetBlockByNumber"
)

// evaluator is the part of the gateway service used for ledger queries
type evaluator interface {
	Evaluate(ctx context.Context, in *gp.EvaluateRequest, opts ...grpc.CallOption) (*gp.EvaluateResponse, error)
}

// Client enables ledger queries on a channel.
type Client struct {
	client    evaluator
	conn      *comm.Connection
	channelID string
	creator   []byte
	signer    msp.Signer
	policy    *deadline.Policy
	newHash   func() hash.Hash
	prefetch  int
	retry     *retry.Opts
}

// New returns a ledger client for the given channel. An application that requires
// ledger queries from multiple channels should create a client for each channel.
func New(conn *comm.Connection, identity *msp.Identity, signer msp.Signer, channelID string, opts ...ClientOption) (*Client, error) {
	if conn == nil {
		return nil, errors.New("connection is required")
	}
	ledgerClient, err := newClient(gp.NewGatewayClient(conn.ClientConn()), identity, signer, channelID, opts...)
	if err != nil {
		return nil, err
	}
	ledgerClient.conn = conn
	return ledgerClient, nil
}

func newClient(client evaluator, identity *msp.Identity, signer msp.Signer, channelID string, opts ...ClientOption) (*Client, error) {
	if identity == nil || signer == nil {
		return nil, errors.New("identity and signer are required")
	}
	if channelID == "" {
		return nil, errors.New("channel ID is required")
	}

	creator, err := identity.Serialize()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to serialize identity")
	}

	ledgerClient := &Client{
		client:    client,
		channelID: channelID,
		creator:   creator,
		signer:    signer,
		policy:    deadline.New(),
		newHash:   sha256.New,
	}

	for _, opt := range opts {
		if err := opt(ledgerClient); err != nil {
			return nil, err
		}
	}

	return ledgerClient, nil
}

// QueryInfo queries for various useful blockchain information on this channel such as block height and current block hash.
func (c *Client) QueryInfo(ctx context.Context) (*common.BlockchainInfo, error) {
	payload, err := c.query(ctx, qsccChannelInfo, c.channelID)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to query chain info")
	}

	info := &common.BlockchainInfo{}
	if err := proto.Unmarshal(payload, info); err != nil {
		return nil, errors.Wrap(err, "unmarshal of BlockchainInfo failed")
	}
	return info, nil
}

// QueryBlock queries the ledger for the block with the given number and decodes it.
func (c *Client) QueryBlock(ctx context.Context, number uint64) (*Block, error) {
	payload, err := c.query(ctx, qsccBlockByNumber, c.channelID, strconv.FormatUint(number, 10))
	if err != nil {
		return nil, err
	}
	return decodeBlock(number, payload)
}

func (c *Client) query(ctx context.Context, fcn string, args ...string) ([]byte, error) {
	if c.conn != nil {
		var cancel context.CancelFunc
		ctx, cancel = c.conn.Context(ctx)
		defer cancel()
	}

	if c.retry == nil {
		return c.evaluate(ctx, fcn, args)
	}

	payload, err := retry.NewInvoker(retry.New(*c.retry)).Invoke(ctx, func() (interface{}, error) {
		return c.evaluate(ctx, fcn, args)
	})
	if err != nil {
		return nil, err
	}
	return payload.([]byte), nil
}

func (c *Client) evaluate(ctx context.Context, fcn string, args []string) ([]byte, error) {
	txnID, err := txn.NewID(c.creator, c.newHash)
	if err != nil {
		return nil, err
	}

	request := txn.ChaincodeInvokeRequest{ChaincodeID: qscc, Fcn: fcn, Args: make([][]byte, len(args))}
	for i, arg := range args {
		request.Args[i] = []byte(arg)
	}

	tp, err := txn.CreateChaincodeInvokeProposal(txnID, c.channelID, request)
	if err != nil {
		return nil, err
	}

	signed, err := txn.SignProposal(c.signer, tp.Proposal)
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := c.policy.Context(ctx, deadline.Evaluate)
	defer cancel()

	response, err := c.client.Evaluate(reqCtx, &gp.EvaluateRequest{
		TransactionId:       txnID.ID,
		ChannelId:           c.channelID,
		ProposedTransaction: signed,
	})
	if err != nil {
		if c.conn != nil && c.conn.Closed() {
			err = context.Canceled
		}
		return nil, status.FromRPCError(status.OpEvaluate, txnID.ID, err)
	}

	return response.GetResult().GetPayload(), nil
}
