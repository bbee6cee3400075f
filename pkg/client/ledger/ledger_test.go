/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/retry"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/status"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/core/deadline"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/fab/mocks"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/fab/txn"
	"github.com/hyperledger/fabric-protos-go/common"
	gp "github.com/hyperledger/fabric-protos-go/gateway"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

const testChannel = "mychannel"

func newTestClient(t *testing.T, opts ...ClientOption) (*mocks.MockGatewayServer, *Client) {
	server := mocks.NewMockGatewayServer(testChannel)
	server.Start()
	t.Cleanup(server.Stop)

	conn, err := server.Connect(context.Background())
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	id, signer := mocks.NewMockIdentity(t)
	client, err := New(conn, id, signer, testChannel, opts...)
	require.NoError(t, err)

	return server, client
}

func newMockClient(t *testing.T, handler func(fcn string, args []string) ([]byte, error), opts ...ClientOption) *Client {
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGatewayClient(ctrl)

	gw.EXPECT().Evaluate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *gp.EvaluateRequest, _ ...grpc.CallOption) (*gp.EvaluateResponse, error) {
			_, ccis, _, err := txn.InvocationFromProposal(req.GetProposedTransaction())
			if err != nil {
				return nil, err
			}
			if name := ccis.GetChaincodeSpec().GetChaincodeId().GetName(); name != qscc {
				return nil, fmt.Errorf("unexpected chaincode %s", name)
			}

			input := ccis.GetChaincodeSpec().GetInput().GetArgs()
			args := make([]string, len(input)-1)
			for i, arg := range input[1:] {
				args[i] = string(arg)
			}

			payload, err := handler(string(input[0]), args)
			if err != nil {
				return nil, err
			}
			return &gp.EvaluateResponse{Result: &pb.Response{Status: 200, Payload: payload}}, nil
		}).AnyTimes()

	id, signer := mocks.NewMockIdentity(t)
	client, err := newClient(gw, id, signer, testChannel, opts...)
	require.NoError(t, err)

	return client
}

// ledgerHandler serves qscc queries from the given ledger and hands block queries to override first
func ledgerHandler(ledger *mocks.MockLedger, override func(number uint64) ([]byte, bool, error)) func(string, []string) ([]byte, error) {
	return func(fcn string, args []string) ([]byte, error) {
		if fcn == qsccBlockByNumber && override != nil {
			number, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return nil, err
			}
			if payload, ok, err := override(number); ok {
				return payload, err
			}
		}
		return ledger.QuerySystemChaincode(nil, fcn, args)
	}
}

func testEnvelope(t *testing.T, txID string) []byte {
	channelHeader, err := proto.Marshal(&common.ChannelHeader{
		Type:      int32(common.HeaderType_ENDORSER_TRANSACTION),
		ChannelId: testChannel,
		TxId:      txID,
	})
	require.NoError(t, err)

	payload, err := proto.Marshal(&common.Payload{
		Header: &common.Header{ChannelHeader: channelHeader},
		Data:   []byte(txID),
	})
	require.NoError(t, err)

	envelope, err := proto.Marshal(&common.Envelope{Payload: payload, Signature: []byte("signature")})
	require.NoError(t, err)

	return envelope
}

// populate appends a config block followed by n blocks of two transactions, the second one invalid
func populate(t *testing.T, ledger *mocks.MockLedger, n int) {
	ledger.AddConfigBlock(testChannel)
	for i := 1; i <= n; i++ {
		ledger.AppendBlock(
			[][]byte{testEnvelope(t, fmt.Sprintf("tx%d-0", i)), testEnvelope(t, fmt.Sprintf("tx%d-1", i))},
			[]pb.TxValidationCode{pb.TxValidationCode_VALID, pb.TxValidationCode_MVCC_READ_CONFLICT},
		)
	}
}

func TestNewValidation(t *testing.T) {
	id, signer := mocks.NewMockIdentity(t)
	gw := mocks.NewMockGatewayClient(nil)

	_, err := New(nil, id, signer, testChannel)
	assert.Error(t, err)

	_, err = newClient(gw, nil, signer, testChannel)
	assert.Error(t, err)

	_, err = newClient(gw, id, nil, testChannel)
	assert.Error(t, err)

	_, err = newClient(gw, id, signer, "")
	assert.Error(t, err)

	_, err = newClient(gw, id, signer, testChannel, WithPrefetch(-1))
	assert.Error(t, err)

	_, err = newClient(gw, id, signer, testChannel, WithDeadlinePolicy(nil))
	assert.Error(t, err)

	_, err = newClient(gw, id, signer, testChannel, WithHash(nil))
	assert.Error(t, err)
}

func TestQueryInfo(t *testing.T) {
	server, client := newTestClient(t)
	populate(t, server.Ledger, 2)

	info, err := client.QueryInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), info.GetHeight())
	assert.NotEmpty(t, info.GetCurrentBlockHash())
}

func TestQueryBlock(t *testing.T) {
	server, client := newTestClient(t)
	populate(t, server.Ledger, 1)

	block, err := client.QueryBlock(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), block.Number)
	require.Len(t, block.Transactions, 2)

	first := block.Transactions[0]
	assert.Equal(t, "tx1-0", first.TxID)
	assert.Equal(t, uint64(1), first.BlockNumber)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, pb.TxValidationCode_VALID, first.ValidationCode)
	assert.Equal(t, testEnvelope(t, "tx1-0"), first.Raw)

	second := block.Transactions[1]
	assert.Equal(t, "tx1-1", second.TxID)
	assert.Equal(t, 1, second.Position)
	assert.Equal(t, pb.TxValidationCode_MVCC_READ_CONFLICT, second.ValidationCode)
}

func TestQueryBlockOutOfRange(t *testing.T) {
	server, client := newTestClient(t)
	populate(t, server.Ledger, 1)

	_, err := client.QueryBlock(context.Background(), 5)
	require.Error(t, err)

	var ccErr *status.ChaincodeError
	require.True(t, errors.As(err, &ccErr), "expected ChaincodeError, got %v", err)
	assert.Equal(t, int32(500), ccErr.Status)
	assert.Contains(t, ccErr.Message, "failed to get block number 5")
}

func TestBuildIndexEmptyLedger(t *testing.T) {
	server, client := newTestClient(t)

	records, err := client.BuildIndex(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	assert.Equal(t, 1, server.Calls(mocks.EvaluateRPC), "only the chain info should be queried")
}

func TestBuildIndex(t *testing.T) {
	for _, prefetch := range []int{0, 1, 3, 20} {
		t.Run(fmt.Sprintf("prefetch %d", prefetch), func(t *testing.T) {
			server, client := newTestClient(t, WithPrefetch(prefetch))
			populate(t, server.Ledger, 7)

			records, err := client.BuildIndex(context.Background())
			require.NoError(t, err)
			require.Len(t, records, 15)

			assert.Equal(t, uint64(0), records[0].BlockNumber)
			assert.Equal(t, "", records[0].TxID)

			for i, record := range records[1:] {
				number := uint64(i/2 + 1)
				position := i % 2
				assert.Equal(t, number, record.BlockNumber)
				assert.Equal(t, position, record.Position)
				assert.Equal(t, fmt.Sprintf("tx%d-%d", number, position), record.TxID)
			}

			assert.Equal(t, 9, server.Calls(mocks.EvaluateRPC))
		})
	}
}

func TestBuildIndexWithCommittedTransactions(t *testing.T) {
	server, client := newTestClient(t)
	server.Ledger.AddConfigBlock(testChannel)

	records, err := client.BuildIndex(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, pb.TxValidationCode_VALID, records[0].ValidationCode)
}

func TestBuildIndexDecodeError(t *testing.T) {
	for _, prefetch := range []int{0, 4} {
		t.Run(fmt.Sprintf("prefetch %d", prefetch), func(t *testing.T) {
			ledger := mocks.NewMockLedger()
			populate(t, ledger, 5)

			client := newMockClient(t, ledgerHandler(ledger, func(number uint64) ([]byte, bool, error) {
				if number == 3 {
					return []byte("not a block"), true, nil
				}
				return nil, false, nil
			}), WithPrefetch(prefetch))

			records, err := client.BuildIndex(context.Background())
			require.Error(t, err)
			assert.Nil(t, records)

			var decodeErr *status.DecodeError
			require.True(t, errors.As(err, &decodeErr), "expected DecodeError, got %v", err)
			assert.Equal(t, uint64(3), decodeErr.BlockNumber)
		})
	}
}

func TestBuildIndexTransportError(t *testing.T) {
	for _, prefetch := range []int{0, 4} {
		t.Run(fmt.Sprintf("prefetch %d", prefetch), func(t *testing.T) {
			ledger := mocks.NewMockLedger()
			populate(t, ledger, 5)

			client := newMockClient(t, ledgerHandler(ledger, func(number uint64) ([]byte, bool, error) {
				if number == 2 {
					return nil, true, grpcstatus.Error(codes.Unavailable, "peer unavailable")
				}
				return nil, false, nil
			}), WithPrefetch(prefetch))

			records, err := client.BuildIndex(context.Background())
			require.Error(t, err)
			assert.Nil(t, records)
			assert.Contains(t, err.Error(), "failed to retrieve block 2")
			assert.Contains(t, err.Error(), "peer unavailable")
		})
	}
}

func TestBuildIndexReadsHeightOnce(t *testing.T) {
	ledger := mocks.NewMockLedger()
	populate(t, ledger, 2)

	var blocks int32
	client := newMockClient(t, ledgerHandler(ledger, func(number uint64) ([]byte, bool, error) {
		if atomic.AddInt32(&blocks, 1) == 1 {
			ledger.AddConfigBlock(testChannel)
		}
		return nil, false, nil
	}))

	records, err := client.BuildIndex(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 5)
	assert.Equal(t, int32(3), atomic.LoadInt32(&blocks))
}

func TestBuildIndexElapsedDeadline(t *testing.T) {
	server, _ := newTestClient(t)
	populate(t, server.Ledger, 1)

	conn, err := server.Connect(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	policy := deadline.New(deadline.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }))

	id, signer := mocks.NewMockIdentity(t)
	client, err := New(conn, id, signer, testChannel, WithDeadlinePolicy(policy))
	require.NoError(t, err)

	_, err = client.BuildIndex(context.Background())
	require.Error(t, err)
	assert.True(t, status.IsDeadlineExceeded(err), "expected deadline exceeded, got %v", err)

	var deadlineErr *status.DeadlineExceededError
	require.True(t, errors.As(err, &deadlineErr))
	assert.Equal(t, status.OpEvaluate, deadlineErr.Operation)
}

func TestBuildIndexCanceled(t *testing.T) {
	server, client := newTestClient(t, WithPrefetch(2))
	populate(t, server.Ledger, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := client.BuildIndex(ctx)
	require.Error(t, err)
	assert.Nil(t, records)
	assert.True(t, status.IsCanceled(err), "expected canceled, got %v", err)
}

func TestBuildIndexCanceledMidWalk(t *testing.T) {
	for _, prefetch := range []int{0, 1, 2, 4} {
		t.Run(fmt.Sprintf("prefetch %d", prefetch), func(t *testing.T) {
			ledger := mocks.NewMockLedger()
			populate(t, ledger, 30)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			client := newMockClient(t, ledgerHandler(ledger, func(number uint64) ([]byte, bool, error) {
				if number == 3 {
					cancel()
				}
				return nil, false, nil
			}), WithPrefetch(prefetch))

			records, err := client.BuildIndex(ctx)
			require.Error(t, err)
			assert.Nil(t, records)
			assert.True(t, status.IsCanceled(err), "expected canceled, got %v", err)
		})
	}
}

func TestQueryCanceledByConnectionClose(t *testing.T) {
	server := mocks.NewMockGatewayServer(testChannel)
	server.Start()
	t.Cleanup(server.Stop)
	server.EvaluateDelay = 5 * time.Second

	conn, err := server.Connect(context.Background())
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	id, signer := mocks.NewMockIdentity(t)
	client, err := New(conn, id, signer, testChannel, WithRetry(retry.DefaultOpts))
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		conn.Close()
	}()

	start := time.Now()
	_, err = client.QueryInfo(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "expected cancellation but got %s", err)
	assert.True(t, time.Since(start) < server.EvaluateDelay, "query was not interrupted by closing the connection")
	assert.Equal(t, 1, server.Calls(mocks.EvaluateRPC), "a query cancelled by closing the connection must not be retried")
}

func TestBuildBlocksChain(t *testing.T) {
	server, client := newTestClient(t, WithPrefetch(2))
	populate(t, server.Ledger, 4)

	blocks, err := client.BuildBlocks(context.Background())
	require.NoError(t, err)
	require.Len(t, blocks, 5)

	assert.Empty(t, blocks[0].PreviousHash)
	for i := 1; i < len(blocks); i++ {
		previous := blocks[i-1]
		header, err := proto.Marshal(&common.BlockHeader{
			Number:       previous.Number,
			PreviousHash: previous.PreviousHash,
			DataHash:     previous.DataHash,
		})
		require.NoError(t, err)

		hash := sha256.Sum256(header)
		assert.True(t, bytes.Equal(hash[:], blocks[i].PreviousHash), "block %d does not chain to block %d", i, i-1)
		assert.Equal(t, uint64(i), blocks[i].Number)
	}
}

func TestBuildIndexRetriesTransientErrors(t *testing.T) {
	ledger := mocks.NewMockLedger()
	populate(t, ledger, 3)

	var failures int32
	client := newMockClient(t, ledgerHandler(ledger, func(number uint64) ([]byte, bool, error) {
		if number == 2 && atomic.AddInt32(&failures, 1) <= 2 {
			return nil, true, grpcstatus.Error(codes.Unavailable, "peer unavailable")
		}
		return nil, false, nil
	}), WithRetry(retry.Opts{Attempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffFactor: 1}))

	records, err := client.BuildIndex(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 7)
	assert.Equal(t, int32(3), atomic.LoadInt32(&failures))
}

func TestBuildIndexDoesNotRetryChaincodeErrors(t *testing.T) {
	ledger := mocks.NewMockLedger()
	populate(t, ledger, 3)

	var calls int32
	client := newMockClient(t, ledgerHandler(ledger, func(number uint64) ([]byte, bool, error) {
		if number == 1 {
			atomic.AddInt32(&calls, 1)
			return nil, true, grpcstatus.Error(codes.Unknown, "evaluate call to endorser returned error: chaincode response 500, boom")
		}
		return nil, false, nil
	}), WithRetry(retry.DefaultOpts))

	_, err := client.BuildIndex(context.Background())

	var ccErr *status.ChaincodeError
	require.True(t, errors.As(err, &ccErr), "expected ChaincodeError, got %v", err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
