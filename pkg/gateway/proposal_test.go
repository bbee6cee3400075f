/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/status"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/metrics"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/fab/mocks"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/fab/txn"
	gp "github.com/hyperledger/fabric-protos-go/gateway"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

func newMockClientGateway(t *testing.T, options ...Option) (*mocks.MockGatewayClient, *Gateway) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockGatewayClient(ctrl)

	id, signer := mocks.NewMockIdentity(t)
	gw, err := newGateway(client, id, signer, options...)
	require.NoError(t, err)

	return client, gw
}

func TestEvaluateRequest(t *testing.T) {
	client, gw := newMockClientGateway(t)
	contract := gw.GetNetwork(testChannel).GetContractWithName("basic", "AssetContract")

	client.EXPECT().Evaluate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *gp.EvaluateRequest, _ ...grpc.CallOption) (*gp.EvaluateResponse, error) {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)

			assert.Equal(t, testChannel, req.GetChannelId())
			assert.Equal(t, []string{"Org2MSP"}, req.GetTargetOrganizations())

			channelHeader, ccis, _, err := txn.InvocationFromProposal(req.GetProposedTransaction())
			require.NoError(t, err)
			assert.Equal(t, req.GetTransactionId(), channelHeader.GetTxId())
			assert.Equal(t, "basic", ccis.GetChaincodeSpec().GetChaincodeId().GetName())
			assert.Equal(t, [][]byte{[]byte("AssetContract:ReadAsset"), []byte("asset1")}, ccis.GetChaincodeSpec().GetInput().GetArgs())
			assert.NotEmpty(t, req.GetProposedTransaction().GetSignature())

			return &gp.EvaluateResponse{Result: &pb.Response{Status: 200, Payload: []byte("result")}}, nil
		})

	proposal, err := contract.NewProposal("ReadAsset", WithArguments("asset1"), WithEndorsingOrganizations("Org2MSP"))
	require.NoError(t, err)

	result, err := proposal.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "result", string(result))
}

func TestEndorseSubmitAndCommitRequests(t *testing.T) {
	client, gw := newMockClientGateway(t)
	contract := gw.GetNetwork(testChannel).GetContract("basic")

	var txID string
	var prepared []byte

	client.EXPECT().Endorse(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *gp.EndorseRequest, _ ...grpc.CallOption) (*gp.EndorseResponse, error) {
			txID = req.GetTransactionId()
			assert.Equal(t, []string{"Org1MSP", "Org2MSP"}, req.GetEndorsingOrganizations())

			proposal := &pb.Proposal{}
			require.NoError(t, proto.Unmarshal(req.GetProposedTransaction().GetProposalBytes(), proposal))
			envelope, err := txn.New(proposal, &pb.Response{Status: 200, Payload: []byte("endorsed result")})
			require.NoError(t, err)
			prepared = envelope.GetPayload()

			return &gp.EndorseResponse{PreparedTransaction: envelope}, nil
		})

	client.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *gp.SubmitRequest, _ ...grpc.CallOption) (*gp.SubmitResponse, error) {
			assert.Equal(t, txID, req.GetTransactionId())
			assert.Equal(t, prepared, req.GetPreparedTransaction().GetPayload())
			assert.NotEmpty(t, req.GetPreparedTransaction().GetSignature())
			return &gp.SubmitResponse{}, nil
		})

	client.EXPECT().CommitStatus(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *gp.SignedCommitStatusRequest, _ ...grpc.CallOption) (*gp.CommitStatusResponse, error) {
			request := &gp.CommitStatusRequest{}
			require.NoError(t, proto.Unmarshal(req.GetRequest(), request))
			assert.Equal(t, txID, request.GetTransactionId())
			assert.Equal(t, testChannel, request.GetChannelId())
			assert.Equal(t, gw.creator, request.GetIdentity())
			assert.NotEmpty(t, req.GetSignature())
			return &gp.CommitStatusResponse{Result: pb.TxValidationCode_VALID, BlockNumber: 7}, nil
		}).Times(1)

	proposal, err := contract.NewProposal("CreateAsset", WithBytesArguments([]byte("asset1")), WithEndorsingOrganizations("Org1MSP", "Org2MSP"))
	require.NoError(t, err)

	transaction, err := proposal.Endorse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "endorsed result", string(transaction.Result()))

	commit, err := transaction.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "endorsed result", string(commit.Result()))

	for i := 0; i < 3; i++ {
		commitStatus, err := commit.Status(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(7), commitStatus.BlockNumber)
	}
}

func TestEndorseWithoutPreparedTransaction(t *testing.T) {
	client, gw := newMockClientGateway(t)
	contract := gw.GetNetwork(testChannel).GetContract("basic")

	client.EXPECT().Endorse(gomock.Any(), gomock.Any()).Return(&gp.EndorseResponse{}, nil)

	_, err := contract.SubmitAsync(context.Background(), "InitLedger")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no prepared transaction")
}

func TestMetrics(t *testing.T) {
	registry := prom.NewRegistry()
	client, gw := newMockClientGateway(t, WithMetrics(&metrics.PrometheusProvider{Registerer: registry}))
	contract := gw.GetNetwork(testChannel).GetContract("basic")

	gomock.InOrder(
		client.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(&gp.EvaluateResponse{Result: &pb.Response{Status: 200}}, nil),
		client.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(nil,
			grpcstatus.Error(codes.Unknown, "evaluate call to endorser returned error: chaincode response 500, the asset asset70 does not exist")),
		client.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(nil, grpcstatus.Error(codes.DeadlineExceeded, "timeout")),
	)

	_, err := contract.EvaluateTransaction(context.Background(), "ReadAsset", "asset1")
	require.NoError(t, err)

	_, err = contract.EvaluateTransaction(context.Background(), "ReadAsset", "asset70")
	var ccErr *status.ChaincodeError
	require.True(t, errors.As(err, &ccErr))

	_, err = contract.EvaluateTransaction(context.Background(), "ReadAsset", "asset1")
	require.True(t, status.IsDeadlineExceeded(err))

	families, err := registry.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			values[mf.GetName()] += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(3), values["gateway_evaluations_received"])
	assert.Equal(t, float64(1), values["gateway_evaluations_failed"])
	assert.Equal(t, float64(1), values["gateway_evaluation_timeouts"])

	count, err := testutil.GatherAndCount(registry, "gateway_evaluation_duration")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
