/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package status

import (
	"context"
	"testing"

	gp "github.com/hyperledger/fabric-protos-go/gateway"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

func TestStatusToError(t *testing.T) {
	s := New(ClientStatus, Timeout.ToInt32(), "test", nil)
	assert.Equal(t, "Client Status Code: (5) TIMEOUT. Description: test", s.Error())

	derivedStatus, ok := FromError(s)
	assert.True(t, ok)
	assert.Equal(t, s, derivedStatus)

	wrapped := errors.Wrap(s, "some context")
	derivedStatus, ok = FromError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, s, derivedStatus)

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)
}

func TestFromGRPCStatusWithDetails(t *testing.T) {
	st, err := grpcstatus.New(codes.Aborted, "failed to endorse transaction").WithDetails(
		&gp.ErrorDetail{Address: "peer0:7051", MspId: "Org1MSP", Message: "chaincode response 500, the asset asset70 does not exist"},
	)
	require.NoError(t, err)

	s := NewFromGRPCStatusInGroup(EndorserServerStatus, st)
	require.Len(t, s.ErrorDetails(), 1)
	assert.Equal(t, "peer0:7051", s.ErrorDetails()[0].GetAddress())
	assert.Contains(t, s.Error(), "Aborted")

	code, message, ok := ExtractChaincodeError(s)
	require.True(t, ok)
	assert.EqualValues(t, 500, code)
	assert.Equal(t, "the asset asset70 does not exist", message)
}

func TestParseChaincodeMessage(t *testing.T) {
	code, message, ok := parseChaincodeMessage("transaction returned with failure: chaincode error (status: 404, message: not here)")
	require.True(t, ok)
	assert.EqualValues(t, 404, code)
	assert.Equal(t, "not here", message)

	_, _, ok = parseChaincodeMessage("connection refused")
	assert.False(t, ok)
}

func TestFromRPCError(t *testing.T) {
	assert.NoError(t, FromRPCError(OpEvaluate, "tx1", nil))

	err := FromRPCError(OpEvaluate, "tx1", grpcstatus.Error(codes.DeadlineExceeded, "context deadline exceeded"))
	var deadlineErr *DeadlineExceededError
	require.True(t, errors.As(err, &deadlineErr))
	assert.Equal(t, OpEvaluate, deadlineErr.Operation)
	assert.True(t, IsDeadlineExceeded(err))

	err = FromRPCError(OpSubmit, "tx1", grpcstatus.Error(codes.Canceled, "grpc: the client connection is closing"))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, IsCanceled(err))

	err = FromRPCError(OpEndorse, "tx1", grpcstatus.Error(codes.Unavailable, "no peers available"))
	var endorseErr *EndorsementError
	require.True(t, errors.As(err, &endorseErr))
	assert.Equal(t, "tx1", endorseErr.TransactionID)
	assert.EqualValues(t, codes.Unavailable, endorseErr.Status.Code)

	err = FromRPCError(OpSubmit, "tx2", grpcstatus.Error(codes.Unavailable, "orderer down"))
	var submitErr *SubmitError
	require.True(t, errors.As(err, &submitErr))
	assert.Equal(t, OrdererServerStatus, submitErr.Status.Group)

	err = FromRPCError(OpEndorse, "tx3", grpcstatus.Error(codes.Aborted, "chaincode response 500, boom"))
	var ccErr *ChaincodeError
	require.True(t, errors.As(err, &ccErr))
	assert.EqualValues(t, 500, ccErr.Status)
	assert.Equal(t, "boom", ccErr.Message)
	assert.False(t, errors.As(err, &endorseErr))

	err = FromRPCError(OpCommitStatus, "tx4", errors.New("not grpc"))
	assert.Contains(t, err.Error(), "commitStatus of transaction [tx4] failed")
}

func TestTypedErrorMessages(t *testing.T) {
	commitErr := &CommitError{TransactionID: "tx1", Code: pb.TxValidationCode_MVCC_READ_CONFLICT}
	assert.Equal(t, "transaction [tx1] failed to commit with status code 11 (MVCC_READ_CONFLICT)", commitErr.Error())

	decodeErr := &DecodeError{BlockNumber: 7, Err: errors.New("bad bytes")}
	assert.Equal(t, "failed to decode block 7: bad bytes", decodeErr.Error())
	assert.Equal(t, "bad bytes", errors.Cause(decodeErr).Error())

	connErr := &ConnectionError{Endpoint: "localhost:7051", Err: errors.New("handshake failed")}
	assert.Contains(t, connErr.Error(), "localhost:7051")
}
