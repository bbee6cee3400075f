/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txn

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/msp"
	"github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigner = msp.SignerFunc(func(message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	return digest[:], nil
})

func TestNewID(t *testing.T) {
	creator := []byte("creator")

	txnID, err := NewID(creator, sha256.New)
	require.NoError(t, err)
	assert.Len(t, txnID.Nonce, NonceSize)
	assert.Equal(t, creator, txnID.Creator)

	expected := sha256.Sum256(append(append([]byte{}, txnID.Nonce...), creator...))
	assert.Equal(t, hex.EncodeToString(expected[:]), txnID.ID)

	other, err := NewID(creator, sha256.New)
	require.NoError(t, err)
	assert.NotEqual(t, txnID.ID, other.ID)
}

func newTestProposal(t *testing.T) *TransactionProposal {
	txnID, err := NewID([]byte("creator"), sha256.New)
	require.NoError(t, err)

	tp, err := CreateChaincodeInvokeProposal(txnID, "mychannel", ChaincodeInvokeRequest{
		ChaincodeID:  "basic",
		Fcn:          "CreateAsset",
		Args:         [][]byte{[]byte("asset1"), []byte("blue")},
		TransientMap: map[string][]byte{"secret": []byte("value")},
	})
	require.NoError(t, err)
	return tp
}

func TestCreateChaincodeInvokeProposal(t *testing.T) {
	tp := newTestProposal(t)

	signed, err := SignProposal(testSigner, tp.Proposal)
	require.NoError(t, err)
	expectedSig := sha256.Sum256(signed.ProposalBytes)
	assert.Equal(t, expectedSig[:], signed.Signature)

	channelHeader, ccis, transient, err := InvocationFromProposal(signed)
	require.NoError(t, err)
	assert.Equal(t, "mychannel", channelHeader.GetChannelId())
	assert.Equal(t, tp.TxnID.ID, channelHeader.GetTxId())
	assert.Equal(t, int32(common.HeaderType_ENDORSER_TRANSACTION), channelHeader.GetType())
	assert.NotNil(t, channelHeader.GetTimestamp())

	ext := &pb.ChaincodeHeaderExtension{}
	require.NoError(t, proto.Unmarshal(channelHeader.GetExtension(), ext))
	assert.Equal(t, "basic", ext.GetChaincodeId().GetName())

	assert.Equal(t, "basic", ccis.GetChaincodeSpec().GetChaincodeId().GetName())
	assert.Equal(t, [][]byte{[]byte("CreateAsset"), []byte("asset1"), []byte("blue")}, ccis.GetChaincodeSpec().GetInput().GetArgs())
	assert.Equal(t, []byte("value"), transient["secret"])
}

func TestCreateChaincodeInvokeProposalValidation(t *testing.T) {
	_, err := CreateChaincodeInvokeProposal(TransactionID{}, "mychannel", ChaincodeInvokeRequest{Fcn: "fn"})
	assert.EqualError(t, err, "ChaincodeID is required")

	_, err = CreateChaincodeInvokeProposal(TransactionID{}, "mychannel", ChaincodeInvokeRequest{ChaincodeID: "basic"})
	assert.EqualError(t, err, "Fcn is required")

	_, err = SignProposal(nil, &pb.Proposal{})
	assert.Error(t, err)
}

func TestEnvelopeResult(t *testing.T) {
	tp := newTestProposal(t)

	envelope, err := New(tp.Proposal, &pb.Response{Status: 200, Payload: []byte("result")})
	require.NoError(t, err)
	assert.Empty(t, envelope.Signature)

	result, err := ResultFromEnvelope(envelope)
	require.NoError(t, err)
	assert.Equal(t, []byte("result"), result)

	channelHeader, err := ChannelHeaderFromEnvelope(envelope)
	require.NoError(t, err)
	assert.Equal(t, tp.TxnID.ID, channelHeader.GetTxId())

	signed, err := SignEnvelope(testSigner, envelope)
	require.NoError(t, err)
	expectedSig := sha256.Sum256(envelope.Payload)
	assert.Equal(t, expectedSig[:], signed.Signature)
	assert.Equal(t, envelope.Payload, signed.Payload)

	_, err = SignEnvelope(testSigner, nil)
	assert.Error(t, err)
}

func TestEnvelopeOmitsTransientData(t *testing.T) {
	tp := newTestProposal(t)

	envelope, err := New(tp.Proposal, &pb.Response{Status: 200})
	require.NoError(t, err)

	payload := &common.Payload{}
	require.NoError(t, proto.Unmarshal(envelope.Payload, payload))
	tx := &pb.Transaction{}
	require.NoError(t, proto.Unmarshal(payload.Data, tx))
	require.Len(t, tx.Actions, 1)
	actionPayload := &pb.ChaincodeActionPayload{}
	require.NoError(t, proto.Unmarshal(tx.Actions[0].Payload, actionPayload))
	ccpp := &pb.ChaincodeProposalPayload{}
	require.NoError(t, proto.Unmarshal(actionPayload.ChaincodeProposalPayload, ccpp))
	assert.Empty(t, ccpp.TransientMap)
}

func TestResultFromMalformedEnvelope(t *testing.T) {
	_, err := ResultFromEnvelope(&common.Envelope{Payload: []byte("garbage")})
	assert.Error(t, err)

	data, err := proto.Marshal(&pb.Transaction{})
	require.NoError(t, err)
	payload, err := proto.Marshal(&common.Payload{Header: &common.Header{}, Data: data})
	require.NoError(t, err)
	_, err = ResultFromEnvelope(&common.Envelope{Payload: payload})
	assert.EqualError(t, err, "transaction contains no actions")

	_, err = ChannelHeaderFromEnvelope(&common.Envelope{})
	assert.Error(t, err)
}
