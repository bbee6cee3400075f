/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package txn creates and signs transaction proposals and decodes transaction envelopes.
package txn

import (
	"crypto/sha256"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/logging"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/msp"
	"github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
)

var logger = logging.NewLogger("fabgw/txn")

// New creates an unsigned transaction envelope from a proposal and the chaincode response of its endorsement.
func New(proposal *pb.Proposal, response *pb.Response, endorsements ...*pb.Endorsement) (*common.Envelope, error) {
	if proposal == nil {
		return nil, errors.New("proposal is nil")
	}
	if response == nil {
		return nil, errors.New("response is nil")
	}

	// the original header
	hdr := &common.Header{}
	if err := proto.Unmarshal(proposal.Header, hdr); err != nil {
		return nil, errors.Wrap(err, "unmarshal proposal header failed")
	}

	channelHeader := &common.ChannelHeader{}
	if err := proto.Unmarshal(hdr.ChannelHeader, channelHeader); err != nil {
		return nil, errors.Wrap(err, "unmarshal channel header failed")
	}

	actionBytes, err := proto.Marshal(&pb.ChaincodeAction{Response: response})
	if err != nil {
		return nil, errors.Wrap(err, "marshal chaincode action failed")
	}

	proposalHash := sha256.Sum256(append(append([]byte{}, proposal.Header...), proposal.Payload...))
	responsePayload, err := proto.Marshal(&pb.ProposalResponsePayload{ProposalHash: proposalHash[:], Extension: actionBytes})
	if err != nil {
		return nil, errors.Wrap(err, "marshal proposal response payload failed")
	}

	// the transient map never goes into the transaction
	propPayload := &pb.ChaincodeProposalPayload{}
	if err := proto.Unmarshal(proposal.Payload, propPayload); err != nil {
		return nil, errors.Wrap(err, "unmarshal proposal payload failed")
	}
	propPayloadBytes, err := proto.Marshal(&pb.ChaincodeProposalPayload{Input: propPayload.Input})
	if err != nil {
		return nil, errors.Wrap(err, "marshal proposal payload failed")
	}

	cea := &pb.ChaincodeEndorsedAction{ProposalResponsePayload: responsePayload, Endorsements: endorsements}
	capBytes, err := proto.Marshal(&pb.ChaincodeActionPayload{ChaincodeProposalPayload: propPayloadBytes, Action: cea})
	if err != nil {
		return nil, errors.Wrap(err, "marshal chaincode action payload failed")
	}

	txBytes, err := proto.Marshal(&pb.Transaction{Actions: []*pb.TransactionAction{{Header: hdr.SignatureHeader, Payload: capBytes}}})
	if err != nil {
		return nil, errors.Wrap(err, "marshal transaction failed")
	}

	payloadBytes, err := proto.Marshal(&common.Payload{Header: hdr, Data: txBytes})
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload failed")
	}

	logger.Debugf("created transaction envelope for [%s]", channelHeader.TxId)

	return &common.Envelope{Payload: payloadBytes}, nil
}

// SignEnvelope returns a copy of envelope carrying the signature of its payload
func SignEnvelope(signer msp.Signer, envelope *common.Envelope) (*common.Envelope, error) {
	if envelope == nil {
		return nil, errors.New("envelope is nil")
	}
	signature, err := signer.Sign(envelope.Payload)
	if err != nil {
		return nil, errors.WithMessage(err, "signing of payload failed")
	}
	return &common.Envelope{Payload: envelope.Payload, Signature: signature}, nil
}

// ChannelHeaderFromEnvelope returns the channel header of envelope
func ChannelHeaderFromEnvelope(envelope *common.Envelope) (*common.ChannelHeader, error) {
	payload := &common.Payload{}
	if err := proto.Unmarshal(envelope.GetPayload(), payload); err != nil {
		return nil, errors.Wrap(err, "unmarshal payload failed")
	}
	if payload.GetHeader() == nil {
		return nil, errors.New("payload header is missing")
	}

	channelHeader := &common.ChannelHeader{}
	if err := proto.Unmarshal(payload.GetHeader().GetChannelHeader(), channelHeader); err != nil {
		return nil, errors.Wrap(err, "unmarshal channel header failed")
	}
	return channelHeader, nil
}

// ResultFromEnvelope extracts the chaincode response payload of the first action of an
// endorsed transaction envelope.
func ResultFromEnvelope(envelope *common.Envelope) ([]byte, error) {
	payload := &common.Payload{}
	if err := proto.Unmarshal(envelope.GetPayload(), payload); err != nil {
		return nil, errors.Wrap(err, "unmarshal payload failed")
	}

	tx := &pb.Transaction{}
	if err := proto.Unmarshal(payload.GetData(), tx); err != nil {
		return nil, errors.Wrap(err, "unmarshal transaction failed")
	}
	if len(tx.GetActions()) == 0 {
		return nil, errors.New("transaction contains no actions")
	}

	actionPayload := &pb.ChaincodeActionPayload{}
	if err := proto.Unmarshal(tx.GetActions()[0].GetPayload(), actionPayload); err != nil {
		return nil, errors.Wrap(err, "unmarshal chaincode action payload failed")
	}

	responsePayload := &pb.ProposalResponsePayload{}
	if err := proto.Unmarshal(actionPayload.GetAction().GetProposalResponsePayload(), responsePayload); err != nil {
		return nil, errors.Wrap(err, "unmarshal proposal response payload failed")
	}

	action := &pb.ChaincodeAction{}
	if err := proto.Unmarshal(responsePayload.GetExtension(), action); err != nil {
		return nil, errors.Wrap(err, "unmarshal chaincode action failed")
	}

	return action.GetResponse().GetPayload(), nil
}
