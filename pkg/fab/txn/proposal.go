/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txn

import (
	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/msp"
	"github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
)

// ChaincodeInvokeRequest contains the parameters of a chaincode invocation
type ChaincodeInvokeRequest struct {
	ChaincodeID  string
	Fcn          string
	Args         [][]byte
	TransientMap map[string][]byte
}

// TransactionProposal is an unsigned proposal together with its transaction ID
type TransactionProposal struct {
	TxnID     TransactionID
	ChannelID string
	Proposal  *pb.Proposal
}

// CreateChaincodeInvokeProposal creates a proposal for transaction.
func CreateChaincodeInvokeProposal(txnID TransactionID, channelID string, request ChaincodeInvokeRequest) (*TransactionProposal, error) {
	if request.ChaincodeID == "" {
		return nil, errors.New("ChaincodeID is required")
	}

	if request.Fcn == "" {
		return nil, errors.New("Fcn is required")
	}

	// Add function name to arguments
	argsArray := make([][]byte, len(request.Args)+1)
	argsArray[0] = []byte(request.Fcn)
	copy(argsArray[1:], request.Args)

	// create invocation spec to target a chaincode with arguments
	ccis := &pb.ChaincodeInvocationSpec{ChaincodeSpec: &pb.ChaincodeSpec{
		ChaincodeId: &pb.ChaincodeID{Name: request.ChaincodeID},
		Input:       &pb.ChaincodeInput{Args: argsArray},
	}}
	cisBytes, err := proto.Marshal(ccis)
	if err != nil {
		return nil, errors.Wrap(err, "marshal invocation spec failed")
	}

	ccPropPayloadBytes, err := proto.Marshal(&pb.ChaincodeProposalPayload{Input: cisBytes, TransientMap: request.TransientMap})
	if err != nil {
		return nil, errors.Wrap(err, "marshal chaincode proposal payload failed")
	}

	channelHeader, err := CreateChannelHeader(common.HeaderType_ENDORSER_TRANSACTION, ChannelHeaderOpts{
		ChannelID:   channelID,
		TxnID:       txnID,
		ChaincodeID: request.ChaincodeID,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create channel header")
	}

	header, err := createHeader(txnID, channelHeader)
	if err != nil {
		return nil, errors.WithMessage(err, "header creation failed")
	}
	headerBytes, err := proto.Marshal(header)
	if err != nil {
		return nil, errors.Wrap(err, "marshal header failed")
	}

	return &TransactionProposal{
		TxnID:     txnID,
		ChannelID: channelID,
		Proposal:  &pb.Proposal{Header: headerBytes, Payload: ccPropPayloadBytes},
	}, nil
}

// SignProposal marshals and signs the proposal
func SignProposal(signer msp.Signer, proposal *pb.Proposal) (*pb.SignedProposal, error) {
	if signer == nil {
		return nil, errors.New("signer is nil")
	}

	proposalBytes, err := proto.Marshal(proposal)
	if err != nil {
		return nil, errors.Wrap(err, "mashal proposal failed")
	}

	signature, err := signer.Sign(proposalBytes)
	if err != nil {
		return nil, errors.WithMessage(err, "sign failed")
	}

	return &pb.SignedProposal{ProposalBytes: proposalBytes, Signature: signature}, nil
}

// InvocationFromProposal decodes the chaincode invocation carried by a signed proposal
func InvocationFromProposal(signedProposal *pb.SignedProposal) (*common.ChannelHeader, *pb.ChaincodeInvocationSpec, map[string][]byte, error) {
	proposal := &pb.Proposal{}
	if err := proto.Unmarshal(signedProposal.GetProposalBytes(), proposal); err != nil {
		return nil, nil, nil, errors.Wrap(err, "unmarshal proposal failed")
	}

	header := &common.Header{}
	if err := proto.Unmarshal(proposal.GetHeader(), header); err != nil {
		return nil, nil, nil, errors.Wrap(err, "unmarshal header failed")
	}
	channelHeader := &common.ChannelHeader{}
	if err := proto.Unmarshal(header.GetChannelHeader(), channelHeader); err != nil {
		return nil, nil, nil, errors.Wrap(err, "unmarshal channel header failed")
	}

	payload := &pb.ChaincodeProposalPayload{}
	if err := proto.Unmarshal(proposal.GetPayload(), payload); err != nil {
		return nil, nil, nil, errors.Wrap(err, "unmarshal chaincode proposal payload failed")
	}
	ccis := &pb.ChaincodeInvocationSpec{}
	if err := proto.Unmarshal(payload.GetInput(), ccis); err != nil {
		return nil, nil, nil, errors.Wrap(err, "unmarshal invocation spec failed")
	}

	return channelHeader, ccis, payload.GetTransientMap(), nil
}
