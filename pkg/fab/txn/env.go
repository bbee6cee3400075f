/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txn

import (
	"crypto/rand"
	"encoding/hex"
	"hash"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// NonceSize is the number of random bytes in a transaction nonce
const NonceSize = 24

// TransactionID identifies a transaction: the ID is derived from the nonce and the creator
type TransactionID struct {
	ID      string
	Creator []byte
	Nonce   []byte
}

// NewID computes a TransactionID for the given serialized creator
func NewID(creator []byte, newHash func() hash.Hash) (TransactionID, error) {
	nonce, err := GetRandomNonce()
	if err != nil {
		return TransactionID{}, errors.WithMessage(err, "nonce creation failed")
	}

	id, err := computeTxnID(nonce, creator, newHash())
	if err != nil {
		return TransactionID{}, errors.WithMessage(err, "txn ID computation failed")
	}

	return TransactionID{
		ID:      id,
		Creator: creator,
		Nonce:   nonce,
	}, nil
}

// GetRandomNonce returns a random byte array of length NonceSize
func GetRandomNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "error getting random bytes")
	}
	return nonce, nil
}

func computeTxnID(nonce, creator []byte, h hash.Hash) (string, error) {
	b := append(append([]byte{}, nonce...), creator...)

	_, err := h.Write(b)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ChannelHeaderOpts holds the parameters to create a ChannelHeader.
type ChannelHeaderOpts struct {
	ChannelID   string
	TxnID       TransactionID
	ChaincodeID string
	Timestamp   time.Time
}

// CreateChannelHeader builds a common channel header
func CreateChannelHeader(headerType common.HeaderType, opts ChannelHeaderOpts) (*common.ChannelHeader, error) {
	logger.Debugf("buildChannelHeader - headerType: %s channelID: %s txID: %s chaincodeID: %s", headerType, opts.ChannelID, opts.TxnID.ID, opts.ChaincodeID)
	channelHeader := &common.ChannelHeader{
		Type:      int32(headerType),
		ChannelId: opts.ChannelID,
		TxId:      opts.TxnID.ID,
	}

	if opts.Timestamp.IsZero() {
		opts.Timestamp = time.Now()
	}
	channelHeader.Timestamp = timestamppb.New(opts.Timestamp)

	if opts.ChaincodeID != "" {
		headerExt := &pb.ChaincodeHeaderExtension{
			ChaincodeId: &pb.ChaincodeID{Name: opts.ChaincodeID},
		}
		headerExtBytes, err := proto.Marshal(headerExt)
		if err != nil {
			return nil, errors.Wrap(err, "marshal header extension failed")
		}
		channelHeader.Extension = headerExtBytes
	}
	return channelHeader, nil
}

// createHeader creates a Header from a ChannelHeader.
func createHeader(txnID TransactionID, channelHeader *common.ChannelHeader) (*common.Header, error) {
	signatureHeader := &common.SignatureHeader{
		Creator: txnID.Creator,
		Nonce:   txnID.Nonce,
	}
	sh, err := proto.Marshal(signatureHeader)
	if err != nil {
		return nil, errors.Wrap(err, "marshal signatureHeader failed")
	}
	ch, err := proto.Marshal(channelHeader)
	if err != nil {
		return nil, errors.Wrap(err, "marshal channelHeader failed")
	}
	return &common.Header{
		SignatureHeader: sh,
		ChannelHeader:   ch,
	}, nil
}
