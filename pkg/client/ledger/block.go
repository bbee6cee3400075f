/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/status"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/fab/txn"
	"github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
)

// Block is a decoded ledger block
type Block struct {
	Number       uint64              `json:"number"`
	PreviousHash []byte              `json:"previousHash"`
	DataHash     []byte              `json:"dataHash"`
	Transactions []TransactionRecord `json:"transactions"`
	Metadata     [][]byte            `json:"metadata"`
}

// TransactionRecord is one transaction of a block. Raw holds the envelope bytes unmodified.
type TransactionRecord struct {
	BlockNumber    uint64              `json:"blockNumber"`
	Position       int                 `json:"position"`
	Raw            []byte              `json:"raw"`
	TxID           string              `json:"txId"`
	ValidationCode pb.TxValidationCode `json:"validationCode"`
}

// decodeBlock decodes the qscc GetBlockByNumber payload for the given block number
func decodeBlock(number uint64, payload []byte) (*Block, error) {
	block := &common.Block{}
	if err := proto.Unmarshal(payload, block); err != nil {
		return nil, &status.DecodeError{BlockNumber: number, Err: errors.Wrap(err, "unmarshal block failed")}
	}

	header := block.GetHeader()
	if header == nil {
		return nil, &status.DecodeError{BlockNumber: number, Err: errors.New("block header is missing")}
	}
	if header.GetNumber() != number {
		return nil, &status.DecodeError{BlockNumber: number, Err: errors.Errorf("unexpected block number %d", header.GetNumber())}
	}

	metadata := block.GetMetadata().GetMetadata()

	var filter []byte
	if int(common.BlockMetadataIndex_TRANSACTIONS_FILTER) < len(metadata) {
		filter = metadata[common.BlockMetadataIndex_TRANSACTIONS_FILTER]
	}

	data := block.GetData().GetData()
	transactions := make([]TransactionRecord, len(data))
	for i, raw := range data {
		envelope := &common.Envelope{}
		if err := proto.Unmarshal(raw, envelope); err != nil {
			return nil, &status.DecodeError{BlockNumber: number, Err: errors.Wrapf(err, "unmarshal envelope %d failed", i)}
		}
		channelHeader, err := txn.ChannelHeaderFromEnvelope(envelope)
		if err != nil {
			return nil, &status.DecodeError{BlockNumber: number, Err: errors.WithMessagef(err, "invalid envelope %d", i)}
		}

		code := pb.TxValidationCode_NOT_VALIDATED
		if i < len(filter) {
			code = pb.TxValidationCode(filter[i])
		}

		transactions[i] = TransactionRecord{
			BlockNumber:    number,
			Position:       i,
			Raw:            raw,
			TxID:           channelHeader.GetTxId(),
			ValidationCode: code,
		}
	}

	return &Block{
		Number:       number,
		PreviousHash: header.GetPreviousHash(),
		DataHash:     header.GetDataHash(),
		Transactions: transactions,
		Metadata:     metadata,
	}, nil
}
