/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"sync"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// MockLedger is an in-memory chain of blocks
type MockLedger struct {
	mutex  sync.RWMutex
	blocks []*common.Block
}

// NewMockLedger returns an empty ledger
func NewMockLedger() *MockLedger {
	return &MockLedger{}
}

// Height returns the number of blocks
func (l *MockLedger) Height() uint64 {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return uint64(len(l.blocks))
}

// Block returns the block with the given number
func (l *MockLedger) Block(number uint64) (*common.Block, bool) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	if number >= uint64(len(l.blocks)) {
		return nil, false
	}
	return l.blocks[number], true
}

// Info returns the chain information as reported by qscc GetChainInfo
func (l *MockLedger) Info() *common.BlockchainInfo {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	info := &common.BlockchainInfo{Height: uint64(len(l.blocks))}
	if n := len(l.blocks); n > 0 {
		info.CurrentBlockHash = blockHeaderHash(l.blocks[n-1].Header)
		info.PreviousBlockHash = l.blocks[n-1].Header.PreviousHash
	}
	return info
}

// AppendBlock appends a block holding the given raw envelopes and their validation codes
func (l *MockLedger) AppendBlock(envelopes [][]byte, codes []pb.TxValidationCode) *common.Block {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	number := uint64(len(l.blocks))
	var previousHash []byte
	if number > 0 {
		previousHash = blockHeaderHash(l.blocks[number-1].Header)
	}

	filter := make([]byte, len(envelopes))
	for i := range filter {
		if i < len(codes) {
			filter[i] = byte(codes[i])
		}
	}

	metadata := make([][]byte, len(common.BlockMetadataIndex_name))
	metadata[common.BlockMetadataIndex_TRANSACTIONS_FILTER] = filter

	block := &common.Block{
		Header: &common.BlockHeader{
			Number:       number,
			PreviousHash: previousHash,
			DataHash:     dataHash(envelopes),
		},
		Data:     &common.BlockData{Data: envelopes},
		Metadata: &common.BlockMetadata{Metadata: metadata},
	}
	l.blocks = append(l.blocks, block)
	return block
}

// AddConfigBlock appends a block containing a single config transaction, as found at the start of a channel
func (l *MockLedger) AddConfigBlock(channelID string) *common.Block {
	channelHeader, _ := proto.Marshal(&common.ChannelHeader{
		Type:      int32(common.HeaderType_CONFIG),
		ChannelId: channelID,
		Timestamp: timestamppb.Now(),
	})
	payload, _ := proto.Marshal(&common.Payload{
		Header: &common.Header{ChannelHeader: channelHeader},
		Data:   []byte("config"),
	})
	envelope, _ := proto.Marshal(&common.Envelope{Payload: payload})
	return l.AppendBlock([][]byte{envelope}, []pb.TxValidationCode{pb.TxValidationCode_VALID})
}

// QuerySystemChaincode implements the qscc functions used to read the ledger
func (l *MockLedger) QuerySystemChaincode(_ *ChaincodeStub, fcn string, args []string) ([]byte, error) {
	switch fcn {
	case "GetChainInfo":
		return proto.Marshal(l.Info())
	case "GetBlockByNumber":
		if len(args) != 2 {
			return nil, fmt.Errorf("incorrect number of arguments, %d", len(args))
		}
		number, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse block number with error %s", err)
		}
		block, ok := l.Block(number)
		if !ok {
			return nil, fmt.Errorf("failed to get block number %d, error Entry not found in index", number)
		}
		return proto.Marshal(block)
	default:
		return nil, fmt.Errorf("requested function %s not found", fcn)
	}
}

func blockHeaderHash(header *common.BlockHeader) []byte {
	bytes, _ := proto.Marshal(header)
	hash := sha256.Sum256(bytes)
	return hash[:]
}

func dataHash(data [][]byte) []byte {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}
