/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/options"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/fab/comm"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/fab/txn"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/util/test"
	"github.com/hyperledger/fabric-protos-go/common"
	gp "github.com/hyperledger/fabric-protos-go/gateway"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// Names of the gateway RPCs, used to count calls
const (
	EvaluateRPC     = "Evaluate"
	EndorseRPC      = "Endorse"
	SubmitRPC       = "Submit"
	CommitStatusRPC = "CommitStatus"
)

// QSCC is the name of the query system chaincode
const QSCC = "qscc"

type mockTransaction struct {
	chaincode   string
	stub        *ChaincodeStub
	envelope    *common.Envelope
	submitted   bool
	committed   chan struct{}
	code        pb.TxValidationCode
	blockNumber uint64
}

// MockGatewayServer is an in-process Fabric gateway. Chaincodes run against an in-memory
// versioned world state and committed transactions are appended to a MockLedger.
type MockGatewayServer struct {
	gp.UnimplementedGatewayServer

	ChannelID string
	MspID     string
	Address   string

	// CommitDelay delays the commit of submitted transactions
	CommitDelay time.Duration
	// EvaluateDelay delays evaluate responses
	EvaluateDelay time.Duration
	// CommitValidationCode, when not VALID, invalidates every committed transaction with that code
	CommitValidationCode pb.TxValidationCode
	// EndorseError, SubmitError and CommitStatusError are returned by the corresponding RPC when set
	EndorseError      error
	SubmitError       error
	CommitStatusError error

	Ledger *MockLedger

	mutex      sync.Mutex
	chaincodes map[string]Chaincode
	state      map[string]worldState
	txs        map[string]*mockTransaction
	calls      map[string]int
	wg         sync.WaitGroup
	srv        *grpc.Server
	lis        *bufconn.Listener
}

// NewMockGatewayServer returns a gateway for the given channel with an empty ledger
// and the asset-transfer-basic chaincode deployed as "basic".
func NewMockGatewayServer(channelID string) *MockGatewayServer {
	m := &MockGatewayServer{
		ChannelID:  channelID,
		MspID:      "Org1MSP",
		Address:    "peer0.org1.example.com:7051",
		Ledger:     NewMockLedger(),
		chaincodes: make(map[string]Chaincode),
		state:      make(map[string]worldState),
		txs:        make(map[string]*mockTransaction),
		calls:      make(map[string]int),
	}
	m.Deploy("basic", AssetTransferChaincode)
	m.Deploy(QSCC, m.Ledger.QuerySystemChaincode)
	return m
}

// Deploy installs a chaincode under the given name
func (m *MockGatewayServer) Deploy(name string, cc Chaincode) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.chaincodes[name] = cc
	if _, ok := m.state[name]; !ok {
		m.state[name] = make(worldState)
	}
}

// Calls returns the number of times the given RPC was invoked
func (m *MockGatewayServer) Calls(rpc string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.calls[rpc]
}

func (m *MockGatewayServer) countCall(rpc string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.calls[rpc]++
}

// Evaluate runs the chaincode without recording the transaction
func (m *MockGatewayServer) Evaluate(ctx context.Context, req *gp.EvaluateRequest) (*gp.EvaluateResponse, error) {
	m.countCall(EvaluateRPC)

	if m.EvaluateDelay > 0 {
		select {
		case <-time.After(m.EvaluateDelay):
		case <-ctx.Done():
			return nil, status.FromContextError(ctx.Err()).Err()
		}
	}

	_, payload, err := m.simulate(req.GetChannelId(), req.GetProposedTransaction())
	if err != nil {
		if ccErr, ok := err.(*chaincodeError); ok {
			return nil, m.errorWithDetail(codes.Unknown, "evaluate call to endorser returned error: "+ccErr.Error(), ccErr.Error())
		}
		return nil, err
	}

	return &gp.EvaluateResponse{Result: &pb.Response{Status: 200, Payload: payload}}, nil
}

// Endorse simulates the transaction and returns the unsigned prepared transaction
func (m *MockGatewayServer) Endorse(ctx context.Context, req *gp.EndorseRequest) (*gp.EndorseResponse, error) {
	m.countCall(EndorseRPC)

	if m.EndorseError != nil {
		return nil, m.EndorseError
	}

	tx, payload, err := m.simulate(req.GetChannelId(), req.GetProposedTransaction())
	if err != nil {
		if ccErr, ok := err.(*chaincodeError); ok {
			return nil, m.errorWithDetail(codes.Aborted, "failed to endorse transaction, see attached details for more info", ccErr.Error())
		}
		return nil, err
	}

	proposal := &pb.Proposal{}
	if err := proto.Unmarshal(req.GetProposedTransaction().GetProposalBytes(), proposal); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	envelope, err := txn.New(proposal, &pb.Response{Status: 200, Payload: payload},
		&pb.Endorsement{Endorser: []byte(m.MspID), Signature: []byte("signature")})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	tx.envelope = envelope

	m.mutex.Lock()
	m.txs[req.GetTransactionId()] = tx
	m.mutex.Unlock()

	return &gp.EndorseResponse{PreparedTransaction: envelope}, nil
}

// Submit orders the signed transaction. It commits after CommitDelay.
func (m *MockGatewayServer) Submit(ctx context.Context, req *gp.SubmitRequest) (*gp.SubmitResponse, error) {
	m.countCall(SubmitRPC)

	if m.SubmitError != nil {
		return nil, m.SubmitError
	}

	envelope := req.GetPreparedTransaction()
	if len(envelope.GetSignature()) == 0 {
		return nil, status.Error(codes.InvalidArgument, "prepared transaction must be signed")
	}

	channelHeader, err := txn.ChannelHeaderFromEnvelope(envelope)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if channelHeader.GetTxId() != req.GetTransactionId() {
		return nil, status.Errorf(codes.InvalidArgument, "transaction ID mismatch: %s", req.GetTransactionId())
	}

	m.mutex.Lock()
	tx, ok := m.txs[req.GetTransactionId()]
	if !ok {
		m.mutex.Unlock()
		return nil, status.Errorf(codes.NotFound, "transaction %s was not endorsed", req.GetTransactionId())
	}
	if tx.submitted {
		m.mutex.Unlock()
		return nil, status.Errorf(codes.AlreadyExists, "transaction %s already submitted", req.GetTransactionId())
	}
	tx.submitted = true
	tx.envelope = envelope
	m.mutex.Unlock()

	if m.CommitDelay > 0 {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			time.Sleep(m.CommitDelay)
			m.commit(tx)
		}()
	} else {
		m.commit(tx)
	}

	return &gp.SubmitResponse{}, nil
}

// CommitStatus waits for the transaction to be committed
func (m *MockGatewayServer) CommitStatus(ctx context.Context, req *gp.SignedCommitStatusRequest) (*gp.CommitStatusResponse, error) {
	m.countCall(CommitStatusRPC)

	if m.CommitStatusError != nil {
		return nil, m.CommitStatusError
	}

	if len(req.GetSignature()) == 0 {
		return nil, status.Error(codes.InvalidArgument, "commit status request must be signed")
	}

	request := &gp.CommitStatusRequest{}
	if err := proto.Unmarshal(req.GetRequest(), request); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	m.mutex.Lock()
	tx, ok := m.txs[request.GetTransactionId()]
	m.mutex.Unlock()
	if !ok || !tx.submitted {
		return nil, status.Errorf(codes.NotFound, "transaction %s not found", request.GetTransactionId())
	}

	select {
	case <-tx.committed:
	case <-ctx.Done():
		return nil, status.FromContextError(ctx.Err()).Err()
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	return &gp.CommitStatusResponse{Result: tx.code, BlockNumber: tx.blockNumber}, nil
}

func (m *MockGatewayServer) simulate(channelID string, signedProposal *pb.SignedProposal) (*mockTransaction, []byte, error) {
	if len(signedProposal.GetSignature()) == 0 {
		return nil, nil, status.Error(codes.InvalidArgument, "proposal must be signed")
	}

	channelHeader, ccis, transient, err := txn.InvocationFromProposal(signedProposal)
	if err != nil {
		return nil, nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if channelID != m.ChannelID || channelHeader.GetChannelId() != m.ChannelID {
		return nil, nil, status.Errorf(codes.NotFound, "channel %s not found", channelID)
	}

	name := ccis.GetChaincodeSpec().GetChaincodeId().GetName()
	input := ccis.GetChaincodeSpec().GetInput().GetArgs()
	if len(input) == 0 {
		return nil, nil, status.Error(codes.InvalidArgument, "no function name")
	}
	args := make([]string, len(input)-1)
	for i, arg := range input[1:] {
		args[i] = string(arg)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	cc, ok := m.chaincodes[name]
	if !ok {
		return nil, nil, status.Errorf(codes.NotFound, "chaincode %s not found", name)
	}

	stub := newChaincodeStub(m.state[name], transient)
	payload, err := cc(stub, string(input[0]), args)
	if err != nil {
		return nil, nil, &chaincodeError{status: 500, message: err.Error()}
	}

	return &mockTransaction{chaincode: name, stub: stub, committed: make(chan struct{})}, payload, nil
}

func (m *MockGatewayServer) commit(tx *mockTransaction) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	state := m.state[tx.chaincode]
	code := pb.TxValidationCode_VALID
	if !tx.stub.valid(state) {
		code = pb.TxValidationCode_MVCC_READ_CONFLICT
	}

	if m.CommitValidationCode != pb.TxValidationCode_VALID {
		code = m.CommitValidationCode
	}

	envelopeBytes, err := proto.Marshal(tx.envelope)
	if err != nil {
		code = pb.TxValidationCode_BAD_PAYLOAD
	}

	block := m.Ledger.AppendBlock([][]byte{envelopeBytes}, []pb.TxValidationCode{code})
	if code == pb.TxValidationCode_VALID {
		tx.stub.apply(state, block.Header.Number+1)
	}

	tx.code = code
	tx.blockNumber = block.Header.Number
	close(tx.committed)
}

func (m *MockGatewayServer) errorWithDetail(code codes.Code, msg, detail string) error {
	st, err := status.New(code, msg).WithDetails(&gp.ErrorDetail{
		Address: m.Address,
		MspId:   m.MspID,
		Message: detail,
	})
	if err != nil {
		return status.Error(code, msg)
	}
	return st.Err()
}

type chaincodeError struct {
	status  int32
	message string
}

func (e *chaincodeError) Error() string {
	return fmt.Sprintf("chaincode response %d, %s", e.status, e.message)
}

// Start starts serving on an in-memory listener
func (m *MockGatewayServer) Start() {
	if m.srv != nil {
		panic("MockGatewayServer already started")
	}

	m.lis = bufconn.Listen(1024 * 1024)
	m.srv = grpc.NewServer()
	gp.RegisterGatewayServer(m.srv, m)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.srv.Serve(m.lis); err != nil {
			test.Logf("MockGatewayServer stopped [%s]", err)
		}
	}()
}

// Stop stops the server and waits for pending commits
func (m *MockGatewayServer) Stop() {
	if m.srv == nil {
		panic("MockGatewayServer not started")
	}

	m.srv.Stop()
	m.wg.Wait()
	m.srv = nil
}

// Dialer returns a dialer connecting to the in-memory listener
func (m *MockGatewayServer) Dialer() comm.ContextDialer {
	return func(ctx context.Context, _ string) (net.Conn, error) {
		return m.lis.DialContext(ctx)
	}
}

// Connect opens a client connection to the server
func (m *MockGatewayServer) Connect(ctx context.Context, opts ...options.Opt) (*comm.Connection, error) {
	opts = append([]options.Opt{comm.WithInsecure(), comm.WithContextDialer(m.Dialer())}, opts...)
	return comm.Open(ctx, comm.Endpoint{Address: "bufnet"}, opts...)
}
