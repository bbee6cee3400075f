/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package status

import (
	"fmt"

	pb "github.com/hyperledger/fabric-protos-go/peer"
)

// ConnectionError is returned when the gateway endpoint cannot be reached: the TLS root
// certificate could not be loaded or the transport handshake failed.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to [%s] failed: %s", e.Endpoint, e.Err)
}

// Cause returns the underlying error
func (e *ConnectionError) Cause() error { return e.Err }

// Unwrap returns the underlying error
func (e *ConnectionError) Unwrap() error { return e.Err }

// DeadlineExceededError is returned when no reply arrived before the deadline of the operation.
// A submit that times out may still have taken effect on the ledger.
type DeadlineExceededError struct {
	Operation     string
	TransactionID string
	Err           error
}

func (e *DeadlineExceededError) Error() string {
	if e.TransactionID != "" {
		return fmt.Sprintf("%s deadline exceeded for transaction [%s]: %s", e.Operation, e.TransactionID, e.Err)
	}
	return fmt.Sprintf("%s deadline exceeded: %s", e.Operation, e.Err)
}

// Cause returns the underlying error
func (e *DeadlineExceededError) Cause() error { return e.Err }

// Unwrap returns the underlying error
func (e *DeadlineExceededError) Unwrap() error { return e.Err }

// EndorsementError is returned when a proposal could not be endorsed. Ordering was not attempted
// so the transaction had no effect on the ledger.
type EndorsementError struct {
	TransactionID string
	Status        *Status
}

func (e *EndorsementError) Error() string {
	return fmt.Sprintf("endorsement of transaction [%s] failed: %s", e.TransactionID, e.Status)
}

// Cause returns the underlying status
func (e *EndorsementError) Cause() error { return e.Status }

// Unwrap returns the underlying status
func (e *EndorsementError) Unwrap() error { return e.Status }

// ChaincodeError is returned when the chaincode rejected the invocation while it was being
// endorsed or evaluated. Message is the message reported by the peer.
type ChaincodeError struct {
	TransactionID string
	Status        int32
	Message       string
	Err           error
}

func (e *ChaincodeError) Error() string {
	return fmt.Sprintf("chaincode returned status %d: %s", e.Status, e.Message)
}

// Cause returns the underlying error
func (e *ChaincodeError) Cause() error { return e.Err }

// Unwrap returns the underlying error
func (e *ChaincodeError) Unwrap() error { return e.Err }

// SubmitError is returned when an endorsed transaction could not be sent to the ordering service.
type SubmitError struct {
	TransactionID string
	Status        *Status
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit of transaction [%s] failed: %s", e.TransactionID, e.Status)
}

// Cause returns the underlying status
func (e *SubmitError) Cause() error { return e.Status }

// Unwrap returns the underlying status
func (e *SubmitError) Unwrap() error { return e.Status }

// CommitError is returned when an ordered transaction was invalidated by the committing peers.
type CommitError struct {
	TransactionID string
	Code          pb.TxValidationCode
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("transaction [%s] failed to commit with status code %d (%s)", e.TransactionID, int32(e.Code), e.Code)
}

// DecodeError is returned when a block or chain status payload cannot be decoded.
type DecodeError struct {
	BlockNumber uint64
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode block %d: %s", e.BlockNumber, e.Err)
}

// Cause returns the underlying error
func (e *DecodeError) Cause() error { return e.Err }

// Unwrap returns the underlying error
func (e *DecodeError) Unwrap() error { return e.Err }
