/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package status

import (
	"context"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// Remote operation names as reported in errors
const (
	OpEvaluate     = "evaluate"
	OpEndorse      = "endorse"
	OpSubmit       = "submit"
	OpCommitStatus = "commitStatus"
)

var (
	// gateway format: "chaincode response 500, the asset asset70 does not exist"
	chaincodeResponseRE = regexp.MustCompile(`chaincode response (\d+), (.*)`)
	// peer format: "chaincode error (status: 500, message: the asset asset70 does not exist)"
	chaincodeErrorRE = regexp.MustCompile(`chaincode error \(status: (\d+), message: (.*)\)`)
)

// IsDeadlineExceeded returns true if err is the result of an elapsed deadline
func IsDeadlineExceeded(err error) bool {
	var d *DeadlineExceededError
	if errors.As(err, &d) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return grpcstatus.Code(errors.Cause(err)) == codes.DeadlineExceeded
}

// IsCanceled returns true if err is the result of a cancelled call, either because the
// caller cancelled the context or because the connection was closed.
func IsCanceled(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	return grpcstatus.Code(errors.Cause(err)) == codes.Canceled
}

// FromRPCError translates an error returned by a gateway RPC into the SDK error taxonomy.
func FromRPCError(op string, txID string, err error) error {
	if err == nil {
		return nil
	}

	if IsDeadlineExceeded(err) {
		return &DeadlineExceededError{Operation: op, TransactionID: txID, Err: err}
	}

	if IsCanceled(err) {
		return errors.Wrapf(context.Canceled, "%s of transaction [%s] canceled", op, txID)
	}

	rpcStatus, ok := grpcstatus.FromError(err)
	if !ok {
		return errors.Wrapf(err, "%s of transaction [%s] failed", op, txID)
	}

	s := NewFromGRPCStatusInGroup(groupForOp(op), rpcStatus)

	if code, message, ok := ExtractChaincodeError(s); ok {
		return &ChaincodeError{TransactionID: txID, Status: code, Message: message, Err: s}
	}

	switch op {
	case OpEndorse:
		return &EndorsementError{TransactionID: txID, Status: s}
	case OpSubmit:
		return &SubmitError{TransactionID: txID, Status: s}
	default:
		return errors.WithMessagef(s, "%s of transaction [%s] failed", op, txID)
	}
}

// ExtractChaincodeError looks for a chaincode response in the status message and in
// the per-endpoint error details.
func ExtractChaincodeError(s *Status) (int32, string, bool) {
	for _, detail := range s.ErrorDetails() {
		if code, message, ok := parseChaincodeMessage(detail.GetMessage()); ok {
			return code, message, true
		}
	}
	return parseChaincodeMessage(s.Message)
}

func parseChaincodeMessage(msg string) (int32, string, bool) {
	for _, re := range []*regexp.Regexp{chaincodeResponseRE, chaincodeErrorRE} {
		m := re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		code, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return int32(code), m[2], true
	}
	return 0, "", false
}

func groupForOp(op string) Group {
	switch op {
	case OpEndorse, OpEvaluate:
		return EndorserServerStatus
	case OpSubmit:
		return OrdererServerStatus
	default:
		return GRPCTransportStatus
	}
}
