/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package status

import (
	"strconv"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	grpcCodes "google.golang.org/grpc/codes"
)

// Code represents a status code
type Code uint32

const (
	// OK is returned on success.
	OK Code = 0

	// Unknown represents status codes that are uncategorized or unknown to the SDK
	Unknown Code = 1

	// ConnectionFailed is returned when a network connection attempt from the SDK fails
	ConnectionFailed Code = 2

	// Timeout operation timed out
	Timeout Code = 5

	// Canceled operation was canceled by the caller or by closing the connection
	Canceled Code = 6

	// InvalidResponse is returned when a remote response cannot be decoded
	InvalidResponse Code = 7
)

// CodeName maps the codes in this packages to human-readable strings
var CodeName = map[int32]string{
	0: "OK",
	1: "UNKNOWN",
	2: "CONNECTION_FAILED",
	5: "TIMEOUT",
	6: "CANCELED",
	7: "INVALID_RESPONSE",
}

// ToInt32 cast to int32
func (c Code) ToInt32() int32 {
	return int32(c)
}

// String representation of the code
func (c Code) String() string {
	if s, ok := CodeName[c.ToInt32()]; ok {
		return s
	}
	return strconv.Itoa(int(c))
}

// ToSDKStatusCode cast to SDK status code
func ToSDKStatusCode(c int32) Code {
	return Code(c)
}

// ToGRPCStatusCode cast to gRPC status code
func ToGRPCStatusCode(c int32) grpcCodes.Code {
	return grpcCodes.Code(c)
}

// ToTransactionValidationCode cast to transaction validation status code
func ToTransactionValidationCode(c int32) pb.TxValidationCode {
	return pb.TxValidationCode(c)
}
