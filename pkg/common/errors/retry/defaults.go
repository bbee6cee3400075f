/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"time"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/status"
	grpcCodes "google.golang.org/grpc/codes"
)

// Query retry defaults
const (
	DefaultAttempts       = 3
	DefaultInitialBackoff = 250 * time.Millisecond
	DefaultMaxBackoff     = 5 * time.Second
	DefaultBackoffFactor  = 2.0
)

// DefaultOpts retries a query up to DefaultAttempts times with exponential backoff
var DefaultOpts = Opts{
	Attempts:       DefaultAttempts,
	InitialBackoff: DefaultInitialBackoff,
	MaxBackoff:     DefaultMaxBackoff,
	BackoffFactor:  DefaultBackoffFactor,
	RetryableCodes: DefaultRetryableCodes,
}

// DefaultRetryableCodes are the transient conditions: the gateway or the peer it
// forwards to is unavailable or overloaded. Chaincode errors are never retried.
var DefaultRetryableCodes = map[status.Group][]status.Code{
	status.GRPCTransportStatus: {
		status.Code(grpcCodes.Unavailable),
	},
	status.EndorserServerStatus: {
		status.Code(grpcCodes.Unavailable),
		status.Code(grpcCodes.ResourceExhausted),
	},
}
