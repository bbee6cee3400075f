/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package retry provides retransmission of gateway queries on transient errors.
// It is used in conjunction with the WithRetry option of the ledger client:
// https://godoc.org/github.com/hyperledger/fabric-gateway-sdk-go/pkg/client/ledger#WithRetry
//
// Transactions that submit to the ledger are never retried by the SDK since a
// submit that failed in flight may still commit.
package retry

import (
	"time"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/status"
)

// Opts defines the retry parameters
type Opts struct {
	// Attempts the number retry attempts
	Attempts int
	// InitialBackoff the backoff interval for the first retry attempt
	InitialBackoff time.Duration
	// MaxBackoff the maximum backoff interval for any retry attempt
	MaxBackoff time.Duration
	// BackoffFactor the factor by which the InitialBackoff is exponentially
	// incremented for consecutive retry attempts.
	// For example, a backoff factor of 2.5 will result in a backoff of
	// InitialBackoff * 2.5 * 2.5 on the second attempt.
	BackoffFactor float64
	// RetryableCodes defines the status codes, mapped by group, that warrant a retry.
	// This will default to retry.DefaultRetryableCodes.
	RetryableCodes map[status.Group][]status.Code
}

// Handler decides whether a retry is required for the given error and how long
// to wait before it
type Handler interface {
	Required(err error) (time.Duration, bool)
}

// backoffHandler counts retries and grows the backoff exponentially.
// It is not safe for concurrent use: create one per invocation.
type backoffHandler struct {
	opts    Opts
	retries int
}

// New retry Handler with the given opts
func New(opts Opts) Handler {
	if len(opts.RetryableCodes) == 0 {
		opts.RetryableCodes = DefaultRetryableCodes
	}
	return &backoffHandler{opts: opts}
}

// WithDefaults new retry Handler with default opts
func WithDefaults() Handler {
	return &backoffHandler{opts: DefaultOpts}
}

// WithAttempts new retry Handler with given attempts. Other opts are set to default.
func WithAttempts(attempts int) Handler {
	opts := DefaultOpts
	opts.Attempts = attempts
	return &backoffHandler{opts: opts}
}

// Required returns the wait before the next attempt, or false once the attempts
// are exhausted or the error carries no retryable status
func (i *backoffHandler) Required(err error) (time.Duration, bool) {
	if i.retries >= i.opts.Attempts {
		return 0, false
	}

	s, ok := status.FromError(err)
	if !ok || !i.isRetryable(s.Group, s.Code) {
		return 0, false
	}

	backoff := i.backoffPeriod()
	i.retries++
	return backoff, true
}

// backoffPeriod is InitialBackoff * BackoffFactor^retries, capped at MaxBackoff
func (i *backoffHandler) backoffPeriod() time.Duration {
	backoff, max := float64(i.opts.InitialBackoff), float64(i.opts.MaxBackoff)
	for j := 0; j < i.retries && backoff < max; j++ {
		backoff *= i.opts.BackoffFactor
	}
	if backoff > max {
		backoff = max
	}

	return time.Duration(backoff)
}

// isRetryable reports whether the code is listed for the group
func (i *backoffHandler) isRetryable(g status.Group, c int32) bool {
	for _, code := range i.opts.RetryableCodes[g] {
		if status.Code(c) == code {
			return true
		}
	}
	return false
}
