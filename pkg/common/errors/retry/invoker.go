/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"context"
	"time"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/logging"
)

var logger = logging.NewLogger("fabgw/core")

// Invocation is the function to be invoked.
type Invocation func() (interface{}, error)

// BeforeRetryHandler is a function that's invoked before
// a retry attempt.
type BeforeRetryHandler func(error)

// RetryableInvoker manages invocations that could return
// errors and retries the invocation on transient errors.
type RetryableInvoker struct {
	handler     Handler
	beforeRetry BeforeRetryHandler
}

// InvokerOpt is an invoker option
type InvokerOpt func(invoker *RetryableInvoker)

// WithBeforeRetry specifies a function to call before a retry attempt
func WithBeforeRetry(beforeRetry BeforeRetryHandler) InvokerOpt {
	return func(invoker *RetryableInvoker) {
		invoker.beforeRetry = beforeRetry
	}
}

// NewInvoker creates a new RetryableInvoker
func NewInvoker(handler Handler, opts ...InvokerOpt) *RetryableInvoker {
	invoker := &RetryableInvoker{
		handler: handler,
	}
	for _, opt := range opts {
		opt(invoker)
	}
	return invoker
}

// Invoke calls invocation until it succeeds or the handler declines to retry, and
// returns the result of the last call. Waiting between attempts stops when ctx is done,
// in which case the last error is returned.
func (ri *RetryableInvoker) Invoke(ctx context.Context, invocation Invocation) (interface{}, error) {
	for attempt := 1; ; attempt++ {
		retval, err := invocation()
		if err == nil {
			if attempt > 1 {
				logger.Debugf("Succeeded on attempt #%d", attempt)
			}
			return retval, nil
		}

		backoff, ok := ri.handler.Required(err)
		if !ok {
			logger.Debugf("Giving up after %d attempt(s): %s", attempt, err)
			return nil, err
		}

		logger.Debugf("Attempt #%d failed, retrying in %s: %s", attempt, backoff, err)
		if ri.beforeRetry != nil {
			ri.beforeRetry(err)
		}

		if !sleep(ctx, backoff) {
			return nil, err
		}
	}
}

// sleep waits for d and returns false if ctx is done first
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
