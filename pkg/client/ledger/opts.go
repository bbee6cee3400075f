/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"hash"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/retry"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/core/deadline"
	"github.com/pkg/errors"
)

// ClientOption describes a functional parameter for the New constructor
type ClientOption func(*Client) error

// WithDeadlinePolicy sets the deadline policy. Ledger queries use the evaluate deadline.
func WithDeadlinePolicy(policy *deadline.Policy) ClientOption {
	return func(c *Client) error {
		if policy == nil {
			return errors.New("deadline policy is nil")
		}
		c.policy = policy
		return nil
	}
}

// WithPrefetch allows up to n blocks to be retrieved concurrently ahead of the block being
// indexed. Blocks are still indexed in ascending order. Zero or one disables prefetching.
func WithPrefetch(n int) ClientOption {
	return func(c *Client) error {
		if n < 0 {
			return errors.Errorf("prefetch must not be negative: %d", n)
		}
		c.prefetch = n
		return nil
	}
}

// WithHash sets the hash function used to compute transaction IDs of queries
func WithHash(newHash func() hash.Hash) ClientOption {
	return func(c *Client) error {
		if newHash == nil {
			return errors.New("hash function is nil")
		}
		c.newHash = newHash
		return nil
	}
}

// WithRetry retries queries that fail with a transient error. Each attempt has its own
// evaluate deadline.
func WithRetry(opts retry.Opts) ClientOption {
	return func(c *Client) error {
		c.retry = &opts
		return nil
	}
}
