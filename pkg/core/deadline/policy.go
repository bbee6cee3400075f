/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package deadline maps each kind of remote operation to a timeout budget and
// computes the absolute deadline attached to every call.
package deadline

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/core/config"
)

// Kind is the kind of remote operation
type Kind int

const (
	// Evaluate is a read-only query
	Evaluate Kind = iota
	// Endorse is the endorsement of a proposal
	Endorse
	// Submit sends an endorsed transaction to the ordering service
	Submit
	// CommitStatus waits for the commit status of a submitted transaction
	CommitStatus
)

var kindNames = map[Kind]string{
	Evaluate:     "evaluate",
	Endorse:      "endorse",
	Submit:       "submit",
	CommitStatus: "commitStatus",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Default timeouts
const (
	DefaultEvaluateTimeout     = 5 * time.Second
	DefaultEndorseTimeout      = 15 * time.Second
	DefaultSubmitTimeout       = 5 * time.Second
	DefaultCommitStatusTimeout = time.Minute
)

// Policy holds the timeout of each operation kind. A Policy is immutable once created
// and safe for concurrent use.
type Policy struct {
	timeouts map[Kind]time.Duration
	now      func() time.Time
}

// Option configures a Policy
type Option func(p *Policy)

// WithTimeout sets the timeout for the given kind. Non-positive values are ignored.
func WithTimeout(kind Kind, timeout time.Duration) Option {
	return func(p *Policy) {
		if timeout > 0 {
			p.timeouts[kind] = timeout
		}
	}
}

// WithClock replaces the clock used to compute deadlines
func WithClock(now func() time.Time) Option {
	return func(p *Policy) {
		p.now = now
	}
}

// New returns a policy with default timeouts overridden by the given options
func New(opts ...Option) *Policy {
	p := &Policy{
		timeouts: map[Kind]time.Duration{
			Evaluate:     DefaultEvaluateTimeout,
			Endorse:      DefaultEndorseTimeout,
			Submit:       DefaultSubmitTimeout,
			CommitStatus: DefaultCommitStatusTimeout,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromConfig returns a policy built from the deadlines section of the configuration
func FromConfig(cfg config.DeadlinesConfig, opts ...Option) *Policy {
	opts = append([]Option{
		WithTimeout(Evaluate, cfg.Evaluate),
		WithTimeout(Endorse, cfg.Endorse),
		WithTimeout(Submit, cfg.Submit),
		WithTimeout(CommitStatus, cfg.CommitStatus),
	}, opts...)
	return New(opts...)
}

// Timeout returns the timeout budget for the given kind
func (p *Policy) Timeout(kind Kind) time.Duration {
	return p.timeouts[kind]
}

// Deadline returns now plus the timeout budget for the given kind
func (p *Policy) Deadline(kind Kind) time.Time {
	return p.now().Add(p.timeouts[kind])
}

// Context returns a child of parent carrying the deadline for the given kind.
// The earlier of the parent deadline and the policy deadline applies.
func (p *Policy) Context(parent context.Context, kind Kind) (context.Context, context.CancelFunc) {
	return context.WithDeadline(parent, p.Deadline(kind))
}
