/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package options implements setter-based options. An option applies to any Params
// implementing the matching setter interface and is ignored by the others, so one
// option set can be shared by several consumers.
package options

import "github.com/pkg/errors"

// Params represents a construct that holds
// a set of parameters
type Params interface{}

// Opt is an option that is applied to Params. An error rejects the value.
type Opt func(opts Params) error

// Apply applies the given options in order and stops at the first rejected value
func Apply(params Params, opts []Opt) error {
	for i, opt := range opts {
		if opt == nil {
			return errors.Errorf("option %d is nil", i)
		}
		if err := opt(params); err != nil {
			return err
		}
	}
	return nil
}
