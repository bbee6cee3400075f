/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package test holds helpers shared by the package tests.
package test

import (
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/logging"
)

var logger = logging.NewLogger("fabgw/test")

// Logf logs a message from a goroutine that may outlive its test, where t.Logf would panic
func Logf(template string, args ...interface{}) {
	logger.Infof(template, args...)
}
