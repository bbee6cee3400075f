/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"testing"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/msp"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/util/test"
	"github.com/stretchr/testify/require"
)

// NewMockIdentity returns an Org1MSP identity with a freshly generated certificate and its signer
func NewMockIdentity(t testing.TB) (*msp.Identity, msp.Signer) {
	creds := test.NewCredentials(t, "User1@org1.example.com")

	id, err := msp.NewIdentity("Org1MSP", creds.CertPEM)
	require.NoError(t, err)

	signer, err := msp.NewPrivateKeySigner(creds.PrivateKey)
	require.NoError(t, err)

	return id, signer
}
