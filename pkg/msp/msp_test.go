/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/asn1"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/util/test"
	pb_msp "github.com/hyperledger/fabric-protos-go/msp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentity(t *testing.T) {
	creds := test.NewCredentials(t, "User1@org1.example.com")

	id, err := NewIdentity("Org1MSP", creds.CertPEM)
	require.NoError(t, err)
	assert.Equal(t, "Org1MSP", id.MSPID)

	serialized, err := id.Serialize()
	require.NoError(t, err)

	sid := &pb_msp.SerializedIdentity{}
	require.NoError(t, proto.Unmarshal(serialized, sid))
	assert.Equal(t, "Org1MSP", sid.GetMspid())
	assert.Equal(t, creds.CertPEM, sid.GetIdBytes())

	_, err = NewIdentity("", creds.CertPEM)
	assert.Error(t, err)

	_, err = NewIdentity("Org1MSP", []byte("not a certificate"))
	assert.Error(t, err)
}

func TestPrivateKeySigner(t *testing.T) {
	creds := test.NewCredentials(t, "User1@org1.example.com")

	key, err := ParsePrivateKey(creds.KeyPEM)
	require.NoError(t, err)

	signer, err := NewPrivateKeySigner(key)
	require.NoError(t, err)

	message := []byte("proposal bytes")
	halfOrder := new(big.Int).Rsh(creds.PrivateKey.Curve.Params().N, 1)

	for i := 0; i < 10; i++ {
		signature, err := signer.Sign(message)
		require.NoError(t, err)

		sig := ecdsaSignature{}
		_, err = asn1.Unmarshal(signature, &sig)
		require.NoError(t, err)
		assert.True(t, sig.S.Cmp(halfOrder) <= 0, "expected low S signature")

		digest := sha256.Sum256(message)
		assert.True(t, ecdsa.Verify(&creds.PrivateKey.PublicKey, digest[:], sig.R, sig.S))
	}

	_, err = NewPrivateKeySigner("not a key")
	assert.Error(t, err)
}

func TestLoadFromKeystoreDirectory(t *testing.T) {
	creds := test.NewCredentials(t, "User1@org1.example.com")

	dir := t.TempDir()
	certDir := filepath.Join(dir, "signcerts")
	keyDir := filepath.Join(dir, "keystore")
	require.NoError(t, os.MkdirAll(certDir, 0700))
	require.NoError(t, os.MkdirAll(keyDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(certDir, "cert.pem"), creds.CertPEM, 0600))
	require.NoError(t, os.WriteFile(filepath.Join(keyDir, "priv_sk"), creds.KeyPEM, 0600))

	id, err := LoadIdentity("Org1MSP", certDir)
	require.NoError(t, err)
	assert.Equal(t, creds.CertPEM, id.Credentials)

	signer, err := LoadSigner(keyDir)
	require.NoError(t, err)
	_, err = signer.Sign([]byte("message"))
	require.NoError(t, err)

	signer, err = LoadSigner(filepath.Join(keyDir, "priv_sk"))
	require.NoError(t, err)
	assert.NotNil(t, signer)
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadIdentity("Org1MSP", "")
	assert.Error(t, err)

	_, err = LoadIdentity("Org1MSP", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	_, err = LoadSigner(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files in directory")

	keyFile := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(keyFile, []byte("garbage"), 0600))
	_, err = LoadSigner(keyFile)
	assert.Error(t, err)
}
