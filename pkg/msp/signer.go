/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"math/big"

	"github.com/pkg/errors"
)

// Signer signs messages with the private key of the client identity
type Signer interface {
	Sign(message []byte) ([]byte, error)
}

// SignerFunc adapts a function to the Signer interface
type SignerFunc func(message []byte) ([]byte, error)

// Sign calls f(message)
func (f SignerFunc) Sign(message []byte) ([]byte, error) {
	return f(message)
}

type ecdsaSignature struct {
	R, S *big.Int
}

type ecdsaSigner struct {
	key *ecdsa.PrivateKey
}

// NewPrivateKeySigner returns a signer for an ECDSA or Ed25519 private key
func NewPrivateKeySigner(key interface{}) (Signer, error) {
	switch k := key.(type) {
	case *ecdsa.PrivateKey:
		return &ecdsaSigner{key: k}, nil
	case ed25519.PrivateKey:
		return SignerFunc(func(message []byte) ([]byte, error) {
			return ed25519.Sign(k, message), nil
		}), nil
	default:
		return nil, errors.Errorf("unsupported private key type: %T", key)
	}
}

// Sign computes the SHA-256 digest of message and signs it. The signature uses a
// low S value since peers reject high S signatures.
func (s *ecdsaSigner) Sign(message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	r, sv, err := ecdsa.Sign(rand.Reader, s.key, digest[:])
	if err != nil {
		return nil, errors.Wrap(err, "ECDSA signing failed")
	}
	sv = toLowS(s.key.Curve, sv)
	return asn1.Marshal(ecdsaSignature{R: r, S: sv})
}

func toLowS(curve elliptic.Curve, s *big.Int) *big.Int {
	halfOrder := new(big.Int).Rsh(curve.Params().N, 1)
	if s.Cmp(halfOrder) > 0 {
		return new(big.Int).Sub(curve.Params().N, s)
	}
	return s
}

// ParsePrivateKey decodes a PEM encoded PKCS#8 or SEC 1 private key
func ParsePrivateKey(keyPEM []byte) (interface{}, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, errors.New("no PEM block found in private key")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	return nil, errors.New("failed to parse private key: unsupported format")
}
