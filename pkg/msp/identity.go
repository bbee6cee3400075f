/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package msp provides the client identity: an MSP ID with its X.509 certificate
// and a signer holding the matching private key.
package msp

import (
	"crypto/x509"
	"encoding/pem"

	"github.com/golang/protobuf/proto"
	pb_msp "github.com/hyperledger/fabric-protos-go/msp"
	"github.com/pkg/errors"
)

// Identity is the identity of the client: an MSP ID and a PEM encoded certificate
type Identity struct {
	MSPID       string
	Credentials []byte
}

// NewIdentity returns an identity for the given MSP ID and PEM certificate
func NewIdentity(mspID string, certificatePEM []byte) (*Identity, error) {
	if mspID == "" {
		return nil, errors.New("MSP ID is required")
	}
	if _, err := ParseCertificate(certificatePEM); err != nil {
		return nil, err
	}
	return &Identity{MSPID: mspID, Credentials: certificatePEM}, nil
}

// Serialize returns the serialized identity used as the creator of proposals
func (i *Identity) Serialize() ([]byte, error) {
	serializedIdentity := &pb_msp.SerializedIdentity{Mspid: i.MSPID, IdBytes: i.Credentials}
	identity, err := proto.Marshal(serializedIdentity)
	if err != nil {
		return nil, errors.Wrap(err, "marshal serializedIdentity failed")
	}
	return identity, nil
}

// ParseCertificate decodes the first PEM block of the given bytes as an X.509 certificate
func ParseCertificate(certificatePEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certificatePEM)
	if block == nil {
		return nil, errors.New("no PEM block found in certificate")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse certificate")
	}
	return cert, nil
}
