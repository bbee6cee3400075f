/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// LoadIdentity reads the certificate at certPath and returns the identity for mspID.
// certPath may be a file or a directory, in which case its first file is used.
func LoadIdentity(mspID, certPath string) (*Identity, error) {
	certPEM, err := readFirstFile(certPath)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to read certificate")
	}
	return NewIdentity(mspID, certPEM)
}

// LoadSigner reads the private key at keyPath and returns a signer for it.
// keyPath may be a file or a directory, in which case its first file is used.
func LoadSigner(keyPath string) (Signer, error) {
	keyPEM, err := readFirstFile(keyPath)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to read private key")
	}
	key, err := ParsePrivateKey(keyPEM)
	if err != nil {
		return nil, err
	}
	return NewPrivateKeySigner(key)
}

func readFirstFile(path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat failed: %s", path)
	}
	if !info.IsDir() {
		return os.ReadFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read directory failed: %s", path)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, errors.Errorf("no files in directory: %s", path)
	}
	sort.Strings(names)

	return os.ReadFile(filepath.Join(path, names[0]))
}
