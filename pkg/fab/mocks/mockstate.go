/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"sort"
)

type versionedValue struct {
	value   []byte
	version uint64
}

// worldState is the versioned key/value state of one chaincode namespace
type worldState map[string]*versionedValue

// ChaincodeStub gives a mock chaincode access to the world state during the simulation
// of one transaction. Reads are recorded with their version and writes are buffered until commit.
type ChaincodeStub struct {
	state     worldState
	reads     map[string]uint64
	writes    map[string][]byte
	transient map[string][]byte
}

func newChaincodeStub(state worldState, transient map[string][]byte) *ChaincodeStub {
	return &ChaincodeStub{
		state:     state,
		reads:     make(map[string]uint64),
		writes:    make(map[string][]byte),
		transient: transient,
	}
}

// GetState returns the value of key, including writes made earlier in the same transaction
func (s *ChaincodeStub) GetState(key string) []byte {
	if value, ok := s.writes[key]; ok {
		return value
	}
	vv, ok := s.state[key]
	if !ok {
		s.reads[key] = 0
		return nil
	}
	s.reads[key] = vv.version
	return vv.value
}

// PutState buffers a write of key
func (s *ChaincodeStub) PutState(key string, value []byte) {
	s.writes[key] = value
}

// DelState buffers the deletion of key
func (s *ChaincodeStub) DelState(key string) {
	s.writes[key] = nil
}

// Keys returns the sorted keys visible to the transaction
func (s *ChaincodeStub) Keys() []string {
	keys := make(map[string]struct{})
	for k := range s.state {
		keys[k] = struct{}{}
	}
	for k, v := range s.writes {
		if v == nil {
			delete(keys, k)
		} else {
			keys[k] = struct{}{}
		}
	}

	var sorted []string
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)
	return sorted
}

// Transient returns the transient data passed with the proposal
func (s *ChaincodeStub) Transient() map[string][]byte {
	return s.transient
}

// valid returns false if a key read during simulation has since been modified
func (s *ChaincodeStub) valid(state worldState) bool {
	for key, version := range s.reads {
		current := uint64(0)
		if vv, ok := state[key]; ok {
			current = vv.version
		}
		if current != version {
			return false
		}
	}
	return true
}

func (s *ChaincodeStub) apply(state worldState, version uint64) {
	for key, value := range s.writes {
		if value == nil {
			delete(state, key)
			continue
		}
		state[key] = &versionedValue{value: value, version: version}
	}
}
