/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Chaincode is a mock chaincode invoked by the mock gateway. A returned error is reported
// to the client as a chaincode response with status 500.
type Chaincode func(stub *ChaincodeStub, fcn string, args []string) ([]byte, error)

type mockAsset struct {
	ID             string `json:"ID"`
	Color          string `json:"Color"`
	Size           int    `json:"Size"`
	Owner          string `json:"Owner"`
	AppraisedValue int    `json:"AppraisedValue"`
}

// AssetTransferChaincode is an in-memory rendition of the asset-transfer-basic sample chaincode
func AssetTransferChaincode(stub *ChaincodeStub, fcn string, args []string) ([]byte, error) {
	switch fcn {
	case "InitLedger":
		return initLedger(stub)
	case "CreateAsset":
		if err := checkArgs(fcn, args, 5); err != nil {
			return nil, err
		}
		return createAsset(stub, args)
	case "ReadAsset":
		if err := checkArgs(fcn, args, 1); err != nil {
			return nil, err
		}
		return readAsset(stub, args[0])
	case "UpdateAsset":
		if err := checkArgs(fcn, args, 5); err != nil {
			return nil, err
		}
		return updateAsset(stub, args)
	case "DeleteAsset":
		if err := checkArgs(fcn, args, 1); err != nil {
			return nil, err
		}
		if stub.GetState(args[0]) == nil {
			return nil, fmt.Errorf("the asset %s does not exist", args[0])
		}
		stub.DelState(args[0])
		return nil, nil
	case "AssetExists":
		if err := checkArgs(fcn, args, 1); err != nil {
			return nil, err
		}
		return []byte(strconv.FormatBool(stub.GetState(args[0]) != nil)), nil
	case "TransferAsset":
		if err := checkArgs(fcn, args, 2); err != nil {
			return nil, err
		}
		return transferAsset(stub, args[0], args[1])
	case "GetAllAssets":
		return getAllAssets(stub)
	default:
		return nil, fmt.Errorf("function %s not found", fcn)
	}
}

func checkArgs(fcn string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("incorrect number of arguments for %s: expected %d, got %d", fcn, n, len(args))
	}
	return nil
}

func initLedger(stub *ChaincodeStub) ([]byte, error) {
	assets := []mockAsset{
		{ID: "asset1", Color: "blue", Size: 5, Owner: "Tomoko", AppraisedValue: 300},
		{ID: "asset2", Color: "red", Size: 5, Owner: "Brad", AppraisedValue: 400},
		{ID: "asset3", Color: "green", Size: 10, Owner: "Jin Soo", AppraisedValue: 500},
		{ID: "asset4", Color: "yellow", Size: 10, Owner: "Max", AppraisedValue: 600},
		{ID: "asset5", Color: "black", Size: 15, Owner: "Adriana", AppraisedValue: 700},
		{ID: "asset6", Color: "white", Size: 15, Owner: "Michel", AppraisedValue: 800},
	}
	for _, asset := range assets {
		if err := putAsset(stub, asset); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func parseAsset(args []string) (mockAsset, error) {
	size, err := strconv.Atoi(args[2])
	if err != nil {
		return mockAsset{}, fmt.Errorf("invalid size %s", args[2])
	}
	value, err := strconv.Atoi(args[4])
	if err != nil {
		return mockAsset{}, fmt.Errorf("invalid appraised value %s", args[4])
	}
	return mockAsset{ID: args[0], Color: args[1], Size: size, Owner: args[3], AppraisedValue: value}, nil
}

func createAsset(stub *ChaincodeStub, args []string) ([]byte, error) {
	if stub.GetState(args[0]) != nil {
		return nil, fmt.Errorf("the asset %s already exists", args[0])
	}
	asset, err := parseAsset(args)
	if err != nil {
		return nil, err
	}
	return nil, putAsset(stub, asset)
}

func updateAsset(stub *ChaincodeStub, args []string) ([]byte, error) {
	if stub.GetState(args[0]) == nil {
		return nil, fmt.Errorf("the asset %s does not exist", args[0])
	}
	asset, err := parseAsset(args)
	if err != nil {
		return nil, err
	}
	return nil, putAsset(stub, asset)
}

func readAsset(stub *ChaincodeStub, id string) ([]byte, error) {
	value := stub.GetState(id)
	if value == nil {
		return nil, fmt.Errorf("the asset %s does not exist", id)
	}
	return value, nil
}

func transferAsset(stub *ChaincodeStub, id, newOwner string) ([]byte, error) {
	value, err := readAsset(stub, id)
	if err != nil {
		return nil, err
	}
	var asset mockAsset
	if err := json.Unmarshal(value, &asset); err != nil {
		return nil, err
	}
	oldOwner := asset.Owner
	asset.Owner = newOwner
	if err := putAsset(stub, asset); err != nil {
		return nil, err
	}
	return []byte(oldOwner), nil
}

func getAllAssets(stub *ChaincodeStub) ([]byte, error) {
	assets := []json.RawMessage{}
	for _, key := range stub.Keys() {
		assets = append(assets, stub.GetState(key))
	}
	return json.Marshal(assets)
}

func putAsset(stub *ChaincodeStub, asset mockAsset) error {
	value, err := json.Marshal(asset)
	if err != nil {
		return err
	}
	stub.PutState(asset.ID, value)
	return nil
}
