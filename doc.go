/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package fabricgateway enables Go developers to invoke chaincode and read the ledger of a
// Hyperledger Fabric network through the Fabric Gateway service of a peer.
//
// # Packages for end developer usage
//
// pkg/gateway: Connects an identity to a gateway peer. Provides chaincode transaction evaluation,
// synchronous submission and asynchronous submission with a commit status handle.
// Reference: https://godoc.org/github.com/hyperledger/fabric-gateway-sdk-go/pkg/gateway
//
// pkg/client/ledger: Enables queries to a channel's underlying ledger and builds an ordered index
// of its transactions.
// Reference: https://godoc.org/github.com/hyperledger/fabric-gateway-sdk-go/pkg/client/ledger
//
// pkg/client/assets: Typed client of the asset-transfer-basic chaincode.
// Reference: https://godoc.org/github.com/hyperledger/fabric-gateway-sdk-go/pkg/client/assets
//
// pkg/fab/comm: Opens the gRPC connection to the gateway peer.
// Reference: https://godoc.org/github.com/hyperledger/fabric-gateway-sdk-go/pkg/fab/comm
//
// Basic workflow
//
//  1. Load the configuration, the identity and its signer
//  2. Open a connection to the gateway peer
//  3. Connect a gateway with the identity over the connection
//  4. Get the contract of a chaincode deployed on a channel and submit or evaluate transactions
//  5. Close the gateway, then the connection
package fabricgateway
