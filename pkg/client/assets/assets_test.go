/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package assets

import (
	"context"
	"testing"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/status"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/fab/mocks"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/gateway"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*mocks.MockGatewayServer, *Client) {
	server := mocks.NewMockGatewayServer("mychannel")
	server.Start()
	t.Cleanup(server.Stop)

	conn, err := server.Connect(context.Background())
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	id, signer := mocks.NewMockIdentity(t)
	gw, err := gateway.Connect(conn, id, signer)
	require.NoError(t, err)
	t.Cleanup(gw.Close)

	client, err := New(gw.GetNetwork("mychannel").GetContract("basic"))
	require.NoError(t, err)

	return server, client
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestInitLedgerAndGetAllAssets(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	assets, err := client.GetAllAssets(ctx)
	require.NoError(t, err)
	assert.NotNil(t, assets)
	assert.Empty(t, assets)

	require.NoError(t, client.InitLedger(ctx))

	assets, err = client.GetAllAssets(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 6)
	assert.Equal(t, Asset{ID: "asset1", Color: "blue", Size: 5, Owner: "Tomoko", AppraisedValue: 300}, assets[0])
}

func TestCreateAndReadAsset(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	asset := Asset{ID: "asset100", Color: "yellow", Size: 5, Owner: "Tom", AppraisedValue: 1300}
	require.NoError(t, client.CreateAsset(ctx, asset))

	read, err := client.ReadAsset(ctx, "asset100")
	require.NoError(t, err)
	assert.Equal(t, asset, *read)

	exists, err := client.AssetExists(ctx, "asset100")
	require.NoError(t, err)
	assert.True(t, exists)

	err = client.CreateAsset(ctx, asset)
	var ccErr *status.ChaincodeError
	require.True(t, errors.As(err, &ccErr), "expected ChaincodeError, got %v", err)
	assert.Equal(t, "the asset asset100 already exists", ccErr.Message)
}

func TestUpdateAndDeleteAsset(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.InitLedger(ctx))

	updated := Asset{ID: "asset2", Color: "purple", Size: 7, Owner: "Brad", AppraisedValue: 450}
	require.NoError(t, client.UpdateAsset(ctx, updated))

	read, err := client.ReadAsset(ctx, "asset2")
	require.NoError(t, err)
	assert.Equal(t, updated, *read)

	require.NoError(t, client.DeleteAsset(ctx, "asset2"))

	exists, err := client.AssetExists(ctx, "asset2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdateMissingAsset(t *testing.T) {
	server, client := newTestClient(t)

	err := client.UpdateAsset(context.Background(), Asset{ID: "asset70", Color: "blue", Size: 5, Owner: "Tomoko", AppraisedValue: 300})
	require.Error(t, err)

	var ccErr *status.ChaincodeError
	require.True(t, errors.As(err, &ccErr), "expected ChaincodeError, got %v", err)
	assert.Equal(t, int32(500), ccErr.Status)
	assert.Equal(t, "the asset asset70 does not exist", ccErr.Message)

	assert.Equal(t, 0, server.Calls(mocks.SubmitRPC))
	assert.Zero(t, server.Ledger.Height())
}

func TestReadMissingAsset(t *testing.T) {
	_, client := newTestClient(t)

	_, err := client.ReadAsset(context.Background(), "asset70")
	var ccErr *status.ChaincodeError
	require.True(t, errors.As(err, &ccErr), "expected ChaincodeError, got %v", err)
}

func TestTransferAsset(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.InitLedger(ctx))

	oldOwner, err := client.TransferAsset(ctx, "asset3", "Saptha")
	require.NoError(t, err)
	assert.Equal(t, "Jin Soo", oldOwner)

	read, err := client.ReadAsset(ctx, "asset3")
	require.NoError(t, err)
	assert.Equal(t, "Saptha", read.Owner)
}

func TestTransferAssetAsync(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.InitLedger(ctx))

	commit, err := client.TransferAssetAsync(ctx, "asset1", "Saptha")
	require.NoError(t, err)
	assert.Equal(t, "Tomoko", string(commit.Result()))

	st, err := commit.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Successful)
	assert.Equal(t, pb.TxValidationCode_VALID, st.Code)

	read, err := client.ReadAsset(ctx, "asset1")
	require.NoError(t, err)
	assert.Equal(t, "Saptha", read.Owner)
}

func TestCreateAssets(t *testing.T) {
	server, client := newTestClient(t)
	ctx := context.Background()

	batch := NewBatch(20, "kAMALOv")
	require.NoError(t, client.CreateAssets(ctx, batch, 5))

	assets, err := client.GetAllAssets(ctx)
	require.NoError(t, err)
	assert.Len(t, assets, 20)
	assert.Equal(t, uint64(20), server.Ledger.Height())
}

func TestCreateAssetsFailure(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.InitLedger(ctx))

	batch := NewBatch(3, "kAMALOv")
	batch[1].ID = "asset1"

	err := client.CreateAssets(ctx, batch, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create asset [asset1]")

	var ccErr *status.ChaincodeError
	assert.True(t, errors.As(err, &ccErr))
}

func TestNewBatch(t *testing.T) {
	batch := NewBatch(3, "owner")
	require.Len(t, batch, 3)

	ids := map[string]bool{}
	for i, asset := range batch {
		assert.Equal(t, 100+i, asset.Size)
		assert.Equal(t, 1300+i, asset.AppraisedValue)
		assert.Equal(t, "owner", asset.Owner)
		ids[asset.ID] = true
	}
	assert.Len(t, ids, 3)
}
