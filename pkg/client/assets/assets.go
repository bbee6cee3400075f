/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package assets is a typed client of the asset-transfer-basic chaincode.
//
//	Basic Flow:
//	1) Connect a gateway and get the contract of the chaincode
//	2) Create assets client
//	3) Create, read, update and transfer assets
package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/logging"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/gateway"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var logger = logging.NewLogger("fabgw/assets")

// Asset is an asset as stored by the chaincode
type Asset struct {
	ID             string `json:"ID"`
	Color          string `json:"Color"`
	Size           int    `json:"Size"`
	Owner          string `json:"Owner"`
	AppraisedValue int    `json:"AppraisedValue"`
}

func (a Asset) args() []string {
	return []string{a.ID, a.Color, strconv.Itoa(a.Size), a.Owner, strconv.Itoa(a.AppraisedValue)}
}

// Client invokes the asset transactions of a contract
type Client struct {
	contract *gateway.Contract
}

// New returns an assets client for the given contract
func New(contract *gateway.Contract) (*Client, error) {
	if contract == nil {
		return nil, errors.New("contract is required")
	}
	return &Client{contract: contract}, nil
}

// InitLedger creates the initial set of assets
func (c *Client) InitLedger(ctx context.Context) error {
	_, err := c.contract.SubmitTransaction(ctx, "InitLedger")
	return err
}

// GetAllAssets returns all the current assets
func (c *Client) GetAllAssets(ctx context.Context) ([]Asset, error) {
	result, err := c.contract.EvaluateTransaction(ctx, "GetAllAssets")
	if err != nil {
		return nil, err
	}

	assets := []Asset{}
	if len(result) == 0 {
		return assets, nil
	}
	if err := json.Unmarshal(result, &assets); err != nil {
		return nil, errors.Wrap(err, "unmarshal of assets failed")
	}
	return assets, nil
}

// CreateAsset creates a new asset
func (c *Client) CreateAsset(ctx context.Context, asset Asset) error {
	_, err := c.contract.SubmitTransaction(ctx, "CreateAsset", asset.args()...)
	return err
}

// ReadAsset returns the asset with the given ID
func (c *Client) ReadAsset(ctx context.Context, id string) (*Asset, error) {
	result, err := c.contract.EvaluateTransaction(ctx, "ReadAsset", id)
	if err != nil {
		return nil, err
	}

	asset := &Asset{}
	if err := json.Unmarshal(result, asset); err != nil {
		return nil, errors.Wrapf(err, "unmarshal of asset [%s] failed", id)
	}
	return asset, nil
}

// UpdateAsset replaces an existing asset
func (c *Client) UpdateAsset(ctx context.Context, asset Asset) error {
	_, err := c.contract.SubmitTransaction(ctx, "UpdateAsset", asset.args()...)
	return err
}

// DeleteAsset deletes an existing asset
func (c *Client) DeleteAsset(ctx context.Context, id string) error {
	_, err := c.contract.SubmitTransaction(ctx, "DeleteAsset", id)
	return err
}

// AssetExists returns true if an asset with the given ID exists
func (c *Client) AssetExists(ctx context.Context, id string) (bool, error) {
	result, err := c.contract.EvaluateTransaction(ctx, "AssetExists", id)
	if err != nil {
		return false, err
	}

	exists, err := strconv.ParseBool(string(result))
	if err != nil {
		return false, errors.Wrapf(err, "invalid AssetExists result [%s]", result)
	}
	return exists, nil
}

// TransferAsset changes the owner of an asset and returns the previous owner
func (c *Client) TransferAsset(ctx context.Context, id, newOwner string) (string, error) {
	result, err := c.contract.SubmitTransaction(ctx, "TransferAsset", id, newOwner)
	if err != nil {
		return "", err
	}
	return string(result), nil
}

// TransferAssetAsync submits a change of owner without waiting for it to commit. The previous
// owner is available from the result of the returned commit.
func (c *Client) TransferAssetAsync(ctx context.Context, id, newOwner string) (*gateway.Commit, error) {
	return c.contract.SubmitAsync(ctx, "TransferAsset", id, newOwner)
}

// CreateAssets submits a CreateAsset transaction for each asset, with at most concurrency
// transactions in flight. The first failure cancels the transactions not yet submitted.
func (c *Client) CreateAssets(ctx context.Context, assets []Asset, concurrency int) error {
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for _, asset := range assets {
		asset := asset
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return errors.WithMessagef(c.CreateAsset(gctx, asset), "failed to create asset [%s]", asset.ID)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Infof("%d assets created", len(assets))
	return nil
}

// NewBatch returns n assets with unique IDs, owned by owner
func NewBatch(n int, owner string) []Asset {
	assets := make([]Asset, n)
	for i := range assets {
		assets[i] = Asset{
			ID:             fmt.Sprintf("asset%d-%s", i, uuid.NewString()),
			Color:          "white",
			Size:           100 + i,
			Owner:          owner,
			AppraisedValue: 1300 + i,
		}
	}
	return assets
}
