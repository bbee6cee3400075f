/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/client/assets"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	flagCount       = "count"
	flagConcurrency = "concurrency"
	flagOwner       = "owner"
)

func newAssetsCmd() *cobra.Command {
	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Asset transactions",
	}

	createCmd := &cobra.Command{
		Use:   "create-many",
		Short: "Submit CreateAsset transactions concurrently, each with a unique asset ID",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			count, err := cmd.Flags().GetInt(flagCount)
			if err != nil {
				return err
			}
			concurrency, err := cmd.Flags().GetInt(flagConcurrency)
			if err != nil {
				return err
			}
			owner, err := cmd.Flags().GetString(flagOwner)
			if err != nil {
				return err
			}

			client, err := assets.New(a.contract())
			if err != nil {
				return err
			}

			start := time.Now()
			if err := client.CreateAssets(ctx, assets.NewBatch(count, owner), concurrency); err != nil {
				return errors.New(describeError(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d transactions committed successfully in %s\n", count, time.Since(start))
			return nil
		}),
	}
	createCmd.Flags().IntP(flagCount, "n", 100, "number of assets to create")
	createCmd.Flags().Int(flagConcurrency, 0, "maximum number of transactions in flight, 0 for no limit")
	createCmd.Flags().String(flagOwner, "kAMALOv", "owner of the created assets")

	assetsCmd.AddCommand(createCmd)
	return assetsCmd
}
