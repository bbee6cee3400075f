/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/client/ledger"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/client/ledger/store"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/retry"
	"github.com/spf13/cobra"
)

const (
	flagStore = "store"
	flagJSON  = "json"
)

// blocksSummary is the output of the blocks command
type blocksSummary struct {
	BlocksLength       int                        `json:"blocksLength"`
	TransactionsLength int                        `json:"transactionsLength"`
	Transactions       []ledger.TransactionRecord `json:"transactions,omitempty"`
	Blocks             []*ledger.Block            `json:"blocks,omitempty"`
}

func newBlocksCmd() *cobra.Command {
	blocksCmd := &cobra.Command{
		Use:   "blocks",
		Short: "Read every block of the channel and index its transactions",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			path, err := cmd.Flags().GetString(flagStore)
			if err != nil {
				return err
			}
			if path == "" {
				path = a.cfg.Index.Path
			}
			full, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}

			client, err := ledger.New(a.conn, a.identity, a.signer, a.cfg.Channel,
				ledger.WithDeadlinePolicy(a.policy), ledger.WithPrefetch(a.cfg.Index.Prefetch), ledger.WithRetry(retry.DefaultOpts))
			if err != nil {
				return err
			}

			return runBlocks(ctx, cmd.OutOrStdout(), client, a.cfg.Channel, path, full)
		}),
	}
	blocksCmd.Flags().String(flagStore, "", "path of the index store, overrides index.path")
	blocksCmd.Flags().Bool(flagJSON, false, "print blocks and transactions as JSON")
	return blocksCmd
}

func runBlocks(ctx context.Context, out io.Writer, client *ledger.Client, channelID, path string, full bool) error {
	blocks, err := client.BuildBlocks(ctx)
	if err != nil {
		return err
	}

	records := []ledger.TransactionRecord{}
	for _, block := range blocks {
		records = append(records, block.Transactions...)
	}

	if path != "" {
		s, err := store.Open(path)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.SaveIndex(channelID, records); err != nil {
			return err
		}
		logger.Infof("Index of channel [%s] saved to [%s]", channelID, path)
	}

	summary := blocksSummary{BlocksLength: len(blocks), TransactionsLength: len(records)}
	if !full {
		fmt.Fprintf(out, "blocks: %d, transactions: %d\n", summary.BlocksLength, summary.TransactionsLength)
		return nil
	}

	summary.Blocks = blocks
	summary.Transactions = records
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}
