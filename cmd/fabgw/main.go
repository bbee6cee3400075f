/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// fabgw runs the asset-transfer sample and ledger tools against a Fabric gateway peer.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

const (
	flagConfig = "config"
)

func newMainCmd() *cobra.Command {
	mainCmd := &cobra.Command{
		Use:           "fabgw",
		Short:         "Fabric gateway client",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	mainCmd.PersistentFlags().StringP(flagConfig, "c", "config.yaml", "configuration file")

	mainCmd.AddCommand(newSampleCmd())
	mainCmd.AddCommand(newAssetsCmd())
	mainCmd.AddCommand(newBlocksCmd())
	return mainCmd
}

func main() {
	// cobra prints the error, only the exit status is left to set
	if newMainCmd().Execute() != nil {
		os.Exit(1)
	}
}
