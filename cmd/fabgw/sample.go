/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/client/assets"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/common/errors/status"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newSampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Run the asset-transfer-basic sample flow",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			client, err := assets.New(a.contract())
			if err != nil {
				return err
			}
			return runSample(ctx, cmd.OutOrStdout(), client, fmt.Sprintf("asset%d", time.Now().UnixNano()/int64(time.Millisecond)))
		}),
	}
}

// runSample initialises the ledger, creates and transfers an asset, then shows the error
// returned for an update of a missing asset
func runSample(ctx context.Context, out io.Writer, client *assets.Client, assetID string) error {
	fmt.Fprintln(out, "\n--> Submit Transaction: InitLedger, function creates the initial set of assets on the ledger")
	if err := client.InitLedger(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "*** Transaction committed successfully")

	fmt.Fprintln(out, "\n--> Evaluate Transaction: GetAllAssets, function returns all the current assets on the ledger")
	all, err := client.GetAllAssets(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "*** Result: %+v\n", all)

	fmt.Fprintln(out, "\n--> Submit Transaction: CreateAsset, creates new asset with ID, Color, Size, Owner and AppraisedValue arguments")
	if err := client.CreateAsset(ctx, assets.Asset{ID: assetID, Color: "yellow", Size: 5, Owner: "Tom", AppraisedValue: 1300}); err != nil {
		return err
	}
	fmt.Fprintln(out, "*** Transaction committed successfully")

	fmt.Fprintln(out, "\n--> Async Submit Transaction: TransferAsset, updates existing asset owner")
	commit, err := client.TransferAssetAsync(ctx, assetID, "Saptha")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "*** Successfully submitted transaction to transfer ownership from %s to Saptha\n", commit.Result())
	fmt.Fprintln(out, "*** Waiting for transaction commit")

	st, err := commit.Status(ctx)
	if err != nil {
		return err
	}
	if !st.Successful {
		return &status.CommitError{TransactionID: st.TransactionID, Code: st.Code}
	}
	fmt.Fprintln(out, "*** Transaction committed successfully")

	fmt.Fprintln(out, "\n--> Evaluate Transaction: ReadAsset, function returns asset attributes")
	asset, err := client.ReadAsset(ctx, assetID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "*** Result: %+v\n", *asset)

	fmt.Fprintln(out, "\n--> Submit Transaction: UpdateAsset asset70, asset70 does not exist and should return an error")
	err = client.UpdateAsset(ctx, assets.Asset{ID: "asset70", Color: "blue", Size: 5, Owner: "Tomoko", AppraisedValue: 300})
	if err == nil {
		return errors.New("UpdateAsset of a missing asset did not return an error")
	}
	fmt.Fprintf(out, "*** Successfully caught the error: %s\n", describeError(err))

	return nil
}

// describeError reports the category of a transaction error
func describeError(err error) string {
	var (
		ccErr       *status.ChaincodeError
		endorseErr  *status.EndorsementError
		submitErr   *status.SubmitError
		commitErr   *status.CommitError
		deadlineErr *status.DeadlineExceededError
	)
	switch {
	case errors.As(err, &ccErr):
		return fmt.Sprintf("chaincode error for transaction [%s]: status %d, %s", ccErr.TransactionID, ccErr.Status, ccErr.Message)
	case errors.As(err, &endorseErr):
		details := ""
		for _, d := range endorseErr.Status.ErrorDetails() {
			details += fmt.Sprintf("\n    %s (%s): %s", d.GetAddress(), d.GetMspId(), d.GetMessage())
		}
		return fmt.Sprintf("endorse error for transaction [%s]: %s%s", endorseErr.TransactionID, endorseErr.Status.Message, details)
	case errors.As(err, &submitErr):
		return fmt.Sprintf("submit error for transaction [%s]: %s", submitErr.TransactionID, submitErr.Status.Message)
	case errors.As(err, &commitErr):
		return fmt.Sprintf("transaction [%s] failed to commit with status code %d", commitErr.TransactionID, int32(commitErr.Code))
	case errors.As(err, &deadlineErr):
		return fmt.Sprintf("%s deadline exceeded for transaction [%s]", deadlineErr.Operation, deadlineErr.TransactionID)
	default:
		return err.Error()
	}
}
