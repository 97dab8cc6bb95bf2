// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package arbutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ReceiptPollInterval is how often WaitForReceipt asks the client for a receipt.
var ReceiptPollInterval = time.Second

// GetReceipt returns the receipt of txHash, or nil if the client has none yet.
func GetReceipt(ctx context.Context, client ChainClient, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := client.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// WaitForReceipt polls until txHash has a receipt buried under at least confirmations blocks
// (the receipt's own block counts as one). Running out of timeout returns an ErrNotFound error.
// A zero timeout waits until ctx is done.
func WaitForReceipt(ctx context.Context, client ChainClient, txHash common.Hash, confirmations uint64, timeout time.Duration) (*types.Receipt, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ticker := time.NewTicker(ReceiptPollInterval)
	defer ticker.Stop()
	for {
		receipt, err := GetReceipt(ctx, client, txHash)
		if err != nil && ctx.Err() == nil {
			return nil, err
		}
		if receipt != nil {
			confirmed, err := hasConfirmations(ctx, client, receipt, confirmations)
			if err != nil && ctx.Err() == nil {
				return nil, err
			}
			if confirmed {
				return receipt, nil
			}
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: receipt of %v after %v", ErrNotFound, txHash, timeout)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func hasConfirmations(ctx context.Context, client ChainClient, receipt *types.Receipt, confirmations uint64) (bool, error) {
	if confirmations <= 1 {
		return true, nil
	}
	latest, err := client.BlockNumber(ctx)
	if err != nil {
		return false, err
	}
	mined := receipt.BlockNumber.Uint64()
	return latest >= mined && latest-mined+1 >= confirmations, nil
}

// WaitForTx waits for tx to be mined and returns an error carrying the revert reason if it failed.
func WaitForTx(ctx context.Context, client ChainClient, tx *types.Transaction, from common.Address, timeout time.Duration) (*types.Receipt, error) {
	receipt, err := WaitForReceipt(ctx, client, tx.Hash(), 1, timeout)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, DetailTxError(ctx, client, tx, from, receipt)
	}
	return receipt, nil
}
