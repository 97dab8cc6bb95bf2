// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l1tol2

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/contracts"
)

// RedeemTransaction is a sent manual redeem.
type RedeemTransaction struct {
	*types.Transaction
	l2Client arbutil.ChainClient
	from     common.Address
}

// RedeemScheduledEvents returns the RedeemScheduled events in receipt.
func RedeemScheduledEvents(receipt *types.Receipt) ([]*contracts.RedeemScheduled, error) {
	var events []*contracts.RedeemScheduled
	for _, l := range receipt.Logs {
		if l.Address != contracts.ArbRetryableTxAddress || len(l.Topics) == 0 || l.Topics[0] != contracts.RedeemScheduledID {
			continue
		}
		ev, err := contracts.ParseRedeemScheduled(*l)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// WaitForRedeem waits for the redeem to be mined and returns the receipt of the retry transaction
// it scheduled.
func (r *RedeemTransaction) WaitForRedeem(ctx context.Context, timeout time.Duration) (*types.Receipt, error) {
	receipt, err := arbutil.WaitForTx(ctx, r.l2Client, r.Transaction, r.from, timeout)
	if err != nil {
		return nil, err
	}
	events, err := RedeemScheduledEvents(receipt)
	if err != nil {
		return nil, err
	}
	if len(events) != 1 {
		return nil, fmt.Errorf("transaction %v is not a redeem: %d redeems scheduled", r.Hash(), len(events))
	}
	retryReceipt, err := arbutil.GetReceipt(ctx, r.l2Client, events[0].RetryTxHash)
	if err != nil {
		return nil, err
	}
	if retryReceipt == nil {
		return nil, fmt.Errorf("%w: receipt of retry %v", arbutil.ErrNotFound, events[0].RetryTxHash)
	}
	return retryReceipt, nil
}
