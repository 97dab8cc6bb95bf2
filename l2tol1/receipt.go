// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l2tol1

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/contracts"
	"github.com/offchainlabs/arbmsg/l1tol2"
)

// L2TransactionReceipt is a receipt of a transaction on the arbitrum chain.
type L2TransactionReceipt struct {
	*types.Receipt
}

func NewL2TransactionReceipt(receipt *types.Receipt) *L2TransactionReceipt {
	return &L2TransactionReceipt{Receipt: receipt}
}

// GetL2ToL1Events returns the withdrawals the transaction made, in log order.
func (r *L2TransactionReceipt) GetL2ToL1Events() ([]L2ToL1Event, error) {
	var events []L2ToL1Event
	for _, ethLog := range r.Logs {
		if ethLog.Address != contracts.ArbSysAddress || len(ethLog.Topics) == 0 {
			continue
		}
		if ethLog.Topics[0] != contracts.L2ToL1TxID && ethLog.Topics[0] != contracts.L2ToL1TransactionID {
			continue
		}
		ev, err := ParseL2ToL1Event(*ethLog)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// GetL2ToL1Messages returns a message for each withdrawal the transaction made. They are writers
// if signer is set.
func (r *L2TransactionReceipt) GetL2ToL1Messages(chains *Chains, signer *bind.TransactOpts) ([]L2ToL1Message, error) {
	events, err := r.GetL2ToL1Events()
	if err != nil {
		return nil, err
	}
	messages := make([]L2ToL1Message, 0, len(events))
	for _, ev := range events {
		message, err := NewL2ToL1Message(chains, ev, signer)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// GetRedeemScheduledEvents returns the redeems the transaction scheduled.
func (r *L2TransactionReceipt) GetRedeemScheduledEvents() ([]*contracts.RedeemScheduled, error) {
	return l1tol2.RedeemScheduledEvents(r.Receipt)
}

// GetBatchNumber returns the sequencer batch that posted the transaction's block.
func (r *L2TransactionReceipt) GetBatchNumber(ctx context.Context, l2Client arbutil.ChainClient) (uint64, error) {
	return contracts.NewNodeInterface(l2Client).FindBatchContainingBlock(&bind.CallOpts{Context: ctx}, r.BlockNumber.Uint64())
}

// GetBatchConfirmations returns how many parent chain blocks have passed since the batch holding
// the transaction was posted.
func (r *L2TransactionReceipt) GetBatchConfirmations(ctx context.Context, l2Client arbutil.ChainClient) (uint64, error) {
	return contracts.NewNodeInterface(l2Client).GetL1Confirmations(&bind.CallOpts{Context: ctx}, r.BlockHash)
}

// IsDataAvailable is true once the transaction's batch has more than confirmations confirmations.
func (r *L2TransactionReceipt) IsDataAvailable(ctx context.Context, l2Client arbutil.ChainClient, confirmations uint64) (bool, error) {
	batchConfirmations, err := r.GetBatchConfirmations(ctx, l2Client)
	if err != nil {
		return false, err
	}
	return batchConfirmations > confirmations, nil
}
