// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l1tol2

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/offchainlabs/arbmsg/contracts"
	"github.com/offchainlabs/arbmsg/util/testhelpers"
)

// redeemQueryRecorder records the block ranges searched for RedeemScheduled events.
type redeemQueryRecorder struct {
	*testhelpers.MockChain
	ranges []blockRange
}

func (r *redeemQueryRecorder) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	if len(q.Topics) > 0 && len(q.Topics[0]) > 0 && q.Topics[0][0] == contracts.RedeemScheduledID {
		r.ranges = append(r.ranges, blockRange{q.FromBlock.Uint64(), q.ToBlock.Uint64()})
	}
	return r.MockChain.FilterLogs(ctx, q)
}

func TestRedeemScanChunks(t *testing.T) {
	chain := testhelpers.NewMockChain(t, testChainId)
	// blocks up to 1001 share a timestamp, later ones are ten seconds apart
	for n := int64(1); n <= 1001; n++ {
		chain.AddHeader(&types.Header{Number: big.NewInt(n), BaseFee: big.NewInt(1), Difficulty: common.Big1})
	}
	chain.AddBlocks(20000, 10)
	chain.HandleCall(contracts.ArbRetryableTxAddress, contracts.ArbRetryableTxABI, "getTimeout", testhelpers.Reverts(contracts.NoTicketWithIDError))
	chain.HandleCall(contracts.ArbRetryableTxAddress, contracts.ArbRetryableTxABI, "getLifetime", testhelpers.Returns(big.NewInt(1_000_000)))
	recorder := &redeemQueryRecorder{MockChain: chain}

	message := NewRetryableMessageReader(recorder, testNetwork(), testhelpers.RandomAddress(), big.NewInt(77), big.NewInt(30), testParams())
	chain.AddReceipt(&types.Receipt{
		TxHash:      message.RetryableCreationId,
		BlockNumber: big.NewInt(1),
		Status:      types.ReceiptStatusSuccessful,
	})
	expectStatus(t, message, Expired)

	expected := []blockRange{
		{1, 1001},
		// no time passed in the first chunk, so its size is kept
		{1001, 2001},
		// 1000 blocks took 10000 seconds, a day takes 8640 blocks
		{2001, 10641},
		{10641, 19281},
		{19281, 20000},
	}
	if len(recorder.ranges) != len(expected) {
		Fail(t, "expected", len(expected), "scanned ranges, got", recorder.ranges)
	}
	for i, r := range expected {
		if recorder.ranges[i] != r {
			Fail(t, "range", i, "expected", r, "got", recorder.ranges[i])
		}
	}
}

func TestRedeemScanUsesChainLifetime(t *testing.T) {
	f := newRetryableFixture(t)
	f.addCreation(1, types.ReceiptStatusSuccessful)
	f.ticketGone()
	// after the network's lifetime but within the chain's
	retry := f.addRedeem(t, 2500, types.ReceiptStatusSuccessful)
	f.chain.HandleCall(contracts.ArbRetryableTxAddress, contracts.ArbRetryableTxABI, "getLifetime", testhelpers.Returns(big.NewInt(100_000)))
	result, err := f.message.GetSuccessfulRedeem(context.Background())
	Require(t, err)
	if result.Status != Redeemed || result.Receipt.TxHash != retry {
		Fail(t, "unexpected result", result)
	}
}

func TestRedeemScanFallsBackToNetworkLifetime(t *testing.T) {
	f := newRetryableFixture(t)
	f.addCreation(1, types.ReceiptStatusSuccessful)
	f.ticketGone()
	f.addRedeem(t, 2500, types.ReceiptStatusSuccessful)
	f.chain.HandleCall(contracts.ArbRetryableTxAddress, contracts.ArbRetryableTxABI, "getLifetime", testhelpers.Reverts(nil))
	expectStatus(t, f.message, Expired)
}
