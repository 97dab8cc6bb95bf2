// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l2tol1

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/offchainlabs/arbmsg/cmd/chaininfo"
	"github.com/offchainlabs/arbmsg/contracts"
	"github.com/offchainlabs/arbmsg/util/testhelpers"
)

func blockRange(filter *EventFilter) []interface{} {
	if filter == nil {
		return nil
	}
	var to interface{} = "latest"
	if filter.ToBlock != nil {
		to = filter.ToBlock.Uint64()
	}
	return []interface{}{filter.FromBlock.Uint64(), to}
}

func TestEraRanges(t *testing.T) {
	for _, tc := range []struct {
		from, to       *big.Int
		classic, nitro []interface{}
	}{
		{nil, nil, []interface{}{uint64(0), uint64(99)}, []interface{}{uint64(100), "latest"}},
		{big.NewInt(10), big.NewInt(50), []interface{}{uint64(10), uint64(50)}, nil},
		{big.NewInt(10), big.NewInt(99), []interface{}{uint64(10), uint64(99)}, nil},
		{big.NewInt(10), big.NewInt(100), []interface{}{uint64(10), uint64(99)}, []interface{}{uint64(100), uint64(100)}},
		{big.NewInt(100), nil, nil, []interface{}{uint64(100), "latest"}},
		{big.NewInt(150), big.NewInt(200), nil, []interface{}{uint64(150), uint64(200)}},
		{big.NewInt(150), big.NewInt(120), nil, nil},
	} {
		classic, nitro := eraRanges(EventFilter{FromBlock: tc.from, ToBlock: tc.to}, 100)
		gotClassic, gotNitro := blockRange(classic), blockRange(nitro)
		if len(gotClassic) != len(tc.classic) || (gotClassic != nil && (gotClassic[0] != tc.classic[0] || gotClassic[1] != tc.classic[1])) {
			Fail(t, "range", tc.from, tc.to, "expected classic", tc.classic, "got", gotClassic)
		}
		if len(gotNitro) != len(tc.nitro) || (gotNitro != nil && (gotNitro[0] != tc.nitro[0] || gotNitro[1] != tc.nitro[1])) {
			Fail(t, "range", tc.from, tc.to, "expected nitro", tc.nitro, "got", gotNitro)
		}
	}
}

func withdrawalLogs(t *testing.T, destination common.Address) (classic []types.Log, nitro []types.Log) {
	for i := int64(0); i < 3; i++ {
		l := testhelpers.EventLog(t, contracts.ArbSysABI, "L2ToL1Transaction", contracts.ArbSysAddress,
			testhelpers.RandomAddress(), destination, big.NewInt(100+i), big.NewInt(7), big.NewInt(i),
			big.NewInt(50+i), big.NewInt(1), big.NewInt(2), big.NewInt(3), []byte{})
		l.BlockNumber = uint64(50 + i)
		classic = append(classic, l)
		l = testhelpers.EventLog(t, contracts.ArbSysABI, "L2ToL1Tx", contracts.ArbSysAddress,
			testhelpers.RandomAddress(), destination, big.NewInt(200+i), big.NewInt(i),
			big.NewInt(150+i), big.NewInt(1), big.NewInt(2), big.NewInt(3), []byte{})
		l.BlockNumber = uint64(150 + i)
		nitro = append(nitro, l)
	}
	return classic, nitro
}

func TestGetL2ToL1Events(t *testing.T) {
	ctx := context.Background()
	chain := testhelpers.NewMockChain(t, 42161)
	chain.AddBlocks(200, 1)
	network := &chaininfo.ArbitrumNetwork{ChainId: 42161, NitroGenesisBlock: 100}
	destination := testhelpers.RandomAddress()
	classicLogs, nitroLogs := withdrawalLogs(t, destination)
	chain.AddLogs(classicLogs...)
	chain.AddLogs(nitroLogs...)
	other, _ := withdrawalLogs(t, testhelpers.RandomAddress())
	chain.AddLogs(other...)

	events, err := GetL2ToL1Events(ctx, chain, network, EventFilter{}, nil, &destination, nil, nil)
	Require(t, err)
	if len(events) != 6 {
		Fail(t, "expected six withdrawals, got", len(events))
	}
	for i, ev := range events {
		_, isClassic := ev.(*ClassicL2ToL1Event)
		if isClassic != (i < 3) {
			Fail(t, "classic withdrawals should come first", i, ev)
		}
		if ev.To() != destination {
			Fail(t, "unexpected destination", ev.To())
		}
	}

	events, err = GetL2ToL1Events(ctx, chain, network, EventFilter{ToBlock: big.NewInt(99)}, big.NewInt(7), nil, nil, big.NewInt(1))
	Require(t, err)
	if len(events) != 2 {
		Fail(t, "expected one withdrawal per destination at index 1, got", len(events))
	}
	for _, ev := range events {
		classic := ev.(*ClassicL2ToL1Event)
		if classic.IndexInBatch.Int64() != 1 || classic.BatchNumber.Int64() != 7 {
			Fail(t, "unexpected classic withdrawal", classic)
		}
	}

	events, err = GetL2ToL1Events(ctx, chain, network, EventFilter{FromBlock: big.NewInt(100)}, big.NewInt(2), &destination, big.NewInt(202), nil)
	Require(t, err)
	if len(events) != 1 || events[0].(*NitroL2ToL1Event).Position.Int64() != 2 {
		Fail(t, "expected the nitro withdrawal at position 2, got", events)
	}
}

func TestL2TransactionReceipt(t *testing.T) {
	ctx := context.Background()
	chain := testhelpers.NewMockChain(t, 42161)
	chain.AddBlocks(10, 1)
	classicLogs, nitroLogs := withdrawalLogs(t, testhelpers.RandomAddress())
	redeem := testhelpers.EventLog(t, contracts.ArbRetryableTxABI, "RedeemScheduled", contracts.ArbRetryableTxAddress,
		testhelpers.RandomHash(), testhelpers.RandomHash(), uint64(0), uint64(21000), testhelpers.RandomAddress(), big.NewInt(1), big.NewInt(0))
	unrelated := testhelpers.EventLog(t, contracts.ArbSysABI, "L2ToL1Tx", testhelpers.RandomAddress(),
		testhelpers.RandomAddress(), testhelpers.RandomAddress(), big.NewInt(0), big.NewInt(0),
		big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), []byte{})
	receipt := chain.AddReceipt(&types.Receipt{
		TxHash:      testhelpers.RandomHash(),
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(10),
		Logs:        []*types.Log{&nitroLogs[0], &unrelated, &classicLogs[1], &redeem},
	})
	chain.HandleCall(contracts.NodeInterfaceAddress, contracts.NodeInterfaceABI, "findBatchContainingBlock", func(args []interface{}, _ ethereum.CallMsg, _ *big.Int) ([]interface{}, error) {
		return []interface{}{args[0].(uint64) / 5}, nil
	})
	chain.HandleCall(contracts.NodeInterfaceAddress, contracts.NodeInterfaceABI, "getL1Confirmations", func(args []interface{}, _ ethereum.CallMsg, _ *big.Int) ([]interface{}, error) {
		if common.Hash(args[0].([32]byte)) != receipt.BlockHash {
			return []interface{}{uint64(0)}, nil
		}
		return []interface{}{uint64(12)}, nil
	})

	l2Receipt := NewL2TransactionReceipt(receipt)
	events, err := l2Receipt.GetL2ToL1Events()
	Require(t, err)
	if len(events) != 2 {
		Fail(t, "expected two withdrawals, got", len(events))
	}
	if _, ok := events[0].(*NitroL2ToL1Event); !ok {
		Fail(t, "expected the nitro withdrawal first, got", events[0])
	}
	if _, ok := events[1].(*ClassicL2ToL1Event); !ok {
		Fail(t, "expected the classic withdrawal second, got", events[1])
	}
	redeems, err := l2Receipt.GetRedeemScheduledEvents()
	Require(t, err)
	if len(redeems) != 1 || redeems[0].DonatedGas != 21000 {
		Fail(t, "unexpected redeems", redeems)
	}

	network := &chaininfo.ArbitrumNetwork{ChainId: 42161, NitroGenesisBlock: 100}
	network.EthBridge.Rollup = testhelpers.RandomAddress()
	network.EthBridge.Outbox = testhelpers.RandomAddress()
	messages, err := l2Receipt.GetL2ToL1Messages(&Chains{L1Client: testhelpers.NewMockChain(t, 1), L2Client: chain, Network: network}, nil)
	Require(t, err)
	if len(messages) != 2 {
		Fail(t, "expected two messages, got", len(messages))
	}
	if _, ok := messages[0].(*NitroL2ToL1MessageReader); !ok {
		Fail(t, "expected a nitro reader, got", messages[0])
	}
	if _, ok := messages[1].(*ClassicL2ToL1MessageReader); !ok {
		Fail(t, "expected a classic reader, got", messages[1])
	}

	batch, err := l2Receipt.GetBatchNumber(ctx, chain)
	Require(t, err)
	if batch != 2 {
		Fail(t, "unexpected batch", batch)
	}
	available, err := l2Receipt.IsDataAvailable(ctx, chain, 10)
	Require(t, err)
	if !available {
		Fail(t, "batch with 12 confirmations should be available at 10")
	}
	available, err = l2Receipt.IsDataAvailable(ctx, chain, 12)
	Require(t, err)
	if available {
		Fail(t, "batch with 12 confirmations should not be available at 12")
	}
}

func TestStatusStrings(t *testing.T) {
	if Unconfirmed.String() != "UNCONFIRMED" || Confirmed.String() != "CONFIRMED" || Executed.String() != "EXECUTED" {
		Fail(t, "unexpected status names")
	}
	if L2ToL1MessageStatus(9).String() != "L2ToL1MessageStatus(9)" {
		Fail(t, "unexpected unknown status", L2ToL1MessageStatus(9).String())
	}
}
