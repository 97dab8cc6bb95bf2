// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package arbnode

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/contracts"
	"github.com/offchainlabs/arbmsg/util/testhelpers"
)

// addArbitrumBlocks adds one header per entry of l1Blocks, numbered from 1.
func addArbitrumBlocks(chain *testhelpers.MockChain, l1Blocks []uint64) {
	for i, l1Block := range l1Blocks {
		header := &types.Header{
			Number:     big.NewInt(int64(i + 1)),
			Time:       uint64(i + 1),
			BaseFee:    big.NewInt(1),
			Difficulty: common.Big1,
		}
		arbutil.HeaderInfo{L1BlockNumber: l1Block}.UpdateHeader(header)
		chain.AddHeader(header)
	}
}

func TestBlockRangeSearch(t *testing.T) {
	ctx := context.Background()
	chain := testhelpers.NewMockChain(t, 42161)
	addArbitrumBlocks(chain, []uint64{100, 100, 101, 101, 101, 103, 104, 104})
	cache := NewBlockRangeCache()

	r, found, err := cache.BlockRangeForL1(ctx, chain, 101, 1)
	Require(t, err)
	if !found || r.First != 3 || r.Last != 5 {
		Fail(t, "unexpected range for 101", r, found)
	}
	r, found, err = cache.BlockRangeForL1(ctx, chain, 104, 1)
	Require(t, err)
	if !found || r.First != 7 || r.Last != 8 {
		Fail(t, "unexpected range for the head's L1 block", r, found)
	}
	_, found, err = cache.BlockRangeForL1(ctx, chain, 102, 1)
	Require(t, err)
	if found {
		Fail(t, "found a range for an L1 block with no arbitrum blocks")
	}
	if cache.Len() != 2 {
		Fail(t, "expected two cached ranges, got", cache.Len())
	}
}

func TestBlockRangeCacheUsesNodeInterface(t *testing.T) {
	ctx := context.Background()
	chain := testhelpers.NewMockChain(t, 42161)
	var calls int
	var mutex sync.Mutex
	chain.HandleCall(contracts.NodeInterfaceAddress, contracts.NodeInterfaceABI, "l2BlockRangeForL1", func(args []interface{}, _ ethereum.CallMsg, _ *big.Int) ([]interface{}, error) {
		mutex.Lock()
		defer mutex.Unlock()
		calls++
		if args[0].(uint64) != 55 {
			return nil, errors.New("unexpected block")
		}
		return []interface{}{uint64(1000), uint64(1004)}, nil
	})
	cache := NewBlockRangeCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, found, err := cache.BlockRangeForL1(ctx, chain, 55, 0)
			if err != nil || !found || r.First != 1000 || r.Last != 1004 {
				t.Error("unexpected range", r, found, err)
			}
		}()
	}
	wg.Wait()
	if calls != 1 {
		Fail(t, "expected a single lookup, got", calls)
	}
}

func TestLookupNode(t *testing.T) {
	ctx := context.Background()
	chain := testhelpers.NewMockChain(t, 1)
	chain.AddBlocks(50, 12)
	rollupAddress := testhelpers.RandomAddress()

	var after contracts.GlobalState
	after.Bytes32Vals[0] = testhelpers.RandomHash()
	after.Bytes32Vals[1] = testhelpers.RandomHash()
	assertion := contracts.Assertion{AfterState: contracts.ExecutionState{GlobalState: after}}
	nodeLog := testhelpers.EventLog(t, contracts.RollupABI, "NodeCreated", rollupAddress,
		uint64(3), testhelpers.RandomHash(), testhelpers.RandomHash(), testhelpers.RandomHash(),
		assertion, testhelpers.RandomHash(), testhelpers.RandomHash(), big.NewInt(1))
	nodeLog.BlockNumber = 40
	otherLog := testhelpers.EventLog(t, contracts.RollupABI, "NodeCreated", rollupAddress,
		uint64(4), testhelpers.RandomHash(), testhelpers.RandomHash(), testhelpers.RandomHash(),
		contracts.Assertion{}, testhelpers.RandomHash(), testhelpers.RandomHash(), big.NewInt(1))
	otherLog.BlockNumber = 40
	chain.AddLogs(nodeLog, otherLog)
	chain.HandleCall(rollupAddress, contracts.RollupABI, "getNode", func(args []interface{}, _ ethereum.CallMsg, _ *big.Int) ([]interface{}, error) {
		return []interface{}{contracts.Node{CreatedAtBlock: 40, DeadlineBlock: 90}}, nil
	})
	chain.HandleCall(rollupAddress, contracts.RollupABI, "latestConfirmed", testhelpers.Returns(uint64(3)))

	watcher := NewRollupWatcher(rollupAddress, chain, nil)
	confirmed, err := watcher.LatestConfirmedNode(ctx)
	Require(t, err)
	info, err := watcher.LookupNode(ctx, confirmed)
	Require(t, err)
	if info == nil || info.NodeNum != 3 || info.BlockProposed != 40 {
		Fail(t, "unexpected node", info)
	}
	if info.AfterState().BlockHash() != common.Hash(after.Bytes32Vals[0]) || info.AfterState().SendRoot() != common.Hash(after.Bytes32Vals[1]) {
		Fail(t, "unexpected after state")
	}
	missing, err := watcher.LookupNode(ctx, 9)
	Require(t, err)
	if missing != nil {
		Fail(t, "found a node that was never created")
	}
	nodes, err := watcher.LookupNodesCreated(ctx, 0, nil)
	Require(t, err)
	if len(nodes) != 2 || nodes[0].NodeNum != 3 || nodes[1].NodeNum != 4 {
		Fail(t, "unexpected nodes", nodes)
	}
	deadline, err := watcher.NodeDeadline(ctx, 3)
	Require(t, err)
	if deadline != 90 {
		Fail(t, "unexpected deadline", deadline)
	}
}

func TestMaxTimeVariation(t *testing.T) {
	chain := testhelpers.NewMockChain(t, 1)
	address := testhelpers.RandomAddress()
	chain.HandleCall(address, contracts.SequencerInboxABI, "maxTimeVariation",
		testhelpers.Returns(big.NewInt(5760), big.NewInt(64), big.NewInt(86400), big.NewInt(768)))
	variation, err := NewSequencerInbox(chain, address).MaxTimeVariation(context.Background(), nil)
	Require(t, err)
	if variation.DelayBlocks.Int64() != 5760 || variation.FutureSeconds.Int64() != 768 {
		Fail(t, "unexpected variation", variation)
	}
}
