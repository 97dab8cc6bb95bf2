// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package arbnode

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/contracts"
)

// BlockRange is an inclusive range of arbitrum blocks.
type BlockRange struct {
	First uint64
	Last  uint64
}

type blockRangeKey struct {
	chainId uint64
	l1Block uint64
}

var errNoBlockRange = errors.New("no arbitrum block for L1 block")

// BlockRangeCache maps a block of an arbitrum chain's parent to the range of arbitrum blocks
// created while it was the latest parent block. Entries are written once and never evicted.
type BlockRangeCache struct {
	mutex   sync.Mutex
	entries map[blockRangeKey]*arbutil.CachedComputation[BlockRange]
}

func NewBlockRangeCache() *BlockRangeCache {
	return &BlockRangeCache{
		entries: make(map[blockRangeKey]*arbutil.CachedComputation[BlockRange]),
	}
}

func (c *BlockRangeCache) entry(key blockRangeKey) *arbutil.CachedComputation[BlockRange] {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &arbutil.CachedComputation[BlockRange]{}
		c.entries[key] = e
	}
	return e
}

// Len returns how many ranges have been resolved.
func (c *BlockRangeCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	count := 0
	for _, e := range c.entries {
		if _, ok := e.Peek(); ok {
			count++
		}
	}
	return count
}

// BlockRangeForL1 returns the arbitrum blocks of client whose L1 block number is l1Block, searching
// no lower than minBlock. The bool is false if no such block exists yet. Concurrent lookups of the
// same block share one search.
func (c *BlockRangeCache) BlockRangeForL1(ctx context.Context, client arbutil.ChainClient, l1Block uint64, minBlock uint64) (BlockRange, bool, error) {
	chainId, err := client.ChainID(ctx)
	if err != nil {
		return BlockRange{}, false, err
	}
	e := c.entry(blockRangeKey{chainId.Uint64(), l1Block})
	r, err := e.Get(func() (BlockRange, error) {
		return lookupBlockRangeForL1(ctx, client, l1Block, minBlock)
	})
	if errors.Is(err, errNoBlockRange) {
		return BlockRange{}, false, nil
	}
	if err != nil {
		return BlockRange{}, false, err
	}
	return r, true, nil
}

func lookupBlockRangeForL1(ctx context.Context, client arbutil.ChainClient, l1Block uint64, minBlock uint64) (BlockRange, error) {
	first, last, err := contracts.NewNodeInterface(client).L2BlockRangeForL1(&bind.CallOpts{Context: ctx}, l1Block)
	if err == nil {
		return BlockRange{first, last}, nil
	}
	if ctx.Err() != nil {
		return BlockRange{}, ctx.Err()
	}
	log.Debug("l2BlockRangeForL1 unavailable, searching headers", "l1Block", l1Block, "err", err)
	head, err := client.BlockNumber(ctx)
	if err != nil {
		return BlockRange{}, err
	}
	if minBlock > head {
		return BlockRange{}, fmt.Errorf("search start %v is above head %v", minBlock, head)
	}
	first, found, err := FirstBlockForL1Block(ctx, client, l1Block, false, minBlock, head)
	if err != nil {
		return BlockRange{}, err
	}
	if !found {
		return BlockRange{}, errNoBlockRange
	}
	next, found, err := FirstBlockForL1Block(ctx, client, l1Block+1, true, minBlock, head)
	if err != nil {
		return BlockRange{}, err
	}
	if !found {
		return BlockRange{first, head}, nil
	}
	return BlockRange{first, next - 1}, nil
}

// FirstBlockForL1Block binary searches [minBlock, maxBlock] for the first arbitrum block whose L1
// block number is l1Block, or with allowGreater any later L1 block.
func FirstBlockForL1Block(ctx context.Context, client arbutil.ChainClient, l1Block uint64, allowGreater bool, minBlock, maxBlock uint64) (uint64, bool, error) {
	start, end := minBlock, maxBlock
	var target uint64
	found := false
	for start <= end {
		mid := start + (end-start)/2
		blockL1, err := arbutil.CorrespondingL1BlockNumber(ctx, client, mid)
		if err != nil {
			return 0, false, err
		}
		if blockL1 == l1Block || (allowGreater && blockL1 > l1Block) {
			target = mid
			found = true
		}
		if blockL1 < l1Block {
			start = mid + 1
		} else {
			if mid == 0 {
				break
			}
			end = mid - 1
		}
	}
	return target, found, nil
}
