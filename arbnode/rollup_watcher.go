// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package arbnode

import (
	"context"
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/contracts"
)

type NodeInfo struct {
	NodeNum            uint64
	BlockProposed      uint64
	Assertion          contracts.Assertion
	AfterInboxBatchAcc common.Hash
	NodeHash           common.Hash
	WasmModuleRoot     common.Hash
}

// AfterState is the global state the node asserts.
func (n *NodeInfo) AfterState() contracts.GlobalState {
	return n.Assertion.AfterState.GlobalState
}

func nodeInfoFromLog(ethLog types.Log) (*NodeInfo, error) {
	parsedLog, err := contracts.ParseNodeCreated(ethLog)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &NodeInfo{
		NodeNum:            parsedLog.NodeNum,
		BlockProposed:      ethLog.BlockNumber,
		Assertion:          parsedLog.Assertion,
		AfterInboxBatchAcc: parsedLog.AfterInboxBatchAcc,
		NodeHash:           parsedLog.NodeHash,
		WasmModuleRoot:     parsedLog.WasmModuleRoot,
	}, nil
}

type RollupWatcher struct {
	*contracts.Rollup
	address common.Address
	client  arbutil.ChainClient
	// parent chain block ranges, set when the rollup is hosted on an arbitrum chain
	blockRanges *BlockRangeCache
}

// NewRollupWatcher watches the rollup at address. blockRanges must be set if client is an
// arbitrum chain, since rollup contracts there record L1 block numbers.
func NewRollupWatcher(address common.Address, client arbutil.ChainClient, blockRanges *BlockRangeCache) *RollupWatcher {
	return &RollupWatcher{
		Rollup:      contracts.NewRollup(address, client),
		address:     address,
		client:      client,
		blockRanges: blockRanges,
	}
}

func (r *RollupWatcher) Address() common.Address {
	return r.address
}

func (r *RollupWatcher) getCallOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx}
}

// LookupNode finds the NodeCreated event of node number. It returns nil if the event isn't there.
func (r *RollupWatcher) LookupNode(ctx context.Context, number uint64) (*NodeInfo, error) {
	node, err := r.GetNode(r.getCallOpts(ctx), number)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	fromBlock, toBlock := node.CreatedAtBlock, node.CreatedAtBlock
	if r.blockRanges != nil {
		blockRange, found, err := r.blockRanges.BlockRangeForL1(ctx, r.client, node.CreatedAtBlock, 0)
		if err != nil {
			return nil, err
		}
		if found {
			fromBlock, toBlock = blockRange.First, blockRange.Last
		}
	}
	var query = ethereum.FilterQuery{
		BlockHash: nil,
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{r.address},
		Topics:    [][]common.Hash{{contracts.NodeCreatedID}, {arbutil.UintToHash(number)}},
	}
	logs, err := r.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(logs) == 0 {
		return nil, nil
	}
	if len(logs) > 1 {
		return nil, errors.New("Found multiple instances of requested node")
	}
	return nodeInfoFromLog(logs[0])
}

// LookupNodesCreated returns the nodes created in [fromBlock, toBlock], ordered by node number.
func (r *RollupWatcher) LookupNodesCreated(ctx context.Context, fromBlock uint64, toBlock *big.Int) ([]*NodeInfo, error) {
	var query = ethereum.FilterQuery{
		BlockHash: nil,
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   toBlock,
		Addresses: []common.Address{r.address},
		Topics:    [][]common.Hash{{contracts.NodeCreatedID}},
	}
	logs, err := r.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	infos := make([]*NodeInfo, 0, len(logs))
	for _, ethLog := range logs {
		info, err := nodeInfoFromLog(ethLog)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].NodeNum < infos[j].NodeNum
	})
	return infos, nil
}

func (r *RollupWatcher) LatestConfirmedNode(ctx context.Context) (uint64, error) {
	num, err := r.LatestConfirmed(r.getCallOpts(ctx))
	return num, errors.WithStack(err)
}

func (r *RollupWatcher) LatestCreatedNode(ctx context.Context) (uint64, error) {
	num, err := r.LatestNodeCreated(r.getCallOpts(ctx))
	return num, errors.WithStack(err)
}

func (r *RollupWatcher) NodeDeadline(ctx context.Context, number uint64) (uint64, error) {
	node, err := r.GetNode(r.getCallOpts(ctx), number)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return node.DeadlineBlock, nil
}

func (r *RollupWatcher) ConfirmPeriod(ctx context.Context) (uint64, error) {
	period, err := r.ConfirmPeriodBlocks(r.getCallOpts(ctx))
	return period, errors.WithStack(err)
}
