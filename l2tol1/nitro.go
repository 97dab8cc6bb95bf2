// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l2tol1

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/arbmsg/arbnode"
	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/contracts"
	"github.com/offchainlabs/arbmsg/util/arbmath"
)

const (
	// parent chain blocks it may take for the assertion holding a withdrawal to be created
	assertionCreatedPadding = 50
	// parent chain blocks it may take to confirm an assertion past its deadline
	assertionConfirmedPadding = 20

	headerCacheSize = 64
)

// sendProps locates the withdrawal in the send merkle tree of an assertion.
type sendProps struct {
	root      common.Hash
	size      uint64
	confirmed bool
}

type NitroL2ToL1MessageReader struct {
	event         *NitroL2ToL1Event
	position      uint64
	l1Client      arbutil.ChainClient
	l2Client      arbutil.ChainClient
	blockRanges   *arbnode.BlockRangeCache
	rollup        *arbnode.RollupWatcher
	outbox        *contracts.Outbox
	nodeInterface *contracts.NodeInterface
	headers       *lru.Cache[common.Hash, *types.Header]
	latch         statusLatch

	mutex sync.Mutex
	props sendProps
}

func NewNitroL2ToL1MessageReader(chains *Chains, event *NitroL2ToL1Event) (*NitroL2ToL1MessageReader, error) {
	if !event.Position.IsUint64() {
		return nil, fmt.Errorf("withdrawal position %v out of range", event.Position)
	}
	headers, err := lru.New[common.Hash, *types.Header](headerCacheSize)
	if err != nil {
		return nil, err
	}
	blockRanges := chains.blockRanges()
	return &NitroL2ToL1MessageReader{
		event:         event,
		position:      event.Position.Uint64(),
		l1Client:      chains.L1Client,
		l2Client:      chains.L2Client,
		blockRanges:   blockRanges,
		rollup:        arbnode.NewRollupWatcher(chains.Network.EthBridge.Rollup, chains.L1Client, blockRanges),
		outbox:        contracts.NewOutbox(chains.Network.EthBridge.Outbox, chains.L1Client),
		nodeInterface: contracts.NewNodeInterface(chains.L2Client),
		headers:       headers,
	}, nil
}

func (m *NitroL2ToL1MessageReader) Event() L2ToL1Event {
	return m.event
}

// nodeHeader returns the arbitrum header a node asserts, or nil if the node's creation event or
// block can't be found.
func (m *NitroL2ToL1MessageReader) nodeHeader(ctx context.Context, node *arbnode.NodeInfo) (*types.Header, error) {
	if node == nil {
		return nil, nil
	}
	state := node.AfterState()
	blockHash := state.BlockHash()
	header, ok := m.headers.Get(blockHash)
	if !ok {
		var err error
		header, err = m.l2Client.HeaderByHash(ctx, blockHash)
		if errors.Is(err, ethereum.NotFound) {
			log.Debug("node block not found", "node", node.NodeNum, "blockHash", blockHash)
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		m.headers.Add(blockHash, header)
	}
	info := arbutil.DeserializeHeaderExtraInformation(header)
	if info.SendRoot != state.SendRoot() {
		return nil, fmt.Errorf("%w: node %v asserts send root %v but block %v has %v", arbutil.ErrProtocolInvariant, node.NodeNum, state.SendRoot(), blockHash, info.SendRoot)
	}
	return header, nil
}

// nodeSends returns the send tree the node asserts, with a zero size if it isn't known.
func (m *NitroL2ToL1MessageReader) nodeSends(ctx context.Context, node *arbnode.NodeInfo) (arbutil.HeaderInfo, error) {
	header, err := m.nodeHeader(ctx, node)
	if err != nil || header == nil {
		return arbutil.HeaderInfo{}, err
	}
	return arbutil.DeserializeHeaderExtraInformation(header), nil
}

// getSendProps finds the send tree holding the withdrawal, first in the latest confirmed node,
// then in the latest created one. Confirmed results are cached.
func (m *NitroL2ToL1MessageReader) getSendProps(ctx context.Context) (sendProps, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.props.confirmed {
		return m.props, nil
	}
	latestConfirmed, err := m.rollup.LatestConfirmedNode(ctx)
	if err != nil {
		return sendProps{}, err
	}
	node, err := m.rollup.LookupNode(ctx, latestConfirmed)
	if err != nil {
		return sendProps{}, err
	}
	sends, err := m.nodeSends(ctx, node)
	if err != nil {
		return sendProps{}, err
	}
	if sends.SendCount > m.position {
		m.props = sendProps{root: sends.SendRoot, size: sends.SendCount, confirmed: true}
		return m.props, nil
	}
	latestCreated, err := m.rollup.LatestCreatedNode(ctx)
	if err != nil {
		return sendProps{}, err
	}
	if latestCreated > latestConfirmed {
		node, err := m.rollup.LookupNode(ctx, latestCreated)
		if err != nil {
			return sendProps{}, err
		}
		sends, err := m.nodeSends(ctx, node)
		if err != nil {
			return sendProps{}, err
		}
		if sends.SendCount > m.position {
			m.props = sendProps{root: sends.SendRoot, size: sends.SendCount}
		}
	}
	return m.props, nil
}

func (m *NitroL2ToL1MessageReader) Status(ctx context.Context) (L2ToL1MessageStatus, error) {
	if m.latch.executed() {
		return Executed, nil
	}
	props, err := m.getSendProps(ctx)
	if err != nil {
		return 0, err
	}
	if !props.confirmed {
		return m.latch.observe(Unconfirmed), nil
	}
	spent, err := m.outbox.IsSpent(&bind.CallOpts{Context: ctx}, m.event.Position)
	if err != nil {
		return 0, err
	}
	if spent {
		return m.latch.observe(Executed), nil
	}
	return m.latch.observe(Confirmed), nil
}

// GetOutboxProof returns the proof of the withdrawal against the send root that will hold it, or
// nil if no assertion includes the withdrawal yet.
func (m *NitroL2ToL1MessageReader) GetOutboxProof(ctx context.Context) ([][32]byte, error) {
	props, err := m.getSendProps(ctx)
	if err != nil {
		return nil, err
	}
	if props.size == 0 {
		return nil, nil
	}
	proof, err := m.nodeInterface.ConstructOutboxProof(&bind.CallOpts{Context: ctx}, props.size, m.position)
	if err != nil {
		return nil, err
	}
	if common.Hash(proof.Root) != props.root {
		return nil, fmt.Errorf("%w: outbox proof root %v doesn't match send root %v", arbutil.ErrProtocolInvariant, common.Hash(proof.Root), props.root)
	}
	return proof.Proof, nil
}

// parentChainL1Block returns the L1 block number rollup deadlines are measured in.
func (m *NitroL2ToL1MessageReader) parentChainL1Block(ctx context.Context) (uint64, error) {
	head, err := m.l1Client.BlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	if m.blockRanges == nil {
		return head, nil
	}
	return arbutil.CorrespondingL1BlockNumber(ctx, m.l1Client, head)
}

func (m *NitroL2ToL1MessageReader) GetFirstExecutableBlock(ctx context.Context) (uint64, bool, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return 0, false, err
	}
	if status.IsReadyToExecute() {
		return 0, false, nil
	}
	confirmPeriod, err := m.rollup.ConfirmPeriod(ctx)
	if err != nil {
		return 0, false, err
	}
	latest, err := m.parentChainL1Block(ctx)
	if err != nil {
		return 0, false, err
	}
	fromBlock := arbmath.SaturatingUSub(latest, confirmPeriod+assertionConfirmedPadding)
	if m.blockRanges != nil {
		blockRange, found, err := m.blockRanges.BlockRangeForL1(ctx, m.l1Client, fromBlock, 0)
		if err != nil {
			return 0, false, err
		}
		if found {
			fromBlock = blockRange.First
		} else {
			fromBlock = 0
		}
	}
	nodes, err := m.rollup.LookupNodesCreated(ctx, fromBlock, nil)
	if err != nil {
		return 0, false, err
	}
	predicted := latest + confirmPeriod + assertionCreatedPadding + assertionConfirmedPadding
	if len(nodes) == 0 {
		return predicted, true, nil
	}
	lastSends, err := m.nodeSends(ctx, nodes[len(nodes)-1])
	if err != nil {
		return 0, false, err
	}
	if lastSends.SendCount <= m.position {
		return predicted, true, nil
	}

	found := nodes[len(nodes)-1]
	left, right := 0, len(nodes)-1
	for left <= right {
		mid := (left + right) / 2
		sends, err := m.nodeSends(ctx, nodes[mid])
		if err != nil {
			return 0, false, err
		}
		if sends.SendCount > m.position {
			found = nodes[mid]
			right = mid - 1
		} else {
			left = mid + 1
		}
	}
	deadline, err := m.rollup.NodeDeadline(ctx, found.NodeNum)
	if err != nil {
		return 0, false, err
	}
	log.Debug("withdrawal included in unconfirmed node", "position", m.position, "node", found.NodeNum, "deadline", deadline)
	return deadline + assertionConfirmedPadding, true, nil
}

func (m *NitroL2ToL1MessageReader) WaitUntilReadyToExecute(ctx context.Context, delay time.Duration) (L2ToL1MessageStatus, error) {
	return waitUntilReady(ctx, m.Status, delay)
}

type NitroL2ToL1MessageWriter struct {
	*NitroL2ToL1MessageReader
	signer *bind.TransactOpts
}

// Execute sends the outbox transaction releasing the withdrawal. The message must be confirmed.
func (w *NitroL2ToL1MessageWriter) Execute(ctx context.Context) (*types.Transaction, error) {
	if err := requireConfirmed(ctx, w); err != nil {
		return nil, err
	}
	proof, err := w.GetOutboxProof(ctx)
	if err != nil {
		return nil, err
	}
	ev := w.event
	return w.outbox.ExecuteTransaction(
		transactOpts(ctx, w.signer),
		proof,
		ev.Position,
		ev.Caller,
		ev.Destination,
		ev.ArbBlockNum,
		ev.EthBlockNum,
		ev.Timestamp,
		ev.Callvalue,
		ev.Data,
	)
}
