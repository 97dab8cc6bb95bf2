// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l2tol1

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/arbmsg/cmd/chaininfo"
	"github.com/offchainlabs/arbmsg/contracts"
	"github.com/offchainlabs/arbmsg/util/headerreader"
)

// ClassicOutboxAddress returns the outbox serving batchNumber: the first of outboxes, sorted by
// activation batch, whose activation batch is above it. The zero address means no outbox serves
// the batch.
func ClassicOutboxAddress(outboxes []chaininfo.ClassicOutbox, batchNumber uint64) common.Address {
	for _, outbox := range outboxes {
		if outbox.ActivationBatch > batchNumber {
			return outbox.Address
		}
	}
	return common.Address{}
}

var errNoClassicOutbox = errors.New("no classic outbox serves the withdrawal's batch")

type ClassicL2ToL1MessageReader struct {
	event         *ClassicL2ToL1Event
	nodeInterface *contracts.NodeInterface
	outboxAddress common.Address
	outbox        *contracts.ClassicOutbox
	latch         statusLatch

	mutex sync.Mutex
	proof *contracts.LegacyMessageBatchProof
}

func NewClassicL2ToL1MessageReader(chains *Chains, event *ClassicL2ToL1Event) *ClassicL2ToL1MessageReader {
	var batchNumber uint64
	if event.BatchNumber.IsUint64() {
		batchNumber = event.BatchNumber.Uint64()
	}
	outboxAddress := ClassicOutboxAddress(chains.Network.SortedClassicOutboxes(), batchNumber)
	return &ClassicL2ToL1MessageReader{
		event:         event,
		nodeInterface: contracts.NewNodeInterface(chains.L2Client),
		outboxAddress: outboxAddress,
		outbox:        contracts.NewClassicOutbox(outboxAddress, chains.L1Client),
	}
}

func (m *ClassicL2ToL1MessageReader) Event() L2ToL1Event {
	return m.event
}

func (m *ClassicL2ToL1MessageReader) OutboxAddress() common.Address {
	return m.outboxAddress
}

// TryGetProof returns the merkle proof of the withdrawal in its batch, or nil if the batch
// doesn't exist yet.
func (m *ClassicL2ToL1MessageReader) TryGetProof(ctx context.Context) (*contracts.LegacyMessageBatchProof, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.proof != nil {
		return m.proof, nil
	}
	if !m.event.IndexInBatch.IsUint64() {
		return nil, errors.New("withdrawal index in batch out of range")
	}
	proof, err := m.nodeInterface.LegacyLookupMessageBatchProof(&bind.CallOpts{Context: ctx}, m.event.BatchNumber, m.event.IndexInBatch.Uint64())
	if headerreader.IsExecutionReverted(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.proof = proof
	return proof, nil
}

func (m *ClassicL2ToL1MessageReader) executeArgs(proof *contracts.LegacyMessageBatchProof) *contracts.ClassicExecuteArgs {
	return &contracts.ClassicExecuteArgs{
		BatchNum:      m.event.BatchNumber,
		Proof:         proof.Proof,
		Index:         proof.Path,
		L2Sender:      proof.L2Sender,
		DestAddr:      proof.L1Dest,
		L2Block:       proof.L2Block,
		L1Block:       proof.L1Block,
		L2Timestamp:   proof.Timestamp,
		Amount:        proof.Amount,
		CalldataForL1: proof.CalldataForL1,
	}
}

// hasExecuted replays the outbox execution. A revert with ALREADY_SPENT means it was executed.
func (m *ClassicL2ToL1MessageReader) hasExecuted(ctx context.Context) (bool, error) {
	proof, err := m.TryGetProof(ctx)
	if err != nil || proof == nil {
		return false, err
	}
	err = m.outbox.CallExecuteTransaction(&bind.CallOpts{Context: ctx}, m.executeArgs(proof))
	if err == nil {
		return false, nil
	}
	reason, ok := headerreader.RevertReason(err)
	if !ok {
		reason = err.Error()
	}
	switch {
	case strings.Contains(reason, "ALREADY_SPENT"):
		return true, nil
	case strings.Contains(reason, "NO_OUTBOX_ENTRY"):
		return false, nil
	default:
		return false, err
	}
}

// Status replays the execution on the outbox. Failures other than a cancelled context are
// reported as Unconfirmed.
func (m *ClassicL2ToL1MessageReader) Status(ctx context.Context) (L2ToL1MessageStatus, error) {
	if m.latch.executed() {
		return Executed, nil
	}
	if m.outboxAddress == (common.Address{}) {
		return m.latch.observe(Unconfirmed), nil
	}
	status, err := m.status(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		log.Debug("classic withdrawal status unavailable", "batch", m.event.BatchNumber, "index", m.event.IndexInBatch, "err", err)
		status = Unconfirmed
	}
	return m.latch.observe(status), nil
}

func (m *ClassicL2ToL1MessageReader) status(ctx context.Context) (L2ToL1MessageStatus, error) {
	executed, err := m.hasExecuted(ctx)
	if err != nil {
		return 0, err
	}
	if executed {
		return Executed, nil
	}
	exists, err := m.outbox.OutboxEntryExists(&bind.CallOpts{Context: ctx}, m.event.BatchNumber)
	if err != nil {
		return 0, err
	}
	if exists {
		return Confirmed, nil
	}
	return Unconfirmed, nil
}

// GetFirstExecutableBlock never has anything to wait for: classic batches were all confirmed
// before the nitro upgrade.
func (m *ClassicL2ToL1MessageReader) GetFirstExecutableBlock(ctx context.Context) (uint64, bool, error) {
	return 0, false, nil
}

func (m *ClassicL2ToL1MessageReader) WaitUntilReadyToExecute(ctx context.Context, delay time.Duration) (L2ToL1MessageStatus, error) {
	return waitUntilReady(ctx, m.Status, delay)
}

type ClassicL2ToL1MessageWriter struct {
	*ClassicL2ToL1MessageReader
	signer *bind.TransactOpts
}

// Execute sends the withdrawal's outbox transaction. The message must be confirmed.
func (w *ClassicL2ToL1MessageWriter) Execute(ctx context.Context) (*types.Transaction, error) {
	if w.outboxAddress == (common.Address{}) {
		return nil, errNoClassicOutbox
	}
	if err := requireConfirmed(ctx, w); err != nil {
		return nil, err
	}
	proof, err := w.TryGetProof(ctx)
	if err != nil {
		return nil, err
	}
	if proof == nil {
		return nil, errors.New("no proof for confirmed classic withdrawal")
	}
	return w.outbox.ExecuteTransaction(transactOpts(ctx, w.signer), w.executeArgs(proof))
}
