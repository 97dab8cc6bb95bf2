// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l2tol1

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/arbmsg/arbnode"
	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/cmd/chaininfo"
)

// Chains is what a withdrawal needs to reach both sides of the bridge.
type Chains struct {
	L1Client arbutil.ChainClient
	L2Client arbutil.ChainClient
	Network  *chaininfo.ArbitrumNetwork
	// BlockRanges maps parent chain blocks to L1 blocks. Only used when the parent chain is an
	// arbitrum chain, and created on demand if nil.
	BlockRanges *arbnode.BlockRangeCache
}

func (c *Chains) blockRanges() *arbnode.BlockRangeCache {
	if !c.Network.ParentChainIsArbitrum {
		return nil
	}
	if c.BlockRanges == nil {
		c.BlockRanges = arbnode.NewBlockRangeCache()
	}
	return c.BlockRanges
}

// L2ToL1Message reads the state of a withdrawal on the parent chain. Messages built with a signer
// also implement L2ToL1MessageWriter.
type L2ToL1Message interface {
	Event() L2ToL1Event
	Status(ctx context.Context) (L2ToL1MessageStatus, error)
	// GetFirstExecutableBlock estimates the parent chain block at which the message can be
	// executed. It returns false if there is nothing to wait for.
	GetFirstExecutableBlock(ctx context.Context) (uint64, bool, error)
	WaitUntilReadyToExecute(ctx context.Context, delay time.Duration) (L2ToL1MessageStatus, error)
}

type L2ToL1MessageWriter interface {
	L2ToL1Message
	Execute(ctx context.Context) (*types.Transaction, error)
}

// NewL2ToL1Message picks the classic or nitro implementation for event. The result is a writer
// if signer is set.
func NewL2ToL1Message(chains *Chains, event L2ToL1Event, signer *bind.TransactOpts) (L2ToL1Message, error) {
	switch ev := event.(type) {
	case *ClassicL2ToL1Event:
		reader := NewClassicL2ToL1MessageReader(chains, ev)
		if signer == nil {
			return reader, nil
		}
		return &ClassicL2ToL1MessageWriter{ClassicL2ToL1MessageReader: reader, signer: signer}, nil
	case *NitroL2ToL1Event:
		reader, err := NewNitroL2ToL1MessageReader(chains, ev)
		if err != nil {
			return nil, err
		}
		if signer == nil {
			return reader, nil
		}
		return &NitroL2ToL1MessageWriter{NitroL2ToL1MessageReader: reader, signer: signer}, nil
	default:
		return nil, fmt.Errorf("unknown withdrawal event type %T", event)
	}
}

func transactOpts(ctx context.Context, signer *bind.TransactOpts) *bind.TransactOpts {
	opts := *signer
	opts.Context = ctx
	return &opts
}

func requireConfirmed(ctx context.Context, message L2ToL1Message) error {
	status, err := message.Status(ctx)
	if err != nil {
		return err
	}
	if status != Confirmed {
		return &arbutil.PreconditionError{Operation: "execute", Actual: status, Required: Confirmed}
	}
	return nil
}

// waitUntilReady polls status until the message is confirmed. It only stops early if ctx is done.
func waitUntilReady(ctx context.Context, status func(context.Context) (L2ToL1MessageStatus, error), delay time.Duration) (L2ToL1MessageStatus, error) {
	for {
		current, err := status(ctx)
		if err != nil {
			return 0, err
		}
		if current.IsReadyToExecute() {
			return current, nil
		}
		log.Debug("waiting for withdrawal to be confirmed", "status", current, "delay", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return current, ctx.Err()
		case <-timer.C:
		}
	}
}
