// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l1tol2

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/contracts"
	"github.com/offchainlabs/arbmsg/util/arbmath"
	"github.com/offchainlabs/arbmsg/util/headerreader"
)

const (
	initialRedeemScanBlocks = 1000
	redeemScanTargetSeconds = 24 * 60 * 60
)

type blockRange struct {
	from uint64
	to   uint64
}

func (m *RetryableMessageReader) ticketLogs(ctx context.Context, event common.Hash, r blockRange) ([]types.Log, error) {
	return m.l2Client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(r.from),
		ToBlock:   new(big.Int).SetUint64(r.to),
		Addresses: []common.Address{contracts.ArbRetryableTxAddress},
		Topics:    [][]common.Hash{{event}, {m.RetryableCreationId}},
	})
}

// successfulRedeemIn returns the receipt of the successful redeem of the ticket in r, if any.
func (m *RetryableMessageReader) successfulRedeemIn(ctx context.Context, r blockRange) (*types.Receipt, error) {
	logs, err := m.ticketLogs(ctx, contracts.RedeemScheduledID, r)
	if err != nil {
		return nil, err
	}
	var successful []*types.Receipt
	for _, l := range logs {
		ev, err := contracts.ParseRedeemScheduled(l)
		if err != nil {
			return nil, err
		}
		receipt, err := arbutil.GetReceipt(ctx, m.l2Client, ev.RetryTxHash)
		if err != nil {
			return nil, err
		}
		if receipt != nil && receipt.Status == types.ReceiptStatusSuccessful {
			successful = append(successful, receipt)
		}
	}
	if len(successful) > 1 {
		return nil, fmt.Errorf("%w: %d successful redeems of ticket %v", arbutil.ErrProtocolInvariant, len(successful), m.RetryableCreationId)
	}
	if len(successful) == 1 {
		return successful[0], nil
	}
	return nil, nil
}

// latestKeepalive returns the newest timeout set by a keepalive in r.
func (m *RetryableMessageReader) latestKeepalive(ctx context.Context, r blockRange) (uint64, bool, error) {
	logs, err := m.ticketLogs(ctx, contracts.LifetimeExtendedID, r)
	if err != nil {
		return 0, false, err
	}
	if len(logs) == 0 {
		return 0, false, nil
	}
	timeouts := make([]uint64, 0, len(logs))
	for _, l := range logs {
		ev, err := contracts.ParseLifetimeExtended(l)
		if err != nil {
			return 0, false, err
		}
		timeouts = append(timeouts, arbmath.BigToUintSaturating(ev.NewTimeout))
	}
	sort.Slice(timeouts, func(i, j int) bool { return timeouts[i] > timeouts[j] })
	return timeouts[0], true, nil
}

// ticketLifetime is the chain's retryable lifetime, or the network's if the chain doesn't report one.
func (m *RetryableMessageReader) ticketLifetime(ctx context.Context) (uint64, error) {
	lifetime, err := m.GetLifetime(ctx)
	if headerreader.IsExecutionReverted(err) || (err == nil && lifetime == 0) {
		log.Debug("chain has no retryable lifetime, using the network's", "lifetime", m.lifetimeSeconds, "err", err)
		return m.lifetimeSeconds, nil
	}
	return lifetime, err
}

// scanForRedeem walks forward from the creation block looking for the redeem of a ticket that no
// longer exists. Chunks are resized to cover about a day of chain time. The scan ends at the
// current head or once the chain passes the ticket's timeout, which keepalives found in scanned
// ranges push back.
func (m *RetryableMessageReader) scanForRedeem(ctx context.Context, creationBlock uint64) (*types.Receipt, error) {
	maxBlock, err := m.l2Client.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	fromBlock, err := m.l2Client.HeaderByNumber(ctx, new(big.Int).SetUint64(creationBlock))
	if err != nil {
		return nil, err
	}
	lifetime, err := m.ticketLifetime(ctx)
	if err != nil {
		return nil, err
	}
	timeout := fromBlock.Time + lifetime
	increment := uint64(initialRedeemScanBlocks)
	var queried []blockRange
	for fromBlock.Number.Uint64() < maxBlock {
		toBlockNumber := arbmath.MinInt(fromBlock.Number.Uint64()+increment, maxBlock)
		current := blockRange{fromBlock.Number.Uint64(), toBlockNumber}
		queried = append(queried, current)
		log.Debug("scanning for redeem", "ticket", m.RetryableCreationId, "fromBlock", current.from, "toBlock", current.to, "increment", increment)

		redeem, err := m.successfulRedeemIn(ctx, current)
		if err != nil || redeem != nil {
			return redeem, err
		}

		toBlock, err := m.l2Client.HeaderByNumber(ctx, new(big.Int).SetUint64(toBlockNumber))
		if err != nil {
			return nil, err
		}
		if toBlock.Time > timeout {
			for len(queried) > 0 {
				r := queried[0]
				queried = queried[1:]
				extended, found, err := m.latestKeepalive(ctx, r)
				if err != nil {
					return nil, err
				}
				if found {
					timeout = extended
					break
				}
			}
			if toBlock.Time > timeout {
				break
			}
			if len(queried) > 1 {
				queried = queried[len(queried)-1:]
			}
		}

		processedSeconds := toBlock.Time - fromBlock.Time
		if processedSeconds != 0 {
			increment = arbmath.DivCeil(increment*redeemScanTargetSeconds, processedSeconds)
		}
		fromBlock = toBlock
	}
	return nil, nil
}
