// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l2tol1

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/cmd/chaininfo"
	"github.com/offchainlabs/arbmsg/contracts"
)

// EventFilter is an inclusive arbitrum block range. A nil FromBlock means genesis and a nil
// ToBlock means the latest block.
type EventFilter struct {
	FromBlock *big.Int
	ToBlock   *big.Int
}

// eraRanges splits filter at the nitro genesis block. A nil range means the era isn't covered.
func eraRanges(filter EventFilter, nitroGenesis uint64) (classic, nitro *EventFilter) {
	from := uint64(0)
	if filter.FromBlock != nil {
		from = filter.FromBlock.Uint64()
	}
	if from < nitroGenesis {
		to := nitroGenesis - 1
		if filter.ToBlock != nil && filter.ToBlock.Uint64() < to {
			to = filter.ToBlock.Uint64()
		}
		if from <= to {
			classic = &EventFilter{FromBlock: new(big.Int).SetUint64(from), ToBlock: new(big.Int).SetUint64(to)}
		}
	}
	nitroFrom := from
	if nitroFrom < nitroGenesis {
		nitroFrom = nitroGenesis
	}
	if filter.ToBlock == nil || filter.ToBlock.Uint64() >= nitroFrom {
		nitro = &EventFilter{FromBlock: new(big.Int).SetUint64(nitroFrom), ToBlock: filter.ToBlock}
	}
	return classic, nitro
}

func optionalTopic(hash *common.Hash) []common.Hash {
	if hash == nil {
		return nil
	}
	return []common.Hash{*hash}
}

func bigTopic(value *big.Int) []common.Hash {
	if value == nil {
		return nil
	}
	return []common.Hash{common.BigToHash(value)}
}

func addressTopic(address *common.Address) []common.Hash {
	if address == nil {
		return nil
	}
	hash := common.BytesToHash(address.Bytes())
	return optionalTopic(&hash)
}

func queryWithdrawals(ctx context.Context, client arbutil.ChainClient, filter *EventFilter, topics [][]common.Hash) ([]L2ToL1Event, error) {
	logs, err := client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: filter.FromBlock,
		ToBlock:   filter.ToBlock,
		Addresses: []common.Address{contracts.ArbSysAddress},
		Topics:    topics,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	events := make([]L2ToL1Event, 0, len(logs))
	for _, ethLog := range logs {
		ev, err := ParseL2ToL1Event(ethLog)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// GetL2ToL1Events returns the withdrawals in filter matching the optional criteria. For classic
// withdrawals position is the batch number and indexInBatch narrows it to one withdrawal; for
// nitro withdrawals position is the position in the send tree. The classic and nitro parts of the
// range are queried concurrently, and classic events come first.
func GetL2ToL1Events(
	ctx context.Context,
	l2Client arbutil.ChainClient,
	network *chaininfo.ArbitrumNetwork,
	filter EventFilter,
	position *big.Int,
	destination *common.Address,
	hash *big.Int,
	indexInBatch *big.Int,
) ([]L2ToL1Event, error) {
	classicRange, nitroRange := eraRanges(filter, network.NitroGenesisBlock)
	var classicEvents, nitroEvents []L2ToL1Event
	g, gctx := errgroup.WithContext(ctx)
	if classicRange != nil {
		g.Go(func() error {
			topics := [][]common.Hash{{contracts.L2ToL1TransactionID}, addressTopic(destination), bigTopic(hash), bigTopic(position)}
			events, err := queryWithdrawals(gctx, l2Client, classicRange, topics)
			if err != nil {
				return err
			}
			for _, ev := range events {
				classic, ok := ev.(*ClassicL2ToL1Event)
				if !ok {
					continue
				}
				if indexInBatch != nil && classic.IndexInBatch.Cmp(indexInBatch) != 0 {
					continue
				}
				classicEvents = append(classicEvents, classic)
			}
			return nil
		})
	}
	if nitroRange != nil {
		g.Go(func() error {
			topics := [][]common.Hash{{contracts.L2ToL1TxID}, addressTopic(destination), bigTopic(hash), bigTopic(position)}
			events, err := queryWithdrawals(gctx, l2Client, nitroRange, topics)
			if err != nil {
				return err
			}
			nitroEvents = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debug("found withdrawals", "classic", len(classicEvents), "nitro", len(nitroEvents))
	return append(classicEvents, nitroEvents...), nil
}
