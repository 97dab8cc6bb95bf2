// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package arbnode

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/contracts"
)

type SequencerInbox struct {
	con     *contracts.SequencerInbox
	address common.Address
}

func NewSequencerInbox(client arbutil.ChainClient, addr common.Address) *SequencerInbox {
	return &SequencerInbox{
		con:     contracts.NewSequencerInbox(addr, client),
		address: addr,
	}
}

// MaxTimeVariation returns how far the sequencer may move messages in blocks and seconds.
func (i *SequencerInbox) MaxTimeVariation(ctx context.Context, blockNumber *big.Int) (*contracts.MaxTimeVariation, error) {
	opts := &bind.CallOpts{
		Context:     ctx,
		BlockNumber: blockNumber,
	}
	variation, err := i.con.MaxTimeVariation(opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return variation, nil
}
