// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l2tol1

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/offchainlabs/arbmsg/contracts"
)

// L2ToL1Event is a withdrawal emitted by ArbSys. It is a *ClassicL2ToL1Event for withdrawals
// made before nitro, which are identified by batch and index, or a *NitroL2ToL1Event, which is
// identified by its position in the send merkle tree.
type L2ToL1Event interface {
	Log() types.Log
	Sender() common.Address
	To() common.Address
	Value() *big.Int
	Calldata() []byte
}

type ClassicL2ToL1Event struct {
	*contracts.L2ToL1Transaction
}

func (e *ClassicL2ToL1Event) Log() types.Log         { return e.Raw }
func (e *ClassicL2ToL1Event) Sender() common.Address { return e.Caller }
func (e *ClassicL2ToL1Event) To() common.Address     { return e.Destination }
func (e *ClassicL2ToL1Event) Value() *big.Int        { return e.Callvalue }
func (e *ClassicL2ToL1Event) Calldata() []byte       { return e.Data }

type NitroL2ToL1Event struct {
	*contracts.L2ToL1Tx
}

func (e *NitroL2ToL1Event) Log() types.Log         { return e.Raw }
func (e *NitroL2ToL1Event) Sender() common.Address { return e.Caller }
func (e *NitroL2ToL1Event) To() common.Address     { return e.Destination }
func (e *NitroL2ToL1Event) Value() *big.Int        { return e.Callvalue }
func (e *NitroL2ToL1Event) Calldata() []byte       { return e.Data }

var errNotWithdrawal = errors.New("log is not an ArbSys withdrawal event")

// ParseL2ToL1Event decodes an ArbSys L2ToL1Tx or L2ToL1Transaction log.
func ParseL2ToL1Event(log types.Log) (L2ToL1Event, error) {
	if log.Address != contracts.ArbSysAddress || len(log.Topics) == 0 {
		return nil, errNotWithdrawal
	}
	switch log.Topics[0] {
	case contracts.L2ToL1TxID:
		ev, err := contracts.ParseL2ToL1Tx(log)
		if err != nil {
			return nil, err
		}
		return &NitroL2ToL1Event{ev}, nil
	case contracts.L2ToL1TransactionID:
		ev, err := contracts.ParseL2ToL1Transaction(log)
		if err != nil {
			return nil, err
		}
		return &ClassicL2ToL1Event{ev}, nil
	default:
		return nil, errNotWithdrawal
	}
}
