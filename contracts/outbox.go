// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Outbox is the nitro outbox.
type Outbox struct {
	boundContract
}

func NewOutbox(address common.Address, backend bind.ContractBackend) *Outbox {
	return &Outbox{newBoundContract(address, OutboxABI, backend)}
}

func (o *Outbox) IsSpent(opts *bind.CallOpts, index *big.Int) (bool, error) {
	out, err := o.call(opts, "isSpent", index)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (o *Outbox) ExecuteTransaction(
	opts *bind.TransactOpts,
	proof [][32]byte,
	index *big.Int,
	l2Sender common.Address,
	to common.Address,
	l2Block *big.Int,
	l1Block *big.Int,
	l2Timestamp *big.Int,
	value *big.Int,
	data []byte,
) (*types.Transaction, error) {
	return o.transact(opts, "executeTransaction", proof, index, l2Sender, to, l2Block, l1Block, l2Timestamp, value, data)
}

// ClassicOutbox is a pre-nitro outbox, one per range of classic batches.
type ClassicOutbox struct {
	boundContract
}

func NewClassicOutbox(address common.Address, backend bind.ContractBackend) *ClassicOutbox {
	return &ClassicOutbox{newBoundContract(address, ClassicOutboxABI, backend)}
}

func (o *ClassicOutbox) OutboxEntryExists(opts *bind.CallOpts, batchNum *big.Int) (bool, error) {
	out, err := o.call(opts, "outboxEntryExists", batchNum)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

type ClassicExecuteArgs struct {
	BatchNum      *big.Int
	Proof         [][32]byte
	Index         *big.Int
	L2Sender      common.Address
	DestAddr      common.Address
	L2Block       *big.Int
	L1Block       *big.Int
	L2Timestamp   *big.Int
	Amount        *big.Int
	CalldataForL1 []byte
}

func (a *ClassicExecuteArgs) values() []interface{} {
	return []interface{}{a.BatchNum, a.Proof, a.Index, a.L2Sender, a.DestAddr, a.L2Block, a.L1Block, a.L2Timestamp, a.Amount, a.CalldataForL1}
}

// CallExecuteTransaction replays executeTransaction without sending it.
func (o *ClassicOutbox) CallExecuteTransaction(opts *bind.CallOpts, args *ClassicExecuteArgs) error {
	_, err := o.call(opts, "executeTransaction", args.values()...)
	return err
}

func (o *ClassicOutbox) ExecuteTransaction(opts *bind.TransactOpts, args *ClassicExecuteArgs) (*types.Transaction, error) {
	return o.transact(opts, "executeTransaction", args.values()...)
}
