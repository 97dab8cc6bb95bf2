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

var (
	RedeemScheduledID   = mustEventID(ArbRetryableTxABI, "RedeemScheduled")
	LifetimeExtendedID  = mustEventID(ArbRetryableTxABI, "LifetimeExtended")
	TicketCreatedID     = mustEventID(ArbRetryableTxABI, "TicketCreated")
	NoTicketWithIDError = mustErrorSelector(ArbRetryableTxABI, "NoTicketWithID")

	L2ToL1TxID          = mustEventID(ArbSysABI, "L2ToL1Tx")
	L2ToL1TransactionID = mustEventID(ArbSysABI, "L2ToL1Transaction")
)

type ArbRetryableTx struct {
	boundContract
}

func NewArbRetryableTx(backend bind.ContractBackend) *ArbRetryableTx {
	return &ArbRetryableTx{newBoundContract(ArbRetryableTxAddress, ArbRetryableTxABI, backend)}
}

// GetTimeout returns the timestamp at which ticketId expires. It reverts with NoTicketWithID once
// the ticket is gone.
func (a *ArbRetryableTx) GetTimeout(opts *bind.CallOpts, ticketId common.Hash) (*big.Int, error) {
	out, err := a.call(opts, "getTimeout", ticketId)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (a *ArbRetryableTx) GetBeneficiary(opts *bind.CallOpts, ticketId common.Hash) (common.Address, error) {
	out, err := a.call(opts, "getBeneficiary", ticketId)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (a *ArbRetryableTx) GetLifetime(opts *bind.CallOpts) (*big.Int, error) {
	out, err := a.call(opts, "getLifetime")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (a *ArbRetryableTx) Redeem(opts *bind.TransactOpts, ticketId common.Hash) (*types.Transaction, error) {
	return a.transact(opts, "redeem", ticketId)
}

func (a *ArbRetryableTx) Cancel(opts *bind.TransactOpts, ticketId common.Hash) (*types.Transaction, error) {
	return a.transact(opts, "cancel", ticketId)
}

func (a *ArbRetryableTx) Keepalive(opts *bind.TransactOpts, ticketId common.Hash) (*types.Transaction, error) {
	return a.transact(opts, "keepalive", ticketId)
}

type RedeemScheduled struct {
	TicketId            common.Hash
	RetryTxHash         common.Hash
	SequenceNum         uint64
	DonatedGas          uint64
	GasDonor            common.Address
	MaxRefund           *big.Int
	SubmissionFeeRefund *big.Int
	Raw                 types.Log
}

func ParseRedeemScheduled(log types.Log) (*RedeemScheduled, error) {
	ev := new(RedeemScheduled)
	if err := unpackLog(ArbRetryableTxABI, ev, "RedeemScheduled", log); err != nil {
		return nil, err
	}
	ev.Raw = log
	return ev, nil
}

type LifetimeExtended struct {
	TicketId   common.Hash
	NewTimeout *big.Int
	Raw        types.Log
}

func ParseLifetimeExtended(log types.Log) (*LifetimeExtended, error) {
	ev := new(LifetimeExtended)
	if err := unpackLog(ArbRetryableTxABI, ev, "LifetimeExtended", log); err != nil {
		return nil, err
	}
	ev.Raw = log
	return ev, nil
}

// L2ToL1Tx is the nitro ArbSys withdrawal event.
type L2ToL1Tx struct {
	Caller      common.Address
	Destination common.Address
	Hash        *big.Int
	Position    *big.Int
	ArbBlockNum *big.Int
	EthBlockNum *big.Int
	Timestamp   *big.Int
	Callvalue   *big.Int
	Data        []byte
	Raw         types.Log
}

func ParseL2ToL1Tx(log types.Log) (*L2ToL1Tx, error) {
	ev := new(L2ToL1Tx)
	if err := unpackLog(ArbSysABI, ev, "L2ToL1Tx", log); err != nil {
		return nil, err
	}
	ev.Raw = log
	return ev, nil
}

// L2ToL1Transaction is the classic ArbSys withdrawal event.
type L2ToL1Transaction struct {
	Caller       common.Address
	Destination  common.Address
	UniqueId     *big.Int
	BatchNumber  *big.Int
	IndexInBatch *big.Int
	ArbBlockNum  *big.Int
	EthBlockNum  *big.Int
	Timestamp    *big.Int
	Callvalue    *big.Int
	Data         []byte
	Raw          types.Log
}

func ParseL2ToL1Transaction(log types.Log) (*L2ToL1Transaction, error) {
	ev := new(L2ToL1Transaction)
	if err := unpackLog(ArbSysABI, ev, "L2ToL1Transaction", log); err != nil {
		return nil, err
	}
	ev.Raw = log
	return ev, nil
}

type ArbSys struct {
	boundContract
}

func NewArbSys(backend bind.ContractBackend) *ArbSys {
	return &ArbSys{newBoundContract(ArbSysAddress, ArbSysABI, backend)}
}

func (a *ArbSys) ArbChainID(opts *bind.CallOpts) (*big.Int, error) {
	out, err := a.call(opts, "arbChainID")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
