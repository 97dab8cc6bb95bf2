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

var NodeCreatedID = mustEventID(RollupABI, "NodeCreated")

type GlobalState struct {
	Bytes32Vals [2][32]byte
	U64Vals     [2]uint64
}

// BlockHash is the hash of the last L2 block the state commits to.
func (s GlobalState) BlockHash() common.Hash {
	return s.Bytes32Vals[0]
}

func (s GlobalState) SendRoot() common.Hash {
	return s.Bytes32Vals[1]
}

type ExecutionState struct {
	GlobalState   GlobalState
	MachineStatus uint8
}

type Assertion struct {
	BeforeState ExecutionState
	AfterState  ExecutionState
	NumBlocks   uint64
}

type NodeCreated struct {
	NodeNum            uint64
	ParentNodeHash     [32]byte
	NodeHash           [32]byte
	ExecutionHash      [32]byte
	Assertion          Assertion
	AfterInboxBatchAcc [32]byte
	WasmModuleRoot     [32]byte
	InboxMaxCount      *big.Int
	Raw                types.Log
}

func ParseNodeCreated(log types.Log) (*NodeCreated, error) {
	ev := new(NodeCreated)
	if err := unpackLog(RollupABI, ev, "NodeCreated", log); err != nil {
		return nil, err
	}
	ev.Raw = log
	return ev, nil
}

// Node is the on-chain record of a rollup assertion.
type Node struct {
	StateHash                   [32]byte
	ChallengeHash               [32]byte
	ConfirmData                 [32]byte
	PrevNum                     uint64
	DeadlineBlock               uint64
	NoChildConfirmedBeforeBlock uint64
	StakerCount                 uint64
	ChildStakerCount            uint64
	FirstChildBlock             uint64
	LatestChildNumber           uint64
	CreatedAtBlock              uint64
	NodeHash                    [32]byte
}

type Rollup struct {
	boundContract
}

func NewRollup(address common.Address, backend bind.ContractBackend) *Rollup {
	return &Rollup{newBoundContract(address, RollupABI, backend)}
}

func (r *Rollup) GetNode(opts *bind.CallOpts, nodeNum uint64) (*Node, error) {
	out, err := r.call(opts, "getNode", nodeNum)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(Node)).(*Node), nil
}

func (r *Rollup) LatestConfirmed(opts *bind.CallOpts) (uint64, error) {
	return r.uint64Getter(opts, "latestConfirmed")
}

func (r *Rollup) LatestNodeCreated(opts *bind.CallOpts) (uint64, error) {
	return r.uint64Getter(opts, "latestNodeCreated")
}

func (r *Rollup) ConfirmPeriodBlocks(opts *bind.CallOpts) (uint64, error) {
	return r.uint64Getter(opts, "confirmPeriodBlocks")
}

func (r *Rollup) uint64Getter(opts *bind.CallOpts, method string) (uint64, error) {
	out, err := r.call(opts, method)
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint64)).(*uint64), nil
}
