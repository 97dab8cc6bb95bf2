// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// NodeInterface is the virtual contract at 0xc8 that arbitrum nodes answer calls to.
type NodeInterface struct {
	boundContract
	backend bind.ContractBackend
}

func NewNodeInterface(backend bind.ContractBackend) *NodeInterface {
	return &NodeInterface{
		boundContract: newBoundContract(NodeInterfaceAddress, NodeInterfaceABI, backend),
		backend:       backend,
	}
}

type OutboxProof struct {
	Send  [32]byte
	Root  [32]byte
	Proof [][32]byte
}

func (n *NodeInterface) ConstructOutboxProof(opts *bind.CallOpts, size uint64, leaf uint64) (*OutboxProof, error) {
	out, err := n.call(opts, "constructOutboxProof", size, leaf)
	if err != nil {
		return nil, err
	}
	return &OutboxProof{
		Send:  *abi.ConvertType(out[0], new([32]byte)).(*[32]byte),
		Root:  *abi.ConvertType(out[1], new([32]byte)).(*[32]byte),
		Proof: *abi.ConvertType(out[2], new([][32]byte)).(*[][32]byte),
	}, nil
}

// EstimateRetryableTicket returns the L2 gas a retryable ticket with these parameters would use.
// The method itself never returns, the estimate comes from eth_estimateGas.
func (n *NodeInterface) EstimateRetryableTicket(
	ctx context.Context,
	sender common.Address,
	deposit *big.Int,
	to common.Address,
	l2CallValue *big.Int,
	excessFeeRefundAddress common.Address,
	callValueRefundAddress common.Address,
	data []byte,
) (uint64, error) {
	calldata, err := n.abi.Pack("estimateRetryableTicket", sender, deposit, to, l2CallValue, excessFeeRefundAddress, callValueRefundAddress, data)
	if err != nil {
		return 0, err
	}
	return n.backend.EstimateGas(ctx, ethereum.CallMsg{
		To:   &n.address,
		Data: calldata,
	})
}

func (n *NodeInterface) FindBatchContainingBlock(opts *bind.CallOpts, blockNum uint64) (uint64, error) {
	out, err := n.call(opts, "findBatchContainingBlock", blockNum)
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint64)).(*uint64), nil
}

func (n *NodeInterface) GetL1Confirmations(opts *bind.CallOpts, blockHash common.Hash) (uint64, error) {
	out, err := n.call(opts, "getL1Confirmations", blockHash)
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint64)).(*uint64), nil
}

type GasEstimateComponents struct {
	GasEstimate       uint64
	GasEstimateForL1  uint64
	BaseFee           *big.Int
	L1BaseFeeEstimate *big.Int
}

func (n *NodeInterface) GasEstimateComponents(opts *bind.CallOpts, to common.Address, contractCreation bool, data []byte) (*GasEstimateComponents, error) {
	out, err := n.call(opts, "gasEstimateComponents", to, contractCreation, data)
	if err != nil {
		return nil, err
	}
	return &GasEstimateComponents{
		GasEstimate:       *abi.ConvertType(out[0], new(uint64)).(*uint64),
		GasEstimateForL1:  *abi.ConvertType(out[1], new(uint64)).(*uint64),
		BaseFee:           *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		L1BaseFeeEstimate: *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
	}, nil
}

// L2BlockRangeForL1 returns the first and last L2 blocks whose L1 block number is blockNum.
func (n *NodeInterface) L2BlockRangeForL1(opts *bind.CallOpts, blockNum uint64) (uint64, uint64, error) {
	out, err := n.call(opts, "l2BlockRangeForL1", blockNum)
	if err != nil {
		return 0, 0, err
	}
	return *abi.ConvertType(out[0], new(uint64)).(*uint64), *abi.ConvertType(out[1], new(uint64)).(*uint64), nil
}

// LegacyMessageBatchProof is what a classic outbox needs to execute a withdrawal.
type LegacyMessageBatchProof struct {
	Proof         [][32]byte
	Path          *big.Int
	L2Sender      common.Address
	L1Dest        common.Address
	L2Block       *big.Int
	L1Block       *big.Int
	Timestamp     *big.Int
	Amount        *big.Int
	CalldataForL1 []byte
}

func (n *NodeInterface) LegacyLookupMessageBatchProof(opts *bind.CallOpts, batchNum *big.Int, index uint64) (*LegacyMessageBatchProof, error) {
	out, err := n.call(opts, "legacyLookupMessageBatchProof", batchNum, index)
	if err != nil {
		return nil, err
	}
	return &LegacyMessageBatchProof{
		Proof:         *abi.ConvertType(out[0], new([][32]byte)).(*[][32]byte),
		Path:          *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		L2Sender:      *abi.ConvertType(out[2], new(common.Address)).(*common.Address),
		L1Dest:        *abi.ConvertType(out[3], new(common.Address)).(*common.Address),
		L2Block:       *abi.ConvertType(out[4], new(*big.Int)).(**big.Int),
		L1Block:       *abi.ConvertType(out[5], new(*big.Int)).(**big.Int),
		Timestamp:     *abi.ConvertType(out[6], new(*big.Int)).(**big.Int),
		Amount:        *abi.ConvertType(out[7], new(*big.Int)).(**big.Int),
		CalldataForL1: *abi.ConvertType(out[8], new([]byte)).(*[]byte),
	}, nil
}

func (n *NodeInterface) NitroGenesisBlock(opts *bind.CallOpts) (*big.Int, error) {
	out, err := n.call(opts, "nitroGenesisBlock")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
