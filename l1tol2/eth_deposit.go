// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l1tol2

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/offchainlabs/arbmsg/arbos/retryables"
	"github.com/offchainlabs/arbmsg/arbutil"
)

// EthDepositMessage is a deposit of the chain's native currency. It has no creation step, the
// deposit transaction either exists on the arbitrum chain or it doesn't yet.
type EthDepositMessage struct {
	l2Client arbutil.ChainClient

	ChainId         *big.Int
	MessageNumber   *big.Int
	From            common.Address
	To              common.Address
	Value           *big.Int
	L2DepositTxHash common.Hash

	mutex   sync.Mutex
	receipt *types.Receipt
}

func NewEthDepositMessage(l2Client arbutil.ChainClient, chainId *big.Int, messageNumber *big.Int, from, to common.Address, value *big.Int) *EthDepositMessage {
	return &EthDepositMessage{
		l2Client:        l2Client,
		ChainId:         chainId,
		MessageNumber:   messageNumber,
		From:            from,
		To:              to,
		Value:           value,
		L2DepositTxHash: retryables.CalculateDepositTxId(chainId, messageNumber, from, to, value),
	}
}

// EthDepositMessageFromEventComponents builds the deposit from a delivered message's sender and data.
func EthDepositMessageFromEventComponents(l2Client arbutil.ChainClient, chainId *big.Int, messageNumber *big.Int, sender common.Address, data []byte) (*EthDepositMessage, error) {
	to, value, err := retryables.ParseEthDepositMessage(data)
	if err != nil {
		return nil, err
	}
	return NewEthDepositMessage(l2Client, chainId, messageNumber, sender, to, value), nil
}

func (m *EthDepositMessage) Status(ctx context.Context) (EthDepositStatus, error) {
	receipt, err := m.getReceipt(ctx, 0, 0)
	if err != nil {
		return 0, err
	}
	if receipt == nil {
		return DepositPending, nil
	}
	return Deposited, nil
}

// Wait waits for the deposit transaction. Running out of timeout fails with arbutil.ErrNotFound.
func (m *EthDepositMessage) Wait(ctx context.Context, confirmations uint64, timeout time.Duration) (*types.Receipt, error) {
	return m.getReceipt(ctx, confirmations, timeout)
}

func (m *EthDepositMessage) getReceipt(ctx context.Context, confirmations uint64, timeout time.Duration) (*types.Receipt, error) {
	m.mutex.Lock()
	cached := m.receipt
	m.mutex.Unlock()
	if cached != nil {
		return cached, nil
	}
	var receipt *types.Receipt
	var err error
	if confirmations == 0 && timeout == 0 {
		receipt, err = arbutil.GetReceipt(ctx, m.l2Client, m.L2DepositTxHash)
	} else {
		receipt, err = arbutil.WaitForReceipt(ctx, m.l2Client, m.L2DepositTxHash, confirmations, timeout)
	}
	if err != nil || receipt == nil {
		return nil, err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.receipt == nil {
		m.receipt = receipt
	}
	return m.receipt, nil
}
