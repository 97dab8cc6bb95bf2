// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package arbutil

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
)

// ChainClient is what this library needs from a chain RPC client, on either layer.
// *ethclient.Client satisfies it.
type ChainClient interface {
	bind.ContractBackend
	ethereum.TransactionReader
	HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error)
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

func SendTxAsCall(ctx context.Context, client ChainClient, tx *types.Transaction, from common.Address, blockNum *big.Int, unlimitedGas bool) ([]byte, error) {
	var gas uint64
	if unlimitedGas {
		gas = 0
	} else {
		gas = tx.Gas()
	}
	callMsg := ethereum.CallMsg{
		From:       from,
		To:         tx.To(),
		Gas:        gas,
		GasPrice:   tx.GasPrice(),
		GasFeeCap:  tx.GasFeeCap(),
		GasTipCap:  tx.GasTipCap(),
		Value:      tx.Value(),
		Data:       tx.Data(),
		AccessList: tx.AccessList(),
	}
	return client.CallContract(ctx, callMsg, blockNum)
}

// DetailTxError re-executes a failed transaction as a call to get a better error.
func DetailTxError(ctx context.Context, client ChainClient, tx *types.Transaction, from common.Address, txRes *types.Receipt) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if txRes == nil {
		return errors.New("expected receipt")
	}
	if txRes.Status == types.ReceiptStatusSuccessful {
		return nil
	}
	_, err := SendTxAsCall(ctx, client, tx, from, txRes.BlockNumber, false)
	if err == nil {
		return fmt.Errorf("tx failed but call succeeded for tx hash %v", tx.Hash())
	}
	_, err = SendTxAsCall(ctx, client, tx, from, txRes.BlockNumber, true)
	if err == nil {
		return fmt.Errorf("%w for tx hash %v", vm.ErrOutOfGas, tx.Hash())
	}
	return fmt.Errorf("SendTxAsCall got: %w for tx hash %v", err, tx.Hash())
}

// GetLogEmitterTxData returns the calldata of the transaction that emitted log, which must have
// called the emitting contract directly.
func GetLogEmitterTxData(ctx context.Context, client ChainClient, log types.Log) ([]byte, error) {
	tx, _, err := client.TransactionByHash(ctx, log.TxHash)
	if err != nil {
		return nil, err
	}
	if tx.To() == nil || *tx.To() != log.Address {
		return nil, fmt.Errorf("log %v of tx %v was not emitted by the called contract", log.Index, log.TxHash)
	}
	return tx.Data(), nil
}
