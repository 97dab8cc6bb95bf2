// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/l2tol1"
	"github.com/offchainlabs/arbmsg/util/colors"
)

func startWithdrawalStatus(ctx context.Context, args []string) error {
	config, err := parseWithdrawalStatusConfig(args)
	if err != nil {
		return err
	}
	if err := config.initLog(); err != nil {
		return err
	}
	conns, err := config.connect(ctx, true)
	if err != nil {
		return err
	}
	defer conns.Close()

	receipt, err := arbutil.GetReceipt(ctx, conns.l2Client, common.HexToHash(config.Tx))
	if err != nil {
		return fmt.Errorf("error fetching arbitrum chain receipt: %w", err)
	}
	if receipt == nil {
		return fmt.Errorf("%w: arbitrum chain transaction %s", arbutil.ErrNotFound, config.Tx)
	}
	l2Receipt := l2tol1.NewL2TransactionReceipt(receipt)

	batch, err := l2Receipt.GetBatchNumber(ctx, conns.l2Client)
	if err != nil {
		log.Warn("transaction's batch not found, it may not be posted yet", "tx", config.Tx, "err", err)
	} else {
		confirmations, err := l2Receipt.GetBatchConfirmations(ctx, conns.l2Client)
		if err != nil {
			return err
		}
		fmt.Printf("posted in batch %v with %v confirmations\n", batch, confirmations)
	}

	executor, err := signer(ctx, conns.l1Client, config.Execute, "parent chain", &config.ParentChain.Wallet)
	if err != nil {
		return err
	}
	chains := &l2tol1.Chains{
		L1Client: conns.l1Client,
		L2Client: conns.l2Client,
		Network:  conns.network,
	}
	messages, err := l2Receipt.GetL2ToL1Messages(chains, executor)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		log.Warn("transaction sent no withdrawals", "tx", config.Tx)
	}
	for i, message := range messages {
		if err := reportWithdrawal(ctx, config, conns, executor, i, message); err != nil {
			return err
		}
	}
	return nil
}

func reportWithdrawal(
	ctx context.Context,
	config *WithdrawalStatusConfig,
	conns *connections,
	executor *bind.TransactOpts,
	index int,
	message l2tol1.L2ToL1Message,
) error {
	event := message.Event()
	status, err := message.Status(ctx)
	if err != nil {
		return err
	}
	color := colors.Yellow
	switch status {
	case l2tol1.Confirmed:
		color = colors.Mint
	case l2tol1.Executed:
		color = colors.Grey
	}
	fmt.Printf("withdrawal %d: from %v to %v value %v status %s\n", index, event.Sender(), event.To(), event.Value(), colors.Paint(color, status))
	if status == l2tol1.Unconfirmed {
		block, ok, err := message.GetFirstExecutableBlock(ctx)
		if err != nil {
			return err
		}
		if ok {
			fmt.Printf("  executable from parent chain block %v\n", block)
		}
	}

	writer, ok := message.(l2tol1.L2ToL1MessageWriter)
	if !ok || !status.IsReadyToExecute() {
		return nil
	}
	tx, err := writer.Execute(ctx)
	if err != nil {
		return err
	}
	executed, err := arbutil.WaitForTx(ctx, conns.l1Client, tx, executor.From, config.Timeout)
	if err != nil {
		return err
	}
	log.Info("executed withdrawal", "tx", executed.TxHash, "status", executed.Status)
	return nil
}
