// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/l1tol2"
	"github.com/offchainlabs/arbmsg/util/colors"
)

func startDepositStatus(ctx context.Context, args []string) error {
	config, err := parseDepositStatusConfig(args)
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

	receipt, err := arbutil.GetReceipt(ctx, conns.l1Client, common.HexToHash(config.Tx))
	if err != nil {
		return fmt.Errorf("error fetching parent chain receipt: %w", err)
	}
	if receipt == nil {
		return fmt.Errorf("%w: parent chain transaction %s", arbutil.ErrNotFound, config.Tx)
	}
	l1Receipt := l1tol2.NewL1TransactionReceipt(receipt, conns.l1Client, conns.network)

	deposits, err := l1Receipt.GetEthDeposits(ctx, conns.l2Client)
	if err != nil {
		return err
	}
	for _, deposit := range deposits {
		status, err := deposit.Status(ctx)
		if err != nil {
			return err
		}
		if config.Wait && status != l1tol2.Deposited {
			if _, err := deposit.Wait(ctx, config.Confirmations, config.Timeout); err != nil {
				return err
			}
			status = l1tol2.Deposited
		}
		color := colors.Yellow
		if status == l1tol2.Deposited {
			color = colors.Mint
		}
		fmt.Printf("eth deposit %v: to %v value %v l2 tx %v status %s\n", deposit.MessageNumber, deposit.To, deposit.Value, deposit.L2DepositTxHash, colors.Paint(color, status))
	}

	if l1Receipt.IsClassic() {
		return printClassicRetryables(ctx, l1Receipt, conns)
	}

	redeemer, err := signer(ctx, conns.l2Client, config.Redeem, "chain", &config.Chain.Wallet)
	if err != nil {
		return err
	}
	messages, err := l1Receipt.GetRetryableMessages(ctx, conns.l2Client, redeemer)
	if err != nil {
		return err
	}
	for _, message := range messages {
		if err := reportRetryable(ctx, config, message); err != nil {
			return err
		}
	}
	if len(deposits) == 0 && len(messages) == 0 {
		log.Warn("transaction sent no messages to the arbitrum chain", "tx", config.Tx, "network", conns.network.ChainName)
	}
	return nil
}

func paintRetryableStatus(status l1tol2.RetryableMessageStatus) string {
	switch status {
	case l1tol2.Redeemed:
		return colors.Paint(colors.Mint, status)
	case l1tol2.CreationFailed, l1tol2.Expired:
		return colors.Paint(colors.Red, status)
	default:
		return colors.Paint(colors.Yellow, status)
	}
}

func reportRetryable(ctx context.Context, config *DepositStatusConfig, message l1tol2.RetryableMessage) error {
	var result *l1tol2.RedeemResult
	var err error
	if config.Wait {
		result, err = message.WaitForStatus(ctx, config.Confirmations, config.Timeout)
	} else {
		result, err = message.GetSuccessfulRedeem(ctx)
	}
	if err != nil {
		return err
	}
	fmt.Printf("retryable %v: status %s\n", message.CreationId(), paintRetryableStatus(result.Status))
	if result.Receipt != nil {
		fmt.Printf("  redeemed in %v at block %v\n", result.Receipt.TxHash, result.Receipt.BlockNumber)
	}
	if result.Status == l1tol2.FundsDepositedOnL2 {
		timeout, err := message.GetTimeout(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("  expires at %v\n", timeout)
	}

	writer, ok := message.(*l1tol2.RetryableMessageWriter)
	if !ok || result.Status != l1tol2.FundsDepositedOnL2 {
		return nil
	}
	redeem, err := writer.Redeem(ctx)
	if err != nil {
		return err
	}
	redeemReceipt, err := redeem.WaitForRedeem(ctx, config.Timeout)
	if err != nil {
		return err
	}
	log.Info("redeemed retryable", "ticket", message.CreationId(), "tx", redeemReceipt.TxHash, "status", redeemReceipt.Status)
	return nil
}

func printClassicRetryables(ctx context.Context, l1Receipt *l1tol2.L1TransactionReceipt, conns *connections) error {
	messages, err := l1Receipt.GetClassicRetryableMessages(ctx, conns.l2Client)
	if err != nil {
		return err
	}
	for _, message := range messages {
		status, err := message.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("classic retryable %v: status %s auto redeem %v l2 tx %v\n", message.CreationId(), paintRetryableStatus(status), message.AutoRedeemId, message.L2TxHash)
	}
	return nil
}
