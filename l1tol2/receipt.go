// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l1tol2

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/arbmsg/arbnode"
	"github.com/offchainlabs/arbmsg/arbos/retryables"
	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/cmd/chaininfo"
)

// L1TransactionReceipt is the receipt of a parent chain transaction that sent messages to an
// arbitrum chain.
type L1TransactionReceipt struct {
	*types.Receipt
	l1Client arbutil.ChainClient
	network  *chaininfo.ArbitrumNetwork
}

func NewL1TransactionReceipt(receipt *types.Receipt, l1Client arbutil.ChainClient, network *chaininfo.ArbitrumNetwork) *L1TransactionReceipt {
	return &L1TransactionReceipt{Receipt: receipt, l1Client: l1Client, network: network}
}

// IsClassic is true if the transaction was mined before the network's nitro upgrade.
func (r *L1TransactionReceipt) IsClassic() bool {
	return r.network.IsClassicL1Block(r.BlockNumber.Uint64())
}

// DelayedMessages returns the messages the transaction delivered to the network's bridge.
func (r *L1TransactionReceipt) DelayedMessages(ctx context.Context) ([]*arbnode.DelayedInboxMessage, error) {
	bridge := arbnode.NewDelayedBridge(r.l1Client, r.network.EthBridge.Bridge, 0)
	return bridge.MessagesInReceipt(ctx, r.Receipt)
}

func (r *L1TransactionReceipt) messagesOfKind(ctx context.Context, kind uint8) ([]*arbnode.DelayedInboxMessage, error) {
	messages, err := r.DelayedMessages(ctx)
	if err != nil {
		return nil, err
	}
	var filtered []*arbnode.DelayedInboxMessage
	for _, msg := range messages {
		if msg.Header.Kind == kind {
			filtered = append(filtered, msg)
		}
	}
	return filtered, nil
}

// GetRetryableMessages returns the retryable tickets the transaction created, as writers if signer
// is set.
func (r *L1TransactionReceipt) GetRetryableMessages(ctx context.Context, l2Client arbutil.ChainClient, signer *bind.TransactOpts) ([]RetryableMessage, error) {
	if r.IsClassic() {
		return nil, fmt.Errorf("transaction %v predates nitro, use GetClassicRetryableMessages", r.TxHash)
	}
	messages, err := r.messagesOfKind(ctx, retryables.L1MessageType_SubmitRetryable)
	if err != nil {
		return nil, err
	}
	result := make([]RetryableMessage, 0, len(messages))
	for _, msg := range messages {
		params, err := retryables.ParseSubmitRetryableMessage(msg.Data)
		if err != nil {
			return nil, fmt.Errorf("retryable message %v: %w", msg.Header.MessageNumber(), err)
		}
		result = append(result, NewRetryableMessage(l2Client, r.network, msg.Header.Sender, msg.Header.MessageNumber(), msg.Header.L1BaseFee, params, signer))
	}
	log.Debug("found retryable messages", "tx", r.TxHash, "count", len(result))
	return result, nil
}

func (r *L1TransactionReceipt) GetClassicRetryableMessages(ctx context.Context, l2Client arbutil.ChainClient) ([]*ClassicRetryableMessageReader, error) {
	if !r.IsClassic() {
		return nil, fmt.Errorf("transaction %v is a nitro transaction, use GetRetryableMessages", r.TxHash)
	}
	messages, err := r.messagesOfKind(ctx, retryables.L1MessageType_SubmitRetryable)
	if err != nil {
		return nil, err
	}
	chainId := new(big.Int).SetUint64(r.network.ChainId)
	result := make([]*ClassicRetryableMessageReader, 0, len(messages))
	for _, msg := range messages {
		result = append(result, NewClassicRetryableMessageReader(l2Client, chainId, msg.Header.MessageNumber()))
	}
	return result, nil
}

// GetEthDeposits returns the eth deposits the transaction made.
func (r *L1TransactionReceipt) GetEthDeposits(ctx context.Context, l2Client arbutil.ChainClient) ([]*EthDepositMessage, error) {
	messages, err := r.messagesOfKind(ctx, retryables.L1MessageType_EthDeposit)
	if err != nil {
		return nil, err
	}
	chainId := new(big.Int).SetUint64(r.network.ChainId)
	result := make([]*EthDepositMessage, 0, len(messages))
	for _, msg := range messages {
		deposit, err := EthDepositMessageFromEventComponents(l2Client, chainId, msg.Header.MessageNumber(), msg.Header.Sender, msg.Data)
		if err != nil {
			return nil, fmt.Errorf("eth deposit message %v: %w", msg.Header.MessageNumber(), err)
		}
		result = append(result, deposit)
	}
	return result, nil
}
