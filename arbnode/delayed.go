// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package arbnode

import (
	"context"
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/contracts"
	"github.com/offchainlabs/arbmsg/util/arbmath"
	"github.com/offchainlabs/arbmsg/util/headerreader"
)

type DelayedBridge struct {
	con       *contracts.Bridge
	address   common.Address
	fromBlock uint64
	client    arbutil.ChainClient
}

func NewDelayedBridge(client arbutil.ChainClient, addr common.Address, fromBlock uint64) *DelayedBridge {
	return &DelayedBridge{
		con:       contracts.NewBridge(addr, client),
		address:   addr,
		fromBlock: fromBlock,
		client:    client,
	}
}

func (b *DelayedBridge) GetMessageCount(ctx context.Context, blockNumber *big.Int) (uint64, error) {
	if (blockNumber != nil) && blockNumber.Cmp(new(big.Int).SetUint64(b.fromBlock)) < 0 {
		return 0, nil
	}
	opts := &bind.CallOpts{
		Context:     ctx,
		BlockNumber: blockNumber,
	}
	bigRes, err := b.con.DelayedMessageCount(opts)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	if !bigRes.IsUint64() {
		return 0, errors.New("DelayedBridge MessageCount doesn't make sense!")
	}
	return bigRes.Uint64(), nil
}

// GetAccumulator returns the delayed inbox accumulator after message sequenceNumber.
func (b *DelayedBridge) GetAccumulator(ctx context.Context, sequenceNumber uint64, blockNumber *big.Int) (common.Hash, error) {
	opts := &bind.CallOpts{
		Context:     ctx,
		BlockNumber: blockNumber,
	}
	acc, err := b.con.DelayedInboxAccs(opts, new(big.Int).SetUint64(sequenceNumber))
	if err != nil {
		return common.Hash{}, errors.WithStack(err)
	}
	return acc, nil
}

// maxAllowedOutboxes bounds the allowedOutboxList enumeration.
const maxAllowedOutboxes = 64

// AllowedOutboxes lists the outboxes the bridge lets execute messages. The list has no length
// getter, so it is read until the getter reverts.
func (b *DelayedBridge) AllowedOutboxes(ctx context.Context) ([]common.Address, error) {
	opts := &bind.CallOpts{Context: ctx}
	var outboxes []common.Address
	for i := int64(0); i < maxAllowedOutboxes; i++ {
		outbox, err := b.con.AllowedOutboxList(opts, big.NewInt(i))
		if headerreader.IsExecutionReverted(err) {
			return outboxes, nil
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}
		outboxes = append(outboxes, outbox)
	}
	return outboxes, nil
}

type MessageHeader struct {
	Kind        uint8
	Sender      common.Address
	BlockNumber uint64
	Timestamp   uint64
	RequestId   common.Hash
	L1BaseFee   *big.Int
}

// MessageNumber is the delayed inbox sequence number of the message.
func (h *MessageHeader) MessageNumber() *big.Int {
	return h.RequestId.Big()
}

type DelayedInboxMessage struct {
	BlockHash      common.Hash
	TxHash         common.Hash
	BeforeInboxAcc common.Hash
	Header         MessageHeader
	Data           []byte
}

func (m *DelayedInboxMessage) AfterInboxAcc() common.Hash {
	hash := crypto.Keccak256(
		[]byte{m.Header.Kind},
		m.Header.Sender.Bytes(),
		arbmath.UintToBytes(m.Header.BlockNumber),
		arbmath.UintToBytes(m.Header.Timestamp),
		m.Header.RequestId.Bytes(),
		math.U256Bytes(new(big.Int).Set(m.Header.L1BaseFee)),
		crypto.Keccak256(m.Data),
	)
	return crypto.Keccak256Hash(m.BeforeInboxAcc[:], hash)
}

func (b *DelayedBridge) LookupMessagesInRange(ctx context.Context, from, to *big.Int) ([]*DelayedInboxMessage, error) {
	query := ethereum.FilterQuery{
		BlockHash: nil,
		FromBlock: from,
		ToBlock:   to,
		Addresses: []common.Address{b.address},
		Topics:    [][]common.Hash{{contracts.MessageDeliveredID}},
	}
	logs, err := b.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return b.logsToDeliveredMessages(ctx, logs, nil)
}

// MessagesInReceipt joins the bridge and inbox events of an L1 transaction into delayed messages.
func (b *DelayedBridge) MessagesInReceipt(ctx context.Context, receipt *types.Receipt) ([]*DelayedInboxMessage, error) {
	var delivered []types.Log
	var inboxLogs []types.Log
	for _, l := range receipt.Logs {
		if len(l.Topics) == 0 {
			continue
		}
		switch l.Topics[0] {
		case contracts.MessageDeliveredID:
			if l.Address == b.address {
				delivered = append(delivered, *l)
			}
		case contracts.InboxMessageDeliveredID, contracts.InboxMessageFromOriginID:
			inboxLogs = append(inboxLogs, *l)
		}
	}
	return b.logsToDeliveredMessages(ctx, delivered, inboxLogs)
}

func (b *DelayedBridge) logsToDeliveredMessages(ctx context.Context, logs []types.Log, inboxLogs []types.Log) ([]*DelayedInboxMessage, error) {
	if len(logs) == 0 {
		return nil, nil
	}
	parsedLogs := make([]*contracts.MessageDelivered, 0, len(logs))
	messageIds := make([]common.Hash, 0, len(logs))
	inboxAddresses := make(map[common.Address]struct{})
	minBlockNum := logs[0].BlockNumber
	maxBlockNum := logs[0].BlockNumber
	for _, ethLog := range logs {
		if ethLog.BlockNumber < minBlockNum {
			minBlockNum = ethLog.BlockNumber
		}
		if ethLog.BlockNumber > maxBlockNum {
			maxBlockNum = ethLog.BlockNumber
		}
		parsedLog, err := contracts.ParseMessageDelivered(ethLog)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		parsedLogs = append(parsedLogs, parsedLog)
		inboxAddresses[parsedLog.Inbox] = struct{}{}
		messageIds = append(messageIds, common.BigToHash(parsedLog.MessageIndex))
	}

	messageData := make(map[common.Hash][]byte)
	if inboxLogs == nil {
		var err error
		inboxLogs, err = b.queryInboxLogs(ctx, inboxAddresses, messageIds, minBlockNum, maxBlockNum)
		if err != nil {
			return nil, err
		}
	}
	for _, ethLog := range inboxLogs {
		if _, ok := inboxAddresses[ethLog.Address]; !ok {
			continue
		}
		msgNum, msg, err := b.parseMessage(ctx, ethLog)
		if err != nil {
			return nil, err
		}
		messageData[common.BigToHash(msgNum)] = msg
	}

	messages := make([]*DelayedInboxMessage, 0, len(logs))
	for _, parsedLog := range parsedLogs {
		msgKey := common.BigToHash(parsedLog.MessageIndex)
		data, ok := messageData[msgKey]
		if !ok {
			return nil, errors.New("message not found")
		}
		if crypto.Keccak256Hash(data) != parsedLog.MessageDataHash {
			return nil, errors.New("found message data with mismatched hash")
		}
		messages = append(messages, &DelayedInboxMessage{
			BlockHash:      parsedLog.Raw.BlockHash,
			TxHash:         parsedLog.Raw.TxHash,
			BeforeInboxAcc: parsedLog.BeforeInboxAcc,
			Header: MessageHeader{
				Kind:        parsedLog.Kind,
				Sender:      parsedLog.Sender,
				BlockNumber: parsedLog.Raw.BlockNumber,
				Timestamp:   parsedLog.Timestamp,
				RequestId:   msgKey,
				L1BaseFee:   parsedLog.BaseFeeL1,
			},
			Data: data,
		})
	}

	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Header.RequestId.Big().Cmp(messages[j].Header.RequestId.Big()) < 0
	})
	return messages, nil
}

func (b *DelayedBridge) queryInboxLogs(
	ctx context.Context,
	inboxAddressSet map[common.Address]struct{},
	messageIds []common.Hash,
	minBlockNum, maxBlockNum uint64,
) ([]types.Log, error) {
	inboxAddressList := make([]common.Address, 0, len(inboxAddressSet))
	for addr := range inboxAddressSet {
		inboxAddressList = append(inboxAddressList, addr)
	}
	query := ethereum.FilterQuery{
		BlockHash: nil,
		FromBlock: new(big.Int).SetUint64(minBlockNum),
		ToBlock:   new(big.Int).SetUint64(maxBlockNum),
		Addresses: inboxAddressList,
		Topics:    [][]common.Hash{{contracts.InboxMessageDeliveredID, contracts.InboxMessageFromOriginID}, messageIds},
	}
	logs, err := b.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return logs, nil
}

func (b *DelayedBridge) parseMessage(ctx context.Context, ethLog types.Log) (*big.Int, []byte, error) {
	if ethLog.Topics[0] == contracts.InboxMessageDeliveredID {
		parsedLog, err := contracts.ParseInboxMessageDelivered(ethLog)
		if err != nil {
			return nil, nil, errors.WithStack(err)
		}
		return parsedLog.MessageNum, parsedLog.Data, nil
	} else if ethLog.Topics[0] == contracts.InboxMessageFromOriginID {
		parsedLog, err := contracts.ParseInboxMessageDeliveredFromOrigin(ethLog)
		if err != nil {
			return nil, nil, errors.WithStack(err)
		}
		data, err := arbutil.GetLogEmitterTxData(ctx, b.client, ethLog)
		if err != nil {
			return nil, nil, errors.WithStack(err)
		}
		msg, err := contracts.UnpackSendL2MessageFromOrigin(data)
		if err != nil {
			return nil, nil, errors.WithStack(err)
		}
		return parsedLog.MessageNum, msg, nil
	} else {
		return nil, nil, errors.New("unexpected log type")
	}
}
