// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package contracts

import (
	"bytes"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	MessageDeliveredID          = mustEventID(BridgeABI, "MessageDelivered")
	InboxMessageDeliveredID     = mustEventID(InboxABI, "InboxMessageDelivered")
	InboxMessageFromOriginID    = mustEventID(InboxABI, "InboxMessageDeliveredFromOrigin")
	OutBoxTransactionExecutedID = mustEventID(OutboxABI, "OutBoxTransactionExecuted")
	RetryableDataError          *abi.Error
)

func init() {
	e, ok := InboxABI.Errors["RetryableData"]
	if !ok {
		panic("inbox abi is missing RetryableData")
	}
	RetryableDataError = &e
}

type Inbox struct {
	boundContract
}

func NewInbox(address common.Address, backend bind.ContractBackend) *Inbox {
	return &Inbox{newBoundContract(address, InboxABI, backend)}
}

func (i *Inbox) CalculateRetryableSubmissionFee(opts *bind.CallOpts, dataLength *big.Int, baseFee *big.Int) (*big.Int, error) {
	out, err := i.call(opts, "calculateRetryableSubmissionFee", dataLength, baseFee)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// PackCreateRetryableTicket returns the calldata of Inbox.createRetryableTicket.
func PackCreateRetryableTicket(
	to common.Address,
	l2CallValue *big.Int,
	maxSubmissionCost *big.Int,
	excessFeeRefundAddress common.Address,
	callValueRefundAddress common.Address,
	gasLimit *big.Int,
	maxFeePerGas *big.Int,
	data []byte,
) ([]byte, error) {
	return InboxABI.Pack("createRetryableTicket", to, l2CallValue, maxSubmissionCost, excessFeeRefundAddress, callValueRefundAddress, gasLimit, maxFeePerGas, data)
}

type InboxMessageDelivered struct {
	MessageNum *big.Int
	Data       []byte
	Raw        types.Log
}

func ParseInboxMessageDelivered(log types.Log) (*InboxMessageDelivered, error) {
	ev := new(InboxMessageDelivered)
	if err := unpackLog(InboxABI, ev, "InboxMessageDelivered", log); err != nil {
		return nil, err
	}
	ev.Raw = log
	return ev, nil
}

type MessageDelivered struct {
	MessageIndex    *big.Int
	BeforeInboxAcc  [32]byte
	Inbox           common.Address
	Kind            uint8
	Sender          common.Address
	MessageDataHash [32]byte
	BaseFeeL1       *big.Int
	Timestamp       uint64
	Raw             types.Log
}

func ParseMessageDelivered(log types.Log) (*MessageDelivered, error) {
	ev := new(MessageDelivered)
	if err := unpackLog(BridgeABI, ev, "MessageDelivered", log); err != nil {
		return nil, err
	}
	ev.Raw = log
	return ev, nil
}

type Bridge struct {
	boundContract
}

func NewBridge(address common.Address, backend bind.ContractBackend) *Bridge {
	return &Bridge{newBoundContract(address, BridgeABI, backend)}
}

func (b *Bridge) DelayedMessageCount(opts *bind.CallOpts) (*big.Int, error) {
	out, err := b.call(opts, "delayedMessageCount")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (b *Bridge) DelayedInboxAccs(opts *bind.CallOpts, index *big.Int) ([32]byte, error) {
	out, err := b.call(opts, "delayedInboxAccs", index)
	if err != nil {
		return [32]byte{}, err
	}
	return *abi.ConvertType(out[0], new([32]byte)).(*[32]byte), nil
}

func (b *Bridge) AllowedOutboxList(opts *bind.CallOpts, index *big.Int) (common.Address, error) {
	out, err := b.call(opts, "allowedOutboxList", index)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

type SequencerInbox struct {
	boundContract
}

func NewSequencerInbox(address common.Address, backend bind.ContractBackend) *SequencerInbox {
	return &SequencerInbox{newBoundContract(address, SequencerInboxABI, backend)}
}

type MaxTimeVariation struct {
	DelayBlocks   *big.Int
	FutureBlocks  *big.Int
	DelaySeconds  *big.Int
	FutureSeconds *big.Int
}

func (s *SequencerInbox) MaxTimeVariation(opts *bind.CallOpts) (*MaxTimeVariation, error) {
	out, err := s.call(opts, "maxTimeVariation")
	if err != nil {
		return nil, err
	}
	return &MaxTimeVariation{
		DelayBlocks:   *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		FutureBlocks:  *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		DelaySeconds:  *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		FutureSeconds: *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
	}, nil
}

// UnpackSendL2MessageFromOrigin extracts the message of a sendL2MessageFromOrigin call, whose data
// the inbox doesn't repeat in its event.
func UnpackSendL2MessageFromOrigin(calldata []byte) ([]byte, error) {
	method := InboxABI.Methods["sendL2MessageFromOrigin"]
	if len(calldata) < 4 || !bytes.Equal(calldata[:4], method.ID) {
		return nil, errors.New("not a sendL2MessageFromOrigin call")
	}
	args := make(map[string]interface{})
	if err := method.Inputs.UnpackIntoMap(args, calldata[4:]); err != nil {
		return nil, err
	}
	data, ok := args["messageData"].([]byte)
	if !ok {
		return nil, errors.New("sendL2MessageFromOrigin call without message data")
	}
	return data, nil
}

type InboxMessageDeliveredFromOrigin struct {
	MessageNum *big.Int
	Raw        types.Log
}

func ParseInboxMessageDeliveredFromOrigin(log types.Log) (*InboxMessageDeliveredFromOrigin, error) {
	ev := new(InboxMessageDeliveredFromOrigin)
	if err := unpackLog(InboxABI, ev, "InboxMessageDeliveredFromOrigin", log); err != nil {
		return nil, err
	}
	ev.Raw = log
	return ev, nil
}
