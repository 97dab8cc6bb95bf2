// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package retryables

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/arbmsg/arbos/util"
)

// MaxCalldataSize bounds the calldata a submit retryable message may claim to carry.
const MaxCalldataSize = 1 << 20

// ParseSubmitRetryableMessage decodes the data of an InboxMessageDelivered event for a
// submit retryable message.
func ParseSubmitRetryableMessage(data []byte) (*SubmitRetryableParams, error) {
	rd := bytes.NewReader(data)
	dest, err := util.AddressFrom256FromReader(rd)
	if err != nil {
		return nil, fmt.Errorf("reading destination: %w", err)
	}
	var words [3]common.Hash
	for i := range words {
		if words[i], err = util.HashFromReader(rd); err != nil {
			return nil, fmt.Errorf("reading value word %d: %w", i, err)
		}
	}
	excessFeeRefund, err := util.AddressFrom256FromReader(rd)
	if err != nil {
		return nil, fmt.Errorf("reading excess fee refund address: %w", err)
	}
	callValueRefund, err := util.AddressFrom256FromReader(rd)
	if err != nil {
		return nil, fmt.Errorf("reading call value refund address: %w", err)
	}
	gasLimit, err := util.HashFromReader(rd)
	if err != nil {
		return nil, fmt.Errorf("reading gas limit: %w", err)
	}
	maxFeePerGas, err := util.HashFromReader(rd)
	if err != nil {
		return nil, fmt.Errorf("reading max fee per gas: %w", err)
	}
	dataLength, err := util.HashFromReader(rd)
	if err != nil {
		return nil, fmt.Errorf("reading calldata length: %w", err)
	}
	if dataLength.Big().Cmp(big.NewInt(MaxCalldataSize)) > 0 {
		return nil, fmt.Errorf("calldata length %v too large", dataLength.Big())
	}
	calldata := make([]byte, dataLength.Big().Uint64())
	if _, err := io.ReadFull(rd, calldata); err != nil {
		return nil, fmt.Errorf("reading calldata: %w", err)
	}
	return &SubmitRetryableParams{
		Destination:            dest,
		L2CallValue:            words[0].Big(),
		L1Value:                words[1].Big(),
		MaxSubmissionFee:       words[2].Big(),
		ExcessFeeRefundAddress: excessFeeRefund,
		CallValueRefundAddress: callValueRefund,
		GasLimit:               gasLimit.Big(),
		MaxFeePerGas:           maxFeePerGas.Big(),
		Data:                   calldata,
	}, nil
}

// SerializeSubmitRetryableMessage is the inverse of ParseSubmitRetryableMessage.
func SerializeSubmitRetryableMessage(params *SubmitRetryableParams) []byte {
	var buf bytes.Buffer
	writeWord := func(x *big.Int) {
		_ = util.HashToWriter(common.BigToHash(orZero(x)), &buf)
	}
	_ = util.AddressTo256ToWriter(params.Destination, &buf)
	writeWord(params.L2CallValue)
	writeWord(params.L1Value)
	writeWord(params.MaxSubmissionFee)
	_ = util.AddressTo256ToWriter(params.ExcessFeeRefundAddress, &buf)
	_ = util.AddressTo256ToWriter(params.CallValueRefundAddress, &buf)
	writeWord(params.GasLimit)
	writeWord(params.MaxFeePerGas)
	writeWord(big.NewInt(int64(len(params.Data))))
	buf.Write(params.Data)
	return buf.Bytes()
}

// ParseEthDepositMessage decodes the data of an eth deposit delayed message: the recipient
// followed by the big endian value.
func ParseEthDepositMessage(data []byte) (common.Address, *big.Int, error) {
	rd := bytes.NewReader(data)
	to, err := util.AddressFromReader(rd)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("reading deposit recipient: %w", err)
	}
	rest, err := io.ReadAll(rd)
	if err != nil {
		return common.Address{}, nil, err
	}
	if len(rest) > 32 {
		return common.Address{}, nil, errors.New("eth deposit value longer than 32 bytes")
	}
	return to, new(big.Int).SetBytes(rest), nil
}
