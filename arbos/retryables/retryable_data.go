// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package retryables

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/contracts"
	"github.com/offchainlabs/arbmsg/util/headerreader"
)

// RetryableData is the payload of the inbox's RetryableData error. The inbox reverts with it
// when asked to create a ticket with a gas limit or max fee per gas of exactly one.
type RetryableData struct {
	From                   common.Address
	To                     common.Address
	L2CallValue            *big.Int
	Deposit                *big.Int
	MaxSubmissionCost      *big.Int
	ExcessFeeRefundAddress common.Address
	CallValueRefundAddress common.Address
	GasLimit               *big.Int
	MaxFeePerGas           *big.Int
	Data                   []byte
}

// GasParams are the gas related inputs of a ticket submission. A nil Deposit pays exactly for
// the gas limit at the max fee per gas plus the submission cost.
type GasParams struct {
	GasLimit          *big.Int
	MaxFeePerGas      *big.Int
	MaxSubmissionCost *big.Int
	Deposit           *big.Int
}

// ErrorTriggeringParams makes the inbox revert with RetryableData instead of creating a ticket.
func ErrorTriggeringParams() GasParams {
	return GasParams{
		GasLimit:          big.NewInt(1),
		MaxFeePerGas:      big.NewInt(1),
		MaxSubmissionCost: big.NewInt(1),
	}
}

// ParseRetryableData decodes the revert data of a call to the inbox.
func ParseRetryableData(revertData []byte) (*RetryableData, error) {
	selector := contracts.RetryableDataError.ID.Bytes()[:4]
	if len(revertData) < 4 || !bytes.Equal(revertData[:4], selector) {
		return nil, fmt.Errorf("%w: revert data is not RetryableData", arbutil.ErrUnparseableRevert)
	}
	values, err := contracts.RetryableDataError.Inputs.Unpack(revertData[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", arbutil.ErrUnparseableRevert, err)
	}
	data := &RetryableData{}
	if err := contracts.RetryableDataError.Inputs.Copy(data, values); err != nil {
		return nil, fmt.Errorf("%w: %v", arbutil.ErrUnparseableRevert, err)
	}
	return data, nil
}

// RetryableDataFromError extracts RetryableData from the error a node returned for a call.
func RetryableDataFromError(err error) (*RetryableData, error) {
	if err == nil {
		return nil, fmt.Errorf("%w: call did not revert", arbutil.ErrUnparseableRevert)
	}
	revertData, ok := headerreader.RevertData(err)
	if !ok {
		return nil, fmt.Errorf("%w: no revert data in %v", arbutil.ErrUnparseableRevert, err)
	}
	return ParseRetryableData(revertData)
}

// ErrorData encodes r the way the inbox reverts with it.
func (r *RetryableData) ErrorData() ([]byte, error) {
	packed, err := contracts.RetryableDataError.Inputs.Pack(
		r.From,
		r.To,
		orZero(r.L2CallValue),
		orZero(r.Deposit),
		orZero(r.MaxSubmissionCost),
		r.ExcessFeeRefundAddress,
		r.CallValueRefundAddress,
		orZero(r.GasLimit),
		orZero(r.MaxFeePerGas),
		r.Data,
	)
	if err != nil {
		return nil, err
	}
	return append(common.CopyBytes(contracts.RetryableDataError.ID.Bytes()[:4]), packed...), nil
}
