// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package gasestimator prices retryable tickets. The inbox is asked to create a ticket with
// parameters it rejects, and the RetryableData it reverts with tells what the real call would
// submit.
package gasestimator

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/arbmsg/arbos/retryables"
	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/cmd/chaininfo"
	"github.com/offchainlabs/arbmsg/contracts"
	"github.com/offchainlabs/arbmsg/util/arbmath"
)

// RetryableEstimateData is the part of a ticket that doesn't depend on its gas parameters.
type RetryableEstimateData struct {
	From                   common.Address
	To                     common.Address
	L2CallValue            *big.Int
	ExcessFeeRefundAddress common.Address
	CallValueRefundAddress common.Address
	Data                   []byte
}

func EstimateDataFromRetryableData(r *retryables.RetryableData) *RetryableEstimateData {
	return &RetryableEstimateData{
		From:                   r.From,
		To:                     r.To,
		L2CallValue:            r.L2CallValue,
		ExcessFeeRefundAddress: r.ExcessFeeRefundAddress,
		CallValueRefundAddress: r.CallValueRefundAddress,
		Data:                   r.Data,
	}
}

type Estimates struct {
	GasLimit          *big.Int
	MaxSubmissionCost *big.Int
	MaxFeePerGas      *big.Int
	Deposit           *big.Int
}

func (e *Estimates) GasParams() retryables.GasParams {
	return retryables.GasParams{
		GasLimit:          e.GasLimit,
		MaxFeePerGas:      e.MaxFeePerGas,
		MaxSubmissionCost: e.MaxSubmissionCost,
		Deposit:           e.Deposit,
	}
}

// TxRequest is a parent chain call.
type TxRequest struct {
	From  common.Address
	To    common.Address
	Data  []byte
	Value *big.Int
}

// DataFunc builds the parent chain call that creates a ticket with the given gas parameters.
type DataFunc func(params retryables.GasParams) (*TxRequest, error)

type PopulatedParams struct {
	Estimates *Estimates
	Retryable *retryables.RetryableData
	Data      []byte
	To        common.Address
	Value     *big.Int
}

type RetryableGasEstimator struct {
	l1Client      arbutil.ChainClient
	l2Client      arbutil.ChainClient
	inbox         *contracts.Inbox
	nodeInterface *contracts.NodeInterface
	config        *Config
}

func NewRetryableGasEstimator(l1Client, l2Client arbutil.ChainClient, network *chaininfo.ArbitrumNetwork, config *Config) *RetryableGasEstimator {
	if config == nil {
		config = &DefaultConfig
	}
	return &RetryableGasEstimator{
		l1Client:      l1Client,
		l2Client:      l2Client,
		inbox:         contracts.NewInbox(network.EthBridge.Inbox, l1Client),
		nodeInterface: contracts.NewNodeInterface(l2Client),
		config:        config,
	}
}

// L1BaseFee returns the base fee of the parent chain's latest block.
func (e *RetryableGasEstimator) L1BaseFee(ctx context.Context) (*big.Int, error) {
	header, err := e.l1Client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, err
	}
	if header.BaseFee == nil {
		return nil, fmt.Errorf("%w: latest block did not contain base fee, the parent chain must support EIP-1559", arbutil.ErrConfiguration)
	}
	return header.BaseFee, nil
}

// EstimateSubmissionFee returns the fee the inbox charges to store a ticket with callDataSize
// bytes of calldata, increased by the configured percentage.
func (e *RetryableGasEstimator) EstimateSubmissionFee(ctx context.Context, l1BaseFee *big.Int, callDataSize int, override *PercentIncrease) (*big.Int, error) {
	options := override.withDefaults(e.config.SubmissionFeePercentIncrease, 0)
	var quoted *big.Int
	if options.Base == nil {
		var err error
		quoted, err = e.inbox.CalculateRetryableSubmissionFee(&bind.CallOpts{Context: ctx}, big.NewInt(int64(callDataSize)), l1BaseFee)
		if err != nil {
			return nil, err
		}
	}
	return options.apply(quoted), nil
}

// EstimateMaxFeePerGas returns the arbitrum chain's gas price, increased by the configured percentage.
func (e *RetryableGasEstimator) EstimateMaxFeePerGas(ctx context.Context, override *PercentIncrease) (*big.Int, error) {
	options := override.withDefaults(e.config.GasPricePercentIncrease, 0)
	var gasPrice *big.Int
	if options.Base == nil {
		var err error
		gasPrice, err = e.l2Client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, err
		}
	}
	return options.apply(gasPrice), nil
}

// EstimateRetryableTicketGasLimit asks the node how much gas the ticket's L2 call needs. A nil
// senderDeposit assumes the sender deposits the configured eth on top of the call value.
func (e *RetryableGasEstimator) EstimateRetryableTicketGasLimit(ctx context.Context, data *RetryableEstimateData, senderDeposit *big.Int) (*big.Int, error) {
	l2CallValue := data.L2CallValue
	if l2CallValue == nil {
		l2CallValue = common.Big0
	}
	if senderDeposit == nil {
		senderDeposit = arbmath.BigAdd(e.config.estimationDeposit(), l2CallValue)
	}
	gas, err := e.nodeInterface.EstimateRetryableTicket(
		ctx,
		data.From,
		senderDeposit,
		data.To,
		l2CallValue,
		data.ExcessFeeRefundAddress,
		data.CallValueRefundAddress,
		data.Data,
	)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(gas), nil
}

// EstimateAll estimates every gas parameter of a ticket. Unless overridden, the deposit covers
// the gas limit at the max fee per gas plus the submission fee.
func (e *RetryableGasEstimator) EstimateAll(ctx context.Context, data *RetryableEstimateData, l1BaseFee *big.Int, overrides *GasOverrides) (*Estimates, error) {
	depositOptions := overrides.deposit().withDefaults(0, 0)
	gasLimitOptions := overrides.gasLimit().withDefaults(e.config.GasLimitPercentIncrease, e.config.MinGasLimit)
	var estimatedGas *big.Int
	if gasLimitOptions.Base == nil {
		var err error
		estimatedGas, err = e.EstimateRetryableTicketGasLimit(ctx, data, depositOptions.Base)
		if err != nil {
			return nil, err
		}
	}
	gasLimit := gasLimitOptions.apply(estimatedGas)

	maxFeePerGas, err := e.EstimateMaxFeePerGas(ctx, overrides.maxFeePerGas())
	if err != nil {
		return nil, err
	}
	maxSubmissionCost, err := e.EstimateSubmissionFee(ctx, l1BaseFee, len(data.Data), overrides.maxSubmissionFee())
	if err != nil {
		return nil, err
	}
	var deposit *big.Int
	if depositOptions.Base == nil {
		deposit = arbmath.BigAdd(arbmath.BigMul(gasLimit, maxFeePerGas), maxSubmissionCost)
	}
	deposit = depositOptions.apply(deposit)
	log.Debug("estimated retryable", "gasLimit", gasLimit, "maxFeePerGas", maxFeePerGas, "maxSubmissionCost", maxSubmissionCost, "deposit", deposit)
	return &Estimates{
		GasLimit:          gasLimit,
		MaxSubmissionCost: maxSubmissionCost,
		MaxFeePerGas:      maxFeePerGas,
		Deposit:           deposit,
	}, nil
}

// PopulateFunctionParams calls dataFunc with parameters the inbox rejects, reads the ticket out of
// the revert, estimates it and calls dataFunc again with the estimates.
func (e *RetryableGasEstimator) PopulateFunctionParams(ctx context.Context, dataFunc DataFunc, overrides *GasOverrides) (*PopulatedParams, error) {
	nullRequest, err := dataFunc(retryables.ErrorTriggeringParams())
	if err != nil {
		return nil, err
	}
	to := nullRequest.To
	res, callErr := e.l1Client.CallContract(ctx, ethereum.CallMsg{
		From:  nullRequest.From,
		To:    &to,
		Value: nullRequest.Value,
		Data:  nullRequest.Data,
	}, nil)
	var retryable *retryables.RetryableData
	if callErr == nil {
		// some nodes hand back the revert data as the call's result
		retryable, err = retryables.ParseRetryableData(res)
	} else {
		retryable, err = retryables.RetryableDataFromError(callErr)
	}
	if err != nil {
		return nil, err
	}
	l1BaseFee, err := e.L1BaseFee(ctx)
	if err != nil {
		return nil, err
	}
	estimates, err := e.EstimateAll(ctx, EstimateDataFromRetryableData(retryable), l1BaseFee, overrides)
	if err != nil {
		return nil, err
	}
	realRequest, err := dataFunc(estimates.GasParams())
	if err != nil {
		return nil, err
	}
	return &PopulatedParams{
		Estimates: estimates,
		Retryable: retryable,
		Data:      realRequest.Data,
		To:        realRequest.To,
		Value:     realRequest.Value,
	}, nil
}

// CreateRetryableTicketDataFunc builds calls to the inbox's createRetryableTicket, paying for the
// ticket with the estimated deposit and the call value.
func CreateRetryableTicketDataFunc(inbox common.Address, from common.Address, data *RetryableEstimateData) DataFunc {
	return func(params retryables.GasParams) (*TxRequest, error) {
		l2CallValue := data.L2CallValue
		if l2CallValue == nil {
			l2CallValue = common.Big0
		}
		calldata, err := contracts.PackCreateRetryableTicket(
			data.To,
			l2CallValue,
			params.MaxSubmissionCost,
			data.ExcessFeeRefundAddress,
			data.CallValueRefundAddress,
			params.GasLimit,
			params.MaxFeePerGas,
			data.Data,
		)
		if err != nil {
			return nil, err
		}
		deposit := params.Deposit
		if deposit == nil {
			deposit = arbmath.BigAdd(arbmath.BigMul(params.GasLimit, params.MaxFeePerGas), params.MaxSubmissionCost)
		}
		value := arbmath.BigAdd(deposit, l2CallValue)
		return &TxRequest{From: from, To: inbox, Data: calldata, Value: value}, nil
	}
}
