// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"

	arbosutil "github.com/offchainlabs/arbmsg/arbos/util"
	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/contracts"
	"github.com/offchainlabs/arbmsg/gasestimator"
)

func parseAddress(name, value string, fallback common.Address) (common.Address, error) {
	if value == "" {
		return fallback, nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%w: %s %q", arbutil.ErrInvalidAddress, name, value)
	}
	return common.HexToAddress(value), nil
}

func parseWei(name, value string) (*big.Int, error) {
	if value == "" {
		return nil, nil
	}
	parsed, ok := new(big.Int).SetString(value, 0)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("%w: invalid %s %q", arbutil.ErrConfiguration, name, value)
	}
	return parsed, nil
}

// percentIncrease is nil when nothing is overridden.
func (c *OverrideConfig) percentIncrease(prefix string) (*gasestimator.PercentIncrease, error) {
	if *c == (OverrideConfig{}) {
		return nil, nil
	}
	var result gasestimator.PercentIncrease
	var err error
	if result.Base, err = parseWei(prefix+".base", c.Base); err != nil {
		return nil, err
	}
	if result.PercentIncrease, err = parseWei(prefix+".percent-increase", c.PercentIncrease); err != nil {
		return nil, err
	}
	if result.Min, err = parseWei(prefix+".min", c.Min); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *GasOverridesConfig) gasOverrides() (*gasestimator.GasOverrides, error) {
	var overrides gasestimator.GasOverrides
	var err error
	if overrides.GasLimit, err = c.GasLimit.percentIncrease("override.gas-limit"); err != nil {
		return nil, err
	}
	if overrides.MaxSubmissionFee, err = c.MaxSubmissionFee.percentIncrease("override.max-submission-fee"); err != nil {
		return nil, err
	}
	if overrides.MaxFeePerGas, err = c.MaxFeePerGas.percentIncrease("override.max-fee-per-gas"); err != nil {
		return nil, err
	}
	if overrides.Deposit, err = c.Deposit.percentIncrease("override.deposit"); err != nil {
		return nil, err
	}
	return &overrides, nil
}

func (c *TicketConfig) estimateData() (*gasestimator.RetryableEstimateData, error) {
	if c.From == "" {
		return nil, fmt.Errorf("%w: --ticket.from is required", arbutil.ErrConfiguration)
	}
	from, err := parseAddress("ticket.from", c.From, common.Address{})
	if err != nil {
		return nil, err
	}
	to, err := parseAddress("ticket.to", c.To, common.Address{})
	if err != nil {
		return nil, err
	}
	excessFeeRefund, err := parseAddress("ticket.excess-fee-refund-address", c.ExcessFeeRefundAddress, from)
	if err != nil {
		return nil, err
	}
	callValueRefund, err := parseAddress("ticket.call-value-refund-address", c.CallValueRefundAddress, from)
	if err != nil {
		return nil, err
	}
	callValue, err := parseWei("ticket.l2-call-value", c.L2CallValue)
	if err != nil {
		return nil, err
	}
	if callValue == nil {
		callValue = new(big.Int)
	}
	var data []byte
	if c.Data != "" {
		data, err = hexutil.Decode(c.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: ticket.data: %w", arbutil.ErrConfiguration, err)
		}
	}
	return &gasestimator.RetryableEstimateData{
		From:                   from,
		To:                     to,
		L2CallValue:            callValue,
		ExcessFeeRefundAddress: excessFeeRefund,
		CallValueRefundAddress: callValueRefund,
		Data:                   data,
	}, nil
}

func startEstimate(ctx context.Context, args []string) error {
	config, err := parseEstimateConfig(args)
	if err != nil {
		return err
	}
	if err := config.initLog(); err != nil {
		return err
	}
	data, err := config.Ticket.estimateData()
	if err != nil {
		return err
	}
	overrides, err := config.Override.gasOverrides()
	if err != nil {
		return err
	}
	conns, err := config.connect(ctx, true)
	if err != nil {
		return err
	}
	defer conns.Close()

	estimator := gasestimator.NewRetryableGasEstimator(conns.l1Client, conns.l2Client, conns.network, &config.Gas)
	dataFunc := gasestimator.CreateRetryableTicketDataFunc(conns.network.EthBridge.Inbox, data.From, data)
	populated, err := estimator.PopulateFunctionParams(ctx, dataFunc, overrides)
	if err != nil {
		return err
	}
	estimates := populated.Estimates
	fmt.Printf("gas limit:           %v\n", estimates.GasLimit)
	fmt.Printf("max fee per gas:     %v\n", estimates.MaxFeePerGas)
	fmt.Printf("max submission cost: %v\n", estimates.MaxSubmissionCost)
	fmt.Printf("deposit:             %v\n", estimates.Deposit)
	fmt.Printf("inbox call to %v with value %v\n", populated.To, populated.Value)
	fmt.Printf("calldata: %s\n", hexutil.Encode(populated.Data))

	// what the L2 call alone costs when sent directly by the aliased sender
	components, err := contracts.NewNodeInterface(conns.l2Client).GasEstimateComponents(
		&bind.CallOpts{Context: ctx, From: arbosutil.RemapL1Address(data.From)},
		data.To,
		data.To == (common.Address{}),
		data.Data,
	)
	if err != nil {
		log.Warn("unable to estimate the L2 call's gas components", "err", err)
		return nil
	}
	fmt.Printf("l2 call gas:         %v (%v for L1 data)\n", components.GasEstimate, components.GasEstimateForL1)
	fmt.Printf("l2 base fee:         %v\n", components.BaseFee)
	return nil
}
