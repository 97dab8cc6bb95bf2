// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package gasestimator

import (
	"math/big"

	flag "github.com/spf13/pflag"
)

type Config struct {
	SubmissionFeePercentIncrease uint64 `koanf:"submission-fee-percent-increase"`
	GasPricePercentIncrease      uint64 `koanf:"gas-price-percent-increase"`
	GasLimitPercentIncrease      uint64 `koanf:"gas-limit-percent-increase"`
	MinGasLimit                  uint64 `koanf:"min-gas-limit"`
	// Eth added to the l2 call value as the sender's balance when estimating the ticket's gas.
	EstimationDepositEth uint64 `koanf:"estimation-deposit-eth"`
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Uint64(prefix+".submission-fee-percent-increase", DefaultConfig.SubmissionFeePercentIncrease, "percent added to the quoted retryable submission fee")
	f.Uint64(prefix+".gas-price-percent-increase", DefaultConfig.GasPricePercentIncrease, "percent added to the L2 gas price for the max fee per gas")
	f.Uint64(prefix+".gas-limit-percent-increase", DefaultConfig.GasLimitPercentIncrease, "percent added to the estimated L2 gas limit")
	f.Uint64(prefix+".min-gas-limit", DefaultConfig.MinGasLimit, "lowest gas limit to submit a ticket with")
	f.Uint64(prefix+".estimation-deposit-eth", DefaultConfig.EstimationDepositEth, "eth the sender is assumed to deposit on top of the call value when estimating gas")
}

var DefaultConfig = Config{
	SubmissionFeePercentIncrease: 300,
	GasPricePercentIncrease:      200,
	GasLimitPercentIncrease:      0,
	MinGasLimit:                  0,
	EstimationDepositEth:         1,
}

func (c *Config) estimationDeposit() *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(c.EstimationDepositEth), big.NewInt(1e18))
}
