// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package gasestimator

import (
	"math/big"

	"github.com/offchainlabs/arbmsg/util/arbmath"
)

// PercentIncrease adjusts one estimate. Base replaces the estimate, then PercentIncrease is
// applied, then the result is raised to Min. Nil fields fall back to the estimator's defaults.
type PercentIncrease struct {
	Base            *big.Int
	PercentIncrease *big.Int
	Min             *big.Int
}

type GasOverrides struct {
	GasLimit         *PercentIncrease
	MaxSubmissionFee *PercentIncrease
	MaxFeePerGas     *PercentIncrease
	// Deposit adjusts the computed deposit. Its base is also the sender's balance when the gas
	// limit is estimated.
	Deposit *PercentIncrease
}

func (o *GasOverrides) gasLimit() *PercentIncrease {
	if o == nil {
		return nil
	}
	return o.GasLimit
}

func (o *GasOverrides) maxSubmissionFee() *PercentIncrease {
	if o == nil {
		return nil
	}
	return o.MaxSubmissionFee
}

func (o *GasOverrides) maxFeePerGas() *PercentIncrease {
	if o == nil {
		return nil
	}
	return o.MaxFeePerGas
}

func (o *GasOverrides) deposit() *PercentIncrease {
	if o == nil {
		return nil
	}
	return o.Deposit
}

// withDefaults fills the unset fields of p.
func (p *PercentIncrease) withDefaults(percent uint64, min uint64) PercentIncrease {
	result := PercentIncrease{
		PercentIncrease: new(big.Int).SetUint64(percent),
		Min:             new(big.Int).SetUint64(min),
	}
	if p == nil {
		return result
	}
	result.Base = p.Base
	if p.PercentIncrease != nil {
		result.PercentIncrease = p.PercentIncrease
	}
	if p.Min != nil {
		result.Min = p.Min
	}
	return result
}

// apply adjusts estimate, which is only used if there's no base.
func (p PercentIncrease) apply(estimate *big.Int) *big.Int {
	value := estimate
	if p.Base != nil {
		value = p.Base
	}
	value = arbmath.PercentIncrease(value, p.PercentIncrease)
	if p.Min != nil {
		value = arbmath.BigMax(value, p.Min)
	}
	return value
}
