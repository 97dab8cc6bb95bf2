// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package arbmath holds the big and unsigned integer helpers fee and block arithmetic needs.
package arbmath

import (
	"encoding/binary"
	"math"
	"math/big"
)

type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | Unsigned
}

// MinInt the minimum of two ints
func MinInt[T Integer](value, ceiling T) T {
	if value > ceiling {
		return ceiling
	}
	return value
}

// BigToUintSaturating casts a huge to an int, saturating if out of bounds
func BigToUintSaturating(value *big.Int) uint64 {
	if value.Sign() < 0 {
		return 0
	}
	if !value.IsUint64() {
		return math.MaxUint64
	}
	return value.Uint64()
}

// BigEquals check huge equality. Two nils are equal, a nil and a value aren't.
func BigEquals(first, second *big.Int) bool {
	if first == nil || second == nil {
		return first == second
	}
	return first.Cmp(second) == 0
}

// BigMax returns a clone of the maximum of two big integers
func BigMax(first, second *big.Int) *big.Int {
	if first.Cmp(second) > 0 {
		return new(big.Int).Set(first)
	}
	return new(big.Int).Set(second)
}

// BigAdd add a huge to another
func BigAdd(augend *big.Int, addend *big.Int) *big.Int {
	return new(big.Int).Add(augend, addend)
}

// BigMul multiply a huge by another
func BigMul(multiplicand *big.Int, multiplier *big.Int) *big.Int {
	return new(big.Int).Mul(multiplicand, multiplier)
}

// BigMulByUint multiply a huge by an unsigned int
func BigMulByUint(multiplicand *big.Int, multiplier uint64) *big.Int {
	return new(big.Int).Mul(multiplicand, new(big.Int).SetUint64(multiplier))
}

// PercentIncrease returns value * (100 + percent) / 100, rounding down
func PercentIncrease(value *big.Int, percent *big.Int) *big.Int {
	scaled := BigMul(value, BigAdd(big.NewInt(100), percent))
	return scaled.Quo(scaled, big.NewInt(100))
}

// DivCeil returns the ceiling of value / divisor, or 0 for a zero divisor
func DivCeil[T Unsigned](value, divisor T) T {
	if divisor == 0 {
		return 0
	}
	return (value + divisor - 1) / divisor
}

// SaturatingUSub subtraction that clips to zero on underflow
func SaturatingUSub[T Unsigned](a, b T) T {
	if a <= b {
		return 0
	}
	return a - b
}

// UintToBytes casts a uint64 to its big-endian representation
func UintToBytes(value uint64) []byte {
	result := make([]byte, 8)
	binary.BigEndian.PutUint64(result, value)
	return result
}
