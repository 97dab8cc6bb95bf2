// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package arbmath

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPercentIncrease(t *testing.T) {
	for _, tc := range []struct {
		value, percent, want int64
	}{
		{100, 0, 100},
		{100, 300, 400},
		{100, 200, 300},
		{7, 50, 10},
		{0, 300, 0},
	} {
		got := PercentIncrease(big.NewInt(tc.value), big.NewInt(tc.percent))
		require.Equal(t, big.NewInt(tc.want), got, "%d + %d%%", tc.value, tc.percent)
	}
}

func TestBigHelpers(t *testing.T) {
	a, b := big.NewInt(3), big.NewInt(5)
	require.Equal(t, big.NewInt(5), BigMax(a, b))
	require.Equal(t, big.NewInt(5), BigMax(b, a))
	require.Equal(t, big.NewInt(8), BigAdd(a, b))
	require.Equal(t, big.NewInt(15), BigMul(a, b))
	require.Equal(t, big.NewInt(30), BigMulByUint(a, 10))
	require.True(t, BigEquals(a, big.NewInt(3)))
	require.True(t, BigEquals(nil, nil))
	require.False(t, BigEquals(a, nil))
	require.Equal(t, uint64(math.MaxUint64), BigToUintSaturating(new(big.Int).Lsh(big.NewInt(1), 70)))
	require.Equal(t, uint64(0), BigToUintSaturating(big.NewInt(-1)))
	// results must not alias the inputs
	BigMax(a, b).SetInt64(100)
	require.Equal(t, big.NewInt(5), b)
}

func TestUintHelpers(t *testing.T) {
	require.Equal(t, uint64(87), DivCeil[uint64](86400*1000, 1000000))
	require.Equal(t, uint64(0), DivCeil[uint64](5, 0))
	require.Equal(t, uint64(0), SaturatingUSub[uint64](3, 5))
	require.Equal(t, uint64(2), SaturatingUSub[uint64](5, 3))
	require.Equal(t, 1, MinInt(1, 4))
	require.Equal(t, uint64(3), MinInt[uint64](7, 3))
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 1, 2}, UintToBytes(258))
}
