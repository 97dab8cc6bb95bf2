// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package arbutil

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PaddedKeccak256 pads each argument to 32 bytes, concatenates and returns
// keccak256 hash of the result.
func PaddedKeccak256(args ...[]byte) []byte {
	var data []byte
	for _, arg := range args {
		data = append(data, common.BytesToHash(arg).Bytes()...)
	}
	return crypto.Keccak256(data)
}

// PaddedKeccak256Hash is PaddedKeccak256 returning a common.Hash.
func PaddedKeccak256Hash(args ...[]byte) common.Hash {
	return common.BytesToHash(PaddedKeccak256(args...))
}

// UintToHash left pads a number to a 32 byte word, the way it appears in an indexed event topic.
func UintToHash(n uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(n))
}
