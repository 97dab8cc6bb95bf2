// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package util

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/offchainlabs/arbmsg/arbutil"
)

// AddressAliasOffset is added to the address of an L1 contract when it sends a message to L2.
var AddressAliasOffset = uint256.MustFromHex("0x1111000000000000000000000000000000001111")

var addressMask = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 160), uint256.NewInt(1))

func RemapL1Address(l1Addr common.Address) common.Address {
	sum := new(uint256.Int).SetBytes20(l1Addr.Bytes())
	sum.Add(sum, AddressAliasOffset)
	sum.And(sum, addressMask)
	return common.Address(sum.Bytes20())
}

func InverseRemapL1Address(l1Addr common.Address) common.Address {
	diff := new(uint256.Int).SetBytes20(l1Addr.Bytes())
	diff.Sub(diff, AddressAliasOffset)
	diff.And(diff, addressMask)
	return common.Address(diff.Bytes20())
}

// Alias parses addr and applies (forward) or undoes the L1 to L2 address alias.
func Alias(addr string, forward bool) (common.Address, error) {
	if !common.IsHexAddress(addr) {
		return common.Address{}, fmt.Errorf("%w: %q", arbutil.ErrInvalidAddress, addr)
	}
	parsed := common.HexToAddress(strings.TrimSpace(addr))
	if forward {
		return RemapL1Address(parsed), nil
	}
	return InverseRemapL1Address(parsed), nil
}

func AddressToHash(address common.Address) common.Hash {
	return common.BytesToHash(address.Bytes())
}

func HashFromReader(rd io.Reader) (common.Hash, error) {
	var h common.Hash
	if _, err := io.ReadFull(rd, h[:]); err != nil {
		return common.Hash{}, err
	}
	return h, nil
}

func HashToWriter(val common.Hash, wr io.Writer) error {
	_, err := wr.Write(val.Bytes())
	return err
}

func AddressFromReader(rd io.Reader) (common.Address, error) {
	var a common.Address
	if _, err := io.ReadFull(rd, a[:]); err != nil {
		return common.Address{}, err
	}
	return a, nil
}

// AddressFrom256FromReader reads a 32 byte word and keeps its low 20 bytes.
func AddressFrom256FromReader(rd io.Reader) (common.Address, error) {
	h, err := HashFromReader(rd)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(h.Bytes()[12:]), nil
}

func AddressTo256ToWriter(val common.Address, wr io.Writer) error {
	return HashToWriter(AddressToHash(val), wr)
}
