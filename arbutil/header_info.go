// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package arbutil

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// HeaderInfo is the arbitrum specific data packed into an L2 block header.
type HeaderInfo struct {
	SendRoot           common.Hash
	SendCount          uint64
	L1BlockNumber      uint64
	ArbOSFormatVersion uint64
}

// IsArbitrumHeader reports whether header carries arbitrum extra information.
func IsArbitrumHeader(header *types.Header) bool {
	return header.BaseFee != nil && header.BaseFee.Sign() != 0 && len(header.Extra) == 32 &&
		header.Difficulty != nil && header.Difficulty.Cmp(common.Big1) == 0
}

// DeserializeHeaderExtraInformation unpacks the send root from Extra and the send count, L1 block
// number and ArbOS version from MixDigest. Non arbitrum headers yield the zero value.
func DeserializeHeaderExtraInformation(header *types.Header) HeaderInfo {
	if header == nil || !IsArbitrumHeader(header) {
		return HeaderInfo{}
	}
	return HeaderInfo{
		SendRoot:           common.BytesToHash(header.Extra),
		SendCount:          binary.BigEndian.Uint64(header.MixDigest[:8]),
		L1BlockNumber:      binary.BigEndian.Uint64(header.MixDigest[8:16]),
		ArbOSFormatVersion: binary.BigEndian.Uint64(header.MixDigest[16:24]),
	}
}

// UpdateHeader writes info into header, the inverse of DeserializeHeaderExtraInformation.
func (info HeaderInfo) UpdateHeader(header *types.Header) {
	header.Extra = info.SendRoot.Bytes()
	binary.BigEndian.PutUint64(header.MixDigest[:8], info.SendCount)
	binary.BigEndian.PutUint64(header.MixDigest[8:16], info.L1BlockNumber)
	binary.BigEndian.PutUint64(header.MixDigest[16:24], info.ArbOSFormatVersion)
}

func CorrespondingL1BlockNumber(ctx context.Context, client ChainClient, blockNumber uint64) (uint64, error) {
	header, err := client.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return 0, fmt.Errorf("error getting L1 block number %d header : %w", blockNumber, err)
	}
	headerInfo := DeserializeHeaderExtraInformation(header)
	if headerInfo.L1BlockNumber != 0 {
		return headerInfo.L1BlockNumber, nil
	} else {
		return blockNumber, nil
	}
}
