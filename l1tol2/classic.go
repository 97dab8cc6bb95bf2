// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l1tol2

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/offchainlabs/arbmsg/arbos/retryables"
	"github.com/offchainlabs/arbmsg/arbutil"
)

// ClassicRetryableMessageReader follows a ticket created before the nitro upgrade. Classic tickets
// can only be read.
type ClassicRetryableMessageReader struct {
	l2Client arbutil.ChainClient

	ChainId             *big.Int
	MessageNumber       *big.Int
	RetryableCreationId common.Hash
	AutoRedeemId        common.Hash
	L2TxHash            common.Hash
	L2DerivedHash       common.Hash
}

func NewClassicRetryableMessageReader(l2Client arbutil.ChainClient, chainId *big.Int, messageNumber *big.Int) *ClassicRetryableMessageReader {
	creationId := retryables.ClassicRetryableCreationId(chainId, messageNumber)
	return &ClassicRetryableMessageReader{
		l2Client:            l2Client,
		ChainId:             chainId,
		MessageNumber:       messageNumber,
		RetryableCreationId: creationId,
		AutoRedeemId:        retryables.ClassicAutoRedeemId(creationId),
		L2TxHash:            retryables.ClassicL2TxHash(creationId),
		L2DerivedHash:       retryables.ClassicL2DerivedHash(creationId),
	}
}

func (m *ClassicRetryableMessageReader) CreationId() common.Hash {
	return m.RetryableCreationId
}

func (m *ClassicRetryableMessageReader) GetRetryableCreationReceipt(ctx context.Context, confirmations uint64, timeout time.Duration) (*types.Receipt, error) {
	if confirmations == 0 && timeout == 0 {
		return arbutil.GetReceipt(ctx, m.l2Client, m.RetryableCreationId)
	}
	return arbutil.WaitForReceipt(ctx, m.l2Client, m.RetryableCreationId, confirmations, timeout)
}

// Status of a classic ticket. Classic tickets that were not redeemed are all expired by now.
func (m *ClassicRetryableMessageReader) Status(ctx context.Context) (RetryableMessageStatus, error) {
	creationReceipt, err := m.GetRetryableCreationReceipt(ctx, 0, 0)
	if err != nil {
		return 0, err
	}
	if creationReceipt == nil {
		return NotYetCreated, nil
	}
	if creationReceipt.Status != types.ReceiptStatusSuccessful {
		return CreationFailed, nil
	}
	redeem, err := arbutil.GetReceipt(ctx, m.l2Client, m.L2DerivedHash)
	if err != nil {
		return 0, err
	}
	if redeem != nil && redeem.Status == types.ReceiptStatusSuccessful {
		return Redeemed, nil
	}
	return Expired, nil
}
