// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package l1tol2 tracks messages sent from the parent chain to an arbitrum chain: retryable tickets
// and eth deposits.
package l1tol2

import "fmt"

type RetryableMessageStatus uint8

const (
	NotYetCreated RetryableMessageStatus = iota + 1
	CreationFailed
	FundsDepositedOnL2
	Redeemed
	Expired
)

func (s RetryableMessageStatus) String() string {
	switch s {
	case NotYetCreated:
		return "NOT_YET_CREATED"
	case CreationFailed:
		return "CREATION_FAILED"
	case FundsDepositedOnL2:
		return "FUNDS_DEPOSITED_ON_L2"
	case Redeemed:
		return "REDEEMED"
	case Expired:
		return "EXPIRED"
	default:
		return fmt.Sprintf("RetryableMessageStatus(%d)", uint8(s))
	}
}

// IsFinal is true for statuses a ticket can never leave.
func (s RetryableMessageStatus) IsFinal() bool {
	return s == CreationFailed || s == Redeemed || s == Expired
}

type EthDepositStatus uint8

const (
	DepositPending EthDepositStatus = iota + 1
	Deposited
)

func (s EthDepositStatus) String() string {
	switch s {
	case DepositPending:
		return "PENDING"
	case Deposited:
		return "DEPOSITED"
	default:
		return fmt.Sprintf("EthDepositStatus(%d)", uint8(s))
	}
}
