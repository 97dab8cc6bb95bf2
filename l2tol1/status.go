// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package l2tol1 tracks withdrawals, messages sent from an arbitrum chain to its parent chain
// through ArbSys and executed on the parent chain's outbox.
package l2tol1

import (
	"fmt"
	"sync"
)

type L2ToL1MessageStatus uint8

const (
	Unconfirmed L2ToL1MessageStatus = iota + 1
	Confirmed
	Executed
)

func (s L2ToL1MessageStatus) String() string {
	switch s {
	case Unconfirmed:
		return "UNCONFIRMED"
	case Confirmed:
		return "CONFIRMED"
	case Executed:
		return "EXECUTED"
	default:
		return fmt.Sprintf("L2ToL1MessageStatus(%d)", uint8(s))
	}
}

// IsReadyToExecute is true once the message's outbox entry is confirmed.
func (s L2ToL1MessageStatus) IsReadyToExecute() bool {
	return s == Confirmed || s == Executed
}

// statusLatch remembers the furthest status observed, since a message can't move backwards.
type statusLatch struct {
	mutex   sync.Mutex
	highest L2ToL1MessageStatus
}

func (l *statusLatch) observe(status L2ToL1MessageStatus) L2ToL1MessageStatus {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if status > l.highest {
		l.highest = status
	}
	return l.highest
}

func (l *statusLatch) executed() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.highest == Executed
}
