// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package arbutil

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when a chain lacks something the protocol needs, such as base fees.
	ErrConfiguration = errors.New("configuration error")
	// ErrProtocolInvariant is returned when the chain shows something the protocol guarantees cannot
	// happen, for example two successful redeems of the same ticket.
	ErrProtocolInvariant = errors.New("protocol invariant violated")
	ErrPrecondition      = errors.New("precondition failed")
	// ErrNotFound is returned when a receipt did not show up within an explicit wait budget.
	ErrNotFound          = errors.New("not found")
	ErrUnparseableRevert = errors.New("unparseable revert")
	ErrInvalidAddress    = errors.New("invalid address")
)

// PreconditionError reports a write operation attempted while the message is in the wrong state.
type PreconditionError struct {
	Operation string
	Actual    fmt.Stringer
	Required  fmt.Stringer
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot %s: message status is %v, must be %v", e.Operation, e.Actual, e.Required)
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}
