// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package headerreader

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestExecutionReverted(t *testing.T) {
	executionRevertedErrors := []string{
		// go-ethereum and most other execution clients return "execution reverted"
		"execution reverted",
		// execution clients may decode the EVM revert data as a string and include it in the error
		"execution reverted: FOO",
		// besu returns "Execution reverted"
		"Execution reverted",
		// nethermind returns "VM execution error."
		"VM execution error.",
	}
	for _, errString := range executionRevertedErrors {
		if !IsExecutionReverted(errors.New(errString)) {
			t.Fatalf("execution reverted regexp didn't match %q", errString)
		}
	}
	// This regexp should not match random IO errors
	if IsExecutionReverted(errors.New(io.ErrUnexpectedEOF.Error())) {
		t.Fatal("execution reverted regexp matched unexpected EOF")
	}

	if !IsExecutionReverted(&executionRevertedError{}) {
		t.Fatal("execution reverted error didn't match")
	}
}

type executionRevertedError struct{}

func (e *executionRevertedError) ErrorCode() int { return 3 }

func (e *executionRevertedError) Error() string {
	return "executionRevertedError"
}

type dataError struct {
	data interface{}
}

func (e *dataError) ErrorCode() int { return 3 }

func (e *dataError) Error() string { return "execution reverted" }

func (e *dataError) ErrorData() interface{} { return e.data }

func TestRevertData(t *testing.T) {
	// Error(string) with reason "ALREADY_SPENT"
	revert := "0x08c379a0" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"000000000000000000000000000000000000000000000000000000000000000d" +
		"414c52454144595f5350454e5400000000000000000000000000000000000000"
	err := fmt.Errorf("calling outbox: %w", &dataError{data: revert})
	data, ok := RevertData(err)
	if !ok || len(data) != 4+3*32 {
		t.Fatalf("revert data not extracted: %x %v", data, ok)
	}
	reason, ok := RevertReason(err)
	if !ok || reason != "ALREADY_SPENT" {
		t.Fatalf("unexpected revert reason %q", reason)
	}
	if !HasErrorSelector(err, []byte{0x08, 0xc3, 0x79, 0xa0}) {
		t.Fatal("selector not matched")
	}
	if HasErrorSelector(err, []byte{0x80, 0x69, 0x8f, 0x71}) {
		t.Fatal("wrong selector matched")
	}

	reason, ok = RevertReason(errors.New("execution reverted: NO_OUTBOX_ENTRY"))
	if !ok || reason != "NO_OUTBOX_ENTRY" {
		t.Fatalf("unexpected message revert reason %q", reason)
	}
	if _, ok := RevertData(errors.New("execution reverted")); ok {
		t.Fatal("plain error has no revert data")
	}
	if _, ok := RevertData(&dataError{data: "not hex"}); ok {
		t.Fatal("malformed revert data accepted")
	}
}
