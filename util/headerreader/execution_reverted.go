// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package headerreader

import (
	"bytes"
	"errors"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var executionRevertedRegexp = regexp.MustCompile("(?i)execution reverted|VM execution error.?")

// IsExecutionReverted returns true if err is an RPC error telling us a call reverted.
func IsExecutionReverted(err error) bool {
	if err == nil {
		return false
	}
	var rpcError rpc.Error
	if errors.As(err, &rpcError) && rpcError.ErrorCode() == 3 {
		return true
	}
	return executionRevertedRegexp.MatchString(err.Error())
}

// RevertData extracts the bytes a reverted call returned, when the node attached them to err.
func RevertData(err error) ([]byte, bool) {
	var dataError rpc.DataError
	if !errors.As(err, &dataError) {
		return nil, false
	}
	switch data := dataError.ErrorData().(type) {
	case string:
		decoded, decodeErr := hexutil.Decode(data)
		if decodeErr != nil {
			return nil, false
		}
		return decoded, true
	case []byte:
		return data, true
	case hexutil.Bytes:
		return data, true
	}
	return nil, false
}

// RevertReason returns the Error(string) reason of a revert, falling back to the reason some
// nodes append to the error message.
func RevertReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	if data, ok := RevertData(err); ok {
		if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
			return reason, true
		}
	}
	msg := err.Error()
	if i := strings.Index(strings.ToLower(msg), "execution reverted: "); i >= 0 {
		return msg[i+len("execution reverted: "):], true
	}
	return "", false
}

// HasErrorSelector reports whether err is a revert carrying the custom error with selector.
func HasErrorSelector(err error, selector []byte) bool {
	data, ok := RevertData(err)
	return ok && len(data) >= 4 && bytes.Equal(data[:4], selector)
}
