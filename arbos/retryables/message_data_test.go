// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package retryables

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"

	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/util/headerreader"
	"github.com/offchainlabs/arbmsg/util/testhelpers"
)

const submitRetryablePayload = "0x" +
	"0000000000000000000000006c411ad3e74de3e7bd422b94a27770f5b86c623b" +
	"0000000000000000000000000000000000000000000000000853a0d2313c0000" +
	"0000000000000000000000000000000000000000000000000854e8ab1802ca80" +
	"0000000000000000000000000000000000000000000000000001270f6740d880" +
	"000000000000000000000000a2e06c19ee14255889f0ec0ca37f6d0778d06754" +
	"000000000000000000000000a2e06c19ee14255889f0ec0ca37f6d0778d06754" +
	"000000000000000000000000000000000000000000000000000000000001d566" +
	"0000000000000000000000000000000000000000000000000000000011e1a300" +
	"0000000000000000000000000000000000000000000000000000000000000004" +
	"deadbeef"

var bigComparer = cmp.Comparer(func(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
})

func TestParseSubmitRetryableMessage(t *testing.T) {
	params, err := ParseSubmitRetryableMessage(common.FromHex(submitRetryablePayload))
	Require(t, err)
	want := testParams(testDest, common.FromHex("0xdeadbeef"))
	if diff := cmp.Diff(want, params, bigComparer); diff != "" {
		Fail(t, "parsed params mismatch (-want +got):\n", diff)
	}
	if !want.Equals(params) {
		Fail(t, "Equals disagrees with cmp")
	}
	if diff := cmp.Diff(common.FromHex(submitRetryablePayload), SerializeSubmitRetryableMessage(params)); diff != "" {
		Fail(t, "serialized payload mismatch:\n", diff)
	}
}

func TestSubmitRetryableMessageRoundTrip(t *testing.T) {
	for _, data := range [][]byte{nil, {0xab}, testhelpers.RandomAddress().Bytes()} {
		params := &SubmitRetryableParams{
			Destination:            testhelpers.RandomAddress(),
			L2CallValue:            big.NewInt(1),
			L1Value:                big.NewInt(2),
			MaxSubmissionFee:       big.NewInt(3),
			ExcessFeeRefundAddress: testhelpers.RandomAddress(),
			CallValueRefundAddress: testhelpers.RandomAddress(),
			GasLimit:               big.NewInt(4),
			MaxFeePerGas:           big.NewInt(5),
			Data:                   data,
		}
		encoded := SerializeSubmitRetryableMessage(params)
		if len(encoded) != 9*32+len(data) {
			Fail(t, "unexpected encoded length", len(encoded))
		}
		parsed, err := ParseSubmitRetryableMessage(encoded)
		Require(t, err)
		if !params.Equals(parsed) {
			Fail(t, "round trip mismatch", params, parsed)
		}
	}
}

func TestTicketIdFromInboxPayload(t *testing.T) {
	params, err := ParseSubmitRetryableMessage(common.FromHex(submitRetryablePayload))
	Require(t, err)
	id := CalculateSubmitRetryableId(testChainId, testSender, big.NewInt(0x504C), testL1BaseFee, params)
	if id != common.HexToHash("0x02017c2fd1c220ae7c98def740446dd68741edc5347b2592cebf0a48840ef175") {
		Fail(t, "unexpected ticket id", id)
	}
}

func TestParseSubmitRetryableMessageTruncated(t *testing.T) {
	payload := common.FromHex(submitRetryablePayload)
	for _, cut := range []int{0, 31, 32 * 8, len(payload) - 1} {
		if _, err := ParseSubmitRetryableMessage(payload[:cut]); err == nil {
			Fail(t, "truncated payload of", cut, "bytes parsed")
		}
	}
}

func TestParseEthDepositMessage(t *testing.T) {
	data := append(testDest.Bytes(), common.FromHex("0x0853a0d2313c0000")...)
	to, value, err := ParseEthDepositMessage(data)
	Require(t, err)
	if to != testDest || value.Cmp(big.NewInt(0x0853A0D2313C0000)) != 0 {
		Fail(t, "unexpected deposit", to, value)
	}
	to, value, err = ParseEthDepositMessage(testDest.Bytes())
	Require(t, err)
	if to != testDest || value.Sign() != 0 {
		Fail(t, "unexpected empty value deposit", to, value)
	}
	if _, _, err := ParseEthDepositMessage(testDest.Bytes()[:10]); err == nil {
		Fail(t, "short deposit parsed")
	}
}

type revertError struct {
	data string
}

func (e *revertError) Error() string          { return "execution reverted" }
func (e *revertError) ErrorCode() int         { return 3 }
func (e *revertError) ErrorData() interface{} { return e.data }

func TestRetryableDataRoundTrip(t *testing.T) {
	original := &RetryableData{
		From:                   testSender,
		To:                     testDest,
		L2CallValue:            big.NewInt(7),
		Deposit:                big.NewInt(1000),
		MaxSubmissionCost:      big.NewInt(1),
		ExcessFeeRefundAddress: testRefundTo,
		CallValueRefundAddress: testhelpers.RandomAddress(),
		GasLimit:               big.NewInt(1),
		MaxFeePerGas:           big.NewInt(1),
		Data:                   []byte{1, 2, 3},
	}
	encoded, err := original.ErrorData()
	Require(t, err)
	if !headerreader.HasErrorSelector(&revertError{"0x" + common.Bytes2Hex(encoded)}, encoded[:4]) {
		Fail(t, "selector check failed")
	}
	decoded, err := RetryableDataFromError(&revertError{"0x" + common.Bytes2Hex(encoded)})
	Require(t, err)
	if diff := cmp.Diff(original, decoded, bigComparer); diff != "" {
		Fail(t, "decoded retryable data mismatch (-want +got):\n", diff)
	}
}

func TestRetryableDataUnparseable(t *testing.T) {
	for _, err := range []error{
		nil,
		errors.New("execution reverted"),
		&revertError{"0x08c379a0"},
		&revertError{"0x"},
	} {
		if _, parseErr := RetryableDataFromError(err); !errors.Is(parseErr, arbutil.ErrUnparseableRevert) {
			Fail(t, "expected unparseable revert for", err, "got", parseErr)
		}
	}
}
