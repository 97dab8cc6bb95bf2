// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l1tol2

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/offchainlabs/arbmsg/arbos/retryables"
	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/cmd/chaininfo"
	"github.com/offchainlabs/arbmsg/contracts"
	"github.com/offchainlabs/arbmsg/util/testhelpers"
)

const testChainId = 42161

func testNetwork() *chaininfo.ArbitrumNetwork {
	return &chaininfo.ArbitrumNetwork{
		ChainId:                  testChainId,
		ChainName:                "test",
		ParentChainId:            1,
		RetryableLifetimeSeconds: 100,
		DepositTimeoutMs:         200,
	}
}

func testParams() *retryables.SubmitRetryableParams {
	return &retryables.SubmitRetryableParams{
		Destination:            testhelpers.RandomAddress(),
		L2CallValue:            big.NewInt(1000),
		L1Value:                big.NewInt(5000),
		MaxSubmissionFee:       big.NewInt(300),
		ExcessFeeRefundAddress: testhelpers.RandomAddress(),
		CallValueRefundAddress: testhelpers.RandomAddress(),
		GasLimit:               big.NewInt(30),
		MaxFeePerGas:           big.NewInt(100),
		Data:                   []byte{0xde, 0xad},
	}
}

type retryableFixture struct {
	chain   *testhelpers.MockChain
	network *chaininfo.ArbitrumNetwork
	message *RetryableMessageReader
}

// newRetryableFixture builds an arbitrum chain of 3000 blocks ten seconds apart.
func newRetryableFixture(t *testing.T) *retryableFixture {
	chain := testhelpers.NewMockChain(t, testChainId)
	chain.AddBlocks(3000, 10)
	network := testNetwork()
	chain.HandleCall(contracts.ArbRetryableTxAddress, contracts.ArbRetryableTxABI, "getLifetime", testhelpers.Returns(new(big.Int).SetUint64(network.RetryableLifetimeSeconds)))
	message := NewRetryableMessageReader(chain, network, testhelpers.RandomAddress(), big.NewInt(77), big.NewInt(30), testParams())
	return &retryableFixture{chain: chain, network: network, message: message}
}

func (f *retryableFixture) ticket() common.Hash {
	return f.message.RetryableCreationId
}

func (f *retryableFixture) redeemLog(t *testing.T, retryTxHash common.Hash) *types.Log {
	l := testhelpers.EventLog(t, contracts.ArbRetryableTxABI, "RedeemScheduled", contracts.ArbRetryableTxAddress,
		f.ticket(), retryTxHash, uint64(0), uint64(30), testhelpers.RandomAddress(), big.NewInt(0), big.NewInt(0))
	return &l
}

func (f *retryableFixture) addReceipt(block uint64, txHash common.Hash, status uint64, logs ...*types.Log) *types.Receipt {
	return f.chain.AddReceipt(&types.Receipt{
		TxHash:      txHash,
		BlockNumber: new(big.Int).SetUint64(block),
		Status:      status,
		Logs:        logs,
	})
}

func (f *retryableFixture) addCreation(block uint64, status uint64, logs ...*types.Log) {
	f.addReceipt(block, f.ticket(), status, logs...)
}

// addRedeem adds a redeem transaction in block scheduling a retry with the given status.
func (f *retryableFixture) addRedeem(t *testing.T, block uint64, status uint64) common.Hash {
	retry := testhelpers.RandomHash()
	f.addReceipt(block, testhelpers.RandomHash(), types.ReceiptStatusSuccessful, f.redeemLog(t, retry))
	f.addReceipt(block, retry, status)
	return retry
}

func (f *retryableFixture) ticketGone() {
	f.chain.HandleCall(contracts.ArbRetryableTxAddress, contracts.ArbRetryableTxABI, "getTimeout", testhelpers.Reverts(contracts.NoTicketWithIDError))
}

func (f *retryableFixture) ticketLive(timeout uint64) {
	f.chain.HandleCall(contracts.ArbRetryableTxAddress, contracts.ArbRetryableTxABI, "getTimeout", testhelpers.Returns(new(big.Int).SetUint64(timeout)))
}

func expectStatus(t *testing.T, message RetryableMessage, expected RetryableMessageStatus) {
	t.Helper()
	status, err := message.Status(context.Background())
	Require(t, err)
	if status != expected {
		Fail(t, "expected status", expected, "got", status)
	}
}

func TestRetryableNotYetCreated(t *testing.T) {
	f := newRetryableFixture(t)
	expectStatus(t, f.message, NotYetCreated)
	receipt, err := f.message.GetRetryableCreationReceipt(context.Background(), 0, 0)
	Require(t, err)
	if receipt != nil {
		Fail(t, "found a creation receipt that doesn't exist")
	}
}

func TestRetryableCreationFailed(t *testing.T) {
	f := newRetryableFixture(t)
	f.addCreation(5, types.ReceiptStatusFailed)
	expectStatus(t, f.message, CreationFailed)
}

func TestRetryableAutoRedeemed(t *testing.T) {
	f := newRetryableFixture(t)
	retry := testhelpers.RandomHash()
	f.addCreation(5, types.ReceiptStatusSuccessful, f.redeemLog(t, retry))
	f.addReceipt(5, retry, types.ReceiptStatusSuccessful)
	result, err := f.message.GetSuccessfulRedeem(context.Background())
	Require(t, err)
	if result.Status != Redeemed || result.Receipt == nil || result.Receipt.TxHash != retry {
		Fail(t, "unexpected result", result)
	}
}

func TestRetryableTwoAutoRedeems(t *testing.T) {
	f := newRetryableFixture(t)
	f.addCreation(5, types.ReceiptStatusSuccessful, f.redeemLog(t, testhelpers.RandomHash()), f.redeemLog(t, testhelpers.RandomHash()))
	_, err := f.message.Status(context.Background())
	if !errors.Is(err, arbutil.ErrProtocolInvariant) {
		Fail(t, "expected a protocol invariant error, got", err)
	}
}

func TestRetryableFundsDeposited(t *testing.T) {
	f := newRetryableFixture(t)
	retry := testhelpers.RandomHash()
	f.addCreation(5, types.ReceiptStatusSuccessful, f.redeemLog(t, retry))
	f.addReceipt(5, retry, types.ReceiptStatusFailed)
	f.ticketLive(1_000_000)
	expectStatus(t, f.message, FundsDepositedOnL2)
	autoRedeem, err := f.message.GetAutoRedeemAttempt(context.Background())
	Require(t, err)
	if autoRedeem == nil || autoRedeem.Status != types.ReceiptStatusFailed {
		Fail(t, "expected the failed auto redeem", autoRedeem)
	}
}

func TestRetryableTimedOutTicketIsNotLive(t *testing.T) {
	f := newRetryableFixture(t)
	f.addCreation(1, types.ReceiptStatusSuccessful)
	// the timeout has passed but the ticket hasn't been deleted yet
	f.ticketLive(50)
	expectStatus(t, f.message, Expired)
}

func TestRetryableRedeemedManually(t *testing.T) {
	f := newRetryableFixture(t)
	f.addCreation(1, types.ReceiptStatusSuccessful)
	f.ticketGone()
	f.addRedeem(t, 3, types.ReceiptStatusFailed)
	retry := f.addRedeem(t, 8, types.ReceiptStatusSuccessful)
	result, err := f.message.GetSuccessfulRedeem(context.Background())
	Require(t, err)
	if result.Status != Redeemed || result.Receipt.TxHash != retry {
		Fail(t, "unexpected result", result)
	}
}

func TestRetryableTwoSuccessfulRedeems(t *testing.T) {
	f := newRetryableFixture(t)
	f.addCreation(1, types.ReceiptStatusSuccessful)
	f.ticketGone()
	f.addRedeem(t, 3, types.ReceiptStatusSuccessful)
	f.addRedeem(t, 4, types.ReceiptStatusSuccessful)
	_, err := f.message.Status(context.Background())
	if !errors.Is(err, arbutil.ErrProtocolInvariant) {
		Fail(t, "expected a protocol invariant error, got", err)
	}
}

func TestRetryableExpiresWithoutKeepalive(t *testing.T) {
	f := newRetryableFixture(t)
	f.addCreation(1, types.ReceiptStatusSuccessful)
	f.ticketGone()
	// past the first scan chunk and the ticket's timeout
	f.addRedeem(t, 2500, types.ReceiptStatusSuccessful)
	expectStatus(t, f.message, Expired)
}

func TestRetryableKeepaliveExtendsScan(t *testing.T) {
	f := newRetryableFixture(t)
	f.addCreation(1, types.ReceiptStatusSuccessful)
	f.ticketGone()
	keepalive := testhelpers.EventLog(t, contracts.ArbRetryableTxABI, "LifetimeExtended", contracts.ArbRetryableTxAddress, f.ticket(), big.NewInt(20_000))
	f.addReceipt(5, testhelpers.RandomHash(), types.ReceiptStatusSuccessful, &keepalive)
	retry := f.addRedeem(t, 2500, types.ReceiptStatusSuccessful)
	result, err := f.message.GetSuccessfulRedeem(context.Background())
	Require(t, err)
	if result.Status != Redeemed || result.Receipt.TxHash != retry {
		Fail(t, "unexpected result", result)
	}
}

func TestRetryableStatusDoesNotRegress(t *testing.T) {
	f := newRetryableFixture(t)
	f.addCreation(1, types.ReceiptStatusSuccessful)
	f.ticketGone()
	expectStatus(t, f.message, Expired)
	f.addRedeem(t, 2, types.ReceiptStatusSuccessful)
	expectStatus(t, f.message, Expired)
}

func TestRetryableWaitForStatus(t *testing.T) {
	arbutil.ReceiptPollInterval = 10 * time.Millisecond
	f := newRetryableFixture(t)
	_, err := f.message.WaitForStatus(context.Background(), 1, 0)
	if !errors.Is(err, arbutil.ErrNotFound) {
		Fail(t, "expected not found after the deposit timeout, got", err)
	}
	f.addCreation(2990, types.ReceiptStatusSuccessful)
	f.ticketLive(1_000_000)
	result, err := f.message.WaitForStatus(context.Background(), 5, time.Second)
	Require(t, err)
	if result.Status != FundsDepositedOnL2 {
		Fail(t, "unexpected status", result.Status)
	}
}

func newTestSigner(t *testing.T) *bind.TransactOpts {
	key, err := crypto.GenerateKey()
	Require(t, err)
	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(testChainId))
	Require(t, err)
	return opts
}

func TestRetryableWriterPreconditions(t *testing.T) {
	f := newRetryableFixture(t)
	message := NewRetryableMessage(f.chain, f.network, f.message.Sender, f.message.MessageNumber, f.message.L1BaseFee, f.message.Params, newTestSigner(t))
	writer, ok := message.(*RetryableMessageWriter)
	if !ok {
		Fail(t, "a message with a signer should be a writer")
	}
	ctx := context.Background()
	_, err := writer.Redeem(ctx)
	var precondition *arbutil.PreconditionError
	if !errors.As(err, &precondition) || precondition.Actual != NotYetCreated || precondition.Required != FundsDepositedOnL2 {
		Fail(t, "expected a precondition error, got", err)
	}
	if !errors.Is(err, arbutil.ErrPrecondition) {
		Fail(t, "precondition error should match ErrPrecondition")
	}
	if _, err := writer.Cancel(ctx); !errors.Is(err, arbutil.ErrPrecondition) {
		Fail(t, "cancel should fail its precondition, got", err)
	}
	if _, err := writer.KeepAlive(ctx); !errors.Is(err, arbutil.ErrPrecondition) {
		Fail(t, "keepalive should fail its precondition, got", err)
	}
	if len(f.chain.Sent()) != 0 {
		Fail(t, "transactions sent despite failed preconditions")
	}
	reader := NewRetryableMessage(f.chain, f.network, f.message.Sender, f.message.MessageNumber, f.message.L1BaseFee, f.message.Params, nil)
	if _, ok := reader.(*RetryableMessageReader); !ok {
		Fail(t, "a message without a signer should be a reader")
	}
}

func TestRetryableWriterRedeem(t *testing.T) {
	f := newRetryableFixture(t)
	f.addCreation(5, types.ReceiptStatusSuccessful)
	f.ticketLive(1_000_000)
	retry := testhelpers.RandomHash()
	f.chain.OnSend = func(tx *types.Transaction) {
		f.addReceipt(2000, tx.Hash(), types.ReceiptStatusSuccessful, f.redeemLog(t, retry))
		f.addReceipt(2000, retry, types.ReceiptStatusSuccessful)
	}
	message := NewRetryableMessage(f.chain, f.network, f.message.Sender, f.message.MessageNumber, f.message.L1BaseFee, f.message.Params, newTestSigner(t))
	writer := message.(*RetryableMessageWriter)
	ctx := context.Background()
	redeemTx, err := writer.Redeem(ctx)
	Require(t, err)
	sent := f.chain.Sent()
	if len(sent) != 1 || *sent[0].To() != contracts.ArbRetryableTxAddress {
		Fail(t, "expected one transaction to ArbRetryableTx")
	}
	method := contracts.ArbRetryableTxABI.Methods["redeem"]
	if common.BytesToHash(sent[0].Data()[4:]) != f.ticket() || string(sent[0].Data()[:4]) != string(method.ID) {
		Fail(t, "redeem sent with the wrong calldata")
	}
	receipt, err := redeemTx.WaitForRedeem(ctx, time.Second)
	Require(t, err)
	if receipt.TxHash != retry {
		Fail(t, "WaitForRedeem returned the wrong receipt")
	}
}

func TestRetryableReaderCalls(t *testing.T) {
	f := newRetryableFixture(t)
	beneficiary := testhelpers.RandomAddress()
	f.ticketLive(12345)
	f.chain.HandleCall(contracts.ArbRetryableTxAddress, contracts.ArbRetryableTxABI, "getBeneficiary", func(args []interface{}, _ ethereum.CallMsg, _ *big.Int) ([]interface{}, error) {
		if common.Hash(args[0].([32]byte)) != f.ticket() {
			return nil, testhelpers.NewRevertError(contracts.NoTicketWithIDError)
		}
		return []interface{}{beneficiary}, nil
	})
	f.chain.HandleCall(contracts.ArbRetryableTxAddress, contracts.ArbRetryableTxABI, "getLifetime", testhelpers.Returns(big.NewInt(604800)))
	ctx := context.Background()
	timeout, err := f.message.GetTimeout(ctx)
	Require(t, err)
	got, err := f.message.GetBeneficiary(ctx)
	Require(t, err)
	lifetime, err := f.message.GetLifetime(ctx)
	Require(t, err)
	if timeout != 12345 || got != beneficiary || lifetime != 604800 {
		Fail(t, "unexpected reads", timeout, got, lifetime)
	}
}

func Require(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	testhelpers.RequireImpl(t, err, printables...)
}

func Fail(t *testing.T, printables ...interface{}) {
	t.Helper()
	testhelpers.FailImpl(t, printables...)
}
