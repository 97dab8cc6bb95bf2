// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l2tol1

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/cmd/chaininfo"
	"github.com/offchainlabs/arbmsg/contracts"
	"github.com/offchainlabs/arbmsg/util/testhelpers"
)

func TestClassicOutboxAddress(t *testing.T) {
	first := testhelpers.RandomAddress()
	second := testhelpers.RandomAddress()
	network := &chaininfo.ArbitrumNetwork{}
	network.EthBridge.ClassicOutboxes = map[common.Address]uint64{
		second: math.MaxUint64,
		first:  30,
	}
	outboxes := network.SortedClassicOutboxes()
	for _, tc := range []struct {
		batch    uint64
		expected common.Address
	}{
		{0, first},
		{29, first},
		{30, second},
		{31, second},
		{math.MaxUint64 - 1, second},
		{math.MaxUint64, common.Address{}},
	} {
		if got := ClassicOutboxAddress(outboxes, tc.batch); got != tc.expected {
			Fail(t, "batch", tc.batch, "expected outbox", tc.expected, "got", got)
		}
	}
	if ClassicOutboxAddress(nil, 0) != (common.Address{}) {
		Fail(t, "expected no outbox without a table")
	}
}

type classicFixture struct {
	l1       *testhelpers.MockChain
	l2       *testhelpers.MockChain
	chains   *Chains
	outbox   common.Address
	replay   error
	exists   bool
	proofErr error
}

const testClassicBatch = 12

func newClassicFixture(t *testing.T) *classicFixture {
	f := &classicFixture{
		l1:     testhelpers.NewMockChain(t, 1),
		l2:     testhelpers.NewMockChain(t, 42161),
		outbox: testhelpers.RandomAddress(),
	}
	network := &chaininfo.ArbitrumNetwork{ChainId: 42161, NitroGenesisBlock: 100}
	network.EthBridge.ClassicOutboxes = map[common.Address]uint64{
		f.outbox:                    30,
		testhelpers.RandomAddress(): math.MaxUint64,
	}
	f.chains = &Chains{L1Client: f.l1, L2Client: f.l2, Network: network}

	f.l2.HandleCall(contracts.NodeInterfaceAddress, contracts.NodeInterfaceABI, "legacyLookupMessageBatchProof", func(args []interface{}, _ ethereum.CallMsg, _ *big.Int) ([]interface{}, error) {
		if f.proofErr != nil {
			return nil, f.proofErr
		}
		batch := args[0].(*big.Int)
		index := args[1].(uint64)
		return []interface{}{
			[][32]byte{testhelpers.RandomHash(), testhelpers.RandomHash()},
			new(big.Int).SetUint64(index + 100),
			common.HexToAddress("0x1111"),
			common.HexToAddress("0x2222"),
			big.NewInt(5),
			new(big.Int).Add(batch, big.NewInt(1000)),
			big.NewInt(7),
			big.NewInt(8),
			[]byte{9},
		}, nil
	})
	f.l1.HandleCall(f.outbox, contracts.ClassicOutboxABI, "executeTransaction", func([]interface{}, ethereum.CallMsg, *big.Int) ([]interface{}, error) {
		if f.replay != nil {
			return nil, f.replay
		}
		return nil, nil
	})
	f.l1.HandleCall(f.outbox, contracts.ClassicOutboxABI, "outboxEntryExists", func(args []interface{}, _ ethereum.CallMsg, _ *big.Int) ([]interface{}, error) {
		if args[0].(*big.Int).Int64() != testClassicBatch {
			return []interface{}{false}, nil
		}
		return []interface{}{f.exists}, nil
	})
	return f
}

func classicEvent(t *testing.T, batch *big.Int) *ClassicL2ToL1Event {
	log := testhelpers.EventLog(t, contracts.ArbSysABI, "L2ToL1Transaction", contracts.ArbSysAddress,
		testhelpers.RandomAddress(), testhelpers.RandomAddress(), big.NewInt(77), batch, big.NewInt(3),
		big.NewInt(5), big.NewInt(1000), big.NewInt(7), big.NewInt(8), []byte{9})
	ev, err := ParseL2ToL1Event(log)
	Require(t, err)
	classic, ok := ev.(*ClassicL2ToL1Event)
	if !ok {
		Fail(t, "expected a classic event, got", ev)
	}
	return classic
}

func revertWith(reason string) error {
	return testhelpers.NewRevertError(testhelpers.RevertReason(reason))
}

func newTestSigner(t *testing.T) *bind.TransactOpts {
	key, err := crypto.GenerateKey()
	Require(t, err)
	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(1))
	Require(t, err)
	return opts
}

func expectStatus(t *testing.T, message L2ToL1Message, expected L2ToL1MessageStatus) {
	t.Helper()
	status, err := message.Status(context.Background())
	Require(t, err)
	if status != expected {
		Fail(t, "expected status", expected, "got", status)
	}
}

func TestClassicStatus(t *testing.T) {
	f := newClassicFixture(t)
	message, err := NewL2ToL1Message(f.chains, classicEvent(t, big.NewInt(testClassicBatch)), nil)
	Require(t, err)
	if _, ok := message.(*ClassicL2ToL1MessageReader); !ok {
		Fail(t, "expected a classic reader, got", message)
	}

	f.replay = revertWith("NO_OUTBOX_ENTRY")
	expectStatus(t, message, Unconfirmed)
	f.exists = true
	expectStatus(t, message, Confirmed)
	f.replay = nil
	expectStatus(t, message, Confirmed)
	f.replay = revertWith("ALREADY_SPENT")
	expectStatus(t, message, Executed)
	f.replay = revertWith("NO_OUTBOX_ENTRY")
	f.exists = false
	expectStatus(t, message, Executed)

	_, wait, err := message.GetFirstExecutableBlock(context.Background())
	Require(t, err)
	if wait {
		Fail(t, "classic withdrawals have nothing to wait for")
	}
}

func TestClassicStatusIsConservative(t *testing.T) {
	f := newClassicFixture(t)
	f.exists = true
	f.replay = revertWith("Merkle proof failed")
	message, err := NewL2ToL1Message(f.chains, classicEvent(t, big.NewInt(testClassicBatch)), nil)
	Require(t, err)
	expectStatus(t, message, Unconfirmed)

	// no proof means nothing was executed, so only the outbox entry matters
	f.proofErr = revertWith("batch doesn't exist")
	message, err = NewL2ToL1Message(f.chains, classicEvent(t, big.NewInt(testClassicBatch)), nil)
	Require(t, err)
	expectStatus(t, message, Confirmed)
	proof, err := message.(*ClassicL2ToL1MessageReader).TryGetProof(context.Background())
	Require(t, err)
	if proof != nil {
		Fail(t, "expected no proof for a missing batch")
	}
}

func TestClassicWithoutOutbox(t *testing.T) {
	f := newClassicFixture(t)
	message, err := NewL2ToL1Message(f.chains, classicEvent(t, new(big.Int).SetUint64(math.MaxUint64)), newTestSigner(t))
	Require(t, err)
	if message.(*ClassicL2ToL1MessageWriter).OutboxAddress() != (common.Address{}) {
		Fail(t, "expected no outbox")
	}
	expectStatus(t, message, Unconfirmed)
	if _, err := message.(L2ToL1MessageWriter).Execute(context.Background()); !errors.Is(err, errNoClassicOutbox) {
		Fail(t, "expected missing outbox error, got", err)
	}
}

func TestClassicExecute(t *testing.T) {
	ctx := context.Background()
	f := newClassicFixture(t)
	message, err := NewL2ToL1Message(f.chains, classicEvent(t, big.NewInt(testClassicBatch)), newTestSigner(t))
	Require(t, err)
	writer, ok := message.(L2ToL1MessageWriter)
	if !ok {
		Fail(t, "expected a writer, got", message)
	}
	f.replay = revertWith("NO_OUTBOX_ENTRY")
	_, err = writer.Execute(ctx)
	if !errors.Is(err, arbutil.ErrPrecondition) {
		Fail(t, "expected precondition error, got", err)
	}

	f.replay = nil
	f.exists = true
	tx, err := writer.Execute(ctx)
	Require(t, err)
	if tx.To() == nil || *tx.To() != f.outbox {
		Fail(t, "execution not sent to the batch's outbox", tx.To())
	}
	args, err := contracts.ClassicOutboxABI.Methods["executeTransaction"].Inputs.Unpack(tx.Data()[4:])
	Require(t, err)
	if args[0].(*big.Int).Int64() != testClassicBatch || args[2].(*big.Int).Int64() != 103 {
		Fail(t, "unexpected batch or path", args[0], args[2])
	}
	if args[4].(common.Address) != common.HexToAddress("0x2222") || args[6].(*big.Int).Int64() != 1000+testClassicBatch {
		Fail(t, "unexpected destination or L1 block", args[4], args[6])
	}
	if len(f.l1.Sent()) != 1 {
		Fail(t, "expected one transaction, got", len(f.l1.Sent()))
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
