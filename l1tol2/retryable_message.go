// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package l1tol2

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/arbmsg/arbos/retryables"
	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/cmd/chaininfo"
	"github.com/offchainlabs/arbmsg/contracts"
	"github.com/offchainlabs/arbmsg/util/headerreader"
)

// RedeemResult is the status of a ticket, with the receipt of the successful redeem if it was redeemed.
type RedeemResult struct {
	Status  RetryableMessageStatus
	Receipt *types.Receipt
}

// RetryableMessage reads the state of a retryable ticket on the arbitrum chain. Messages built with
// a signer are also a *RetryableMessageWriter.
type RetryableMessage interface {
	CreationId() common.Hash
	Status(ctx context.Context) (RetryableMessageStatus, error)
	GetSuccessfulRedeem(ctx context.Context) (*RedeemResult, error)
	WaitForStatus(ctx context.Context, confirmations uint64, timeout time.Duration) (*RedeemResult, error)
	GetRetryableCreationReceipt(ctx context.Context, confirmations uint64, timeout time.Duration) (*types.Receipt, error)
	GetAutoRedeemAttempt(ctx context.Context) (*types.Receipt, error)
	GetTimeout(ctx context.Context) (uint64, error)
	GetBeneficiary(ctx context.Context) (common.Address, error)
}

type RetryableMessageReader struct {
	l2Client           arbutil.ChainClient
	retryableTx        *contracts.ArbRetryableTx
	lifetimeSeconds    uint64
	defaultWaitTimeout time.Duration

	ChainId             *big.Int
	Sender              common.Address
	MessageNumber       *big.Int
	L1BaseFee           *big.Int
	Params              *retryables.SubmitRetryableParams
	RetryableCreationId common.Hash

	mutex           sync.Mutex
	creationReceipt *types.Receipt
	final           *RedeemResult
}

// NewRetryableMessage returns a *RetryableMessageWriter if signer is set, and a
// *RetryableMessageReader otherwise.
func NewRetryableMessage(
	l2Client arbutil.ChainClient,
	network *chaininfo.ArbitrumNetwork,
	sender common.Address,
	messageNumber *big.Int,
	l1BaseFee *big.Int,
	params *retryables.SubmitRetryableParams,
	signer *bind.TransactOpts,
) RetryableMessage {
	reader := NewRetryableMessageReader(l2Client, network, sender, messageNumber, l1BaseFee, params)
	if signer == nil {
		return reader
	}
	return &RetryableMessageWriter{RetryableMessageReader: reader, signer: signer}
}

func NewRetryableMessageReader(
	l2Client arbutil.ChainClient,
	network *chaininfo.ArbitrumNetwork,
	sender common.Address,
	messageNumber *big.Int,
	l1BaseFee *big.Int,
	params *retryables.SubmitRetryableParams,
) *RetryableMessageReader {
	chainId := new(big.Int).SetUint64(network.ChainId)
	lifetime := network.RetryableLifetimeSeconds
	if lifetime == 0 {
		lifetime = retryables.RetryableLifetimeSeconds
	}
	return &RetryableMessageReader{
		l2Client:            l2Client,
		retryableTx:         contracts.NewArbRetryableTx(l2Client),
		lifetimeSeconds:     lifetime,
		defaultWaitTimeout:  network.DepositTimeout(),
		ChainId:             chainId,
		Sender:              sender,
		MessageNumber:       messageNumber,
		L1BaseFee:           l1BaseFee,
		Params:              params,
		RetryableCreationId: retryables.CalculateSubmitRetryableId(chainId, sender, messageNumber, l1BaseFee, params),
	}
}

func (m *RetryableMessageReader) CreationId() common.Hash {
	return m.RetryableCreationId
}

// GetRetryableCreationReceipt returns the receipt of the ticket creation. Without confirmations
// and timeout it returns nil if there is no receipt yet; otherwise it waits for one and fails with
// arbutil.ErrNotFound when the timeout runs out.
func (m *RetryableMessageReader) GetRetryableCreationReceipt(ctx context.Context, confirmations uint64, timeout time.Duration) (*types.Receipt, error) {
	m.mutex.Lock()
	cached := m.creationReceipt
	m.mutex.Unlock()
	if cached != nil {
		return cached, nil
	}
	var receipt *types.Receipt
	var err error
	if confirmations == 0 && timeout == 0 {
		receipt, err = arbutil.GetReceipt(ctx, m.l2Client, m.RetryableCreationId)
	} else {
		receipt, err = arbutil.WaitForReceipt(ctx, m.l2Client, m.RetryableCreationId, confirmations, timeout)
	}
	if err != nil || receipt == nil {
		return nil, err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.creationReceipt == nil {
		m.creationReceipt = receipt
	}
	return m.creationReceipt, nil
}

// redeemScheduledEvents returns the RedeemScheduled events of this ticket in logs.
func (m *RetryableMessageReader) redeemScheduledEvents(logs []*types.Log) ([]*contracts.RedeemScheduled, error) {
	var events []*contracts.RedeemScheduled
	for _, l := range logs {
		if l.Address != contracts.ArbRetryableTxAddress || len(l.Topics) < 2 || l.Topics[0] != contracts.RedeemScheduledID {
			continue
		}
		ev, err := contracts.ParseRedeemScheduled(*l)
		if err != nil {
			return nil, err
		}
		if ev.TicketId == m.RetryableCreationId {
			events = append(events, ev)
		}
	}
	return events, nil
}

// GetAutoRedeemAttempt returns the receipt of the redeem scheduled when the ticket was created, or
// nil if there was none.
func (m *RetryableMessageReader) GetAutoRedeemAttempt(ctx context.Context) (*types.Receipt, error) {
	creationReceipt, err := m.GetRetryableCreationReceipt(ctx, 0, 0)
	if err != nil || creationReceipt == nil {
		return nil, err
	}
	events, err := m.redeemScheduledEvents(creationReceipt.Logs)
	if err != nil {
		return nil, err
	}
	if len(events) > 1 {
		return nil, fmt.Errorf("%w: %d auto redeems scheduled for ticket %v", arbutil.ErrProtocolInvariant, len(events), m.RetryableCreationId)
	}
	if len(events) == 0 {
		return nil, nil
	}
	return arbutil.GetReceipt(ctx, m.l2Client, events[0].RetryTxHash)
}

// retryableExists is true while the ticket is stored and not yet timed out.
func (m *RetryableMessageReader) retryableExists(ctx context.Context) (bool, error) {
	timeout, err := m.retryableTx.GetTimeout(&bind.CallOpts{Context: ctx}, m.RetryableCreationId)
	if headerreader.HasErrorSelector(err, contracts.NoTicketWithIDError) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	head, err := m.l2Client.HeaderByNumber(ctx, nil)
	if err != nil {
		return false, err
	}
	return new(big.Int).SetUint64(head.Time).Cmp(timeout) <= 0, nil
}

// GetSuccessfulRedeem works out the status of the ticket. Once a final status is seen it is kept.
func (m *RetryableMessageReader) GetSuccessfulRedeem(ctx context.Context) (*RedeemResult, error) {
	m.mutex.Lock()
	final := m.final
	m.mutex.Unlock()
	if final != nil {
		return final, nil
	}
	result, err := m.getSuccessfulRedeem(ctx)
	if err != nil {
		return nil, err
	}
	if result.Status.IsFinal() {
		m.mutex.Lock()
		if m.final == nil {
			m.final = result
		}
		result = m.final
		m.mutex.Unlock()
	}
	return result, nil
}

func (m *RetryableMessageReader) getSuccessfulRedeem(ctx context.Context) (*RedeemResult, error) {
	creationReceipt, err := m.GetRetryableCreationReceipt(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	if creationReceipt == nil {
		return &RedeemResult{Status: NotYetCreated}, nil
	}
	if creationReceipt.Status != types.ReceiptStatusSuccessful {
		return &RedeemResult{Status: CreationFailed}, nil
	}
	autoRedeem, err := m.GetAutoRedeemAttempt(ctx)
	if err != nil {
		return nil, err
	}
	if autoRedeem != nil && autoRedeem.Status == types.ReceiptStatusSuccessful {
		return &RedeemResult{Status: Redeemed, Receipt: autoRedeem}, nil
	}
	exists, err := m.retryableExists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return &RedeemResult{Status: FundsDepositedOnL2}, nil
	}
	redeem, err := m.scanForRedeem(ctx, creationReceipt.BlockNumber.Uint64())
	if err != nil {
		return nil, err
	}
	if redeem != nil {
		return &RedeemResult{Status: Redeemed, Receipt: redeem}, nil
	}
	return &RedeemResult{Status: Expired}, nil
}

func (m *RetryableMessageReader) Status(ctx context.Context) (RetryableMessageStatus, error) {
	result, err := m.GetSuccessfulRedeem(ctx)
	if err != nil {
		return 0, err
	}
	return result.Status, nil
}

// WaitForStatus waits for the ticket to be created, then returns its status. A zero timeout uses
// the network's deposit timeout.
func (m *RetryableMessageReader) WaitForStatus(ctx context.Context, confirmations uint64, timeout time.Duration) (*RedeemResult, error) {
	if timeout == 0 {
		timeout = m.defaultWaitTimeout
	}
	receipt, err := m.GetRetryableCreationReceipt(ctx, confirmations, timeout)
	if errors.Is(err, arbutil.ErrNotFound) {
		return nil, fmt.Errorf("%w: timed out waiting to retrieve retryable creation receipt of %v", arbutil.ErrNotFound, m.RetryableCreationId)
	}
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, fmt.Errorf("%w: retryable creation receipt of %v", arbutil.ErrNotFound, m.RetryableCreationId)
	}
	log.Debug("retryable created", "ticket", m.RetryableCreationId, "block", receipt.BlockNumber)
	return m.GetSuccessfulRedeem(ctx)
}

// GetTimeout returns when the ticket expires, in seconds since the epoch.
func (m *RetryableMessageReader) GetTimeout(ctx context.Context) (uint64, error) {
	timeout, err := m.retryableTx.GetTimeout(&bind.CallOpts{Context: ctx}, m.RetryableCreationId)
	if err != nil {
		return 0, err
	}
	return timeout.Uint64(), nil
}

// GetBeneficiary returns who gets the call value if the ticket is cancelled or expires.
func (m *RetryableMessageReader) GetBeneficiary(ctx context.Context) (common.Address, error) {
	return m.retryableTx.GetBeneficiary(&bind.CallOpts{Context: ctx}, m.RetryableCreationId)
}

// GetLifetime returns the lifetime of new tickets according to the chain.
func (m *RetryableMessageReader) GetLifetime(ctx context.Context) (uint64, error) {
	lifetime, err := m.retryableTx.GetLifetime(&bind.CallOpts{Context: ctx})
	if err != nil {
		return 0, err
	}
	return lifetime.Uint64(), nil
}

// RetryableMessageWriter can also redeem, cancel and keep alive the ticket.
type RetryableMessageWriter struct {
	*RetryableMessageReader
	signer *bind.TransactOpts
}

func (w *RetryableMessageWriter) transactOpts(ctx context.Context) *bind.TransactOpts {
	opts := *w.signer
	opts.Context = ctx
	return &opts
}

func (w *RetryableMessageWriter) requireFundsDeposited(ctx context.Context, operation string) error {
	status, err := w.Status(ctx)
	if err != nil {
		return err
	}
	if status != FundsDepositedOnL2 {
		return &arbutil.PreconditionError{Operation: operation, Actual: status, Required: FundsDepositedOnL2}
	}
	return nil
}

// Redeem manually redeems the ticket. The returned handle resolves to the retry transaction.
func (w *RetryableMessageWriter) Redeem(ctx context.Context) (*RedeemTransaction, error) {
	if err := w.requireFundsDeposited(ctx, "redeem"); err != nil {
		return nil, err
	}
	tx, err := w.retryableTx.Redeem(w.transactOpts(ctx), w.RetryableCreationId)
	if err != nil {
		return nil, err
	}
	return &RedeemTransaction{Transaction: tx, l2Client: w.l2Client, from: w.signer.From}, nil
}

// Cancel cancels the ticket, sending its call value to the beneficiary.
func (w *RetryableMessageWriter) Cancel(ctx context.Context) (*types.Transaction, error) {
	if err := w.requireFundsDeposited(ctx, "cancel"); err != nil {
		return nil, err
	}
	return w.retryableTx.Cancel(w.transactOpts(ctx), w.RetryableCreationId)
}

// KeepAlive extends the ticket's lifetime by one lifetime period.
func (w *RetryableMessageWriter) KeepAlive(ctx context.Context) (*types.Transaction, error) {
	if err := w.requireFundsDeposited(ctx, "keep alive"); err != nil {
		return nil, err
	}
	return w.retryableTx.Keepalive(w.transactOpts(ctx), w.RetryableCreationId)
}
