// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package testhelpers

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// CallHandler answers a contract call with the method's decoded arguments.
type CallHandler func(args []interface{}, msg ethereum.CallMsg, block *big.Int) ([]interface{}, error)

type callKey struct {
	address  common.Address
	selector [4]byte
}

type registeredCall struct {
	method  abi.Method
	handler CallHandler
}

// MockChain is an in-memory chain client. It serves headers, receipts and logs that tests put
// into it, answers contract calls through registered handlers and records sent transactions.
type MockChain struct {
	mutex    sync.Mutex
	t        *testing.T
	chainId  *big.Int
	headers  map[uint64]*types.Header
	head     uint64
	receipts map[common.Hash]*types.Receipt
	txs      map[common.Hash]*types.Transaction
	logs     []types.Log
	calls    map[callKey]registeredCall
	sent     []*types.Transaction
	nonces   map[common.Address]uint64

	GasPrice     *big.Int
	GasEstimator func(msg ethereum.CallMsg) (uint64, error)
	// OnSend is called, without the lock held, for every transaction sent.
	OnSend func(tx *types.Transaction)
}

func NewMockChain(t *testing.T, chainId int64) *MockChain {
	m := &MockChain{
		t:        t,
		chainId:  big.NewInt(chainId),
		headers:  make(map[uint64]*types.Header),
		receipts: make(map[common.Hash]*types.Receipt),
		txs:      make(map[common.Hash]*types.Transaction),
		calls:    make(map[callKey]registeredCall),
		nonces:   make(map[common.Address]uint64),
		GasPrice: big.NewInt(100_000_000),
	}
	m.AddHeader(&types.Header{Number: common.Big0, Time: 0, BaseFee: big.NewInt(1), Difficulty: common.Big1})
	return m
}

// AddHeader stores header, which becomes the head if it is the highest one.
func (m *MockChain) AddHeader(header *types.Header) *types.Header {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	number := header.Number.Uint64()
	m.headers[number] = header
	if number > m.head {
		m.head = number
	}
	return header
}

// AddBlocks adds headers from the current head up to and including number, spaced secondsPerBlock apart.
func (m *MockChain) AddBlocks(number uint64, secondsPerBlock uint64) {
	m.mutex.Lock()
	head := m.headers[m.head]
	m.mutex.Unlock()
	for n := head.Number.Uint64() + 1; n <= number; n++ {
		m.AddHeader(&types.Header{
			Number:     new(big.Int).SetUint64(n),
			Time:       head.Time + (n-head.Number.Uint64())*secondsPerBlock,
			BaseFee:    head.BaseFee,
			Difficulty: common.Big1,
		})
	}
}

func (m *MockChain) Header(number uint64) *types.Header {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.headers[number]
}

// AddReceipt stores receipt, filling in its block hash and adding its logs to the log index.
func (m *MockChain) AddReceipt(receipt *types.Receipt) *types.Receipt {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if receipt.BlockNumber == nil {
		receipt.BlockNumber = new(big.Int).SetUint64(m.head)
	}
	if header, ok := m.headers[receipt.BlockNumber.Uint64()]; ok && receipt.BlockHash == (common.Hash{}) {
		receipt.BlockHash = header.Hash()
	}
	for _, l := range receipt.Logs {
		l.TxHash = receipt.TxHash
		l.BlockNumber = receipt.BlockNumber.Uint64()
		l.BlockHash = receipt.BlockHash
		m.logs = append(m.logs, *l)
	}
	m.receipts[receipt.TxHash] = receipt
	return receipt
}

// AddLogs indexes logs that are not attached to a stored receipt.
func (m *MockChain) AddLogs(logs ...types.Log) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.logs = append(m.logs, logs...)
}

// HandleCall registers handler for calls of method on the contract at address.
func (m *MockChain) HandleCall(address common.Address, parsed *abi.ABI, method string, handler CallHandler) {
	abiMethod, ok := parsed.Methods[method]
	if !ok {
		FailImpl(m.t, "abi has no method", method)
	}
	var selector [4]byte
	copy(selector[:], abiMethod.ID)
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.calls[callKey{address, selector}] = registeredCall{abiMethod, handler}
}

// Returns makes a CallHandler that always returns values.
func Returns(values ...interface{}) CallHandler {
	return func([]interface{}, ethereum.CallMsg, *big.Int) ([]interface{}, error) {
		return values, nil
	}
}

// Reverts makes a CallHandler that always reverts with data.
func Reverts(data []byte) CallHandler {
	return func([]interface{}, ethereum.CallMsg, *big.Int) ([]interface{}, error) {
		return nil, NewRevertError(data)
	}
}

func (m *MockChain) Sent() []*types.Transaction {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]*types.Transaction{}, m.sent...)
}

func (m *MockChain) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0xfe}, nil
}

func (m *MockChain) CodeAtHash(ctx context.Context, contract common.Address, blockHash common.Hash) ([]byte, error) {
	return []byte{0xfe}, nil
}

func (m *MockChain) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return []byte{0xfe}, nil
}

func (m *MockChain) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, errors.New("mock chain: unsupported call")
	}
	var key callKey
	key.address = *msg.To
	copy(key.selector[:], msg.Data[:4])
	m.mutex.Lock()
	call, ok := m.calls[key]
	m.mutex.Unlock()
	if !ok {
		return nil, fmt.Errorf("mock chain: no handler for %v selector %x", msg.To, msg.Data[:4])
	}
	args, err := call.method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	results, err := call.handler(args, msg, blockNumber)
	if err != nil {
		return nil, err
	}
	return call.method.Outputs.Pack(results...)
}

func (m *MockChain) CallContractAtHash(ctx context.Context, msg ethereum.CallMsg, blockHash common.Hash) ([]byte, error) {
	return m.CallContract(ctx, msg, nil)
}

func (m *MockChain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	n := m.head
	if number != nil && number.Sign() >= 0 {
		n = number.Uint64()
	}
	header, ok := m.headers[n]
	if !ok {
		return nil, ethereum.NotFound
	}
	return types.CopyHeader(header), nil
}

func (m *MockChain) HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, header := range m.headers {
		if header.Hash() == hash {
			return types.CopyHeader(header), nil
		}
	}
	return nil, ethereum.NotFound
}

func (m *MockChain) BlockNumber(ctx context.Context) (uint64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.head, nil
}

func (m *MockChain) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(m.chainId), nil
}

func (m *MockChain) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.nonces[account], nil
}

func (m *MockChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(m.GasPrice), nil
}

func (m *MockChain) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (m *MockChain) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if m.GasEstimator != nil {
		return m.GasEstimator(msg)
	}
	return 100_000, nil
}

func (m *MockChain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	signer := types.LatestSignerForChainID(m.chainId)
	from, err := types.Sender(signer, tx)
	if err != nil {
		return err
	}
	m.mutex.Lock()
	m.sent = append(m.sent, tx)
	m.txs[tx.Hash()] = tx
	m.nonces[from]++
	onSend := m.OnSend
	m.mutex.Unlock()
	if onSend != nil {
		onSend(tx)
	}
	return nil
}

func (m *MockChain) TransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	tx, ok := m.txs[txHash]
	if !ok {
		return nil, false, ethereum.NotFound
	}
	_, mined := m.receipts[txHash]
	return tx, !mined, nil
}

func (m *MockChain) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	receipt, ok := m.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (m *MockChain) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	from := uint64(0)
	if q.FromBlock != nil {
		from = q.FromBlock.Uint64()
	}
	to := m.head
	if q.ToBlock != nil && q.ToBlock.Sign() >= 0 {
		to = q.ToBlock.Uint64()
	}
	var result []types.Log
	for _, l := range m.logs {
		if q.BlockHash != nil {
			if l.BlockHash != *q.BlockHash {
				continue
			}
		} else if l.BlockNumber < from || l.BlockNumber > to {
			continue
		}
		if len(q.Addresses) > 0 && !containsAddress(q.Addresses, l.Address) {
			continue
		}
		if !topicsMatch(q.Topics, l.Topics) {
			continue
		}
		result = append(result, l)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].BlockNumber != result[j].BlockNumber {
			return result[i].BlockNumber < result[j].BlockNumber
		}
		return result[i].Index < result[j].Index
	})
	return result, nil
}

func (m *MockChain) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	}), nil
}

func containsAddress(addresses []common.Address, address common.Address) bool {
	for _, a := range addresses {
		if a == address {
			return true
		}
	}
	return false
}

func topicsMatch(filter [][]common.Hash, topics []common.Hash) bool {
	if len(filter) > len(topics) {
		return false
	}
	for i, alternatives := range filter {
		if len(alternatives) == 0 {
			continue
		}
		found := false
		for _, want := range alternatives {
			if topics[i] == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// RevertError is what an RPC node returns for a reverted eth_call.
type RevertError struct {
	data []byte
}

func NewRevertError(data []byte) *RevertError {
	return &RevertError{data: data}
}

func (e *RevertError) Error() string {
	return "execution reverted"
}

func (e *RevertError) ErrorCode() int {
	return 3
}

func (e *RevertError) ErrorData() interface{} {
	return hexutil.Encode(e.data)
}

// RevertReason encodes reason the way solidity's require does.
func RevertReason(reason string) []byte {
	stringType, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	if err != nil {
		panic(err)
	}
	return append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...)
}

// EventLog builds a log of event emitted at address, splitting args into topics and data.
func EventLog(t *testing.T, parsed *abi.ABI, eventName string, address common.Address, args ...interface{}) types.Log {
	t.Helper()
	ev, ok := parsed.Events[eventName]
	if !ok {
		FailImpl(t, "abi has no event", eventName)
	}
	if len(args) != len(ev.Inputs) {
		FailImpl(t, "wrong argument count for", eventName)
	}
	topics := []common.Hash{ev.ID}
	var data []interface{}
	for i, input := range ev.Inputs {
		if input.Indexed {
			topic, err := abi.MakeTopics([]interface{}{args[i]})
			RequireImpl(t, err)
			topics = append(topics, topic[0][0])
		} else {
			data = append(data, args[i])
		}
	}
	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	RequireImpl(t, err)
	return types.Log{
		Address: address,
		Topics:  topics,
		Data:    packed,
	}
}
