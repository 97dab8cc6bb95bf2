// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package contracts holds the ABIs of the L1 bridge contracts and L2 precompiles the message
// client talks to, with small typed bindings over bind.BoundContract.
package contracts

import (
	"embed"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

//go:embed abi/*.json
var abiFiles embed.FS

// Precompile and pseudo-contract addresses on every arbitrum chain.
var (
	ArbSysAddress         = common.HexToAddress("0x0000000000000000000000000000000000000064")
	ArbRetryableTxAddress = common.HexToAddress("0x000000000000000000000000000000000000006E")
	NodeInterfaceAddress  = common.HexToAddress("0x00000000000000000000000000000000000000C8")
)

var (
	ArbRetryableTxABI = mustLoadABI("ArbRetryableTx")
	ArbSysABI         = mustLoadABI("ArbSys")
	NodeInterfaceABI  = mustLoadABI("NodeInterface")
	InboxABI          = mustLoadABI("Inbox")
	BridgeABI         = mustLoadABI("Bridge")
	OutboxABI         = mustLoadABI("Outbox")
	ClassicOutboxABI  = mustLoadABI("ClassicOutbox")
	RollupABI         = mustLoadABI("Rollup")
	SequencerInboxABI = mustLoadABI("SequencerInbox")
)

func mustLoadABI(name string) *abi.ABI {
	data, err := abiFiles.ReadFile("abi/" + name + ".json")
	if err != nil {
		panic(err)
	}
	parsed, err := abi.JSON(strings.NewReader(string(data)))
	if err != nil {
		panic(fmt.Sprintf("failed to parse %s abi: %v", name, err))
	}
	return &parsed
}

func mustEventID(parsed *abi.ABI, name string) common.Hash {
	ev, ok := parsed.Events[name]
	if !ok {
		panic("missing event " + name)
	}
	return ev.ID
}

func mustErrorSelector(parsed *abi.ABI, name string) []byte {
	e, ok := parsed.Errors[name]
	if !ok {
		panic("missing error " + name)
	}
	return e.ID.Bytes()[:4]
}

// unpackLog decodes log into out, both the data and the indexed topics.
func unpackLog(parsed *abi.ABI, out interface{}, event string, log types.Log) error {
	ev, ok := parsed.Events[event]
	if !ok {
		return fmt.Errorf("abi has no event %s", event)
	}
	if len(log.Topics) == 0 {
		return fmt.Errorf("%s: anonymous log", event)
	}
	if log.Topics[0] != ev.ID {
		return fmt.Errorf("%s: event signature mismatch", event)
	}
	if len(log.Data) > 0 {
		if err := parsed.UnpackIntoInterface(out, event, log.Data); err != nil {
			return err
		}
	}
	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return abi.ParseTopics(out, indexed, log.Topics[1:])
}

type boundContract struct {
	address  common.Address
	abi      *abi.ABI
	contract *bind.BoundContract
}

func newBoundContract(address common.Address, parsed *abi.ABI, backend bind.ContractBackend) boundContract {
	return boundContract{
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, *parsed, backend, backend, backend),
	}
}

func (c *boundContract) Address() common.Address {
	return c.address
}

func (c *boundContract) call(opts *bind.CallOpts, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	err := c.contract.Call(opts, &out, method, args...)
	return out, err
}

func (c *boundContract) transact(opts *bind.TransactOpts, method string, args ...interface{}) (*types.Transaction, error) {
	return c.contract.Transact(opts, method, args...)
}
