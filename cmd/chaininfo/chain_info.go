// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package chaininfo

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

//go:embed arbitrum_chain_info.json
var DefaultChainInfo []byte

// EthBridge holds the parent chain contracts of a rollup.
type EthBridge struct {
	Bridge         common.Address `json:"bridge"`
	Inbox          common.Address `json:"inbox"`
	SequencerInbox common.Address `json:"sequencer-inbox"`
	Outbox         common.Address `json:"outbox"`
	Rollup         common.Address `json:"rollup"`
	// ClassicOutboxes maps each pre-nitro outbox to its activation number, the first batch it does
	// not serve. A batch is served by the outbox with the lowest activation number above it.
	ClassicOutboxes map[common.Address]uint64 `json:"classic-outboxes,omitempty"`
}

type ArbitrumNetwork struct {
	ChainId                  uint64    `json:"chain-id"`
	ChainName                string    `json:"chain-name"`
	ParentChainId            uint64    `json:"parent-chain-id"`
	ParentChainIsArbitrum    bool      `json:"parent-chain-is-arbitrum"`
	ConfirmPeriodBlocks      uint64    `json:"confirm-period-blocks"`
	RetryableLifetimeSeconds uint64    `json:"retryable-lifetime-seconds"`
	NitroGenesisBlock        uint64    `json:"nitro-genesis-block"`
	NitroGenesisL1Block      uint64    `json:"nitro-genesis-l1-block"`
	DepositTimeoutMs         uint64    `json:"deposit-timeout-ms"`
	EthBridge                EthBridge `json:"eth-bridge"`
}

// DepositTimeout is how long waiting for an L1 to L2 message should take before giving up.
func (n *ArbitrumNetwork) DepositTimeout() time.Duration {
	return time.Duration(n.DepositTimeoutMs) * time.Millisecond
}

// IsClassicL1Block returns true if a message delivered in the given parent chain block predates nitro.
func (n *ArbitrumNetwork) IsClassicL1Block(l1Block uint64) bool {
	return l1Block < n.NitroGenesisL1Block
}

func (n *ArbitrumNetwork) IsClassicL2Block(l2Block uint64) bool {
	return l2Block < n.NitroGenesisBlock
}

type ClassicOutbox struct {
	Address         common.Address
	ActivationBatch uint64
}

// SortedClassicOutboxes returns the classic outboxes ordered by activation batch.
func (n *ArbitrumNetwork) SortedClassicOutboxes() []ClassicOutbox {
	outboxes := make([]ClassicOutbox, 0, len(n.EthBridge.ClassicOutboxes))
	for address, batch := range n.EthBridge.ClassicOutboxes {
		outboxes = append(outboxes, ClassicOutbox{address, batch})
	}
	sort.Slice(outboxes, func(i, j int) bool {
		if outboxes[i].ActivationBatch != outboxes[j].ActivationBatch {
			return outboxes[i].ActivationBatch < outboxes[j].ActivationBatch
		}
		return bytes.Compare(outboxes[i].Address[:], outboxes[j].Address[:]) < 0
	})
	return outboxes
}

func (n *ArbitrumNetwork) Validate() error {
	if n.ChainId == 0 {
		return fmt.Errorf("network %q has no chain id", n.ChainName)
	}
	if n.EthBridge.Inbox == (common.Address{}) || n.EthBridge.Rollup == (common.Address{}) || n.EthBridge.Outbox == (common.Address{}) {
		return fmt.Errorf("network %v is missing eth bridge addresses", n.ChainId)
	}
	if n.RetryableLifetimeSeconds == 0 {
		return fmt.Errorf("network %v has no retryable lifetime", n.ChainId)
	}
	return nil
}

func parseNetworks(data []byte) ([]ArbitrumNetwork, error) {
	var networks []ArbitrumNetwork
	err := json.Unmarshal(data, &networks)
	if err != nil {
		decoded, decodeErr := io.ReadAll(base64.NewDecoder(base64.StdEncoding, bytes.NewReader(data)))
		if decodeErr != nil {
			return nil, err
		}
		if err = json.Unmarshal(decoded, &networks); err != nil {
			return nil, err
		}
	}
	return networks, nil
}

func findNetwork(networks []ArbitrumNetwork, chainId uint64, chainName string) *ArbitrumNetwork {
	for i := range networks {
		if (chainId != 0 && networks[i].ChainId == chainId) || (chainName != "" && networks[i].ChainName == chainName) {
			return &networks[i]
		}
	}
	return nil
}

// GetArbitrumNetwork looks the network up by id or name, first in the inline json, then in the
// given files and finally in the built in list.
func GetArbitrumNetwork(chainId uint64, chainName string, chainInfoFiles []string, chainInfoJson string) (*ArbitrumNetwork, error) {
	var sources [][]byte
	if chainInfoJson != "" {
		sources = append(sources, []byte(chainInfoJson))
	}
	for _, file := range chainInfoFiles {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s err %w", file, err)
		}
		sources = append(sources, data)
	}
	sources = append(sources, DefaultChainInfo)
	for i, data := range sources {
		networks, err := parseNetworks(data)
		if err != nil {
			return nil, err
		}
		if network := findNetwork(networks, chainId, chainName); network != nil {
			if err := network.Validate(); err != nil {
				return nil, err
			}
			log.Debug("found arbitrum network", "chainId", network.ChainId, "name", network.ChainName, "source", i)
			return network, nil
		}
	}
	if chainId != 0 {
		return nil, fmt.Errorf("unsupported L2 chain ID %v", chainId)
	}
	return nil, fmt.Errorf("unsupported L2 chain name %v", chainName)
}
