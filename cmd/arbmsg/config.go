// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/arbmsg/arbutil"
	"github.com/offchainlabs/arbmsg/cmd/chaininfo"
	"github.com/offchainlabs/arbmsg/cmd/genericconf"
	"github.com/offchainlabs/arbmsg/cmd/util"
	"github.com/offchainlabs/arbmsg/contracts"
	"github.com/offchainlabs/arbmsg/gasestimator"
)

var errConfigDumped = errors.New("config dumped")

// Keys never printed by --conf.dump.
var redactedKeys = []string{
	"parent-chain.wallet.password",
	"parent-chain.wallet.private-key",
	"chain.wallet.password",
	"chain.wallet.private-key",
}

type CommonConfig struct {
	Conf        genericconf.ConfConfig        `koanf:"conf"`
	LogLevel    string                        `koanf:"log-level"`
	LogType     string                        `koanf:"log-type"`
	FileLogging genericconf.FileLoggingConfig `koanf:"file-logging"`
	ParentChain util.ParentChainConfig        `koanf:"parent-chain"`
	Chain       util.ChainConfig              `koanf:"chain"`
	Timeout     time.Duration                 `koanf:"timeout"`
}

var CommonConfigDefault = CommonConfig{
	Conf:        genericconf.ConfConfigDefault,
	LogLevel:    "info",
	LogType:     "plaintext",
	FileLogging: genericconf.DefaultFileLoggingConfig,
	ParentChain: util.ParentChainConfigDefault,
	Chain:       util.ChainConfigDefault,
	Timeout:     time.Minute,
}

func CommonConfigAddOptions(f *flag.FlagSet) {
	genericconf.ConfConfigAddOptions("conf", f)
	f.String("log-level", CommonConfigDefault.LogLevel, "log level, valid values are CRIT, ERROR, WARN, INFO, DEBUG, TRACE")
	f.String("log-type", CommonConfigDefault.LogType, "log type (plaintext or json)")
	genericconf.FileLoggingConfigAddOptions("file-logging", f)
	util.ParentChainConfigAddOptions("parent-chain", f)
	util.ChainConfigAddOptions("chain", f)
	f.Duration("timeout", CommonConfigDefault.Timeout, "how long to wait for RPC calls and transactions")
}

func (c *CommonConfig) Validate() error {
	return c.Chain.Validate()
}

func (c *CommonConfig) initLog() error {
	return genericconf.InitLog(c.LogType, c.LogLevel, &c.FileLogging, genericconf.DefaultPathResolver(""))
}

// parseCommand runs the common koanf parse into config, printing and stopping on --conf.dump.
func parseCommand(f *flag.FlagSet, args []string, config interface{}) error {
	k, err := util.BeginCommonParse(f, args)
	if err != nil {
		return err
	}
	if err := util.EndCommonParse(k, config); err != nil {
		return err
	}
	if k.Bool("conf.dump") {
		if err := util.DumpConfig(k, redactedKeys...); err != nil {
			return err
		}
		return errConfigDumped
	}
	return nil
}

type DepositStatusConfig struct {
	CommonConfig  `koanf:",squash"`
	Tx            string `koanf:"tx"`
	Confirmations uint64 `koanf:"confirmations"`
	Wait          bool   `koanf:"wait"`
	Redeem        bool   `koanf:"redeem"`
}

func parseDepositStatusConfig(args []string) (*DepositStatusConfig, error) {
	f := flag.NewFlagSet("deposit-status", flag.ContinueOnError)
	CommonConfigAddOptions(f)
	f.String("tx", "", "hash of the parent chain transaction that sent the messages")
	f.Uint64("confirmations", 0, "confirmations to wait for on the arbitrum chain")
	f.Bool("wait", false, "wait until every ticket reaches a final status or the timeout passes")
	f.Bool("redeem", false, "redeem tickets whose auto-redeem failed, using the chain wallet")

	config := DepositStatusConfig{CommonConfig: CommonConfigDefault}
	if err := parseCommand(f, args, &config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Tx == "" {
		return nil, errors.New("--tx is required")
	}
	return &config, nil
}

type WithdrawalStatusConfig struct {
	CommonConfig `koanf:",squash"`
	Tx           string `koanf:"tx"`
	Execute      bool   `koanf:"execute"`
}

func parseWithdrawalStatusConfig(args []string) (*WithdrawalStatusConfig, error) {
	f := flag.NewFlagSet("withdrawal-status", flag.ContinueOnError)
	CommonConfigAddOptions(f)
	f.String("tx", "", "hash of the arbitrum chain transaction that sent the withdrawals")
	f.Bool("execute", false, "execute confirmed withdrawals, using the parent chain wallet")

	config := WithdrawalStatusConfig{CommonConfig: CommonConfigDefault}
	if err := parseCommand(f, args, &config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Tx == "" {
		return nil, errors.New("--tx is required")
	}
	return &config, nil
}

type TicketConfig struct {
	From                   string `koanf:"from"`
	To                     string `koanf:"to"`
	L2CallValue            string `koanf:"l2-call-value"`
	ExcessFeeRefundAddress string `koanf:"excess-fee-refund-address"`
	CallValueRefundAddress string `koanf:"call-value-refund-address"`
	Data                   string `koanf:"data"`
}

var TicketConfigDefault = TicketConfig{
	L2CallValue: "0",
}

func TicketConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".from", TicketConfigDefault.From, "parent chain address creating the ticket")
	f.String(prefix+".to", TicketConfigDefault.To, "destination of the ticket on the arbitrum chain")
	f.String(prefix+".l2-call-value", TicketConfigDefault.L2CallValue, "wei sent with the L2 call")
	f.String(prefix+".excess-fee-refund-address", TicketConfigDefault.ExcessFeeRefundAddress, "refund address for unused fees (defaults to the sender)")
	f.String(prefix+".call-value-refund-address", TicketConfigDefault.CallValueRefundAddress, "beneficiary of the ticket (defaults to the sender)")
	f.String(prefix+".data", TicketConfigDefault.Data, "hex encoded L2 calldata")
}

// OverrideConfig adjusts one estimate. Empty fields keep the estimator's behaviour.
type OverrideConfig struct {
	Base            string `koanf:"base"`
	PercentIncrease string `koanf:"percent-increase"`
	Min             string `koanf:"min"`
}

func OverrideConfigAddOptions(prefix string, f *flag.FlagSet, what string) {
	f.String(prefix+".base", "", "use this "+what+" instead of estimating it")
	f.String(prefix+".percent-increase", "", "percent added to the "+what)
	f.String(prefix+".min", "", "lowest "+what+" to use")
}

type GasOverridesConfig struct {
	GasLimit         OverrideConfig `koanf:"gas-limit"`
	MaxSubmissionFee OverrideConfig `koanf:"max-submission-fee"`
	MaxFeePerGas     OverrideConfig `koanf:"max-fee-per-gas"`
	Deposit          OverrideConfig `koanf:"deposit"`
}

func GasOverridesConfigAddOptions(prefix string, f *flag.FlagSet) {
	OverrideConfigAddOptions(prefix+".gas-limit", f, "L2 gas limit")
	OverrideConfigAddOptions(prefix+".max-submission-fee", f, "max submission fee in wei")
	OverrideConfigAddOptions(prefix+".max-fee-per-gas", f, "max fee per gas in wei")
	OverrideConfigAddOptions(prefix+".deposit", f, "deposit in wei, whose base is also the sender balance assumed for gas estimation")
}

type EstimateConfig struct {
	CommonConfig `koanf:",squash"`
	Gas          gasestimator.Config `koanf:"gas"`
	Override     GasOverridesConfig  `koanf:"override"`
	Ticket       TicketConfig        `koanf:"ticket"`
}

func parseEstimateConfig(args []string) (*EstimateConfig, error) {
	f := flag.NewFlagSet("estimate", flag.ContinueOnError)
	CommonConfigAddOptions(f)
	gasestimator.ConfigAddOptions("gas", f)
	GasOverridesConfigAddOptions("override", f)
	TicketConfigAddOptions("ticket", f)

	config := EstimateConfig{CommonConfig: CommonConfigDefault, Gas: gasestimator.DefaultConfig, Ticket: TicketConfigDefault}
	if err := parseCommand(f, args, &config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

type connections struct {
	l1Client *ethclient.Client
	l2Client *ethclient.Client
	network  *chaininfo.ArbitrumNetwork
}

func (c *connections) Close() {
	if c.l1Client != nil {
		c.l1Client.Close()
	}
	if c.l2Client != nil {
		c.l2Client.Close()
	}
}

// connect resolves the arbitrum network and dials both chains, checking the arbitrum chain's id.
func (c *CommonConfig) connect(ctx context.Context, needL1 bool) (*connections, error) {
	network, err := chaininfo.GetArbitrumNetwork(c.Chain.ID, c.Chain.Name, c.Chain.InfoFiles, c.Chain.InfoJson)
	if err != nil {
		return nil, err
	}
	if c.Chain.URL == "" {
		return nil, fmt.Errorf("%w: --chain.url is required", arbutil.ErrConfiguration)
	}
	conns := &connections{network: network}
	conns.l2Client, err = ethclient.DialContext(ctx, c.Chain.URL)
	if err != nil {
		return nil, fmt.Errorf("error connecting to arbitrum chain: %w", err)
	}
	chainId, err := contracts.NewArbSys(conns.l2Client).ArbChainID(&bind.CallOpts{Context: ctx})
	if err != nil {
		conns.Close()
		return nil, fmt.Errorf("%w: node at %s is not an arbitrum chain: %w", arbutil.ErrConfiguration, c.Chain.URL, err)
	}
	if chainId.Uint64() != network.ChainId {
		conns.Close()
		return nil, fmt.Errorf("%w: node at %s has chain id %v, network %s has %v", arbutil.ErrConfiguration, c.Chain.URL, chainId, network.ChainName, network.ChainId)
	}
	genesis, err := contracts.NewNodeInterface(conns.l2Client).NitroGenesisBlock(&bind.CallOpts{Context: ctx})
	if err != nil {
		log.Warn("unable to read the node's nitro genesis block", "err", err)
	} else if genesis.Uint64() != network.NitroGenesisBlock {
		log.Warn("nitro genesis block differs from the network config", "node", genesis, "config", network.NitroGenesisBlock)
	}
	if needL1 {
		if c.ParentChain.URL == "" {
			conns.Close()
			return nil, fmt.Errorf("%w: --parent-chain.url is required", arbutil.ErrConfiguration)
		}
		conns.l1Client, err = ethclient.DialContext(ctx, c.ParentChain.URL)
		if err != nil {
			conns.Close()
			return nil, fmt.Errorf("error connecting to parent chain: %w", err)
		}
	}
	return conns, nil
}

// signer opens wallet for chainId if enabled, and returns nil otherwise.
func signer(ctx context.Context, client *ethclient.Client, enabled bool, description string, wallet *genericconf.WalletConfig) (*bind.TransactOpts, error) {
	if !enabled {
		return nil, nil
	}
	chainId, err := client.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	return util.OpenWallet(description, wallet, new(big.Int).Set(chainId))
}
