// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"errors"
	"fmt"
	"math/big"

	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/arbmsg/arbos/retryables"
	arbosutil "github.com/offchainlabs/arbmsg/arbos/util"
	"github.com/offchainlabs/arbmsg/cmd/util"
)

type AliasConfig struct {
	Address string `koanf:"address"`
	Undo    bool   `koanf:"undo"`
}

func parseAliasConfig(args []string) (*AliasConfig, error) {
	f := flag.NewFlagSet("alias", flag.ContinueOnError)
	f.String("address", "", "address to alias")
	f.Bool("undo", false, "recover the parent chain address from an aliased one")

	k, err := util.BeginCommonParse(f, args)
	if err != nil {
		return nil, err
	}
	var config AliasConfig
	if err := util.EndCommonParse(k, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func startAlias(args []string) error {
	config, err := parseAliasConfig(args)
	if err != nil {
		return err
	}
	aliased, err := arbosutil.Alias(config.Address, !config.Undo)
	if err != nil {
		return err
	}
	fmt.Println(aliased.Hex())
	return nil
}

type ClassicIdsConfig struct {
	ChainId       uint64 `koanf:"chain-id"`
	MessageNumber string `koanf:"message-number"`
}

func parseClassicIdsConfig(args []string) (*ClassicIdsConfig, error) {
	f := flag.NewFlagSet("classic-ids", flag.ContinueOnError)
	f.Uint64("chain-id", 0, "arbitrum chain id")
	f.String("message-number", "", "delayed inbox sequence number of the ticket")

	k, err := util.BeginCommonParse(f, args)
	if err != nil {
		return nil, err
	}
	var config ClassicIdsConfig
	if err := util.EndCommonParse(k, &config); err != nil {
		return nil, err
	}
	if config.ChainId == 0 {
		return nil, errors.New("--chain-id is required")
	}
	return &config, nil
}

func startClassicIds(args []string) error {
	config, err := parseClassicIdsConfig(args)
	if err != nil {
		return err
	}
	messageNumber, ok := new(big.Int).SetString(config.MessageNumber, 0)
	if !ok || messageNumber.Sign() < 0 {
		return fmt.Errorf("invalid message number %q", config.MessageNumber)
	}
	creationId := retryables.ClassicRetryableCreationId(new(big.Int).SetUint64(config.ChainId), messageNumber)
	fmt.Printf("creation id:   %v\n", creationId)
	fmt.Printf("auto redeem:   %v\n", retryables.ClassicAutoRedeemId(creationId))
	fmt.Printf("l2 tx hash:    %v\n", retryables.ClassicL2TxHash(creationId))
	fmt.Printf("derived hash:  %v\n", retryables.ClassicL2DerivedHash(creationId))
	return nil
}
