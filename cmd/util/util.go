// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package util

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/arbmsg/cmd/genericconf"
)

var ErrNoWallet = errors.New("no wallet configured")

// OpenWallet returns a signer for the configured wallet. A raw private key takes precedence over
// the keystore.
func OpenWallet(description string, walletConfig *genericconf.WalletConfig, chainId *big.Int) (*bind.TransactOpts, error) {
	if walletConfig.PrivateKey != "" {
		privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(walletConfig.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("error parsing %s private key: %w", description, err)
		}
		txOpts, err := bind.NewKeyedTransactorWithChainID(privateKey, chainId)
		if err != nil {
			return nil, err
		}
		log.Info("using private key", "wallet", description, "address", txOpts.From)
		return txOpts, nil
	}
	if walletConfig.Pathname == "" {
		return nil, fmt.Errorf("%w for %s", ErrNoWallet, description)
	}

	ks := keystore.NewKeyStore(walletConfig.Pathname, keystore.StandardScryptN, keystore.StandardScryptP)
	account, err := keystoreAccount(ks, walletConfig.Account)
	if err != nil {
		return nil, fmt.Errorf("%s wallet: %w", description, err)
	}
	passOpt := walletConfig.Pwd()
	if passOpt == nil {
		return nil, fmt.Errorf("%s wallet at %s requires a password", description, walletConfig.Pathname)
	}
	if err := ks.Unlock(account, *passOpt); err != nil {
		return nil, fmt.Errorf("unable to unlock %s wallet: %w", description, err)
	}
	txOpts, err := bind.NewKeyStoreTransactorWithChainID(ks, account, chainId)
	if err != nil {
		return nil, err
	}
	log.Info("using keystore account", "wallet", description, "address", account.Address)
	return txOpts, nil
}

func keystoreAccount(ks *keystore.KeyStore, address string) (accounts.Account, error) {
	if address != "" {
		if !common.IsHexAddress(address) {
			return accounts.Account{}, fmt.Errorf("invalid account address %s", address)
		}
		return ks.Find(accounts.Account{Address: common.HexToAddress(address)})
	}
	if len(ks.Accounts()) == 0 {
		return accounts.Account{}, errors.New("no accounts in keystore")
	}
	return ks.Accounts()[0], nil
}
