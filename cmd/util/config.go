// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package util

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/mitchellh/mapstructure"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/arbmsg/cmd/genericconf"
)

// ErrHelpRequested is returned by BeginCommonParse when --help was passed.
var ErrHelpRequested = flag.ErrHelp

type ParentChainConfig struct {
	URL    string                   `koanf:"url"`
	Wallet genericconf.WalletConfig `koanf:"wallet"`
}

var ParentChainConfigDefault = ParentChainConfig{
	URL:    "",
	Wallet: genericconf.WalletConfigDefault,
}

func ParentChainConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".url", ParentChainConfigDefault.URL, "parent chain node RPC URL")
	genericconf.WalletConfigAddOptions(prefix+".wallet", f, ParentChainConfigDefault.Wallet.Pathname)
}

type ChainConfig struct {
	ID        uint64                   `koanf:"id"`
	Name      string                   `koanf:"name"`
	InfoFiles []string                 `koanf:"info-files"`
	InfoJson  string                   `koanf:"info-json"`
	URL       string                   `koanf:"url"`
	Wallet    genericconf.WalletConfig `koanf:"wallet"`
}

var ChainConfigDefault = ChainConfig{
	ID:        0,
	Name:      "",
	InfoFiles: []string{},
	InfoJson:  "",
	URL:       "",
	Wallet:    genericconf.WalletConfigDefault,
}

func ChainConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Uint64(prefix+".id", ChainConfigDefault.ID, "L2 chain ID (determines Arbitrum network)")
	f.String(prefix+".name", ChainConfigDefault.Name, "L2 chain name (determines Arbitrum network)")
	f.StringSlice(prefix+".info-files", ChainConfigDefault.InfoFiles, "L2 chain info json files")
	f.String(prefix+".info-json", ChainConfigDefault.InfoJson, "L2 chain info in json string format")
	f.String(prefix+".url", ChainConfigDefault.URL, "L2 node RPC URL")
	genericconf.WalletConfigAddOptions(prefix+".wallet", f, ChainConfigDefault.Wallet.Pathname)
}

func (c *ChainConfig) Validate() error {
	if c.ID == 0 && c.Name == "" {
		return errors.New("chain.id or chain.name must be set")
	}
	return nil
}

// BeginCommonParse parses the flags then layers configuration files, the json config string and
// prefixed environment variables on top. Later sources win.
func BeginCommonParse(f *flag.FlagSet, args []string) (*koanf.Koanf, error) {
	if err := f.Parse(args); err != nil {
		return nil, err
	}
	if f.NArg() != 0 {
		// Unexpected number of parameters
		return nil, fmt.Errorf("unexpected parameter: %s", f.Arg(0))
	}

	var k = koanf.New(".")
	// Initial application of command line parameters and defaults
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("error loading local config: %w", err)
	}

	for _, configFile := range k.Strings("conf.file") {
		if err := k.Load(file.Provider(configFile), json.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config file %s: %w", configFile, err)
		}
	}
	if configString := k.String("conf.string"); len(configString) > 0 {
		if err := k.Load(rawbytes.Provider([]byte(configString)), json.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config string: %w", err)
		}
	}
	if err := loadEnvironmentVariables(k); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	// Command line parameters override everything else. Unchanged flags are skipped since their
	// keys already exist.
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("error applying command line overrides: %w", err)
	}
	return k, nil
}

// loadEnvironmentVariables maps PREFIX_CHAIN_INFO__FILES to chain.info-files.
func loadEnvironmentVariables(k *koanf.Koanf) error {
	envPrefix := k.String("conf.env-prefix")
	if len(envPrefix) == 0 {
		return nil
	}
	return k.Load(env.Provider(envPrefix+"_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix+"_"))
		s = strings.ReplaceAll(s, "__", "-")
		return strings.ReplaceAll(s, "_", ".")
	}), nil)
}

func EndCommonParse(k *koanf.Koanf, config interface{}) error {
	decoderConfig := mapstructure.DecoderConfig{
		ErrorUnused: true,

		// Default values
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Metadata:         nil,
		Result:           config,
		WeaklyTypedInput: true,
	}
	err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{DecoderConfig: &decoderConfig})
	if err != nil {
		return err
	}
	return nil
}

// DumpConfig prints the active configuration as json with secrets blanked.
func DumpConfig(k *koanf.Koanf, redacted ...string) error {
	overrides := make(map[string]interface{})
	for _, key := range redacted {
		if k.Exists(key) {
			overrides[key] = ""
		}
	}
	if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
		return fmt.Errorf("error redacting config: %w", err)
	}
	c, err := k.Marshal(json.Parser())
	if err != nil {
		return fmt.Errorf("unable to marshal config file to JSON: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(c))
	return err
}
