// Copyright 2021-2024, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/arbmsg/cmd/util"
)

const usage = "Usage: arbmsg [deposit-status|withdrawal-status|estimate|alias|classic-ids] [flags]"

func printSampleUsage(name string) {
	fmt.Printf("Sample usage: %s %s --help \n", os.Args[0], name)
}

func main() {
	os.Exit(mainImpl(os.Args))
}

func mainImpl(args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		return 1
	}
	// replaced by each command's own logging config once parsed
	if err := util.SetLogger("info", "plaintext"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigint
		log.Info("shutting down because of sigint")
		cancel()
	}()

	name := strings.ToLower(args[1])
	var err error
	switch name {
	case "deposit-status":
		err = startDepositStatus(ctx, args[2:])
	case "withdrawal-status":
		err = startWithdrawalStatus(ctx, args[2:])
	case "estimate":
		err = startEstimate(ctx, args[2:])
	case "alias":
		err = startAlias(args[2:])
	case "classic-ids":
		err = startClassicIds(args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command '%s'\n%s\n", args[1], usage)
		return 1
	}
	if errors.Is(err, util.ErrHelpRequested) {
		return 0
	}
	if errors.Is(err, errConfigDumped) {
		return 0
	}
	if err != nil {
		printSampleUsage(name)
		log.Error("command failed", "command", name, "err", err)
		return 1
	}
	return 0
}
