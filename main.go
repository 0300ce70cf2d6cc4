// Copyright (c) 2023 BVK Chaitanya

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/admrply/dca-crypto/cli"
	"github.com/admrply/dca-crypto/subcmds"
	"github.com/admrply/dca-crypto/subcmds/setup"
)

func main() {
	setupCmds := []cli.Command{
		new(setup.Binance),
		new(setup.Coinbase),
		new(setup.Telegram),
		new(setup.PushOver),
	}

	dbCmds := []cli.Command{
		new(subcmds.DBBackup),
	}

	tradesCmds := []cli.Command{
		new(subcmds.TradesList),
	}

	cmds := []cli.Command{
		new(subcmds.Run),
		new(subcmds.Status),
		cli.CommandGroup("setup", "Configure exchange and notification credentials", setupCmds...),
		cli.CommandGroup("db", "View/backup the database directly", dbCmds...),
		cli.CommandGroup("trades", "Inspect recorded purchases", tradesCmds...),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			log.Fatal(err)
		}
		os.Exit(1)
	}
}
