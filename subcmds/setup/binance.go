// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"flag"
	"fmt"

	"github.com/admrply/dca-crypto/binance"
	"github.com/admrply/dca-crypto/cli"
	"github.com/admrply/dca-crypto/exchange"
)

type Binance struct {
	dataDir     string
	skipTesting bool

	key    string
	secret string
}

func (c *Binance) Synopsis() string {
	return "Configures Binance API credentials"
}

func (c *Binance) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("binance", flag.ContinueOnError)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.key, "key", "", "Binance API key")
	fset.StringVar(&c.secret, "secret", "", "Binance API secret (prompted when empty)")
	fset.BoolVar(&c.skipTesting, "skip-testing", false, "don't test the credentials")
	return fset, cli.CmdFunc(c.run)
}

func (c *Binance) run(ctx context.Context, args []string) error {
	dataDir, err := resolveDataDir(c.dataDir)
	if err != nil {
		return err
	}
	secrets, secretsPath, err := loadSecrets(dataDir)
	if err != nil {
		return err
	}

	if len(c.secret) == 0 {
		if c.secret, err = promptSecret("Binance API secret: "); err != nil {
			return err
		}
	}
	secrets.Binance = &binance.Credentials{
		Key:    c.key,
		Secret: c.secret,
	}
	if err := secrets.Binance.Check(); err != nil {
		return err
	}

	if !c.skipTesting {
		// A balance read round-trips request signing and authentication.
		ex, err := binance.New(secrets.Binance)
		if err != nil {
			return err
		}
		defer ex.Close()
		if _, err := ex.GetBalance(ctx, exchange.Spot, "BTC"); err != nil {
			return fmt.Errorf("could not verify binance credentials: %w", err)
		}
	}

	return saveSecrets(secretsPath, secrets)
}
