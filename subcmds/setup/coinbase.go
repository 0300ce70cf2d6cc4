// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/admrply/dca-crypto/cli"
	"github.com/admrply/dca-crypto/coinbase"
	"github.com/admrply/dca-crypto/exchange"
)

type Coinbase struct {
	dataDir     string
	skipTesting bool

	kid     string
	pemFile string
}

func (c *Coinbase) Synopsis() string {
	return "Configures Coinbase API credentials"
}

func (c *Coinbase) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("coinbase", flag.ContinueOnError)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.kid, "key-name", "", "CDP API key name")
	fset.StringVar(&c.pemFile, "key-file", "", "path to the EC private key PEM file")
	fset.BoolVar(&c.skipTesting, "skip-testing", false, "don't test the credentials")
	return fset, cli.CmdFunc(c.run)
}

func (c *Coinbase) run(ctx context.Context, args []string) error {
	if len(c.pemFile) == 0 {
		return fmt.Errorf("-key-file is required")
	}
	pemText, err := os.ReadFile(c.pemFile)
	if err != nil {
		return fmt.Errorf("could not read key file %q: %w", c.pemFile, err)
	}

	dataDir, err := resolveDataDir(c.dataDir)
	if err != nil {
		return err
	}
	secrets, secretsPath, err := loadSecrets(dataDir)
	if err != nil {
		return err
	}

	secrets.Coinbase = &coinbase.Credentials{
		KID: c.kid,
		PEM: string(pemText),
	}
	if err := secrets.Coinbase.Check(); err != nil {
		return err
	}

	if !c.skipTesting {
		ex, err := coinbase.New(secrets.Coinbase)
		if err != nil {
			return err
		}
		defer ex.Close()
		if _, err := ex.GetBalance(ctx, exchange.Spot, "BTC"); err != nil {
			return fmt.Errorf("could not verify coinbase credentials: %w", err)
		}
	}

	return saveSecrets(secretsPath, secrets)
}
