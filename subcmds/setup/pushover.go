// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"flag"
	"time"

	"github.com/admrply/dca-crypto/cli"
	"github.com/admrply/dca-crypto/pushover"
)

type PushOver struct {
	dataDir     string
	skipTesting bool

	appID  string
	userID string
}

func (c *PushOver) Synopsis() string {
	return "Configures Pushover notifications"
}

func (c *PushOver) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("pushover", flag.ContinueOnError)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.userID, "user-id", "", "Pushover service user identifier")
	fset.StringVar(&c.appID, "app-id", "", "Pushover service application identifier")
	fset.BoolVar(&c.skipTesting, "skip-testing", false, "don't test the parameters")
	return fset, cli.CmdFunc(c.run)
}

func (c *PushOver) run(ctx context.Context, args []string) error {
	dataDir, err := resolveDataDir(c.dataDir)
	if err != nil {
		return err
	}
	secrets, secretsPath, err := loadSecrets(dataDir)
	if err != nil {
		return err
	}

	if len(c.appID) == 0 {
		if c.appID, err = promptSecret("Pushover application key: "); err != nil {
			return err
		}
	}
	secrets.Pushover = &pushover.Keys{
		ApplicationKey: c.appID,
		UserKey:        c.userID,
	}
	if err := secrets.Pushover.Check(); err != nil {
		return err
	}

	if !c.skipTesting {
		// Attempt a delivery to validate the keys.
		client, err := pushover.New(secrets.Pushover)
		if err != nil {
			return err
		}
		if err := client.SendMessage(ctx, time.Now(), 0, "Test message from Pushover config setup; please ignore."); err != nil {
			return err
		}
	}

	return saveSecrets(secretsPath, secrets)
}
