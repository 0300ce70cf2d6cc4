// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/admrply/dca-crypto/cli"
	"github.com/admrply/dca-crypto/ctxutil"
	"github.com/admrply/dca-crypto/telegram"
	"github.com/bvkgo/kv/kvmemdb"
	"golang.org/x/term"
)

type Telegram struct {
	dataDir     string
	skipTesting bool

	ownerID  string
	otherIDs string
	botToken string
}

func (c *Telegram) Synopsis() string {
	return "Configures Telegram bot notifications"
}

func (c *Telegram) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("telegram", flag.ContinueOnError)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.ownerID, "owner-id", "", "Owner's telegram user id")
	fset.StringVar(&c.otherIDs, "other-ids", "", "comma-separated additional telegram user ids")
	fset.StringVar(&c.botToken, "bot-token", "", "Telegram bot's authentication token")
	fset.BoolVar(&c.skipTesting, "skip-testing", false, "don't test the parameters")
	return fset, cli.CmdFunc(c.run)
}

func (c *Telegram) CommandHelp() string {
	return `

Command "telegram" configures notifications to a Telegram account through a
Telegram bot.

Telegram configuration is optional. It is only required to receive purchase
and failure notifications on a phone:

  $ dcabot setup telegram -owner-id=username -bot-token=USCJS2...TVP4KV

`
}

func (c *Telegram) run(ctx context.Context, args []string) error {
	dataDir, err := resolveDataDir(c.dataDir)
	if err != nil {
		return err
	}
	secrets, secretsPath, err := loadSecrets(dataDir)
	if err != nil {
		return err
	}

	if len(c.botToken) == 0 {
		if c.botToken, err = promptSecret("Telegram bot token: "); err != nil {
			return err
		}
	}
	var others []string
	if len(c.otherIDs) != 0 {
		others = strings.Split(c.otherIDs, ",")
	}
	secrets.Telegram = &telegram.Secrets{
		BotToken: c.botToken,
		OwnerID:  c.ownerID,
		OtherIDs: others,
	}
	if err := secrets.Telegram.Check(); err != nil {
		return err
	}

	if !c.skipTesting {
		func() {
			fmt.Println("Start a chat with the telegram bot and then press any key")
			// switch stdin into 'raw' mode
			oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
			if err != nil {
				log.Fatal(err)
			}
			defer term.Restore(int(os.Stdin.Fd()), oldState)

			b := make([]byte, 1)
			if _, err := os.Stdin.Read(b); err != nil {
				log.Fatal(err)
			}
		}()

		client, err := telegram.New(ctx, kvmemdb.New(), secrets.Telegram)
		if err != nil {
			return err
		}
		defer client.Close()
		ctxutil.Sleep(ctx, time.Second)
		if err := client.SendMessage(ctx, time.Now(), "Test message from Telegram config setup; please ignore."); err != nil {
			return err
		}
	}

	return saveSecrets(secretsPath, secrets)
}
