// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/admrply/dca-crypto/cli"
	"github.com/admrply/dca-crypto/ctxutil"
	"github.com/admrply/dca-crypto/daemonize"
	"github.com/admrply/dca-crypto/httputil"
	"github.com/admrply/dca-crypto/logdir"
	"github.com/admrply/dca-crypto/server"
	"github.com/admrply/dca-crypto/subcmds/cmdutil"
	"github.com/bvkgo/kv/kvhttp"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
	"github.com/nightlyone/lockfile"
)

type Run struct {
	cmdutil.ServerFlags

	background bool

	restart         bool
	shutdownTimeout time.Duration

	noPprof bool

	secretsPath string
	configPath  string
	dataDir     string
	logDir      string
}

func (c *Run) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	c.ServerFlags.SetFlags(fset)
	fset.BoolVar(&c.background, "background", false, "runs the daemon in background")
	fset.BoolVar(&c.restart, "restart", false, "when true, kills any old instance")
	fset.DurationVar(&c.shutdownTimeout, "shutdown-timeout", 30*time.Second, "max timeout for shutdown when restarting")
	fset.BoolVar(&c.noPprof, "no-pprof", false, "when true net/http/pprof handler is not registered")
	fset.StringVar(&c.secretsPath, "secrets-file", "", "path to credentials file")
	fset.StringVar(&c.configPath, "config-file", "", "path to the pairs configuration file")
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.logDir, "log-dir", "", "when set, logs are written to size-capped files in this directory")
	return fset, cli.CmdFunc(c.run)
}

func (c *Run) Synopsis() string {
	return "Runs the purchase daemon in foreground or background"
}

func (c *Run) CommandHelp() string {
	return `

Command "run" starts the recurring-purchase daemon. One scheduler per
configured pair accumulates its spend buffer and executes market buys at the
configured cadence.

SECRETS FILE

Exchange API keys and notification credentials are read from a JSON secrets
file, which defaults to secrets.json under the data directory:

    {
        "binance":{
            "key":"111111111",
            "secret":"2222222222"
        },
        "telegram":{
            "token":"USCJS2...TVP4KV",
            "owner":"username"
        }
    }

CONFIG FILE

Purchase schedules are read from a JSON config file, which defaults to
config.json under the data directory:

    {
        "pairs":[
            {"exchange":"binance", "base":"BTC", "quote":"GBP",
             "amount":"65", "interval":"1d"}
        ]
    }

`
}

func (c *Run) run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(c.dataDir) == 0 {
		c.dataDir = filepath.Join(os.Getenv("HOME"), ".dcabot")
	}
	if _, err := os.Stat(c.dataDir); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("could not stat data directory %q: %w", c.dataDir, err)
		}
		if err := os.MkdirAll(c.dataDir, 0700); err != nil {
			return fmt.Errorf("could not create data directory %q: %w", c.dataDir, err)
		}
	}
	dataDir, err := filepath.Abs(c.dataDir)
	if err != nil {
		return fmt.Errorf("could not determine data-dir %q absolute path: %w", c.dataDir, err)
	}

	if len(c.secretsPath) == 0 {
		c.secretsPath = filepath.Join(dataDir, "secrets.json")
	}
	secrets, err := server.SecretsFromFile(c.secretsPath)
	if err != nil {
		return err
	}

	if len(c.configPath) == 0 {
		c.configPath = filepath.Join(dataDir, "config.json")
	}
	config, err := server.ConfigFromFile(c.configPath)
	if err != nil {
		return err
	}

	if ip := net.ParseIP(c.IP); ip == nil {
		return fmt.Errorf("invalid ip address")
	}
	if c.Port <= 0 {
		return fmt.Errorf("invalid port number")
	}
	addr := &net.TCPAddr{
		IP:   net.ParseIP(c.IP),
		Port: c.Port,
	}

	if c.background {
		// Health checker for the background process initialization.
		check := func(ctx context.Context) error {
			client := http.Client{Timeout: time.Second}
			resp, err := client.Get(fmt.Sprintf("http://%s/pid", addr.String()))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("http status: %d", resp.StatusCode)
			}
			return nil
		}
		if err := daemonize.Daemonize(ctx, check); err != nil {
			return err
		}
	}

	log.SetFlags(log.Flags() | log.Lmicroseconds)
	if len(c.logDir) > 0 {
		if err := os.MkdirAll(c.logDir, 0700); err != nil {
			return fmt.Errorf("could not create log directory %q: %w", c.logDir, err)
		}
		lw, err := logdir.New(c.logDir, "dcabot", 100)
		if err != nil {
			return err
		}
		defer lw.Close()
		log.SetOutput(lw)
		slog.SetDefault(slog.New(slog.NewTextHandler(lw, nil)))
	}
	log.Printf("using data directory %s, secrets file %s and config file %s",
		dataDir, c.secretsPath, c.configPath)

	lockPath := filepath.Join(dataDir, "dcabot.lock")
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err != nil {
		if !c.restart {
			return fmt.Errorf("could not get lock on file %q: %w", lockPath, err)
		}
		owner, err := flock.GetOwner()
		if err != nil {
			return fmt.Errorf("could not get current owner of the lock file: %w", err)
		}
		if err := owner.Signal(os.Interrupt); err == nil {
			log.Printf("waiting for the previous instance to shutdown")
			if err := ctxutil.RetryTimeout(ctx, time.Second, c.shutdownTimeout, flock.TryLock); err != nil {
				if err := owner.Signal(os.Kill); err != nil {
					return fmt.Errorf("could not kill current owner of the lock file: %w", err)
				}
				ctxutil.Sleep(ctx, time.Millisecond)
			}
		}
		if err := flock.TryLock(); err != nil {
			return fmt.Errorf("could not get lock on file %q after killing previous instance: %w", lockPath, err)
		}
	}
	defer flock.Unlock()

	// Start the HTTP endpoint.
	s, err := httputil.New(nil /* opts */)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.StartTCP(ctx, addr); err != nil {
		return fmt.Errorf("could not start http server on %s: %w", addr, err)
	}

	if !c.noPprof {
		s.AddHandler("/debug/pprof/heap", pprof.Handler("heap"))
		s.AddHandler("/debug/pprof/goroutine", pprof.Handler("goroutine"))
		s.AddHandler("/debug/pprof/allocs", pprof.Handler("allocs"))
		s.AddHandler("/debug/pprof/block", pprof.Handler("block"))
		s.AddHandler("/debug/pprof/mutex", pprof.Handler("mutex"))
	}

	// Open the database.
	bopts := badger.DefaultOptions(dataDir)
	bdb, err := badger.Open(bopts)
	if err != nil {
		return fmt.Errorf("could not open the database: %w", err)
	}
	defer bdb.Close()
	db := kvbadger.New(bdb, isGoodKey)

	s.AddHandler("/db/", http.StripPrefix("/db", kvhttp.Handler(db)))

	bot, err := server.New(ctx, db, secrets, config)
	if err != nil {
		return err
	}
	defer bot.Close()

	for k, v := range bot.HandlerMap() {
		s.AddHandler(k, v)
	}

	if err := bot.Start(ctx); err != nil {
		return err
	}

	s.AddHandler("/pid", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, fmt.Sprintf("%d", os.Getpid()))
	}))
	log.Printf("started dcabot server at %s", addr)

	<-ctx.Done()
	log.Printf("dcabot server is shutting down")
	return nil
}

func isGoodKey(k string) bool {
	return path.IsAbs(k) && k == path.Clean(k)
}
