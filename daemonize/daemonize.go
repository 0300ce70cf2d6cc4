// Copyright (c) 2023 BVK Chaitanya

// Package daemonize turns the current program into a background daemon
// process.
package daemonize

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"log/syslog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// EnvKey is the environment variable that tells a respawned copy of the
// program apart from the one invoked on the command line. Its value in the
// background copy is the spawning process pid. No other process is expected
// to set it.
var EnvKey = "DCABOT_DAEMONIZE"

// Daemonize respawns the current program in the background with the same
// command-line arguments. It must run early in startup, before databases
// are opened or servers started.
//
// The background copy gets /dev/null for its standard streams, its own
// session id and the standard library log redirected to syslog.
//
// The foreground copy polls the check function until it reports that the
// background copy initialized successfully, then exits the process. On
// success Daemonize returns nil in the background copy only; it never
// returns in the foreground copy. Initialization failures exit the
// background copy with a non-zero status.
func Daemonize(ctx context.Context, check func(context.Context) error) error {
	if v := os.Getenv(EnvKey); len(v) != 0 {
		if err := initBackground(); err != nil {
			os.Exit(1)
		}
		return nil
	}
	if err := respawn(ctx, check); err != nil {
		return err
	}
	os.Exit(0)
	return nil
}

func respawn(ctx context.Context, check func(context.Context) error) error {
	binary, err := exec.LookPath(os.Args[0])
	if err != nil {
		return fmt.Errorf("could not lookup binary path: %w", err)
	}
	binaryPath, err := filepath.Abs(binary)
	if err != nil {
		return fmt.Errorf("could not determine absolute path for binary: %w", err)
	}

	null, err := os.OpenFile("/dev/null", os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("could not open /dev/null: %w", err)
	}

	// Receive a signal when the background process dies.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGCHLD, os.Interrupt)
	defer stop()

	attr := &os.ProcAttr{
		Dir:   "/",
		Env:   []string{fmt.Sprintf("%s=%d", EnvKey, os.Getpid())},
		Files: []*os.File{null, null, null},
	}
	if _, err := os.StartProcess(binaryPath, os.Args, attr); err != nil {
		return fmt.Errorf("could not start background process: %w", err)
	}

	if check != nil {
		time.Sleep(time.Second)
		for ctx.Err() == nil {
			if err := check(ctx); err != nil {
				slog.WarnContext(ctx, "daemon process not yet initialized", "error", err)
				time.Sleep(time.Second)
				continue
			}
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("could not initialize the background process: %w", err)
	}
	return nil
}

func initBackground() error {
	syslogger, err := syslog.New(syslog.LOG_INFO, "dcabot")
	if err != nil {
		return fmt.Errorf("could not create syslog: %w", err)
	}
	log.SetOutput(syslogger)

	if _, err := unix.Setsid(); err != nil {
		return fmt.Errorf("could not set session id: %w", err)
	}
	return nil
}
