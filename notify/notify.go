// Copyright (c) 2025 BVK Chaitanya

// Package notify defines the operator notification side-channel. Components
// report low balances, failed trades and purchases through a Notifier passed
// in at construction; delivery failures are logged locally and never
// propagated back into the trading path.
package notify

import (
	"context"
	"log/slog"
	"time"
)

type Severity int

const (
	Info Severity = iota
	Warning
	Critical
)

// Prefix returns the marker prepended to delivered messages.
func (s Severity) Prefix() string {
	switch s {
	case Warning:
		return "⚠️"
	case Critical:
		return "🚨"
	}
	return "ℹ"
}

func (s Severity) String() string {
	switch s {
	case Warning:
		return "WARNING"
	case Critical:
		return "CRITICAL"
	}
	return "INFO"
}

type Notifier interface {
	Send(ctx context.Context, at time.Time, severity Severity, text string) error
}

// Multi fans a message out to all notifiers. Individual delivery failures
// are logged and dropped; Send never fails.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, at time.Time, severity Severity, text string) error {
	for _, n := range m {
		if err := n.Send(ctx, at, severity, text); err != nil {
			slog.Error("could not deliver notification (ignored)", "severity", severity, "err", err)
		}
	}
	return nil
}

// Logger is the fallback notifier used when no delivery channel is
// configured.
type Logger struct{}

func (Logger) Send(ctx context.Context, at time.Time, severity Severity, text string) error {
	slog.Log(ctx, level(severity), text, "at", at)
	return nil
}

func level(s Severity) slog.Level {
	switch s {
	case Warning:
		return slog.LevelWarn
	case Critical:
		return slog.LevelError
	}
	return slog.LevelInfo
}
