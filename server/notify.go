// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"time"

	"github.com/admrply/dca-crypto/notify"
	"github.com/admrply/dca-crypto/pushover"
	"github.com/admrply/dca-crypto/telegram"
)

// telegramNotifier adapts the telegram client to the notify.Notifier
// interface, prefixing messages with the severity marker.
type telegramNotifier struct {
	client *telegram.Client
}

func (n *telegramNotifier) Send(ctx context.Context, at time.Time, severity notify.Severity, text string) error {
	return n.client.SendMessage(ctx, at, severity.Prefix()+" "+text)
}

// pushoverNotifier maps severities onto pushover priorities so warnings and
// failures alert the operator's device while purchase confirmations stay
// quiet.
type pushoverNotifier struct {
	client *pushover.Client
}

func (n *pushoverNotifier) Send(ctx context.Context, at time.Time, severity notify.Severity, text string) error {
	priority := -1
	switch severity {
	case notify.Warning:
		priority = 0
	case notify.Critical:
		priority = 1
	}
	return n.client.SendMessage(ctx, at, priority, severity.Prefix()+" "+text)
}
