// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"fmt"
	"net/url"
	"time"
)

type Options struct {
	// RestURL holds an alternative REST endpoint, e.g. a testnet address.
	RestURL *url.URL

	HttpClientTimeout time.Duration

	// RecvWindow bounds how long a signed request stays valid on the
	// exchange side, in milliseconds.
	RecvWindow int
}

var defaultRestURL = &url.URL{
	Scheme: "https",
	Host:   "api.binance.com",
}

func (v *Options) setDefaults() {
	if v.RestURL == nil {
		v.RestURL = defaultRestURL
	}
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 10 * time.Second
	}
	if v.RecvWindow == 0 {
		v.RecvWindow = 5000
	}
}

func (v *Options) Check() error {
	if v.RecvWindow < 0 {
		return fmt.Errorf("recv window cannot be negative")
	}
	return nil
}
