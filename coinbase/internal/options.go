// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"net/url"
	"time"
)

type Options struct {
	// RestURL holds an alternative REST endpoint, e.g. a sandbox address.
	RestURL *url.URL

	HttpClientTimeout time.Duration
}

var defaultRestURL = &url.URL{
	Scheme: "https",
	Host:   "api.coinbase.com",
}

func (v *Options) setDefaults() {
	if v.RestURL == nil {
		v.RestURL = defaultRestURL
	}
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 10 * time.Second
	}
}
