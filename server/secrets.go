// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/admrply/dca-crypto/binance"
	"github.com/admrply/dca-crypto/coinbase"
	"github.com/admrply/dca-crypto/pushover"
	"github.com/admrply/dca-crypto/telegram"
)

type Secrets struct {
	Binance  *binance.Credentials  `json:"binance"`
	Coinbase *coinbase.Credentials `json:"coinbase"`
	Pushover *pushover.Keys        `json:"pushover"`
	Telegram *telegram.Secrets     `json:"telegram"`
}

func SecretsFromFile(fpath string) (*Secrets, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	s := new(Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return s, nil
}

func (v *Secrets) Check() error {
	if v.Binance == nil && v.Coinbase == nil {
		return fmt.Errorf("at least one exchange credential must be configured")
	}
	if v.Binance != nil {
		if err := v.Binance.Check(); err != nil {
			return err
		}
	}
	if v.Coinbase != nil {
		if err := v.Coinbase.Check(); err != nil {
			return err
		}
	}
	if v.Pushover != nil {
		if err := v.Pushover.Check(); err != nil {
			return err
		}
	}
	if v.Telegram != nil {
		if err := v.Telegram.Check(); err != nil {
			return err
		}
	}
	return nil
}
