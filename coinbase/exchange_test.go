// Copyright (c) 2025 BVK Chaitanya

package coinbase

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/admrply/dca-crypto/coinbase/internal"
	"github.com/admrply/dca-crypto/exchange"
	"github.com/shopspring/decimal"
)

func testKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))
}

func testExchange(t *testing.T, handler http.Handler) *Exchange {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	client, err := internal.New("test-key", testKeyPEM(t), &internal.Options{RestURL: u})
	if err != nil {
		t.Fatal(err)
	}
	return &Exchange{client: client}
}

// orderServer answers the create-order call with orderID and every
// subsequent order lookup with the given order body.
func orderServer(t *testing.T, orderID, orderJSON string) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/brokerage/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("create order method = %s, want POST", r.Method)
		}
		fmt.Fprintf(w, `{"success":true,"success_response":{"order_id":%q}}`, orderID)
	})
	mux.HandleFunc("/api/v3/brokerage/orders/historical/"+orderID, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"order":%s}`, orderJSON)
	})
	return mux
}

func TestPlaceMarketBuyFilled(t *testing.T) {
	ex := testExchange(t, orderServer(t, "oid-1",
		`{"order_id":"oid-1","product_id":"BTC-GBP","status":"FILLED","filled_size":"0.0002","average_filled_price":"50000","filled_value":"10","created_time":"2025-06-01T12:00:00Z"}`))

	fill, err := ex.PlaceMarketBuy(context.Background(), "client-1", "BTC-GBP", decimal.NewFromInt(10))
	if err != nil {
		t.Fatal(err)
	}
	if want := decimal.RequireFromString("0.0002"); !fill.FilledSize.Equal(want) {
		t.Fatalf("filled size = %s, want %s", fill.FilledSize, want)
	}
	if want := decimal.NewFromInt(10); !fill.QuoteSpent.Equal(want) {
		t.Fatalf("quote spent = %s, want %s", fill.QuoteSpent, want)
	}
	if fill.Symbol != "BTC-GBP" || fill.ClientOrderID != "client-1" {
		t.Fatalf("bad fill identity %q/%q", fill.Symbol, fill.ClientOrderID)
	}
	if want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC); !fill.Time.Equal(want) {
		t.Fatalf("fill time = %v, want %v", fill.Time, want)
	}
}

func TestPlaceMarketBuyStillPending(t *testing.T) {
	saved := orderPollInterval
	orderPollInterval = time.Millisecond
	defer func() { orderPollInterval = saved }()

	ex := testExchange(t, orderServer(t, "oid-2",
		`{"order_id":"oid-2","product_id":"BTC-GBP","status":"OPEN","filled_size":"","average_filled_price":"","filled_value":"","created_time":""}`))

	_, err := ex.PlaceMarketBuy(context.Background(), "client-2", "BTC-GBP", decimal.NewFromInt(10))
	if err == nil {
		t.Fatal("expected an error for an unfilled order")
	}
	if !errors.Is(err, exchange.ErrUnavailable) {
		t.Fatalf("error %v is not %v", err, exchange.ErrUnavailable)
	}
	if !strings.Contains(err.Error(), "OPEN") {
		t.Fatalf("error %v does not report the pending order status", err)
	}
}
