// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

const (
	testKey    = "test-api-key"
	testSecret = "test-api-secret"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	restURL, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(testKey, testSecret, &Options{RestURL: restURL})
	if err != nil {
		t.Fatal(err)
	}
	return c, server
}

// checkSignature verifies that values carry a timestamp, a recvWindow and a
// valid HMAC-SHA256 signature over the remaining parameters.
func checkSignature(t *testing.T, values url.Values) {
	t.Helper()
	if len(values.Get("timestamp")) == 0 {
		t.Errorf("signed request has no timestamp parameter")
	}
	if len(values.Get("recvWindow")) == 0 {
		t.Errorf("signed request has no recvWindow parameter")
	}
	sig := values.Get("signature")
	if len(sig) == 0 {
		t.Fatalf("signed request has no signature parameter")
	}

	values.Del("signature")
	hash := hmac.New(sha256.New, []byte(testSecret))
	hash.Write([]byte(values.Encode()))
	if want := hex.EncodeToString(hash.Sum(nil)); sig != want {
		t.Errorf("signature = %s, want %s", sig, want)
	}
}

func TestGetSpotBalances(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sapi/v1/capital/config/getall" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if v := r.Header.Get("X-MBX-APIKEY"); v != testKey {
			t.Errorf("api key header = %q, want %q", v, testKey)
		}
		checkSignature(t, r.URL.Query())
		fmt.Fprint(w, `[{"coin":"BTC","free":"0.5","locked":"0","trading":true}]`)
	})
	c, _ := testClient(t, handler)

	balances, err := c.GetSpotBalances(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(balances) != 1 || balances[0].Coin != "BTC" || balances[0].Free != "0.5" {
		t.Fatalf("unexpected balances %+v", balances)
	}
}

func TestPlaceMarketBuy(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v3/order" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
			t.Errorf("content type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		for param, want := range map[string]string{
			"symbol":           "BTCGBP",
			"side":             "BUY",
			"type":             "MARKET",
			"quoteOrderQty":    "10",
			"newClientOrderId": "order-1",
			"newOrderRespType": "FULL",
		} {
			if v := r.PostForm.Get(param); v != want {
				t.Errorf("%s = %q, want %q", param, v, want)
			}
		}
		checkSignature(t, r.PostForm)
		fmt.Fprint(w, `{
			"symbol": "BTCGBP",
			"orderId": 12345,
			"clientOrderId": "order-1",
			"transactTime": 1700000000000,
			"executedQty": "0.00020000",
			"cummulativeQuoteQty": "10.00000000",
			"status": "FILLED",
			"fills": [{"price":"50000.0","qty":"0.0002","commission":"0.0000002","commissionAsset":"BNB"}]
		}`)
	})
	c, _ := testClient(t, handler)

	resp, err := c.PlaceMarketBuy(context.Background(), "order-1", "BTCGBP", "10")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != "FILLED" || resp.ExecutedQty != "0.00020000" || len(resp.Fills) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":-1121,"msg":"Invalid symbol."}`)
	})
	c, _ := testClient(t, handler)

	_, err := c.GetTickerPrice(context.Background(), "NOPE")
	if err == nil {
		t.Fatal("expected an error for http 400")
	}
	if !strings.Contains(err.Error(), "binance error -1121") {
		t.Fatalf("error = %v, want binance error code in message", err)
	}
	if !strings.Contains(err.Error(), "Invalid symbol.") {
		t.Fatalf("error = %v, want binance error message", err)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New("", "secret", nil); err == nil {
		t.Fatal("expected an error for empty api key")
	}
	if _, err := New("key", "", nil); err == nil {
		t.Fatal("expected an error for empty api secret")
	}
}
