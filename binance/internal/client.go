// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client is a minimal Binance REST client covering the spot wallet, the
// flexible-savings endpoints and market orders.
type Client struct {
	opts Options

	key, secret string

	client http.Client

	limiter *rate.Limiter
}

// New returns a new client instance.
func New(key, secret string, opts *Options) (*Client, error) {
	if len(key) == 0 || len(secret) == 0 {
		return nil, fmt.Errorf("api key and secret cannot be empty")
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	c := &Client{
		opts:    *opts,
		key:     key,
		secret:  secret,
		limiter: rate.NewLimiter(20, 1),
		client: http.Client{
			Timeout: opts.HttpClientTimeout,
		},
	}
	return c, nil
}

func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// sign adds the timestamp, recvWindow and HMAC-SHA256 signature parameters
// required by the /sapi and signed /api endpoints.
func (c *Client) sign(values url.Values) url.Values {
	values.Set("recvWindow", strconv.Itoa(c.opts.RecvWindow))
	values.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	hash := hmac.New(sha256.New, []byte(c.secret))
	hash.Write([]byte(values.Encode()))
	values.Set("signature", hex.EncodeToString(hash.Sum(nil)))
	return values
}

func (c *Client) do(ctx context.Context, req *http.Request, responsePtr any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req.Header.Set("X-MBX-APIKEY", c.key)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
			return fmt.Errorf("http %d: binance error %d: %s", resp.StatusCode, apiErr.Code, apiErr.Message)
		}
		slog.Error("binance request is unsuccessful", "url", req.URL.Path, "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("http %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(responsePtr); err != nil {
		return fmt.Errorf("could not json-decode response: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, urlPath string, values url.Values, responsePtr any) error {
	addrURL := &url.URL{
		Scheme:   c.opts.RestURL.Scheme,
		Host:     c.opts.RestURL.Host,
		Path:     path.Join(c.opts.RestURL.Path, urlPath),
		RawQuery: values.Encode(),
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addrURL.String(), nil)
	if err != nil {
		return err
	}
	return c.do(ctx, req, responsePtr)
}

func (c *Client) postJSON(ctx context.Context, urlPath string, values url.Values, responsePtr any) error {
	addrURL := &url.URL{
		Scheme: c.opts.RestURL.Scheme,
		Host:   c.opts.RestURL.Host,
		Path:   path.Join(c.opts.RestURL.Path, urlPath),
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addrURL.String(), strings.NewReader(values.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(ctx, req, responsePtr)
}

func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	resp := new(ServerTime)
	if err := c.getJSON(ctx, "/api/v3/time", nil, resp); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(resp.ServerTime), nil
}

func (c *Client) GetTickerPrice(ctx context.Context, symbol string) (*TickerPrice, error) {
	values := make(url.Values)
	values.Set("symbol", symbol)
	resp := new(TickerPrice)
	if err := c.getJSON(ctx, "/api/v3/ticker/price", values, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetSpotBalances returns the spot wallet entries for all coins.
func (c *Client) GetSpotBalances(ctx context.Context) ([]*CapitalConfig, error) {
	var resp []*CapitalConfig
	if err := c.getJSON(ctx, "/sapi/v1/capital/config/getall", c.sign(make(url.Values)), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetEarnPositions returns the flexible-savings positions of one asset.
func (c *Client) GetEarnPositions(ctx context.Context, asset string) ([]*EarnPosition, error) {
	values := make(url.Values)
	values.Set("asset", asset)
	var resp []*EarnPosition
	if err := c.getJSON(ctx, "/sapi/v1/lending/daily/token/position", c.sign(values), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// RedeemFlexible moves funds from a flexible-savings position to spot.
func (c *Client) RedeemFlexible(ctx context.Context, productID, amount, speed string) error {
	values := make(url.Values)
	values.Set("productId", productID)
	values.Set("amount", amount)
	values.Set("type", speed)
	resp := new(RedeemResponse)
	return c.postJSON(ctx, "/sapi/v1/lending/daily/redeem", c.sign(values), resp)
}

// PlaceMarketBuy places a market buy spending quoteOrderQty of the quote
// currency, and returns the FULL fill response.
func (c *Client) PlaceMarketBuy(ctx context.Context, clientOrderID, symbol, quoteOrderQty string) (*OrderResponse, error) {
	values := make(url.Values)
	values.Set("symbol", symbol)
	values.Set("side", "BUY")
	values.Set("type", "MARKET")
	values.Set("quoteOrderQty", quoteOrderQty)
	values.Set("newClientOrderId", clientOrderID)
	values.Set("newOrderRespType", "FULL")
	resp := new(OrderResponse)
	if err := c.postJSON(ctx, "/api/v3/order", c.sign(values), resp); err != nil {
		return nil, err
	}
	return resp, nil
}
