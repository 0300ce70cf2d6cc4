// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"golang.org/x/time/rate"

	jose "gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

// Client is a minimal Coinbase Advanced Trade REST client. Requests are
// authorized with an ES256-signed JWT carrying the request URI.
type Client struct {
	opts Options

	kid string

	signer jose.Signer

	client *http.Client

	limiter *rate.Limiter
}

type nonceSource struct{}

func (nonceSource) Nonce() (string, error) {
	r, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

// New creates a client from the CDP API key name and its EC private key in
// PEM form.
func New(kid, pemText string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()

	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, fmt.Errorf("could not parse the PEM private key: %w", os.ErrInvalid)
	}
	priKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("could not parse the EC private key: %w", err)
	}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.ES256, Key: priKey},
		(&jose.SignerOptions{NonceSource: nonceSource{}}).WithType("JWT").WithHeader("kid", kid),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create jwt signer: %w", err)
	}

	c := &Client{
		opts:    *opts,
		kid:     kid,
		signer:  signer,
		limiter: rate.NewLimiter(25, 1),
		client: &http.Client{
			Timeout: opts.HttpClientTimeout,
		},
	}
	return c, nil
}

func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

type apiKeyClaims struct {
	*jwt.Claims
	URI string `json:"uri"`
}

func (c *Client) signJWT(method, host, urlPath string) (string, error) {
	cl := &apiKeyClaims{
		Claims: &jwt.Claims{
			Subject:   c.kid,
			Issuer:    "cdp",
			NotBefore: jwt.NewNumericDate(time.Now()),
			Expiry:    jwt.NewNumericDate(time.Now().Add(2 * time.Minute)),
		},
		URI: fmt.Sprintf("%s %s%s", method, host, urlPath),
	}
	return jwt.Signed(c.signer).Claims(cl).CompactSerialize()
}

func (c *Client) do(ctx context.Context, req *http.Request, responsePtr any) error {
	token, err := c.signJWT(req.Method, req.URL.Host, req.URL.Path)
	if err != nil {
		return fmt.Errorf("could not sign request jwt: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if req.Method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("http %s returned %d: %s", req.Method, resp.StatusCode, body)
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

func (c *Client) postJSON(ctx context.Context, urlPath string, request, responsePtr any) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("could not json-encode request: %w", err)
	}
	addrURL := &url.URL{
		Scheme: c.opts.RestURL.Scheme,
		Host:   c.opts.RestURL.Host,
		Path:   path.Join(c.opts.RestURL.Path, urlPath),
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addrURL.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	return c.do(ctx, req, responsePtr)
}

// ListAccounts returns all portfolio accounts, following pagination.
func (c *Client) ListAccounts(ctx context.Context) ([]*Account, error) {
	var accounts []*Account
	values := make(url.Values)
	values.Set("limit", "250")
	for {
		resp := new(ListAccountsResponse)
		if err := c.getJSON(ctx, "/api/v3/brokerage/accounts", values, resp); err != nil {
			return nil, err
		}
		accounts = append(accounts, resp.Accounts...)
		if !resp.HasNext {
			return accounts, nil
		}
		values.Set("cursor", resp.Cursor)
	}
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	resp := new(Product)
	if err := c.getJSON(ctx, "/api/v3/brokerage/products/"+productID, nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateMarketBuy places a market IOC buy spending quoteSize of the quote
// currency.
func (c *Client) CreateMarketBuy(ctx context.Context, clientOrderID, productID, quoteSize string) (*CreateOrderResponse, error) {
	req := &CreateOrderRequest{
		ClientOrderID: clientOrderID,
		ProductID:     productID,
		Side:          "BUY",
		OrderConfiguration: OrderConfiguration{
			MarketIOC: &MarketIOC{QuoteSize: quoteSize},
		},
	}
	resp := new(CreateOrderResponse)
	if err := c.postJSON(ctx, "/api/v3/brokerage/orders", req, resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("create order rejected: %s: %s",
			resp.ErrorResponse.Error, resp.ErrorResponse.Message)
	}
	return resp, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	resp := new(GetOrderResponse)
	if err := c.getJSON(ctx, "/api/v3/brokerage/orders/historical/"+orderID, nil, resp); err != nil {
		return nil, err
	}
	if resp.Order == nil {
		return nil, fmt.Errorf("order %q not found: %w", orderID, os.ErrNotExist)
	}
	return resp.Order, nil
}
