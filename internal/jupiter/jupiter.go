// Package jupiter is a client for the Jupiter swap aggregator API.
package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"solana-swap-gateway/internal/apperr"
	"solana-swap-gateway/internal/httpclient"
	"solana-swap-gateway/internal/observability"
)

// Defaults.
const (
	DefaultBaseURL     = "https://api.jup.ag/swap/v1"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAccounts = 64
	HealthTimeout      = 5 * time.Second

	serviceName = "jupiter"
)

// Swap modes.
const (
	SwapModeExactIn  = "ExactIn"
	SwapModeExactOut = "ExactOut"
)

// Quote is an aggregator quote, kept as decoded JSON so that every field the
// aggregator returns is passed back to clients and to the swap endpoint.
// Numbers are json.Number.
type Quote map[string]interface{}

// String returns a string field, or "" when absent.
func (q Quote) String(key string) string {
	switch v := q[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

// Amount parses a raw integer amount field such as "inAmount" or "outAmount".
func (q Quote) Amount(key string) (int64, error) {
	s := q.String(key)
	if s == "" {
		return 0, fmt.Errorf("quote %s missing", key)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("quote %s: %w", key, err)
	}
	return n, nil
}

// DecodeQuote decodes a quote keeping numbers as json.Number.
func DecodeQuote(data []byte, q *Quote) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(q)
}

// QuoteParams are the inputs of a quote request.
type QuoteParams struct {
	InputMint        string
	OutputMint       string
	Amount           int64
	SlippageBps      int
	SwapMode         string
	OnlyDirectRoutes bool
	MaxAccounts      int
}

// SwapParams are the inputs of a swap-transaction request.
type SwapParams struct {
	UserPublicKey           string
	QuoteResponse           Quote
	WrapAndUnwrapSol        bool
	DynamicComputeUnitLimit bool
	PriorityFeeLamports     *int64 // max lamports for a "high" priority fee
}

// SwapResult is the built, unsigned transaction.
type SwapResult struct {
	SwapTransaction           string `json:"swapTransaction"` // base64
	LastValidBlockHeight      int64  `json:"lastValidBlockHeight"`
	PrioritizationFeeLamports int64  `json:"prioritizationFeeLamports"`
}

// Client talks to the aggregator.
type Client struct {
	baseURL string
	apiKey  string
	http    *retryablehttp.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends the key in the x-api-key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *retryablehttp.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// New creates a client. Empty baseURL uses DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.New(httpclient.DefaultOptions(DefaultTimeout)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quote requests the best route for p.
func (c *Client) Quote(ctx context.Context, p QuoteParams) (Quote, error) {
	swapMode := p.SwapMode
	if swapMode == "" {
		swapMode = SwapModeExactIn
	}
	maxAccounts := p.MaxAccounts
	if maxAccounts == 0 {
		maxAccounts = DefaultMaxAccounts
	}

	q := url.Values{}
	q.Set("inputMint", p.InputMint)
	q.Set("outputMint", p.OutputMint)
	q.Set("amount", strconv.FormatInt(p.Amount, 10))
	q.Set("slippageBps", strconv.Itoa(p.SlippageBps))
	q.Set("swapMode", swapMode)
	q.Set("onlyDirectRoutes", strconv.FormatBool(p.OnlyDirectRoutes))
	q.Set("maxAccounts", strconv.Itoa(maxAccounts))

	var quote Quote
	if err := c.do(ctx, "quote", http.MethodGet, "/quote?"+q.Encode(), nil, &quote); err != nil {
		return nil, err
	}
	return quote, nil
}

type swapBody struct {
	UserPublicKey             string              `json:"userPublicKey"`
	QuoteResponse             Quote               `json:"quoteResponse"`
	WrapAndUnwrapSol          bool                `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit   bool                `json:"dynamicComputeUnitLimit"`
	PrioritizationFeeLamports *prioritizationFees `json:"prioritizationFeeLamports,omitempty"`
}

type prioritizationFees struct {
	PriorityLevelWithMaxLamports priorityLevel `json:"priorityLevelWithMaxLamports"`
}

type priorityLevel struct {
	PriorityLevel string `json:"priorityLevel"`
	MaxLamports   int64  `json:"maxLamports"`
	Global        bool   `json:"global"`
}

// Swap builds an unsigned swap transaction for a quote.
func (c *Client) Swap(ctx context.Context, p SwapParams) (*SwapResult, error) {
	body := swapBody{
		UserPublicKey:           p.UserPublicKey,
		QuoteResponse:           p.QuoteResponse,
		WrapAndUnwrapSol:        p.WrapAndUnwrapSol,
		DynamicComputeUnitLimit: p.DynamicComputeUnitLimit,
	}
	if p.PriorityFeeLamports != nil {
		body.PrioritizationFeeLamports = &prioritizationFees{
			PriorityLevelWithMaxLamports: priorityLevel{
				PriorityLevel: "high",
				MaxLamports:   *p.PriorityFeeLamports,
			},
		}
	}

	var result SwapResult
	if err := c.do(ctx, "swap", http.MethodPost, "/swap", body, &result); err != nil {
		return nil, err
	}
	if result.SwapTransaction == "" {
		return nil, &apperr.UpstreamError{
			Service: serviceName,
			Status:  http.StatusOK,
			Body:    "no transaction returned",
			Err:     errors.New("swapTransaction missing"),
		}
	}
	return &result, nil
}

// Health reports whether a SOL to USDC quote succeeds.
func (c *Client) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	_, err := c.Quote(ctx, QuoteParams{
		InputMint:   "So11111111111111111111111111111111111111112",
		OutputMint:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Amount:      1_000_000_000,
		SlippageBps: 50,
	})
	return err == nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordProviderCall(serviceName+"_"+op, time.Since(start).Seconds(), err)
	}()

	var reqBody interface{}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Upstream(serviceName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Upstream(serviceName, fmt.Errorf("read %s response: %w", op, err))
	}

	if resp.StatusCode != http.StatusOK {
		return &apperr.UpstreamError{
			Service: serviceName,
			Status:  resp.StatusCode,
			Body:    string(data),
			Err:     fmt.Errorf("%s failed", op),
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return apperr.Upstream(serviceName, fmt.Errorf("decode %s response: %w", op, err))
	}
	return nil
}
