package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Currency rate defaults.
const (
	DefaultExchangeRateAPIURL = "https://api.exchangerate-api.com"
	DefaultFrankfurterURL     = "https://api.frankfurter.app"
	CurrencyTimeout           = 5 * time.Second
)

// RateSource returns the number of IDR per USD.
type RateSource interface {
	// Name is reported as the rate's source.
	Name() string

	// FetchUSDIDR returns IDR per 1 USD.
	FetchUSDIDR(ctx context.Context) (float64, error)
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

func (r *ratesResponse) idr() (float64, error) {
	rate, ok := r.Rates["IDR"]
	if !ok || rate <= 0 {
		return 0, errors.New("IDR rate missing")
	}
	return rate, nil
}

// ExchangeRateAPI reads rates from exchangerate-api.com.
type ExchangeRateAPI struct {
	baseURL string
	client  *http.Client
}

var _ RateSource = (*ExchangeRateAPI)(nil)

// NewExchangeRateAPI creates the primary rate source.
func NewExchangeRateAPI(baseURL string, client *http.Client) *ExchangeRateAPI {
	if baseURL == "" {
		baseURL = DefaultExchangeRateAPIURL
	}
	if client == nil {
		client = newClient(CurrencyTimeout)
	}
	return &ExchangeRateAPI{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Name implements RateSource.
func (e *ExchangeRateAPI) Name() string { return "exchangerate-api.com" }

// FetchUSDIDR implements RateSource.
func (e *ExchangeRateAPI) FetchUSDIDR(ctx context.Context) (float64, error) {
	var resp ratesResponse
	if err := getJSON(ctx, e.client, e.Name(), e.baseURL+"/v4/latest/USD", CurrencyTimeout, &resp); err != nil {
		return 0, err
	}
	rate, err := resp.idr()
	if err != nil {
		return 0, unavailable(e.Name(), err)
	}
	return rate, nil
}

// Frankfurter reads rates from frankfurter.app.
type Frankfurter struct {
	baseURL string
	client  *http.Client
}

var _ RateSource = (*Frankfurter)(nil)

// NewFrankfurter creates the fallback rate source.
func NewFrankfurter(baseURL string, client *http.Client) *Frankfurter {
	if baseURL == "" {
		baseURL = DefaultFrankfurterURL
	}
	if client == nil {
		client = newClient(CurrencyTimeout)
	}
	return &Frankfurter{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Name implements RateSource.
func (f *Frankfurter) Name() string { return "frankfurter.app" }

// FetchUSDIDR implements RateSource.
func (f *Frankfurter) FetchUSDIDR(ctx context.Context) (float64, error) {
	var resp ratesResponse
	if err := getJSON(ctx, f.client, f.Name(), f.baseURL+"/latest?from=USD&to=IDR", CurrencyTimeout, &resp); err != nil {
		return 0, err
	}
	rate, err := resp.idr()
	if err != nil {
		return 0, unavailable(f.Name(), err)
	}
	return rate, nil
}
