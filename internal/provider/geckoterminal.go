package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"solana-swap-gateway/internal/domain"
)

// GeckoTerminal defaults.
const (
	DefaultGeckoTerminalURL = "https://api.geckoterminal.com/api/v2"
	GeckoTerminalTimeout    = 10 * time.Second
)

// GeckoTerminal fetches OHLCV candles for Solana pools.
type GeckoTerminal struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewGeckoTerminal creates a candle client. Empty baseURL and nil client use defaults.
func NewGeckoTerminal(baseURL string, client *http.Client) *GeckoTerminal {
	if baseURL == "" {
		baseURL = DefaultGeckoTerminalURL
	}
	if client == nil {
		client = newClient(GeckoTerminalTimeout)
	}
	return &GeckoTerminal{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: GeckoTerminalTimeout,
	}
}

// Name identifies the source.
func (g *GeckoTerminal) Name() string { return "geckoterminal" }

type ohlcvResponse struct {
	Data struct {
		Attributes struct {
			// [time, open, high, low, close, volume]
			OHLCVList [][]float64 `json:"ohlcv_list"`
		} `json:"attributes"`
	} `json:"data"`
}

// FetchCandles returns up to limit candles for pool, sorted by timestamp ascending.
func (g *GeckoTerminal) FetchCandles(ctx context.Context, pool, timeframe string, limit int) ([]domain.Candle, error) {
	endpoint := fmt.Sprintf("%s/networks/solana/pools/%s/ohlcv/%s?limit=%d",
		g.baseURL, url.PathEscape(pool), url.PathEscape(timeframe), limit)

	var resp ohlcvResponse
	if err := getJSON(ctx, g.client, g.Name(), endpoint, g.timeout, &resp); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(resp.Data.Attributes.OHLCVList))
	for _, row := range resp.Data.Attributes.OHLCVList {
		if len(row) < 6 {
			continue
		}
		candles = append(candles, domain.Candle{
			PairAddress: pool,
			Timeframe:   timeframe,
			Timestamp:   int64(row[0]) * 1000,
			Open:        row[1],
			High:        row[2],
			Low:         row[3],
			Close:       row[4],
			Volume:      row[5],
		})
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp < candles[j].Timestamp
	})

	return candles, nil
}
