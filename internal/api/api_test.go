package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-swap-gateway/internal/apperr"
	"solana-swap-gateway/internal/chart"
	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/fee"
	"solana-swap-gateway/internal/jupiter"
	"solana-swap-gateway/internal/provider"
	"solana-swap-gateway/internal/storage/memory"
	"solana-swap-gateway/internal/swap"
)

const (
	wallet    = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	signature = "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"
)

type fakeAggregator struct {
	quote    jupiter.Quote
	quoteErr error
	swapErr  error
	lastSwap jupiter.SwapParams
}

func (f *fakeAggregator) Quote(_ context.Context, p jupiter.QuoteParams) (jupiter.Quote, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return jupiter.Quote{
		"inputMint":  p.InputMint,
		"outputMint": p.OutputMint,
		"inAmount":   fmt.Sprint(p.Amount),
		"outAmount":  "987654321",
	}, nil
}

func (f *fakeAggregator) Swap(_ context.Context, p jupiter.SwapParams) (*jupiter.SwapResult, error) {
	f.lastSwap = p
	if f.swapErr != nil {
		return nil, f.swapErr
	}
	return &jupiter.SwapResult{SwapTransaction: "AQAAAA==", LastValidBlockHeight: 42}, nil
}

type fakeResolver struct{ calls []string }

func (f *fakeResolver) Resolve(_ context.Context, mint string, force bool) *domain.TokenMetadata {
	f.calls = append(f.calls, fmt.Sprintf("%s:%t", mint, force))
	m := domain.NewUnknownToken(mint)
	if mint == provider.MintSOL {
		m.Name, m.Symbol, m.Price = "Solana", "SOL", 150
	}
	return m
}

type fakeWallets struct{ err error }

func (f *fakeWallets) Balance(_ context.Context, _, mint string) (*domain.TokenBalance, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.TokenBalance{Balance: "1500000", UIAmount: 1.5, Decimals: 6}, nil
}

func (f *fakeWallets) Balances(_ context.Context, _ string, mints []string) (map[string]*domain.TokenBalance, error) {
	out := make(map[string]*domain.TokenBalance, len(mints))
	for _, m := range mints {
		out[m] = &domain.TokenBalance{Balance: "0"}
	}
	return out, nil
}

func (f *fakeWallets) Portfolio(_ context.Context, w string) (*domain.Portfolio, error) {
	return &domain.Portfolio{Wallet: w, Tokens: []*domain.Holding{}}, nil
}

type fakeCharts struct{ interval string }

func (f *fakeCharts) PriceChart(_ context.Context, _, interval string) (*chart.Chart, error) {
	f.interval = interval
	if interval == "5m" {
		return nil, apperr.Invalid("bad interval")
	}
	return &chart.Chart{Data: []domain.ChartPoint{{Timestamp: 1, Price: 2, Volume: 3}}, CurrentPrice: 2}, nil
}

type fakeRates struct{}

func (fakeRates) Rate(context.Context) domain.ExchangeRate {
	return domain.ExchangeRate{Rate: 16000, LastUpdate: "2024-05-01T10:00:00Z", Source: "fallback", CurrencyPair: domain.CurrencyPairUSDIDR}
}

type fakeHealth bool

func (f fakeHealth) Health(context.Context) bool { return bool(f) }

type env struct {
	agg      *fakeAggregator
	swaps    *swap.Service
	records  *memory.SwapRecordStore
	catalog  *memory.TokenStore
	resolver *fakeResolver
	charts   *fakeCharts
	handler  http.Handler
}

func newEnv(t *testing.T, healthy bool) *env {
	t.Helper()
	logger, _ := test.NewNullLogger()

	e := &env{
		agg:      &fakeAggregator{},
		records:  memory.NewSwapRecordStore(),
		catalog:  memory.NewTokenStore(),
		resolver: &fakeResolver{},
		charts:   &fakeCharts{},
	}
	e.swaps = swap.NewService(e.agg, fee.NewSchedule(fee.DefaultBps, nil), e.records, memory.NewFeeLedgerStore(), swap.WithLogger(logger))
	t.Cleanup(e.swaps.Wait)

	e.handler = NewRouter(Deps{
		Swaps:       e.swaps,
		Resolver:    e.resolver,
		Tokens:      provider.NewStaticTable(nil),
		Catalog:     e.catalog,
		Wallets:     &fakeWallets{err: &apperr.UpstreamError{Service: "solana_rpc", Err: errors.New("timeout")}},
		Charts:      e.charts,
		Rates:       fakeRates{},
		Health:      fakeHealth(healthy),
		Environment: "test",
		Logger:      logger,
	})
	return e
}

func (e *env) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	decode(t, rec, &body)
	return body.Detail
}

func TestHealth(t *testing.T) {
	rec := newEnv(t, true).do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	decode(t, rec, &body)
	assert.Equal(t, healthResponse{Status: "healthy", Environment: "test", Version: Version, Aggregator: "ok"}, body)

	rec = newEnv(t, false).do(t, http.MethodGet, "/health", nil)
	decode(t, rec, &body)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unreachable", body.Aggregator)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t, true)
	e.do(t, http.MethodGet, "/tokens", nil)

	rec := e.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "swap_gateway_http_requests_total")
}

func TestQuote_GetAndPost(t *testing.T) {
	e := newEnv(t, true)
	target := fmt.Sprintf("/quote?inputMint=%s&outputMint=%s&amount=1000000000&slippageBps=50", provider.MintSOL, provider.MintTEKRA1)

	rec := e.do(t, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var quote struct {
		OutAmount   string           `json:"outAmount"`
		FeeAccount  string           `json:"feeAccount"`
		PlatformFee swap.PlatformFee `json:"platformFee"`
	}
	decode(t, rec, &quote)
	assert.Equal(t, "987654321", quote.OutAmount)
	assert.Equal(t, int64(4938271), quote.PlatformFee.Amount)
	assert.Equal(t, fee.DefaultWallets[provider.MintTEKRA1], quote.FeeAccount)

	rec = e.do(t, http.MethodPost, "/quote", map[string]interface{}{
		"inputMint":  provider.MintSOL,
		"outputMint": provider.MintUSDC,
		"amount":     1000000000,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "feeAccount")
}

func TestQuote_Errors(t *testing.T) {
	e := newEnv(t, true)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"missing amount", "/quote?inputMint=" + provider.MintSOL + "&outputMint=" + provider.MintUSDC, http.StatusBadRequest},
		{"bad amount", "/quote?inputMint=" + provider.MintSOL + "&outputMint=" + provider.MintUSDC + "&amount=abc", http.StatusBadRequest},
		{"bad mint", "/quote?inputMint=nope&outputMint=" + provider.MintUSDC + "&amount=1", http.StatusBadRequest},
		{"bad slippage", "/quote?inputMint=" + provider.MintSOL + "&outputMint=" + provider.MintUSDC + "&amount=1&slippageBps=20000", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, detail(t, rec))
		})
	}

	e.agg.quoteErr = &apperr.UpstreamError{Service: "jupiter", Status: 400, Body: "COULD_NOT_FIND_ANY_ROUTE"}
	rec := e.do(t, http.MethodGet, "/quote?inputMint="+provider.MintSOL+"&outputMint="+provider.MintUSDC+"&amount=1", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, detail(t, rec), "COULD_NOT_FIND_ANY_ROUTE")
}

func TestSwapLifecycle(t *testing.T) {
	e := newEnv(t, true)

	rec := e.do(t, http.MethodPost, "/swap", map[string]interface{}{
		"userPublicKey": wallet,
		"quoteResponse": map[string]interface{}{
			"inputMint":   provider.MintSOL,
			"outputMint":  provider.MintTEKRA1,
			"inAmount":    "1000000000",
			"outAmount":   "42000000000",
			"contextSlot": 289000000,
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var built swap.BuildResult
	decode(t, rec, &built)
	assert.Equal(t, "AQAAAA==", built.SwapTransaction)
	assert.Equal(t, int64(210000000), built.PlatformFee.Amount)
	assert.True(t, e.agg.lastSwap.WrapAndUnwrapSol, "wrapAndUnwrapSol defaults to true")
	assert.Equal(t, json.Number("289000000"), e.agg.lastSwap.QuoteResponse["contextSlot"])

	rec = e.do(t, http.MethodPost, "/swap/confirm/"+built.TransactionID, map[string]string{"signature": signature})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var confirmed confirmResponse
	decode(t, rec, &confirmed)
	assert.Equal(t, confirmResponse{Success: true, Signature: signature}, confirmed)

	rec = e.do(t, http.MethodPost, "/swap/confirm/missing?signature="+signature, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/swap-history?wallet="+wallet, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history historyResponse
	decode(t, rec, &history)
	require.Equal(t, 1, history.Total)
	assert.Equal(t, domain.SwapStatusConfirmed, history.Swaps[0].Status)

	e.swaps.Wait()
	rec = e.do(t, http.MethodGet, "/fees/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats feeStatsResponse
	decode(t, rec, &stats)
	assert.Equal(t, []domain.FeeStat{{TokenMint: provider.MintTEKRA1, TotalFees: 210000000, Count: 1}}, stats.Stats)
}

func TestSwap_Errors(t *testing.T) {
	e := newEnv(t, true)

	rec := e.do(t, http.MethodPost, "/swap", map[string]interface{}{"userPublicKey": wallet})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, detail(t, rec), "QuoteResponse")

	req := httptest.NewRequest(http.MethodPost, "/swap", strings.NewReader("{not json"))
	raw := httptest.NewRecorder()
	e.handler.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)

	e.agg.swapErr = &apperr.UpstreamError{Service: "jupiter", Status: 500, Body: "boom"}
	rec = e.do(t, http.MethodPost, "/swap", map[string]interface{}{
		"userPublicKey": wallet,
		"quoteResponse": map[string]interface{}{
			"inputMint": provider.MintSOL, "outputMint": provider.MintUSDC, "inAmount": "1", "outAmount": "1",
		},
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = e.do(t, http.MethodGet, "/swap-history?wallet=bad", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokens(t *testing.T) {
	e := newEnv(t, true)

	rec := e.do(t, http.MethodGet, "/tokens", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list tokensResponse
	decode(t, rec, &list)
	assert.Equal(t, 5, list.Total)
	assert.Equal(t, "SOL", list.Tokens[0].Symbol)

	rec = e.do(t, http.MethodGet, "/tokens/popular", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	assert.Equal(t, 5, list.Total)
	assert.Equal(t, 150.0, list.Tokens[0].Price)

	rec = e.do(t, http.MethodGet, "/token-metadata/"+provider.MintSOL+"?refresh=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var meta domain.TokenMetadata
	decode(t, rec, &meta)
	assert.Equal(t, "SOL", meta.Symbol)
	assert.Contains(t, e.resolver.calls, provider.MintSOL+":true")

	rec = e.do(t, http.MethodGet, "/token-metadata/not-a-mint", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchTokens(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	require.NoError(t, e.catalog.Upsert(ctx, &domain.TokenMetadata{Address: provider.MintUSDC, Name: "USD Coin", Symbol: "USDC", Decimals: 6, MarketCap: 100}))
	require.NoError(t, e.catalog.Upsert(ctx, &domain.TokenMetadata{Address: provider.MintUSDT, Name: "USDT", Symbol: "USDT", Decimals: 6, MarketCap: 200}))

	rec := e.do(t, http.MethodGet, "/tokens/search?query=usd", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var found tokensResponse
	decode(t, rec, &found)
	require.Equal(t, 2, found.Total)
	assert.Equal(t, "USDT", found.Tokens[0].Symbol)

	rec = e.do(t, http.MethodGet, "/tokens/search?query=usd&limit=1", nil)
	decode(t, rec, &found)
	assert.Equal(t, 1, found.Total)

	rec = e.do(t, http.MethodGet, "/tokens/search?query=zzz", nil)
	decode(t, rec, &found)
	assert.NotNil(t, found.Tokens)
	assert.Zero(t, found.Total)

	rec = e.do(t, http.MethodGet, "/tokens/search?query=%20", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWalletRoutes(t *testing.T) {
	e := newEnv(t, true)

	rec := e.do(t, http.MethodGet, "/token-balance?wallet="+wallet+"&token_mint="+provider.MintUSDC, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code, "rpc failures surface as upstream errors")

	rec = e.do(t, http.MethodPost, "/token-balances", map[string]interface{}{"wallet": wallet, "mints": []string{provider.MintUSDC}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var balances balancesResponse
	decode(t, rec, &balances)
	assert.Contains(t, balances.Balances, provider.MintUSDC)

	rec = e.do(t, http.MethodPost, "/token-balances", map[string]interface{}{"wallet": wallet, "mints": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/wallet-portfolio?wallet="+wallet, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p domain.Portfolio
	decode(t, rec, &p)
	assert.Equal(t, wallet, p.Wallet)
}

func TestPriceChart(t *testing.T) {
	e := newEnv(t, true)

	rec := e.do(t, http.MethodGet, "/price-chart?token="+provider.MintSOL, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Interval1d, e.charts.interval)
	assert.JSONEq(t, `{"data":[{"timestamp":1,"price":2,"volume":3}],"current_price":2,"mock":false}`, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/price-chart?token="+provider.MintSOL+"&interval=5m", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExchangeRate(t *testing.T) {
	e := newEnv(t, true)

	rec := e.do(t, http.MethodGet, "/exchange-rate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rate":16000,"last_update":"2024-05-01T10:00:00Z","source":"fallback","currency_pair":"USD/IDR"}`, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/exchange-rate?usd=2.5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var conv exchangeRateResponse
	decode(t, rec, &conv)
	require.NotNil(t, conv.IDR)
	assert.Equal(t, 40000.0, *conv.IDR)

	rec = e.do(t, http.MethodGet, "/exchange-rate?usd=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	rec := newEnv(t, true).do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", detail(t, rec))
}

func TestCORS(t *testing.T) {
	e := newEnv(t, true)
	req := httptest.NewRequest(http.MethodGet, "/tokens", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"), "wildcard origins never allow credentials")
}

func TestCORS_ExplicitOriginsAllowCredentials(t *testing.T) {
	logger, _ := test.NewNullLogger()
	handler := NewRouter(Deps{
		Tokens:         provider.NewStaticTable(nil),
		AllowedOrigins: []string{"https://app.example.com"},
		Logger:         logger,
	})

	req := httptest.NewRequest(http.MethodGet, "/tokens", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/tokens", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
