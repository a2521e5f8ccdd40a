// Package api exposes the gateway services over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"solana-swap-gateway/internal/chart"
	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/jupiter"
	"solana-swap-gateway/internal/observability"
	"solana-swap-gateway/internal/storage"
	"solana-swap-gateway/internal/swap"
)

// Version is reported by /health.
const Version = "1.0.0"

// SwapService quotes, builds and records swaps.
type SwapService interface {
	Quote(ctx context.Context, req swap.QuoteRequest) (jupiter.Quote, error)
	Build(ctx context.Context, req swap.BuildRequest) (*swap.BuildResult, error)
	Confirm(ctx context.Context, id, signature string) error
	History(ctx context.Context, wallet string, limit int) ([]*domain.SwapRecord, error)
	FeeStats(ctx context.Context, feeAccount string) ([]domain.FeeStat, error)
}

// MetadataResolver resolves token metadata.
type MetadataResolver interface {
	Resolve(ctx context.Context, mint string, forceRefresh bool) *domain.TokenMetadata
}

// TokenList is the static token table.
type TokenList interface {
	List() []*domain.TokenMetadata
	Addresses() []string
}

// WalletService reads balances and portfolios.
type WalletService interface {
	Balance(ctx context.Context, wallet, mint string) (*domain.TokenBalance, error)
	Balances(ctx context.Context, wallet string, mints []string) (map[string]*domain.TokenBalance, error)
	Portfolio(ctx context.Context, wallet string) (*domain.Portfolio, error)
}

// ChartService builds price charts.
type ChartService interface {
	PriceChart(ctx context.Context, token, interval string) (*chart.Chart, error)
}

// RateService returns the USD/IDR rate.
type RateService interface {
	Rate(ctx context.Context) domain.ExchangeRate
}

// HealthChecker reports whether the aggregator answers.
type HealthChecker interface {
	Health(ctx context.Context) bool
}

// Deps are the services behind the routes.
type Deps struct {
	Swaps    SwapService
	Resolver MetadataResolver
	Tokens   TokenList
	Catalog  storage.TokenStore
	Wallets  WalletService
	Charts   ChartService
	Rates    RateService
	Health   HealthChecker

	Environment    string
	AllowedOrigins []string
	Logger         logrus.FieldLogger
}

type handler struct {
	Deps
	validate *validator.Validate
}

// wildcard reports whether origins admits any origin. Credentials are only
// allowed for an explicit origin list.
func wildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// NewRouter builds the HTTP handler.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if len(deps.AllowedOrigins) == 0 {
		deps.AllowedOrigins = []string{"*"}
	}
	h := &handler{Deps: deps, validate: validator.New()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.observe)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: !wildcard(deps.AllowedOrigins),
		MaxAge:           300,
	}))

	r.Get("/health", h.health)
	r.Handle("/metrics", observability.Handler())

	r.Get("/quote", h.quote)
	r.Post("/quote", h.quote)
	r.Post("/swap", h.buildSwap)
	r.Post("/swap/confirm/{id}", h.confirmSwap)
	r.Get("/swap-history", h.swapHistory)
	r.Get("/fees/stats", h.feeStats)

	r.Get("/token-metadata/{address}", h.tokenMetadata)
	r.Get("/tokens", h.listTokens)
	r.Get("/tokens/popular", h.popularTokens)
	r.Get("/tokens/search", h.searchTokens)

	r.Get("/token-balance", h.tokenBalance)
	r.Post("/token-balances", h.tokenBalances)
	r.Get("/wallet-portfolio", h.walletPortfolio)

	r.Get("/price-chart", h.priceChart)
	r.Get("/exchange-rate", h.exchangeRate)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// observe records request metrics and a summary log line per request.
func (h *handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		observability.RecordHTTPRequest(route, r.Method, strconv.Itoa(status), elapsed.Seconds())
		h.Logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"route":       route,
			"status":      status,
			"duration_ms": elapsed.Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		}).Info("request served")
	})
}

type healthResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	Aggregator  string `json:"aggregator"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "healthy",
		Environment: h.Environment,
		Version:     Version,
		Aggregator:  "ok",
	}
	if h.Health != nil && !h.Health.Health(r.Context()) {
		resp.Status = "degraded"
		resp.Aggregator = "unreachable"
	}
	writeJSON(w, http.StatusOK, resp)
}
