package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"solana-swap-gateway/internal/api"
	"solana-swap-gateway/internal/chart"
	"solana-swap-gateway/internal/config"
	"solana-swap-gateway/internal/currency"
	"solana-swap-gateway/internal/fee"
	"solana-swap-gateway/internal/httpclient"
	"solana-swap-gateway/internal/jupiter"
	"solana-swap-gateway/internal/portfolio"
	"solana-swap-gateway/internal/provider"
	"solana-swap-gateway/internal/resolver"
	"solana-swap-gateway/internal/solana"
	"solana-swap-gateway/internal/storage"
	"solana-swap-gateway/internal/swap"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), c.cfg, c.logger, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply migrations before serving")
	return cmd
}

// gateway is the wired application.
type gateway struct {
	handler http.Handler
	swaps   *swap.Service
}

func serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger, migrate bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, closeStores, err := createStores(ctx, cfg, migrate, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	metaCache, closeCache, err := createMetadataCache(ctx, cfg.RedisAddr, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	gw := buildGateway(ctx, cfg, st, metaCache, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           gw.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":        cfg.ListenAddr,
			"environment": cfg.Environment,
			"memory":      cfg.UseMemory,
		}).Info("gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("shutting down")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	// A second signal aborts the graceful shutdown.
	go func() {
		select {
		case sig := <-sigCh:
			logger.WithField("signal", sig.String()).Warn("second signal, forcing exit")
			os.Exit(1)
		case <-shutdownCtx.Done():
		}
	}()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http shutdown")
	}
	gw.swaps.Wait()

	logger.Info("shutdown complete")
	return nil
}

// buildGateway wires providers, services and the router.
func buildGateway(ctx context.Context, cfg *config.Config, st *stores, metaCache resolver.Cache, logger *logrus.Logger) *gateway {
	httpClient := httpclient.NewStandard(httpclient.DefaultOptions(solana.DefaultTimeout))

	// Both clients draw from one bucket so the node sees at most RPCRateLimit.
	limiter := solana.NewLimiter(cfg.RPCRateLimit, int(cfg.RPCRateLimit))
	rpc := solana.NewHTTPClient(cfg.SolanaRPCURL,
		solana.WithHTTPClient(httpClient),
		solana.WithLimiter(limiter),
	)
	// Metadata lookups fall through to the next source instead of retrying.
	metaRPC := solana.NewHTTPClient(cfg.SolanaRPCURL,
		solana.WithHTTPClient(httpClient),
		solana.WithMaxRetries(0),
		solana.WithLimiter(limiter),
	)

	static := provider.NewStaticTable(cfg.StaticTokens())
	dex := provider.NewDexScreener(cfg.DexScreenerURL, nil)

	res := resolver.New(metaCache, static, dex, provider.NewRPCMetadata(metaRPC),
		resolver.WithCatalog(st.tokens),
		resolver.WithLogger(logger),
	)
	seedCatalog(ctx, st.tokens, static, logger)

	agg := jupiter.New(cfg.JupiterURL, jupiter.WithAPIKey(cfg.JupiterAPIKey))
	swaps := swap.NewService(agg, fee.NewSchedule(cfg.PlatformFeeBps, cfg.FeeWallets()), st.records, st.ledger,
		swap.WithLogger(logger),
	)

	chartOpts := []chart.Option{chart.WithLogger(logger)}
	if st.candles != nil {
		chartOpts = append(chartOpts, chart.WithArchive(st.candles))
	}
	charts := chart.NewService(dex, provider.NewGeckoTerminal(cfg.GeckoTerminalURL, nil), chartOpts...)

	rates := currency.NewService([]provider.RateSource{
		provider.NewExchangeRateAPI(cfg.ExchangeRateURL, nil),
		provider.NewFrankfurter(cfg.FrankfurterURL, nil),
	}, currency.WithLogger(logger))

	handler := api.NewRouter(api.Deps{
		Swaps:          swaps,
		Resolver:       res,
		Tokens:         static,
		Catalog:        st.tokens,
		Wallets:        portfolio.NewService(rpc, res, portfolio.WithLogger(logger)),
		Charts:         charts,
		Rates:          rates,
		Health:         agg,
		Environment:    cfg.Environment,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	return &gateway{handler: handler, swaps: swaps}
}

// seedCatalog makes the static tokens searchable before anything is resolved.
func seedCatalog(ctx context.Context, catalog storage.TokenStore, static *provider.StaticTable, logger logrus.FieldLogger) {
	for _, m := range static.List() {
		if err := catalog.Upsert(ctx, m); err != nil {
			logger.WithError(err).WithField("mint", m.Address).Warn("seed token catalogue")
			return
		}
	}
}
