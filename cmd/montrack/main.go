package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/montrack/montrack/internal/chainrpc"
	"github.com/montrack/montrack/internal/config"
	"github.com/montrack/montrack/internal/database"
	"github.com/montrack/montrack/internal/ingest"
	"github.com/montrack/montrack/internal/kvlist"
	"github.com/montrack/montrack/internal/ledger"
	"github.com/montrack/montrack/internal/logger"
	"github.com/montrack/montrack/internal/registry"
	"github.com/montrack/montrack/internal/server"
	"github.com/montrack/montrack/internal/store"
	"github.com/montrack/montrack/internal/walletcache"
	"github.com/montrack/montrack/internal/wallets"
)

func main() {
	envFile := flag.String("envFile", "", "path to an env file to load before reading configuration")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load env file %s: %v\n", *envFile, err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info().Msg("Starting montrack")

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	stores := store.NewSQL(db)

	tracked, err := walletcache.New(cfg.RedisURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer tracked.Close()

	rpcClient := chainrpc.NewClient(
		cfg.MonadRPCURL,
		time.Duration(cfg.RPCTimeoutSeconds)*time.Second,
		cfg.RPCMaxRetries,
		log,
	)

	var mirror wallets.Mirror
	if cfg.KVListAPIKey != "" {
		mirror = kvlist.NewClient(cfg.KVListURL, cfg.KVListAPIKey, cfg.KVListKey, log)
	} else {
		log.Warn().Msg("KV_LIST_API_KEY not set, wallet list mirroring disabled")
	}

	roster := wallets.NewService(stores.Wallets(), tracked, mirror, log)
	pools := registry.New(stores.Pools(), rpcClient, log)
	walletResolver := ingest.NewWalletResolver(stores.Wallets(), tracked, log)
	reorgResolver := ingest.NewReorgResolver(stores, log)
	pipeline := ingest.NewPipeline(stores, pools, walletResolver, reorgResolver, cfg.MonAddress, log)
	orchestrator := ingest.NewOrchestrator(pipeline, cfg.MaxConcurrentEvents, log)
	engine := ledger.NewEngine(stores.Positions(), log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Preload the membership cache so the first webhook batch does not
	// stampede the wallet table.
	if addrs, err := roster.WarmAddresses(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to load tracked wallets for cache warmup")
	} else if err := tracked.Warm(ctx, addrs); err != nil {
		log.Warn().Err(err).Msg("Failed to warm tracked-wallet cache")
	}

	api := server.New(cfg.HTTPPort, orchestrator, engine, stores, roster, cfg.WebhookAuthToken, log)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(api.Start)
	g.Go(func() error {
		log.Info().Str("addr", metricsServer.Addr).Msg("Metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := api.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown failed")
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Metrics server shutdown failed")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
	log.Info().Msg("Shutdown complete")
}
