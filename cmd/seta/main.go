package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"seta/internal/auth"
	"seta/internal/cache"
	"seta/internal/cli"
	"seta/internal/config"
	"seta/internal/core"
	"seta/internal/events"
	apphttp "seta/internal/http"
	applog "seta/internal/log"
	"seta/internal/profile"
	"seta/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	ctx, stop := cli.SignalContext()
	defer stop()

	issues := applog.NewIssueLogger(logger)
	res := cli.InitStore(ctx, logger, cfg, issues)
	defer func() {
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Record store cleanup failed", applog.FieldError, err)
			}
		}
	}()

	rdb := cli.InitRedis(ctx, logger, cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	cacheManager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())
	snapshots := cache.NewLRUCache[[]core.Record](1000, cfg.SnapshotCacheTTL)
	cacheManager.Register(snapshots)
	profiles := profile.NewService(cli.NewProfileCache(rdb, cacheManager))
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	opts := []services.Option{
		services.WithSnapshotCache(snapshots),
		services.WithAdvisor(cli.InitAdvisor(ctx, logger, cfg, rdb)),
		services.WithObserver(issues),
		services.WithLogger(logger),
	}

	var eventsClient *events.Client
	if cfg.AMQPURL != "" {
		c, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Mutations still work; other instances see them once their
			// snapshots expire.
			logger.Error("Failed to connect to AMQP, change notifications disabled", applog.FieldError, err)
		} else {
			eventsClient = c
			defer eventsClient.Close()
			opts = append(opts, services.WithPublisher(eventsClient))
		}
	}

	ledger := services.NewLedgerService(res.Store, opts...)
	dashboards := services.NewDashboards(ledger, services.DefaultMaxDashboards, cfg.DashboardIdleTimeout)
	cacheManager.Register(dashboards)

	tokens, _ := config.ParseTokens(cfg.APITokens) // validated by Validate
	if len(tokens) == 0 {
		logger.Warn("API_TOKENS is empty, every request is anonymous")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:             ledger,
		Dashboards:         dashboards,
		Profiles:           profiles,
		Resolver:           auth.StaticResolver(tokens),
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready: func(ctx context.Context) error {
			now := time.Now()
			_, err := res.Store.ListRecords(ctx, "readyz", &now)
			return err
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting seta server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if eventsClient != nil {
		g.Go(func() error {
			err := eventsClient.Consume(gctx, ledger.HandleRecordsChanged)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
