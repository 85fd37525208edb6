package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	bidding "live-auction/internal/biddingService"
	"live-auction/internal/catalog"
	"live-auction/internal/config"
	"live-auction/internal/feed"
	"live-auction/internal/gateway"
	"live-auction/internal/metrics"
	"live-auction/internal/repository"
	"live-auction/internal/server"
	handler "live-auction/services/bidding/handler"
	"live-auction/utils"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func main() {
	v := viper.New()
	config.SetupViper(v, config.FileName)
	cfg, err := config.New(v)
	if err != nil {
		utils.Fatal("failed to load configuration", map[string]any{"error": err.Error()})
	}
	if err := utils.Configure(cfg.Log.Level); err != nil {
		utils.Fatal("failed to configure logger", map[string]any{"error": err.Error()})
	}
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		utils.Fatal("auction server stopped", map[string]any{"error": err.Error()})
	}
	utils.Info("auction server stopped", nil)
}

func run(ctx context.Context, cfg *config.Configuration) error {
	clk := clock.New()

	items := catalog.Default(clk.Now(), cfg.Auction.Duration)
	if err := catalog.Validate(items); err != nil {
		return err
	}
	repo, err := repository.NewMemoryRepo(items...)
	if err != nil {
		return err
	}

	m := metrics.NewMetrics("auction")
	gw := gateway.NewGateway(repo, cfg.Gateway.BufferSize, m)
	controller := bidding.NewAdmissionController(repo, gw, bidding.Options{
		EnforceClose: cfg.Auction.EnforceClose,
		Clock:        clk,
		Metrics:      m,
	})

	router := server.SetupRouter(server.Dependencies{
		Service: controller,
		Hub:     gw,
		Stream: handler.StreamOptions{
			PingInterval:   cfg.Gateway.PingInterval,
			WriteTimeout:   cfg.Gateway.WriteTimeout,
			AllowedOrigins: cfg.Gateway.AllowedOrigins,
		},
		Metrics: m.Handler(),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		utils.Info("starting auction server", map[string]any{
			"addr":          srv.Addr,
			"items":         len(items),
			"enforce_close": cfg.Auction.EnforceClose,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Feed.Enabled() {
		bidFeed := feed.New(feed.NewKafkaWriter(cfg.Feed.Brokers, cfg.Feed.Topic), m)
		g.Go(func() error {
			defer func() {
				if err := bidFeed.Close(); err != nil {
					utils.Warn("feed: close failed", map[string]any{"error": err.Error()})
				}
			}()
			utils.Info("feed: publishing bid updates", map[string]any{
				"brokers": cfg.Feed.Brokers,
				"topic":   cfg.Feed.Topic,
			})
			return bidFeed.Run(gctx, gw)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		utils.Info("shutting down auction server", nil)

		// Dropping subscribers first ends the long-lived stream handlers so
		// Shutdown does not wait on them.
		gw.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
