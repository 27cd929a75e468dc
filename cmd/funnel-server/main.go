// cmd/funnel-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pelviu-funnel/internal/api"
	"pelviu-funnel/internal/common/config"
	"pelviu-funnel/internal/common/logger"
	"pelviu-funnel/internal/common/observability"
	"pelviu-funnel/internal/funnel"
	"pelviu-funnel/internal/questionbank"
	"pelviu-funnel/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	if err := run(cfg, zapLog); err != nil {
		zapLog.Fatal("funnel server stopped with error", zap.Error(err))
	}
	zapLog.Info("Funnel server stopped gracefully")
}

func run(cfg *config.Config, zapLog *zap.Logger) error {
	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting funnel server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("store", cfg.Store.Backend),
		zap.String("genai", cfg.APIs.GenAI.Provider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	bank, err := questionbank.Load(cfg.QuestionBank.OverridePath)
	if err != nil {
		return fmt.Errorf("question bank: %w", err)
	}
	zapLog.Info("Question bank loaded", zap.String("version", bank.Version()))

	conns, err := connectBackends(ctx, cfg, zapLog)
	if err != nil {
		return err
	}
	defer conns.Close(zapLog)

	leadStore, err := store.New(ctx, cfg.Store, conns.storeDeps(), log)
	if err != nil {
		return fmt.Errorf("lead store: %w", err)
	}

	opts, err := integrations(ctx, cfg, conns, log)
	if err != nil {
		return err
	}
	opts = append(opts,
		funnel.WithObservability(obs),
		funnel.WithWhatsAppNumber(cfg.Booking.WhatsAppNumber),
	)
	svc := funnel.NewService(bank, leadStore, log, opts...)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(svc, cfg.Server.AdminPIN, log),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	var ready atomic.Bool
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           newMetricsMux(&ready),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLog.Info("API server listening", zap.String("addr", apiServer.Addr))
		return serve(apiServer)
	})
	g.Go(func() error {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", metricsServer.Addr))
		return serve(metricsServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		ready.Store(false)
		zapLog.Info("Shutdown signal received, draining requests...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("api server shutdown: %w", err))
		}
		svc.Wait()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	ready.Store(true)
	return g.Wait()
}

func serve(s *http.Server) error {
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on %s: %w", s.Addr, err)
	}
	return nil
}
