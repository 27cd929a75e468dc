// cmd/tools/lead-admin/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pelviu-funnel/internal/common/config"
	"pelviu-funnel/internal/common/database"
	"pelviu-funnel/internal/common/logger"
	"pelviu-funnel/internal/funnel"
	"pelviu-funnel/internal/questionbank"
	"pelviu-funnel/internal/store"
)

func main() {
	a := &app{out: os.Stdout}
	a.open = a.openFromConfig
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds what every command needs. open is swapped in tests.
type app struct {
	configPath string
	out        io.Writer
	open       func(ctx context.Context) (*funnel.Service, func(), error)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "lead-admin",
		Short:        "Inspect, score and maintain funnel leads",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: configs/config.yaml)")
	root.SetOut(a.out)

	root.AddCommand(
		newQuestionsCmd(a),
		newScoreCmd(a),
		newStatsCmd(a),
		newExportCmd(a),
		newClearCmd(a),
	)
	return root
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		return config.LoadFromFile(a.configPath)
	}
	return config.Load()
}

// openFromConfig wires a funnel service against the configured store only.
// Integrations stay off so admin runs never notify or push to the CRM.
func (a *app) openFromConfig(ctx context.Context) (*funnel.Service, func(), error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewStructured(cfg.Logging.Level, "console", "stderr")

	bank, err := questionbank.Load(cfg.QuestionBank.OverridePath)
	if err != nil {
		return nil, nil, err
	}

	var (
		deps    store.Deps
		closers []func() error
	)
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		deps.Postgres = pg.DB
		closers = append(closers, pg.Close)
	case config.StoreBackendSQLite:
		lite, err := database.NewSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		deps.SQLite = lite.DB
		closers = append(closers, lite.Close)
	case config.StoreBackendRedis:
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, nil, err
		}
		deps.Redis = rdb.Client
		closers = append(closers, rdb.Close)
	}
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	leadStore, err := store.New(ctx, cfg.Store, deps, log)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("lead store: %w", err)
	}

	svc := funnel.NewService(bank, leadStore, log, funnel.WithWhatsAppNumber(cfg.Booking.WhatsAppNumber))
	return svc, closeAll, nil
}
