package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	awsclients "pelviu-funnel/internal/common/aws"
	"pelviu-funnel/internal/common/config"
	"pelviu-funnel/internal/common/database"
	"pelviu-funnel/internal/common/logger"
	"pelviu-funnel/internal/common/zoho"
	"pelviu-funnel/internal/funnel"
	"pelviu-funnel/internal/leadindex"
	"pelviu-funnel/internal/narrative"
	"pelviu-funnel/internal/notify"
	"pelviu-funnel/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s interrupted: %w", operationName, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

type backends struct {
	postgres *database.PostgresClient
	sqlite   *database.SQLiteClient
	redis    *database.RedisClient
	es       *database.ElasticsearchClient
}

// connectBackends opens only the connections the configuration asks for.
func connectBackends(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (*backends, error) {
	b := &backends{}

	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		err := retryWithBackoff(ctx, func() error {
			var err error
			b.postgres, err = openVerified(ctx, func() (*database.PostgresClient, error) {
				return database.NewPostgres(cfg.Database.Postgres)
			})
			return err
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, err
		}
		zapLog.Info("PostgreSQL connected successfully")

	case config.StoreBackendSQLite:
		var err error
		b.sqlite, err = database.NewSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := b.sqlite.Ping(ctx); err != nil {
			b.Close(zapLog)
			return nil, err
		}
		zapLog.Info("SQLite opened", zap.String("path", b.sqlite.Path))

	case config.StoreBackendRedis:
		err := retryWithBackoff(ctx, func() error {
			var err error
			b.redis, err = openVerified(ctx, func() (*database.RedisClient, error) {
				return database.NewRedis(cfg.Database.Redis)
			})
			return err
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			return nil, err
		}
		zapLog.Info("Redis connected successfully")
	}

	if cfg.Search.Enabled {
		err := retryWithBackoff(ctx, func() error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.Ping(ctx); err != nil {
				return err
			}
			b.es = es
			return nil
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			b.Close(zapLog)
			return nil, err
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	return b, nil
}

type pingCloser interface {
	Ping(ctx context.Context) error
	Close() error
}

// openVerified opens a client and pings it. A client that fails the ping is
// closed so retries do not pile up connection pools.
func openVerified[C pingCloser](ctx context.Context, open func() (C, error)) (C, error) {
	var zero C
	c, err := open()
	if err != nil {
		return zero, err
	}
	if err := c.Ping(ctx); err != nil {
		if cerr := c.Close(); cerr != nil {
			return zero, errors.Join(err, cerr)
		}
		return zero, err
	}
	return c, nil
}

func (b *backends) storeDeps() store.Deps {
	var deps store.Deps
	if b.redis != nil {
		deps.Redis = b.redis.Client
	}
	if b.postgres != nil {
		deps.Postgres = b.postgres.DB
	}
	if b.sqlite != nil {
		deps.SQLite = b.sqlite.DB
	}
	return deps
}

func (b *backends) Close(zapLog *zap.Logger) {
	if b.postgres != nil {
		if err := b.postgres.Close(); err != nil {
			zapLog.Error("Error closing PostgreSQL", zap.Error(err))
		}
	}
	if b.sqlite != nil {
		if err := b.sqlite.Close(); err != nil {
			zapLog.Error("Error closing SQLite", zap.Error(err))
		}
	}
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			zapLog.Error("Error closing Redis", zap.Error(err))
		}
	}
}

// integrations builds the optional collaborators of the funnel service.
func integrations(ctx context.Context, cfg *config.Config, b *backends, log logger.Logger) ([]funnel.Option, error) {
	var opts []funnel.Option

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if gen != nil {
		opts = append(opts, funnel.WithNarrator(
			narrative.NewNarrator(gen, config.GetDuration(cfg.APIs.GenAI.Timeout), log),
		))
	}

	if z := cfg.Integrations.Zoho; z.Enabled {
		opts = append(opts, funnel.WithCRM(
			zoho.NewCRMClient(z.APIKey, z.AuthToken, z.BaseURL, config.GetDuration(z.Timeout)),
		))
	}

	if n, err := newNotifier(ctx, cfg, log); err != nil {
		return nil, err
	} else if n != nil {
		opts = append(opts, funnel.WithNotifier(n))
	}

	if b.es != nil {
		opts = append(opts, funnel.WithIndexer(leadindex.NewIndexer(b.es.Client, cfg.Search.Index)))
	}

	return opts, nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (narrative.Generator, error) {
	g := cfg.APIs.GenAI
	switch g.Provider {
	case config.GenAIProviderGemini:
		if g.APIKey == "" {
			return nil, fmt.Errorf("apis.genai.api_key is required for the gemini provider")
		}
		gen, err := narrative.NewGeminiGenerator(ctx, narrative.GeminiConfig{
			APIKey:      g.APIKey,
			BaseURL:     g.BaseURL,
			Model:       g.Model,
			Temperature: float32(g.Temperature),
			TopP:        float32(g.TopP),
		})
		if err != nil {
			return nil, err
		}
		return gen, nil
	case config.GenAIProviderHTTP:
		if g.BaseURL == "" {
			return nil, fmt.Errorf("apis.genai.base_url is required for the http provider")
		}
		return narrative.NewHTTPGenerator(narrative.HTTPConfig{
			BaseURL:     g.BaseURL,
			APIKey:      g.APIKey,
			Temperature: g.Temperature,
			MaxRetries:  g.MaxRetries,
		}), nil
	default:
		return nil, nil
	}
}

func newNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) (*notify.Notifier, error) {
	a := cfg.Integrations.AWS
	if !a.SES.Enabled && !a.SNS.Enabled {
		return nil, nil
	}

	awsCfg, err := awsclients.LoadConfig(ctx, a.Region)
	if err != nil {
		return nil, err
	}

	var sesClient notify.SESService
	if a.SES.Enabled {
		sesClient = awsclients.NewSESClient(awsCfg)
	}
	var snsClient notify.SNSService
	if a.SNS.Enabled {
		snsClient = awsclients.NewSNSClient(awsCfg)
	}

	return notify.NewNotifier(notify.Config{
		EmailEnabled: a.SES.Enabled,
		FromEmail:    a.SES.FromEmail,
		ToEmail:      a.SES.ToEmail,
		SMSEnabled:   a.SNS.Enabled,
		PhoneNumber:  a.SNS.PhoneNumber,
		SenderID:     a.SNS.SenderID,
	}, sesClient, snsClient, log), nil
}
