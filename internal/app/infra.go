package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"

	"github.com/healthplus/backend/config"
	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/pkg/authorize"
	"github.com/healthplus/backend/pkg/cache"
	"github.com/healthplus/backend/pkg/database"
	"github.com/healthplus/backend/pkg/email"
	"github.com/healthplus/backend/pkg/events"
	"github.com/healthplus/backend/pkg/logs"
	"github.com/healthplus/backend/pkg/observability"
	redispkg "github.com/healthplus/backend/pkg/redis"
	s3pkg "github.com/healthplus/backend/pkg/s3"
	"github.com/healthplus/backend/pkg/session"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideLogger),
	fx.Provide(ProvideMongo),
	fx.Provide(ProvideStore),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideCache),
	fx.Provide(ProvideSessionStore),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideMetrics),
	fx.Provide(ProvideS3Client),
	fx.Provide(ProvideEventBus),
)

func ProvideLogger(cfg *config.Config) *slog.Logger {
	logger := logs.New(cfg)
	slog.SetDefault(logger)
	return logger
}

func ProvideMongo(lc fx.Lifecycle, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	dbCfg := database.FromCentralConfig(cfg.Mongo)

	ctx, cancel := context.WithTimeout(context.Background(), dbCfg.ConnectTimeout())
	defer cancel()

	client, db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return nil, nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !dbCfg.AutoIndex {
				return nil
			}
			slog.Debug("ensuring MongoDB indexes")
			return repo.EnsureIndexes(ctx, db)
		},
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing MongoDB connection")
			return client.Disconnect(ctx)
		},
	})
	return client, db, nil
}

func ProvideStore(db *mongo.Database) *repo.Store {
	return repo.NewMongoStore(db)
}

// ProvideRedis connects only when something needs Redis: the redis cache
// driver or redis.enabled (shared rate-limit counters). Otherwise it
// provides nil.
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	if cfg.Cache.Driver != "redis" && !cfg.Redis.Enabled {
		return nil, nil
	}

	rdb, err := redispkg.NewRedisFromCentral(context.Background(), cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

// ProvideCache backs pending signups and sessions.
func ProvideCache(cfg *config.Config, rdb *redis.Client) cache.Store {
	if cfg.Cache.Driver == "redis" && rdb != nil {
		return cache.NewRedis(rdb, "healthplus:")
	}
	return cache.NewMemory(cfg.Cache.Size, sessionTTL(cfg))
}

func ProvideSessionStore(kv cache.Store, cfg *config.Config) *session.Store {
	return session.NewStore(kv, sessionTTL(cfg))
}

func sessionTTL(cfg *config.Config) time.Duration {
	if m := cfg.Authentication.SessionTTLMinutes; m > 0 {
		return time.Duration(m) * time.Minute
	}
	return 7 * 24 * time.Hour
}

func ProvideAuthorization(cfg *config.Config, logger *slog.Logger) (authorize.IAuthorization, error) {
	enforcer, err := authorize.NewEnforcer(cfg.Authorization.PolicyPath)
	if err != nil {
		return nil, err
	}
	baseAuth, err := authorize.NewAuthorization(enforcer)
	if err != nil {
		return nil, err
	}

	var auth authorize.IAuthorization = baseAuth
	if cfg.Authorization.EnableAudit {
		auth = authorize.NewAuditedAuthorization(baseAuth, logger)
	}

	if cfg.Authorization.PolicyPath == "" {
		if err := authorize.SeedDefaultPolicies(context.Background(), auth); err != nil {
			return nil, fmt.Errorf("seed policies: %w", err)
		}
	}
	return auth, nil
}

func ProvideEmailClient(cfg *config.Config) *email.Client {
	return email.NewFromCentral(cfg.Email)
}

func ProvideS3Client(cfg *config.Config) (*s3pkg.Client, error) {
	return s3pkg.New(context.Background(), cfg.S3)
}

// ProvideEventBus picks the broker from events.driver.
func ProvideEventBus(lc fx.Lifecycle, cfg *config.Config) (events.Bus, error) {
	var (
		bus events.Bus
		err error
	)
	switch cfg.Events.Driver {
	case "nats":
		bus, err = events.NewNats(cfg.Events.Nats.URL)
	case "amqp":
		bus, err = events.NewAMQP(cfg.Events.AMQP.URL, cfg.Events.AMQP.Exchange)
	default:
		// no broker: notifications go out in-process
		bus = events.NewMemory()
	}
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing event bus", "driver", cfg.Events.Driver)
			return bus.Close()
		},
	})
	return bus, nil
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}

// ProvideMetrics depends on the provider so counters bind after it is set.
func ProvideMetrics(_ *observability.Provider) (*observability.Metrics, error) {
	return observability.NewMetrics()
}
