package app

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/rollcall/internal/config"
	"github.com/MrSnakeDoc/rollcall/internal/logger"
	"github.com/MrSnakeDoc/rollcall/internal/postgres"
	"github.com/MrSnakeDoc/rollcall/internal/redis"
	"github.com/MrSnakeDoc/rollcall/internal/store"
	"github.com/MrSnakeDoc/rollcall/internal/store/memory"
	pgstore "github.com/MrSnakeDoc/rollcall/internal/store/postgres"
	redisstore "github.com/MrSnakeDoc/rollcall/internal/store/redis"
)

// OpenStore connects the backend named by cfg.StoreKind. Postgres gets its
// schema created when missing. The caller owns the returned store and must
// Close it.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	switch store.Kind(cfg.StoreKind) {
	case store.KindPostgres:
		log.Info("connecting to postgres")
		db, err := postgres.New(postgres.ConnectOptions{
			DSN:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnectTimeout:  cfg.DBConnectTimeout,
			RetryInterval:   cfg.DBRetryInterval,
			MaxWait:         cfg.DBMaxWait,
			PingTimeout:     cfg.DBPingTimeout,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		st := pgstore.NewStore(db)
		if err := st.EnsureSchema(ctx); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
		return st, nil

	case store.KindRedis:
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			ClientName:     "rollcall",
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisstore.NewStore(client), nil

	case store.KindMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.StoreKind)
	}
}
