package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/rollcall/internal/logger"
	"github.com/MrSnakeDoc/rollcall/internal/retry"
)

// ConnectOptions defines the redis client and its connection retry behavior.
type ConnectOptions struct {
	Addr           string        // Redis address (ex: "localhost:6379")
	ClientName     string        // CLIENT SETNAME value, shows up in CLIENT LIST (ex: "rollcall")
	User           string        // Optional username
	Password       string        // Optional password
	RedisDB        int           // Redis DB number
	DialTimeout    time.Duration // Redis dial timeout
	ReadTimeout    time.Duration // Redis read timeout
	WriteTimeout   time.Duration // Redis write timeout
	PoolSize       int           // Redis connection pool size
	ConnectTimeout time.Duration // Total time allowed for connection attempts (ex: 30s)
	RetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	MaxWait        time.Duration // max wait between retries (ex: 10s)
	PingTimeout    time.Duration // timeout for each ping attempt (ex: 2s)
	WarnThreshold  int           // warn after this many attempts
}

func (o ConnectOptions) policy() retry.Policy {
	return retry.Policy{
		Total:         o.ConnectTimeout,
		Initial:       o.RetryInterval,
		MaxWait:       o.MaxWait,
		PingTimeout:   o.PingTimeout,
		WarnThreshold: o.WarnThreshold,
	}
}

func (o ConnectOptions) validate() error {
	if o.Addr == "" {
		return errors.New("Addr is required")
	}
	return o.policy().Validate()
}

// New creates a redis client and pings it until it answers or
// ConnectTimeout is reached. The client is closed on failure.
func New(opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if err := opts.validate(); err != nil {
		log.Error("invalid redis options", logger.Error(err))
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		ClientName:   opts.ClientName,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.RedisDB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := retry.Ping(context.Background(), "redis", opts.Addr, opts.policy(), ping, log); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
