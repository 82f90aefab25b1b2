package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
)

// ClientConfig holds redis connection settings
type ClientConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// NewClient connects to redis and checks the connection with a ping
func NewClient(ctx context.Context, cfg ClientConfig, logger coreport.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	logger.Info("Connected to Redis", map[string]any{
		"addr": cfg.Addr,
		"db":   cfg.DB,
	})
	return client, nil
}
