package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client wraps the go-redis client with connection diagnostics.
type Client struct {
	*redis.Client
	log *zap.Logger
}

// NewClient dials lazily; call Ping to surface connectivity at boot.
func NewClient(log *zap.Logger, addr string, db int) *Client {
	opts := &redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	}

	c := &Client{
		Client: redis.NewClient(opts),
		log:    log.Named("redis"),
	}
	c.log.Info("client initialized", zap.String("addr", addr), zap.Int("db", db))
	return c
}

// Ping checks the connection within 500ms and logs the round trip.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	opts := c.Options()
	log := c.log.With(zap.String("addr", opts.Addr), zap.Int("db", opts.DB))

	start := time.Now()
	err := c.Client.Ping(ctx).Err()
	rtt := time.Since(start)

	if err != nil {
		log.Warn("connection failed", zap.Error(err), zap.Duration("ping_rtt", rtt))
		return err
	}
	log.Info("connection established", zap.Duration("ping_rtt", rtt))
	return nil
}
