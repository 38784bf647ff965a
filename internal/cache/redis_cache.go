package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ithalat-ops/backoffice-api/internal/domain"
	redis "github.com/redis/go-redis/v9"
)

const figuresKeyPrefix = "netsis:figures:"

type RedisFiguresCache struct {
	client *redis.Client
}

func NewRedisFiguresCache(addr string, password string, db int) *RedisFiguresCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisFiguresCache{client: client}
}

func (c *RedisFiguresCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisFiguresCache) Close() error {
	return c.client.Close()
}

func (c *RedisFiguresCache) Get(ctx context.Context, stockCode string) (*domain.StockFiguresDTO, bool, error) {
	val, err := c.client.Get(ctx, figuresKeyPrefix+stockCode).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var figures domain.StockFiguresDTO
	if err := json.Unmarshal([]byte(val), &figures); err != nil {
		return nil, false, err
	}
	return &figures, true, nil
}

func (c *RedisFiguresCache) Set(ctx context.Context, value *domain.StockFiguresDTO, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, figuresKeyPrefix+value.StockCode, payload, ttl).Err()
}
