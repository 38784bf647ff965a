package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/ithalat-ops/backoffice-api/internal/cache"
	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopFiguresCache(t *testing.T) {
	var c cache.FiguresCache = cache.NoopFiguresCache{}
	require.NoError(t, c.Set(context.Background(), &domain.StockFiguresDTO{StockCode: "A"}, time.Minute))

	got, ok, err := c.Get(context.Background(), "A")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestMemoryFiguresCache(t *testing.T) {
	c := cache.NewMemoryFiguresCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &domain.StockFiguresDTO{StockCode: "A", Stock: decimal.NewFromInt(4)}, time.Minute))
	require.NoError(t, c.Set(ctx, nil, time.Minute))

	got, ok, err := c.Get(ctx, "A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(4).Equal(got.Stock))
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Set(ctx, &domain.StockFiguresDTO{StockCode: "B"}, -time.Second))
	_, ok, err = c.Get(ctx, "B")
	require.NoError(t, err)
	assert.False(t, ok, "expired entries are misses")
}
