package cache

import (
	"context"
	"delivery-route-optimizer/internal/adapters/repositories"
	"delivery-route-optimizer/internal/platform/db"
	"delivery-route-optimizer/internal/ports"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *SQLStreetCache {
	t.Helper()

	conn, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, repositories.InitSchema(context.Background(), conn))

	return NewSQLStreetCache(conn, db.DriverSQLite)
}

func TestStreetCachePutGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	origin := "13.08270,80.27070"
	require.NoError(t, c.PutMany(ctx, origin, map[string]ports.DistanceResult{
		"13.04750,80.20890": {DistanceMeters: 8200, DurationSeconds: 900},
		"12.91720,80.19230": {DistanceMeters: 21000, DurationSeconds: 2100},
	}))

	got, err := c.GetMany(ctx, origin, []string{"13.04750,80.20890", " 13.04750,80.20890 ", "13.00670,80.25470", ""})
	require.NoError(t, err)
	assert.Equal(t, map[string]ports.DistanceResult{
		"13.04750,80.20890": {DistanceMeters: 8200, DurationSeconds: 900},
	}, got)
}

func TestStreetCacheOverwrites(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	origin := "a"
	require.NoError(t, c.PutMany(ctx, origin, map[string]ports.DistanceResult{"b": {DistanceMeters: 1, DurationSeconds: 1}}))
	require.NoError(t, c.PutMany(ctx, origin, map[string]ports.DistanceResult{"b": {DistanceMeters: 2, DurationSeconds: 3}}))

	got, err := c.GetMany(ctx, origin, []string{"b"})
	require.NoError(t, err)
	assert.Equal(t, ports.DistanceResult{DistanceMeters: 2, DurationSeconds: 3}, got["b"])
}

func TestStreetCacheValidation(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	_, err := c.GetMany(ctx, "", []string{"b"})
	assert.Error(t, err)
	assert.Error(t, c.PutMany(ctx, "", map[string]ports.DistanceResult{"b": {}}))
	assert.Error(t, c.PutMany(ctx, "a", map[string]ports.DistanceResult{" ": {}}))

	got, err := c.GetMany(ctx, "a", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
