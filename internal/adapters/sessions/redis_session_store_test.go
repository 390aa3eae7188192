package sessions

import (
	"context"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/ports"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisSessionStore(client, ttl), mr
}

func testSession() *domain.RouteSession {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return domain.NewRouteSession("sess-42", domain.Coordinates{Lat: 13.08, Lng: 80.27}, domain.OptimizationResult{
		Route: []domain.Stop{
			{ID: "A", Location: domain.Coordinates{Lat: 13.05, Lng: 80.21}, TrafficFactor: 1.2, TimeWindowEnd: 30},
			{ID: "B", Location: domain.Coordinates{Lat: 12.92, Lng: 80.19}, TrafficFactor: 1.8, TimeWindowEnd: 60},
		},
		Metrics: domain.Metrics{TotalDistance: 25.1},
	}, now)
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, 0)

	session := testSession()
	session.CurrentStopIndex = 1
	session.DelayMinutes = 15
	require.NoError(t, store.SaveSession(ctx, session))
	assert.True(t, mr.Exists("routeopt:session:sess-42"))

	got, err := store.LoadSession(ctx, "sess-42")
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStopIndex)
	assert.Equal(t, 15.0, got.DelayMinutes)
	assert.Equal(t, []string{"A", "B"}, domain.StopIDs(got.Stops))

	require.NoError(t, store.DeleteSession(ctx, "sess-42"))
	_, err = store.LoadSession(ctx, "sess-42")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestRedisSessionStoreRejectsStaleWrites(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)

	session := testSession()
	require.NoError(t, store.SaveSession(ctx, session))
	assert.Equal(t, int64(1), session.Version)
	assert.ErrorIs(t, store.SaveSession(ctx, testSession()), ports.ErrSessionConflict, "id already taken")

	first, err := store.LoadSession(ctx, "sess-42")
	require.NoError(t, err)
	second, err := store.LoadSession(ctx, "sess-42")
	require.NoError(t, err)

	first.CurrentStopIndex = 1
	require.NoError(t, store.SaveSession(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.DelayMinutes = 15
	assert.ErrorIs(t, store.SaveSession(ctx, second), ports.ErrSessionConflict)

	got, err := store.LoadSession(ctx, "sess-42")
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStopIndex)
	assert.Zero(t, got.DelayMinutes)
	assert.Equal(t, int64(2), got.Version)
}

func TestRedisSessionStoreTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, time.Hour)

	require.NoError(t, store.SaveSession(ctx, testSession()))
	assert.Equal(t, time.Hour, mr.TTL("routeopt:session:sess-42"))

	mr.FastForward(2 * time.Hour)
	_, err := store.LoadSession(ctx, "sess-42")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestRedisSessionStoreCorruptPayload(t *testing.T) {
	store, mr := newTestStore(t, 0)
	require.NoError(t, mr.Set("routeopt:session:bad", "{not json"))

	_, err := store.LoadSession(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestRedisSessionStoreUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisSessionStore(client, 0)

	assert.Error(t, store.SaveSession(context.Background(), testSession()))
}
