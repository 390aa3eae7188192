package services

import (
	"context"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/ports"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memOrders struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

func newMemOrders(orders ...domain.Order) *memOrders {
	m := &memOrders{orders: map[string]domain.Order{}}
	for _, o := range orders {
		m.orders[o.OrderID] = o
	}
	return m
}

func (m *memOrders) ListOrders(context.Context) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		cp := o
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *domain.Order) int {
		if a.OrderID < b.OrderID {
			return -1
		}
		if a.OrderID > b.OrderID {
			return 1
		}
		return 0
	})
	return out, nil
}

func (m *memOrders) SaveOrders(_ context.Context, orders []*domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range orders {
		m.orders[o.OrderID] = *o
	}
	return nil
}

func (m *memOrders) MarkDelivered(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return ports.ErrOrderNotFound
	}
	o.Status = domain.OrderDelivered
	o.DeliveredAt = &at
	m.orders[id] = o
	return nil
}

func (m *memOrders) status(id string) domain.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id].Status
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]domain.RouteSession
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]domain.RouteSession{}}
}

func (m *memSessions) SaveSession(_ context.Context, s *domain.RouteSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessions[s.SessionID].Version != s.Version {
		return ports.ErrSessionConflict
	}
	cp := *s
	cp.Stops = slices.Clone(s.Stops)
	cp.Version++
	m.sessions[s.SessionID] = cp
	s.Version = cp.Version
	return nil
}

func (m *memSessions) LoadSession(_ context.Context, id string) (*domain.RouteSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ports.ErrSessionNotFound
	}
	s.Stops = slices.Clone(s.Stops)
	return &s, nil
}

func (m *memSessions) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// interleavedSessions runs hook once, just before the first save reaches the
// store, to simulate another request landing mid-update.
type interleavedSessions struct {
	*memSessions
	hook func()
}

func (s *interleavedSessions) SaveSession(ctx context.Context, session *domain.RouteSession) error {
	if h := s.hook; h != nil {
		s.hook = nil
		h()
	}
	return s.memSessions.SaveSession(ctx, session)
}

// conflictingSessions fails every save as if another writer always wins.
type conflictingSessions struct {
	*memSessions
	saves int
}

func (s *conflictingSessions) SaveSession(context.Context, *domain.RouteSession) error {
	s.saves++
	return ports.ErrSessionConflict
}

func ptr[T any](v T) *T { return &v }

// stubRouter returns a fixed route or error; lineRouter computes straight lines.
type stubRouter struct {
	route ports.StreetRoute
	err   error
	calls atomic.Int32
}

func (r *stubRouter) Route(context.Context, []domain.Coordinates) (ports.StreetRoute, error) {
	r.calls.Add(1)
	return r.route, r.err
}

type lineRouter struct{ legCalls atomic.Int32 }

func (r *lineRouter) Route(_ context.Context, w []domain.Coordinates) (ports.StreetRoute, error) {
	return ports.StreetRoute{Path: slices.Clone(w)}, nil
}

func (r *lineRouter) LegDistances(_ context.Context, origin domain.Coordinates, dests []domain.Coordinates) (map[string]ports.DistanceResult, error) {
	r.legCalls.Add(1)
	out := map[string]ports.DistanceResult{}
	for _, d := range dests {
		km := Distance(origin, d)
		out[d.Key()] = ports.DistanceResult{DistanceMeters: int(math.Round(km * 1000)), DurationSeconds: int(math.Round(km * 60))}
	}
	return out, nil
}

func chennaiOrders() []domain.Order {
	stops := chennaiStops()
	orders := make([]domain.Order, 0, len(stops))
	for i, st := range stops {
		orders = append(orders, domain.Order{
			OrderID:       st.ID,
			Customer:      fmt.Sprintf("Customer %d", i+1),
			Status:        domain.OrderPending,
			Location:      st.Location,
			TrafficFactor: st.TrafficFactor,
			TimeWindowEnd: st.TimeWindowEnd,
		})
	}
	orders[5].Status = domain.OrderDelivered
	return orders
}

type serviceFixture struct {
	svc      *RouteService
	orders   *memOrders
	sessions *memSessions
	router   *stubRouter
	fallback *lineRouter
}

func newServiceFixture(t *testing.T, settings RouteServiceSettings) serviceFixture {
	t.Helper()

	f := serviceFixture{
		orders:   newMemOrders(chennaiOrders()...),
		sessions: newMemSessions(),
		router:   &stubRouter{},
		fallback: &lineRouter{},
	}
	f.svc = NewRouteService(NewRouteOptimizer(), f.orders, f.sessions, f.router, f.fallback, settings, nil)

	n := 0
	f.svc.newID = func() string { n++; return fmt.Sprintf("sess-%d", n) }
	f.svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return f
}

func defaultSettings() RouteServiceSettings {
	return RouteServiceSettings{
		Depot:    chennaiHub,
		Defaults: rushHour,
		Zones:    TrafficZones{"downtown": 0.8, "suburbs": 0.2},
	}
}

func TestPlanRouteFromPendingOrders(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, defaultSettings())

	session, err := f.svc.PlanRoute(ctx, PlanRouteRequest{})
	require.NoError(t, err)

	assert.Equal(t, "sess-1", session.SessionID)
	assert.Equal(t, chennaiHub, session.Start)
	assert.Equal(t, []string{"Stop_1", "Stop_2", "Stop_3", "Stop_4", "Stop_5"}, sortedIDs(session.Stops),
		"delivered orders are not routed")
	assert.Equal(t, rushHour.TimeOfDayFactor, session.Config.TimeOfDayFactor)

	want, err := NewRouteOptimizer().Optimize(ctx, chennaiHub, chennaiStops()[:5], rushHour)
	require.NoError(t, err)
	assert.Equal(t, want.Metrics, session.Metrics)

	stored, err := f.svc.Session(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StopIDs(session.Stops), domain.StopIDs(stored.Stops))

	assert.Equal(t, domain.OrderInTransit, f.orders.status("Stop_1"))
	assert.Equal(t, domain.OrderDelivered, f.orders.status("Stop_6"))
}

func TestPlanRouteAppliesZoneAndStrategy(t *testing.T) {
	f := newServiceFixture(t, defaultSettings())
	start := domain.Coordinates{Lat: 13.0, Lng: 80.2}

	session, err := f.svc.PlanRoute(context.Background(), PlanRouteRequest{
		Start:       &start,
		TrafficZone: "downtown",
		Strategy:    StrategyNearestNeighbor,
	})
	require.NoError(t, err)

	assert.Equal(t, start, session.Start)
	assert.InDelta(t, 1.4, session.Config.TimeOfDayFactor, 1e-9)
	assert.Equal(t, 0.12, session.Config.VehicleConsumptionRate)
}

func TestPlanRouteRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		req  PlanRouteRequest
	}{
		{"unknown zone", PlanRouteRequest{TrafficZone: "harbour"}},
		{"negative rate", PlanRouteRequest{Config: ConfigOverrides{VehicleConsumptionRate: ptr(-1.0)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t, defaultSettings())
			_, err := f.svc.PlanRoute(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	f := newServiceFixture(t, defaultSettings())
	_, err := f.svc.PlanRoute(context.Background(), PlanRouteRequest{Strategy: "genetic"})
	assert.Error(t, err)
}

func TestPlanRouteWithoutPendingOrders(t *testing.T) {
	f := newServiceFixture(t, defaultSettings())
	f.orders = newMemOrders()
	f.svc.orders = f.orders

	_, err := f.svc.PlanRoute(context.Background(), PlanRouteRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdvanceStopDeliversOrders(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, defaultSettings())

	session, err := f.svc.PlanRoute(ctx, PlanRouteRequest{})
	require.NoError(t, err)
	first := session.Stops[0].ID

	updated, stop, err := f.svc.AdvanceStop(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, first, stop.ID)
	assert.Equal(t, 1, updated.CurrentStopIndex)
	assert.Equal(t, domain.OrderDelivered, f.orders.status(first))

	for range len(session.Stops) - 1 {
		_, _, err = f.svc.AdvanceStop(ctx, session.SessionID)
		require.NoError(t, err)
	}

	_, _, err = f.svc.AdvanceStop(ctx, session.SessionID)
	assert.ErrorIs(t, err, domain.ErrRouteFinished)

	_, _, err = f.svc.AdvanceStop(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestReportDelayKeepsVisitedStops(t *testing.T) {
	ctx := context.Background()
	settings := defaultSettings()
	settings.Defaults.DelayThresholdMinutes = 10
	f := newServiceFixture(t, settings)

	session, err := f.svc.PlanRoute(ctx, PlanRouteRequest{})
	require.NoError(t, err)
	_, _, err = f.svc.AdvanceStop(ctx, session.SessionID)
	require.NoError(t, err)
	_, _, err = f.svc.AdvanceStop(ctx, session.SessionID)
	require.NoError(t, err)

	visited := domain.StopIDs(session.Stops[:2])
	loc := session.Stops[1].Location

	t.Run("below threshold keeps order", func(t *testing.T) {
		updated, outcome, err := f.svc.ReportDelay(ctx, session.SessionID, loc, 5)
		require.NoError(t, err)
		assert.False(t, outcome.Recalculated)
		assert.Equal(t, domain.StopIDs(session.Stops), domain.StopIDs(updated.Stops))
		assert.Equal(t, 5.0, updated.DelayMinutes)
	})

	t.Run("above threshold re-plans pending", func(t *testing.T) {
		updated, outcome, err := f.svc.ReportDelay(ctx, session.SessionID, loc, 25)
		require.NoError(t, err)
		assert.True(t, outcome.Recalculated)
		assert.Equal(t, visited, domain.StopIDs(updated.Stops[:2]))
		assert.Equal(t, sortedIDs(session.Stops), sortedIDs(updated.Stops))
		require.NotNil(t, updated.PendingMetrics)
		assert.Equal(t, outcome.Pending.Metrics, *updated.PendingMetrics)
		assert.InDelta(t, outcome.Pending.Metrics.TotalTime+25, outcome.EstimatedMinutes, 0.01)

		whole := EvaluateRoute(chennaiHub, updated.Stops, settings.Defaults)
		assert.Equal(t, whole.Metrics, updated.Metrics, "session metrics still cover the whole route")
	})

	t.Run("negative delay", func(t *testing.T) {
		_, _, err := f.svc.ReportDelay(ctx, session.SessionID, loc, -1)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestStreetPathFallsBack(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, defaultSettings())
	session, err := f.svc.PlanRoute(ctx, PlanRouteRequest{})
	require.NoError(t, err)

	f.router.route = ports.StreetRoute{DistanceKm: 42}
	got, err := f.svc.StreetPath(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 42.0, got.DistanceKm)

	f.router.err = errors.New("osrm down")
	got, err = f.svc.StreetPath(ctx, session.SessionID)
	require.NoError(t, err)
	require.Len(t, got.Path, len(session.Stops)+1)
	assert.Equal(t, chennaiHub, got.Path[0])
	assert.Equal(t, int32(2), f.router.calls.Load())
}

func TestStreetSummaryRemainingLegs(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, defaultSettings())
	session, err := f.svc.PlanRoute(ctx, PlanRouteRequest{})
	require.NoError(t, err)
	_, _, err = f.svc.AdvanceStop(ctx, session.SessionID)
	require.NoError(t, err)

	summary, err := f.svc.StreetSummary(ctx, session.SessionID)
	require.NoError(t, err)

	require.Len(t, summary.Legs, len(session.Stops)-1)
	assert.Equal(t, session.Stops[0].ID, summary.Legs[0].From)
	assert.Equal(t, session.Stops[1].ID, summary.Legs[0].To)
	assert.Equal(t, int32(len(session.Stops)-1), f.fallback.legCalls.Load())

	var meters int
	for i, leg := range summary.Legs {
		assert.Equal(t, session.Stops[i+1].ID, leg.To)
		assert.Positive(t, leg.DistanceMeters)
		meters += leg.DistanceMeters
	}
	assert.InDelta(t, float64(meters)/1000, summary.TotalDistanceKm, 0.01)
}

func TestStreetSummaryUnsupported(t *testing.T) {
	f := newServiceFixture(t, defaultSettings())
	f.svc = NewRouteService(NewRouteOptimizer(), f.orders, f.sessions, f.router, nil, defaultSettings(), nil)

	session, err := f.svc.PlanRoute(context.Background(), PlanRouteRequest{})
	require.NoError(t, err)

	_, err = f.svc.StreetSummary(context.Background(), session.SessionID)
	assert.ErrorIs(t, err, ErrLegDistancesUnsupported)
}

func TestResolveConfigHonoursExplicitZero(t *testing.T) {
	settings := defaultSettings()
	settings.Defaults.MaxTwoOptSweeps = 4
	settings.Defaults.DelayThresholdMinutes = 10
	f := newServiceFixture(t, settings)

	cfg, err := f.svc.ResolveConfig(ConfigOverrides{}, "")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxTwoOptSweeps)
	assert.Equal(t, 10.0, cfg.DelayThresholdMinutes)

	cfg, err = f.svc.ResolveConfig(ConfigOverrides{MaxTwoOptSweeps: ptr(0), DelayThresholdMinutes: ptr(0.0)}, "")
	require.NoError(t, err)
	assert.Zero(t, cfg.MaxTwoOptSweeps)
	assert.Zero(t, cfg.DelayThresholdMinutes)
	assert.Equal(t, rushHour.VehicleConsumptionRate, cfg.VehicleConsumptionRate)

	cfg, err = f.svc.ResolveConfig(ConfigOverrides{TimeOfDayFactor: ptr(2.0)}, "")
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.TimeOfDayFactor)
}

func TestReportDelayUsesSessionStrategy(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, defaultSettings())

	session, err := f.svc.PlanRoute(ctx, PlanRouteRequest{Strategy: StrategyNearestNeighbor})
	require.NoError(t, err)
	assert.Equal(t, StrategyNearestNeighbor, session.Strategy)

	_, outcome, err := f.svc.ReportDelay(ctx, session.SessionID, chennaiHub, 30)
	require.NoError(t, err)
	assert.True(t, outcome.Recalculated)
	assert.Equal(t, StrategyNearestNeighbor, outcome.Pending.Strategy)
}

func TestReportDelayRetriesAfterConcurrentAdvance(t *testing.T) {
	ctx := context.Background()
	settings := defaultSettings()
	settings.Defaults.DelayThresholdMinutes = 10
	f := newServiceFixture(t, settings)

	session, err := f.svc.PlanRoute(ctx, PlanRouteRequest{})
	require.NoError(t, err)

	var visited domain.Stop
	f.svc.sessions = &interleavedSessions{memSessions: f.sessions, hook: func() {
		_, visited, err = f.svc.AdvanceStop(ctx, session.SessionID)
		require.NoError(t, err)
	}}

	updated, outcome, err := f.svc.ReportDelay(ctx, session.SessionID, chennaiHub, 25)
	require.NoError(t, err)
	require.Equal(t, session.Stops[0].ID, visited.ID)

	assert.Equal(t, 1, updated.CurrentStopIndex)
	assert.Equal(t, visited.ID, updated.Stops[0].ID)
	assert.Len(t, outcome.Pending.Route, len(session.Stops)-1)
	assert.NotContains(t, domain.StopIDs(outcome.Pending.Route), visited.ID)

	stored, err := f.sessions.LoadSession(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentStopIndex)
	assert.Equal(t, visited.ID, stored.Stops[0].ID)
	assert.Equal(t, 25.0, stored.DelayMinutes)
	assert.Equal(t, domain.OrderDelivered, f.orders.status(visited.ID))
}

func TestAdvanceStopGivesUpOnPersistentConflict(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, defaultSettings())
	session, err := f.svc.PlanRoute(ctx, PlanRouteRequest{})
	require.NoError(t, err)

	store := &conflictingSessions{memSessions: f.sessions}
	f.svc.sessions = store

	_, _, err = f.svc.AdvanceStop(ctx, session.SessionID)
	assert.ErrorIs(t, err, ports.ErrSessionConflict)
	assert.Equal(t, sessionWriteAttempts, store.saves)
	assert.Equal(t, domain.OrderInTransit, f.orders.status(session.Stops[0].ID), "nothing delivered without a saved advance")
}

func TestCancelRouteReleasesPendingOrders(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, defaultSettings())

	session, err := f.svc.PlanRoute(ctx, PlanRouteRequest{})
	require.NoError(t, err)
	_, visited, err := f.svc.AdvanceStop(ctx, session.SessionID)
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelRoute(ctx, session.SessionID))

	_, err = f.svc.Session(ctx, session.SessionID)
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	assert.Equal(t, domain.OrderDelivered, f.orders.status(visited.ID))
	for _, st := range session.Stops[1:] {
		assert.Equal(t, domain.OrderPending, f.orders.status(st.ID), st.ID)
	}
	assert.Equal(t, domain.OrderDelivered, f.orders.status("Stop_6"))

	err = f.svc.CancelRoute(ctx, session.SessionID)
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}
