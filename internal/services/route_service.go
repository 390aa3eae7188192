package services

import (
	"context"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/logger"
	"delivery-route-optimizer/internal/ports"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Upper bound on concurrent street-distance lookups per request.
const legLookupConcurrency = 5

// Load-modify-save attempts before a session write conflict is reported.
const sessionWriteAttempts = 3

var ErrLegDistancesUnsupported = errors.New("street router does not support leg distances")

// RouteServiceSettings are deployment-level inputs for route sessions.
type RouteServiceSettings struct {
	Depot    domain.Coordinates
	Defaults domain.OptimizationConfig
	Zones    TrafficZones
}

// RouteService manages driver route sessions on top of RouteOptimizer:
// planning from pending orders, progress, delay reports and street geometry.
type RouteService struct {
	optimizer *RouteOptimizer
	orders    ports.OrderRepository
	sessions  ports.SessionStore
	router    ports.StreetRouter
	fallback  ports.StreetRouter
	settings  RouteServiceSettings
	log       logger.Logger
	newID     func() string
	now       func() time.Time
}

// NewRouteService wires the session workflow. router may be nil, in which case
// street geometry always comes from fallback.
func NewRouteService(
	optimizer *RouteOptimizer,
	orders ports.OrderRepository,
	sessions ports.SessionStore,
	router ports.StreetRouter,
	fallback ports.StreetRouter,
	settings RouteServiceSettings,
	log logger.Logger,
) *RouteService {
	if log == nil {
		log = logger.NopLogger{}
	}
	if router == nil {
		router = fallback
	}
	return &RouteService{
		optimizer: optimizer,
		orders:    orders,
		sessions:  sessions,
		router:    router,
		fallback:  fallback,
		settings:  settings,
		log:       log,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// ConfigOverrides are per-request settings. Nil fields keep the service
// default; a set field wins even when zero, so a request can ask for an
// uncapped 2-opt or an always-on delay re-plan against non-zero defaults.
type ConfigOverrides struct {
	VehicleConsumptionRate *float64
	TimeOfDayFactor        *float64
	MaxTwoOptSweeps        *int
	DelayThresholdMinutes  *float64
}

type PlanRouteRequest struct {
	// Start defaults to the configured depot.
	Start       *domain.Coordinates
	Config      ConfigOverrides
	TrafficZone string
	Strategy    string
}

// ResolveConfig overlays the set fields of o on the service defaults and
// applies the traffic zone, if any.
func (s *RouteService) ResolveConfig(o ConfigOverrides, zone string) (domain.OptimizationConfig, error) {
	out := s.settings.Defaults
	if o.VehicleConsumptionRate != nil {
		out.VehicleConsumptionRate = *o.VehicleConsumptionRate
	}
	if o.TimeOfDayFactor != nil {
		out.TimeOfDayFactor = *o.TimeOfDayFactor
	}
	if o.MaxTwoOptSweeps != nil {
		out.MaxTwoOptSweeps = *o.MaxTwoOptSweeps
	}
	if o.DelayThresholdMinutes != nil {
		out.DelayThresholdMinutes = *o.DelayThresholdMinutes
	}
	return s.settings.Zones.Apply(out, zone)
}

// Optimizer returns the optimizer for a strategy name; empty keeps the default.
func (s *RouteService) Optimizer(strategy string) (*RouteOptimizer, error) {
	if strategy == "" || strategy == s.optimizer.Strategy() {
		return s.optimizer, nil
	}
	st, err := StrategyByName(strategy)
	if err != nil {
		return nil, err
	}
	return s.optimizer.Using(st), nil
}

// PlanRoute optimizes all routable orders into a new session, marks them in
// transit and persists the session.
func (s *RouteService) PlanRoute(ctx context.Context, req PlanRouteRequest) (*domain.RouteSession, error) {
	cfg, err := s.ResolveConfig(req.Config, req.TrafficZone)
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	opt, err := s.Optimizer(req.Strategy)
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	start := s.settings.Depot
	if req.Start != nil {
		start = *req.Start
	}

	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("plan route: list orders: %w", err)
	}

	routable := make([]*domain.Order, 0, len(orders))
	stops := make([]domain.Stop, 0, len(orders))
	for _, o := range orders {
		if !o.Routable() {
			continue
		}
		routable = append(routable, o)
		stops = append(stops, o.ToStop())
	}
	if len(stops) == 0 {
		return nil, fmt.Errorf("plan route: %w: no pending orders", ErrInvalidInput)
	}

	result, err := opt.Optimize(ctx, start, stops, cfg)
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	session := domain.NewRouteSession(s.newID(), start, result, s.now().UTC())
	session.Config = cfg
	session.Strategy = opt.Strategy()

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("plan route: save session: %w", err)
	}

	for _, o := range routable {
		o.Status = domain.OrderInTransit
	}
	if err := s.orders.SaveOrders(ctx, routable); err != nil {
		return nil, fmt.Errorf("plan route: mark orders in transit: %w", err)
	}

	s.log.Infow("route session planned", map[string]any{
		"session_id": session.SessionID,
		"stops":      len(session.Stops),
		"strategy":   result.Strategy,
		"total_cost": result.Metrics.TotalCost,
	})

	return session, nil
}

func (s *RouteService) Session(ctx context.Context, id string) (*domain.RouteSession, error) {
	session, err := s.sessions.LoadSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// updateSession applies mutate to a freshly loaded session and saves it. A
// concurrent write makes the save fail with ErrSessionConflict; the session is
// then reloaded and mutate runs again on the newer state.
func (s *RouteService) updateSession(
	ctx context.Context,
	id string,
	mutate func(*domain.RouteSession) error,
) (*domain.RouteSession, error) {
	for attempt := 1; ; attempt++ {
		session, err := s.sessions.LoadSession(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := mutate(session); err != nil {
			return nil, err
		}

		err = s.sessions.SaveSession(ctx, session)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, ports.ErrSessionConflict) || attempt >= sessionWriteAttempts {
			return nil, fmt.Errorf("save session: %w", err)
		}
		s.log.Debugf("session %s changed concurrently, retrying (attempt %d)", id, attempt)
	}
}

// AdvanceStop marks the current stop visited and its order delivered.
func (s *RouteService) AdvanceStop(ctx context.Context, id string) (*domain.RouteSession, domain.Stop, error) {
	now := s.now().UTC()

	var visited domain.Stop
	session, err := s.updateSession(ctx, id, func(session *domain.RouteSession) error {
		stop, err := session.Advance(now)
		visited = stop
		return err
	})
	if err != nil {
		return nil, domain.Stop{}, fmt.Errorf("advance stop: %w", err)
	}

	if err := s.orders.MarkDelivered(ctx, visited.ID, now); err != nil {
		if !errors.Is(err, ports.ErrOrderNotFound) {
			return nil, domain.Stop{}, fmt.Errorf("advance stop: %w", err)
		}
		s.log.Warnf("advance stop: session %s: stop %s has no order record", id, visited.ID)
	}

	return session, visited, nil
}

// ReportDelay re-plans the pending stops from currentLocation when the delay
// exceeds the session's threshold, keeping visited stops in place. The
// session's own strategy and config are used.
func (s *RouteService) ReportDelay(
	ctx context.Context,
	id string,
	currentLocation domain.Coordinates,
	delayMinutes float64,
) (*domain.RouteSession, DelayOutcome, error) {
	var outcome DelayOutcome
	session, err := s.updateSession(ctx, id, func(session *domain.RouteSession) error {
		if session.Finished() {
			return fmt.Errorf("session %s: %w", id, domain.ErrRouteFinished)
		}

		opt, err := s.Optimizer(session.Strategy)
		if err != nil {
			return err
		}

		outcome, err = opt.ReoptimizeAfterDelay(
			ctx, currentLocation, session.Stops, session.CurrentStopIndex, delayMinutes, session.Config,
		)
		if err != nil {
			return err
		}

		whole := EvaluateRoute(session.Start, outcome.Route, WithDefaults(session.Config))
		if err := session.ApplyRoute(outcome.Route, whole.Metrics, s.now().UTC()); err != nil {
			return err
		}
		pending := outcome.Pending.Metrics
		session.PendingMetrics = &pending
		session.DelayMinutes = delayMinutes
		return nil
	})
	if err != nil {
		return nil, DelayOutcome{}, fmt.Errorf("report delay: %w", err)
	}

	return session, outcome, nil
}

// CancelRoute deletes a session and returns its unvisited orders to Pending so
// the next plan picks them up again. Delivered orders are left alone.
func (s *RouteService) CancelRoute(ctx context.Context, id string) error {
	session, err := s.sessions.LoadSession(ctx, id)
	if err != nil {
		return fmt.Errorf("cancel route: %w", err)
	}

	pending := make(map[string]struct{}, len(session.Pending()))
	for _, st := range session.Pending() {
		pending[st.ID] = struct{}{}
	}

	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("cancel route: list orders: %w", err)
	}
	released := make([]*domain.Order, 0, len(pending))
	for _, o := range orders {
		if _, ok := pending[o.OrderID]; ok && o.Status == domain.OrderInTransit {
			o.Status = domain.OrderPending
			released = append(released, o)
		}
	}
	if len(released) > 0 {
		if err := s.orders.SaveOrders(ctx, released); err != nil {
			return fmt.Errorf("cancel route: release orders: %w", err)
		}
	}

	if err := s.sessions.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("cancel route: %w", err)
	}

	s.log.Infow("route session cancelled", map[string]any{
		"session_id": id,
		"released":   len(released),
	})
	return nil
}

// remainingWaypoints returns the current location followed by the pending stops.
func remainingWaypoints(session *domain.RouteSession) []domain.Coordinates {
	pending := session.Pending()
	out := make([]domain.Coordinates, 0, 1+len(pending))
	out = append(out, session.CurrentLocation())
	for _, st := range pending {
		out = append(out, st.Location)
	}
	return out
}

// StreetPath returns street geometry for the remaining legs. Router failures
// fall back to straight lines.
func (s *RouteService) StreetPath(ctx context.Context, id string) (ports.StreetRoute, error) {
	session, err := s.sessions.LoadSession(ctx, id)
	if err != nil {
		return ports.StreetRoute{}, fmt.Errorf("street path: %w", err)
	}

	waypoints := remainingWaypoints(session)

	route, err := s.router.Route(ctx, waypoints)
	if err == nil {
		return route, nil
	}
	if s.fallback == nil || ctx.Err() != nil {
		return ports.StreetRoute{}, fmt.Errorf("street path: %w", err)
	}

	s.log.Warnf("street path: session %s: router failed, using fallback: %v", id, err)
	route, err = s.fallback.Route(ctx, waypoints)
	if err != nil {
		return ports.StreetRoute{}, fmt.Errorf("street path: fallback: %w", err)
	}
	return route, nil
}

// LegSummary is the street distance of one remaining leg. From is empty for
// the leg starting at the vehicle's current location.
type LegSummary struct {
	From            string
	To              string
	DistanceMeters  int
	DurationSeconds int
}

type StreetSummary struct {
	Legs                 []LegSummary
	TotalDistanceKm      float64
	TotalDurationMinutes float64
}

func (s *RouteService) legProvider() (ports.LegDistanceProvider, error) {
	if lp, ok := s.router.(ports.LegDistanceProvider); ok {
		return lp, nil
	}
	if lp, ok := s.fallback.(ports.LegDistanceProvider); ok {
		return lp, nil
	}
	return nil, ErrLegDistancesUnsupported
}

// StreetSummary looks up street distances for each remaining leg concurrently.
func (s *RouteService) StreetSummary(ctx context.Context, id string) (StreetSummary, error) {
	session, err := s.sessions.LoadSession(ctx, id)
	if err != nil {
		return StreetSummary{}, fmt.Errorf("street summary: %w", err)
	}

	provider, err := s.legProvider()
	if err != nil {
		return StreetSummary{}, fmt.Errorf("street summary: %w", err)
	}

	pending := session.Pending()
	legs := make([]LegSummary, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(legLookupConcurrency)

	from := session.CurrentLocation()
	fromID := ""
	if session.CurrentStopIndex > 0 {
		fromID = session.Stops[session.CurrentStopIndex-1].ID
	}
	for i, stop := range pending {
		origin, originID := from, fromID
		g.Go(func() error {
			res, err := provider.LegDistances(gctx, origin, []domain.Coordinates{stop.Location})
			if err != nil {
				return fmt.Errorf("leg %d -> %s: %w", i, stop.ID, err)
			}
			// Coincident points are omitted by providers and count as zero.
			r := res[stop.Location.Key()]
			legs[i] = LegSummary{From: originID, To: stop.ID, DistanceMeters: r.DistanceMeters, DurationSeconds: r.DurationSeconds}
			return nil
		})
		from, fromID = stop.Location, stop.ID
	}

	if err := g.Wait(); err != nil {
		return StreetSummary{}, fmt.Errorf("street summary: %w", err)
	}

	out := StreetSummary{Legs: legs}
	var meters, seconds int
	for _, l := range legs {
		meters += l.DistanceMeters
		seconds += l.DurationSeconds
	}
	out.TotalDistanceKm = math.Round(float64(meters)/10) / 100
	out.TotalDurationMinutes = math.Round(float64(seconds) / 60)

	return out, nil
}
