package streets

import (
	"context"
	"delivery-route-optimizer/internal/adapters/cache"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/logger"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const DefaultOSRMBaseURL = "https://router.project-osrm.org"

var ErrNoRoute = errors.New("osrm: no route found")

// OSRMRouter implements ports.LegDistanceProvider against an OSRM server.
//
// Route returns full street geometry with turn-by-turn steps. LegDistances
// reads the persistent street cache first and asks the table service only
// for misses. The router is safe for concurrent use.
type OSRMRouter struct {
	session   *http.Client
	baseURL   string
	profile   string
	userAgent string
	retry     RetryPolicy
	cache     *cache.SQLStreetCache
	log       logger.Logger
}

type OSRMOption func(*OSRMRouter)

func WithHTTPClient(c *http.Client) OSRMOption {
	return func(o *OSRMRouter) { o.session = c }
}

func WithProfile(profile string) OSRMOption {
	return func(o *OSRMRouter) { o.profile = profile }
}

func WithUserAgent(ua string) OSRMOption {
	return func(o *OSRMRouter) { o.userAgent = ua }
}

// WithRetryPolicy replaces DefaultRetryPolicy. Attempts below 1 mean a single try.
func WithRetryPolicy(p RetryPolicy) OSRMOption {
	return func(o *OSRMRouter) { o.retry = p }
}

func WithStreetCache(c *cache.SQLStreetCache) OSRMOption {
	return func(o *OSRMRouter) { o.cache = c }
}

func WithRouterLogger(l logger.Logger) OSRMOption {
	return func(o *OSRMRouter) { o.log = l }
}

func NewOSRMRouter(baseURL string, opts ...OSRMOption) (*OSRMRouter, error) {
	if baseURL == "" {
		baseURL = DefaultOSRMBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("osrm: base url %q must be http(s)", baseURL)
	}

	router := &OSRMRouter{
		session: &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: "driving",
		retry:   DefaultRetryPolicy(),
		log:     logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(router)
	}

	return router, nil
}

type osrmManeuver struct {
	Type     string    `json:"type"`
	Modifier string    `json:"modifier"`
	Location []float64 `json:"location"`
}

type osrmStep struct {
	Distance float64      `json:"distance"`
	Name     string       `json:"name"`
	Maneuver osrmManeuver `json:"maneuver"`
}

type osrmRouteResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Legs []struct {
			Steps []osrmStep `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

type osrmTableResponse struct {
	Code      string       `json:"code"`
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// coordPath renders waypoints as OSRM's "lng,lat;lng,lat" path segment.
func coordPath(points []domain.Coordinates) string {
	parts := make([]string, 0, len(points))
	for _, p := range points {
		parts = append(parts,
			strconv.FormatFloat(p.Lng, 'f', 6, 64)+","+strconv.FormatFloat(p.Lat, 'f', 6, 64))
	}
	return strings.Join(parts, ";")
}

func fromLngLat(c []float64) (domain.Coordinates, bool) {
	if len(c) < 2 {
		return domain.Coordinates{}, false
	}
	return domain.Coordinates{Lat: c[1], Lng: c[0]}, true
}

func stepInstruction(s osrmStep) string {
	parts := []string{s.Maneuver.Type}
	if s.Maneuver.Modifier != "" {
		parts = append(parts, s.Maneuver.Modifier)
	}
	if s.Name != "" {
		parts = append(parts, "onto "+s.Name)
	}
	return strings.Join(parts, " ")
}

// Route fetches the street path visiting waypoints in order.
// Fewer than two waypoints return the waypoints as a trivial path.
func (o *OSRMRouter) Route(ctx context.Context, waypoints []domain.Coordinates) (_ ports.StreetRoute, err error) {
	defer obs.Time(ctx, "osrm.Route")(&err)

	if len(waypoints) < 2 {
		return ports.StreetRoute{Path: append([]domain.Coordinates(nil), waypoints...)}, nil
	}
	for i, w := range waypoints {
		if !w.Valid() {
			return ports.StreetRoute{}, fmt.Errorf("osrm route: waypoint %d is not finite", i)
		}
	}

	endpoint := fmt.Sprintf("%s/route/v1/%s/%s?overview=full&geometries=geojson&steps=true",
		o.baseURL, o.profile, coordPath(waypoints))

	var rr osrmRouteResponse
	if err := o.getJSON(ctx, endpoint, &rr); err != nil {
		return ports.StreetRoute{}, fmt.Errorf("osrm route request failed: %w", err)
	}

	if rr.Code != "Ok" || len(rr.Routes) == 0 {
		return ports.StreetRoute{}, fmt.Errorf("osrm route code %q: %w", rr.Code, ErrNoRoute)
	}

	best := rr.Routes[0]
	out := ports.StreetRoute{
		Path:            make([]domain.Coordinates, 0, len(best.Geometry.Coordinates)),
		DistanceKm:      math.Round(best.Distance/10) / 100,
		DurationMinutes: math.Round(best.Duration / 60),
	}
	for _, c := range best.Geometry.Coordinates {
		if p, ok := fromLngLat(c); ok {
			out.Path = append(out.Path, p)
		}
	}
	for _, leg := range best.Legs {
		for _, s := range leg.Steps {
			if s.Maneuver.Type == "arrive" {
				continue
			}
			loc, _ := fromLngLat(s.Maneuver.Location)
			out.Steps = append(out.Steps, ports.StreetStep{
				Instruction:    stepInstruction(s),
				DistanceMeters: s.Distance,
				Location:       loc,
			})
		}
	}

	return out, nil
}

// LegDistances returns street distances from origin to each destination, keyed
// by destination Key(). Destinations equal to the origin are skipped.
func (o *OSRMRouter) LegDistances(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "osrm.LegDistances")(&err)

	if !origin.Valid() {
		return nil, errors.New("osrm legs: origin is not finite")
	}

	originKey := origin.Key()
	seen := make(map[string]struct{}, len(destinations))
	keys := make([]string, 0, len(destinations))
	coords := make(map[string]domain.Coordinates, len(destinations))
	for i, d := range destinations {
		if !d.Valid() {
			return nil, fmt.Errorf("osrm legs: destination %d is not finite", i)
		}
		k := d.Key()
		if k == originKey {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
		coords[k] = d
	}

	if len(keys) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	hits := make(map[string]ports.DistanceResult)
	// Check the persistent cache before issuing external calls.
	if o.cache != nil {
		var err error
		hits, err = o.cache.GetMany(ctx, originKey, keys)
		if err != nil {
			return nil, fmt.Errorf("osrm get street cache: %w", err)
		}
	}

	misses := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := hits[k]; !ok {
			misses = append(misses, k)
		}
	}

	if len(misses) == 0 {
		return hits, nil
	}

	missCoords := make([]domain.Coordinates, 0, len(misses))
	for _, k := range misses {
		missCoords = append(missCoords, coords[k])
	}

	fetched, err := o.fetchTableRow(ctx, origin, misses, missCoords)
	if err != nil {
		return nil, fmt.Errorf("fetching table row: %w", err)
	}

	if o.cache != nil {
		if err := o.cache.PutMany(ctx, originKey, fetched); err != nil {
			o.log.Warnf("street cache write failed: %v", err)
		}
	}

	out := make(map[string]ports.DistanceResult, len(hits)+len(fetched))
	for k, v := range hits {
		out[k] = v
	}
	for k, v := range fetched {
		out[k] = v
	}

	return out, nil
}

// fetchTableRow retrieves distance and duration from one origin to many
// destinations using the OSRM table service.
func (o *OSRMRouter) fetchTableRow(
	ctx context.Context,
	origin domain.Coordinates,
	keys []string,
	destinations []domain.Coordinates,
) (map[string]ports.DistanceResult, error) {
	if len(keys) != len(destinations) {
		return nil, errors.New("keys and destinations are expected to have the same length")
	}

	points := make([]domain.Coordinates, 0, 1+len(destinations))
	points = append(points, origin)
	points = append(points, destinations...)

	endpoint := fmt.Sprintf("%s/table/v1/%s/%s?sources=0&annotations=distance,duration",
		o.baseURL, o.profile, coordPath(points))

	var tr osrmTableResponse
	if err := o.getJSON(ctx, endpoint, &tr); err != nil {
		return nil, fmt.Errorf("table request failed: %w", err)
	}

	if tr.Code != "Ok" {
		return nil, fmt.Errorf("osrm table code %q: %w", tr.Code, ErrNoRoute)
	}
	if len(tr.Distances) != 1 || len(tr.Durations) != 1 {
		return nil, fmt.Errorf(
			"expected 1 source row; got distances=%d durations=%d",
			len(tr.Distances), len(tr.Durations),
		)
	}

	// The table row includes the origin itself at index 0.
	rowDistances := tr.Distances[0]
	rowDurations := tr.Durations[0]
	if len(rowDistances) != len(points) || len(rowDurations) != len(points) {
		return nil, fmt.Errorf(
			"row lengths do not match destinations: distances=%d durations=%d points=%d",
			len(rowDistances), len(rowDurations), len(points),
		)
	}

	out := make(map[string]ports.DistanceResult, len(keys))
	for i, k := range keys {
		metersPtr := rowDistances[i+1]
		secondsPtr := rowDurations[i+1]
		if metersPtr == nil || secondsPtr == nil {
			return nil, fmt.Errorf("table returned no route to %q: %w", k, ErrNoRoute)
		}

		out[k] = ports.DistanceResult{
			DistanceMeters:  int(math.Round(*metersPtr)),
			DurationSeconds: int(math.Round(*secondsPtr)),
		}
	}

	return out, nil
}
