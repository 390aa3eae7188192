// Package metrics exposes optimizer and HTTP metrics to Prometheus.
package metrics

import (
	"delivery-route-optimizer/internal/domain"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromRecorder records optimizer runs and HTTP requests.
// It satisfies services.Recorder.
type PromRecorder struct {
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	routeStops  *prometheus.HistogramVec
	lateStops   *prometheus.CounterVec
	requests    *prometheus.CounterVec
	reqDuration *prometheus.HistogramVec
}

// register adds c to reg, reusing an already registered collector of the same shape.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// NewPromRecorder registers metrics on reg. If reg is nil, the default
// registerer is used.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &PromRecorder{}
	var err error

	if r.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routeopt_optimizations_total",
		Help: "Total number of completed route optimizations",
	}, []string{"op", "strategy"})); err != nil {
		return nil, err
	}
	if r.runDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routeopt_optimization_duration_seconds",
		Help:    "Wall time of a route optimization",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"op", "strategy"})); err != nil {
		return nil, err
	}
	if r.routeStops, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routeopt_route_stops",
		Help:    "Number of stops per optimized route",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200},
	}, []string{"op"})); err != nil {
		return nil, err
	}
	if r.lateStops, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routeopt_late_stops_total",
		Help: "Stops predicted to arrive after their time window",
	}, []string{"op"})); err != nil {
		return nil, err
	}
	if r.requests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routeopt_http_requests_total",
		Help: "HTTP requests by route pattern and status",
	}, []string{"method", "route", "status"})); err != nil {
		return nil, err
	}
	if r.reqDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routeopt_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *PromRecorder) RecordOptimization(op string, result domain.OptimizationResult, stops int, elapsed time.Duration) {
	r.runs.WithLabelValues(op, result.Strategy).Inc()
	r.runDuration.WithLabelValues(op, result.Strategy).Observe(elapsed.Seconds())
	r.routeStops.WithLabelValues(op).Observe(float64(stops))
	r.lateStops.WithLabelValues(op).Add(float64(result.Metrics.LateStops))
}

// RecordRequest observes one HTTP request. route is the matched mux pattern,
// never the raw path, to keep label cardinality bounded.
func (r *PromRecorder) RecordRequest(method, route string, status int, elapsed time.Duration) {
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.reqDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the metrics of g. If g is nil, the default gatherer is used.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
