package api

import (
	"delivery-route-optimizer/internal/api/handlers"
	"delivery-route-optimizer/internal/platform/logger"
	"delivery-route-optimizer/internal/ports"
	"delivery-route-optimizer/internal/services"
	"net/http"
)

// Dependencies of the HTTP API. DB, Metrics and Recorder are optional.
type Deps struct {
	DB       handlers.Pinger
	Orders   ports.OrderRepository
	Routes   *services.RouteService
	Metrics  http.Handler
	Recorder RequestRecorder
	Log      logger.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	orderHandler := &handlers.OrderHandler{Repo: d.Orders}
	optimizeHandler := &handlers.OptimizeHandler{Service: d.Routes}
	routeHandler := &handlers.RouteHandler{Service: d.Routes}
	healthHandler := &handlers.HealthHandler{DB: d.DB}

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("POST /optimize", optimizeHandler.Optimize)
	mux.HandleFunc("POST /optimize/remaining", optimizeHandler.Remaining)
	mux.HandleFunc("POST /optimize/history", optimizeHandler.History)
	mux.HandleFunc("GET /orders", orderHandler.List)
	mux.HandleFunc("POST /routes", routeHandler.Plan)
	mux.HandleFunc("GET /routes/{id}", routeHandler.Get)
	mux.HandleFunc("DELETE /routes/{id}", routeHandler.Cancel)
	mux.HandleFunc("POST /routes/{id}/advance", routeHandler.Advance)
	mux.HandleFunc("POST /routes/{id}/delay", routeHandler.Delay)
	mux.HandleFunc("GET /routes/{id}/path", routeHandler.Path)
	mux.HandleFunc("GET /routes/{id}/summary", routeHandler.Summary)
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}

	log := d.Log
	if log == nil {
		log = logger.NopLogger{}
	}

	return requestIDMiddleware(loggingMiddleware(log, d.Recorder, mux))
}
