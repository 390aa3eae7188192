package handlers

import (
	"delivery-route-optimizer/internal/api/dto"
	"delivery-route-optimizer/internal/services"
	"net/http"
)

// OptimizeHandler exposes stateless route optimization.
type OptimizeHandler struct {
	Service *services.RouteService
}

func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	h.optimize(w, r, false)
}

// Remaining re-plans the unvisited stops from the vehicle's current location.
func (h *OptimizeHandler) Remaining(w http.ResponseWriter, r *http.Request) {
	h.optimize(w, r, true)
}

func (h *OptimizeHandler) optimize(w http.ResponseWriter, r *http.Request, remaining bool) {
	var req dto.OptimizeRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Start == nil {
		writeError(w, r, http.StatusBadRequest, "start is required")
		return
	}

	cfg, err := h.Service.ResolveConfig(toOverrides(req.Config), req.TrafficZone)
	if err != nil {
		writeServiceError(w, r, "optimize", err)
		return
	}
	opt, err := h.Service.Optimizer(req.Strategy)
	if err != nil {
		writeServiceError(w, r, "optimize", err)
		return
	}

	start := toCoordinates(*req.Start)
	stops := toStops(req.Stops)

	run := opt.Optimize
	if remaining {
		run = opt.ReoptimizeRemaining
	}
	res, err := run(r.Context(), start, stops, cfg)
	if err != nil {
		writeServiceError(w, r, "optimize", err)
		return
	}

	writeJSON(w, r, http.StatusOK, fromResult(res))
}

// History re-plans the suffix after current_stop_index, keeping the visited prefix.
func (h *OptimizeHandler) History(w http.ResponseWriter, r *http.Request) {
	var req dto.HistoryRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.CurrentLocation == nil {
		writeError(w, r, http.StatusBadRequest, "current_location is required")
		return
	}

	cfg, err := h.Service.ResolveConfig(toOverrides(req.Config), req.TrafficZone)
	if err != nil {
		writeServiceError(w, r, "optimize history", err)
		return
	}
	opt, err := h.Service.Optimizer(req.Strategy)
	if err != nil {
		writeServiceError(w, r, "optimize history", err)
		return
	}

	route, err := opt.ReoptimizeWithHistory(
		r.Context(), toCoordinates(*req.CurrentLocation), toStops(req.Route), req.CurrentStopIndex, cfg,
	)
	if err != nil {
		writeServiceError(w, r, "optimize history", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RouteResponse{Route: fromStops(route)})
}
