package handlers

import (
	"delivery-route-optimizer/internal/api/dto"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/services"
	"net/http"
)

// RouteHandler manages driver route sessions.
type RouteHandler struct {
	Service *services.RouteService
}

// Plan builds a new session from all pending orders.
func (h *RouteHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanRouteRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	var start *domain.Coordinates
	if req.Start != nil {
		c := toCoordinates(*req.Start)
		start = &c
	}

	session, err := h.Service.PlanRoute(r.Context(), services.PlanRouteRequest{
		Start:       start,
		Config:      toOverrides(req.Config),
		TrafficZone: req.TrafficZone,
		Strategy:    req.Strategy,
	})
	if err != nil {
		writeServiceError(w, r, "plan route", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, fromSession(session))
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.Service.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "get route", err)
		return
	}

	writeJSON(w, r, http.StatusOK, fromSession(session))
}

// Advance marks the current stop delivered.
func (h *RouteHandler) Advance(w http.ResponseWriter, r *http.Request) {
	session, visited, err := h.Service.AdvanceStop(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "advance route", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.AdvanceResponse{
		Visited: fromStop(visited),
		Session: fromSession(session),
	})
}

func (h *RouteHandler) Delay(w http.ResponseWriter, r *http.Request) {
	var req dto.DelayRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.CurrentLocation == nil {
		writeError(w, r, http.StatusBadRequest, "current_location is required")
		return
	}

	session, outcome, err := h.Service.ReportDelay(
		r.Context(), r.PathValue("id"), toCoordinates(*req.CurrentLocation), req.DelayMinutes,
	)
	if err != nil {
		writeServiceError(w, r, "report delay", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.DelayResponse{
		Recalculated:     outcome.Recalculated,
		EstimatedMinutes: outcome.EstimatedMinutes,
		Session:          fromSession(session),
	})
}

// Cancel deletes the session and returns its unvisited orders to Pending.
func (h *RouteHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.CancelRoute(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, "cancel route", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Path returns street geometry for the remaining legs.
func (h *RouteHandler) Path(w http.ResponseWriter, r *http.Request) {
	route, err := h.Service.StreetPath(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "route path", err)
		return
	}

	writeJSON(w, r, http.StatusOK, fromStreetRoute(route))
}

func (h *RouteHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.StreetSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "route summary", err)
		return
	}

	writeJSON(w, r, http.StatusOK, fromStreetSummary(summary))
}
