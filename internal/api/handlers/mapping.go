package handlers

import (
	"delivery-route-optimizer/internal/api/dto"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/ports"
	"delivery-route-optimizer/internal/services"
)

func toCoordinates(c dto.Coordinates) domain.Coordinates {
	return domain.Coordinates{Lat: c.Lat, Lng: c.Lng}
}

func fromCoordinates(c domain.Coordinates) dto.Coordinates {
	return dto.Coordinates{Lat: c.Lat, Lng: c.Lng}
}

// toStops keeps arrival times so a history request gets its completed prefix
// back unchanged. The optimizer re-stamps every stop it plans.
func toStops(in []dto.Stop) []domain.Stop {
	out := make([]domain.Stop, 0, len(in))
	for _, s := range in {
		st := domain.Stop{
			ID:            s.ID,
			Location:      toCoordinates(s.Location),
			TrafficFactor: s.TrafficFactor,
			TimeWindowEnd: s.TimeWindowEnd,
		}
		if s.ArrivalTime != nil {
			at := *s.ArrivalTime
			st.ArrivalTime = &at
		}
		out = append(out, st)
	}
	return out
}

func fromStop(s domain.Stop) dto.Stop {
	return dto.Stop{
		ID:            s.ID,
		Location:      fromCoordinates(s.Location),
		TrafficFactor: s.TrafficFactor,
		TimeWindowEnd: s.TimeWindowEnd,
		ArrivalTime:   s.ArrivalTime,
	}
}

func fromStops(in []domain.Stop) []dto.Stop {
	out := make([]dto.Stop, 0, len(in))
	for _, s := range in {
		out = append(out, fromStop(s))
	}
	return out
}

func toOverrides(c *dto.OptimizationConfig) services.ConfigOverrides {
	if c == nil {
		return services.ConfigOverrides{}
	}
	return services.ConfigOverrides{
		VehicleConsumptionRate: c.VehicleConsumptionRate,
		TimeOfDayFactor:        c.TimeOfDayFactor,
		MaxTwoOptSweeps:        c.MaxTwoOptSweeps,
		DelayThresholdMinutes:  c.DelayThresholdMinutes,
	}
}

func fromMetrics(m domain.Metrics) dto.Metrics {
	return dto.Metrics{
		TotalDistance:   m.TotalDistance,
		TotalTime:       m.TotalTime,
		TotalFuel:       m.TotalFuel,
		TotalCost:       m.TotalCost,
		CarbonFootprint: m.CarbonFootprint,
		LateStops:       m.LateStops,
	}
}

func fromResult(res domain.OptimizationResult) dto.OptimizeResponse {
	return dto.OptimizeResponse{
		Route:    fromStops(res.Route),
		Metrics:  fromMetrics(res.Metrics),
		Strategy: res.Strategy,
		Refinement: dto.Refinement{
			Sweeps:      res.Refinement.Sweeps,
			Accepted:    res.Refinement.Accepted,
			Evaluations: res.Refinement.Evaluations,
			InitialCost: res.Refinement.InitialCost,
			Capped:      res.Refinement.Capped,
		},
	}
}

func fromOrder(o *domain.Order) dto.OrderResponse {
	return dto.OrderResponse{
		OrderID:       o.OrderID,
		Customer:      o.Customer,
		Address:       o.Address,
		Priority:      o.Priority,
		Status:        string(o.Status),
		Location:      fromCoordinates(o.Location),
		TrafficFactor: o.TrafficFactor,
		TimeWindowEnd: o.TimeWindowEnd,
		DeliveredAt:   o.DeliveredAt,
	}
}

func fromSession(s *domain.RouteSession) dto.SessionResponse {
	res := dto.SessionResponse{
		SessionID:        s.SessionID,
		Start:            fromCoordinates(s.Start),
		Stops:            fromStops(s.Stops),
		CurrentStopIndex: s.CurrentStopIndex,
		Progress:         s.Progress(),
		Finished:         s.Finished(),
		DelayMinutes:     s.DelayMinutes,
		Strategy:         s.Strategy,
		Metrics:          fromMetrics(s.Metrics),
		Version:          s.Version,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if s.PendingMetrics != nil {
		pm := fromMetrics(*s.PendingMetrics)
		res.PendingMetrics = &pm
	}
	if cur, ok := s.CurrentStop(); ok {
		st := fromStop(cur)
		res.CurrentStop = &st
	}
	return res
}

func fromStreetRoute(r ports.StreetRoute) dto.PathResponse {
	res := dto.PathResponse{
		Path:            make([]dto.Coordinates, 0, len(r.Path)),
		Steps:           make([]dto.Step, 0, len(r.Steps)),
		DistanceKm:      r.DistanceKm,
		DurationMinutes: r.DurationMinutes,
	}
	for _, p := range r.Path {
		res.Path = append(res.Path, fromCoordinates(p))
	}
	for _, s := range r.Steps {
		res.Steps = append(res.Steps, dto.Step{
			Instruction:    s.Instruction,
			DistanceMeters: s.DistanceMeters,
			Location:       fromCoordinates(s.Location),
		})
	}
	return res
}

func fromStreetSummary(s services.StreetSummary) dto.SummaryResponse {
	res := dto.SummaryResponse{
		Legs:                 make([]dto.Leg, 0, len(s.Legs)),
		TotalDistanceKm:      s.TotalDistanceKm,
		TotalDurationMinutes: s.TotalDurationMinutes,
	}
	for _, l := range s.Legs {
		res.Legs = append(res.Legs, dto.Leg{
			From:            l.From,
			To:              l.To,
			DistanceMeters:  l.DistanceMeters,
			DurationSeconds: l.DurationSeconds,
		})
	}
	return res
}
