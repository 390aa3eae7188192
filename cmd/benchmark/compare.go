package main

import (
	"context"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/services"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Fixed six-stop comparison scenario around Chennai under rush-hour traffic.
func comparisonStops() []domain.Stop {
	return []domain.Stop{
		{ID: "Stop_1", Location: domain.Coordinates{Lat: 13.0475, Lng: 80.2089}, TrafficFactor: 1.2, TimeWindowEnd: 30},
		{ID: "Stop_2", Location: domain.Coordinates{Lat: 12.9172, Lng: 80.1923}, TrafficFactor: 1.8, TimeWindowEnd: 60},
		{ID: "Stop_3", Location: domain.Coordinates{Lat: 13.0067, Lng: 80.2547}, TrafficFactor: 1.1, TimeWindowEnd: 20},
		{ID: "Stop_4", Location: domain.Coordinates{Lat: 13.0674, Lng: 80.2376}, TrafficFactor: 1.5, TimeWindowEnd: 90},
		{ID: "Stop_5", Location: domain.Coordinates{Lat: 12.8342, Lng: 79.7036}, TrafficFactor: 1.3, TimeWindowEnd: 150},
		{ID: "Stop_6", Location: domain.Coordinates{Lat: 13.1585, Lng: 80.2871}, TrafficFactor: 1.6, TimeWindowEnd: 120},
	}
}

var rushHour = domain.OptimizationConfig{VehicleConsumptionRate: 0.12, TimeOfDayFactor: 1.4}

type comparison struct {
	Legacy domain.OptimizationResult
	Hybrid domain.OptimizationResult
}

// Savings returns the hybrid improvement over legacy as a percentage of legacy cost.
func (c comparison) Savings() float64 {
	if c.Legacy.Metrics.TotalCost == 0 {
		return 0
	}
	return (c.Legacy.Metrics.TotalCost - c.Hybrid.Metrics.TotalCost) / c.Legacy.Metrics.TotalCost * 100
}

func compare(ctx context.Context, stops []domain.Stop, cfg domain.OptimizationConfig) (comparison, error) {
	hybrid := services.NewRouteOptimizer()
	legacy := hybrid.Using(services.NearestNeighborStrategy{})

	l, err := legacy.Optimize(ctx, hub, stops, cfg)
	if err != nil {
		return comparison{}, fmt.Errorf("compare: legacy: %w", err)
	}
	h, err := hybrid.Optimize(ctx, hub, stops, cfg)
	if err != nil {
		return comparison{}, fmt.Errorf("compare: hybrid: %w", err)
	}
	return comparison{Legacy: l, Hybrid: h}, nil
}

func printComparison(w io.Writer, c comparison) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "metric\tlegacy\thybrid\t")
	rows := []struct {
		name string
		l, h float64
	}{
		{"distance km", c.Legacy.Metrics.TotalDistance, c.Hybrid.Metrics.TotalDistance},
		{"time min", c.Legacy.Metrics.TotalTime, c.Hybrid.Metrics.TotalTime},
		{"fuel l", c.Legacy.Metrics.TotalFuel, c.Hybrid.Metrics.TotalFuel},
		{"co2 kg", c.Legacy.Metrics.CarbonFootprint, c.Hybrid.Metrics.CarbonFootprint},
		{"cost", c.Legacy.Metrics.TotalCost, c.Hybrid.Metrics.TotalCost},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t\n", r.name, r.l, r.h)
	}
	fmt.Fprintf(tw, "late stops\t%d\t%d\t\n", c.Legacy.Metrics.LateStops, c.Hybrid.Metrics.LateStops)
	fmt.Fprintf(tw, "order\t%s\t%s\t\n",
		strings.Join(domain.StopIDs(c.Legacy.Route), ","),
		strings.Join(domain.StopIDs(c.Hybrid.Route), ","))
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "hybrid saves %.1f%% of legacy cost\n", c.Savings())
	return err
}
