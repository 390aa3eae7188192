package main

import (
	"context"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/services"
	"fmt"
	"io"
	"math/rand/v2"
	"text/tabwriter"
	"time"

	"gonum.org/v1/gonum/stat"
)

var hub = domain.Coordinates{Lat: 13.0827, Lng: 80.2707}

// Stops are scattered uniformly over the greater Chennai area.
const (
	minLat, maxLat = 12.8, 13.2
	minLng, maxLng = 79.9, 80.4
)

func randomStops(r *rand.Rand, n int) []domain.Stop {
	stops := make([]domain.Stop, 0, n)
	for i := 0; i < n; i++ {
		stops = append(stops, domain.Stop{
			ID: fmt.Sprintf("STOP_%d", i+1),
			Location: domain.Coordinates{
				Lat: minLat + r.Float64()*(maxLat-minLat),
				Lng: minLng + r.Float64()*(maxLng-minLng),
			},
			TrafficFactor: 1 + r.Float64()*2,
			TimeWindowEnd: float64(60 + r.IntN(300)),
		})
	}
	return stops
}

type stressRow struct {
	Stops       int
	Runs        int
	MeanMs      float64
	StdDevMs    float64
	MeanCost    float64
	StdDevCost  float64
	CostPerStop float64
	Capped      int
}

// stress optimizes runs random instances per size and summarizes runtime and cost.
func stress(
	ctx context.Context,
	opt *services.RouteOptimizer,
	cfg domain.OptimizationConfig,
	sizes []int,
	runs int,
	seed uint64,
) ([]stressRow, error) {
	r := rand.New(rand.NewPCG(seed, seed^0x5bd1e995))

	rows := make([]stressRow, 0, len(sizes))
	for _, n := range sizes {
		times := make([]float64, 0, runs)
		costs := make([]float64, 0, runs)
		capped := 0

		for i := 0; i < runs; i++ {
			stops := randomStops(r, n)

			start := time.Now()
			res, err := opt.Optimize(ctx, hub, stops, cfg)
			if err != nil {
				return nil, fmt.Errorf("stress %d stops run %d: %w", n, i+1, err)
			}
			times = append(times, float64(time.Since(start).Microseconds())/1000)
			costs = append(costs, res.Metrics.TotalCost)
			if res.Refinement.Capped {
				capped++
			}
		}

		meanMs, sdMs := stat.MeanStdDev(times, nil)
		meanCost, sdCost := stat.MeanStdDev(costs, nil)
		row := stressRow{
			Stops:      n,
			Runs:       runs,
			MeanMs:     meanMs,
			StdDevMs:   sdMs,
			MeanCost:   meanCost,
			StdDevCost: sdCost,
			Capped:     capped,
		}
		if n > 0 {
			row.CostPerStop = meanCost / float64(n)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func printStress(w io.Writer, strategy string, rows []stressRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "strategy=%s\t\t\t\t\t\t\n", strategy)
	fmt.Fprintln(tw, "stops\truns\tmean ms\tstddev ms\tmean cost\tstddev cost\tcost/stop\tcapped\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%d\t%.3f\t%.3f\t%.2f\t%.2f\t%.2f\t%d\t\n",
			r.Stops, r.Runs, r.MeanMs, r.StdDevMs, r.MeanCost, r.StdDevCost, r.CostPerStop, r.Capped)
	}
	return tw.Flush()
}
