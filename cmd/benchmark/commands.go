package main

import (
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/services"

	"github.com/spf13/cobra"
)

var (
	sizes     []int
	runs      int
	seed      uint64
	strategy  string
	maxSweeps int
	rate      float64
	todFactor float64
)

var rootCmd = &cobra.Command{
	Use:          "benchmark",
	Short:        "Measure and compare route optimization strategies",
	SilenceUsage: true,
}

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Optimize random instances of increasing size and report runtime and cost",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := services.StrategyByName(strategy)
		if err != nil {
			return err
		}
		cfg := domain.OptimizationConfig{
			VehicleConsumptionRate: rate,
			TimeOfDayFactor:        todFactor,
			MaxTwoOptSweeps:        maxSweeps,
		}
		rows, err := stress(cmd.Context(), services.NewRouteOptimizer(services.WithStrategy(st)), cfg, sizes, runs, seed)
		if err != nil {
			return err
		}
		return printStress(cmd.OutOrStdout(), st.Name(), rows)
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare legacy nearest-neighbor and hybrid routes on a fixed scenario",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := compare(cmd.Context(), comparisonStops(), rushHour)
		if err != nil {
			return err
		}
		return printComparison(cmd.OutOrStdout(), c)
	},
}

func init() {
	stressCmd.Flags().IntSliceVar(&sizes, "sizes", []int{10, 20, 50}, "stop counts to test")
	stressCmd.Flags().IntVar(&runs, "runs", 5, "random instances per size")
	stressCmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	stressCmd.Flags().StringVar(&strategy, "strategy", services.StrategyHybrid, "hybrid or nearest-neighbor")
	stressCmd.Flags().IntVar(&maxSweeps, "max-sweeps", 0, "2-opt sweep cap (0 = until converged)")
	stressCmd.Flags().Float64Var(&rate, "rate", services.DefaultVehicleConsumptionRate, "vehicle consumption rate")
	stressCmd.Flags().Float64Var(&todFactor, "time-factor", services.DefaultTimeOfDayFactor, "time of day factor")

	rootCmd.AddCommand(stressCmd, compareCmd)
}
