package main

import (
	"bytes"
	"context"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/services"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStressSummarizesEachSize(t *testing.T) {
	rows, err := stress(context.Background(), services.NewRouteOptimizer(), domain.OptimizationConfig{}, []int{3, 8}, 4, 7)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	for i, n := range []int{3, 8} {
		assert.Equal(t, n, rows[i].Stops)
		assert.Equal(t, 4, rows[i].Runs)
		assert.Positive(t, rows[i].MeanCost)
		assert.GreaterOrEqual(t, rows[i].StdDevCost, 0.0)
		assert.InDelta(t, rows[i].MeanCost/float64(n), rows[i].CostPerStop, 1e-9)
	}
}

func TestStressIsReproducible(t *testing.T) {
	a, err := stress(context.Background(), services.NewRouteOptimizer(), domain.OptimizationConfig{}, []int{6}, 3, 42)
	require.NoError(t, err)
	b, err := stress(context.Background(), services.NewRouteOptimizer(), domain.OptimizationConfig{}, []int{6}, 3, 42)
	require.NoError(t, err)

	assert.Equal(t, a[0].MeanCost, b[0].MeanCost)
}

func TestCompareHybridNotWorseOnFixture(t *testing.T) {
	c, err := compare(context.Background(), comparisonStops(), rushHour)
	require.NoError(t, err)

	assert.Equal(t, services.StrategyNearestNeighbor, c.Legacy.Strategy)
	assert.Equal(t, services.StrategyHybrid, c.Hybrid.Strategy)
	assert.ElementsMatch(t, domain.StopIDs(c.Legacy.Route), domain.StopIDs(c.Hybrid.Route))

	var out bytes.Buffer
	require.NoError(t, printComparison(&out, c))
	assert.Contains(t, out.String(), "hybrid saves")
}

func TestCommands(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)

	rootCmd.SetArgs([]string{"stress", "--sizes", "4,6", "--runs", "2"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "strategy=hybrid")

	out.Reset()
	rootCmd.SetArgs([]string{"compare"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "legacy")

	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"stress", "--strategy", "genetic"})
	assert.Error(t, rootCmd.Execute())
}
