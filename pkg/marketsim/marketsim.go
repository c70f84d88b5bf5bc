// Package marketsim is the public entry point for running backtests against
// the built-in strategy registry.
package marketsim

import (
	"context"

	"marketsim/internal/domain"
	"marketsim/internal/engine"
	"marketsim/internal/optimize"
	"marketsim/internal/strategy"
	"marketsim/internal/strategy/builtins"
)

// Re-exported domain types so callers never import internal packages.
type (
	Bar            = domain.Bar
	BarSeries      = domain.BarSeries
	Trade          = domain.Trade
	EquityPoint    = domain.EquityPoint
	BacktestResult = domain.BacktestResult
	Params         = strategy.Params
)

// RunConfig mirrors engine.Config for external callers.
type RunConfig = engine.Config

// NewBarSeries validates bars and builds an immutable series.
func NewBarSeries(bars []Bar) (*BarSeries, error) {
	return domain.NewBarSeries(bars)
}

// Strategies lists the registered strategy names, sorted.
func Strategies() []string {
	return defaultRegistry().List()
}

// RunBacktest resolves strategyName against the built-in registry and
// replays the series through it with default account settings.
func RunBacktest(strategyName string, params Params, series *BarSeries) (*BacktestResult, error) {
	return RunBacktestConfig(strategyName, params, series, RunConfig{})
}

// RunBacktestConfig is RunBacktest with explicit account settings.
func RunBacktestConfig(strategyName string, params Params, series *BarSeries, cfg RunConfig) (*BacktestResult, error) {
	strat, err := defaultRegistry().New(strategyName, params)
	if err != nil {
		return nil, err
	}
	return engine.Run(series, strat, cfg)
}

// OptimizeGrid sweeps the parameter grid for the named strategy and returns
// the combination maximizing the target metric.
func OptimizeGrid(ctx context.Context, strategyName string, grid optimize.Grid, metric optimize.Metric, series *BarSeries, opts optimize.Options) (*optimize.Result, error) {
	return optimize.Optimize(ctx, series, strategyName, defaultRegistry(), grid, metric, opts)
}

func defaultRegistry() *strategy.Registry {
	r := strategy.NewRegistry()
	builtins.RegisterAll(r)
	return r
}
