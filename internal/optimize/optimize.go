// Package optimize sweeps a strategy's parameter grid, running one backtest
// per combination and selecting the best result by a target metric.
package optimize

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"marketsim/internal/domain"
	"marketsim/internal/engine"
	"marketsim/internal/strategy"
)

// Grid maps parameter names to the candidate values to sweep.
type Grid map[string][]float64

// Combinations enumerates the full Cartesian product of the grid in a
// reproducible order: parameter names sorted, then odometer order over the
// value lists with the last name varying fastest. An empty grid yields a
// single empty combination, the strategy defaults.
func (g Grid) Combinations() []strategy.Params {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 1
	for _, name := range names {
		total *= len(g[name])
	}
	if total == 0 {
		return nil
	}

	out := make([]strategy.Params, 0, total)
	idx := make([]int, len(names))
	for {
		combo := make(strategy.Params, len(names))
		for i, name := range names {
			combo[name] = g[name][idx[i]]
		}
		out = append(out, combo)

		carry := len(names) - 1
		for ; carry >= 0; carry-- {
			idx[carry]++
			if idx[carry] < len(g[names[carry]]) {
				break
			}
			idx[carry] = 0
		}
		if carry < 0 {
			break
		}
	}
	return out
}

// Metric selects which result field a sweep maximizes.
type Metric string

const (
	MetricTotalReturn Metric = "total_return_pct"
	MetricSharpe      Metric = "sharpe_ratio"
	MetricWinRate     Metric = "win_rate"
	MetricFinalEquity Metric = "final_equity"
)

func (m Metric) valid() bool {
	switch m {
	case MetricTotalReturn, MetricSharpe, MetricWinRate, MetricFinalEquity:
		return true
	}
	return false
}

// metricValue extracts the target metric from a result. ok is false when the
// metric is undefined for the run (a nil Sharpe ratio), which ranks the
// result below every defined value.
func metricValue(res *domain.BacktestResult, m Metric) (float64, bool) {
	switch m {
	case MetricTotalReturn:
		return res.TotalReturnPct, true
	case MetricSharpe:
		if res.SharpeRatio == nil {
			return 0, false
		}
		return *res.SharpeRatio, true
	case MetricWinRate:
		return res.WinRate, true
	case MetricFinalEquity:
		return res.FinalEquity, true
	}
	return 0, false
}

// Options tunes a sweep.
type Options struct {
	// Workers bounds the number of concurrent backtests. Zero means one
	// worker per CPU.
	Workers int
	// Engine configures every run of the sweep identically.
	Engine engine.Config
}

// RunError records a parameter combination whose backtest failed. Failures
// do not abort the sweep and are excluded from best-result selection.
type RunError struct {
	Params strategy.Params
	Err    error
}

// Result is the outcome of a sweep.
type Result struct {
	// BestParams and Best identify the combination that maximized the
	// target metric. Both are nil when no run produced a defined metric.
	BestParams strategy.Params
	Best       *domain.BacktestResult
	// All holds the successful results in enumeration order.
	All []*domain.BacktestResult
	// Failures holds per-combination run errors.
	Failures []RunError
	// Evaluated counts combinations actually backtested; Skipped counts
	// structurally invalid combinations rejected before any run.
	Evaluated int
	Skipped   int
}

// Optimize runs one backtest per valid grid combination and returns the
// result maximizing the target metric, with ties broken by enumeration
// order. Combinations the strategy factory rejects are skipped, not failed.
// The context is checked between combinations, so cancellation is coarse.
func Optimize(ctx context.Context, series *domain.BarSeries, name string, reg *strategy.Registry, grid Grid, metric Metric, opts Options) (*Result, error) {
	if !metric.valid() {
		return nil, &domain.ConfigurationError{Msg: "unknown target metric " + string(metric)}
	}
	if isUnknownName(reg, name) {
		return nil, &domain.ConfigurationError{Msg: "unknown strategy " + name}
	}

	// Build strategies sequentially so the skip count and job order are
	// deterministic.
	combos := grid.Combinations()
	res := &Result{}
	type job struct {
		params strategy.Params
		strat  strategy.Strategy
	}
	jobs := make([]job, 0, len(combos))
	for _, combo := range combos {
		strat, err := reg.New(name, combo)
		if err != nil {
			res.Skipped++
			continue
		}
		jobs = append(jobs, job{params: combo, strat: strat})
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	results := make([]*domain.BacktestResult, len(jobs))
	errs := make([]error, len(jobs))
	idxCh := make(chan int, len(jobs))
	for i := range jobs {
		idxCh <- i
	}
	close(idxCh)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idxCh {
				if ctx.Err() != nil {
					return
				}
				results[i], errs[i] = engine.Run(series, jobs[i].strat, opts.Engine)
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Single reducer over enumeration order keeps the first-encountered
	// combination on metric ties.
	var bestVal float64
	for i := range jobs {
		if errs[i] != nil {
			res.Failures = append(res.Failures, RunError{Params: jobs[i].params, Err: errs[i]})
			res.Evaluated++
			continue
		}
		r := results[i]
		res.All = append(res.All, r)
		res.Evaluated++

		v, ok := metricValue(r, metric)
		if !ok {
			continue
		}
		if res.Best == nil || v > bestVal {
			res.Best = r
			res.BestParams = jobs[i].params
			bestVal = v
		}
	}
	return res, nil
}

func isUnknownName(reg *strategy.Registry, name string) bool {
	for _, n := range reg.List() {
		if n == name {
			return false
		}
	}
	return true
}
