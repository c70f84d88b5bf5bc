package optimize

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketsim/internal/domain"
	"marketsim/internal/strategy"
	"marketsim/internal/strategy/builtins"
	"marketsim/internal/synth"
)

func registry() *strategy.Registry {
	r := strategy.NewRegistry()
	builtins.RegisterAll(r)
	return r
}

func testSeries(t *testing.T) *domain.BarSeries {
	t.Helper()
	series, err := synth.Generate(synth.ProcessParams{
		Model:        synth.ModelGBM,
		Start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		InitialPrice: 100,
		Volatility:   0.02,
		Seed:         7,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return series
}

func TestGridCombinations(t *testing.T) {
	g := Grid{"b": {10, 20, 30}, "a": {1, 2}}
	combos := g.Combinations()

	if len(combos) != 6 {
		t.Fatalf("got %d combinations, want 6", len(combos))
	}
	// Names sort to [a b]; b varies fastest.
	first := strategy.Params{"a": 1, "b": 10}
	second := strategy.Params{"a": 1, "b": 20}
	last := strategy.Params{"a": 2, "b": 30}
	for i, want := range map[int]strategy.Params{0: first, 1: second, 5: last} {
		for k, v := range want {
			if combos[i][k] != v {
				t.Errorf("combo[%d][%s] = %v, want %v", i, k, combos[i][k], v)
			}
		}
	}
}

func TestGridCombinationsEmpty(t *testing.T) {
	combos := Grid{}.Combinations()
	if len(combos) != 1 || len(combos[0]) != 0 {
		t.Errorf("empty grid = %v, want a single empty combination", combos)
	}

	if got := (Grid{"a": nil}).Combinations(); got != nil {
		t.Errorf("grid with empty value list = %v, want nil", got)
	}
}

func TestOptimizeSkipsInvalidCombinations(t *testing.T) {
	grid := Grid{
		"short_period": {2, 10},
		"long_period":  {5},
		"stop_loss":    {0},
		"take_profit":  {0},
	}
	res, err := Optimize(context.Background(), testSeries(t), "sma-cross", registry(), grid, MetricTotalReturn, Options{Workers: 2})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	// short=10, long=5 is structurally invalid and must be skipped, not
	// counted as a failure.
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}
	if res.Evaluated != 1 {
		t.Errorf("evaluated = %d, want 1", res.Evaluated)
	}
	if len(res.Failures) != 0 {
		t.Errorf("failures = %v, want none", res.Failures)
	}
	if res.Best == nil || res.BestParams["short_period"] != 2 {
		t.Errorf("best params = %v, want the single valid combination", res.BestParams)
	}
}

func TestOptimizeBestIsMaximum(t *testing.T) {
	grid := Grid{
		"short_period": {2, 5},
		"long_period":  {10, 20},
		"stop_loss":    {0},
		"take_profit":  {0},
	}
	res, err := Optimize(context.Background(), testSeries(t), "sma-cross", registry(), grid, MetricTotalReturn, Options{Workers: 4})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if res.Evaluated != 4 || res.Skipped != 0 {
		t.Fatalf("evaluated/skipped = %d/%d, want 4/0", res.Evaluated, res.Skipped)
	}
	if res.Best == nil {
		t.Fatal("best = nil, want a result")
	}
	for _, r := range res.All {
		if r.TotalReturnPct > res.Best.TotalReturnPct {
			t.Errorf("result %v beats best %v", r.TotalReturnPct, res.Best.TotalReturnPct)
		}
	}
}

func TestOptimizeTieBreaksByEnumerationOrder(t *testing.T) {
	// A flat series scores every combination identically, so the first
	// combination in enumeration order must win.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, 40)
	for i := range bars {
		bars[i] = domain.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      100, High: 100, Low: 100, Close: 100,
			Volume: 1000,
		}
	}
	series, err := domain.NewBarSeries(bars)
	if err != nil {
		t.Fatalf("NewBarSeries: %v", err)
	}

	grid := Grid{"short_period": {2, 3}, "long_period": {10, 20}}
	res, err := Optimize(context.Background(), series, "sma-cross", registry(), grid, MetricTotalReturn, Options{Workers: 4})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if res.BestParams["long_period"] != 10 || res.BestParams["short_period"] != 2 {
		t.Errorf("best params = %v, want the first combination (2, 10)", res.BestParams)
	}
}

func TestOptimizeUnknownStrategy(t *testing.T) {
	_, err := Optimize(context.Background(), testSeries(t), "nope", registry(), Grid{}, MetricTotalReturn, Options{})
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Optimize = %v, want ConfigurationError", err)
	}
}

func TestOptimizeUnknownMetric(t *testing.T) {
	_, err := Optimize(context.Background(), testSeries(t), "sma-cross", registry(), Grid{}, Metric("bogus"), Options{})
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Optimize = %v, want ConfigurationError", err)
	}
}

func TestOptimizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	grid := Grid{"short_period": {2, 3}, "long_period": {10, 20}}
	_, err := Optimize(ctx, testSeries(t), "sma-cross", registry(), grid, MetricTotalReturn, Options{Workers: 2})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Optimize on cancelled context = %v, want context.Canceled", err)
	}
}
