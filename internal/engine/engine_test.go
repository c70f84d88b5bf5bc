package engine

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"marketsim/internal/domain"
	"marketsim/internal/strategy"
	"marketsim/internal/strategy/builtins"
	"marketsim/internal/synth"
)

func seriesFromCloses(t *testing.T, closes []float64) *domain.BarSeries {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
		}
	}
	s, err := domain.NewBarSeries(bars)
	if err != nil {
		t.Fatalf("NewBarSeries: %v", err)
	}
	return s
}

func registry() *strategy.Registry {
	r := strategy.NewRegistry()
	builtins.RegisterAll(r)
	return r
}

func TestRunInsufficientData(t *testing.T) {
	series := seriesFromCloses(t, []float64{100, 101, 102, 103, 104})
	strat, err := registry().New("sma-cross", nil) // default long period 30
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = Run(series, strat, Config{})
	var ide *domain.InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("Run = %v, want InsufficientDataError", err)
	}
	if ide.Have != 5 || ide.Need != 30 {
		t.Errorf("error have/need = %d/%d, want 5/30", ide.Have, ide.Need)
	}
}

func TestFlatSeriesProducesNoTrades(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	series := seriesFromCloses(t, closes)

	reg := registry()
	for _, name := range reg.List() {
		strat, err := reg.New(name, nil)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		res, err := Run(series, strat, Config{CommissionRate: 0})
		if err != nil {
			t.Fatalf("Run(%q): %v", name, err)
		}
		if res.TotalTrades != 0 {
			t.Errorf("%s: %d trades on flat series, want 0", name, res.TotalTrades)
		}
		if res.TotalReturnPct != 0 {
			t.Errorf("%s: return = %v%% on flat series, want 0", name, res.TotalReturnPct)
		}
	}
}

func TestBuyHoldReturnMatchesPriceChange(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	series := seriesFromCloses(t, closes)

	strat, err := registry().New("buy-hold", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// With the whole balance invested commission-free, the run return is
	// exactly the price change from the entry bar.
	res, err := Run(series, strat, Config{InitialCash: 100000, SizeFraction: 1.0})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := (119.0/100.0 - 1) * 100
	if math.Abs(res.TotalReturnPct-want) > 1e-9 {
		t.Errorf("return = %v%%, want %v%%", res.TotalReturnPct, want)
	}
	// The position is still open at termination, so no realized trade.
	if res.TotalTrades != 0 || len(res.Trades) != 0 {
		t.Errorf("got %d realized trades, want 0 (position left open)", res.TotalTrades)
	}
	if len(res.EquityCurve) != series.Len() {
		t.Errorf("equity curve has %d points, want %d", len(res.EquityCurve), series.Len())
	}
}

func TestMonotonicSeriesSMABuysOnceNeverSells(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	series := seriesFromCloses(t, closes)

	strat, err := registry().New("sma-cross", strategy.Params{
		"short_period": 2,
		"long_period":  4,
		"stop_loss":    0,
		"take_profit":  0,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := Run(series, strat, Config{InitialCash: 100000, SizeFraction: 1.0})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The short average starts above the long average and stays there, so
	// the strategy enters once and never exits.
	if res.TotalTrades != 0 {
		t.Errorf("got %d realized trades, want 0 (entry never closed)", res.TotalTrades)
	}
	if res.FinalEquity <= res.InitialCash {
		t.Errorf("final equity = %v, want > %v (long a rising series)", res.FinalEquity, res.InitialCash)
	}
	// The long window is 4 bars, so the first three bars are warm-up with
	// equity pinned at initial cash.
	for i := 0; i < 3; i++ {
		if res.EquityCurve[i].Equity != 100000 {
			t.Errorf("equity[%d] = %v, want 100000 before the entry", i, res.EquityCurve[i].Equity)
		}
	}
}

func TestStopLossOverridesStrategy(t *testing.T) {
	series := seriesFromCloses(t, []float64{100, 94, 94, 94})
	strat, err := registry().New("buy-hold", strategy.Params{"stop_loss": 0.05})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := Run(series, strat, Config{InitialCash: 100000})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Buy-and-hold never sells on its own; the 6% drop trips the stop.
	if res.TotalTrades != 1 {
		t.Fatalf("got %d trades, want 1 (stop-loss exit)", res.TotalTrades)
	}
	tr := res.Trades[0]
	if tr.EntryPrice != 100 || tr.ExitPrice != 94 {
		t.Errorf("trade prices = %v/%v, want 100/94", tr.EntryPrice, tr.ExitPrice)
	}
	if res.LosingTrades != 1 {
		t.Errorf("losing trades = %d, want 1", res.LosingTrades)
	}
}

func TestTakeProfitOverridesStrategy(t *testing.T) {
	series := seriesFromCloses(t, []float64{100, 111, 111})
	strat, err := registry().New("buy-hold", strategy.Params{"take_profit": 0.10})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := Run(series, strat, Config{InitialCash: 100000})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.TotalTrades != 1 {
		t.Fatalf("got %d trades, want 1 (take-profit exit)", res.TotalTrades)
	}
	tr := res.Trades[0]
	if tr.ExitPrice != 111 {
		t.Errorf("exit price = %v, want 111", tr.ExitPrice)
	}
	if res.WinningTrades != 1 {
		t.Errorf("winning trades = %d, want 1", res.WinningTrades)
	}
}

func TestRunDeterministic(t *testing.T) {
	params := synth.ProcessParams{
		Model:        synth.ModelGBM,
		Start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		InitialPrice: 100,
		Volatility:   0.02,
		Seed:         42,
	}

	run := func() *domain.BacktestResult {
		series, err := synth.Generate(params)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		strat, err := registry().New("sma-cross", strategy.Params{
			"short_period": 5, "long_period": 20,
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		res, err := Run(series, strat, Config{})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return res
	}

	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Error("identical seed and parameters produced different results")
	}
}
