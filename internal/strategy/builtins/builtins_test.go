package builtins

import (
	"errors"
	"testing"
	"time"

	"marketsim/internal/domain"
	"marketsim/internal/indicator"
	"marketsim/internal/strategy"
)

// historyOf builds an indicator history from a close path and returns the
// decision context for the final bar.
func contextFor(closes []float64, pos domain.Position, tradeCount int) strategy.Context {
	h := indicator.NewHistory(len(closes))
	var last domain.Bar
	for i, c := range closes {
		last = domain.Bar{
			Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:      c, High: c, Low: c, Close: c,
			Volume: 1,
		}
		h.Advance(last)
	}
	return strategy.Context{
		Index:      len(closes) - 1,
		Bar:        last,
		History:    h,
		Position:   pos,
		TradeCount: tradeCount,
	}
}

func flat() domain.Position { return domain.Position{} }

func long() domain.Position {
	return domain.Position{Size: 10, AvgEntryPrice: 100}
}

func TestRegisterAll(t *testing.T) {
	r := strategy.NewRegistry()
	RegisterAll(r)

	want := []string{"bollinger", "buy-hold", "mean-reversion", "momentum", "rsi", "sma-cross"}
	got := r.List()
	if len(got) != len(want) {
		t.Fatalf("List returned %d names, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSMACrossValidation(t *testing.T) {
	_, err := NewSMACross(strategy.Params{"short_period": 30, "long_period": 10})
	var cerr *domain.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("short >= long returned %v, want ConfigurationError", err)
	}

	if _, err := NewSMACross(strategy.Params{"short_period": 0, "long_period": 10}); err == nil {
		t.Error("expected error for zero short_period")
	}
}

func TestSMACrossBuySignal(t *testing.T) {
	s, err := NewSMACross(strategy.Params{"short_period": 2, "long_period": 3})
	if err != nil {
		t.Fatalf("NewSMACross: %v", err)
	}

	// Declining then sharply rising closes: the short average crosses above
	// the long average on the last bar.
	closes := []float64{110, 100, 90, 80, 120}
	it := s.Decide(contextFor(closes, flat(), 0))
	if it.Side != domain.SideBuy {
		t.Errorf("Decide on upward crossing = %q, want %q", it.Side, domain.SideBuy)
	}
}

func TestSMACrossRequiresCrossingNotLevel(t *testing.T) {
	s, err := NewSMACross(strategy.Params{"short_period": 2, "long_period": 3})
	if err != nil {
		t.Fatalf("NewSMACross: %v", err)
	}

	// Short average already above long on both bars: no fresh crossing.
	closes := []float64{80, 90, 100, 110, 120}
	it := s.Decide(contextFor(closes, flat(), 0))
	if it.Side != domain.SideNone {
		t.Errorf("Decide with short already above long = %q, want %q", it.Side, domain.SideNone)
	}
}

func TestSMACrossSellSignal(t *testing.T) {
	s, err := NewSMACross(strategy.Params{"short_period": 2, "long_period": 3})
	if err != nil {
		t.Fatalf("NewSMACross: %v", err)
	}

	closes := []float64{90, 100, 110, 120, 80}
	it := s.Decide(contextFor(closes, long(), 0))
	if it.Side != domain.SideSell {
		t.Errorf("Decide on downward crossing while long = %q, want %q", it.Side, domain.SideSell)
	}
}

func TestRSISignals(t *testing.T) {
	s, err := NewRSI(strategy.Params{"rsi_period": 3})
	if err != nil {
		t.Fatalf("NewRSI: %v", err)
	}

	falling := []float64{100, 95, 90, 85}
	if it := s.Decide(contextFor(falling, flat(), 0)); it.Side != domain.SideBuy {
		t.Errorf("Decide on oversold while flat = %q, want %q", it.Side, domain.SideBuy)
	}

	rising := []float64{85, 90, 95, 100}
	if it := s.Decide(contextFor(rising, long(), 0)); it.Side != domain.SideSell {
		t.Errorf("Decide on overbought while long = %q, want %q", it.Side, domain.SideSell)
	}

	// Oversold while long must not buy again.
	if it := s.Decide(contextFor(falling, long(), 0)); it.Side != domain.SideNone {
		t.Errorf("Decide on oversold while long = %q, want %q", it.Side, domain.SideNone)
	}
}

func TestRSIValidation(t *testing.T) {
	if _, err := NewRSI(strategy.Params{"rsi_oversold": 80, "rsi_overbought": 20}); err == nil {
		t.Error("expected error for oversold >= overbought")
	}
}

func TestBollingerSignals(t *testing.T) {
	s, err := NewBollinger(strategy.Params{"period": 4, "devfactor": 1})
	if err != nil {
		t.Fatalf("NewBollinger: %v", err)
	}

	// Last close far below the window average.
	dip := []float64{100, 102, 98, 100, 80}
	if it := s.Decide(contextFor(dip, flat(), 0)); it.Side != domain.SideBuy {
		t.Errorf("Decide on lower-band touch = %q, want %q", it.Side, domain.SideBuy)
	}

	spike := []float64{100, 102, 98, 100, 120}
	if it := s.Decide(contextFor(spike, long(), 0)); it.Side != domain.SideSell {
		t.Errorf("Decide on upper-band touch while long = %q, want %q", it.Side, domain.SideSell)
	}
}

func TestBollingerFlatSeriesNoSignal(t *testing.T) {
	s, err := NewBollinger(strategy.Params{"period": 4})
	if err != nil {
		t.Fatalf("NewBollinger: %v", err)
	}

	constant := []float64{100, 100, 100, 100, 100}
	if it := s.Decide(contextFor(constant, flat(), 0)); it.Side != domain.SideNone {
		t.Errorf("Decide on zero-variance series = %q, want %q", it.Side, domain.SideNone)
	}
}

func TestMomentumSignals(t *testing.T) {
	s, err := NewMomentum(strategy.Params{"period": 3})
	if err != nil {
		t.Fatalf("NewMomentum: %v", err)
	}

	up := []float64{100, 101, 102, 103}
	if it := s.Decide(contextFor(up, flat(), 0)); it.Side != domain.SideBuy {
		t.Errorf("Decide after 3 rising bars = %q, want %q", it.Side, domain.SideBuy)
	}

	shortRun := []float64{100, 99, 101, 102}
	if it := s.Decide(contextFor(shortRun, flat(), 0)); it.Side != domain.SideNone {
		t.Errorf("Decide after 2 rising bars = %q, want %q", it.Side, domain.SideNone)
	}

	down := []float64{103, 102, 101, 100}
	if it := s.Decide(contextFor(down, long(), 0)); it.Side != domain.SideSell {
		t.Errorf("Decide after 3 falling bars while long = %q, want %q", it.Side, domain.SideSell)
	}
}

func TestMeanReversionSignals(t *testing.T) {
	s, err := NewMeanReversion(strategy.Params{"period": 4, "threshold": 0.02})
	if err != nil {
		t.Fatalf("NewMeanReversion: %v", err)
	}

	// Close 90 against a window average of 97.5: deviation ~7.7%.
	dip := []float64{100, 100, 100, 90}
	if it := s.Decide(contextFor(dip, flat(), 0)); it.Side != domain.SideBuy {
		t.Errorf("Decide on deep deviation = %q, want %q", it.Side, domain.SideBuy)
	}

	// Close back at the average.
	recovered := []float64{100, 100, 100, 100}
	if it := s.Decide(contextFor(recovered, long(), 0)); it.Side != domain.SideSell {
		t.Errorf("Decide on recovery while long = %q, want %q", it.Side, domain.SideSell)
	}

	// Small deviation below threshold.
	shallow := []float64{100, 100, 100, 99}
	if it := s.Decide(contextFor(shallow, flat(), 0)); it.Side != domain.SideNone {
		t.Errorf("Decide on shallow deviation = %q, want %q", it.Side, domain.SideNone)
	}
}

func TestBuyHoldBuysOnce(t *testing.T) {
	s, err := NewBuyHold(nil)
	if err != nil {
		t.Fatalf("NewBuyHold: %v", err)
	}

	closes := []float64{100}
	if it := s.Decide(contextFor(closes, flat(), 0)); it.Side != domain.SideBuy {
		t.Errorf("first Decide = %q, want %q", it.Side, domain.SideBuy)
	}

	// Holding: no further action.
	if it := s.Decide(contextFor(closes, long(), 0)); it.Side != domain.SideNone {
		t.Errorf("Decide while holding = %q, want %q", it.Side, domain.SideNone)
	}

	// Flat again after a stop fired: never re-enter.
	if it := s.Decide(contextFor(closes, flat(), 1)); it.Side != domain.SideNone {
		t.Errorf("Decide after a completed trade = %q, want %q", it.Side, domain.SideNone)
	}
}

func TestBuyHoldRiskDisabledByDefault(t *testing.T) {
	s, _ := NewBuyHold(nil)
	risk := s.Risk()
	if risk.StopLoss != 0 || risk.TakeProfit != 0 {
		t.Errorf("Risk() = %+v, want zero stop and take", risk)
	}
}

func TestDefaultRiskParams(t *testing.T) {
	s, err := NewSMACross(nil)
	if err != nil {
		t.Fatalf("NewSMACross: %v", err)
	}
	risk := s.Risk()
	if risk.StopLoss != 0.05 {
		t.Errorf("default StopLoss = %v, want 0.05", risk.StopLoss)
	}
	if risk.TakeProfit != 0.10 {
		t.Errorf("default TakeProfit = %v, want 0.10", risk.TakeProfit)
	}
}

func TestParamsResolvedWithDefaults(t *testing.T) {
	s, err := NewSMACross(strategy.Params{"short_period": 5, "long_period": 20})
	if err != nil {
		t.Fatalf("NewSMACross: %v", err)
	}
	p := s.Params()
	if p.Int("short_period", 0) != 5 {
		t.Errorf("short_period = %v, want 5", p["short_period"])
	}
	if p.Int("long_period", 0) != 20 {
		t.Errorf("long_period = %v, want 20", p["long_period"])
	}
	if p.Get("stop_loss", 0) != 0.05 {
		t.Errorf("stop_loss default = %v, want 0.05", p["stop_loss"])
	}
}
