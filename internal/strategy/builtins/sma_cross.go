package builtins

import (
	"marketsim/internal/domain"
	"marketsim/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*SMACross)(nil)

var smaCrossDefaults = strategy.Params{
	"short_period": 10,
	"long_period":  30,
	"stop_loss":    0.05,
	"take_profit":  0.10,
}

// SMACross implements a simple moving average crossover strategy. It buys
// when the short-period SMA crosses above the long-period SMA and sells
// when it crosses back below. A crossing requires two consecutive bars of
// indicator history (current versus previous), not just a threshold check.
type SMACross struct {
	params      strategy.Params
	shortPeriod int
	longPeriod  int
}

// NewSMACross creates an SMACross strategy. The short period must be
// strictly less than the long period and both must be positive.
func NewSMACross(params strategy.Params) (strategy.Strategy, error) {
	p := resolve(params, smaCrossDefaults)
	short := p.Int("short_period", 0)
	long := p.Int("long_period", 0)
	if short <= 0 || long <= 0 {
		return nil, &domain.ConfigurationError{Msg: "sma-cross periods must be positive"}
	}
	if short >= long {
		return nil, &domain.ConfigurationError{Msg: "sma-cross short_period must be less than long_period"}
	}
	return &SMACross{params: p, shortPeriod: short, longPeriod: long}, nil
}

// Name returns "sma-cross".
func (s *SMACross) Name() string { return "sma-cross" }

// Params returns the resolved parameters.
func (s *SMACross) Params() strategy.Params { return s.params }

// WarmUp requires the long window, the longest lookback used.
func (s *SMACross) WarmUp() int { return s.longPeriod }

// Risk returns the engine-enforced stop/take thresholds.
func (s *SMACross) Risk() strategy.RiskParams { return riskFrom(s.params) }

// Decide emits a BUY on an upward crossing when flat and a SELL on a
// downward crossing when long.
func (s *SMACross) Decide(c strategy.Context) domain.OrderIntent {
	end := c.History.Len() - 1
	short, ok1 := c.History.SMAAt(end, s.shortPeriod)
	long, ok2 := c.History.SMAAt(end, s.longPeriod)
	if !ok1 || !ok2 {
		return domain.None(c.Index)
	}

	// On the first bar where the long average is defined there is no
	// previous comparison; the prior state is taken as short-below-long,
	// so a series that opens with the short average on top still
	// produces an initial entry.
	prevShort, _ := c.History.SMAAt(end-1, s.shortPeriod)
	prevLong, okPrev := c.History.SMAAt(end-1, s.longPeriod)
	wasAbove := okPrev && prevShort > prevLong

	if c.Position.Flat() {
		if !wasAbove && short > long {
			return domain.OrderIntent{Side: domain.SideBuy, BarIndex: c.Index}
		}
	} else if c.Position.Size > 0 {
		if okPrev && prevShort >= prevLong && short < long {
			return domain.OrderIntent{Side: domain.SideSell, BarIndex: c.Index}
		}
	}
	return domain.None(c.Index)
}
