package builtins

import (
	"marketsim/internal/domain"
	"marketsim/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*RSI)(nil)

var rsiDefaults = strategy.Params{
	"rsi_period":     14,
	"rsi_oversold":   30,
	"rsi_overbought": 70,
	"stop_loss":      0.05,
	"take_profit":    0.10,
}

// RSI buys when the relative strength index drops below the oversold
// threshold while flat and sells when it rises above the overbought
// threshold while long.
type RSI struct {
	params     strategy.Params
	period     int
	oversold   float64
	overbought float64
}

// NewRSI creates an RSI strategy.
func NewRSI(params strategy.Params) (strategy.Strategy, error) {
	p := resolve(params, rsiDefaults)
	period := p.Int("rsi_period", 0)
	if period <= 0 {
		return nil, &domain.ConfigurationError{Msg: "rsi period must be positive"}
	}
	oversold := p.Get("rsi_oversold", 30)
	overbought := p.Get("rsi_overbought", 70)
	if oversold >= overbought {
		return nil, &domain.ConfigurationError{Msg: "rsi oversold must be below overbought"}
	}
	return &RSI{params: p, period: period, oversold: oversold, overbought: overbought}, nil
}

// Name returns "rsi".
func (s *RSI) Name() string { return "rsi" }

// Params returns the resolved parameters.
func (s *RSI) Params() strategy.Params { return s.params }

// WarmUp requires period+1 bars for the first full window of changes.
func (s *RSI) WarmUp() int { return s.period + 1 }

// Risk returns the engine-enforced stop/take thresholds.
func (s *RSI) Risk() strategy.RiskParams { return riskFrom(s.params) }

// Decide emits BUY below the oversold threshold and SELL above the
// overbought threshold.
func (s *RSI) Decide(c strategy.Context) domain.OrderIntent {
	rsi, ok := c.History.RSI(s.period)
	if !ok {
		return domain.None(c.Index)
	}

	if c.Position.Flat() {
		if rsi < s.oversold {
			return domain.OrderIntent{Side: domain.SideBuy, BarIndex: c.Index}
		}
	} else if c.Position.Size > 0 {
		if rsi > s.overbought {
			return domain.OrderIntent{Side: domain.SideSell, BarIndex: c.Index}
		}
	}
	return domain.None(c.Index)
}
