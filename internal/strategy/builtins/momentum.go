package builtins

import (
	"marketsim/internal/domain"
	"marketsim/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*Momentum)(nil)

var momentumDefaults = strategy.Params{
	"period":      3,
	"stop_loss":   0.05,
	"take_profit": 0.12,
}

// Momentum buys after the close has risen for period consecutive bars and
// sells after it has fallen for period consecutive bars.
type Momentum struct {
	params strategy.Params
	period int
}

// NewMomentum creates a Momentum strategy.
func NewMomentum(params strategy.Params) (strategy.Strategy, error) {
	p := resolve(params, momentumDefaults)
	period := p.Int("period", 0)
	if period <= 0 {
		return nil, &domain.ConfigurationError{Msg: "momentum period must be positive"}
	}
	return &Momentum{params: p, period: period}, nil
}

// Name returns "momentum".
func (s *Momentum) Name() string { return "momentum" }

// Params returns the resolved parameters.
func (s *Momentum) Params() strategy.Params { return s.params }

// WarmUp requires period+1 bars to observe period consecutive changes.
func (s *Momentum) WarmUp() int { return s.period + 1 }

// Risk returns the engine-enforced stop/take thresholds.
func (s *Momentum) Risk() strategy.RiskParams { return riskFrom(s.params) }

// Decide emits BUY on an up-run of at least period bars and SELL on a
// down-run of at least period bars.
func (s *Momentum) Decide(c strategy.Context) domain.OrderIntent {
	run := c.History.RunLength()

	if c.Position.Flat() {
		if run >= s.period {
			return domain.OrderIntent{Side: domain.SideBuy, BarIndex: c.Index}
		}
	} else if c.Position.Size > 0 {
		if run <= -s.period {
			return domain.OrderIntent{Side: domain.SideSell, BarIndex: c.Index}
		}
	}
	return domain.None(c.Index)
}
