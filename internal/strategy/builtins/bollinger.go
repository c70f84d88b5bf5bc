package builtins

import (
	"marketsim/internal/domain"
	"marketsim/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*Bollinger)(nil)

var bollingerDefaults = strategy.Params{
	"period":      20,
	"devfactor":   2.0,
	"stop_loss":   0.05,
	"take_profit": 0.10,
}

// Bollinger buys when the close touches or drops below the lower band and
// sells when it touches or rises above the upper band.
type Bollinger struct {
	params strategy.Params
	period int
	dev    float64
}

// NewBollinger creates a Bollinger band strategy.
func NewBollinger(params strategy.Params) (strategy.Strategy, error) {
	p := resolve(params, bollingerDefaults)
	period := p.Int("period", 0)
	if period <= 0 {
		return nil, &domain.ConfigurationError{Msg: "bollinger period must be positive"}
	}
	dev := p.Get("devfactor", 2.0)
	if dev <= 0 {
		return nil, &domain.ConfigurationError{Msg: "bollinger devfactor must be positive"}
	}
	return &Bollinger{params: p, period: period, dev: dev}, nil
}

// Name returns "bollinger".
func (s *Bollinger) Name() string { return "bollinger" }

// Params returns the resolved parameters.
func (s *Bollinger) Params() strategy.Params { return s.params }

// WarmUp requires a full band window.
func (s *Bollinger) WarmUp() int { return s.period }

// Risk returns the engine-enforced stop/take thresholds.
func (s *Bollinger) Risk() strategy.RiskParams { return riskFrom(s.params) }

// Decide emits BUY at or below the lower band and SELL at or above the
// upper band.
func (s *Bollinger) Decide(c strategy.Context) domain.OrderIntent {
	upper, _, lower, ok := c.History.Bollinger(s.period, s.dev)
	if !ok {
		return domain.None(c.Index)
	}
	// Zero band width means zero variance; touching a collapsed band is not
	// a signal.
	if upper == lower {
		return domain.None(c.Index)
	}

	close := c.Bar.Close
	if c.Position.Flat() {
		if close <= lower {
			return domain.OrderIntent{Side: domain.SideBuy, BarIndex: c.Index}
		}
	} else if c.Position.Size > 0 {
		if close >= upper {
			return domain.OrderIntent{Side: domain.SideSell, BarIndex: c.Index}
		}
	}
	return domain.None(c.Index)
}
