package builtins

import (
	"marketsim/internal/domain"
	"marketsim/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*MeanReversion)(nil)

var meanReversionDefaults = strategy.Params{
	"period":      20,
	"threshold":   0.02,
	"stop_loss":   0.05,
	"take_profit": 0.08,
}

// MeanReversion buys when the close deviates below the moving average by
// more than the threshold fraction and sells when the close returns to or
// above the average.
type MeanReversion struct {
	params    strategy.Params
	period    int
	threshold float64
}

// NewMeanReversion creates a MeanReversion strategy.
func NewMeanReversion(params strategy.Params) (strategy.Strategy, error) {
	p := resolve(params, meanReversionDefaults)
	period := p.Int("period", 0)
	if period <= 0 {
		return nil, &domain.ConfigurationError{Msg: "mean-reversion period must be positive"}
	}
	threshold := p.Get("threshold", 0.02)
	if threshold <= 0 {
		return nil, &domain.ConfigurationError{Msg: "mean-reversion threshold must be positive"}
	}
	return &MeanReversion{params: p, period: period, threshold: threshold}, nil
}

// Name returns "mean-reversion".
func (s *MeanReversion) Name() string { return "mean-reversion" }

// Params returns the resolved parameters.
func (s *MeanReversion) Params() strategy.Params { return s.params }

// WarmUp requires a full averaging window.
func (s *MeanReversion) WarmUp() int { return s.period }

// Risk returns the engine-enforced stop/take thresholds.
func (s *MeanReversion) Risk() strategy.RiskParams { return riskFrom(s.params) }

// Decide emits BUY when the close sits below the average by at least the
// threshold fraction, and SELL once the close recovers to the average.
func (s *MeanReversion) Decide(c strategy.Context) domain.OrderIntent {
	sma, ok := c.History.SMA(s.period)
	if !ok || sma == 0 {
		return domain.None(c.Index)
	}

	close := c.Bar.Close
	if c.Position.Flat() {
		deviation := (sma - close) / sma
		if deviation >= s.threshold {
			return domain.OrderIntent{Side: domain.SideBuy, BarIndex: c.Index}
		}
	} else if c.Position.Size > 0 {
		if close >= sma {
			return domain.OrderIntent{Side: domain.SideSell, BarIndex: c.Index}
		}
	}
	return domain.None(c.Index)
}
