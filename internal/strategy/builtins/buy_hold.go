package builtins

import (
	"marketsim/internal/domain"
	"marketsim/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*BuyHold)(nil)

var buyHoldDefaults = strategy.Params{
	"stop_loss":   0,
	"take_profit": 0,
}

// BuyHold buys once at the first opportunity and never sells. Stops are
// disabled by default; if a caller enables one and it fires, the position
// is not re-entered.
type BuyHold struct {
	params strategy.Params
}

// NewBuyHold creates a BuyHold strategy.
func NewBuyHold(params strategy.Params) (strategy.Strategy, error) {
	return &BuyHold{params: resolve(params, buyHoldDefaults)}, nil
}

// Name returns "buy-hold".
func (s *BuyHold) Name() string { return "buy-hold" }

// Params returns the resolved parameters.
func (s *BuyHold) Params() strategy.Params { return s.params }

// WarmUp is a single bar; buy-and-hold needs no indicator history.
func (s *BuyHold) WarmUp() int { return 1 }

// Risk returns the engine-enforced stop/take thresholds.
func (s *BuyHold) Risk() strategy.RiskParams { return riskFrom(s.params) }

// Decide emits a single BUY on the first bar where the account is flat and
// has never traded.
func (s *BuyHold) Decide(c strategy.Context) domain.OrderIntent {
	if c.Position.Flat() && c.TradeCount == 0 {
		return domain.OrderIntent{Side: domain.SideBuy, BarIndex: c.Index}
	}
	return domain.None(c.Index)
}
