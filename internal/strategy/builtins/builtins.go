// Package builtins provides the built-in strategy implementations that ship
// with marketsim. Every builtin supports independent stop_loss and
// take_profit fractions, enforced by the execution engine rather than the
// strategy itself.
package builtins

import "marketsim/internal/strategy"

// RegisterAll registers every built-in strategy factory.
func RegisterAll(r *strategy.Registry) {
	r.Register("sma-cross", NewSMACross)
	r.Register("rsi", NewRSI)
	r.Register("bollinger", NewBollinger)
	r.Register("momentum", NewMomentum)
	r.Register("mean-reversion", NewMeanReversion)
	r.Register("buy-hold", NewBuyHold)
}

// resolve merges the caller's params over the strategy defaults so results
// report the full effective parameter set.
func resolve(params strategy.Params, defaults strategy.Params) strategy.Params {
	out := defaults.Clone()
	for k, v := range params {
		out[k] = v
	}
	return out
}

// riskFrom extracts the engine-enforced stop/take thresholds.
func riskFrom(p strategy.Params) strategy.RiskParams {
	return strategy.RiskParams{
		StopLoss:   p.Get("stop_loss", 0),
		TakeProfit: p.Get("take_profit", 0),
	}
}
