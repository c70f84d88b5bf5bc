// Package analytics computes performance and trade statistics from the
// artifacts of a backtest run.
package analytics

import (
	"math"

	"marketsim/internal/domain"
)

// TradingDaysPerYear is the annualization factor for daily-bar Sharpe ratios.
const TradingDaysPerYear = 252

// TotalReturnPct is the percentage return of final equity over initial cash.
func TotalReturnPct(finalEquity, initialCash float64) float64 {
	if initialCash == 0 {
		return 0
	}
	return (finalEquity/initialCash - 1) * 100
}

// Returns derives the per-bar simple return series from an equity curve.
// A curve with fewer than two points has no returns.
func Returns(curve []domain.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, curve[i].Equity/prev-1)
	}
	return out
}

// Sharpe is the annualized Sharpe ratio of the return series, assuming a
// zero risk-free rate. Returns nil when the series is empty or has zero
// variance, since the ratio is undefined there rather than zero.
func Sharpe(returns []float64, annualization float64) *float64 {
	if len(returns) == 0 {
		return nil
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sq float64
	for _, r := range returns {
		d := r - mean
		sq += d * d
	}
	sd := math.Sqrt(sq / float64(len(returns)))
	if sd == 0 {
		return nil
	}
	v := mean / sd * math.Sqrt(annualization)
	return &v
}

// MaxDrawdownPct is the largest peak-to-trough decline of the equity curve,
// tracked against a running maximum, as a positive percentage. A curve that
// never declines has zero drawdown.
func MaxDrawdownPct(curve []domain.EquityPoint) float64 {
	var peak, worst float64
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak * 100
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
