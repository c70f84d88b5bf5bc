// Package engine replays a bar series through a strategy decision function
// and a simulated account, producing a complete backtest result.
package engine

import (
	"marketsim/internal/analytics"
	"marketsim/internal/broker"
	"marketsim/internal/domain"
	"marketsim/internal/indicator"
	"marketsim/internal/strategy"
)

// Config holds the account parameters for a single backtest run.
type Config struct {
	// InitialCash is the starting account balance. Defaults to 100000.
	InitialCash float64
	// CommissionRate is charged as |fill price * size| * rate on every fill.
	CommissionRate float64
	// SizeFraction is the fraction of current equity committed on entry,
	// floor-divided by the fill price. Defaults to 0.95.
	SizeFraction float64
}

func (c Config) withDefaults() Config {
	if c.InitialCash == 0 {
		c.InitialCash = 100000
	}
	if c.SizeFraction == 0 {
		c.SizeFraction = 0.95
	}
	return c
}

// Run replays every bar of the series in order against the given strategy.
//
// Fills occur at the current bar's close, with no slippage beyond commission.
// This keeps runs reproducible but admits look-ahead relative to real T+1
// settlement, so callers comparing against live execution should expect
// optimistic fills. An open position at the last bar is left open; it is
// reflected in final equity but produces no trade record.
func Run(series *domain.BarSeries, strat strategy.Strategy, cfg Config) (*domain.BacktestResult, error) {
	cfg = cfg.withDefaults()
	warm := strat.WarmUp()
	if series.Len() < warm {
		return nil, &domain.InsufficientDataError{Have: series.Len(), Need: warm}
	}

	hist := indicator.NewHistory(series.Len())
	acct := broker.NewAccount(cfg.InitialCash, cfg.CommissionRate)
	risk := strat.Risk()

	for i := 0; i < series.Len(); i++ {
		bar := series.At(i)
		hist.Advance(bar)

		// Warm-up bars get an equity point but no decision.
		if i+1 < warm {
			acct.MarkToMarket(bar.Timestamp, bar.Close)
			continue
		}

		intent := strat.Decide(strategy.Context{
			Index:      i,
			Bar:        bar,
			History:    hist,
			Position:   acct.Position(),
			TradeCount: acct.TradeCount(),
		})

		// A stop-loss or take-profit breach overrides whatever the
		// strategy decided for this bar.
		if _, exit := riskExit(acct.Position(), bar.Close, risk); exit {
			intent = domain.OrderIntent{Side: domain.SideClose, BarIndex: i}
		}

		switch intent.Side {
		case domain.SideBuy:
			if acct.Position().Flat() {
				size := acct.EntrySize(bar.Close, cfg.SizeFraction)
				// A non-positive size (price exceeds available
				// cash) is a no-op, not a failure.
				acct.Buy(bar.Timestamp, i, bar.Close, size)
			}
		case domain.SideSell, domain.SideClose:
			acct.ClosePosition(bar.Timestamp, i, bar.Close)
		}

		acct.MarkToMarket(bar.Timestamp, bar.Close)
	}

	return assemble(strat, cfg, acct), nil
}

func assemble(strat strategy.Strategy, cfg Config, acct *broker.Account) *domain.BacktestResult {
	curve := acct.EquityCurve()
	finalEquity := cfg.InitialCash
	if len(curve) > 0 {
		finalEquity = curve[len(curve)-1].Equity
	}

	stats := analytics.SummarizeTrades(acct.Trades())
	return &domain.BacktestResult{
		Strategy:       strat.Name(),
		Params:         strat.Params().Clone(),
		InitialCash:    cfg.InitialCash,
		FinalEquity:    finalEquity,
		TotalReturnPct: analytics.TotalReturnPct(finalEquity, cfg.InitialCash),
		SharpeRatio:    analytics.Sharpe(analytics.Returns(curve), analytics.TradingDaysPerYear),
		MaxDrawdownPct: analytics.MaxDrawdownPct(curve),
		TotalTrades:    stats.Total,
		WinningTrades:  stats.Winning,
		LosingTrades:   stats.Losing,
		WinRate:        stats.WinRate,
		AvgWin:         stats.AvgWin,
		AvgLoss:        stats.AvgLoss,
		ProfitFactor:   stats.ProfitFactor,
		Trades:         acct.Trades(),
		EquityCurve:    curve,
	}
}
