// Package domain defines the core data types shared across the marketsim
// backtesting system: OHLCV bars, order intents, positions, trades, and
// backtest results.
package domain

import "time"

// Side identifies the direction of an order intent.
type Side string

const (
	// SideNone means the strategy takes no action this bar.
	SideNone Side = "none"
	// SideBuy opens or adds to a long position.
	SideBuy Side = "buy"
	// SideSell exits a long position on a strategy signal.
	SideSell Side = "sell"
	// SideClose exits the position due to a stop-loss or take-profit breach.
	SideClose Side = "close"
)

// Bar is a single OHLCV sample for one time interval. A Bar is only valid
// when low <= min(open, close) <= max(open, close) <= high and all values
// are non-negative; NewBarSeries enforces this.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// OrderIntent is the transient output of a strategy decision for one bar.
// It is consumed immediately by the execution engine and never persisted.
type OrderIntent struct {
	Side Side
	// Size is the requested fill size. Zero means "let the engine size the
	// order" (entries use the configured equity fraction, exits close the
	// whole position).
	Size float64
	// BarIndex is the index of the bar that produced this intent.
	BarIndex int
}

// None is the no-action intent for the given bar index.
func None(barIndex int) OrderIntent {
	return OrderIntent{Side: SideNone, BarIndex: barIndex}
}

// Position is a signed holding in the simulated instrument. Size zero means
// flat. It is owned by the broker account and mutated only through fills.
type Position struct {
	Size          float64
	AvgEntryPrice float64
	EntryTime     time.Time
	EntryIndex    int
}

// Flat reports whether the position holds no quantity.
func (p Position) Flat() bool {
	return p.Size == 0
}

// Trade records one completed round trip: a position opened and later
// returned to flat. Immutable once recorded.
type Trade struct {
	EntryDate  time.Time
	ExitDate   time.Time
	EntryPrice float64
	ExitPrice  float64
	Size       float64
	// PnL is the realized profit after entry and exit commissions.
	PnL float64
	// PnLPct is PnL relative to the entry notional, in percent.
	PnLPct float64
	// Bars is the trade duration measured in bar count.
	Bars int
}

// EquityPoint is one mark-to-market sample of the account value.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// BacktestResult is the read-only outcome of one completed engine run.
type BacktestResult struct {
	Strategy    string
	Params      map[string]float64
	InitialCash float64
	FinalEquity float64

	TotalReturnPct float64
	// SharpeRatio is nil when the per-bar return variance is zero.
	SharpeRatio    *float64
	MaxDrawdownPct float64

	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	AvgWin        float64
	AvgLoss       float64
	// ProfitFactor is nil when there are no losing trades.
	ProfitFactor *float64

	Trades      []Trade
	EquityCurve []EquityPoint
}
