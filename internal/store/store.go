// Package store persists backtest results and bar data outside the
// simulation loop. The simulation core never opens a storage handle; callers
// hand finished artifacts to a store at the system boundary.
package store

import (
	"context"
	"time"

	"marketsim/internal/domain"
)

// ResultStore persists completed backtest results with their trades.
type ResultStore interface {
	// SaveResult inserts the result and its trades, returning the
	// assigned result id.
	SaveResult(ctx context.Context, res *domain.BacktestResult) (int64, error)
	// GetResult loads a result by id, including its trades. The equity
	// curve is not persisted and comes back empty.
	GetResult(ctx context.Context, id int64) (*domain.BacktestResult, error)
	// ListResults returns summaries of the most recent results for a
	// strategy, newest first, up to limit. An empty strategy matches all.
	ListResults(ctx context.Context, strategyName string, limit int) ([]ResultSummary, error)
}

// ResultSummary is a single row of the results listing.
type ResultSummary struct {
	ID             int64
	Strategy       string
	TotalReturnPct float64
	MaxDrawdownPct float64
	TotalTrades    int
	CreatedAt      time.Time
}

// BarStore persists named bar series.
type BarStore interface {
	WriteBars(ctx context.Context, name string, bars []domain.Bar) error
	ReadBars(ctx context.Context, name string, start, end time.Time) ([]domain.Bar, error)
	ListSeries(ctx context.Context) ([]string, error)
}
