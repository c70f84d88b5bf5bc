package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"marketsim/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ResultStore = (*SQLiteStore)(nil)

// SQLiteStore implements ResultStore backed by a SQLite database. Results go
// into a backtest_results table with a child trades table keyed by the
// parent's auto-incrementing id.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS backtest_results (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	strategy         TEXT    NOT NULL,
	params           TEXT    NOT NULL,
	initial_cash     REAL    NOT NULL,
	final_equity     REAL    NOT NULL,
	total_return_pct REAL    NOT NULL,
	sharpe_ratio     REAL,
	max_drawdown_pct REAL    NOT NULL,
	total_trades     INTEGER NOT NULL,
	winning_trades   INTEGER NOT NULL,
	losing_trades    INTEGER NOT NULL,
	win_rate         REAL    NOT NULL,
	avg_win          REAL    NOT NULL,
	avg_loss         REAL    NOT NULL,
	profit_factor    REAL,
	created_at       TEXT    NOT NULL
);
CREATE TABLE IF NOT EXISTS trades (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	backtest_id INTEGER NOT NULL REFERENCES backtest_results(id) ON DELETE CASCADE,
	entry_date  TEXT    NOT NULL,
	exit_date   TEXT    NOT NULL,
	entry_price REAL    NOT NULL,
	exit_price  REAL    NOT NULL,
	size        REAL    NOT NULL,
	pnl         REAL    NOT NULL,
	pnl_pct     REAL    NOT NULL,
	bars        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_backtest ON trades(backtest_id);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and applies
// the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveResult inserts the result and its trades in one transaction and
// returns the assigned result id.
func (s *SQLiteStore) SaveResult(ctx context.Context, res *domain.BacktestResult) (int64, error) {
	params, err := json.Marshal(res.Params)
	if err != nil {
		return 0, fmt.Errorf("encoding params: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	r, err := tx.ExecContext(ctx, `
		INSERT INTO backtest_results (
			strategy, params, initial_cash, final_equity,
			total_return_pct, sharpe_ratio, max_drawdown_pct,
			total_trades, winning_trades, losing_trades,
			win_rate, avg_win, avg_loss, profit_factor, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.Strategy, string(params), res.InitialCash, res.FinalEquity,
		res.TotalReturnPct, nullable(res.SharpeRatio), res.MaxDrawdownPct,
		res.TotalTrades, res.WinningTrades, res.LosingTrades,
		res.WinRate, res.AvgWin, res.AvgLoss, nullable(res.ProfitFactor),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting result: %w", err)
	}
	id, err := r.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, tr := range res.Trades {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO trades (
				backtest_id, entry_date, exit_date, entry_price,
				exit_price, size, pnl, pnl_pct, bars
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, tr.EntryDate.UTC().Format(time.RFC3339),
			tr.ExitDate.UTC().Format(time.RFC3339),
			tr.EntryPrice, tr.ExitPrice, tr.Size, tr.PnL, tr.PnLPct, tr.Bars,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting trade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetResult loads a result and its trades by id.
func (s *SQLiteStore) GetResult(ctx context.Context, id int64) (*domain.BacktestResult, error) {
	var (
		res       domain.BacktestResult
		paramsRaw string
		sharpe    sql.NullFloat64
		pf        sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT strategy, params, initial_cash, final_equity,
		       total_return_pct, sharpe_ratio, max_drawdown_pct,
		       total_trades, winning_trades, losing_trades,
		       win_rate, avg_win, avg_loss, profit_factor
		FROM backtest_results WHERE id = ?`, id,
	).Scan(
		&res.Strategy, &paramsRaw, &res.InitialCash, &res.FinalEquity,
		&res.TotalReturnPct, &sharpe, &res.MaxDrawdownPct,
		&res.TotalTrades, &res.WinningTrades, &res.LosingTrades,
		&res.WinRate, &res.AvgWin, &res.AvgLoss, &pf,
	)
	if err != nil {
		return nil, fmt.Errorf("loading result %d: %w", id, err)
	}

	res.Params = map[string]float64{}
	if err := json.Unmarshal([]byte(paramsRaw), &res.Params); err != nil {
		return nil, fmt.Errorf("decoding params: %w", err)
	}
	if sharpe.Valid {
		res.SharpeRatio = &sharpe.Float64
	}
	if pf.Valid {
		res.ProfitFactor = &pf.Float64
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_date, exit_date, entry_price, exit_price,
		       size, pnl, pnl_pct, bars
		FROM trades WHERE backtest_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("loading trades for result %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tr       domain.Trade
			entryRaw string
			exitRaw  string
		)
		if err := rows.Scan(&entryRaw, &exitRaw, &tr.EntryPrice, &tr.ExitPrice,
			&tr.Size, &tr.PnL, &tr.PnLPct, &tr.Bars); err != nil {
			return nil, err
		}
		if tr.EntryDate, err = time.Parse(time.RFC3339, entryRaw); err != nil {
			return nil, fmt.Errorf("parsing entry date %q: %w", entryRaw, err)
		}
		if tr.ExitDate, err = time.Parse(time.RFC3339, exitRaw); err != nil {
			return nil, fmt.Errorf("parsing exit date %q: %w", exitRaw, err)
		}
		res.Trades = append(res.Trades, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListResults returns summaries of the most recent results, newest first.
func (s *SQLiteStore) ListResults(ctx context.Context, strategyName string, limit int) ([]ResultSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, strategy, total_return_pct, max_drawdown_pct,
		       total_trades, created_at
		FROM backtest_results`
	args := []any{}
	if strategyName != "" {
		query += ` WHERE strategy = ?`
		args = append(args, strategyName)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ResultSummary
	for rows.Next() {
		var (
			sum       ResultSummary
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &sum.Strategy, &sum.TotalReturnPct,
			&sum.MaxDrawdownPct, &sum.TotalTrades, &createdAt); err != nil {
			return nil, err
		}
		if sum.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
