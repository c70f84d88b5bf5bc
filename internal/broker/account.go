// Package broker simulates a virtual brokerage account for backtesting:
// cash, a single position, commission, the mark-to-market equity curve, and
// the realized trade list. One Account serves exactly one backtest run and
// is mutated only by the execution engine.
package broker

import (
	"math"
	"time"

	"marketsim/internal/domain"
)

// Account is the single mutable ledger of a backtest run. The invariant
// equity == cash + position.Size * close holds at every bar: fills move
// value between cash and the position and only commissions leave the
// ledger.
type Account struct {
	cash            float64
	commissionRate  float64
	position        domain.Position
	entryCommission float64

	equityCurve []domain.EquityPoint
	trades      []domain.Trade
}

// NewAccount creates an Account holding initialCash with the given
// commission rate (e.g. 0.001 for 0.1% per fill).
func NewAccount(initialCash, commissionRate float64) *Account {
	return &Account{
		cash:           initialCash,
		commissionRate: commissionRate,
	}
}

// Cash returns the current free cash.
func (a *Account) Cash() float64 {
	return a.cash
}

// Position returns the current position.
func (a *Account) Position() domain.Position {
	return a.position
}

// Trades returns the realized round trips so far.
func (a *Account) Trades() []domain.Trade {
	return a.trades
}

// TradeCount returns the number of completed round trips.
func (a *Account) TradeCount() int {
	return len(a.trades)
}

// EquityCurve returns the mark-to-market samples recorded so far.
func (a *Account) EquityCurve() []domain.EquityPoint {
	return a.equityCurve
}

// Equity returns cash plus the position marked at the given price.
func (a *Account) Equity(price float64) float64 {
	return a.cash + a.position.Size*price
}

// MarkToMarket appends one equity point at the given timestamp and price.
func (a *Account) MarkToMarket(ts time.Time, price float64) {
	a.equityCurve = append(a.equityCurve, domain.EquityPoint{
		Timestamp: ts,
		Equity:    a.Equity(price),
	})
}

// EntrySize computes the whole-unit fill size for an entry at the given
// price using sizeFraction of current equity, capped so the purchase plus
// commission never exceeds free cash. A non-positive result means the order
// cannot be afforded and must be skipped.
func (a *Account) EntrySize(price, sizeFraction float64) float64 {
	if price <= 0 {
		return 0
	}
	budget := min(sizeFraction*a.Equity(price), a.cash)
	return math.Floor(budget / (price * (1 + a.commissionRate)))
}

// Buy opens or adds to the position at the given fill price and size,
// deducting the purchase cost and commission from cash. The entry price is
// the volume-weighted average when adding to an existing position.
func (a *Account) Buy(ts time.Time, barIndex int, price, size float64) {
	if size <= 0 {
		return
	}
	cost := price * size
	commission := math.Abs(cost) * a.commissionRate
	a.cash -= cost + commission
	a.entryCommission += commission

	newSize := a.position.Size + size
	a.position.AvgEntryPrice = (a.position.AvgEntryPrice*a.position.Size + price*size) / newSize
	if a.position.Size == 0 {
		a.position.EntryTime = ts
		a.position.EntryIndex = barIndex
	}
	a.position.Size = newSize
}

// ClosePosition sells the entire position at the given fill price, credits
// the proceeds net of commission to cash, and records the completed round
// trip. It is a no-op when the account is flat.
func (a *Account) ClosePosition(ts time.Time, barIndex int, price float64) {
	size := a.position.Size
	if size == 0 {
		return
	}
	proceeds := price * size
	commission := math.Abs(proceeds) * a.commissionRate
	a.cash += proceeds - commission

	pnl := (price-a.position.AvgEntryPrice)*size - a.entryCommission - commission
	notional := a.position.AvgEntryPrice * size
	var pnlPct float64
	if notional != 0 {
		pnlPct = pnl / math.Abs(notional) * 100
	}

	a.trades = append(a.trades, domain.Trade{
		EntryDate:  a.position.EntryTime,
		ExitDate:   ts,
		EntryPrice: a.position.AvgEntryPrice,
		ExitPrice:  price,
		Size:       size,
		PnL:        pnl,
		PnLPct:     pnlPct,
		Bars:       barIndex - a.position.EntryIndex,
	})

	a.position = domain.Position{}
	a.entryCommission = 0
}
