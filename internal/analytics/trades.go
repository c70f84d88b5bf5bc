package analytics

import "marketsim/internal/domain"

// TradeSummary aggregates the realized trades of a run. WinRate is zero when
// there are no trades, and ProfitFactor is nil when there are no losing
// trades, since both are legitimate outcomes rather than errors.
type TradeSummary struct {
	Total        int
	Winning      int
	Losing       int
	WinRate      float64
	AvgWin       float64
	AvgLoss      float64
	ProfitFactor *float64
}

// SummarizeTrades computes win/loss statistics over a list of realized
// trades. Trades with exactly zero PnL count toward the total but are
// neither wins nor losses.
func SummarizeTrades(trades []domain.Trade) TradeSummary {
	s := TradeSummary{Total: len(trades)}

	var grossWin, grossLoss float64
	for _, tr := range trades {
		switch {
		case tr.PnL > 0:
			s.Winning++
			grossWin += tr.PnL
		case tr.PnL < 0:
			s.Losing++
			grossLoss += -tr.PnL
		}
	}

	if s.Total > 0 {
		s.WinRate = float64(s.Winning) / float64(s.Total)
	}
	if s.Winning > 0 {
		s.AvgWin = grossWin / float64(s.Winning)
	}
	if s.Losing > 0 {
		s.AvgLoss = grossLoss / float64(s.Losing)
		pf := grossWin / grossLoss
		s.ProfitFactor = &pf
	}
	return s
}
