package engine

import (
	"marketsim/internal/domain"
	"marketsim/internal/strategy"
)

// riskExit reports whether the open position should be force-closed at the
// given bar. Stop-loss is checked before take-profit, so a bar whose close
// breaches both thresholds exits as a stop. A threshold of zero disables
// that check.
func riskExit(pos domain.Position, close float64, risk strategy.RiskParams) (string, bool) {
	if pos.Flat() || pos.AvgEntryPrice <= 0 {
		return "", false
	}
	change := (close - pos.AvgEntryPrice) / pos.AvgEntryPrice
	if risk.StopLoss > 0 && change <= -risk.StopLoss {
		return "stop-loss", true
	}
	if risk.TakeProfit > 0 && change >= risk.TakeProfit {
		return "take-profit", true
	}
	return "", false
}
