package synth

import (
	"math"
	"math/rand"
	"time"

	"marketsim/internal/domain"
)

// ohlcFromCloses synthesizes full OHLCV bars from a close-price path. The
// open is the prior close plus small gap noise, high and low inflate the bar
// body by independent half-normal intraday noise, and the final clamp keeps
// high >= max(open, close) and low <= min(open, close). The clamp runs after
// every perturbation, not only at construction.
func ohlcFromCloses(rng *rand.Rand, days []time.Time, closes []float64, baseVol float64) []domain.Bar {
	intradayVol := baseVol * 0.3

	bars := make([]domain.Bar, len(closes))
	for i, close := range closes {
		var open float64
		if i == 0 {
			open = close
		} else {
			gap := rng.NormFloat64() * intradayVol * 0.5
			open = max(closes[i-1]*(1+gap), floorPrice)
		}

		high := max(open, close) * (1 + math.Abs(rng.NormFloat64()*intradayVol))
		low := min(open, close) * (1 - math.Abs(rng.NormFloat64()*intradayVol))
		if low < 0 {
			low = 0
		}

		// Mandatory clamp: the noise above can only widen the bar, but the
		// invariant is restated here so any future perturbation stays safe.
		high = max(high, open, close)
		low = min(low, open, close)

		bars[i] = domain.Bar{
			Timestamp: days[i],
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    logNormalVolume(rng),
		}
	}
	return bars
}

// logNormalVolume draws a strictly positive volume from a log-normal
// distribution, independent of the price path. The parameters put the
// average around 100k shares.
func logNormalVolume(rng *rand.Rand) int64 {
	v := int64(math.Exp(rng.NormFloat64()*0.5 + 11))
	if v < 1 {
		v = 1
	}
	return v
}
