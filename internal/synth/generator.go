// Package synth generates synthetic OHLCV bar series under several
// stochastic process models. Generation is deterministic for a given seed:
// the same parameters always produce an identical series.
package synth

import (
	"math/rand"
	"time"

	"marketsim/internal/domain"
	"marketsim/internal/util"
)

// Model selects the stochastic process used for the close-price path.
type Model string

const (
	// ModelGBM draws daily returns from Normal(drift, volatility).
	ModelGBM Model = "gbm"
	// ModelTrending is GBM with the drift interpreted as trend strength.
	ModelTrending Model = "trending"
	// ModelMeanReverting follows an Ornstein-Uhlenbeck process around a
	// long-run mean.
	ModelMeanReverting Model = "mean-reverting"
	// ModelRegimeSwitching cycles deterministically through a list of
	// (duration, drift, volatility) regimes.
	ModelRegimeSwitching Model = "regime-switching"
	// ModelRandomWalk takes uniform price steps in [-step, step].
	ModelRandomWalk Model = "random-walk"
)

// floorPrice is the clamp applied after every stochastic perturbation so
// prices stay strictly positive. This is a deliberate deviation from pure
// GBM, which cannot produce non-positive prices but whose discrete
// approximation here can.
const floorPrice = 0.01

// Regime is one contiguous span of bars generated under a fixed drift and
// volatility pair.
type Regime struct {
	Duration   int
	Drift      float64
	Volatility float64
}

// defaultRegimes alternates a bull market, a bear market, and a sideways
// stretch.
var defaultRegimes = []Regime{
	{Duration: 250, Drift: 0.001, Volatility: 0.015},
	{Duration: 120, Drift: -0.002, Volatility: 0.035},
	{Duration: 180, Drift: 0.0005, Volatility: 0.02},
}

// ProcessParams configures one generation call. Constructed per call, not
// persisted.
type ProcessParams struct {
	Model Model
	Start time.Time
	End   time.Time

	InitialPrice float64
	Volatility   float64
	Drift        float64

	// Seed makes generation reproducible. Zero seeds from the wall clock.
	Seed int64

	// ReversionSpeed and LongRunMean apply to ModelMeanReverting.
	// LongRunMean defaults to InitialPrice.
	ReversionSpeed float64
	LongRunMean    float64

	// Regimes applies to ModelRegimeSwitching; nil uses defaultRegimes.
	Regimes []Regime

	// StepSize applies to ModelRandomWalk; zero defaults to 1.0.
	StepSize float64

	// WeekdaysOnly drops Saturdays and Sundays from the date sequence.
	WeekdaysOnly bool
}

// Generate produces a validated bar series under the configured model. It
// fails with an InvalidParameterError when the initial price is not positive
// or the date range is empty or inverted.
func Generate(params ProcessParams) (*domain.BarSeries, error) {
	if params.InitialPrice <= 0 {
		return nil, &domain.InvalidParameterError{Param: "initial_price", Msg: "must be positive"}
	}
	if params.Volatility < 0 {
		return nil, &domain.InvalidParameterError{Param: "volatility", Msg: "must be non-negative"}
	}

	var days []time.Time
	if params.WeekdaysOnly {
		days = util.WeekdaySequence(params.Start, params.End)
	} else {
		days = util.DaySequence(params.Start, params.End)
	}
	if len(days) == 0 {
		return nil, &domain.InvalidParameterError{Param: "date_range", Msg: "empty or inverted"}
	}

	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var closes []float64
	ohlcVol := params.Volatility
	switch params.Model {
	case ModelGBM, ModelTrending, "":
		closes = gbmPath(rng, len(days), params.InitialPrice, params.Drift, params.Volatility)
	case ModelMeanReverting:
		closes = ouPath(rng, len(days), params)
	case ModelRegimeSwitching:
		regimes := params.Regimes
		if len(regimes) == 0 {
			regimes = defaultRegimes
		}
		closes = regimePath(rng, len(days), params.InitialPrice, regimes)
		if ohlcVol == 0 {
			ohlcVol = 0.02
		}
	case ModelRandomWalk:
		step := params.StepSize
		if step == 0 {
			step = 1.0
		}
		closes = randomWalkPath(rng, len(days), params.InitialPrice, step)
		if ohlcVol == 0 {
			ohlcVol = 0.02
		}
	default:
		return nil, &domain.InvalidParameterError{Param: "model", Msg: "unknown model " + string(params.Model)}
	}

	bars := ohlcFromCloses(rng, days, closes, ohlcVol)

	// Generated output goes through the same validation as any other
	// bar series source.
	return domain.NewBarSeries(bars)
}

// gbmPath applies the geometric Brownian motion recursion
// p_t = max(p_{t-1} * (1 + r_t), floorPrice) with r_t ~ Normal(drift, vol).
func gbmPath(rng *rand.Rand, n int, initial, drift, vol float64) []float64 {
	closes := make([]float64, n)
	closes[0] = initial
	for i := 1; i < n; i++ {
		r := rng.NormFloat64()*vol + drift
		closes[i] = max(closes[i-1]*(1+r), floorPrice)
	}
	return closes
}

// ouPath applies the Ornstein-Uhlenbeck recursion
// p_t = p_{t-1} + kappa*(mu - p_{t-1})*dt + vol*p_{t-1}*eps_t with dt = 1.
func ouPath(rng *rand.Rand, n int, params ProcessParams) []float64 {
	kappa := params.ReversionSpeed
	if kappa == 0 {
		kappa = 0.1
	}
	mu := params.LongRunMean
	if mu == 0 {
		mu = params.InitialPrice
	}

	closes := make([]float64, n)
	closes[0] = params.InitialPrice
	for i := 1; i < n; i++ {
		p := closes[i-1]
		next := p + kappa*(mu-p) + params.Volatility*p*rng.NormFloat64()
		closes[i] = max(next, floorPrice)
	}
	return closes
}

// regimePath cycles through the regimes by elapsed bar count, applying the
// GBM recursion with the active regime's drift and volatility.
func regimePath(rng *rand.Rand, n int, initial float64, regimes []Regime) []float64 {
	closes := make([]float64, n)
	closes[0] = initial

	current := 0
	barsInRegime := 0
	for i := 1; i < n; i++ {
		if barsInRegime >= regimes[current].Duration {
			current = (current + 1) % len(regimes)
			barsInRegime = 0
		}
		reg := regimes[current]
		r := rng.NormFloat64()*reg.Volatility + reg.Drift
		closes[i] = max(closes[i-1]*(1+r), floorPrice)
		barsInRegime++
	}
	return closes
}

// randomWalkPath takes uniform steps in [-step, step].
func randomWalkPath(rng *rand.Rand, n int, initial, step float64) []float64 {
	closes := make([]float64, n)
	closes[0] = initial
	for i := 1; i < n; i++ {
		delta := (rng.Float64()*2 - 1) * step
		closes[i] = max(closes[i-1]+delta, floorPrice)
	}
	return closes
}
