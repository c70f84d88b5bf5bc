package domain

import "time"

// BarSeries is an immutable, validated, strictly ascending sequence of bars.
// Construct one through NewBarSeries; accessors return copies so callers can
// safely share a series across concurrent backtest runs.
type BarSeries struct {
	bars []Bar
}

// NewBarSeries validates the given bars and returns a read-only series. It
// fails with a ValidationError on non-monotonic or duplicate timestamps,
// negative prices or volume, NaN values, or OHLC inversions.
func NewBarSeries(bars []Bar) (*BarSeries, error) {
	if len(bars) == 0 {
		return nil, &ValidationError{Index: -1, Msg: "empty bar series"}
	}

	for i, b := range bars {
		if err := validateBar(i, b); err != nil {
			return nil, err
		}
		if i > 0 && !bars[i-1].Timestamp.Before(b.Timestamp) {
			return nil, &ValidationError{Index: i, Msg: "timestamps must be strictly increasing"}
		}
	}

	owned := make([]Bar, len(bars))
	copy(owned, bars)
	return &BarSeries{bars: owned}, nil
}

func validateBar(i int, b Bar) error {
	if b.Timestamp.IsZero() {
		return &ValidationError{Index: i, Msg: "missing timestamp"}
	}
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close} {
		if v != v { // NaN
			return &ValidationError{Index: i, Msg: "price is NaN"}
		}
		if v < 0 {
			return &ValidationError{Index: i, Msg: "negative price"}
		}
	}
	if b.Volume < 0 {
		return &ValidationError{Index: i, Msg: "negative volume"}
	}
	lo := min(b.Open, b.Close)
	hi := max(b.Open, b.Close)
	if b.Low > lo {
		return &ValidationError{Index: i, Msg: "low exceeds min(open, close)"}
	}
	if b.High < hi {
		return &ValidationError{Index: i, Msg: "high below max(open, close)"}
	}
	return nil
}

// Len returns the number of bars in the series.
func (s *BarSeries) Len() int {
	return len(s.bars)
}

// At returns the bar at index i.
func (s *BarSeries) At(i int) Bar {
	return s.bars[i]
}

// First returns the earliest bar.
func (s *BarSeries) First() Bar {
	return s.bars[0]
}

// Last returns the latest bar.
func (s *BarSeries) Last() Bar {
	return s.bars[len(s.bars)-1]
}

// Start returns the timestamp of the first bar.
func (s *BarSeries) Start() time.Time {
	return s.bars[0].Timestamp
}

// End returns the timestamp of the last bar.
func (s *BarSeries) End() time.Time {
	return s.bars[len(s.bars)-1].Timestamp
}

// Bars returns a copy of the underlying bars.
func (s *BarSeries) Bars() []Bar {
	out := make([]Bar, len(s.bars))
	copy(out, s.bars)
	return out
}
