// Package indicator computes rolling statistics over a replayed close-price
// history. A History is advanced one bar at a time by the execution engine;
// all values are pure functions of the closes seen so far, so replay order
// fully determines every indicator value.
package indicator

import (
	"math"

	"marketsim/internal/domain"
)

// History is the close-price buffer advanced bar by bar. Helper methods
// compute indicator values at the current bar or, via the *At variants, at
// any earlier bar. The second return value reports whether enough history
// exists (the warm-up condition).
type History struct {
	closes []float64
}

// NewHistory creates a History with capacity for n bars.
func NewHistory(n int) *History {
	return &History{closes: make([]float64, 0, n)}
}

// Advance appends the bar's close to the history.
func (h *History) Advance(bar domain.Bar) {
	h.closes = append(h.closes, bar.Close)
}

// Len returns the number of bars seen so far.
func (h *History) Len() int {
	return len(h.closes)
}

// Close returns the close at index i.
func (h *History) Close(i int) float64 {
	return h.closes[i]
}

// SMA returns the simple moving average over the last period closes.
func (h *History) SMA(period int) (float64, bool) {
	return h.SMAAt(len(h.closes)-1, period)
}

// SMAAt returns the simple moving average of the period closes ending at
// index end (inclusive).
func (h *History) SMAAt(end, period int) (float64, bool) {
	if period <= 0 || end < 0 || end+1 < period || end >= len(h.closes) {
		return 0, false
	}
	var sum float64
	for _, c := range h.closes[end+1-period : end+1] {
		sum += c
	}
	return sum / float64(period), true
}

// StdDev returns the population standard deviation over the last period
// closes.
func (h *History) StdDev(period int) (float64, bool) {
	end := len(h.closes) - 1
	mean, ok := h.SMAAt(end, period)
	if !ok {
		return 0, false
	}
	var squareSum float64
	for _, c := range h.closes[end+1-period : end+1] {
		diff := c - mean
		squareSum += diff * diff
	}
	return math.Sqrt(squareSum / float64(period)), true
}

// Bollinger returns the upper, middle, and lower bands over the last period
// closes with the given deviation factor.
func (h *History) Bollinger(period int, dev float64) (upper, middle, lower float64, ok bool) {
	middle, ok = h.SMA(period)
	if !ok {
		return 0, 0, 0, false
	}
	sd, _ := h.StdDev(period)
	return middle + dev*sd, middle, middle - dev*sd, true
}

// RSI returns the relative strength index over the last period bar-to-bar
// changes, using simple averaging of gains and losses within the window.
// A window with no losses reads 100, no gains reads 0, and no movement at
// all reads the neutral 50.
func (h *History) RSI(period int) (float64, bool) {
	end := len(h.closes) - 1
	if period <= 0 || end < period {
		return 0, false
	}

	var gains, losses float64
	for i := end - period + 1; i <= end; i++ {
		change := h.closes[i] - h.closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	if gains == 0 && losses == 0 {
		return 50, true
	}
	if losses == 0 {
		return 100, true
	}
	rs := gains / losses
	return 100 - 100/(1+rs), true
}

// RunLength returns the signed length of the consecutive up (positive) or
// down (negative) close-to-close run ending at the current bar. A flat
// close breaks the run.
func (h *History) RunLength() int {
	end := len(h.closes) - 1
	if end < 1 {
		return 0
	}

	dir := sign(h.closes[end] - h.closes[end-1])
	if dir == 0 {
		return 0
	}
	run := dir
	for i := end - 1; i >= 1; i-- {
		if sign(h.closes[i]-h.closes[i-1]) != dir {
			break
		}
		run += dir
	}
	return run
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
