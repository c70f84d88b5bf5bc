// Package strategy defines the Strategy interface for trading strategies and
// provides a factory Registry so strategies can be instantiated by name with
// per-run parameters.
package strategy

import (
	"fmt"
	"sort"

	"marketsim/internal/domain"
	"marketsim/internal/indicator"
)

// Params holds a strategy's numeric parameters keyed by name. Integer-valued
// parameters (window lengths) are stored as float64 and truncated on read.
type Params map[string]float64

// Get returns the parameter value, or def when the key is absent.
func (p Params) Get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Int returns the parameter truncated to int, or def when the key is absent.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}

// Clone returns a copy of the parameter map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// RiskParams are the stop-loss and take-profit fractions evaluated by the
// execution engine before the strategy's own exit signal. Zero disables the
// corresponding threshold.
type RiskParams struct {
	StopLoss   float64
	TakeProfit float64
}

// Context is everything a strategy may consult when deciding on one bar.
// Strategies are pure functions of this input: they hold no mutable state
// beyond the indicator history already advanced by the engine.
type Context struct {
	// Index is the current bar's position in the series.
	Index int
	// Bar is the current bar.
	Bar domain.Bar
	// History is the close-price history advanced through the current bar.
	History *indicator.History
	// Position is the account's current position.
	Position domain.Position
	// TradeCount is the number of completed round trips so far.
	TradeCount int
}

// Strategy is the interface all trading strategies implement.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Params returns the strategy's resolved parameters, defaults included.
	Params() Params

	// WarmUp returns the minimum number of bars required before Decide is
	// called. The engine records equity points during warm-up but skips
	// decision-making.
	WarmUp() int

	// Risk returns the stop-loss/take-profit fractions the engine enforces.
	Risk() RiskParams

	// Decide inspects the current bar and emits an order intent. It must be
	// a pure function of its input.
	Decide(c Context) domain.OrderIntent
}

// Factory constructs a strategy from parameters, failing with a
// ConfigurationError on invalid combinations (e.g. short window >= long
// window) before any simulation work begins.
type Factory func(params Params) (Strategy, error)

// Registry holds a named collection of strategy factories for lookup and
// enumeration.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a strategy factory to the registry under the given name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// New instantiates the named strategy with the given parameters. Unknown
// names surface a ConfigurationError.
func (r *Registry) New(name string, params Params) (Strategy, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, &domain.ConfigurationError{Msg: fmt.Sprintf("unknown strategy %q", name)}
	}
	return f(params)
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
