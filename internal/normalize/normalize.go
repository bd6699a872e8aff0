// Package normalize converts raw host prices into canonical tick-aligned
// values. The host delivers the same price in at least three scales (plain,
// multiplied by a real-time multiplier, and occasionally ×100), so the
// normalizer rescales heuristically before rounding to the tick.
package normalize

import "math"

// Config controls the rescale heuristic. The ×100 artifact is an upstream
// quirk with no documented trigger condition, so the threshold, divisor and
// pass count are configuration rather than constants.
type Config struct {
	RescaleThreshold float64 // Prices above this are assumed mis-scaled (default 10000)
	RescaleDivisor   float64 // Divisor applied on a suspected mis-scale (default 100)
	Passes           int     // Rescale+round passes; the first rounding can leave a residual artifact (default 2)
}

// DefaultConfig returns the values the host has historically needed.
func DefaultConfig() Config {
	return Config{
		RescaleThreshold: 10000,
		RescaleDivisor:   100,
		Passes:           2,
	}
}

// Normalizer rescales and tick-aligns raw prices. Stateless and safe to
// share across sources.
type Normalizer struct {
	cfg Config
}

// New creates a Normalizer, defaulting any zero config field.
func New(cfg Config) *Normalizer {
	def := DefaultConfig()
	if cfg.RescaleThreshold <= 0 {
		cfg.RescaleThreshold = def.RescaleThreshold
	}
	if cfg.RescaleDivisor <= 0 {
		cfg.RescaleDivisor = def.RescaleDivisor
	}
	if cfg.Passes <= 0 {
		cfg.Passes = def.Passes
	}
	return &Normalizer{cfg: cfg}
}

// Price converts a raw host price into a tick-aligned value.
//
// Steps: divide by the source's real-time multiplier (unset/zero means 1),
// then for each configured pass divide by the rescale divisor while the
// value exceeds the implausibility threshold and round to the tick.
//
// The second return is false when the input cannot be normalized: non-finite
// values, and zero or negative values which are passed through untouched for
// the caller to drop.
func (n *Normalizer) Price(raw, tickSize, multiplier float64) (float64, bool) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, false
	}
	if raw <= 0 {
		return raw, false
	}

	mult := multiplier
	if mult == 0 {
		mult = 1
	}
	px := raw / mult

	for pass := 0; pass < n.cfg.Passes; pass++ {
		if px > n.cfg.RescaleThreshold {
			px /= n.cfg.RescaleDivisor
		}
		px = RoundToTick(px, tickSize)
	}
	return px, true
}

// RoundToTick rounds px to the nearest multiple of tickSize. A non-positive
// tick size leaves the price untouched.
func RoundToTick(px, tickSize float64) float64 {
	if tickSize <= 0 {
		return px
	}
	return math.Round(px/tickSize) * tickSize
}
