package session

import (
	"sort"

	"github.com/jackson97300/mia-chart-dumper/internal/model"
)

// DefaultValueAreaFraction is the share of total volume the value area must
// cover.
const DefaultValueAreaFraction = 0.70

// ValueArea summarizes a volume-at-price distribution: the single price
// with the most volume and the contiguous high/low bounds of the area
// holding at least the requested volume fraction.
type ValueArea struct {
	High float64 // Upper bound of the value area
	Low  float64 // Lower bound of the value area
	POC  float64 // Point of control: price with the most volume
}

// ComputeValueArea builds the value area of a distribution. fraction <= 0
// uses DefaultValueAreaFraction. ok is false for an empty or zero-volume
// distribution.
func ComputeValueArea(dist []model.VolumeAtPrice, fraction float64) (ValueArea, bool) {
	if fraction <= 0 || fraction > 1 {
		fraction = DefaultValueAreaFraction
	}

	// Merge duplicate prices, then sort ascending.
	byPrice := make(map[float64]float64, len(dist))
	var total float64
	for _, s := range dist {
		if s.Volume <= 0 {
			continue
		}
		byPrice[s.Price] += s.Volume
		total += s.Volume
	}
	if total <= 0 {
		return ValueArea{}, false
	}

	prices := make([]float64, 0, len(byPrice))
	for p := range byPrice {
		prices = append(prices, p)
	}
	sort.Float64s(prices)

	// Point of control: max volume, lower price on a tie.
	poc := 0
	for i, p := range prices {
		if byPrice[p] > byPrice[prices[poc]] {
			poc = i
		}
	}

	// Expand greedily from the POC, taking the heavier neighbor first,
	// until the area covers the requested fraction.
	lo, hi := poc, poc
	covered := byPrice[prices[poc]]
	target := fraction * total
	for covered < target && (lo > 0 || hi < len(prices)-1) {
		var below, above float64
		if lo > 0 {
			below = byPrice[prices[lo-1]]
		}
		if hi < len(prices)-1 {
			above = byPrice[prices[hi+1]]
		}
		if above > below || lo == 0 {
			hi++
			covered += above
		} else {
			lo--
			covered += below
		}
	}

	return ValueArea{
		High: prices[hi],
		Low:  prices[lo],
		POC:  prices[poc],
	}, true
}

// WindowDistribution collects the volume-at-price samples of every bar in
// [start, end] into one distribution.
func WindowDistribution(start, end int, vap func(bar int) []model.VolumeAtPrice) []model.VolumeAtPrice {
	var out []model.VolumeAtPrice
	for b := start; b <= end; b++ {
		out = append(out, vap(b)...)
	}
	return out
}
