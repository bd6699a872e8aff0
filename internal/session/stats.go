package session

import (
	"math"

	"github.com/jackson97300/mia-chart-dumper/internal/model"
)

// Window is an inclusive bar range.
type Window struct {
	Start int
	End   int
}

// CurrentStart returns the index of the first bar of the session containing
// current: it walks backward until a new-day bar (or index 0).
func CurrentStart(bars []model.Bar, current int) int {
	i := current
	for i > 0 && !bars[i].NewDay {
		i--
	}
	return i
}

// PreviousWindow returns the bar range of the session before the one
// containing current. ok is false when there is not enough history to hold
// a complete prior session.
func PreviousWindow(bars []model.Bar, current int) (Window, bool) {
	if current <= 0 || current >= len(bars) {
		return Window{}, false
	}

	currStart := CurrentStart(bars, current)
	if currStart <= 0 {
		return Window{}, false
	}

	prevEnd := currStart - 1
	prevStart := prevEnd
	for prevStart > 0 && !bars[prevStart].NewDay {
		prevStart--
	}
	return Window{Start: prevStart, End: prevEnd}, true
}

// Accumulator keeps volume-weighted running sums over price samples.
type Accumulator struct {
	sumV   float64
	sumPV  float64
	sumP2V float64
}

// Add folds one price/volume sample into the sums.
func (a *Accumulator) Add(price, volume float64) {
	a.sumV += volume
	a.sumPV += price * volume
	a.sumP2V += price * price * volume
}

// Stats is the derived volume-weighted summary.
type Stats struct {
	Mean   float64 // Volume-weighted mean price
	Sigma  float64 // Volume-weighted standard deviation
	Volume float64 // Total volume of the window
}

// Stats derives mean and sigma from the sums. ok is false when no volume
// was accumulated, in which case the mean is undefined and callers must
// emit a diagnostic rather than a stats record.
func (a *Accumulator) Stats() (Stats, bool) {
	if a.sumV <= 0 {
		return Stats{}, false
	}
	mean := a.sumPV / a.sumV

	// Floating-point cancellation can push the variance slightly negative.
	variance := a.sumP2V/a.sumV - mean*mean
	if variance < 0 {
		variance = 0
	}

	return Stats{
		Mean:   mean,
		Sigma:  math.Sqrt(variance),
		Volume: a.sumV,
	}, true
}

// bandKs are the multipliers of the symmetric band ladder.
var bandKs = [4]float64{0.5, 1.0, 1.5, 2.0}

// Bands holds up to four symmetric band pairs around the mean. Unrequested
// pairs stay zero.
type Bands struct {
	Up [4]float64
	Dn [4]float64
}

// Bands produces mean ± k·sigma for the first count multipliers of
// {0.5, 1.0, 1.5, 2.0}. count is clamped to [0, 4].
func (s Stats) Bands(count int) Bands {
	if count > len(bandKs) {
		count = len(bandKs)
	}
	var b Bands
	for i := 0; i < count; i++ {
		b.Up[i] = s.Mean + bandKs[i]*s.Sigma
		b.Dn[i] = s.Mean - bandKs[i]*s.Sigma
	}
	return b
}

// PreviousSessionStats accumulates every volume-at-price sample of the
// previous session and derives its stats. vap returns the volume-at-price
// decomposition of one bar; prices are expected already normalized by the
// caller. ok is false when no prior session exists or it carries no volume.
func PreviousSessionStats(bars []model.Bar, current int, vap func(bar int) []model.VolumeAtPrice) (Stats, Window, bool) {
	win, ok := PreviousWindow(bars, current)
	if !ok {
		return Stats{}, Window{}, false
	}

	var acc Accumulator
	for b := win.Start; b <= win.End; b++ {
		for _, s := range vap(b) {
			acc.Add(s.Price, s.Volume)
		}
	}

	stats, ok := acc.Stats()
	return stats, win, ok
}
