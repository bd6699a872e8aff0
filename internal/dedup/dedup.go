// Package dedup suppresses re-emission of unchanged event values.
//
// Every logical stream (one chart, one event kind, one sub-index such as a
// depth level or bar) keeps the last event emitted for it. A new event is
// written only when it differs structurally from the stored one. The map
// grows with distinct keys and is never evicted; key cardinality is bounded
// by chart count × level count × event kinds.
package dedup

import (
	"github.com/jackson97300/mia-chart-dumper/internal/emit"
	"github.com/jackson97300/mia-chart-dumper/internal/model"
)

// Key identifies one logical value stream.
type Key struct {
	Chart int    // Source chart id
	Kind  string // Semantic type, may carry a qualifier (e.g. "depth:BID")
	Sub   int    // Sub-index: depth level, bar index, 0 when unused
}

// Writer wraps an Emitter and drops writes whose value has not changed.
type Writer struct {
	out  emit.Emitter
	last map[Key]model.Event
}

// NewWriter creates a Writer emitting through out.
func NewWriter(out emit.Emitter) *Writer {
	return &Writer{
		out:  out,
		last: make(map[Key]model.Event),
	}
}

// Emit writes ev for key unless it equals the last event written for that
// key. Comparison is structural: all event types are flat comparable
// structs, so interface equality compares field by field. Timestamps are
// cleared before comparing, otherwise a re-snapshot of an unchanged value
// would never be suppressed. Returns whether the event was written.
func (w *Writer) Emit(key Key, ev model.Event) (bool, error) {
	cur := timeless(ev)
	if prev, ok := w.last[key]; ok && prev == cur {
		return false, nil
	}
	if err := w.out.Emit(key.Chart, ev); err != nil {
		return false, err
	}
	w.last[key] = cur
	return true, nil
}

// timeless returns a copy of ev with its timestamp cleared.
func timeless(ev model.Event) model.Event {
	switch e := ev.(type) {
	case model.BaseDataEvent:
		e.T = 0
		return e
	case model.QuoteEvent:
		e.T = 0
		return e
	case model.TradeEvent:
		e.T = 0
		return e
	case model.DepthEvent:
		e.T = 0
		return e
	case model.VWAPEvent:
		e.T = 0
		return e
	case model.PVWAPEvent:
		e.T = 0
		return e
	case model.VVAEvent:
		e.T = 0
		return e
	case model.NBCVEvent:
		e.T = 0
		return e
	case model.NBCVMetricsEvent:
		e.T = 0
		return e
	case model.NBCVOrderFlowEvent:
		e.T = 0
		return e
	case model.IndexEvent:
		e.T = 0
		return e
	case model.LevelEvent:
		e.T = 0
		return e
	case model.DiagEvent:
		e.T = 0
		return e
	default:
		return ev
	}
}

// Len returns the number of distinct keys seen.
func (w *Writer) Len() int {
	return len(w.last)
}
