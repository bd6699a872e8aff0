// Package replay tracks what has already been consumed from the host's
// append-only time & sales log.
//
// Some hosts stamp records with a monotonic sequence number, some expose
// only positional indices. The strategy is detected once per source by
// probing a recent window of records and is never re-probed mid-stream.
package replay

import (
	"github.com/jackson97300/mia-chart-dumper/internal/model"
)

// Strategy selects how the cursor identifies already-consumed records.
type Strategy int

const (
	// IndexBased tracks the count of records previously seen.
	IndexBased Strategy = iota
	// SequenceBased tracks the highest nonzero sequence number emitted.
	SequenceBased
)

func (s Strategy) String() string {
	if s == SequenceBased {
		return "sequence"
	}
	return "index"
}

// DefaultProbeWindow is how many trailing records DetectStrategy inspects.
const DefaultProbeWindow = 50

// DetectStrategy probes the most recent window records for a nonzero
// sequence number. Pure: it never mutates anything. window <= 0 uses
// DefaultProbeWindow.
func DetectStrategy(records []model.TimeAndSale, window int) Strategy {
	if window <= 0 {
		window = DefaultProbeWindow
	}
	start := len(records) - window
	if start < 0 {
		start = 0
	}
	for i := len(records) - 1; i >= start; i-- {
		if records[i].Sequence > 0 {
			return SequenceBased
		}
	}
	return IndexBased
}

// Cursor consumes an append-only record slice incrementally. Not safe for
// concurrent use; each source owns one cursor.
type Cursor struct {
	probeWindow int
	detected    bool
	strategy    Strategy

	lastSeq   uint64 // SequenceBased: highest sequence emitted
	lastIndex int    // IndexBased: count of records consumed
	seen      int    // record count at the previous poll, for truncation detection
}

// NewCursor creates an uninitialized cursor. The strategy is chosen on the
// first non-empty poll.
func NewCursor(probeWindow int) *Cursor {
	if probeWindow <= 0 {
		probeWindow = DefaultProbeWindow
	}
	return &Cursor{probeWindow: probeWindow}
}

// Strategy returns the detected strategy. Meaningful only after the first
// non-empty poll.
func (c *Cursor) Strategy() Strategy {
	return c.strategy
}

// Poll returns every record that became available since the previous poll,
// in source order, and advances the cursor past them.
//
// If the source shrank below the cursor's position the host purged its
// history: the cursor resets to the start of the (new, shorter) log and
// reports reset=true. That trades at-most-once for at-least-once across
// the purge; downstream consumers aggregate idempotently.
func (c *Cursor) Poll(records []model.TimeAndSale) (emitted []model.TimeAndSale, reset bool) {
	if len(records) < c.seen {
		c.lastSeq = 0
		c.lastIndex = 0
		reset = true
	}
	c.seen = len(records)

	if !c.detected && len(records) > 0 {
		c.strategy = DetectStrategy(records, c.probeWindow)
		c.detected = true
	}

	switch c.strategy {
	case SequenceBased:
		for _, r := range records {
			// Sequence 0 means not yet assigned: skip without advancing,
			// the record will carry its real sequence on a later poll.
			if r.Sequence == 0 {
				continue
			}
			if r.Sequence <= c.lastSeq {
				continue
			}
			emitted = append(emitted, r)
			c.lastSeq = r.Sequence
		}
	default:
		if c.lastIndex < len(records) {
			emitted = append(emitted, records[c.lastIndex:]...)
		}
		c.lastIndex = len(records)
	}
	return emitted, reset
}
