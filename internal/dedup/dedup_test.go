package dedup

import (
	"testing"

	"github.com/jackson97300/mia-chart-dumper/internal/emit"
	"github.com/jackson97300/mia-chart-dumper/internal/model"
)

func TestEmit_SuppressesUnchanged(t *testing.T) {
	rec := emit.NewRecorder()
	w := NewWriter(rec)

	key := Key{Chart: 3, Kind: model.KindQuote}
	ev := model.QuoteEvent{T: 1, Type: model.KindQuote, Bid: 100.25, Ask: 100.50, BidQty: 5, AskQty: 7, ChartID: 3}

	for i := 0; i < 3; i++ {
		if _, err := w.Emit(key, ev); err != nil {
			t.Fatalf("Emit() error: %v", err)
		}
	}

	if got := len(rec.Events()); got != 1 {
		t.Errorf("emitted = %d, want 1", got)
	}
}

func TestEmit_WritesOnChange(t *testing.T) {
	rec := emit.NewRecorder()
	w := NewWriter(rec)

	key := Key{Chart: 3, Kind: model.KindQuote}
	a := model.QuoteEvent{T: 1, Type: model.KindQuote, Bid: 100.25, Ask: 100.50, ChartID: 3}
	b := a
	b.Bid = 100.00

	wrote, _ := w.Emit(key, a)
	if !wrote {
		t.Error("first Emit() wrote = false, want true")
	}
	wrote, _ = w.Emit(key, b)
	if !wrote {
		t.Error("changed Emit() wrote = false, want true")
	}
	wrote, _ = w.Emit(key, b)
	if wrote {
		t.Error("repeated Emit() wrote = true, want false")
	}

	if got := len(rec.Events()); got != 2 {
		t.Errorf("emitted = %d, want 2", got)
	}
}

func TestEmit_IgnoresTimestamp(t *testing.T) {
	rec := emit.NewRecorder()
	w := NewWriter(rec)

	key := Key{Chart: 3, Kind: "depth:ASK", Sub: 1}
	a := model.DepthEvent{T: 1, Type: model.KindDepth, Side: model.SideAsk, Level: 1, Price: 100.25, Size: 9, ChartID: 3}
	b := a
	b.T = 2 // same book level re-snapshotted later

	w.Emit(key, a)
	wrote, _ := w.Emit(key, b)
	if wrote {
		t.Error("re-snapshot differing only in timestamp was written")
	}
}

func TestEmit_KeysAreIndependent(t *testing.T) {
	rec := emit.NewRecorder()
	w := NewWriter(rec)

	ev := model.DepthEvent{T: 1, Type: model.KindDepth, Side: model.SideBid, Price: 100, Size: 5, ChartID: 3}

	// Same value under different keys must emit for each key.
	w.Emit(Key{Chart: 3, Kind: "depth:BID", Sub: 1}, ev)
	w.Emit(Key{Chart: 3, Kind: "depth:BID", Sub: 2}, ev)
	w.Emit(Key{Chart: 4, Kind: "depth:BID", Sub: 1}, ev)

	if got := len(rec.Events()); got != 3 {
		t.Errorf("emitted = %d, want 3", got)
	}
	if w.Len() != 3 {
		t.Errorf("Len() = %d, want 3", w.Len())
	}
}

// Two structurally different values must both be written even when their
// serialized forms could collide; comparison is structural, not textual.
func TestEmit_StructuralComparison(t *testing.T) {
	rec := emit.NewRecorder()
	w := NewWriter(rec)

	key := Key{Chart: 3, Kind: model.KindTrade}
	a := model.TradeEvent{T: 1, Type: model.KindTrade, Price: 100, Volume: 1, ChartID: 3}

	// Same fields but a different concrete type under the same key.
	b := model.QuoteEvent{T: 1, Type: model.KindQuote, Bid: 100, ChartID: 3}

	w.Emit(key, a)
	wrote, _ := w.Emit(key, b)
	if !wrote {
		t.Error("different event type under same key suppressed")
	}
}
