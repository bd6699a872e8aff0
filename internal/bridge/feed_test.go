package bridge

import (
	"testing"

	"github.com/jackson97300/mia-chart-dumper/internal/model"
	"github.com/jackson97300/mia-chart-dumper/internal/source"
)

type countingNotifier struct {
	calls int
}

func (n *countingNotifier) Notify() { n.calls++ }

func newTestFeed() (*Feed, *source.Hub) {
	hub := source.NewHub()
	return NewFeed(DefaultFeedConfig(), hub, nil), hub
}

func TestApply_Instrument(t *testing.T) {
	feed, hub := newTestFeed()

	msg := `{"type":"instrument","chart":3,"sym":"ESZ6","tick":0.25,"mult":1}`
	if err := feed.Apply([]byte(msg)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	st := hub.Store(3)
	if got := st.Symbol(); got != "ESZ6" {
		t.Errorf("Symbol() = %q, want %q", got, "ESZ6")
	}
	if got := st.TickSize(); got != 0.25 {
		t.Errorf("TickSize() = %v, want 0.25", got)
	}
}

func TestApply_BarAndNotify(t *testing.T) {
	feed, hub := newTestFeed()
	n := &countingNotifier{}
	feed.Register(3, n)

	msg := `{"type":"bar","chart":3,"i":0,"t":1000,"o":100,"h":100.25,"l":99.75,"c":100,"v":12,"newday":true}`
	if err := feed.Apply([]byte(msg)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	bars := hub.Store(3).Bars()
	if len(bars) != 1 {
		t.Fatalf("bar count = %d, want 1", len(bars))
	}
	want := model.Bar{T: 1000, Open: 100, High: 100.25, Low: 99.75, Close: 100, Volume: 12, NewDay: true}
	if bars[0] != want {
		t.Errorf("bar = %+v, want %+v", bars[0], want)
	}
	if n.calls != 1 {
		t.Errorf("notify calls = %d, want 1", n.calls)
	}

	// A message for another chart must not wake this engine.
	other := `{"type":"bar","chart":4,"i":0,"t":1000,"o":1,"h":1,"l":1,"c":1,"v":1}`
	if err := feed.Apply([]byte(other)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if n.calls != 1 {
		t.Errorf("notify calls after other chart = %d, want 1", n.calls)
	}
}

func TestApply_DepthRejectsUnknownSide(t *testing.T) {
	feed, _ := newTestFeed()

	msg := `{"type":"depth","chart":3,"side":"MID","lvl":1,"price":100,"size":5}`
	if err := feed.Apply([]byte(msg)); err == nil {
		t.Fatal("Apply() error = nil, want unknown side error")
	}
	if got := feed.Stats().MessagesApplied; got != 0 {
		t.Errorf("MessagesApplied = %d, want 0", got)
	}
}

func TestApply_TimeAndSalesBatch(t *testing.T) {
	feed, hub := newTestFeed()

	msg := `{"type":"tns","chart":3,"records":[
		{"t":2001,"kind":"TRADE","px":100,"vol":2,"seq":1},
		{"t":2002,"kind":"BIDASK","bid":99.75,"ask":100,"bq":10,"aq":4,"seq":2}
	]}`
	if err := feed.Apply([]byte(msg)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	tns := hub.Store(3).TimeAndSales()
	if len(tns) != 2 {
		t.Fatalf("record count = %d, want 2", len(tns))
	}
	if tns[0].Kind != model.TnSTrade || tns[0].Sequence != 1 {
		t.Errorf("record 0 = %+v", tns[0])
	}
	if tns[1].Kind != model.TnSBidAsk || tns[1].Bid != 99.75 {
		t.Errorf("record 1 = %+v", tns[1])
	}

	trunc := `{"type":"tns_truncate","chart":3,"keep":1}`
	if err := feed.Apply([]byte(trunc)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := len(hub.Store(3).TimeAndSales()); got != 1 {
		t.Errorf("record count after truncate = %d, want 1", got)
	}
}

func TestApply_StudyMessages(t *testing.T) {
	feed, hub := newTestFeed()

	if err := feed.Apply([]byte(`{"type":"study_map","chart":3,"study_name":"Volume Weighted Average Price","study_id":7}`)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if err := feed.Apply([]byte(`{"type":"study_data","chart":3,"study_id":7,"sg":0,"values":[100,100.1]}`)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	st := hub.Store(3)
	id, ok := st.StudyIDByName("Volume Weighted Average Price")
	if !ok || id != 7 {
		t.Errorf("StudyIDByName() = %d, %v, want 7, true", id, ok)
	}
	arr, ok := st.StudySeries(7, 0)
	if !ok || len(arr) != 2 {
		t.Errorf("StudySeries() = %v, %v, want 2 values", arr, ok)
	}
}

func TestApply_UnknownType(t *testing.T) {
	feed, _ := newTestFeed()

	if err := feed.Apply([]byte(`{"type":"bogus","chart":3}`)); err == nil {
		t.Fatal("Apply() error = nil, want unknown type error")
	}
	if err := feed.Apply([]byte(`not json`)); err == nil {
		t.Fatal("Apply() error = nil, want decode error")
	}
}
