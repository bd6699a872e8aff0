package emit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackson97300/mia-chart-dumper/internal/model"
)

func TestFileEmitter_AppendsLines(t *testing.T) {
	dir := t.TempDir()
	e := NewFileEmitter(dir, nil)
	defer e.Close()

	day := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return day }

	events := []model.Event{
		model.TradeEvent{T: 1, Sym: "ESZ5", Type: model.KindTrade, Price: 100.25, Volume: 3, ChartID: 3},
		model.TradeEvent{T: 2, Sym: "ESZ5", Type: model.KindTrade, Price: 100.50, Volume: 1, ChartID: 3},
	}
	for _, ev := range events {
		if err := e.Emit(3, ev); err != nil {
			t.Fatalf("Emit() error: %v", err)
		}
	}

	path := filepath.Join(dir, "chart_3_20250314.jsonl")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("partition not created: %v", err)
	}
	defer f.Close()

	var lines int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		if rec["type"] != "trade" {
			t.Errorf("type = %v, want trade", rec["type"])
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("lines = %d, want 2", lines)
	}
}

func TestFileEmitter_PartitionPerChart(t *testing.T) {
	dir := t.TempDir()
	e := NewFileEmitter(dir, nil)
	defer e.Close()

	day := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return day }

	e.Emit(3, model.TradeEvent{Type: model.KindTrade, Price: 1, Volume: 1})
	e.Emit(4, model.TradeEvent{Type: model.KindTrade, Price: 2, Volume: 1})

	for _, name := range []string{"chart_3_20250314.jsonl", "chart_4_20250314.jsonl"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing partition %s: %v", name, err)
		}
	}
}

func TestFileEmitter_DateRollover(t *testing.T) {
	dir := t.TempDir()
	e := NewFileEmitter(dir, nil)
	defer e.Close()

	day := time.Date(2025, 3, 14, 23, 59, 0, 0, time.UTC)
	e.now = func() time.Time { return day }
	e.Emit(3, model.TradeEvent{Type: model.KindTrade, Price: 1, Volume: 1})

	day = day.Add(2 * time.Minute)
	e.Emit(3, model.TradeEvent{Type: model.KindTrade, Price: 2, Volume: 1})

	for _, name := range []string{"chart_3_20250314.jsonl", "chart_3_20250315.jsonl"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing partition %s: %v", name, err)
		}
	}
}

func TestFileEmitter_LazyDirCreation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	e := NewFileEmitter(dir, nil)
	defer e.Close()

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatal("output dir should not exist before first write")
	}

	if err := e.Emit(3, model.TradeEvent{Type: model.KindTrade, Price: 1, Volume: 1}); err != nil {
		t.Fatalf("Emit() error: %v", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("output dir not created on first write: %v", err)
	}
}

func TestPartitionName(t *testing.T) {
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	got := PartitionName(10, day)
	if got != "chart_10_20250102.jsonl" {
		t.Errorf("PartitionName() = %q, want %q", got, "chart_10_20250102.jsonl")
	}
}
