package consolidate

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParsePartitionName(t *testing.T) {
	tests := []struct {
		name      string
		wantChart int
		wantDay   string
		wantOK    bool
	}{
		{"chart_3_20260828.jsonl", 3, "2026-08-28", true},
		{"chart_10_20251231.jsonl", 10, "2025-12-31", true},
		{"chart_3_2026082.jsonl", 0, "", false},
		{"chart_x_20260828.jsonl", 0, "", false},
		{"trades_3_20260828.jsonl", 0, "", false},
		{"chart_3_20260828.jsonl.bak", 0, "", false},
	}

	for _, tt := range tests {
		p, ok := ParsePartitionName(tt.name)
		if ok != tt.wantOK {
			t.Errorf("ParsePartitionName(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if p.ChartID != tt.wantChart {
			t.Errorf("ParsePartitionName(%q) chart = %d, want %d", tt.name, p.ChartID, tt.wantChart)
		}
		if got := p.Day.Format("2006-01-02"); got != tt.wantDay {
			t.Errorf("ParsePartitionName(%q) day = %s, want %s", tt.name, got, tt.wantDay)
		}
	}
}

func TestScanPartitions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"chart_4_20260828.jsonl",
		"chart_3_20260828.jsonl",
		"chart_3_20260827.jsonl",
		"notes.txt",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ScanPartitions(dir)
	if err != nil {
		t.Fatalf("ScanPartitions() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("partition count = %d, want 3", len(got))
	}

	// Oldest day first, chart id breaking ties.
	if got[0].Day != time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC) {
		t.Errorf("first partition day = %v", got[0].Day)
	}
	if got[1].ChartID != 3 || got[2].ChartID != 4 {
		t.Errorf("tie order = chart %d, chart %d, want 3, 4", got[1].ChartID, got[2].ChartID)
	}
}

func TestParseLine(t *testing.T) {
	line := []byte(`{"t":1767225600.5,"sym":"ESZ6","type":"basedata","i":42,"c":100.25,"chart":3}`)

	rec, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}
	if rec.Type != "basedata" || rec.Chart != 3 {
		t.Errorf("envelope = %+v", rec.Envelope)
	}
	if rec.T != 1767225600.5 {
		t.Errorf("t = %v, want 1767225600.5", rec.T)
	}
	if string(rec.Raw) != string(line) {
		t.Errorf("raw not preserved")
	}
}

func TestParseLine_Rejects(t *testing.T) {
	if _, err := ParseLine([]byte(`not json`)); err == nil {
		t.Error("ParseLine(garbage) error = nil")
	}
	if _, err := ParseLine([]byte(`{"t":1,"chart":3}`)); err == nil {
		t.Error("ParseLine(no type) error = nil")
	}
}

func TestFingerprint(t *testing.T) {
	a, err := ParseLine([]byte(`{"t":1,"type":"quote","chart":3,"bid":99.75}`))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseLine([]byte(`{"t":1,"type":"quote","chart":3,"bid":99.75}`))
	if err != nil {
		t.Fatal(err)
	}
	c, err := ParseLine([]byte(`{"t":1,"type":"quote","chart":3,"bid":100.00}`))
	if err != nil {
		t.Fatal(err)
	}

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical lines produced different fingerprints")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different lines produced the same fingerprint")
	}
	if len(a.Fingerprint()) != 64 {
		t.Errorf("fingerprint length = %d, want 64", len(a.Fingerprint()))
	}
}
