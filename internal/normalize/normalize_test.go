package normalize

import (
	"math"
	"testing"
)

func TestPrice_TickRounding(t *testing.T) {
	n := New(Config{})

	tests := []struct {
		name string
		raw  float64
		tick float64
		mult float64
		want float64
	}{
		{"already aligned", 100.25, 0.25, 1, 100.25},
		{"rounds down", 100.30, 0.25, 1, 100.25},
		{"rounds up", 100.40, 0.25, 1, 100.50},
		{"quarter tick es", 4512.37, 0.25, 1, 4512.25},
		{"no tick passes through", 100.37, 0, 1, 100.37},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.Price(tt.raw, tt.tick, tt.mult)
			if !ok {
				t.Fatal("Price() not ok")
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Price(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPrice_Multiplier(t *testing.T) {
	n := New(Config{})

	// Host delivers 100x prices with a declared multiplier.
	got, ok := n.Price(900000, 0.25, 100)
	if !ok {
		t.Fatal("Price() not ok")
	}
	if math.Abs(got-9000.0) > 1e-9 {
		t.Errorf("Price() = %v, want 9000.0", got)
	}

	// The rescale heuristic runs after the multiplier division, so a
	// post-multiplier value above the threshold is divided down again.
	got, ok = n.Price(1002500, 0.25, 100)
	if !ok {
		t.Fatal("Price() not ok")
	}
	if math.Abs(got-100.25) > 1e-9 {
		t.Errorf("Price() = %v, want 100.25", got)
	}

	// Zero multiplier means 1.
	got, ok = n.Price(100.25, 0.25, 0)
	if !ok {
		t.Fatal("Price() not ok")
	}
	if math.Abs(got-100.25) > 1e-9 {
		t.Errorf("Price() = %v, want 100.25", got)
	}
}

func TestPrice_RescaleHeuristic(t *testing.T) {
	n := New(Config{})

	// A VIX-like value delivered ×100 lands above the threshold and is
	// brought back into range.
	got, ok := n.Price(451250, 0.25, 1)
	if !ok {
		t.Fatal("Price() not ok")
	}
	if math.Abs(got-4512.50) > 1e-9 {
		t.Errorf("Price(451250) = %v, want 4512.50", got)
	}

	// Values below the threshold are never rescaled.
	got, _ = n.Price(9999.75, 0.25, 1)
	if math.Abs(got-9999.75) > 1e-9 {
		t.Errorf("Price(9999.75) = %v, want 9999.75", got)
	}
}

func TestPrice_Idempotent(t *testing.T) {
	n := New(Config{})

	for _, raw := range []float64{100.13, 4512.37, 9999.99, 0.27, 451250} {
		once, ok := n.Price(raw, 0.25, 1)
		if !ok {
			t.Fatalf("Price(%v) not ok", raw)
		}
		twice, ok := n.Price(once, 0.25, 1)
		if !ok {
			t.Fatalf("Price(Price(%v)) not ok", raw)
		}
		if once != twice {
			t.Errorf("Price(Price(%v)) = %v, want %v", raw, twice, once)
		}
	}
}

func TestPrice_Invalid(t *testing.T) {
	n := New(Config{})

	if _, ok := n.Price(math.NaN(), 0.25, 1); ok {
		t.Error("Price(NaN) ok = true, want false")
	}
	if _, ok := n.Price(math.Inf(1), 0.25, 1); ok {
		t.Error("Price(+Inf) ok = true, want false")
	}

	// Zero and negative pass through unchanged but flagged.
	got, ok := n.Price(0, 0.25, 1)
	if ok || got != 0 {
		t.Errorf("Price(0) = %v, %v, want 0, false", got, ok)
	}
	got, ok = n.Price(-5, 0.25, 1)
	if ok || got != -5 {
		t.Errorf("Price(-5) = %v, %v, want -5, false", got, ok)
	}
}

func TestNew_Defaults(t *testing.T) {
	n := New(Config{})
	if n.cfg.RescaleThreshold != 10000 {
		t.Errorf("RescaleThreshold = %v, want 10000", n.cfg.RescaleThreshold)
	}
	if n.cfg.RescaleDivisor != 100 {
		t.Errorf("RescaleDivisor = %v, want 100", n.cfg.RescaleDivisor)
	}
	if n.cfg.Passes != 2 {
		t.Errorf("Passes = %v, want 2", n.cfg.Passes)
	}
}
