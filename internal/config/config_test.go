package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-dumper
bridge:
  url: ws://127.0.0.1:11000/stream
output:
  dir: /var/data/mia
charts:
  - id: 3
    quotes: true
    time_and_sales: true
    vwap:
      enabled: true
      bands: 1
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-dumper" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-dumper")
	}
	if cfg.Bridge.URL != "ws://127.0.0.1:11000/stream" {
		t.Errorf("Bridge.URL = %q", cfg.Bridge.URL)
	}
	if len(cfg.Charts) != 1 {
		t.Fatalf("chart count = %d, want 1", len(cfg.Charts))
	}
	if cfg.Charts[0].ID != 3 || !cfg.Charts[0].VWAP.Enabled || cfg.Charts[0].VWAP.Bands != 1 {
		t.Errorf("chart = %+v", cfg.Charts[0])
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
instance:
  id: test-dumper
bridge:
  url: ws://127.0.0.1:11000/stream
charts:
  - id: 3
consolidator:
  db:
    host: localhost
    name: mia
    user: mia
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Consolidator.DB.Password != "secret123" {
		t.Errorf("DB.Password = %q, want %q", cfg.Consolidator.DB.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-dumper
bridge:
  url: ws://127.0.0.1:11000/stream
charts:
  - id: 3
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Bridge.PingTimeout != 60*time.Second {
		t.Errorf("PingTimeout = %v, want 60s", cfg.Bridge.PingTimeout)
	}
	if cfg.Output.Dir != DefaultOutputDir {
		t.Errorf("Output.Dir = %q, want %q", cfg.Output.Dir, DefaultOutputDir)
	}
	if cfg.Consolidator.Dir != DefaultOutputDir {
		t.Errorf("Consolidator.Dir = %q, want output dir", cfg.Consolidator.Dir)
	}

	ch := cfg.Charts[0]
	if ch.MaxDepthLevels != DefaultMaxDepthLevels {
		t.Errorf("MaxDepthLevels = %d, want %d", ch.MaxDepthLevels, DefaultMaxDepthLevels)
	}
	if ch.NBCV.AskSG != 5 || ch.NBCV.BidSG != 6 {
		t.Errorf("NBCV subgraphs = %d/%d, want 5/6", ch.NBCV.AskSG, ch.NBCV.BidSG)
	}
	if ch.Levels.GammaSubgraphs != 19 || ch.Levels.BlindSubgraphs != 9 || ch.Levels.SwingSubgraphs != 9 {
		t.Errorf("level subgraphs = %d/%d/%d, want 19/9/9",
			ch.Levels.GammaSubgraphs, ch.Levels.BlindSubgraphs, ch.Levels.SwingSubgraphs)
	}
	if ch.Normalize.RescaleThreshold != 10000 {
		t.Errorf("RescaleThreshold = %v, want 10000", ch.Normalize.RescaleThreshold)
	}
}

func TestValidate(t *testing.T) {
	base := func() *DumperConfig {
		return &DumperConfig{
			Instance: InstanceConfig{ID: "d1"},
			Bridge:   BridgeConfig{URL: "ws://127.0.0.1:11000/stream"},
			Charts:   []ChartConfig{{ID: 3}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*DumperConfig)
		wantErr bool
	}{
		{"valid", func(c *DumperConfig) {}, false},
		{"missing instance id", func(c *DumperConfig) { c.Instance.ID = "" }, true},
		{"missing bridge url", func(c *DumperConfig) { c.Bridge.URL = "" }, true},
		{"no charts", func(c *DumperConfig) { c.Charts = nil }, true},
		{"duplicate chart id", func(c *DumperConfig) {
			c.Charts = append(c.Charts, ChartConfig{ID: 3})
		}, true},
		{"self cross chart", func(c *DumperConfig) { c.Charts[0].CrossChartID = 3 }, true},
		{"index without target", func(c *DumperConfig) { c.Charts[0].Index.Enabled = true }, true},
		{"pvwap bands out of range", func(c *DumperConfig) { c.Charts[0].PVWAP.Bands = 5 }, true},
		{"levels without chart", func(c *DumperConfig) { c.Charts[0].Levels.Enabled = true }, true},
		{"self levels chart", func(c *DumperConfig) {
			c.Charts[0].Levels = LevelsConfig{Enabled: true, ChartID: 3}
		}, true},
		{"valid levels", func(c *DumperConfig) {
			c.Charts[0].Levels = LevelsConfig{Enabled: true, ChartID: 10, GammaStudyID: 1}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConsolidator(t *testing.T) {
	cfg := &DumperConfig{
		Consolidator: ConsolidatorConfig{
			DB:          DBConfig{Host: "localhost", Name: "mia", User: "mia", Password: "pw", MaxConns: 10, MinConns: 2},
			BatchSize:   1000,
			Concurrency: 4,
		},
	}
	if err := cfg.ValidateConsolidator(); err != nil {
		t.Errorf("ValidateConsolidator() error = %v", err)
	}

	cfg.Consolidator.DB.Password = ""
	if err := cfg.ValidateConsolidator(); err == nil {
		t.Error("ValidateConsolidator() error = nil, want missing password error")
	}
}

func TestEngineConfig(t *testing.T) {
	ch := ChartConfig{
		ID:           3,
		CrossChartID: 4,
		Quotes:       true,
		VWAP:         VWAPConfig{Enabled: true, StudyID: 7, Bands: 2},
		NBCV:         NBCVConfig{Enabled: true, AskSG: 5, BidSG: 6},
		Levels:       LevelsConfig{Enabled: true, ChartID: 10, GammaStudyID: 1, GammaSubgraphs: 19},
	}
	ec := ch.EngineConfig()

	if !ec.ExportVWAP || ec.VWAPStudyID != 7 || ec.VWAPBands != 2 {
		t.Errorf("vwap mapping = %+v", ec)
	}
	if ec.CrossChartID != 4 {
		t.Errorf("CrossChartID = %d, want 4", ec.CrossChartID)
	}
	if !ec.CollectQuotes || ec.CollectTimeAndSales {
		t.Errorf("collect flags = %v/%v, want true/false", ec.CollectQuotes, ec.CollectTimeAndSales)
	}
	if !ec.ExportLevels || ec.LevelsChartID != 10 || ec.GammaStudyID != 1 || ec.GammaSubgraphs != 19 {
		t.Errorf("levels mapping = %+v", ec)
	}
}
