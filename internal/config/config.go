package config

import (
	"time"

	"github.com/jackson97300/mia-chart-dumper/internal/bridge"
	"github.com/jackson97300/mia-chart-dumper/internal/engine"
	"github.com/jackson97300/mia-chart-dumper/internal/normalize"
)

// DumperConfig is the root configuration for a dumper instance.
type DumperConfig struct {
	Instance     InstanceConfig     `yaml:"instance"`
	Bridge       BridgeConfig       `yaml:"bridge"`
	Output       OutputConfig       `yaml:"output"`
	Charts       []ChartConfig      `yaml:"charts"`
	Consolidator ConsolidatorConfig `yaml:"consolidator"`
}

// InstanceConfig identifies this dumper.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// BridgeConfig holds the connection to the charting host.
type BridgeConfig struct {
	URL                string        `yaml:"url"`
	PingTimeout        time.Duration `yaml:"ping_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	BufferSize         int           `yaml:"buffer_size"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
}

// OutputConfig holds the JSONL output settings.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// ChartConfig configures the pipeline of one chart.
type ChartConfig struct {
	ID             int `yaml:"id"`
	MaxDepthLevels int `yaml:"max_depth_levels"`
	ProbeWindow    int `yaml:"probe_window"`

	VWAP   VWAPConfig   `yaml:"vwap"`
	VVA    VVAConfig    `yaml:"vva"`
	PVWAP  PVWAPConfig  `yaml:"pvwap"`
	NBCV   NBCVConfig   `yaml:"nbcv"`
	Index  IndexConfig  `yaml:"index"`
	Levels LevelsConfig `yaml:"levels"`

	CrossChartID int  `yaml:"cross_chart_id"`
	Quotes       bool `yaml:"quotes"`
	TimeAndSales bool `yaml:"time_and_sales"`

	Normalize NormalizeConfig `yaml:"normalize"`
}

// VWAPConfig configures the session VWAP export.
type VWAPConfig struct {
	Enabled bool `yaml:"enabled"`
	StudyID int  `yaml:"study_id"` // 0 = resolve by name
	Bands   int  `yaml:"bands"`
}

// VVAConfig configures the value-area export.
type VVAConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Fraction   float64 `yaml:"fraction"`
	NewBarOnly bool    `yaml:"new_bar_only"`
}

// PVWAPConfig configures the previous-session VWAP export.
type PVWAPConfig struct {
	Enabled    bool `yaml:"enabled"`
	Bands      int  `yaml:"bands"`
	NewBarOnly bool `yaml:"new_bar_only"`
}

// NBCVConfig configures the footprint export.
type NBCVConfig struct {
	Enabled             bool    `yaml:"enabled"`
	StudyID             int     `yaml:"study_id"` // 0 = resolve by name
	AskSG               int     `yaml:"ask_sg"`
	BidSG               int     `yaml:"bid_sg"`
	TradesSG            int     `yaml:"trades_sg"`
	CumSG               int     `yaml:"cum_sg"`
	NewBarOnly          bool    `yaml:"new_bar_only"`
	AbsorptionThreshold float64 `yaml:"absorption_threshold"`
}

// IndexConfig configures the auxiliary index export.
type IndexConfig struct {
	Enabled bool `yaml:"enabled"`
	ChartID int  `yaml:"chart_id"` // chart mode
	StudyID int  `yaml:"study_id"` // >0 switches to study mode
	SG      int  `yaml:"sg"`
}

// LevelsConfig configures the level-overlay export from a levels chart.
type LevelsConfig struct {
	Enabled        bool `yaml:"enabled"`
	ChartID        int  `yaml:"chart_id"`
	GammaStudyID   int  `yaml:"gamma_study_id"` // 0 = group off
	GammaSubgraphs int  `yaml:"gamma_subgraphs"`
	BlindStudyID   int  `yaml:"blind_study_id"`
	BlindSubgraphs int  `yaml:"blind_subgraphs"`
	SwingStudyID   int  `yaml:"swing_study_id"`
	SwingSubgraphs int  `yaml:"swing_subgraphs"`
	NewBarOnly     bool `yaml:"new_bar_only"`
}

// NormalizeConfig configures price normalization.
type NormalizeConfig struct {
	RescaleThreshold float64 `yaml:"rescale_threshold"`
	RescaleDivisor   float64 `yaml:"rescale_divisor"`
	Passes           int     `yaml:"passes"`
}

// ConsolidatorConfig holds settings for the consolidator command.
type ConsolidatorConfig struct {
	Dir         string   `yaml:"dir"` // JSONL partition directory, defaults to output.dir
	DB          DBConfig `yaml:"db"`
	BatchSize   int      `yaml:"batch_size"`
	Concurrency int      `yaml:"concurrency"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// EngineConfig translates a chart's settings into the engine's form.
func (c ChartConfig) EngineConfig() engine.Config {
	return engine.Config{
		MaxDepthLevels:      c.MaxDepthLevels,
		ProbeWindow:         c.ProbeWindow,
		ExportVWAP:          c.VWAP.Enabled,
		VWAPStudyID:         c.VWAP.StudyID,
		VWAPBands:           c.VWAP.Bands,
		ExportVVA:           c.VVA.Enabled,
		ValueAreaFraction:   c.VVA.Fraction,
		VVANewBarOnly:       c.VVA.NewBarOnly,
		ExportPVWAP:         c.PVWAP.Enabled,
		PVWAPBands:          c.PVWAP.Bands,
		PVWAPNewBarOnly:     c.PVWAP.NewBarOnly,
		ExportNBCV:          c.NBCV.Enabled,
		NBCVStudyID:         c.NBCV.StudyID,
		NBCVAskSG:           c.NBCV.AskSG,
		NBCVBidSG:           c.NBCV.BidSG,
		NBCVTradesSG:        c.NBCV.TradesSG,
		NBCVCumSG:           c.NBCV.CumSG,
		NBCVNewBarOnly:      c.NBCV.NewBarOnly,
		AbsorptionThreshold: c.NBCV.AbsorptionThreshold,
		ExportIndex:         c.Index.Enabled,
		IndexChartID:        c.Index.ChartID,
		IndexStudyID:        c.Index.StudyID,
		IndexSG:             c.Index.SG,
		CrossChartID:        c.CrossChartID,
		ExportLevels:        c.Levels.Enabled,
		LevelsChartID:       c.Levels.ChartID,
		GammaStudyID:        c.Levels.GammaStudyID,
		GammaSubgraphs:      c.Levels.GammaSubgraphs,
		BlindStudyID:        c.Levels.BlindStudyID,
		BlindSubgraphs:      c.Levels.BlindSubgraphs,
		SwingStudyID:        c.Levels.SwingStudyID,
		SwingSubgraphs:      c.Levels.SwingSubgraphs,
		LevelsNewBarOnly:    c.Levels.NewBarOnly,
		CollectQuotes:       c.Quotes,
		CollectTimeAndSales: c.TimeAndSales,
		Normalize: normalize.Config{
			RescaleThreshold: c.Normalize.RescaleThreshold,
			RescaleDivisor:   c.Normalize.RescaleDivisor,
			Passes:           c.Normalize.Passes,
		},
	}
}

// FeedConfig translates the bridge settings into the feed's form.
func (b BridgeConfig) FeedConfig() bridge.FeedConfig {
	return bridge.FeedConfig{
		Client: bridge.ClientConfig{
			URL:          b.URL,
			PingTimeout:  b.PingTimeout,
			WriteTimeout: b.WriteTimeout,
			BufferSize:   b.BufferSize,
		},
		ReconnectBaseWait: b.ReconnectBaseDelay,
		ReconnectMaxWait:  b.ReconnectMaxDelay,
	}
}
