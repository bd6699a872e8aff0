package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultOutputDir           = "./out"
	DefaultPingTimeout         = 60 * time.Second
	DefaultWriteTimeout        = 5 * time.Second
	DefaultBridgeBufferSize    = 65536
	DefaultReconnectBaseDelay  = 1 * time.Second
	DefaultReconnectMaxDelay   = 60 * time.Second
	DefaultMaxDepthLevels      = 20
	DefaultProbeWindow         = 50
	DefaultVWAPBands           = 2
	DefaultVVAFraction         = 0.70
	DefaultPVWAPBands          = 2
	DefaultNBCVAskSG           = 5
	DefaultNBCVBidSG           = 6
	DefaultNBCVTradesSG        = 12
	DefaultNBCVCumSG           = 10
	DefaultAbsorptionThreshold = 0.10
	DefaultGammaSubgraphs      = 19
	DefaultBlindSubgraphs      = 9
	DefaultSwingSubgraphs      = 9
	DefaultRescaleThreshold    = 10000
	DefaultRescaleDivisor      = 100
	DefaultRescalePasses       = 2
	DefaultDBPort              = 5432
	DefaultDBSSLMode           = "prefer"
	DefaultMaxConns            = 10
	DefaultMinConns            = 2
	DefaultBatchSize           = 1000
	DefaultConcurrency         = 4
)

func (c *DumperConfig) applyDefaults() {
	// Bridge defaults
	if c.Bridge.PingTimeout == 0 {
		c.Bridge.PingTimeout = DefaultPingTimeout
	}
	if c.Bridge.WriteTimeout == 0 {
		c.Bridge.WriteTimeout = DefaultWriteTimeout
	}
	if c.Bridge.BufferSize == 0 {
		c.Bridge.BufferSize = DefaultBridgeBufferSize
	}
	if c.Bridge.ReconnectBaseDelay == 0 {
		c.Bridge.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Bridge.ReconnectMaxDelay == 0 {
		c.Bridge.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}

	// Output defaults
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}

	// Chart defaults
	for i := range c.Charts {
		applyChartDefaults(&c.Charts[i])
	}

	// Consolidator defaults
	if c.Consolidator.Dir == "" {
		c.Consolidator.Dir = c.Output.Dir
	}
	if c.Consolidator.BatchSize == 0 {
		c.Consolidator.BatchSize = DefaultBatchSize
	}
	if c.Consolidator.Concurrency == 0 {
		c.Consolidator.Concurrency = DefaultConcurrency
	}
	applyDBDefaults(&c.Consolidator.DB)
}

func applyChartDefaults(ch *ChartConfig) {
	if ch.MaxDepthLevels == 0 {
		ch.MaxDepthLevels = DefaultMaxDepthLevels
	}
	if ch.ProbeWindow == 0 {
		ch.ProbeWindow = DefaultProbeWindow
	}
	if ch.VWAP.Bands == 0 {
		ch.VWAP.Bands = DefaultVWAPBands
	}
	if ch.VVA.Fraction == 0 {
		ch.VVA.Fraction = DefaultVVAFraction
	}
	if ch.PVWAP.Bands == 0 {
		ch.PVWAP.Bands = DefaultPVWAPBands
	}
	if ch.NBCV.AskSG == 0 {
		ch.NBCV.AskSG = DefaultNBCVAskSG
	}
	if ch.NBCV.BidSG == 0 {
		ch.NBCV.BidSG = DefaultNBCVBidSG
	}
	if ch.NBCV.TradesSG == 0 {
		ch.NBCV.TradesSG = DefaultNBCVTradesSG
	}
	if ch.NBCV.CumSG == 0 {
		ch.NBCV.CumSG = DefaultNBCVCumSG
	}
	if ch.NBCV.AbsorptionThreshold == 0 {
		ch.NBCV.AbsorptionThreshold = DefaultAbsorptionThreshold
	}
	if ch.Levels.GammaSubgraphs == 0 {
		ch.Levels.GammaSubgraphs = DefaultGammaSubgraphs
	}
	if ch.Levels.BlindSubgraphs == 0 {
		ch.Levels.BlindSubgraphs = DefaultBlindSubgraphs
	}
	if ch.Levels.SwingSubgraphs == 0 {
		ch.Levels.SwingSubgraphs = DefaultSwingSubgraphs
	}
	if ch.Normalize.RescaleThreshold == 0 {
		ch.Normalize.RescaleThreshold = DefaultRescaleThreshold
	}
	if ch.Normalize.RescaleDivisor == 0 {
		ch.Normalize.RescaleDivisor = DefaultRescaleDivisor
	}
	if ch.Normalize.Passes == 0 {
		ch.Normalize.Passes = DefaultRescalePasses
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
