// Package engine drives one source's normalization pipeline.
//
// On every host notification the engine pulls the latest state of its
// chart, normalizes prices, derives session statistics, and emits through
// the dedup layer into the append-only log. One engine owns one source;
// all mutable state (dedup map, replay cursor, resolved study ids) lives
// on the Engine value, never in package scope, so independent sources
// cannot bleed into each other.
//
// The engine is single-threaded: notifications are coalesced into a signal
// channel and each update is handled to completion before the next one is
// considered. No handler ever fails the process; anything that cannot
// produce a valid value becomes a diagnostic record and the same
// computation is simply attempted again on the next notification.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jackson97300/mia-chart-dumper/internal/dedup"
	"github.com/jackson97300/mia-chart-dumper/internal/emit"
	"github.com/jackson97300/mia-chart-dumper/internal/normalize"
	"github.com/jackson97300/mia-chart-dumper/internal/replay"
	"github.com/jackson97300/mia-chart-dumper/internal/source"
)

// Study ids the engine resolves by display name when not forced.
const (
	vwapStudyName    = "Volume Weighted Average Price"
	vwapStudyAltName = "VWAP (Volume Weighted Average Price)"
	nbcvStudyName    = "Numbers Bars Calculated Values"
)

// Unresolved/-failed sentinels for cached study ids.
const (
	studyUnresolved = -2
	studyNotFound   = -1
)

// Config controls which record families one engine exports and how.
type Config struct {
	MaxDepthLevels int // Book levels exported per side (default 20)
	ProbeWindow    int // Records probed for sequence support (default 50)

	ExportVWAP  bool
	VWAPStudyID int // 0 = resolve by name
	VWAPBands   int // Exported band pairs, 0..2

	ExportVVA         bool
	ValueAreaFraction float64 // Volume share of the value area (default 0.70)
	VVANewBarOnly     bool

	ExportPVWAP     bool
	PVWAPBands      int // Band pairs of the ±kσ ladder, 0..4 (default 2)
	PVWAPNewBarOnly bool

	ExportNBCV          bool
	NBCVStudyID         int // 0 = resolve by name
	NBCVAskSG           int // default 5
	NBCVBidSG           int // default 6
	NBCVTradesSG        int // default 12
	NBCVCumSG           int // default 10
	NBCVNewBarOnly      bool
	AbsorptionThreshold float64 // |delta| share of volume flagging absorption (default 0.10)

	ExportIndex  bool
	IndexChartID int // Chart holding the index series (chart mode)
	IndexStudyID int // >0 switches to study mode on the own chart
	IndexSG      int

	CrossChartID int // Slower chart mirrored through timestamp alignment, 0 = off

	ExportLevels     bool
	LevelsChartID    int // Chart carrying the level overlays, 0 = off
	GammaStudyID     int // 0 = group off
	GammaSubgraphs   int // default 19
	BlindStudyID     int
	BlindSubgraphs   int // default 9
	SwingStudyID     int
	SwingSubgraphs   int // default 9
	LevelsNewBarOnly bool

	CollectQuotes       bool
	CollectTimeAndSales bool

	Normalize normalize.Config
}

// DefaultConfig enables every record family with the host's historical
// defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepthLevels:      20,
		ProbeWindow:         replay.DefaultProbeWindow,
		ExportVWAP:          true,
		VWAPBands:           2,
		ExportVVA:           true,
		ValueAreaFraction:   0.70,
		VVANewBarOnly:       true,
		ExportPVWAP:         true,
		PVWAPBands:          2,
		PVWAPNewBarOnly:     true,
		ExportNBCV:          true,
		NBCVAskSG:           5,
		NBCVBidSG:           6,
		NBCVTradesSG:        12,
		NBCVCumSG:           10,
		NBCVNewBarOnly:      true,
		AbsorptionThreshold: 0.10,
		ExportIndex:         false,
		ExportLevels:        false,
		GammaSubgraphs:      19,
		BlindSubgraphs:      9,
		SwingSubgraphs:      9,
		LevelsNewBarOnly:    true,
		CollectQuotes:       true,
		CollectTimeAndSales: true,
		Normalize:           normalize.DefaultConfig(),
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.MaxDepthLevels <= 0 {
		c.MaxDepthLevels = def.MaxDepthLevels
	}
	if c.ProbeWindow <= 0 {
		c.ProbeWindow = def.ProbeWindow
	}
	if c.ValueAreaFraction <= 0 || c.ValueAreaFraction > 1 {
		c.ValueAreaFraction = def.ValueAreaFraction
	}
	if c.AbsorptionThreshold <= 0 {
		c.AbsorptionThreshold = def.AbsorptionThreshold
	}
	if c.NBCVAskSG == 0 {
		c.NBCVAskSG = def.NBCVAskSG
	}
	if c.NBCVBidSG == 0 {
		c.NBCVBidSG = def.NBCVBidSG
	}
	if c.NBCVTradesSG == 0 {
		c.NBCVTradesSG = def.NBCVTradesSG
	}
	if c.NBCVCumSG == 0 {
		c.NBCVCumSG = def.NBCVCumSG
	}
	if c.GammaSubgraphs <= 0 {
		c.GammaSubgraphs = def.GammaSubgraphs
	}
	if c.BlindSubgraphs <= 0 {
		c.BlindSubgraphs = def.BlindSubgraphs
	}
	if c.SwingSubgraphs <= 0 {
		c.SwingSubgraphs = def.SwingSubgraphs
	}
}

// Stats are runtime counters of one engine.
type Stats struct {
	Updates      int64 // Notifications handled
	CursorResets int64 // Time & sales truncation resets
}

// Engine is the per-source pipeline.
type Engine struct {
	cfg    Config
	src    source.Source
	host   source.Host
	norm   *normalize.Normalizer
	writer *dedup.Writer
	out    emit.Emitter
	cursor *replay.Cursor
	logger *slog.Logger

	// Cached study resolutions.
	vwapID      int
	nbcvID      int
	crossVWAPID int
	crossNBCVID int

	// New-bar-only gates.
	lastVVABar    int
	lastPVWAPBar  int
	lastNBCVBar   int
	lastLevelsBar int

	notify chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	stats Stats
}

// New creates an engine for one source. host may be nil when neither
// cross-chart nor chart-mode index export is configured.
func New(cfg Config, src source.Source, host source.Host, out emit.Emitter, logger *slog.Logger) *Engine {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		cfg:           cfg,
		src:           src,
		host:          host,
		norm:          normalize.New(cfg.Normalize),
		writer:        dedup.NewWriter(out),
		out:           out,
		cursor:        replay.NewCursor(cfg.ProbeWindow),
		logger:        logger.With("chart", src.ChartID()),
		vwapID:        studyUnresolved,
		nbcvID:        studyUnresolved,
		crossVWAPID:   studyUnresolved,
		crossNBCVID:   studyUnresolved,
		lastVVABar:    -1,
		lastPVWAPBar:  -1,
		lastNBCVBar:   -1,
		lastLevelsBar: -1,
		notify:        make(chan struct{}, 1),
	}
}

// Notify signals that the source changed. Coalescing: a pending signal
// absorbs later ones, the engine always pulls the latest state anyway.
func (e *Engine) Notify() {
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// Start begins consuming notifications.
func (e *Engine) Start(ctx context.Context) error {
	ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-e.notify:
				e.HandleUpdate()
			}
		}
	}()

	e.logger.Info("engine started",
		"depth_levels", e.cfg.MaxDepthLevels,
		"vwap", e.cfg.ExportVWAP,
		"pvwap", e.cfg.ExportPVWAP,
		"nbcv", e.cfg.ExportNBCV,
	)
	return nil
}

// Stop shuts the engine down.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("engine stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// HandleUpdate runs one full pass over the source's current state. Exported
// so hosts that already own a callback thread can drive the engine
// directly instead of through Start/Notify.
func (e *Engine) HandleUpdate() {
	e.mu.Lock()
	e.stats.Updates++
	e.mu.Unlock()

	bars := e.src.Bars()
	if len(bars) == 0 {
		return
	}
	i := len(bars) - 1
	t := bars[i].T

	e.exportBaseData(bars, i)

	if e.cfg.ExportVWAP {
		e.exportVWAP(t, i)
	}
	if e.cfg.ExportVVA {
		e.exportVVA(bars, t, i)
	}
	if e.cfg.ExportPVWAP {
		e.exportPVWAP(bars, t, i)
	}
	if e.cfg.CrossChartID > 0 && e.host != nil {
		e.exportCrossChart(t)
	}
	if e.cfg.ExportIndex {
		e.exportIndex(t, i)
	}
	if e.cfg.ExportLevels && e.cfg.LevelsChartID > 0 && e.host != nil {
		e.exportLevels(t, i)
	}
	if e.cfg.ExportNBCV {
		e.exportNBCV(t, i)
	}
	if e.cfg.CollectQuotes {
		e.exportQuote(t)
	}
	e.exportDepth(t)
	if e.cfg.CollectTimeAndSales {
		e.replayTimeAndSales()
	}
}

// normPx normalizes a raw price with the source's tick size and real-time
// multiplier.
func (e *Engine) normPx(raw float64) (float64, bool) {
	return e.norm.Price(raw, e.src.TickSize(), e.src.RealTimeMultiplier())
}
