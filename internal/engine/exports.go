package engine

import (
	"fmt"
	"math"
	"strconv"

	"github.com/jackson97300/mia-chart-dumper/internal/align"
	"github.com/jackson97300/mia-chart-dumper/internal/dedup"
	"github.com/jackson97300/mia-chart-dumper/internal/model"
	"github.com/jackson97300/mia-chart-dumper/internal/session"
	"github.com/jackson97300/mia-chart-dumper/internal/source"
)

// exportBaseData emits the latest bar. Prices stay in the host scale: the
// bar stream is the raw record of what the host showed, normalization
// applies to derived values only.
func (e *Engine) exportBaseData(bars []model.Bar, i int) {
	chart := e.src.ChartID()
	b := bars[i]
	ev := model.BaseDataEvent{
		T:       b.T,
		Sym:     e.src.Symbol(),
		Type:    model.KindBaseData,
		I:       i,
		Open:    b.Open,
		High:    b.High,
		Low:     b.Low,
		Close:   b.Close,
		Volume:  b.Volume,
		BidVol:  b.BidVolume,
		AskVol:  b.AskVolume,
		ChartID: chart,
	}
	e.emit(dedup.Key{Chart: chart, Kind: model.KindBaseData}, ev)
}

// exportVWAP reads the current-session VWAP study of the own chart.
func (e *Engine) exportVWAP(t float64, i int) {
	e.exportVWAPFor(e.src, e.src.ChartID(), &e.vwapID, e.cfg.VWAPStudyID, t, i)
}

// exportVWAPFor reads a VWAP study from src and emits value plus band
// pairs. The resolved study id is cached in *cached across updates.
func (e *Engine) exportVWAPFor(src source.Source, chart int, cached *int, forced int, t float64, i int) {
	if *cached == studyUnresolved {
		*cached = resolveVWAPStudy(src, forced, i)
		e.logger.Debug("vwap study resolved", "target_chart", chart, "id", *cached)
	}
	if *cached <= 0 {
		e.emit(dedup.Key{Chart: chart, Kind: model.KindVWAPDiag},
			model.DiagEvent{T: t, Type: model.KindVWAPDiag, Msg: model.DiagStudyNotFound, ChartID: chart})
		return
	}

	main, ok := src.StudySeries(*cached, 0)
	if !ok || len(main) <= i {
		e.emit(dedup.Key{Chart: chart, Kind: model.KindVWAPDiag},
			model.DiagEvent{T: t, Type: model.KindVWAPDiag, Msg: model.DiagArrayTooSmall, I: i, StudyID: *cached, ChartID: chart})
		return
	}

	v, ok := e.normPxFor(src, main[i])
	if !ok {
		return
	}

	ev := model.VWAPEvent{
		T:       t,
		Sym:     src.Symbol(),
		Type:    model.KindVWAP,
		Src:     "study",
		I:       i,
		Value:   v,
		ChartID: chart,
	}

	// Band subgraphs come in up/down pairs: SG1/2 then SG3/4.
	bandSGs := [2][2]int{{1, 2}, {3, 4}}
	bandOut := [2][2]*float64{{&ev.Up1, &ev.Dn1}, {&ev.Up2, &ev.Dn2}}
	pairs := e.cfg.VWAPBands
	if pairs > 2 {
		pairs = 2
	}
	for p := 0; p < pairs; p++ {
		for s := 0; s < 2; s++ {
			arr, ok := src.StudySeries(*cached, bandSGs[p][s])
			if !ok || len(arr) <= i {
				continue
			}
			if px, ok := e.normPxFor(src, arr[i]); ok {
				*bandOut[p][s] = px
			}
		}
	}

	e.emit(dedup.Key{Chart: chart, Kind: model.KindVWAP}, ev)
}

// resolveVWAPStudy picks the first candidate study whose main subgraph has
// a usable value at bar i.
func resolveVWAPStudy(src source.Source, forced, i int) int {
	candidates := make([]int, 0, 3)
	if forced > 0 {
		candidates = append(candidates, forced)
	}
	if id, ok := src.StudyIDByName(vwapStudyName); ok {
		candidates = append(candidates, id)
	}
	if id, ok := src.StudyIDByName(vwapStudyAltName); ok {
		candidates = append(candidates, id)
	}

	for _, id := range candidates {
		arr, ok := src.StudySeries(id, 0)
		if ok && len(arr) > i && arr[i] != 0 {
			return id
		}
	}
	return studyNotFound
}

// exportVVA computes the current and previous session value areas from the
// volume-at-price decomposition.
func (e *Engine) exportVVA(bars []model.Bar, t float64, i int) {
	if e.cfg.VVANewBarOnly && i == e.lastVVABar {
		return
	}
	e.lastVVABar = i

	chart := e.src.ChartID()

	currStart := session.CurrentStart(bars, i)
	currDist := session.WindowDistribution(currStart, i, e.normalizedVAP)
	currVA, okCurr := session.ComputeValueArea(currDist, e.cfg.ValueAreaFraction)

	var prevVA session.ValueArea
	if win, ok := session.PreviousWindow(bars, i); ok {
		prevDist := session.WindowDistribution(win.Start, win.End, e.normalizedVAP)
		prevVA, _ = session.ComputeValueArea(prevDist, e.cfg.ValueAreaFraction)
	}

	if !okCurr && prevVA == (session.ValueArea{}) {
		return
	}

	ev := model.VVAEvent{
		T:       t,
		Sym:     e.src.Symbol(),
		Type:    model.KindVVA,
		I:       i,
		VAH:     currVA.High,
		VAL:     currVA.Low,
		VPOC:    currVA.POC,
		PVAH:    prevVA.High,
		PVAL:    prevVA.Low,
		PPOC:    prevVA.POC,
		ChartID: chart,
	}

	// Reorder of safety: guarantee VAL <= VAH.
	if ev.VAL > ev.VAH && ev.VAH > 0 && ev.VAL > 0 {
		ev.VAH, ev.VAL = ev.VAL, ev.VAH
	}
	if ev.PVAL > ev.PVAH && ev.PVAH > 0 && ev.PVAL > 0 {
		ev.PVAH, ev.PVAL = ev.PVAL, ev.PVAH
	}

	e.emit(dedup.Key{Chart: chart, Kind: model.KindVVA}, ev)
}

// exportPVWAP emits the previous-session volume-weighted mean and its ±kσ
// band ladder.
func (e *Engine) exportPVWAP(bars []model.Bar, t float64, i int) {
	if e.cfg.PVWAPNewBarOnly && i == e.lastPVWAPBar {
		return
	}
	e.lastPVWAPBar = i

	chart := e.src.ChartID()

	stats, win, ok := session.PreviousSessionStats(bars, i, e.normalizedVAP)
	if !ok {
		msg := model.DiagNoVolumePrevSession
		if _, hasWin := session.PreviousWindow(bars, i); !hasWin {
			msg = model.DiagInsufficientHistory
		}
		e.emit(dedup.Key{Chart: chart, Kind: model.KindPVWAPDiag},
			model.DiagEvent{T: t, Type: model.KindPVWAPDiag, Msg: msg, ChartID: chart})
		return
	}

	bands := stats.Bands(e.cfg.PVWAPBands)
	ev := model.PVWAPEvent{
		T:         t,
		Sym:       e.src.Symbol(),
		Type:      model.KindPVWAP,
		I:         i,
		PrevStart: win.Start,
		PrevEnd:   win.End,
		PVWAP:     stats.Mean,
		Up1:       bands.Up[0],
		Dn1:       bands.Dn[0],
		Up2:       bands.Up[1],
		Dn2:       bands.Dn[1],
		Up3:       bands.Up[2],
		Dn3:       bands.Dn[2],
		Up4:       bands.Up[3],
		Dn4:       bands.Dn[3],
		ChartID:   chart,
	}
	e.emit(dedup.Key{Chart: chart, Kind: model.KindPVWAP}, ev)
}

// exportCrossChart mirrors a slower chart aligned to the own chart's
// current timestamp: its bar, VWAP and NBCV records keyed to that chart.
func (e *Engine) exportCrossChart(t float64) {
	target, ok := e.host.Source(e.cfg.CrossChartID)
	if !ok {
		return
	}
	bars := target.Bars()
	if len(bars) == 0 {
		return
	}

	starts := align.BarStarts(bars, func(b model.Bar) float64 { return b.T })
	i, ok := align.Index(starts, t)
	if !ok {
		return
	}

	chart := target.ChartID()
	b := bars[i]
	e.emit(dedup.Key{Chart: chart, Kind: model.KindBaseData}, model.BaseDataEvent{
		T:       t,
		Sym:     target.Symbol(),
		Type:    model.KindBaseData,
		I:       i,
		Open:    b.Open,
		High:    b.High,
		Low:     b.Low,
		Close:   b.Close,
		Volume:  b.Volume,
		ChartID: chart,
	})

	e.exportVWAPFor(target, chart, &e.crossVWAPID, 0, t, i)
	e.exportNBCVFor(target, chart, &e.crossNBCVID, 0, t, i)
}

// exportIndex reads an auxiliary index series, either from another chart
// aligned by timestamp or from a study overlay on the own chart.
func (e *Engine) exportIndex(t float64, i int) {
	chart := e.src.ChartID()

	var (
		last  float64
		found bool
		mode  int
	)

	if e.cfg.IndexStudyID > 0 {
		mode = 1
		if arr, ok := e.src.StudySeries(e.cfg.IndexStudyID, e.cfg.IndexSG); ok && i >= 0 && i < len(arr) {
			last = arr[i]
			found = last > 0
		}
	} else if e.host != nil && e.cfg.IndexChartID > 0 {
		if idxSrc, ok := e.host.Source(e.cfg.IndexChartID); ok {
			bars := idxSrc.Bars()
			if len(bars) > 0 {
				starts := align.BarStarts(bars, func(b model.Bar) float64 { return b.T })
				if vi, ok := align.Index(starts, t); ok {
					last = bars[vi].Close
					found = last > 0
				}
			}
		}
	}

	if !found {
		e.emit(dedup.Key{Chart: chart, Kind: model.KindIndexDiag},
			model.DiagEvent{T: t, Type: model.KindIndexDiag, Msg: model.DiagNoData, I: i, ChartID: chart})
		return
	}

	e.emit(dedup.Key{Chart: chart, Kind: model.KindIndex}, model.IndexEvent{
		T:       t,
		Type:    model.KindIndex,
		I:       i,
		Last:    last,
		Mode:    mode,
		ChartID: chart,
		StudyID: e.cfg.IndexStudyID,
		SG:      e.cfg.IndexSG,
	})
}

// exportLevels sweeps the configured level studies of the levels chart
// (gamma strikes, blind spots, swing levels) aligned to the own chart's
// current timestamp and emits one record per populated subgraph.
func (e *Engine) exportLevels(t float64, i int) {
	if e.cfg.LevelsNewBarOnly && i == e.lastLevelsBar {
		return
	}
	e.lastLevelsBar = i

	target, ok := e.host.Source(e.cfg.LevelsChartID)
	if !ok {
		return
	}
	bars := target.Bars()
	if len(bars) == 0 {
		return
	}

	starts := align.BarStarts(bars, func(b model.Bar) float64 { return b.T })
	dest, ok := align.Index(starts, t)
	if !ok {
		return
	}

	e.exportLevelGroup(target, t, dest, e.cfg.GammaStudyID, e.cfg.GammaSubgraphs)
	e.exportLevelGroup(target, t, dest, e.cfg.BlindStudyID, e.cfg.BlindSubgraphs)
	e.exportLevelGroup(target, t, dest, e.cfg.SwingStudyID, e.cfg.SwingSubgraphs)
}

// exportLevelGroup reads one level study subgraph by subgraph. The aligned
// bar is preferred; when it holds no value the newest nonzero sample of
// the series is used instead, because level overlays often stop updating
// once drawn.
func (e *Engine) exportLevelGroup(target source.Source, t float64, dest, studyID, sgCount int) {
	if studyID <= 0 {
		return
	}
	chart := target.ChartID()

	for sg := 1; sg <= sgCount; sg++ {
		arr, _ := target.StudySeries(studyID, sg)

		val := 0.0
		bar := dest
		if len(arr) > dest {
			val = arr[dest]
		}
		if val == 0 {
			for k := len(arr) - 1; k >= 0; k-- {
				if arr[k] != 0 {
					val, bar = arr[k], k
					break
				}
			}
		}

		if val == 0 {
			e.emit(dedup.Key{Chart: chart, Kind: model.KindLevelDiag + ":" + strconv.Itoa(studyID), Sub: sg},
				model.DiagEvent{T: t, Type: model.KindLevelDiag, Msg: model.DiagNoValue, StudyID: studyID, SG: sg, ChartID: chart})
			continue
		}

		price, ok := e.normPxFor(target, val)
		if !ok {
			continue
		}

		e.emit(dedup.Key{Chart: chart, Kind: model.KindLevel + ":" + strconv.Itoa(studyID), Sub: sg},
			model.LevelEvent{
				T:         t,
				Sym:       e.src.Symbol(),
				Type:      model.KindLevel,
				LevelType: e.levelType(studyID, sg),
				Price:     price,
				Subgraph:  sg,
				StudyID:   studyID,
				Bar:       bar,
				ChartID:   chart,
			})
	}
}

// Gamma level subgraphs carry fixed meanings in the upstream study.
var gammaLevelNames = [...]string{
	1:  "call_resistance",
	2:  "put_support",
	3:  "hvl",
	4:  "1d_max",
	5:  "call_resistance_0dte",
	6:  "put_support_0dte",
	7:  "hvl_0dte",
	8:  "gex_1",
	9:  "gex_2",
	10: "gex_3",
	11: "gex_4",
	12: "gex_5",
	13: "gex_6",
	14: "gex_7",
	15: "gex_8",
	16: "gex_9",
	17: "gex_10",
	18: "gex_11",
	19: "gex_12",
}

// levelType names a study subgraph for downstream consumers.
func (e *Engine) levelType(studyID, sg int) string {
	switch studyID {
	case e.cfg.GammaStudyID:
		if sg >= 1 && sg < len(gammaLevelNames) {
			return gammaLevelNames[sg]
		}
		return fmt.Sprintf("gamma_sg_%d", sg)
	case e.cfg.BlindStudyID:
		return fmt.Sprintf("blind_spot_%d", sg)
	case e.cfg.SwingStudyID:
		return fmt.Sprintf("swing_lvl_%d", sg)
	default:
		return fmt.Sprintf("sg_%d", sg)
	}
}

// exportNBCV emits the buy/sell volume footprint of the own chart.
func (e *Engine) exportNBCV(t float64, i int) {
	if e.cfg.NBCVNewBarOnly && i == e.lastNBCVBar {
		return
	}
	e.lastNBCVBar = i
	e.exportNBCVFor(e.src, e.src.ChartID(), &e.nbcvID, e.cfg.NBCVStudyID, t, i)
}

// exportNBCVFor reads the footprint study from src and emits the three
// derived record families.
func (e *Engine) exportNBCVFor(src source.Source, chart int, cached *int, forced int, t float64, i int) {
	if *cached == studyUnresolved {
		*cached = forced
		if *cached <= 0 {
			if id, ok := src.StudyIDByName(nbcvStudyName); ok {
				*cached = id
			} else {
				*cached = studyNotFound
			}
		}
		e.logger.Debug("nbcv study resolved", "target_chart", chart, "id", *cached)
	}
	if *cached <= 0 {
		e.emit(dedup.Key{Chart: chart, Kind: model.KindNBCVDiag},
			model.DiagEvent{T: t, Type: model.KindNBCVDiag, Msg: model.DiagStudyNotFound, I: i, ChartID: chart})
		return
	}

	askArr, askOK := src.StudySeries(*cached, e.cfg.NBCVAskSG)
	bidArr, bidOK := src.StudySeries(*cached, e.cfg.NBCVBidSG)
	if !askOK || !bidOK || len(askArr) <= i || len(bidArr) <= i {
		e.emit(dedup.Key{Chart: chart, Kind: model.KindNBCVDiag},
			model.DiagEvent{T: t, Type: model.KindNBCVDiag, Msg: model.DiagInsufficientData, I: i, ChartID: chart})
		return
	}

	askVolume := askArr[i]
	bidVolume := bidArr[i]
	// Delta derived from the volumes themselves; the study's own delta
	// subgraph has been seen mis-mapped.
	delta := askVolume - bidVolume
	totalVolume := askVolume + bidVolume

	var trades, cumDelta float64
	if arr, ok := src.StudySeries(*cached, e.cfg.NBCVTradesSG); ok && len(arr) > i {
		trades = arr[i]
	}
	if arr, ok := src.StudySeries(*cached, e.cfg.NBCVCumSG); ok && len(arr) > i {
		cumDelta = arr[i]
	}

	sym := src.Symbol()
	e.emit(dedup.Key{Chart: chart, Kind: model.KindNBCV}, model.NBCVEvent{
		T: t, Sym: sym, Type: model.KindNBCV, I: i,
		AskVolume: askVolume, BidVolume: bidVolume, Delta: delta,
		Trades: trades, CumDelta: cumDelta, TotalVolume: totalVolume,
		ChartID: chart,
	})

	var deltaRatio, bidAskRatio, askBidRatio float64
	if totalVolume > 0 {
		deltaRatio = delta / totalVolume
	}
	if askVolume > 0 {
		bidAskRatio = bidVolume / askVolume
	}
	if bidVolume > 0 {
		askBidRatio = askVolume / bidVolume
	}

	bullish, bearish := 0.0, 0.0
	if delta > 0 {
		bullish = 1
	}
	if delta < 0 {
		bearish = 1
	}

	e.emit(dedup.Key{Chart: chart, Kind: model.KindNBCVMetrics}, model.NBCVMetricsEvent{
		T: t, Sym: sym, Type: model.KindNBCVMetrics, I: i,
		DeltaRatio: deltaRatio, BidAskRatio: bidAskRatio, AskBidRatio: askBidRatio,
		Bullish: bullish, Bearish: bearish,
		ChartID: chart,
	})

	var intensity float64
	if totalVolume > 0 {
		intensity = trades / totalVolume
	}
	absorption := 0.0
	if totalVolume > 0 && math.Abs(delta) > e.cfg.AbsorptionThreshold*totalVolume {
		absorption = 1
	}
	trend := 0.0
	if cumDelta > 0 {
		trend = 1
	} else if cumDelta < 0 {
		trend = -1
	}

	e.emit(dedup.Key{Chart: chart, Kind: model.KindNBCVOrderFlow}, model.NBCVOrderFlowEvent{
		T: t, Sym: sym, Type: model.KindNBCVOrderFlow, I: i,
		Imbalance: deltaRatio, Intensity: intensity,
		DeltaTrend: trend, Absorption: absorption,
		ChartID: chart,
	})
}

// exportQuote emits the level-1 bid/ask snapshot with spread and mid.
func (e *Engine) exportQuote(t float64) {
	q, ok := e.src.Quote()
	if !ok {
		return
	}

	bid, okBid := e.normPx(q.Bid)
	ask, okAsk := e.normPx(q.Ask)
	if !okBid || !okAsk {
		return
	}

	chart := e.src.ChartID()
	e.emit(dedup.Key{Chart: chart, Kind: model.KindQuote}, model.QuoteEvent{
		T:       t,
		Sym:     e.src.Symbol(),
		Type:    model.KindQuote,
		Kind:    string(model.TnSBidAsk),
		Bid:     bid,
		Ask:     ask,
		BidQty:  q.BidSize,
		AskQty:  q.AskSize,
		Spread:  ask - bid,
		Mid:     (bid + ask) / 2,
		ChartID: chart,
	})
}

// exportDepth emits book levels 1..MaxDepthLevels per side, each level
// deduplicated independently.
func (e *Engine) exportDepth(t float64) {
	chart := e.src.ChartID()
	for _, side := range []model.Side{model.SideBid, model.SideAsk} {
		levels := e.src.Depth(side)
		n := len(levels)
		if n > e.cfg.MaxDepthLevels {
			n = e.cfg.MaxDepthLevels
		}
		for lvl := 1; lvl <= n; lvl++ {
			entry := levels[lvl-1]
			if entry.Price == 0 || entry.Size == 0 {
				continue
			}
			p, ok := e.normPx(entry.Price)
			if !ok {
				continue
			}
			e.emit(dedup.Key{Chart: chart, Kind: model.KindDepth + ":" + string(side), Sub: lvl}, model.DepthEvent{
				T:       t,
				Sym:     e.src.Symbol(),
				Type:    model.KindDepth,
				Side:    side,
				Level:   lvl,
				Price:   p,
				Size:    entry.Size,
				ChartID: chart,
			})
		}
	}
}

// replayTimeAndSales drains newly available time & sales records through
// the cursor and emits them once each.
func (e *Engine) replayTimeAndSales() {
	records, reset := e.cursor.Poll(e.src.TimeAndSales())
	if reset {
		e.mu.Lock()
		e.stats.CursorResets++
		e.mu.Unlock()
		e.logger.Warn("time & sales log truncated, cursor reset",
			"strategy", e.cursor.Strategy().String(),
		)
	}
	for _, r := range records {
		e.processTimeAndSale(r)
	}
}

// processTimeAndSale emits one replayed record as a quote or a trade.
// Replay is exactly-once already, so these bypass the dedup layer.
func (e *Engine) processTimeAndSale(r model.TimeAndSale) {
	chart := e.src.ChartID()

	switch r.Kind {
	case model.TnSBid, model.TnSAsk, model.TnSBidAsk:
		bid, okBid := e.normPx(r.Bid)
		ask, okAsk := e.normPx(r.Ask)
		if !okBid || !okAsk {
			return
		}
		e.emitDirect(model.QuoteEvent{
			T:       r.T,
			Sym:     e.src.Symbol(),
			Type:    model.KindQuote,
			Kind:    string(r.Kind),
			Bid:     bid,
			Ask:     ask,
			BidQty:  r.BidSize,
			AskQty:  r.AskSize,
			Seq:     r.Sequence,
			ChartID: chart,
		})
	default:
		if r.Price <= 0 || r.Volume <= 0 {
			return
		}
		px, ok := e.normPx(r.Price)
		if !ok {
			return
		}
		e.emitDirect(model.TradeEvent{
			T:       r.T,
			Sym:     e.src.Symbol(),
			Type:    model.KindTrade,
			Price:   px,
			Volume:  r.Volume,
			Seq:     r.Sequence,
			ChartID: chart,
		})
	}
}

// normalizedVAP returns a bar's volume-at-price decomposition with prices
// normalized; samples that fail normalization are dropped.
func (e *Engine) normalizedVAP(bar int) []model.VolumeAtPrice {
	raw := e.src.VolumeAtPrice(bar)
	if len(raw) == 0 {
		return nil
	}
	out := make([]model.VolumeAtPrice, 0, len(raw))
	for _, s := range raw {
		p, ok := e.normPx(s.Price)
		if !ok {
			continue
		}
		out = append(out, model.VolumeAtPrice{Price: p, Volume: s.Volume})
	}
	return out
}

// normPxFor normalizes a price using another source's tick parameters.
func (e *Engine) normPxFor(src source.Source, raw float64) (float64, bool) {
	return e.norm.Price(raw, src.TickSize(), src.RealTimeMultiplier())
}

// emit writes through the dedup layer; failures are logged, never fatal.
func (e *Engine) emit(key dedup.Key, ev model.Event) {
	if _, err := e.writer.Emit(key, ev); err != nil {
		e.logger.Error("emit failed", "kind", ev.EventKind(), "error", err)
	}
}

// emitDirect bypasses dedup for records that are exactly-once by
// construction.
func (e *Engine) emitDirect(ev model.Event) {
	if err := e.out.Emit(e.src.ChartID(), ev); err != nil {
		e.logger.Error("emit failed", "kind", ev.EventKind(), "error", err)
	}
}
