// Package source defines the pull-based interface onto the charting host.
//
// The engine never receives data pushed into it: each update notification
// only tells it to pull the latest state of a chart through these
// interfaces. Store is the in-memory implementation kept current by the
// bridge, and doubles as the fake in engine tests.
package source

import (
	"sync"

	"github.com/jackson97300/mia-chart-dumper/internal/model"
)

// Source exposes one chart of the host.
type Source interface {
	// ChartID returns the host chart number.
	ChartID() int

	// Symbol returns the instrument symbol of the chart.
	Symbol() string

	// TickSize returns the smallest valid price increment.
	TickSize() float64

	// RealTimeMultiplier returns the host's real-time price multiplier
	// (0 means unset: treat as 1).
	RealTimeMultiplier() float64

	// Bars returns the full bar history, oldest first.
	Bars() []model.Bar

	// Quote returns the level-1 bid/ask snapshot.
	Quote() (model.Quote, bool)

	// Depth returns the book levels of one side, best first (level 1).
	Depth(side model.Side) []model.DepthEntry

	// VolumeAtPrice returns the volume-at-price decomposition of one bar.
	VolumeAtPrice(barIndex int) []model.VolumeAtPrice

	// StudyIDByName resolves a study by display name.
	StudyIDByName(name string) (int, bool)

	// StudySeries returns one subgraph array of a study. ok is false when
	// the study or subgraph does not exist.
	StudySeries(studyID, subgraph int) ([]float64, bool)

	// TimeAndSales returns the append-only time & sales log.
	TimeAndSales() []model.TimeAndSale
}

// Host resolves charts by number, for cross-chart reads.
type Host interface {
	Source(chartID int) (Source, bool)
}

// studyKey addresses one subgraph array.
type studyKey struct {
	id int
	sg int
}

// Store is a mutable snapshot of one chart, written by the bridge and read
// by the engine. All methods are safe for concurrent use.
type Store struct {
	chartID int

	mu         sync.RWMutex
	symbol     string
	tickSize   float64
	multiplier float64
	bars       []model.Bar
	quote      model.Quote
	hasQuote   bool
	depth      map[model.Side][]model.DepthEntry
	vap        map[int][]model.VolumeAtPrice
	studyIDs   map[string]int
	studies    map[studyKey][]float64
	tns        []model.TimeAndSale
}

// NewStore creates an empty snapshot for one chart.
func NewStore(chartID int) *Store {
	return &Store{
		chartID:  chartID,
		depth:    make(map[model.Side][]model.DepthEntry),
		vap:      make(map[int][]model.VolumeAtPrice),
		studyIDs: make(map[string]int),
		studies:  make(map[studyKey][]float64),
	}
}

func (s *Store) ChartID() int { return s.chartID }

func (s *Store) Symbol() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.symbol
}

func (s *Store) TickSize() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tickSize
}

func (s *Store) RealTimeMultiplier() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.multiplier
}

func (s *Store) Bars() []model.Bar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

func (s *Store) Quote() (model.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quote, s.hasQuote
}

func (s *Store) Depth(side model.Side) []model.DepthEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	levels := s.depth[side]
	out := make([]model.DepthEntry, len(levels))
	copy(out, levels)
	return out
}

func (s *Store) VolumeAtPrice(barIndex int) []model.VolumeAtPrice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vap[barIndex]
}

func (s *Store) StudyIDByName(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.studyIDs[name]
	return id, ok
}

func (s *Store) StudySeries(studyID, subgraph int) ([]float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr, ok := s.studies[studyKey{id: studyID, sg: subgraph}]
	return arr, ok
}

func (s *Store) TimeAndSales() []model.TimeAndSale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.TimeAndSale, len(s.tns))
	copy(out, s.tns)
	return out
}

// -----------------------------------------------------------------------------
// Bridge-side mutators
// -----------------------------------------------------------------------------

// SetInstrument records symbol, tick size and real-time multiplier.
func (s *Store) SetInstrument(symbol string, tickSize, multiplier float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbol = symbol
	s.tickSize = tickSize
	s.multiplier = multiplier
}

// UpsertBar writes the bar at index, extending the history as needed.
func (s *Store) UpsertBar(index int, bar model.Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.bars) <= index {
		s.bars = append(s.bars, model.Bar{})
	}
	s.bars[index] = bar
}

// SetQuote replaces the level-1 snapshot.
func (s *Store) SetQuote(q model.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quote = q
	s.hasQuote = true
}

// SetDepthLevel writes one book level (1-based).
func (s *Store) SetDepthLevel(side model.Side, level int, e model.DepthEntry) {
	if level < 1 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	levels := s.depth[side]
	for len(levels) < level {
		levels = append(levels, model.DepthEntry{})
	}
	levels[level-1] = e
	s.depth[side] = levels
}

// SetVolumeAtPrice replaces a bar's volume-at-price decomposition.
func (s *Store) SetVolumeAtPrice(barIndex int, dist []model.VolumeAtPrice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vap[barIndex] = dist
}

// RegisterStudy maps a study display name to its id.
func (s *Store) RegisterStudy(name string, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.studyIDs[name] = id
}

// SetStudySeries replaces one subgraph array of a study.
func (s *Store) SetStudySeries(studyID, subgraph int, values []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.studies[studyKey{id: studyID, sg: subgraph}] = values
}

// AppendTimeAndSales appends records to the time & sales log.
func (s *Store) AppendTimeAndSales(records ...model.TimeAndSale) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tns = append(s.tns, records...)
}

// TruncateTimeAndSales simulates a host purge: the log is cut to keep the
// most recent n records.
func (s *Store) TruncateTimeAndSales(keep int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if keep < 0 {
		keep = 0
	}
	if keep < len(s.tns) {
		s.tns = append([]model.TimeAndSale(nil), s.tns[len(s.tns)-keep:]...)
	}
}

// Hub is a Host backed by Stores.
type Hub struct {
	mu     sync.RWMutex
	stores map[int]*Store
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{stores: make(map[int]*Store)}
}

// Store returns the snapshot for chartID, creating it on first use.
func (h *Hub) Store(chartID int) *Store {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.stores[chartID]
	if !ok {
		st = NewStore(chartID)
		h.stores[chartID] = st
	}
	return st
}

// Source implements Host.
func (h *Hub) Source(chartID int) (Source, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	st, ok := h.stores[chartID]
	return st, ok
}
