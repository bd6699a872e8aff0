package model

// Event kind tags. These values appear verbatim in the "type" field of the
// emitted log and downstream consumers dispatch on them.
const (
	KindBaseData      = "basedata"
	KindQuote         = "quote"
	KindTrade         = "trade"
	KindDepth         = "depth"
	KindVWAP          = "vwap"
	KindPVWAP         = "pvwap"
	KindVVA           = "vva"
	KindNBCV          = "nbcv_footprint"
	KindNBCVMetrics   = "nbcv_metrics"
	KindNBCVOrderFlow = "nbcv_orderflow"
	KindIndex         = "vix"
	KindLevel         = "menthorq_level"
	KindVWAPDiag      = "vwap_diag"
	KindPVWAPDiag     = "pvwap_diag"
	KindNBCVDiag      = "nbcv_diag"
	KindIndexDiag     = "vix_diag"
	KindLevelDiag     = "menthorq_diag"
)

// Event is one emitted record. All implementations are flat structs with
// comparable fields so two events can be compared with == through this
// interface (the dedup layer relies on that).
type Event interface {
	EventKind() string
}

// BaseDataEvent is the OHLCV export of the latest bar.
type BaseDataEvent struct {
	T       float64 `json:"t"`
	Sym     string  `json:"sym"`
	Type    string  `json:"type"`
	I       int     `json:"i"`
	Open    float64 `json:"o"`
	High    float64 `json:"h"`
	Low     float64 `json:"l"`
	Close   float64 `json:"c"`
	Volume  float64 `json:"v"`
	BidVol  float64 `json:"bidvol,omitempty"`
	AskVol  float64 `json:"askvol,omitempty"`
	ChartID int     `json:"chart"`
}

func (BaseDataEvent) EventKind() string { return KindBaseData }

// QuoteEvent is a level-1 bid/ask record, either from the quote snapshot or
// from a BID/ASK time & sales record.
type QuoteEvent struct {
	T       float64 `json:"t"`
	Sym     string  `json:"sym"`
	Type    string  `json:"type"`
	Kind    string  `json:"kind"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	BidQty  int     `json:"bq"`
	AskQty  int     `json:"aq"`
	Spread  float64 `json:"spread,omitempty"`
	Mid     float64 `json:"mid,omitempty"`
	Seq     uint64  `json:"seq,omitempty"`
	ChartID int     `json:"chart"`
}

func (QuoteEvent) EventKind() string { return KindQuote }

// TradeEvent is one executed trade from the time & sales log.
type TradeEvent struct {
	T       float64 `json:"t"`
	Sym     string  `json:"sym"`
	Type    string  `json:"type"`
	Price   float64 `json:"px"`
	Volume  int     `json:"vol"`
	Seq     uint64  `json:"seq,omitempty"`
	ChartID int     `json:"chart"`
}

func (TradeEvent) EventKind() string { return KindTrade }

// DepthEvent is one order book level.
type DepthEvent struct {
	T       float64 `json:"t"`
	Sym     string  `json:"sym"`
	Type    string  `json:"type"`
	Side    Side    `json:"side"`
	Level   int     `json:"lvl"`
	Price   float64 `json:"price"`
	Size    int     `json:"size"`
	ChartID int     `json:"chart"`
}

func (DepthEvent) EventKind() string { return KindDepth }

// VWAPEvent is the current-session VWAP with up to two symmetric band pairs,
// read from a named study of the host.
type VWAPEvent struct {
	T       float64 `json:"t"`
	Sym     string  `json:"sym"`
	Type    string  `json:"type"`
	Src     string  `json:"src"`
	I       int     `json:"i"`
	Value   float64 `json:"v"`
	Up1     float64 `json:"up1"`
	Dn1     float64 `json:"dn1"`
	Up2     float64 `json:"up2"`
	Dn2     float64 `json:"dn2"`
	ChartID int     `json:"chart"`
}

func (VWAPEvent) EventKind() string { return KindVWAP }

// PVWAPEvent is the previous-session volume-weighted mean with ±kσ bands.
type PVWAPEvent struct {
	T         float64 `json:"t"`
	Sym       string  `json:"sym"`
	Type      string  `json:"type"`
	I         int     `json:"i"`
	PrevStart int     `json:"prev_start"`
	PrevEnd   int     `json:"prev_end"`
	PVWAP     float64 `json:"pvwap"`
	Up1       float64 `json:"up1"`
	Dn1       float64 `json:"dn1"`
	Up2       float64 `json:"up2"`
	Dn2       float64 `json:"dn2"`
	Up3       float64 `json:"up3"`
	Dn3       float64 `json:"dn3"`
	Up4       float64 `json:"up4"`
	Dn4       float64 `json:"dn4"`
	ChartID   int     `json:"chart"`
}

func (PVWAPEvent) EventKind() string { return KindPVWAP }

// VVAEvent carries value-area lines for the current session (vah/val/vpoc)
// and the previous one (pvah/pval/ppoc).
type VVAEvent struct {
	T       float64 `json:"t"`
	Sym     string  `json:"sym"`
	Type    string  `json:"type"`
	I       int     `json:"i"`
	VAH     float64 `json:"vah"`
	VAL     float64 `json:"val"`
	VPOC    float64 `json:"vpoc"`
	PVAH    float64 `json:"pvah"`
	PVAL    float64 `json:"pval"`
	PPOC    float64 `json:"ppoc"`
	ChartID int     `json:"chart"`
}

func (VVAEvent) EventKind() string { return KindVVA }

// NBCVEvent is the per-bar buy/sell volume footprint.
type NBCVEvent struct {
	T           float64 `json:"t"`
	Sym         string  `json:"sym"`
	Type        string  `json:"type"`
	I           int     `json:"i"`
	AskVolume   float64 `json:"ask_volume"`
	BidVolume   float64 `json:"bid_volume"`
	Delta       float64 `json:"delta"`
	Trades      float64 `json:"trades"`
	CumDelta    float64 `json:"cumulative_delta"`
	TotalVolume float64 `json:"total_volume"`
	ChartID     int     `json:"chart"`
}

func (NBCVEvent) EventKind() string { return KindNBCV }

// NBCVMetricsEvent carries ratios derived from the footprint.
type NBCVMetricsEvent struct {
	T           float64 `json:"t"`
	Sym         string  `json:"sym"`
	Type        string  `json:"type"`
	I           int     `json:"i"`
	DeltaRatio  float64 `json:"delta_ratio"`
	BidAskRatio float64 `json:"bid_ask_ratio"`
	AskBidRatio float64 `json:"ask_bid_ratio"`
	Bullish     float64 `json:"pressure_bullish"`
	Bearish     float64 `json:"pressure_bearish"`
	ChartID     int     `json:"chart"`
}

func (NBCVMetricsEvent) EventKind() string { return KindNBCVMetrics }

// NBCVOrderFlowEvent carries order-flow signals derived from the footprint.
type NBCVOrderFlowEvent struct {
	T          float64 `json:"t"`
	Sym        string  `json:"sym"`
	Type       string  `json:"type"`
	I          int     `json:"i"`
	Imbalance  float64 `json:"volume_imbalance"`
	Intensity  float64 `json:"trade_intensity"`
	DeltaTrend float64 `json:"delta_trend"`
	Absorption float64 `json:"absorption_pattern"`
	ChartID    int     `json:"chart"`
}

func (NBCVOrderFlowEvent) EventKind() string { return KindNBCVOrderFlow }

// IndexEvent is the last value of an auxiliary index series (e.g. a
// volatility index) aligned onto the source timeframe.
type IndexEvent struct {
	T       float64 `json:"t"`
	Type    string  `json:"type"`
	I       int     `json:"i"`
	Last    float64 `json:"last"`
	Mode    int     `json:"mode"`
	ChartID int     `json:"chart"`
	StudyID int     `json:"study,omitempty"`
	SG      int     `json:"sg,omitempty"`
}

func (IndexEvent) EventKind() string { return KindIndex }

// LevelEvent is one horizontal price level imported from a levels chart
// (option gamma strikes, blind spots, swing levels). LevelType names what
// the level means; Bar is the bar of the levels chart the value was read
// from, which can trail the aligned bar when the series goes stale.
type LevelEvent struct {
	T         float64 `json:"t"`
	Sym       string  `json:"sym"`
	Type      string  `json:"type"`
	LevelType string  `json:"level_type"`
	Price     float64 `json:"price"`
	Subgraph  int     `json:"subgraph"`
	StudyID   int     `json:"study_id"`
	Bar       int     `json:"bar"`
	ChartID   int     `json:"chart"`
}

func (LevelEvent) EventKind() string { return KindLevel }

// DiagEvent is emitted whenever a computation cannot produce a valid
// result. Kind selects the diagnostic family (vwap_diag, pvwap_diag, ...).
type DiagEvent struct {
	T       float64 `json:"t"`
	Type    string  `json:"type"`
	Msg     string  `json:"msg"`
	I       int     `json:"i,omitempty"`
	StudyID int     `json:"id,omitempty"`
	SG      int     `json:"sg,omitempty"`
	ChartID int     `json:"chart"`
}

func (d DiagEvent) EventKind() string { return d.Type }

// Diagnostic messages. Frozen: downstream log scanners match on these.
const (
	DiagStudyNotFound       = "study_not_found"
	DiagArrayTooSmall       = "array_too_small"
	DiagInsufficientHistory = "insufficient_history"
	DiagInsufficientData    = "insufficient_data"
	DiagNoVolumePrevSession = "no_volume_prev_session"
	DiagNoData              = "no_data"
	DiagNoValue             = "no_value"
)
