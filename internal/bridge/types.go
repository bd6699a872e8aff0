package bridge

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// Message is one state push from the charting host. Type selects which of
// the optional payload fields is populated.
type Message struct {
	Type  string `json:"type"`
	Chart int    `json:"chart"`

	// type == "instrument"
	Symbol     string  `json:"sym,omitempty"`
	TickSize   float64 `json:"tick,omitempty"`
	Multiplier float64 `json:"mult,omitempty"`

	// type == "bar"
	Index  int     `json:"i,omitempty"`
	T      float64 `json:"t,omitempty"`
	Open   float64 `json:"o,omitempty"`
	High   float64 `json:"h,omitempty"`
	Low    float64 `json:"l,omitempty"`
	Close  float64 `json:"c,omitempty"`
	Volume float64 `json:"v,omitempty"`
	BidVol float64 `json:"bidvol,omitempty"`
	AskVol float64 `json:"askvol,omitempty"`
	NewDay bool    `json:"newday,omitempty"`

	// type == "quote"
	Bid     float64 `json:"bid,omitempty"`
	Ask     float64 `json:"ask,omitempty"`
	BidSize int     `json:"bq,omitempty"`
	AskSize int     `json:"aq,omitempty"`

	// type == "depth"
	Side  string  `json:"side,omitempty"`
	Level int     `json:"lvl,omitempty"`
	Price float64 `json:"price,omitempty"`
	Size  int     `json:"size,omitempty"`

	// type == "vap": per-price samples of bar Index
	VAP []VAPSample `json:"vap,omitempty"`

	// type == "study_map"
	StudyName string `json:"study_name,omitempty"`
	StudyID   int    `json:"study_id,omitempty"`

	// type == "study_data"
	Subgraph int       `json:"sg,omitempty"`
	Values   []float64 `json:"values,omitempty"`

	// type == "tns"
	Records []TnSRecord `json:"records,omitempty"`

	// type == "tns_truncate"
	Keep int `json:"keep,omitempty"`
}

// Message types accepted from the host.
const (
	MsgInstrument  = "instrument"
	MsgBar         = "bar"
	MsgQuote       = "quote"
	MsgDepth       = "depth"
	MsgVAP         = "vap"
	MsgStudyMap    = "study_map"
	MsgStudyData   = "study_data"
	MsgTnS         = "tns"
	MsgTnSTruncate = "tns_truncate"
)

// VAPSample is one volume-at-price element of a bar.
type VAPSample struct {
	Price  float64 `json:"p"`
	Volume float64 `json:"v"`
}

// TnSRecord is one time & sales record pushed by the host.
type TnSRecord struct {
	T        float64 `json:"t"`
	Kind     string  `json:"kind"`
	Price    float64 `json:"px,omitempty"`
	Volume   int     `json:"vol,omitempty"`
	Bid      float64 `json:"bid,omitempty"`
	Ask      float64 `json:"ask,omitempty"`
	BidSize  int     `json:"bq,omitempty"`
	AskSize  int     `json:"aq,omitempty"`
	Sequence uint64  `json:"seq,omitempty"`
}

// ClientConfig configures the WebSocket client toward the host.
type ClientConfig struct {
	URL          string        // WebSocket URL of the host bridge (e.g. ws://127.0.0.1:11000/stream)
	PingTimeout  time.Duration // Max time without ping before considering connection stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   65536,
	}
}
