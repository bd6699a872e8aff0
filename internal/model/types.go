package model

// -----------------------------------------------------------------------------
// Upstream Types
// -----------------------------------------------------------------------------

// Bar is one OHLCV bar from the charting host, bid/ask volume included.
type Bar struct {
	T         float64 // Bar timestamp (epoch seconds)
	Open      float64 // Open price (raw host scale)
	High      float64 // High price (raw host scale)
	Low       float64 // Low price (raw host scale)
	Close     float64 // Close/last price (raw host scale)
	Volume    float64 // Total volume
	BidVolume float64 // Bid-initiated volume
	AskVolume float64 // Ask-initiated volume
	NewDay    bool    // True if this bar opens a new trading session
}

// Side identifies one side of the order book.
type Side string

const (
	SideBid Side = "BID"
	SideAsk Side = "ASK"
)

// DepthEntry is one price/size pair at a given rank of the book.
type DepthEntry struct {
	Price float64 // Level price (raw host scale)
	Size  int     // Quantity at this level
}

// VolumeAtPrice is one element of a bar's volume-at-price decomposition.
type VolumeAtPrice struct {
	Price  float64 // Price of the element (raw host scale)
	Volume float64 // Volume traded at that price within the bar
}

// TnSKind classifies a time & sales record.
type TnSKind string

const (
	TnSTrade  TnSKind = "TRADE"
	TnSBid    TnSKind = "BID"
	TnSAsk    TnSKind = "ASK"
	TnSBidAsk TnSKind = "BIDASK"
)

// TimeAndSale is one record of the host's append-only time & sales log.
type TimeAndSale struct {
	T        float64 // Record timestamp (epoch seconds)
	Kind     TnSKind // TRADE, BID, ASK or BIDASK
	Price    float64 // Trade price (raw host scale), 0 for pure quotes
	Volume   int     // Trade volume, 0 for pure quotes
	Bid      float64 // Bid price (raw host scale)
	Ask      float64 // Ask price (raw host scale)
	BidSize  int     // Size at the bid
	AskSize  int     // Size at the ask
	Sequence uint64  // Host sequence number, 0 = not yet assigned
}

// Quote is the level-1 bid/ask snapshot of a source.
type Quote struct {
	T       float64 // Snapshot timestamp (epoch seconds)
	Bid     float64 // Best bid (raw host scale)
	Ask     float64 // Best ask (raw host scale)
	BidSize int     // Size at the best bid
	AskSize int     // Size at the best ask
}
