package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jackson97300/mia-chart-dumper/internal/model"
	"github.com/jackson97300/mia-chart-dumper/internal/queue"
	"github.com/jackson97300/mia-chart-dumper/internal/source"
)

// Notifier receives a signal after the feed applied new state for a chart.
type Notifier interface {
	Notify()
}

// FeedConfig configures the Feed.
type FeedConfig struct {
	Client            ClientConfig
	ReconnectBaseWait time.Duration // Base wait time for reconnection
	ReconnectMaxWait  time.Duration // Max wait time for reconnection
	QueueCapacity     int           // Initial apply-queue capacity
}

// DefaultFeedConfig returns sensible defaults.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		Client:            DefaultClientConfig(),
		ReconnectBaseWait: 1 * time.Second,
		ReconnectMaxWait:  60 * time.Second,
		QueueCapacity:     4096,
	}
}

// FeedStats are runtime counters of the feed.
type FeedStats struct {
	MessagesApplied int64
	ParseErrors     int64
	Reconnects      int64
}

// Feed maintains the connection to the charting host, applies its state
// pushes to the per-chart stores and wakes the registered engines.
//
// Reading and applying are decoupled through an unbounded queue so a slow
// disk flush can never back-pressure the host connection.
type Feed struct {
	cfg    FeedConfig
	hub    *source.Hub
	logger *slog.Logger

	buf *queue.Buffer[TimestampedMessage]

	mu        sync.Mutex
	notifiers map[int]Notifier
	stats     FeedStats

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFeed creates a feed writing into hub.
func NewFeed(cfg FeedConfig, hub *source.Hub, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReconnectBaseWait <= 0 {
		cfg.ReconnectBaseWait = 1 * time.Second
	}
	if cfg.ReconnectMaxWait <= 0 {
		cfg.ReconnectMaxWait = 60 * time.Second
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 4096
	}

	return &Feed{
		cfg:       cfg,
		hub:       hub,
		logger:    logger.With("component", "bridge"),
		buf:       queue.NewBuffer[TimestampedMessage](cfg.QueueCapacity),
		notifiers: make(map[int]Notifier),
	}
}

// Register wires an engine to be woken when its chart changes. Must be
// called before Start.
func (f *Feed) Register(chartID int, n Notifier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifiers[chartID] = n
}

// Start begins connecting and applying messages.
func (f *Feed) Start(ctx context.Context) error {
	ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(2)
	go f.connectLoop(ctx)
	go f.applyLoop()

	f.logger.Info("feed started", "url", f.cfg.Client.URL)
	return nil
}

// Stop shuts the feed down.
func (f *Feed) Stop(ctx context.Context) error {
	if f.cancel != nil {
		f.cancel()
	}
	f.buf.Close()

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		f.logger.Info("feed stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current counters.
func (f *Feed) Stats() FeedStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

// connectLoop dials the host and pumps its messages into the apply queue,
// reconnecting with exponential backoff on failure.
func (f *Feed) connectLoop(ctx context.Context) {
	defer f.wg.Done()

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		client := NewClient(f.cfg.Client, f.logger)
		if err := client.Connect(ctx); err != nil {
			attempt++
			wait := f.backoff(attempt)
			f.logger.Warn("connect failed, retrying",
				"error", err,
				"attempt", attempt,
				"wait", wait,
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}

		if attempt > 0 {
			f.mu.Lock()
			f.stats.Reconnects++
			f.mu.Unlock()
		}
		attempt = 0
		f.logger.Info("connected to host")

		f.pump(ctx, client)
		client.Close()

		select {
		case <-ctx.Done():
			return
		default:
			attempt = 1
		}
	}
}

// pump moves messages from one connection into the queue until the
// connection dies or ctx is cancelled.
func (f *Feed) pump(ctx context.Context, client Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-client.Errors():
			f.logger.Warn("connection lost", "error", err)
			return
		case msg, ok := <-client.Messages():
			if !ok {
				return
			}
			f.buf.Send(msg)
		}
	}
}

// applyLoop drains the queue and applies each message to the stores.
func (f *Feed) applyLoop() {
	defer f.wg.Done()

	for {
		msg, ok := f.buf.Receive()
		if !ok {
			return
		}
		if err := f.Apply(msg.Data); err != nil {
			f.mu.Lock()
			f.stats.ParseErrors++
			f.mu.Unlock()
			f.logger.Warn("bad message from host", "error", err)
		}
	}
}

// Apply decodes one host message, writes it into the chart's store and
// wakes the chart's engine. Exported for tests and for hosts that deliver
// messages by callback instead of over the socket.
func (f *Feed) Apply(data []byte) error {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	st := f.hub.Store(msg.Chart)

	switch msg.Type {
	case MsgInstrument:
		st.SetInstrument(msg.Symbol, msg.TickSize, msg.Multiplier)

	case MsgBar:
		st.UpsertBar(msg.Index, model.Bar{
			T:         msg.T,
			Open:      msg.Open,
			High:      msg.High,
			Low:       msg.Low,
			Close:     msg.Close,
			Volume:    msg.Volume,
			BidVolume: msg.BidVol,
			AskVolume: msg.AskVol,
			NewDay:    msg.NewDay,
		})

	case MsgQuote:
		st.SetQuote(model.Quote{
			T:       msg.T,
			Bid:     msg.Bid,
			Ask:     msg.Ask,
			BidSize: msg.BidSize,
			AskSize: msg.AskSize,
		})

	case MsgDepth:
		side := model.Side(msg.Side)
		if side != model.SideBid && side != model.SideAsk {
			return fmt.Errorf("depth: unknown side %q", msg.Side)
		}
		st.SetDepthLevel(side, msg.Level, model.DepthEntry{
			Price: msg.Price,
			Size:  msg.Size,
		})

	case MsgVAP:
		dist := make([]model.VolumeAtPrice, len(msg.VAP))
		for i, s := range msg.VAP {
			dist[i] = model.VolumeAtPrice{Price: s.Price, Volume: s.Volume}
		}
		st.SetVolumeAtPrice(msg.Index, dist)

	case MsgStudyMap:
		st.RegisterStudy(msg.StudyName, msg.StudyID)

	case MsgStudyData:
		st.SetStudySeries(msg.StudyID, msg.Subgraph, msg.Values)

	case MsgTnS:
		records := make([]model.TimeAndSale, len(msg.Records))
		for i, r := range msg.Records {
			records[i] = model.TimeAndSale{
				T:        r.T,
				Kind:     model.TnSKind(r.Kind),
				Price:    r.Price,
				Volume:   r.Volume,
				Bid:      r.Bid,
				Ask:      r.Ask,
				BidSize:  r.BidSize,
				AskSize:  r.AskSize,
				Sequence: r.Sequence,
			}
		}
		st.AppendTimeAndSales(records...)

	case MsgTnSTruncate:
		st.TruncateTimeAndSales(msg.Keep)

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}

	f.mu.Lock()
	f.stats.MessagesApplied++
	n := f.notifiers[msg.Chart]
	f.mu.Unlock()

	if n != nil {
		n.Notify()
	}
	return nil
}

// backoff returns the wait before reconnect attempt n, capped at the
// configured maximum.
func (f *Feed) backoff(attempt int) time.Duration {
	wait := time.Duration(float64(f.cfg.ReconnectBaseWait) * math.Pow(2, float64(attempt-1)))
	if wait > f.cfg.ReconnectMaxWait {
		wait = f.cfg.ReconnectMaxWait
	}
	return wait
}
