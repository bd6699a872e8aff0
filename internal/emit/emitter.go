package emit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jackson97300/mia-chart-dumper/internal/model"
)

// Emitter appends one event record per call.
type Emitter interface {
	Emit(chartID int, ev model.Event) error
}

// FileEmitter writes events to per-chart daily JSONL partitions under a
// base directory.
type FileEmitter struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	files map[int]*partition
}

type partition struct {
	name string
	f    *os.File
}

// NewFileEmitter creates a FileEmitter rooted at dir. The directory itself
// is created on the first write, not here.
func NewFileEmitter(dir string, logger *slog.Logger) *FileEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileEmitter{
		dir:    dir,
		logger: logger,
		now:    time.Now,
		files:  make(map[int]*partition),
	}
}

// Emit marshals ev and appends it as one line to the partition for
// (chartID, today).
func (e *FileEmitter) Emit(chartID int, ev model.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.EventKind(), err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.partition(chartID)
	if err != nil {
		return err
	}

	data = append(data, '\n')
	if _, err := p.f.Write(data); err != nil {
		return fmt.Errorf("append to partition: %w", err)
	}
	return nil
}

// Close closes all open partition files.
func (e *FileEmitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for chart, p := range e.files {
		if err := p.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(e.files, chart)
	}
	return firstErr
}

// partition returns the open file for (chartID, today), creating the
// directory and file lazily. A date rollover closes the previous day's
// handle. Caller holds e.mu.
func (e *FileEmitter) partition(chartID int) (*partition, error) {
	name := PartitionName(chartID, e.now())

	if p, ok := e.files[chartID]; ok {
		if p.name == name {
			return p, nil
		}
		p.f.Close()
		delete(e.files, chartID)
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(e.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open partition: %w", err)
	}

	p := &partition{name: name, f: f}
	e.files[chartID] = p
	e.logger.Info("opened log partition", "chart", chartID, "file", name)
	return p, nil
}

// PartitionName returns the file name for a chart's daily partition.
func PartitionName(chartID int, day time.Time) string {
	return fmt.Sprintf("chart_%d_%04d%02d%02d.jsonl", chartID, day.Year(), int(day.Month()), day.Day())
}

// Recorder is an in-memory Emitter used in tests and as a sink for dry runs.
type Recorder struct {
	mu     sync.Mutex
	events []RecordedEvent
}

// RecordedEvent pairs an event with the chart it was emitted for.
type RecordedEvent struct {
	ChartID int
	Event   model.Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit records the event.
func (r *Recorder) Emit(chartID int, ev model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{ChartID: chartID, Event: ev})
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Reset discards recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
