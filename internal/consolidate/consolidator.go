package consolidate

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// Config controls one consolidation run.
type Config struct {
	BatchSize   int // Rows per insert batch
	Concurrency int // Partition files processed in parallel
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:   1000,
		Concurrency: 4,
	}
}

// Stats summarizes one run.
type Stats struct {
	Files       int
	Records     int64
	Inserts     int64
	Conflicts   int64
	ParseErrors int64
}

// Consolidator loads daily JSONL partitions into TimescaleDB. Rows are
// keyed by content fingerprint, so overlapping runs and duplicate
// partitions from redundant dumper instances collapse cleanly.
type Consolidator struct {
	cfg    Config
	db     *pgxpool.Pool
	logger *slog.Logger
	runID  uuid.UUID

	mu    sync.Mutex
	stats Stats
}

// New creates a consolidator writing through db.
func New(cfg Config, db *pgxpool.Pool, logger *slog.Logger) *Consolidator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}

	return &Consolidator{
		cfg:    cfg,
		db:     db,
		logger: logger.With("component", "consolidator"),
		runID:  uuid.New(),
	}
}

// Run consolidates every partition under dir. Files are processed in
// parallel; a failing file aborts the run.
func (c *Consolidator) Run(ctx context.Context, dir string) (Stats, error) {
	partitions, err := ScanPartitions(dir)
	if err != nil {
		return Stats{}, err
	}

	c.logger.Info("consolidation run starting",
		"run_id", c.runID,
		"dir", dir,
		"files", len(partitions),
	)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)

	for _, p := range partitions {
		p := p
		g.Go(func() error {
			return c.consumeFile(ctx, p)
		})
	}

	if err := g.Wait(); err != nil {
		return c.Stats(), err
	}

	c.mu.Lock()
	c.stats.Files = len(partitions)
	stats := c.stats
	c.mu.Unlock()

	c.logger.Info("consolidation run finished",
		"run_id", c.runID,
		"records", stats.Records,
		"inserts", stats.Inserts,
		"conflicts", stats.Conflicts,
		"parse_errors", stats.ParseErrors,
		"duration", time.Since(start),
	)
	return stats, nil
}

// Stats returns counters accumulated so far.
func (c *Consolidator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// consumeFile streams one partition into the database in batches.
func (c *Consolidator) consumeFile(ctx context.Context, p Partition) error {
	f, err := os.Open(p.Path)
	if err != nil {
		return fmt.Errorf("open partition: %w", err)
	}
	defer f.Close()

	batch := make([]Record, 0, c.cfg.BatchSize)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		rec, err := ParseLine(line)
		if err != nil {
			c.mu.Lock()
			c.stats.ParseErrors++
			c.mu.Unlock()
			c.logger.Warn("skipping bad line", "file", p.Path, "error", err)
			continue
		}

		batch = append(batch, rec)
		if len(batch) >= c.cfg.BatchSize {
			if err := c.flush(ctx, p, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read partition %s: %w", p.Path, err)
	}

	if len(batch) > 0 {
		return c.flush(ctx, p, batch)
	}
	return nil
}

// flush inserts one batch using pgx.Batch with ON CONFLICT DO NOTHING.
func (c *Consolidator) flush(ctx context.Context, p Partition, records []Record) error {
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO market_events (fingerprint, ts, chart_id, record_type, day, run_id, payload)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (fingerprint) DO NOTHING
		`, r.Fingerprint(), r.T, r.Chart, r.Type, p.Day, c.runID, r.Raw)
	}

	results := c.db.SendBatch(ctx, batch)
	defer results.Close()

	var conflicts int64
	for range records {
		ct, err := results.Exec()
		if err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	c.mu.Lock()
	c.stats.Records += int64(len(records))
	c.stats.Inserts += int64(len(records)) - conflicts
	c.stats.Conflicts += conflicts
	c.mu.Unlock()

	c.logger.Debug("flushed batch",
		"file", p.Path,
		"count", len(records),
		"conflicts", conflicts,
	)
	return nil
}
