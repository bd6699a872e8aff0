package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *DumperConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}
	if c.Bridge.URL == "" {
		return errors.New("bridge.url is required")
	}
	if len(c.Charts) == 0 {
		return errors.New("at least one chart is required")
	}

	seen := make(map[int]bool, len(c.Charts))
	for _, ch := range c.Charts {
		if ch.ID < 1 {
			return fmt.Errorf("charts[].id must be >= 1, got %d", ch.ID)
		}
		if seen[ch.ID] {
			return fmt.Errorf("duplicate chart id %d", ch.ID)
		}
		seen[ch.ID] = true

		if err := ch.validate(); err != nil {
			return fmt.Errorf("chart %d: %w", ch.ID, err)
		}
	}

	return nil
}

func (ch ChartConfig) validate() error {
	if ch.VWAP.Bands < 0 || ch.VWAP.Bands > 2 {
		return fmt.Errorf("vwap.bands must be between 0 and 2, got %d", ch.VWAP.Bands)
	}
	if ch.PVWAP.Bands < 0 || ch.PVWAP.Bands > 4 {
		return fmt.Errorf("pvwap.bands must be between 0 and 4, got %d", ch.PVWAP.Bands)
	}
	if ch.VVA.Fraction < 0 || ch.VVA.Fraction > 1 {
		return fmt.Errorf("vva.fraction must be between 0 and 1, got %v", ch.VVA.Fraction)
	}
	if ch.Index.Enabled && ch.Index.ChartID == 0 && ch.Index.StudyID == 0 {
		return errors.New("index requires chart_id or study_id")
	}
	if ch.CrossChartID == ch.ID && ch.CrossChartID != 0 {
		return errors.New("cross_chart_id cannot reference the chart itself")
	}
	if ch.Levels.Enabled {
		if ch.Levels.ChartID == 0 {
			return errors.New("levels requires chart_id")
		}
		if ch.Levels.ChartID == ch.ID {
			return errors.New("levels.chart_id cannot reference the chart itself")
		}
	}
	if ch.Normalize.RescaleDivisor < 0 {
		return fmt.Errorf("normalize.rescale_divisor must be >= 0, got %v", ch.Normalize.RescaleDivisor)
	}
	return nil
}

// ValidateConsolidator checks the fields only the consolidator command
// needs. Kept separate so the dumper can run without database settings.
func (c *DumperConfig) ValidateConsolidator() error {
	if err := c.Consolidator.DB.validate("consolidator.db"); err != nil {
		return err
	}
	if c.Consolidator.BatchSize < 1 {
		return errors.New("consolidator.batch_size must be >= 1")
	}
	if c.Consolidator.Concurrency < 1 {
		return errors.New("consolidator.concurrency must be >= 1")
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
