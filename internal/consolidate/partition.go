package consolidate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// Partition is one daily JSONL file written by the dumper.
type Partition struct {
	Path    string
	ChartID int
	Day     time.Time // Midnight UTC of the partition day
}

// partitionRe matches the dumper's file naming: chart_<id>_<yyyymmdd>.jsonl.
var partitionRe = regexp.MustCompile(`^chart_(\d+)_(\d{8})\.jsonl$`)

// ParsePartitionName extracts chart id and day from a partition file name.
func ParsePartitionName(name string) (Partition, bool) {
	m := partitionRe.FindStringSubmatch(name)
	if m == nil {
		return Partition{}, false
	}

	chartID, err := strconv.Atoi(m[1])
	if err != nil {
		return Partition{}, false
	}
	day, err := time.Parse("20060102", m[2])
	if err != nil {
		return Partition{}, false
	}

	return Partition{ChartID: chartID, Day: day}, true
}

// ScanPartitions lists the partition files under dir, oldest day first.
// Files that do not match the naming scheme are ignored.
func ScanPartitions(dir string) ([]Partition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read partition dir: %w", err)
	}

	var out []Partition
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p, ok := ParsePartitionName(e.Name())
		if !ok {
			continue
		}
		p.Path = filepath.Join(dir, e.Name())
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Day.Equal(out[j].Day) {
			return out[i].Day.Before(out[j].Day)
		}
		return out[i].ChartID < out[j].ChartID
	})
	return out, nil
}
