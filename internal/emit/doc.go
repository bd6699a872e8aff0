// Package emit appends typed event records to the output log.
//
// The log is partitioned by (chart, day): one JSONL file per source per
// calendar day, created lazily on first write. A record is fully marshaled
// in memory before the append, so the log never contains partial lines.
package emit
