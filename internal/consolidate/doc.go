// Package consolidate loads the dumper's daily JSONL partitions into
// TimescaleDB.
//
// The dumper's log is the source of truth; consolidation is idempotent
// and safe to re-run. Every line becomes one row keyed by its content
// fingerprint, with the raw JSON kept as the payload so new record
// families never require a schema change.
package consolidate
