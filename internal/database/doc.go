// Package database provides connection pool management for TimescaleDB.
//
// Only the consolidator touches the database: the dumper itself writes
// JSONL partitions and nothing else. The consolidated dataset lives in a
// single TimescaleDB hypertable per record family.
package database
