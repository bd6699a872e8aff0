// Package model defines the data types shared across the dumper.
//
// Two families of types live here:
//   - Upstream types: what the charting host hands us on each update
//     (bars, depth entries, volume-at-price samples, time & sales records).
//   - Emitted events: the flat, immutable records appended to the JSONL log.
//
// Emitted event field names are a compatibility boundary. Downstream
// consumers dispatch on the "type" tag; existing names must never change
// meaning, only new fields may be added.
package model
