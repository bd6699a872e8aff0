package consolidate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Envelope is the part of every JSONL record the consolidator dispatches
// on. The full line is kept as the payload; the database does not need to
// understand every record family.
type Envelope struct {
	T     float64 `json:"t"`
	Type  string  `json:"type"`
	Chart int     `json:"chart"`
}

// Record is one parsed JSONL line.
type Record struct {
	Envelope
	Raw []byte // The original line, stored as the payload
}

// ParseLine decodes one JSONL line. Lines without a type tag are rejected:
// every record family carries one.
func ParseLine(line []byte) (Record, error) {
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return Record{}, fmt.Errorf("decode line: %w", err)
	}
	if env.Type == "" {
		return Record{}, fmt.Errorf("line has no type tag")
	}

	raw := make([]byte, len(line))
	copy(raw, line)
	return Record{Envelope: env, Raw: raw}, nil
}

// Fingerprint returns the dedup key of a record: the hex SHA-256 of the
// raw line. Re-running the consolidator over the same partitions, or two
// dumper instances writing identical records, collapse to one row.
func (r Record) Fingerprint() string {
	sum := sha256.Sum256(r.Raw)
	return hex.EncodeToString(sum[:])
}
