package ingest

import "time"

// CanonicalTimestampLayout is the persisted timestamp format. Fixed-width
// and zero-padded, so lexical order equals chronological order.
const CanonicalTimestampLayout = "2006-01-02 15:04:05"

// The feed has shipped timestamps in a few shapes over time: plain
// date-time, RFC3339 with a zone marker, and variants with fractional
// seconds. Every parseable shape is folded into the canonical layout.
var timestampLayouts = []string{
	CanonicalTimestampLayout,
	"2006-01-02 15:04:05.999999",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
}

// NormalizeTimestamp rewrites a recognized upstream timestamp into the
// canonical layout in UTC. Unrecognized strings pass through unchanged and
// remain an opaque unique key.
func NormalizeTimestamp(raw string) string {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(CanonicalTimestampLayout)
		}
	}
	return raw
}
