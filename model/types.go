package model

import (
	"fmt"
	"time"
)

// RecordType categorizes a memory record and determines its physical
// placement: all records of one type for one calendar month share a segment.
type RecordType string

const (
	TypeAnalysis       RecordType = "analysis"
	TypeRecommendation RecordType = "recommendation"
	TypeDeployment     RecordType = "deployment"
	TypeConfiguration  RecordType = "configuration"
	TypeInteraction    RecordType = "interaction"
)

// Types lists all valid record types.
func Types() []RecordType {
	return []RecordType{
		TypeAnalysis,
		TypeRecommendation,
		TypeDeployment,
		TypeConfiguration,
		TypeInteraction,
	}
}

// Valid reports whether t is one of the closed set of record types.
func (t RecordType) Valid() bool {
	switch t {
	case TypeAnalysis, TypeRecommendation, TypeDeployment, TypeConfiguration, TypeInteraction:
		return true
	default:
		return false
	}
}

// TimestampLayout is the canonical timestamp format. All timestamps are UTC
// RFC 3339 with second precision so that lexicographic order is
// chronological order.
const TimestampLayout = time.RFC3339

// Metadata is the small fixed envelope attached to every record.
//
// The provenance flags (Compressed, Merged and their companions) are written
// by maintenance operations of the host system; the engine stores them
// opaquely and never interprets them.
type Metadata struct {
	ProjectID    string   `json:"projectId,omitempty"`
	Repository   string   `json:"repository,omitempty"`
	SSG          string   `json:"ssg,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Version      string   `json:"version,omitempty"`
	Compressed   bool     `json:"compressed,omitempty"`
	CompressedAt string   `json:"compressedAt,omitempty"`
	Merged       bool     `json:"merged,omitempty"`
	MergedCount  int      `json:"mergedCount,omitempty"`
	MergedAt     string   `json:"mergedAt,omitempty"`
}

// Record is the unit of storage. Field order matters: it is the on-disk
// JSON object order of the line format.
type Record struct {
	ID         string         `json:"id"`
	Timestamp  string         `json:"timestamp"`
	Type       RecordType     `json:"type"`
	Data       map[string]any `json:"data"`
	Metadata   Metadata       `json:"metadata"`
	Tags       []string       `json:"tags,omitempty"`
	Embeddings []float64      `json:"embeddings,omitempty"`
	Checksum   string         `json:"checksum"`
}

// Time parses the record timestamp. An empty timestamp is not valid here;
// the engine assigns a default before a record ever reaches storage.
func (r *Record) Time() (time.Time, error) {
	return time.Parse(TimestampLayout, r.Timestamp)
}

// Location identifies where a record line lives on disk.
type Location struct {
	// Segment is the segment file name, e.g. "analysis_2026_08.jsonl".
	Segment string `json:"segment"`
	// Line is the 1-based line number within the segment.
	Line int `json:"line"`
	// Size is the serialized byte size of the line, excluding the newline.
	Size int64 `json:"size"`
}

// String returns a string representation of the Location.
func (l Location) String() string {
	return fmt.Sprintf("Loc(%s:%d)", l.Segment, l.Line)
}

// Statistics aggregates logical and physical state of the store.
//
// TotalEntries is the logical count (index size). ByType, ByMonth and
// TotalSizeBytes describe physical segment presence and may exceed the
// logical view until compaction runs after deletions.
type Statistics struct {
	TotalEntries   int                `json:"totalEntries"`
	ByType         map[RecordType]int `json:"byType"`
	ByMonth        map[string]int     `json:"byMonth"`
	TotalSizeBytes int64              `json:"totalSize"`
}
