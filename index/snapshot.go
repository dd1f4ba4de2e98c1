package index

import "sort"

// SnapshotVersion is the current persisted snapshot format version.
// Version 1 predates line-counter tracking; loading it requires a full
// recount of every referenced segment before the index is ready.
const SnapshotVersion = 2

// Snapshot is the serializable form of the index.
type Snapshot struct {
	Version      int            `json:"version"`
	Entries      []Entry        `json:"entries"`
	LineCounters map[string]int `json:"lineCounters,omitempty"`
}

// Snapshot captures the current index state. Entries are sorted by id so
// snapshots of identical state are byte-identical.
func (x *Index) Snapshot() Snapshot {
	entries := make([]Entry, 0, len(x.entries))
	for id, loc := range x.entries {
		entries = append(entries, Entry{ID: id, Location: loc})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	return Snapshot{
		Version:      SnapshotVersion,
		Entries:      entries,
		LineCounters: x.Counters(),
	}
}

// Load replaces the index state with the snapshot content. The returned
// needsRecount is true for legacy snapshots lacking line counters; the
// caller must then recount every referenced segment from disk before using
// the index for writes.
func (x *Index) Load(s Snapshot) (needsRecount bool) {
	x.Clear()
	for _, e := range s.Entries {
		x.Put(e.ID, e.Location)
	}
	if s.LineCounters == nil {
		return true
	}
	for name, n := range s.LineCounters {
		x.SetLineCount(name, n)
	}
	return false
}
