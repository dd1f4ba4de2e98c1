// Package index maintains the in-memory mapping from record identifiers to
// their physical locations, plus the per-segment line counters and live-line
// bitmaps derived from it.
//
// The index is the source of truth for logical record presence: an id absent
// here is logically deleted even while its line still sits on disk awaiting
// compaction. It is not safe for concurrent use; the engine serializes
// access.
package index

import (
	"iter"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/memlog/model"
)

// Entry pairs a record id with its location. Used for snapshot interchange
// and compaction reconciliation.
type Entry struct {
	ID string `json:"id"`
	model.Location
}

// Index maps record ids to segment locations.
//
// Invariants maintained here:
//   - every entry's line is marked in the live bitmap of its segment;
//   - a segment's line counter equals the number of lines physically
//     present (every write path goes through NextLine, and compaction
//     resets the counter through ResetSegment).
type Index struct {
	entries  map[string]model.Location
	counters map[string]int
	live     map[string]*roaring.Bitmap
}

// New creates an empty index.
func New() *Index {
	return &Index{
		entries:  make(map[string]model.Location),
		counters: make(map[string]int),
		live:     make(map[string]*roaring.Bitmap),
	}
}

// Lookup returns the location for id.
func (x *Index) Lookup(id string) (model.Location, bool) {
	loc, ok := x.entries[id]
	return loc, ok
}

// Put inserts or replaces the entry for id. When replacing, the superseded
// line is cleared from its segment's live bitmap; the physical line stays on
// disk as garbage until compaction.
func (x *Index) Put(id string, loc model.Location) {
	if old, ok := x.entries[id]; ok {
		x.unmark(old)
	}
	x.entries[id] = loc
	x.mark(loc)
}

// Remove deletes the entry for id, reporting whether it existed. This is
// logical deletion only.
func (x *Index) Remove(id string) bool {
	loc, ok := x.entries[id]
	if !ok {
		return false
	}
	delete(x.entries, id)
	x.unmark(loc)
	return true
}

// Len returns the number of indexed records.
func (x *Index) Len() int { return len(x.entries) }

// NextLine increments and returns the 1-based line counter for a segment.
// Every write path (fresh append, re-store with an existing id) goes through
// this so numbering never diverges between paths.
func (x *Index) NextLine(segmentName string) int {
	x.counters[segmentName]++
	return x.counters[segmentName]
}

// LineCount returns the current line counter for a segment.
func (x *Index) LineCount(segmentName string) int {
	return x.counters[segmentName]
}

// SetLineCount overrides the line counter for a segment. Used when counters
// are recomputed from disk.
func (x *Index) SetLineCount(segmentName string, n int) {
	if n <= 0 {
		delete(x.counters, segmentName)
		return
	}
	x.counters[segmentName] = n
}

// Counters returns a copy of the per-segment line counters.
func (x *Index) Counters() map[string]int {
	out := make(map[string]int, len(x.counters))
	for k, v := range x.counters {
		out[k] = v
	}
	return out
}

// Live returns the bitmap of live line numbers for a segment, or nil if the
// segment has no indexed lines. The returned bitmap is a read-only view that
// is invalidated by the next mutation.
func (x *Index) Live(segmentName string) *roaring.Bitmap {
	return x.live[segmentName]
}

// Entries iterates over all (id, location) pairs in unspecified order.
func (x *Index) Entries() iter.Seq2[string, model.Location] {
	return func(yield func(string, model.Location) bool) {
		for id, loc := range x.entries {
			if !yield(id, loc) {
				return
			}
		}
	}
}

// SegmentEntries returns the entries located in the given segment, ordered
// by line number.
func (x *Index) SegmentEntries(segmentName string) []Entry {
	var out []Entry
	for id, loc := range x.entries {
		if loc.Segment == segmentName {
			out = append(out, Entry{ID: id, Location: loc})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// ResetSegment rewrites the index state for one segment after compaction:
// survivors are the retained entries in their new physical order, and they
// are renumbered 1..len(survivors). The line counter and live bitmap are
// rebuilt to match.
func (x *Index) ResetSegment(segmentName string, survivors []Entry) {
	delete(x.live, segmentName)
	for i, e := range survivors {
		loc := model.Location{Segment: segmentName, Line: i + 1, Size: e.Size}
		x.entries[e.ID] = loc
		x.mark(loc)
	}
	x.SetLineCount(segmentName, len(survivors))
}

// Clear empties the index, counters and bitmaps.
func (x *Index) Clear() {
	x.entries = make(map[string]model.Location)
	x.counters = make(map[string]int)
	x.live = make(map[string]*roaring.Bitmap)
}

func (x *Index) mark(loc model.Location) {
	bm := x.live[loc.Segment]
	if bm == nil {
		bm = roaring.New()
		x.live[loc.Segment] = bm
	}
	bm.Add(uint32(loc.Line))
}

func (x *Index) unmark(loc model.Location) {
	if bm := x.live[loc.Segment]; bm != nil {
		bm.Remove(uint32(loc.Line))
		if bm.IsEmpty() {
			delete(x.live, loc.Segment)
		}
	}
}
