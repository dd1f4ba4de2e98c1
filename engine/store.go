package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hupe1980/memlog/codec"
	"github.com/hupe1980/memlog/core"
	"github.com/hupe1980/memlog/model"
	"github.com/hupe1980/memlog/segment"
)

// Append stores a record, assigning engine-owned fields: a content-derived
// id when the caller supplies none, the current UTC timestamp when absent,
// and always a fresh payload checksum. Identical (type, payload) pairs
// without explicit ids collide onto one logical entry.
//
// The returned record is the stored form, including assigned fields.
func (e *Engine) Append(ctx context.Context, rec *model.Record) (*model.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	stored, err := e.prepare(rec, "")
	if err != nil {
		return nil, err
	}
	if err := e.putLocked(stored); err != nil {
		return nil, err
	}
	return stored, e.saveSnapshotLocked()
}

// Store is Append for callers that manage their own identifiers: rec.ID is
// honored as-is and must be non-empty. An existing entry under that id is
// superseded; its old line becomes garbage until compaction.
func (e *Engine) Store(ctx context.Context, rec *model.Record) (*model.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if rec.ID == "" {
		return nil, ErrMissingID
	}

	stored, err := e.prepare(rec, rec.ID)
	if err != nil {
		return nil, err
	}
	if err := e.putLocked(stored); err != nil {
		return nil, err
	}
	return stored, e.saveSnapshotLocked()
}

// Get returns the record stored under id. An index entry pointing at a
// missing line, one that no longer parses, or one whose id mismatches
// reports ErrNotFound here (use Verify to surface the inconsistency); IO
// failures reading the segment propagate as-is.
func (e *Engine) Get(ctx context.Context, id string) (*model.Record, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	loc, ok := e.idx.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	rec, err := e.readLocked(id, loc)
	if err != nil {
		if errors.Is(err, ErrInconsistentIndex) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return rec, nil
}

// Delete removes id from the index. The physical line remains in its
// segment until compaction runs.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkOpen(); err != nil {
		return err
	}
	if !e.idx.Remove(id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.saveSnapshotLocked()
}

// Update replaces the record stored under id, keeping the id stable. It is
// implemented as delete-then-reinsert, so the record may move to a different
// segment when its effective timestamp lands in another month.
func (e *Engine) Update(ctx context.Context, id string, rec *model.Record) (*model.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if _, ok := e.idx.Lookup(id); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	stored, err := e.prepare(rec, id)
	if err != nil {
		return nil, err
	}

	e.idx.Remove(id)
	if err := e.putLocked(stored); err != nil {
		return nil, err
	}
	return stored, e.saveSnapshotLocked()
}

// All returns every currently indexed record in (segment, line) order.
// Lines that fail to parse are skipped, matching the bulk-scan policy.
func (e *Engine) All(ctx context.Context) ([]*model.Record, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	type pair struct {
		id  string
		loc model.Location
	}
	pairs := make([]pair, 0, e.idx.Len())
	for id, loc := range e.idx.Entries() {
		pairs = append(pairs, pair{id: id, loc: loc})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].loc.Segment != pairs[j].loc.Segment {
			return pairs[i].loc.Segment < pairs[j].loc.Segment
		}
		return pairs[i].loc.Line < pairs[j].loc.Line
	})

	out := make([]*model.Record, 0, len(pairs))
	for _, p := range pairs {
		rec, err := e.readLocked(p.id, p.loc)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// prepare validates a record and fills engine-assigned fields. forceID
// pins the identifier (Store, Update); otherwise a missing id is derived
// from content.
func (e *Engine) prepare(rec *model.Record, forceID string) (*model.Record, error) {
	if !rec.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, rec.Type)
	}

	stored := *rec

	if stored.Timestamp == "" {
		stored.Timestamp = e.now().UTC().Format(model.TimestampLayout)
	} else if _, err := time.Parse(model.TimestampLayout, stored.Timestamp); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimestamp, stored.Timestamp)
	}

	switch {
	case forceID != "":
		stored.ID = forceID
	case stored.ID == "":
		id, err := core.DeriveID(stored.Type, stored.Data)
		if err != nil {
			return nil, err
		}
		stored.ID = id
	}

	sum, err := core.Checksum(stored.Data)
	if err != nil {
		return nil, err
	}
	stored.Checksum = sum

	if len(stored.Tags) == 0 && len(stored.Metadata.Tags) > 0 {
		stored.Tags = stored.Metadata.Tags
	}

	return &stored, nil
}

// putLocked appends the record to its segment and indexes it. The caller
// holds the write lock, which makes the physical append and the line-counter
// increment atomic as a pair.
func (e *Engine) putLocked(rec *model.Record) error {
	ts, err := rec.Time()
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimestamp, rec.Timestamp)
	}

	data, err := codec.EncodeLine(rec)
	if err != nil {
		return err
	}

	name := segment.Name(rec.Type, ts)
	line := e.idx.NextLine(name)
	if err := e.segments.Append(name, data); err != nil {
		// The physical write failed; roll the counter back so it keeps
		// matching the lines actually on disk.
		e.idx.SetLineCount(name, line-1)
		return err
	}

	e.idx.Put(rec.ID, model.Location{Segment: name, Line: line, Size: int64(len(data))})
	return nil
}

// readLocked fetches and decodes the line behind an index entry, verifying
// that the stored id matches the key.
func (e *Engine) readLocked(id string, loc model.Location) (*model.Record, error) {
	data, err := e.segments.ReadAt(loc.Segment, loc.Line)
	if err != nil {
		if errors.Is(err, segment.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s at %s", ErrInconsistentIndex, id, loc)
		}
		return nil, err
	}

	rec, err := codec.DecodeLine(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s at %s: %v", ErrInconsistentIndex, id, loc, err)
	}
	if rec.ID != id {
		return nil, fmt.Errorf("%w: %s at %s holds %s", ErrInconsistentIndex, id, loc, rec.ID)
	}
	return rec, nil
}
