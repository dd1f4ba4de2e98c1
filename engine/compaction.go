package engine

import (
	"bytes"
	"context"

	"github.com/hupe1980/memlog/index"
	"github.com/hupe1980/memlog/model"
)

// CompactionResult summarizes a compaction run.
type CompactionResult struct {
	SegmentsCompacted int
	LinesKept         int
	LinesDropped      int
	BytesReclaimed    int64
}

// Compact rewrites segments, keeping only lines whose id is still present in
// the index; tombstoned, superseded and corrupt lines are dropped. Retained
// lines keep their original relative order and are renumbered 1..n, and the
// index is reconciled (new line numbers, new line counter) in the same
// critical section that replaces the file, so no lookup ever observes stale
// numbering.
//
// With no types given, every segment is compacted. The engine write lock is
// held per segment, which excludes concurrent appends to it; background
// concurrency and write volume are bounded by the resource controller.
func (e *Engine) Compact(ctx context.Context, types ...model.RecordType) (CompactionResult, error) {
	var result CompactionResult

	names, err := e.listForTypes(types)
	if err != nil {
		return result, err
	}

	for _, name := range names {
		if err := e.res.AcquireBackground(ctx); err != nil {
			return result, err
		}
		segResult, err := e.compactSegment(ctx, name)
		e.res.ReleaseBackground()
		if err != nil {
			return result, err
		}

		result.SegmentsCompacted++
		result.LinesKept += segResult.LinesKept
		result.LinesDropped += segResult.LinesDropped
		result.BytesReclaimed += segResult.BytesReclaimed
	}

	return result, nil
}

func (e *Engine) compactSegment(ctx context.Context, name string) (CompactionResult, error) {
	var result CompactionResult

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkOpen(); err != nil {
		return result, err
	}

	byLine := make(map[int]index.Entry)
	for _, entry := range e.idx.SegmentEntries(name) {
		byLine[entry.Line] = entry
	}

	var (
		buf       bytes.Buffer
		survivors []index.Entry
	)
	err := e.segments.Scan(name, func(line int, data []byte) error {
		entry, ok := byLine[line]
		if !ok {
			result.LinesDropped++
			return nil
		}
		buf.Write(data)
		buf.WriteByte('\n')
		entry.Size = int64(len(data))
		survivors = append(survivors, entry)
		result.LinesKept++
		return nil
	})
	if err != nil {
		return result, err
	}

	if result.LinesDropped == 0 {
		// Nothing to reclaim; leave the file and its numbering untouched.
		return result, nil
	}

	// Measured, not accumulated: a final line without its newline would
	// otherwise skew the reclaimed-bytes figure.
	oldSize, err := e.segments.Size(name)
	if err != nil {
		return result, err
	}

	if err := e.res.AcquireIO(ctx, buf.Len()); err != nil {
		return result, err
	}
	if err := e.segments.Replace(name, buf.Bytes()); err != nil {
		return result, err
	}

	e.idx.ResetSegment(name, survivors)
	result.BytesReclaimed = oldSize - int64(buf.Len())

	if err := e.saveSnapshotLocked(); err != nil {
		return result, err
	}

	// Best-effort: push the compacted segment and fresh snapshot to the
	// mirror while the content is known to be stable.
	e.mirrorSegmentLocked(ctx, name, buf.Bytes())
	e.mirrorSnapshotLocked(ctx)

	return result, nil
}

func (e *Engine) listForTypes(types []model.RecordType) ([]string, error) {
	if len(types) == 0 {
		return e.segments.List("")
	}

	var names []string
	for _, t := range types {
		part, err := e.segments.List(t)
		if err != nil {
			return nil, err
		}
		names = append(names, part...)
	}
	return names, nil
}
