package engine

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/memlog/codec"
	"github.com/hupe1980/memlog/index"
	"github.com/hupe1980/memlog/model"
)

// RebuildResult summarizes an index rebuild.
type RebuildResult struct {
	Segments     int
	Records      int
	CorruptLines int
}

// Rebuild clears the index and reconstructs it by replaying every segment.
// This is the authoritative recovery path when the snapshot is missing,
// stale, or suspected inconsistent with disk.
//
// Malformed lines occupy their line slot (so later valid lines keep correct
// numbers) but are not indexed. When the same id appears on multiple lines,
// the later line wins, mirroring the append order that produced it.
func (e *Engine) Rebuild(ctx context.Context) (RebuildResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkOpen(); err != nil {
		return RebuildResult{}, err
	}

	result, err := e.rebuildLocked()
	if err != nil {
		return result, err
	}
	return result, e.saveSnapshotLocked()
}

// rebuildLocked scans segments in parallel (bounded by the resource
// controller) and applies the collected entries in deterministic segment
// order. Also used during initialization, before the engine is published.
func (e *Engine) rebuildLocked() (RebuildResult, error) {
	var result RebuildResult

	names, err := e.segments.List("")
	if err != nil {
		return result, err
	}

	type segmentScan struct {
		lines   int
		corrupt int
		entries []index.Entry
	}
	scans := make([]segmentScan, len(names))

	g := new(errgroup.Group)
	g.SetLimit(e.res.MaxWorkers())
	for i, name := range names {
		g.Go(func() error {
			var s segmentScan
			err := e.segments.Scan(name, func(line int, data []byte) error {
				s.lines++
				rec, err := codec.DecodeLine(data)
				if err != nil {
					s.corrupt++
					return nil
				}
				s.entries = append(s.entries, index.Entry{
					ID: rec.ID,
					Location: model.Location{
						Segment: name,
						Line:    line,
						Size:    int64(len(data)),
					},
				})
				return nil
			})
			if err != nil {
				return err
			}
			scans[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	e.idx.Clear()
	sorted := make([]int, len(names))
	for i := range names {
		sorted[i] = i
	}
	sort.Slice(sorted, func(a, b int) bool { return names[sorted[a]] < names[sorted[b]] })

	for _, i := range sorted {
		for _, entry := range scans[i].entries {
			e.idx.Put(entry.ID, entry.Location)
		}
		e.idx.SetLineCount(names[i], scans[i].lines)
		result.CorruptLines += scans[i].corrupt
	}
	result.Segments = len(names)
	result.Records = e.idx.Len()

	return result, nil
}
