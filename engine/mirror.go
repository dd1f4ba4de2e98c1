package engine

import (
	"bytes"
	"context"
	"os"

	"github.com/pierrec/lz4/v4"
	"golang.org/x/sync/errgroup"
)

// Mirror blob naming: segments are archived lz4-framed, the snapshot is
// copied verbatim.
const mirrorSegmentSuffix = ".lz4"

// SyncMirror pushes the index snapshot and an lz4 archive of every segment
// to the configured mirror store. Uploads run in parallel, bounded by the
// resource controller's worker and IO limits.
//
// The segment list is captured under the read lock but uploads happen
// outside it, so a concurrent append can make an archive marginally stale.
// The mirror is best-effort by design; the primary directory stays
// authoritative.
func (e *Engine) SyncMirror(ctx context.Context) error {
	if e.mirror == nil {
		return nil
	}

	e.mu.RLock()
	if err := e.checkOpen(); err != nil {
		e.mu.RUnlock()
		return err
	}
	names, err := e.segments.List("")
	e.mu.RUnlock()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.res.MaxWorkers())

	for _, name := range names {
		g.Go(func() error {
			data, err := e.segments.ReadAll(name)
			if err != nil {
				return err
			}
			return e.uploadSegment(gctx, name, data)
		})
	}
	g.Go(func() error {
		data, err := os.ReadFile(e.snapshotPath())
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if err := e.res.AcquireIO(gctx, len(data)); err != nil {
			return err
		}
		return e.mirror.Put(gctx, SnapshotFile, data)
	})

	return g.Wait()
}

// mirrorSegmentLocked uploads one segment archive, logging instead of
// failing: mirror trouble must never fail the compaction that triggered it.
func (e *Engine) mirrorSegmentLocked(ctx context.Context, name string, content []byte) {
	if e.mirror == nil {
		return
	}
	if err := e.uploadSegment(ctx, name, content); err != nil {
		e.logger.Warn("mirror segment upload failed", "segment", name, "error", err)
	}
}

func (e *Engine) mirrorSnapshotLocked(ctx context.Context) {
	if e.mirror == nil {
		return
	}
	data, err := os.ReadFile(e.snapshotPath())
	if err != nil {
		e.logger.Warn("mirror snapshot read failed", "error", err)
		return
	}
	if err := e.mirror.Put(ctx, SnapshotFile, data); err != nil {
		e.logger.Warn("mirror snapshot upload failed", "error", err)
	}
}

func (e *Engine) uploadSegment(ctx context.Context, name string, content []byte) error {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(content); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	if err := e.res.AcquireIO(ctx, buf.Len()); err != nil {
		return err
	}
	return e.mirror.Put(ctx, name+mirrorSegmentSuffix, buf.Bytes())
}
