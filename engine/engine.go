// Package engine composes the segment store, index, query evaluation,
// compaction and recovery into the storage engine proper.
//
// Concurrency model: a single RWMutex serializes all mutations (append,
// store, update, delete, compaction reconciliation, rebuild) so the physical
// write and the line-counter increment are always atomic as a pair, and
// compaction can never interleave with an append to the same segment.
// Reads (Get, Query, All, Verify, Statistics) share the read lock and run
// concurrently with each other. The index snapshot is persisted after the
// physical write on every mutating path; a crash in between leaves a stale
// snapshot that Rebuild recovers from, never a corrupt one.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/hupe1980/memlog/blobstore"
	"github.com/hupe1980/memlog/codec"
	"github.com/hupe1980/memlog/index"
	"github.com/hupe1980/memlog/resource"
	"github.com/hupe1980/memlog/segment"
)

// Engine is the log-structured storage engine.
type Engine struct {
	mu       sync.RWMutex
	dir      string
	segments *segment.Store
	idx      *index.Index
	codec    codec.Codec
	res      *resource.Controller
	mirror   blobstore.Store
	logger   *slog.Logger
	now      func() time.Time

	compressSnapshot bool
	fsync            bool
	closed           bool
}

// New opens (creating if necessary) an engine rooted at dir and brings the
// index to a ready state: the persisted snapshot is loaded when present and
// readable, legacy snapshots trigger a line-counter recount, and a missing
// or corrupt snapshot triggers a full rebuild from the segments.
func New(dir string, optFns ...func(o *Options)) (*Engine, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	segs, err := segment.NewStore(dir)
	if err != nil {
		return nil, err
	}
	segs.SetSync(opts.Fsync)

	e := &Engine{
		dir:              dir,
		segments:         segs,
		idx:              index.New(),
		codec:            opts.Codec,
		res:              resource.NewController(opts.Resources),
		mirror:           opts.Mirror,
		logger:           opts.Logger,
		now:              opts.Now,
		compressSnapshot: opts.CompressSnapshot,
		fsync:            opts.Fsync,
	}

	if err := e.initialize(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) initialize() error {
	snap, err := e.loadSnapshot()
	switch {
	case err == nil:
		if needsRecount := e.idx.Load(snap); needsRecount {
			if err := e.recountLines(); err != nil {
				return fmt.Errorf("engine: recount line counters: %w", err)
			}
		}
		return nil

	case errors.Is(err, os.ErrNotExist):
		// First open, or the snapshot was lost. The segments are
		// authoritative either way.
		_, rerr := e.rebuildLocked()
		return rerr

	case errors.Is(err, codec.ErrCorrupt):
		e.logger.Warn("index snapshot unreadable, rebuilding", "error", err)
		_, rerr := e.rebuildLocked()
		return rerr

	default:
		return err
	}
}

// recountLines recomputes every segment's line counter by scanning the
// files. Used when a legacy snapshot (predating line-counter tracking) is
// loaded.
func (e *Engine) recountLines() error {
	names, err := e.segments.List("")
	if err != nil {
		return err
	}
	for _, name := range names {
		n, err := e.segments.CountLines(name)
		if err != nil {
			return err
		}
		e.idx.SetLineCount(name, n)
	}
	return nil
}

// Dir returns the engine's root storage directory.
func (e *Engine) Dir() string { return e.dir }

// Len returns the number of logically present records.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.Len()
}

// Close marks the engine closed and releases in-memory state. It never
// reports an error; all durable state is already on disk.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.idx.Clear()
}

func (e *Engine) checkOpen() error {
	if e.closed {
		return ErrClosed
	}
	return nil
}
