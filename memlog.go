package memlog

import (
	"context"
	"time"

	"github.com/hupe1980/memlog/engine"
	"github.com/hupe1980/memlog/model"
)

// MemLog is a persistent log-structured store for typed memory records.
//
// All methods are safe for concurrent use: reads run in parallel, mutations
// are serialized by the engine so line numbering and the index snapshot stay
// consistent with disk.
type MemLog struct {
	engine  *engine.Engine
	metrics MetricsCollector
	logger  *Logger
}

// Open initializes a store rooted at dir, creating the directory when
// absent. The persisted index snapshot is loaded when present; a missing or
// unreadable snapshot triggers a full rebuild from the segments, so Open
// succeeds on any directory whose segment files are intact.
func Open(dir string, optFns ...Option) (*MemLog, error) {
	opts := applyOptions(optFns)

	eng, err := engine.New(dir, func(o *engine.Options) {
		o.Codec = opts.codec
		o.Mirror = opts.mirror
		o.Resources = opts.resources
		o.CompressSnapshot = opts.compressSnapshot
		o.Fsync = opts.fsync
		o.Logger = opts.logger.Logger
	})
	if err != nil {
		return nil, translateError(err)
	}

	return &MemLog{
		engine:  eng,
		metrics: opts.metricsCollector,
		logger:  opts.logger,
	}, nil
}

// Append stores a record. Engine-assigned fields are filled in: a
// content-derived id when rec.ID is empty, the current UTC timestamp when
// rec.Timestamp is empty, and a fresh payload checksum always. Identical
// (type, payload) pairs without explicit ids resolve to one logical entry.
//
// The returned record is the stored form.
func (m *MemLog) Append(ctx context.Context, rec *model.Record) (*model.Record, error) {
	start := time.Now()
	stored, err := m.engine.Append(ctx, rec)
	err = translateError(err)
	m.metrics.RecordAppend(time.Since(start), err)
	if stored != nil {
		m.logger.LogAppend(ctx, stored.ID, string(stored.Type), err)
	} else {
		m.logger.LogAppend(ctx, rec.ID, string(rec.Type), err)
	}
	return stored, err
}

// Store is Append for callers that manage their own identifiers: rec.ID is
// honored as-is and must be non-empty. An existing entry under that id is
// superseded.
func (m *MemLog) Store(ctx context.Context, rec *model.Record) (*model.Record, error) {
	start := time.Now()
	stored, err := m.engine.Store(ctx, rec)
	err = translateError(err)
	m.metrics.RecordAppend(time.Since(start), err)
	m.logger.LogAppend(ctx, rec.ID, string(rec.Type), err)
	return stored, err
}

// Get retrieves a record by id. Returns ErrNotFound for absent ids and for
// index entries whose on-disk line is missing or unparseable (use Verify to
// distinguish the two); IO failures propagate untranslated.
func (m *MemLog) Get(ctx context.Context, id string) (*model.Record, error) {
	start := time.Now()
	rec, err := m.engine.Get(ctx, id)
	err = translateError(err)
	m.metrics.RecordGet(time.Since(start), err)
	m.logger.LogGet(ctx, id, err)
	return rec, err
}

// Query returns the records matching every supplied predicate of the
// filter, in physical append order, honoring filter.Limit exactly.
func (m *MemLog) Query(ctx context.Context, filter model.Filter) ([]*model.Record, error) {
	start := time.Now()
	results, err := m.engine.Query(ctx, filter)
	err = translateError(err)
	m.metrics.RecordQuery(len(results), time.Since(start), err)
	m.logger.LogQuery(ctx, len(results), err)
	return results, err
}

// Update replaces the record stored under id, keeping the id stable. The
// record may move to another segment when its effective timestamp lands in
// a different month.
func (m *MemLog) Update(ctx context.Context, id string, rec *model.Record) (*model.Record, error) {
	start := time.Now()
	stored, err := m.engine.Update(ctx, id, rec)
	err = translateError(err)
	m.metrics.RecordUpdate(time.Since(start), err)
	m.logger.LogUpdate(ctx, id, err)
	return stored, err
}

// Delete removes a record from the index. The physical line remains on disk
// until Compact runs.
func (m *MemLog) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := translateError(m.engine.Delete(ctx, id))
	m.metrics.RecordDelete(time.Since(start), err)
	m.logger.LogDelete(ctx, id, err)
	return err
}

// All returns every currently indexed (non-deleted) record.
func (m *MemLog) All(ctx context.Context) ([]*model.Record, error) {
	recs, err := m.engine.All(ctx)
	return recs, translateError(err)
}

// Compact rewrites segments of the given types (all types when none are
// given), dropping tombstoned, superseded and corrupt lines, and reconciles
// the index with the new line numbering.
func (m *MemLog) Compact(ctx context.Context, types ...model.RecordType) (engine.CompactionResult, error) {
	start := time.Now()
	result, err := m.engine.Compact(ctx, types...)
	err = translateError(err)
	m.metrics.RecordCompaction(result.LinesDropped, time.Since(start), err)
	m.logger.LogCompaction(ctx, result.SegmentsCompacted, result.LinesDropped, result.BytesReclaimed, err)
	return result, err
}

// RebuildIndex reconstructs the index by replaying every segment. This is
// the authoritative recovery path after snapshot loss or suspected
// corruption; malformed lines are skipped without failing the rebuild.
func (m *MemLog) RebuildIndex(ctx context.Context) (engine.RebuildResult, error) {
	start := time.Now()
	result, err := m.engine.Rebuild(ctx)
	err = translateError(err)
	m.metrics.RecordRebuild(result.Records, time.Since(start), err)
	m.logger.LogRebuild(ctx, result.Segments, result.Records, result.CorruptLines, err)
	return result, err
}

// Statistics reports the logical entry count plus physical per-type,
// per-month and total-size figures. Physical figures include tombstoned
// lines until compaction runs; that divergence is expected.
func (m *MemLog) Statistics(ctx context.Context) (model.Statistics, error) {
	stats, err := m.engine.Statistics(ctx)
	return stats, translateError(err)
}

// Verify reports index entries that disagree with disk without mutating
// anything. A non-empty result calls for RebuildIndex.
func (m *MemLog) Verify(ctx context.Context) ([]engine.Inconsistency, error) {
	issues, err := m.engine.Verify(ctx)
	return issues, translateError(err)
}

// SyncMirror pushes the index snapshot and archives of every segment to the
// configured mirror store. A no-op without WithMirror.
func (m *MemLog) SyncMirror(ctx context.Context) error {
	err := translateError(m.engine.SyncMirror(ctx))
	m.logger.LogMirrorSync(ctx, err)
	return err
}

// Len returns the number of logically present records.
func (m *MemLog) Len() int {
	return m.engine.Len()
}

// Close releases in-memory state and marks the store closed. It never
// returns a non-nil error; all durable state is already on disk.
func (m *MemLog) Close() error {
	m.engine.Close()
	return nil
}
