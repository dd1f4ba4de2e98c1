package memlog

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordAppend is called after each append or store operation.
	RecordAppend(duration time.Duration, err error)

	// RecordGet is called after each lookup.
	RecordGet(duration time.Duration, err error)

	// RecordQuery is called after each query. results is the number of
	// records produced.
	RecordQuery(results int, duration time.Duration, err error)

	// RecordDelete is called after each delete operation.
	RecordDelete(duration time.Duration, err error)

	// RecordUpdate is called after each update operation.
	RecordUpdate(duration time.Duration, err error)

	// RecordCompaction is called after each compaction run. dropped is the
	// number of physical lines removed.
	RecordCompaction(dropped int, duration time.Duration, err error)

	// RecordRebuild is called after each index rebuild. records is the
	// number of entries recovered.
	RecordRebuild(records int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAppend(time.Duration, error)          {}
func (NoopMetricsCollector) RecordGet(time.Duration, error)             {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)          {}
func (NoopMetricsCollector) RecordUpdate(time.Duration, error)          {}
func (NoopMetricsCollector) RecordCompaction(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRebuild(int, time.Duration, error)    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AppendCount      atomic.Int64
	AppendErrors     atomic.Int64
	AppendTotalNanos atomic.Int64
	GetCount         atomic.Int64
	GetErrors        atomic.Int64
	QueryCount       atomic.Int64
	QueryErrors      atomic.Int64
	QueryResults     atomic.Int64
	QueryTotalNanos  atomic.Int64
	DeleteCount      atomic.Int64
	DeleteErrors     atomic.Int64
	UpdateCount      atomic.Int64
	UpdateErrors     atomic.Int64
	CompactionCount  atomic.Int64
	CompactedLines   atomic.Int64
	RebuildCount     atomic.Int64
	RebuiltRecords   atomic.Int64
}

// RecordAppend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAppend(duration time.Duration, err error) {
	b.AppendCount.Add(1)
	b.AppendTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AppendErrors.Add(1)
	}
}

// RecordGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGet(duration time.Duration, err error) {
	b.GetCount.Add(1)
	if err != nil {
		b.GetErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(results int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryResults.Add(int64(results))
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdate(duration time.Duration, err error) {
	b.UpdateCount.Add(1)
	if err != nil {
		b.UpdateErrors.Add(1)
	}
}

// RecordCompaction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompaction(dropped int, duration time.Duration, err error) {
	b.CompactionCount.Add(1)
	b.CompactedLines.Add(int64(dropped))
}

// RecordRebuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRebuild(records int, duration time.Duration, err error) {
	b.RebuildCount.Add(1)
	b.RebuiltRecords.Add(int64(records))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AppendCount:     b.AppendCount.Load(),
		AppendErrors:    b.AppendErrors.Load(),
		AppendAvgNanos:  b.avg(&b.AppendTotalNanos, &b.AppendCount),
		GetCount:        b.GetCount.Load(),
		GetErrors:       b.GetErrors.Load(),
		QueryCount:      b.QueryCount.Load(),
		QueryErrors:     b.QueryErrors.Load(),
		QueryResults:    b.QueryResults.Load(),
		QueryAvgNanos:   b.avg(&b.QueryTotalNanos, &b.QueryCount),
		DeleteCount:     b.DeleteCount.Load(),
		DeleteErrors:    b.DeleteErrors.Load(),
		UpdateCount:     b.UpdateCount.Load(),
		UpdateErrors:    b.UpdateErrors.Load(),
		CompactionCount: b.CompactionCount.Load(),
		CompactedLines:  b.CompactedLines.Load(),
		RebuildCount:    b.RebuildCount.Load(),
		RebuiltRecords:  b.RebuiltRecords.Load(),
	}
}

func (b *BasicMetricsCollector) avg(total, count *atomic.Int64) int64 {
	c := count.Load()
	if c == 0 {
		return 0
	}
	return total.Load() / c
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AppendCount     int64
	AppendErrors    int64
	AppendAvgNanos  int64
	GetCount        int64
	GetErrors       int64
	QueryCount      int64
	QueryErrors     int64
	QueryResults    int64
	QueryAvgNanos   int64
	DeleteCount     int64
	DeleteErrors    int64
	UpdateCount     int64
	UpdateErrors    int64
	CompactionCount int64
	CompactedLines  int64
	RebuildCount    int64
	RebuiltRecords  int64
}
