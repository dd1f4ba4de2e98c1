package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/memlog/model"
)

func TestStatisticsEmpty(t *testing.T) {
	e := newTestEngine(t)

	stats, err := e.Statistics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEntries)
	assert.Empty(t, stats.ByType)
	assert.Empty(t, stats.ByMonth)
	assert.Zero(t, stats.TotalSizeBytes)
}

func TestStatisticsAggregates(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", map[string]any{"n": i}))
		require.NoError(t, err)
	}
	_, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-07-01T00:00:00Z", map[string]any{"n": 10}))
	require.NoError(t, err)
	_, err = e.Append(ctx, testRecord(model.TypeDeployment, "2026-08-02T00:00:00Z", map[string]any{"ok": true}))
	require.NoError(t, err)

	stats, err := e.Statistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalEntries)
	assert.Equal(t, 4, stats.ByType[model.TypeAnalysis])
	assert.Equal(t, 1, stats.ByType[model.TypeDeployment])
	assert.Equal(t, 4, stats.ByMonth["2026-08"])
	assert.Equal(t, 1, stats.ByMonth["2026-07"])
	assert.Positive(t, stats.TotalSizeBytes)
}

func TestStatisticsCountPhysicalLines(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	stored, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", map[string]any{"n": 1}))
	require.NoError(t, err)
	_, err = e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", map[string]any{"n": 2}))
	require.NoError(t, err)
	require.NoError(t, e.Delete(ctx, stored.ID))

	// Tombstoned lines still count in the physical figures until
	// compaction; the logical count already excludes them.
	stats, err := e.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalEntries)
	assert.Equal(t, 2, stats.ByType[model.TypeAnalysis])

	sizeBefore := stats.TotalSizeBytes
	_, err = e.Compact(ctx)
	require.NoError(t, err)

	stats, err = e.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalEntries)
	assert.Equal(t, 1, stats.ByType[model.TypeAnalysis])
	assert.Less(t, stats.TotalSizeBytes, sizeBefore)
}

func TestVerifyCleanStore(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", map[string]any{"n": i}))
		require.NoError(t, err)
	}

	issues, err := e.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestVerifyDetectsDamage(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	stored, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", map[string]any{"n": 1}))
	require.NoError(t, err)

	// Overwrite the segment with a line holding a different id.
	require.NoError(t, e.segments.Replace("analysis_2026_08.jsonl", []byte(`{"id":"intruder","timestamp":"2026-08-01T00:00:00Z","type":"analysis","data":{},"metadata":{},"checksum":""}`+"\n")))

	issues, err := e.Verify(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, stored.ID, issues[0].ID)
	assert.ErrorIs(t, issues[0].Err, ErrInconsistentIndex)

	// Rebuild repairs the index to match disk.
	_, err = e.Rebuild(ctx)
	require.NoError(t, err)
	issues, err = e.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)

	_, err = e.Get(ctx, "intruder")
	assert.NoError(t, err)
}

func TestVerifyDetectsTruncatedSegment(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", map[string]any{"n": 1}))
	require.NoError(t, err)
	second, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", map[string]any{"n": 2}))
	require.NoError(t, err)

	// Truncate to one line; the second entry now points past EOF.
	data, err := e.segments.ReadAt("analysis_2026_08.jsonl", 1)
	require.NoError(t, err)
	require.NoError(t, e.segments.Replace("analysis_2026_08.jsonl", append(data, '\n')))

	issues, err := e.Verify(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, second.ID, issues[0].ID)
	assert.ErrorIs(t, issues[0].Err, ErrInconsistentIndex)
}
