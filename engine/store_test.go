package engine

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/memlog/core"
	"github.com/hupe1980/memlog/model"
)

func TestAppendAssignsFields(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	stored, err := e.Append(ctx, testRecord(model.TypeAnalysis, "", map[string]any{"framework": "hugo"}))
	require.NoError(t, err)

	assert.Len(t, stored.ID, core.IDLength)
	assert.Equal(t, "2026-08-25T12:00:00Z", stored.Timestamp)
	assert.NotEmpty(t, stored.Checksum)

	got, err := e.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, got)
}

func TestAppendInvalidInput(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Append(ctx, testRecord("note", "", map[string]any{"x": 1}))
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = e.Append(ctx, testRecord(model.TypeAnalysis, "yesterday", map[string]any{"x": 1}))
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestAppendIdenticalPayloadCollapses(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	payload := map[string]any{"framework": "hugo", "confidence": 0.93}

	first, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", payload))
	require.NoError(t, err)
	second, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-02T00:00:00Z", payload))
	require.NoError(t, err)

	// Same type and payload derive the same id, so the second append
	// supersedes the first: one logical entry, two physical lines.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, e.Len())

	got, err := e.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-02T00:00:00Z", got.Timestamp)

	lines, err := e.segments.CountLines("analysis_2026_08.jsonl")
	require.NoError(t, err)
	assert.Equal(t, 2, lines)
}

func TestStoreHonorsCallerID(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	rec := testRecord(model.TypeConfiguration, "", map[string]any{"theme": "dark"})
	rec.ID = "cfg-main"

	stored, err := e.Store(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, "cfg-main", stored.ID)

	// Re-storing under the same id supersedes the previous entry.
	rec2 := testRecord(model.TypeConfiguration, "", map[string]any{"theme": "light"})
	rec2.ID = "cfg-main"
	_, err = e.Store(ctx, rec2)
	require.NoError(t, err)

	assert.Equal(t, 1, e.Len())
	got, err := e.Get(ctx, "cfg-main")
	require.NoError(t, err)
	assert.Equal(t, "light", got.Data["theme"])
}

func TestStoreRequiresID(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Store(context.Background(), testRecord(model.TypeAnalysis, "", map[string]any{"x": 1}))
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestGetNotFound(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Get(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPropagatesReadFailure(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	stored, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", map[string]any{"n": 1}))
	require.NoError(t, err)

	// Replace the segment file with a directory so the read fails with a
	// real filesystem error rather than a missing line.
	path := e.segments.Path("analysis_2026_08.jsonl")
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))

	_, err = e.Get(ctx, stored.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestGetInconsistentEntryReadsAsNotFound(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", map[string]any{"n": 1}))
	require.NoError(t, err)
	second, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", map[string]any{"n": 2}))
	require.NoError(t, err)

	// Truncate the segment to one line; the second entry now points past
	// EOF, which is an index inconsistency, not an IO failure.
	data, err := e.segments.ReadAt("analysis_2026_08.jsonl", 1)
	require.NoError(t, err)
	require.NoError(t, e.segments.Replace("analysis_2026_08.jsonl", append(data, '\n')))

	_, err = e.Get(ctx, second.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIsLogical(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	stored, err := e.Append(ctx, testRecord(model.TypeInteraction, "2026-08-10T08:00:00Z", map[string]any{"q": "deploy?"}))
	require.NoError(t, err)

	require.NoError(t, e.Delete(ctx, stored.ID))
	assert.Zero(t, e.Len())

	_, err = e.Get(ctx, stored.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting twice reports not found.
	assert.ErrorIs(t, e.Delete(ctx, stored.ID), ErrNotFound)

	// The physical line stays on disk until compaction.
	lines, err := e.segments.CountLines("interaction_2026_08.jsonl")
	require.NoError(t, err)
	assert.Equal(t, 1, lines)
}

func TestUpdateKeepsID(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	stored, err := e.Append(ctx, testRecord(model.TypeRecommendation, "2026-08-01T00:00:00Z", map[string]any{"action": "cache"}))
	require.NoError(t, err)

	updated, err := e.Update(ctx, stored.ID, testRecord(model.TypeRecommendation, "2026-08-05T00:00:00Z", map[string]any{"action": "cdn"}))
	require.NoError(t, err)
	assert.Equal(t, stored.ID, updated.ID)
	assert.Equal(t, 1, e.Len())

	got, err := e.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "cdn", got.Data["action"])
}

func TestUpdateMovesAcrossMonths(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	stored, err := e.Append(ctx, testRecord(model.TypeDeployment, "2026-07-15T00:00:00Z", map[string]any{"ok": false}))
	require.NoError(t, err)

	loc, ok := e.idx.Lookup(stored.ID)
	require.True(t, ok)
	assert.Equal(t, "deployment_2026_07.jsonl", loc.Segment)

	_, err = e.Update(ctx, stored.ID, testRecord(model.TypeDeployment, "2026-08-02T00:00:00Z", map[string]any{"ok": true}))
	require.NoError(t, err)

	loc, ok = e.idx.Lookup(stored.ID)
	require.True(t, ok)
	assert.Equal(t, "deployment_2026_08.jsonl", loc.Segment)
}

func TestUpdateMissing(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Update(context.Background(), "ghost", testRecord(model.TypeAnalysis, "", map[string]any{"x": 1}))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLineNumbersFollowAppendOrder(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		stored, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", map[string]any{"n": i}))
		require.NoError(t, err)
		ids = append(ids, stored.ID)
	}

	for i, id := range ids {
		loc, ok := e.idx.Lookup(id)
		require.True(t, ok)
		assert.Equal(t, "analysis_2026_08.jsonl", loc.Segment)
		assert.Equal(t, i+1, loc.Line)
	}
	assert.Equal(t, 5, e.idx.LineCount("analysis_2026_08.jsonl"))
}

func TestAllReturnsPhysicalOrder(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	r1, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-07-01T00:00:00Z", map[string]any{"n": 1}))
	require.NoError(t, err)
	r2, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", map[string]any{"n": 2}))
	require.NoError(t, err)
	r3, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", map[string]any{"n": 3}))
	require.NoError(t, err)

	all, err := e.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{r1.ID, r2.ID, r3.ID}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestTagsCopiedFromMetadata(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	rec := testRecord(model.TypeAnalysis, "", map[string]any{"x": 1})
	rec.Metadata.Tags = []string{"ci", "staging"}

	stored, err := e.Append(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"ci", "staging"}, stored.Tags)
}
