package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/memlog/model"
)

func seedQueryEngine(t *testing.T) *Engine {
	t.Helper()
	e := newTestEngine(t)
	ctx := context.Background()

	recs := []*model.Record{
		{
			Type:      model.TypeAnalysis,
			Timestamp: "2026-07-01T10:00:00Z",
			Data:      map[string]any{"framework": "hugo"},
			Metadata:  model.Metadata{ProjectID: "docs-site", SSG: "hugo", Tags: []string{"prod"}},
		},
		{
			Type:      model.TypeAnalysis,
			Timestamp: "2026-08-01T10:00:00Z",
			Data:      map[string]any{"framework": "jekyll"},
			Metadata:  model.Metadata{ProjectID: "blog", SSG: "jekyll", Tags: []string{"staging"}},
		},
		{
			Type:      model.TypeDeployment,
			Timestamp: "2026-08-02T10:00:00Z",
			Data:      map[string]any{"ok": true},
			Metadata:  model.Metadata{ProjectID: "docs-site", Repository: "github.com/acme/docs", Tags: []string{"prod", "ci"}},
		},
		{
			Type:      model.TypeDeployment,
			Timestamp: "2026-08-03T10:00:00Z",
			Data:      map[string]any{"ok": false},
			Metadata:  model.Metadata{ProjectID: "blog"},
		},
	}
	for _, r := range recs {
		_, err := e.Append(ctx, r)
		require.NoError(t, err)
	}
	return e
}

func TestQueryByType(t *testing.T) {
	e := seedQueryEngine(t)

	results, err := e.Query(context.Background(), model.Filter{Type: model.TypeAnalysis})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, model.TypeAnalysis, r.Type)
	}
}

func TestQueryConjunction(t *testing.T) {
	e := seedQueryEngine(t)

	// Every predicate must hold simultaneously.
	results, err := e.Query(context.Background(), model.Filter{
		Type:      model.TypeDeployment,
		ProjectID: "docs-site",
		Tags:      []string{"ci"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, true, results[0].Data["ok"])

	// Tightening one predicate empties the result.
	results, err = e.Query(context.Background(), model.Filter{
		Type:      model.TypeDeployment,
		ProjectID: "docs-site",
		Tags:      []string{"nightly"},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryDateRange(t *testing.T) {
	e := seedQueryEngine(t)

	results, err := e.Query(context.Background(), model.Filter{
		StartDate: "2026-08-01T00:00:00Z",
		EndDate:   "2026-08-02T23:59:59Z",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Bounds are inclusive.
	results, err = e.Query(context.Background(), model.Filter{
		StartDate: "2026-08-02T10:00:00Z",
		EndDate:   "2026-08-02T10:00:00Z",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestQueryEmptyFilterReturnsEverything(t *testing.T) {
	e := seedQueryEngine(t)

	results, err := e.Query(context.Background(), model.Filter{})
	require.NoError(t, err)
	assert.Len(t, results, 4)
}

func TestQueryLimitStopsAcrossSegments(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// Ten records spread over two monthly segments.
	for i := 0; i < 5; i++ {
		_, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-07-01T00:00:00Z", map[string]any{"n": i}))
		require.NoError(t, err)
	}
	for i := 5; i < 10; i++ {
		_, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", map[string]any{"n": i}))
		require.NoError(t, err)
	}

	results, err := e.Query(ctx, model.Filter{Type: model.TypeAnalysis, Limit: 7})
	require.NoError(t, err)
	assert.Len(t, results, 7)

	// Physical order: the first segment's records come first.
	assert.Equal(t, float64(0), results[0].Data["n"])
	assert.Equal(t, float64(6), results[6].Data["n"])
}

func TestQueryHidesDeleted(t *testing.T) {
	e := seedQueryEngine(t)
	ctx := context.Background()

	all, err := e.Query(ctx, model.Filter{Type: model.TypeAnalysis})
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, e.Delete(ctx, all[0].ID))

	remaining, err := e.Query(ctx, model.Filter{Type: model.TypeAnalysis})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.NotEqual(t, all[0].ID, remaining[0].ID)
}

func TestQueryHidesSupersededLines(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	payload := map[string]any{"framework": "hugo"}
	_, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", payload))
	require.NoError(t, err)
	_, err = e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-02T00:00:00Z", payload))
	require.NoError(t, err)

	// Two physical lines share the id; only the winning line is visible.
	results, err := e.Query(ctx, model.Filter{Type: model.TypeAnalysis})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2026-08-02T00:00:00Z", results[0].Timestamp)
}

func TestQuerySkipsCorruptLines(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	stored, err := e.Append(ctx, testRecord(model.TypeAnalysis, "2026-08-01T00:00:00Z", map[string]any{"n": 1}))
	require.NoError(t, err)

	// Damage the line behind the index entry.
	require.NoError(t, e.segments.Replace("analysis_2026_08.jsonl", []byte("garbage\n")))

	results, err := e.Query(ctx, model.Filter{Type: model.TypeAnalysis})
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = e.Get(ctx, stored.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueryCanceledContext(t *testing.T) {
	e := seedQueryEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Query(ctx, model.Filter{})
	assert.ErrorIs(t, err, context.Canceled)
}
