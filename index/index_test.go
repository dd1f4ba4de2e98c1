package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/memlog/model"
)

func TestPutLookupRemove(t *testing.T) {
	idx := New()

	loc := model.Location{Segment: "analysis_2026_08.jsonl", Line: 1, Size: 42}
	idx.Put("a1", loc)

	got, ok := idx.Lookup("a1")
	require.True(t, ok)
	assert.Equal(t, loc, got)
	assert.Equal(t, 1, idx.Len())

	assert.True(t, idx.Remove("a1"))
	assert.False(t, idx.Remove("a1"))

	_, ok = idx.Lookup("a1")
	assert.False(t, ok)
	assert.Zero(t, idx.Len())
}

func TestPutSupersedesLiveLine(t *testing.T) {
	idx := New()
	const seg = "analysis_2026_08.jsonl"

	idx.Put("a1", model.Location{Segment: seg, Line: 1, Size: 10})
	idx.Put("a1", model.Location{Segment: seg, Line: 2, Size: 12})

	bm := idx.Live(seg)
	require.NotNil(t, bm)
	assert.False(t, bm.Contains(1))
	assert.True(t, bm.Contains(2))
	assert.Equal(t, 1, idx.Len())
}

func TestLiveBitmapAcrossSegments(t *testing.T) {
	idx := New()

	idx.Put("a1", model.Location{Segment: "analysis_2026_07.jsonl", Line: 1})
	idx.Put("a2", model.Location{Segment: "analysis_2026_08.jsonl", Line: 1})
	idx.Put("a3", model.Location{Segment: "analysis_2026_08.jsonl", Line: 3})

	require.NotNil(t, idx.Live("analysis_2026_07.jsonl"))
	bm := idx.Live("analysis_2026_08.jsonl")
	require.NotNil(t, bm)
	assert.Equal(t, uint64(2), bm.GetCardinality())

	// Removing the last live line of a segment drops its bitmap entirely.
	idx.Remove("a1")
	assert.Nil(t, idx.Live("analysis_2026_07.jsonl"))
}

func TestNextLine(t *testing.T) {
	idx := New()
	const seg = "deployment_2026_08.jsonl"

	assert.Equal(t, 1, idx.NextLine(seg))
	assert.Equal(t, 2, idx.NextLine(seg))
	assert.Equal(t, 3, idx.NextLine(seg))
	assert.Equal(t, 3, idx.LineCount(seg))

	// Counters are independent per segment.
	assert.Equal(t, 1, idx.NextLine("analysis_2026_08.jsonl"))
}

func TestSetLineCount(t *testing.T) {
	idx := New()
	const seg = "analysis_2026_08.jsonl"

	idx.SetLineCount(seg, 7)
	assert.Equal(t, 7, idx.LineCount(seg))
	assert.Equal(t, 8, idx.NextLine(seg))

	idx.SetLineCount(seg, 0)
	assert.Zero(t, idx.LineCount(seg))
	assert.Empty(t, idx.Counters())
}

func TestSegmentEntriesOrdered(t *testing.T) {
	idx := New()
	const seg = "interaction_2026_04.jsonl"

	idx.Put("c", model.Location{Segment: seg, Line: 3})
	idx.Put("a", model.Location{Segment: seg, Line: 1})
	idx.Put("b", model.Location{Segment: seg, Line: 2})
	idx.Put("other", model.Location{Segment: "analysis_2026_04.jsonl", Line: 1})

	entries := idx.SegmentEntries(seg)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{entries[0].ID, entries[1].ID, entries[2].ID})
}

func TestResetSegment(t *testing.T) {
	idx := New()
	const seg = "analysis_2026_08.jsonl"

	idx.Put("a", model.Location{Segment: seg, Line: 1, Size: 10})
	idx.Put("b", model.Location{Segment: seg, Line: 3, Size: 20})
	idx.Put("c", model.Location{Segment: seg, Line: 5, Size: 30})
	idx.SetLineCount(seg, 5)

	// Compaction kept a and c, in that physical order.
	idx.Remove("b")
	idx.ResetSegment(seg, []Entry{
		{ID: "a", Location: model.Location{Segment: seg, Line: 1, Size: 10}},
		{ID: "c", Location: model.Location{Segment: seg, Line: 5, Size: 30}},
	})

	locA, ok := idx.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, model.Location{Segment: seg, Line: 1, Size: 10}, locA)

	locC, ok := idx.Lookup("c")
	require.True(t, ok)
	assert.Equal(t, model.Location{Segment: seg, Line: 2, Size: 30}, locC)

	assert.Equal(t, 2, idx.LineCount(seg))

	bm := idx.Live(seg)
	require.NotNil(t, bm)
	assert.True(t, bm.Contains(1))
	assert.True(t, bm.Contains(2))
	assert.Equal(t, uint64(2), bm.GetCardinality())
}

func TestClear(t *testing.T) {
	idx := New()
	idx.Put("a", model.Location{Segment: "analysis_2026_08.jsonl", Line: 1})
	idx.NextLine("analysis_2026_08.jsonl")

	idx.Clear()
	assert.Zero(t, idx.Len())
	assert.Empty(t, idx.Counters())
	assert.Nil(t, idx.Live("analysis_2026_08.jsonl"))
}
