package engine

import (
	"context"
	"fmt"

	"github.com/hupe1980/memlog/model"
	"github.com/hupe1980/memlog/segment"
)

// Statistics aggregates logical and physical state. TotalEntries is the
// index size; ByType, ByMonth and TotalSizeBytes are computed from the
// physical segment files (line counters and on-disk sizes), so they still
// count tombstoned lines until compaction runs. That divergence is expected,
// not an error.
func (e *Engine) Statistics(ctx context.Context) (model.Statistics, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if err := e.checkOpen(); err != nil {
		return model.Statistics{}, err
	}

	stats := model.Statistics{
		TotalEntries: e.idx.Len(),
		ByType:       make(map[model.RecordType]int),
		ByMonth:      make(map[string]int),
	}

	names, err := e.segments.List("")
	if err != nil {
		return stats, err
	}

	for _, name := range names {
		t, year, month, ok := segment.ParseName(name)
		if !ok {
			continue
		}

		lines := e.idx.LineCount(name)
		if lines == 0 {
			// Segment on disk but not yet counted (e.g. written by an
			// earlier process whose snapshot predates it).
			lines, err = e.segments.CountLines(name)
			if err != nil {
				return stats, err
			}
		}

		size, err := e.segments.Size(name)
		if err != nil {
			return stats, err
		}

		stats.ByType[t] += lines
		stats.ByMonth[fmt.Sprintf("%d-%02d", year, int(month))] += lines
		stats.TotalSizeBytes += size
	}

	return stats, nil
}
