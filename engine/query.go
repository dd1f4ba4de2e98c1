package engine

import (
	"context"

	"github.com/hupe1980/memlog/codec"
	"github.com/hupe1980/memlog/model"
	"github.com/hupe1980/memlog/segment"
)

// Query evaluates the filter over all relevant segments and returns the
// matching records in physical (append) order.
//
// Segment selection is coarse partition pruning: when filter.Type is set,
// only that type's segments are opened. Within a segment, the live-line
// bitmap skips tombstoned and superseded lines before any parsing happens.
// Once filter.Limit results have been produced the remaining segments are
// not opened at all.
func (e *Engine) Query(ctx context.Context, filter model.Filter) ([]*model.Record, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	names, err := e.segments.List(filter.Type)
	if err != nil {
		return nil, err
	}

	var results []*model.Record
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}

		live := e.idx.Live(name)
		if live == nil || live.IsEmpty() {
			continue
		}

		err := e.segments.Scan(name, func(line int, data []byte) error {
			if !live.Contains(uint32(line)) {
				return nil
			}

			rec, err := codec.DecodeLine(data)
			if err != nil {
				// One bad record must not block access to the rest.
				return nil
			}
			if !filter.Matches(rec) {
				return nil
			}

			results = append(results, rec)
			if filter.Limit > 0 && len(results) >= filter.Limit {
				return segment.ErrStop
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
