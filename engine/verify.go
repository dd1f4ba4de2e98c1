package engine

import (
	"context"
	"fmt"

	"github.com/hupe1980/memlog/model"
)

// Inconsistency describes an index entry that disagrees with disk.
type Inconsistency struct {
	ID  string
	Loc model.Location
	Err error
}

// Verify walks every index entry and reports those whose line is missing,
// unparseable, or holds a different id; such entries carry an Err satisfying
// errors.Is(err, ErrInconsistentIndex). Verify mutates nothing; an engine
// with inconsistencies is repaired by Rebuild.
func (e *Engine) Verify(ctx context.Context) ([]Inconsistency, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	var issues []Inconsistency
	for id, loc := range e.idx.Entries() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := e.readLocked(id, loc); err != nil {
			issues = append(issues, Inconsistency{ID: id, Loc: loc, Err: err})
		}
	}
	return issues, nil
}

func (i Inconsistency) String() string {
	return fmt.Sprintf("%s at %s: %v", i.ID, i.Loc, i.Err)
}
