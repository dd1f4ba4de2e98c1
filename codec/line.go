package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hupe1980/memlog/model"
)

// ErrCorrupt indicates a segment line that does not deserialize into a
// record. Bulk scans (query, compaction, rebuild) treat it as "skip this
// line"; it is never a fatal engine error.
var ErrCorrupt = errors.New("corrupt record line")

// EncodeLine serializes a record into its on-disk line form, excluding the
// trailing newline.
func EncodeLine(r *model.Record) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode line: %w", err)
	}
	return b, nil
}

// DecodeLine parses a single segment line. Malformed JSON, or a line whose
// record carries no id, yields an error satisfying errors.Is(err, ErrCorrupt).
func DecodeLine(line []byte) (*model.Record, error) {
	var r model.Record
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if r.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrCorrupt)
	}
	return &r, nil
}
