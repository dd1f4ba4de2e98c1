package memlog

import (
	"errors"
	"fmt"

	"github.com/hupe1980/memlog/codec"
	"github.com/hupe1980/memlog/engine"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("not found")

	// ErrCorrupt indicates content that does not deserialize. Bulk scans
	// skip corrupt lines; this surfaces only from single-record paths.
	ErrCorrupt = errors.New("corrupt")

	// ErrClosed is returned for operations on a closed store.
	ErrClosed = errors.New("store closed")
)

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, engine.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, engine.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	if errors.Is(err, codec.ErrCorrupt) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	return err
}
