package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/memlog/codec"
	"github.com/hupe1980/memlog/index"
)

// SnapshotFile is the hidden index snapshot file inside the storage
// directory.
const SnapshotFile = ".index.json"

// zstd frame magic, used to auto-detect compressed snapshots on load.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

func (e *Engine) snapshotPath() string {
	return filepath.Join(e.dir, SnapshotFile)
}

// saveSnapshotLocked persists the index snapshot with the same
// temp-file-plus-rename technique as segment replacement: the snapshot file
// on disk is always either the old or the new complete content.
func (e *Engine) saveSnapshotLocked() error {
	snap := e.idx.Snapshot()

	data, err := e.codec.Marshal(snap)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	if e.compressSnapshot {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		_ = enc.Close()
	}

	path := e.snapshotPath()
	tmp := path + ".tmp"
	if err := e.writeSnapshotFile(tmp, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (e *Engine) writeSnapshotFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if e.fsync {
		if err := f.Sync(); err != nil {
			_ = f.Close()
			return err
		}
	}
	return f.Close()
}

// loadSnapshot reads and decodes the persisted snapshot. A missing file
// surfaces as os.ErrNotExist; undecodable content is reported as
// codec.ErrCorrupt so initialization can fall back to a rebuild.
func (e *Engine) loadSnapshot() (index.Snapshot, error) {
	var snap index.Snapshot

	data, err := os.ReadFile(e.snapshotPath())
	if err != nil {
		return snap, err
	}

	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return snap, err
		}
		data, err = dec.DecodeAll(data, nil)
		dec.Close()
		if err != nil {
			return snap, fmt.Errorf("%w: snapshot: %v", codec.ErrCorrupt, err)
		}
	}

	if err := e.codec.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("%w: snapshot: %v", codec.ErrCorrupt, err)
	}
	return snap, nil
}
