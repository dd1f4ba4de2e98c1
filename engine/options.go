package engine

import (
	"log/slog"
	"time"

	"github.com/hupe1980/memlog/blobstore"
	"github.com/hupe1980/memlog/codec"
	"github.com/hupe1980/memlog/resource"
)

// Options configure the engine.
type Options struct {
	// Codec encodes the index snapshot. The segment line format is always
	// JSON regardless of this setting.
	Codec codec.Codec

	// Mirror, if set, receives best-effort copies of the index snapshot and
	// lz4-compressed segment archives after compaction and on SyncMirror.
	Mirror blobstore.Store

	// Resources bounds background concurrency and IO throughput for
	// compaction, rebuild and mirror sync.
	Resources resource.Config

	// CompressSnapshot enables zstd compression of the persisted index
	// snapshot. Loading auto-detects compression by magic, so this can be
	// toggled between runs.
	CompressSnapshot bool

	// Fsync flushes segment appends, segment replacements and snapshot
	// writes to stable storage before they are acknowledged. Off by
	// default, trading durability of the last few writes for throughput.
	Fsync bool

	// Logger receives structured diagnostics for best-effort paths
	// (mirroring). Defaults to a discard logger.
	Logger *slog.Logger

	// Now is the clock used for default timestamps. Overridable in tests.
	Now func() time.Time
}

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{
		Codec:  codec.Default,
		Logger: slog.New(slog.DiscardHandler),
		Now:    time.Now,
	}
}
