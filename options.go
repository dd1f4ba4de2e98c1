package memlog

import (
	"log/slog"

	"github.com/hupe1980/memlog/blobstore"
	"github.com/hupe1980/memlog/codec"
	"github.com/hupe1980/memlog/resource"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	mirror           blobstore.Store
	resources        resource.Config
	compressSnapshot bool
	fsync            bool
}

// Option configures Open behavior.
type Option func(*options)

// WithCodec configures the codec used for the index snapshot.
//
// If nil is passed, codec.Default is used. Segment lines are always JSON
// regardless of this setting.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &memlog.BasicMetricsCollector{}
//	db, _ := memlog.Open(dir, memlog.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMirror configures a blobstore target that receives best-effort copies
// of the index snapshot and lz4-compressed segment archives (after
// compaction, and on SyncMirror). Mirror failures never fail the primary
// operation.
func WithMirror(store blobstore.Store) Option {
	return func(o *options) {
		o.mirror = store
	}
}

// WithSnapshotCompression enables zstd compression of the persisted index
// snapshot. Loading auto-detects compression, so the setting can change
// between runs of the same store.
func WithSnapshotCompression() Option {
	return func(o *options) {
		o.compressSnapshot = true
	}
}

// WithFsync flushes every segment append, segment rewrite and snapshot
// write to stable storage before acknowledging the operation. Without it,
// a host crash (not a process crash) can lose the most recent writes still
// sitting in the OS page cache.
func WithFsync() Option {
	return func(o *options) {
		o.fsync = true
	}
}

// WithResourceLimits bounds background work: maxWorkers caps concurrent
// compaction/rebuild/mirror jobs, ioBytesPerSec caps their write throughput.
// Zero values mean one worker and unlimited IO.
func WithResourceLimits(maxWorkers int64, ioBytesPerSec int64) Option {
	return func(o *options) {
		o.resources = resource.Config{
			MaxBackgroundWorkers: maxWorkers,
			IOLimitBytesPerSec:   ioBytesPerSec,
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
