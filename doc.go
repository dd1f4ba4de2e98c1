// Package memlog provides a persistent log-structured store for typed
// memory records.
//
// Records are appended to month-partitioned JSONL segments, located through
// an in-memory index persisted as a snapshot, and queried with conjunctive
// filters. Deletion is logical (index removal); compaction reclaims the
// physical lines. The index can always be rebuilt by replaying the segments,
// so a lost or corrupt snapshot is never fatal.
//
// # Quick start
//
//	ctx := context.Background()
//	db, err := memlog.Open("./data")
//	if err != nil {
//	    panic(err)
//	}
//	defer db.Close()
//
//	rec, err := db.Append(ctx, &model.Record{
//	    Type: model.TypeAnalysis,
//	    Data: map[string]any{"framework": "hugo", "confidence": 0.93},
//	    Metadata: model.Metadata{
//	        ProjectID:  "docs-site",
//	        Repository: "github.com/acme/docs",
//	        Tags:       []string{"staging"},
//	    },
//	})
//
//	results, err := db.Query(ctx, model.Filter{
//	    Type:  model.TypeAnalysis,
//	    Tags:  []string{"staging"},
//	    Limit: 10,
//	})
//
// Identifiers are derived from content: two appends of the same (type,
// payload) without explicit ids resolve to one logical entry. Use Store to
// manage identifiers yourself.
//
// # Durability and recovery
//
//	// After a crash, or whenever the snapshot is suspect:
//	res, err := db.RebuildIndex(ctx)
//
//	// Reclaim space held by deleted or superseded records:
//	cres, err := db.Compact(ctx, model.TypeAnalysis)
//
// Optional features are configured through options: WithSnapshotCompression
// (zstd-compressed snapshot), WithMirror (best-effort replication of
// snapshot and segment archives to a blobstore such as S3 or MinIO), and
// WithResourceLimits (bounded background concurrency and IO).
package memlog
