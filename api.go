package symcache

import "context"

// Service is the session-scoped symbol-index cache. Construct one per
// workspace session and discard it (via Close) when the session ends.
//
// Reads are non-blocking with respect to concurrent refreshes and may return
// stale data by design. The three On* methods are the admission points for
// cache maintenance; they complete before returning so callers can join on
// them, but nothing requires callers to wait.
type Service interface {
	// ProjectIndex returns the best available index for a project: the
	// cached entry if present, otherwise a one-shot persisted-snapshot
	// recovery. ok=false means no index is available yet. Never blocks on
	// a build.
	ProjectIndex(ctx context.Context, id ProjectID) (idx Index, ok bool, err error)

	// ReferenceIndex is ProjectIndex for binary references. A reference
	// whose last build failed reads as ok=false.
	ReferenceIndex(ctx context.Context, id ReferenceID) (idx Index, ok bool, err error)

	// OnDocumentChanged admits a single-document edit. When isBodyEdit is
	// true and the owning project already has a cached index, only the
	// checksum tag is moved forward; otherwise a full project analysis runs.
	OnDocumentChanged(ctx context.Context, doc Document, isBodyEdit bool) error

	// OnProjectChanged runs a full project analysis: the source refresh and
	// the per-reference metadata refreshes run concurrently and are joined
	// before returning.
	OnProjectChanged(ctx context.Context, p Project) error

	// OnProjectRemoved drops the project's source entry and removes the
	// project from every metadata referencing set, evicting entries whose
	// set empties. The sweep always runs to completion, even with an
	// already-canceled ctx; stopping mid-way would leak referencing sets.
	OnProjectRemoved(ctx context.Context, id ProjectID) error

	// ReferencingProjects reports which projects currently hold the given
	// metadata entry live. Intended for tooling and tests.
	ReferencingProjects(id ReferenceID) []ProjectID

	Enabled() bool
	Close(ctx context.Context) error
}

// Options tune the service. Indexer, Checksums and Workspace are required;
// everything else has defaults.
type Options struct {
	// Required
	Indexer   Indexer
	Checksums ChecksumSource
	Workspace Workspace

	Logger Logger // nil => NopLogger
	Hooks  Hooks  // nil => NopHooks

	// BuildConcurrency caps concurrent reference builds within one project
	// analysis. 0 => 4.
	BuildConcurrency int

	// Disabled short-circuits all maintenance and reads (reads miss).
	Disabled bool
}

// New creates a Service.
func New(opts Options) (Service, error) {
	return newService(opts)
}
