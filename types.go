package symcache

import "context"

// ProjectID identifies a source project. It is stable for the lifetime of
// the project within a workspace session, even as the project's content
// changes.
type ProjectID string

// ReferenceID identifies a binary reference. It is derived from the
// referenced binary's content or path, so projects referencing the same
// binary share one id (and therefore one cached index).
type ReferenceID string

// Checksum is an opaque content fingerprint. Equality of two checksums means
// "computed from the same logical content" and is the sole property
// invalidation relies on. The zero value means "no checksum".
type Checksum uint64

// IsZero reports whether c is the "no checksum" value.
func (c Checksum) IsZero() bool { return c == 0 }

// Index is a symbol lookup structure tagged with the checksum of the content
// it was computed from. Implementations must be immutable once published;
// the cache propagates updates by replacing whole values, never by mutating
// them.
type Index interface {
	// Checksum returns the fingerprint of the content the index was built
	// from (or cheaply derived from, for in-body edits).
	Checksum() Checksum
	// WithChecksum returns a copy of the index carrying sum as its tag.
	// Content is shared with the receiver, not rebuilt.
	WithChecksum(sum Checksum) Index
}

// Project is the workspace's view of one source project.
type Project interface {
	ID() ProjectID
	// References lists the binary references the project currently declares.
	References() []Reference
}

// Reference is a single binary reference declared by a project.
type Reference interface {
	ID() ReferenceID
}

// Document is an open source document. Edit events are routed to the owning
// project.
type Document interface {
	Project() Project
}

// Workspace supplies the live set of projects. The cache consults it only to
// rebuild a referencing-project set when a metadata index is recovered from
// persisted state.
type Workspace interface {
	Projects() []Project
}

// Indexer builds and recovers symbol indexes. Implementations must be safe
// for concurrent use.
//
// Build methods may be arbitrarily expensive and must honor ctx. The index
// they return carries the checksum of the content it was built from; the
// cache independently computes the same checksum and treats a disagreement
// as a contract violation (see MismatchError).
//
// Load methods are best-effort recovery of a previously persisted snapshot,
// of any vintage. ok=false means no snapshot is available; that is not an
// error. See the persist package for a ready-made snapshot archive.
type Indexer interface {
	BuildProject(ctx context.Context, p Project) (Index, error)
	BuildReference(ctx context.Context, r Reference) (Index, error)
	LoadProject(ctx context.Context, id ProjectID) (Index, bool, error)
	LoadReference(ctx context.Context, id ReferenceID) (Index, bool, error)
}

// ChecksumSource computes content fingerprints without building an index.
//
// Calls must be cheap and must complete synchronously. The coordinator
// invokes ReferenceChecksum for every declared reference before it yields to
// any asynchronous work, because a source may consult caches keyed by object
// identity that are only coherent while the triggering event is being
// handled (see checksum.Memo).
type ChecksumSource interface {
	ProjectChecksum(p Project) (Checksum, error)
	// ReferenceChecksum reports ok=false when the reference cannot be
	// resolved (missing or corrupt binary). Unresolvable references are
	// skipped entirely: no cache entry is created or updated for them.
	ReferenceChecksum(r Reference) (sum Checksum, ok bool)
}
