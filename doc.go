// Package symcache maintains an up-to-date-or-known-stale symbol index per
// source project and per referenced binary in a constantly-edited workspace.
// Reads are lock-free and never wait for a rebuild; refreshes run in the
// background and use content checksums, not timestamps, to decide whether the
// cached index is already current.
//
// Components:
//   - Indexer: external builder of symbol indexes. Build calls are expensive;
//     Load calls recover a previously persisted snapshot of any vintage.
//   - ChecksumSource: external oracle producing content fingerprints without
//     building an index.
//   - Source cache: one entry per project, keyed by ProjectID.
//   - Metadata cache: one entry per binary reference, keyed by ReferenceID,
//     reference-counted by the projects that declare the reference and
//     evicted the moment no project references it anymore.
//
// Staleness contract: ProjectIndex and ReferenceIndex return the best
// available index, which may lag the live content. Callers that need the
// index for the current content must wait for OnProjectChanged to complete.
//
// In-body edits (edits that provably cannot change the public symbol
// surface) take a fast path: the cached index content is reused as-is and
// only its checksum tag is moved forward, so keystroke-class edits never pay
// for a rebuild.
package symcache
