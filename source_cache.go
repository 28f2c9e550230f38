package symcache

import (
	"context"
	"fmt"
	"sync"
)

// sourceCache maps a project to its most recent source index. Entries are
// whole Index values replaced atomically via the map; readers never lock.
type sourceCache struct {
	indexer Indexer
	sums    ChecksumSource
	log     Logger
	hooks   Hooks

	entries sync.Map // ProjectID -> Index
}

func newSourceCache(indexer Indexer, sums ChecksumSource, log Logger, hooks Hooks) *sourceCache {
	return &sourceCache{
		indexer: indexer,
		sums:    sums,
		log:     log,
		hooks:   hooks,
	}
}

// get returns the cached index for id, attempting a one-shot persisted
// recovery on a miss. It never blocks on a build. A loader failure reads as
// a miss unless ctx itself is done.
func (c *sourceCache) get(ctx context.Context, id ProjectID) (Index, bool, error) {
	if v, ok := c.entries.Load(id); ok {
		return v.(Index), true, nil
	}
	idx, ok, err := c.indexer.LoadProject(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, err
		}
		c.log.Warn("persisted project snapshot load failed", Fields{"project": id, "err": err})
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}
	c.hooks.PersistedHit("project", string(id))

	// Insert-if-absent: a refresh that finished while we were loading holds
	// newer data than any persisted snapshot and must not be clobbered.
	v, _ := c.entries.LoadOrStore(id, idx)
	return v.(Index), true, nil
}

// refresh brings the entry for p current. When the cached checksum already
// matches the freshly computed one nothing happens; otherwise the builder
// runs and its result replaces whatever is present (last writer wins;
// concurrent refreshes of the same project are individually consistent, so
// the overwrite is safe, just redundant).
func (c *sourceCache) refresh(ctx context.Context, p Project) error {
	id := p.ID()
	sum, err := c.sums.ProjectChecksum(p)
	if err != nil {
		return fmt.Errorf("symcache: checksum for project %q: %w", id, err)
	}
	if v, ok := c.entries.Load(id); ok && v.(Index).Checksum() == sum {
		c.hooks.BuildSkipped("project", string(id))
		return nil
	}

	c.hooks.BuildStarted("project", string(id))
	idx, err := c.indexer.BuildProject(ctx, p)
	if err != nil {
		return fmt.Errorf("symcache: build index for project %q: %w", id, err)
	}
	if got := idx.Checksum(); got != sum {
		c.hooks.ChecksumMismatch("project", string(id))
		c.log.Error("built index checksum disagrees with computed checksum",
			Fields{"project": id, "built": got, "computed": sum})
		return &MismatchError{Scope: "project", Key: string(id), Built: got, Computed: sum}
	}

	c.entries.Store(id, idx)
	return nil
}

// applyBodyEdit moves the cached entry's checksum tag forward without
// rebuilding its content. In-body edits cannot change the public symbol
// surface, so the index stays valid; only the identity used for later
// checksum matching has to advance. Falls back to refresh when no entry
// exists.
func (c *sourceCache) applyBodyEdit(ctx context.Context, p Project) error {
	id := p.ID()
	v, ok := c.entries.Load(id)
	if !ok {
		return c.refresh(ctx, p)
	}
	sum, err := c.sums.ProjectChecksum(p)
	if err != nil {
		return fmt.Errorf("symcache: checksum for project %q: %w", id, err)
	}
	c.entries.Store(id, v.(Index).WithChecksum(sum))
	return nil
}

func (c *sourceCache) contains(id ProjectID) bool {
	_, ok := c.entries.Load(id)
	return ok
}

// remove deletes the entry for id; idempotent.
func (c *sourceCache) remove(id ProjectID) {
	c.entries.Delete(id)
}

func (c *sourceCache) clear() {
	c.entries.Range(func(k, _ any) bool {
		c.entries.Delete(k)
		return true
	})
}
