package symcache

import (
	"context"
	"sync"
	"sync/atomic"
)

// metadataState is the replace-wholesale portion of a metadata entry. A nil
// index with a non-zero checksum is a cached build failure: the reference is
// known bad for this exact content and is not rebuilt until the checksum
// moves.
type metadataState struct {
	index Index
	sum   Checksum
}

// metadataEntry is one cached binary reference. The state pointer is swapped
// atomically so readers never lock; mu guards only the referencing set and
// the evicted flag and is never held across a suspension point.
type metadataEntry struct {
	state atomic.Pointer[metadataState]

	mu      sync.Mutex
	refs    map[ProjectID]struct{}
	evicted bool
}

func newMetadataEntry() *metadataEntry {
	return &metadataEntry{refs: make(map[ProjectID]struct{})}
}

// metadataCache maps a binary-reference identity to its index and the set of
// projects currently declaring the reference. Entries live exactly as long
// as their referencing set is non-empty.
type metadataCache struct {
	indexer   Indexer
	workspace Workspace
	log       Logger
	hooks     Hooks

	entries sync.Map // ReferenceID -> *metadataEntry
}

func newMetadataCache(indexer Indexer, workspace Workspace, log Logger, hooks Hooks) *metadataCache {
	return &metadataCache{
		indexer:   indexer,
		workspace: workspace,
		log:       log,
		hooks:     hooks,
	}
}

// get returns the cached index for rid, attempting a one-shot persisted
// recovery on a miss. Negative entries read as a miss. Never blocks on a
// build.
func (c *metadataCache) get(ctx context.Context, rid ReferenceID) (Index, bool, error) {
	if v, ok := c.entries.Load(rid); ok {
		st := v.(*metadataEntry).state.Load()
		if st == nil || st.index == nil {
			return nil, false, nil
		}
		return st.index, true, nil
	}

	idx, ok, err := c.indexer.LoadReference(ctx, rid)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, err
		}
		c.log.Warn("persisted reference snapshot load failed", Fields{"reference": rid, "err": err})
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}
	c.hooks.PersistedHit("reference", string(rid))

	// The referencing set is rebuilt from the live workspace. An empty set
	// means there is no entry to manage: hand the snapshot back without
	// installing it, so "entry exists iff referenced" keeps holding.
	refs := c.scanReferencing(rid)
	if len(refs) == 0 {
		return idx, true, nil
	}

	e := newMetadataEntry()
	e.refs = refs
	e.state.Store(&metadataState{index: idx, sum: idx.Checksum()})

	// Insert-if-absent: a concurrent refresh holds fresher data than any
	// persisted snapshot and wins.
	if v, loaded := c.entries.LoadOrStore(rid, e); loaded {
		st := v.(*metadataEntry).state.Load()
		if st == nil || st.index == nil {
			return nil, false, nil
		}
		return st.index, true, nil
	}
	return idx, true, nil
}

// install brings the entry for ref current with respect to sum (computed by
// the caller before any suspension point) and records pid in its referencing
// set. A failed build is cached as a negative result paired with sum, so a
// permanently-broken reference never pays build cost twice for the same
// content. Rebuilding the index never loses already-recorded referencing
// projects: the set lives on the entry, not on the swapped state.
func (c *metadataCache) install(ctx context.Context, pid ProjectID, ref Reference, sum Checksum) error {
	rid := ref.ID()

	cur := c.loadState(rid)
	var next *metadataState
	if cur == nil || cur.sum != sum {
		c.hooks.BuildStarted("reference", string(rid))
		idx, err := c.indexer.BuildReference(ctx, ref)
		switch {
		case err != nil && ctx.Err() != nil:
			// Canceled, not broken: do not cache a negative result.
			return ctx.Err()
		case err != nil:
			c.log.Warn("reference index build failed; caching negative result",
				Fields{"reference": rid, "err": err})
			c.hooks.NegativeCached(string(rid))
			next = &metadataState{sum: sum}
		case idx.Checksum() != sum:
			c.hooks.ChecksumMismatch("reference", string(rid))
			c.log.Error("built index checksum disagrees with computed checksum",
				Fields{"reference": rid, "built": idx.Checksum(), "computed": sum})
			return &MismatchError{Scope: "reference", Key: string(rid), Built: idx.Checksum(), Computed: sum}
		default:
			next = &metadataState{index: idx, sum: sum}
		}
	} else {
		c.hooks.BuildSkipped("reference", string(rid))
	}

	for {
		v, _ := c.entries.LoadOrStore(rid, newMetadataEntry())
		e := v.(*metadataEntry)
		e.mu.Lock()
		if e.evicted {
			// Lost a race with the removal sweep; the entry is already gone
			// from the map, so LoadOrStore will mint a fresh one.
			e.mu.Unlock()
			continue
		}
		if next != nil {
			e.state.Store(next)
		} else if e.state.Load() == nil {
			// Entry was evicted and recreated between the checksum check
			// and here; reinstall the state observed earlier, which is
			// still consistent for sum.
			e.state.Store(cur)
		}
		e.refs[pid] = struct{}{}
		e.mu.Unlock()
		return nil
	}
}

// removeProject drops pid from every referencing set and evicts entries the
// instant their set empties. Range tolerates concurrent inserts: an insert
// racing the sweep is either visited or safely missed, because a removed
// project cannot newly reference anything. The sweep never suspends, so it
// always runs to completion regardless of caller cancellation.
func (c *metadataCache) removeProject(pid ProjectID) {
	c.entries.Range(func(k, v any) bool {
		e := v.(*metadataEntry)
		e.mu.Lock()
		if _, ok := e.refs[pid]; ok {
			delete(e.refs, pid)
			if len(e.refs) == 0 && !e.evicted {
				e.evicted = true
				c.entries.Delete(k)
				c.hooks.Evicted(string(k.(ReferenceID)))
			}
		}
		e.mu.Unlock()
		return true
	})
}

func (c *metadataCache) referencingProjects(rid ReferenceID) []ProjectID {
	v, ok := c.entries.Load(rid)
	if !ok {
		return nil
	}
	e := v.(*metadataEntry)
	e.mu.Lock()
	out := make([]ProjectID, 0, len(e.refs))
	for id := range e.refs {
		out = append(out, id)
	}
	e.mu.Unlock()
	return out
}

func (c *metadataCache) contains(rid ReferenceID) bool {
	_, ok := c.entries.Load(rid)
	return ok
}

func (c *metadataCache) loadState(rid ReferenceID) *metadataState {
	if v, ok := c.entries.Load(rid); ok {
		return v.(*metadataEntry).state.Load()
	}
	return nil
}

func (c *metadataCache) scanReferencing(rid ReferenceID) map[ProjectID]struct{} {
	refs := make(map[ProjectID]struct{})
	for _, p := range c.workspace.Projects() {
		for _, r := range p.References() {
			if r.ID() == rid {
				refs[p.ID()] = struct{}{}
				break
			}
		}
	}
	return refs
}

func (c *metadataCache) clear() {
	c.entries.Range(func(k, _ any) bool {
		c.entries.Delete(k)
		return true
	})
}
