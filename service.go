package symcache

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const defaultBuildConcurrency = 4

// service coordinates the two caches. The caches are the only shared mutable
// state and are internally synchronized; nothing here takes a lock.
type service struct {
	sums  ChecksumSource
	src   *sourceCache
	meta  *metadataCache
	log   Logger
	hooks Hooks

	buildConcurrency int
	enabled          bool
	closed           atomic.Bool
}

func newService(opts Options) (*service, error) {
	if opts.Indexer == nil {
		return nil, fmt.Errorf("symcache: indexer is required")
	}
	if opts.Checksums == nil {
		return nil, fmt.Errorf("symcache: checksum source is required")
	}
	if opts.Workspace == nil {
		return nil, fmt.Errorf("symcache: workspace is required")
	}

	s := &service{
		sums:    opts.Checksums,
		enabled: !opts.Disabled,
	}

	// defaults
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	s.buildConcurrency = coalesce[int](opts.BuildConcurrency, defaultBuildConcurrency)

	s.src = newSourceCache(opts.Indexer, opts.Checksums, s.log, s.hooks)
	s.meta = newMetadataCache(opts.Indexer, opts.Workspace, s.log, s.hooks)
	return s, nil
}

func (s *service) Enabled() bool { return s.enabled }

// Close ends the session. Entries are dropped so indexes become collectable;
// subsequent calls fail with ErrClosed.
func (s *service) Close(context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}
	s.src.clear()
	s.meta.clear()
	return nil
}

func (s *service) ProjectIndex(ctx context.Context, id ProjectID) (Index, bool, error) {
	if !s.enabled {
		return nil, false, nil
	}
	if s.closed.Load() {
		return nil, false, ErrClosed
	}
	return s.src.get(ctx, id)
}

func (s *service) ReferenceIndex(ctx context.Context, id ReferenceID) (Index, bool, error) {
	if !s.enabled {
		return nil, false, nil
	}
	if s.closed.Load() {
		return nil, false, ErrClosed
	}
	return s.meta.get(ctx, id)
}

func (s *service) OnDocumentChanged(ctx context.Context, doc Document, isBodyEdit bool) error {
	if !s.enabled {
		return nil
	}
	if s.closed.Load() {
		return ErrClosed
	}
	p := doc.Project()
	if isBodyEdit && s.src.contains(p.ID()) {
		return s.src.applyBodyEdit(ctx, p)
	}
	return s.analyze(ctx, p)
}

func (s *service) OnProjectChanged(ctx context.Context, p Project) error {
	if !s.enabled {
		return nil
	}
	if s.closed.Load() {
		return ErrClosed
	}
	return s.analyze(ctx, p)
}

func (s *service) OnProjectRemoved(_ context.Context, id ProjectID) error {
	if !s.enabled {
		return nil
	}
	if s.closed.Load() {
		return ErrClosed
	}
	// Removal is pure in-memory bookkeeping and must run to completion;
	// the ctx is deliberately not consulted.
	s.src.remove(id)
	s.meta.removeProject(id)
	return nil
}

func (s *service) ReferencingProjects(id ReferenceID) []ProjectID {
	if !s.enabled || s.closed.Load() {
		return nil
	}
	return s.meta.referencingProjects(id)
}

type referenceWork struct {
	ref Reference
	sum Checksum
}

// analyze runs a full project analysis: the source refresh and the
// per-reference metadata refreshes fan out concurrently and are joined
// before returning.
//
// Every reference checksum is computed here, on the event goroutine, before
// any build is launched. The checksum source may consult identity-keyed
// caches that are only coherent synchronously with the event; this ordering
// is a correctness requirement, not an optimization.
func (s *service) analyze(ctx context.Context, p Project) error {
	refs := p.References()
	pending := make([]referenceWork, 0, len(refs))
	for _, r := range refs {
		sum, ok := s.sums.ReferenceChecksum(r)
		if !ok {
			// Unresolvable binary: no cacheable entity, skip silently.
			s.hooks.UnresolvableReference(string(r.ID()))
			continue
		}
		pending = append(pending, referenceWork{ref: r, sum: sum})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.src.refresh(gctx, p)
	})
	g.Go(func() error {
		rg, rctx := errgroup.WithContext(gctx)
		rg.SetLimit(s.buildConcurrency)
		for _, w := range pending {
			w := w
			rg.Go(func() error {
				return s.meta.install(rctx, p.ID(), w.ref, w.sum)
			})
		}
		return rg.Wait()
	})
	return g.Wait()
}
