// Package asynchook decouples hook sinks from the cache's hot paths: events
// are queued and delivered by a small worker pool; when the queue is full
// events are dropped rather than blocking a refresh.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{BuildSkipEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	svc, _ := symcache.New(symcache.Options{
//	    Indexer:   indexer,
//	    Checksums: sums,
//	    Workspace: ws,
//	    Hooks:     hooks, // or `raw` for synchronous delivery
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/symcache"
)

type Hooks struct {
	inner symcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ symcache.Hooks = (*Hooks)(nil)

func New(inner symcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains the queue and stops the workers.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) BuildStarted(scope, key string) { h.try(func() { h.inner.BuildStarted(scope, key) }) }
func (h *Hooks) BuildSkipped(scope, key string) { h.try(func() { h.inner.BuildSkipped(scope, key) }) }
func (h *Hooks) NegativeCached(key string)      { h.try(func() { h.inner.NegativeCached(key) }) }
func (h *Hooks) Evicted(key string)             { h.try(func() { h.inner.Evicted(key) }) }
func (h *Hooks) ChecksumMismatch(scope, key string) {
	h.try(func() { h.inner.ChecksumMismatch(scope, key) })
}
func (h *Hooks) UnresolvableReference(key string) {
	h.try(func() { h.inner.UnresolvableReference(key) })
}
func (h *Hooks) PersistedHit(scope, key string) {
	h.try(func() { h.inner.PersistedHit(scope, key) })
}
