// Package sloghooks logs symcache hook events through log/slog, with
// sampling for the two events that fire on nearly every refresh.
package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/symcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	BuildSkipEvery  uint64 // BuildSkipped fires on every steady-state refresh
	BuildStartEvery uint64
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	skipCtr  atomic.Uint64
	startCtr atomic.Uint64
}

var _ symcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sampled(ctr *atomic.Uint64, every uint64) bool {
	if every <= 1 {
		return true
	}
	return ctr.Add(1)%every == 0
}

func (h *Hooks) BuildStarted(scope, key string) {
	if sampled(&h.startCtr, h.opts.BuildStartEvery) {
		h.l.Debug("index build started", "scope", scope, "key", key)
	}
}

func (h *Hooks) BuildSkipped(scope, key string) {
	if sampled(&h.skipCtr, h.opts.BuildSkipEvery) {
		h.l.Debug("index build skipped, checksum current", "scope", scope, "key", key)
	}
}

func (h *Hooks) ChecksumMismatch(scope, key string) {
	h.l.Error("builder checksum disagrees with computed checksum", "scope", scope, "key", key)
}

func (h *Hooks) NegativeCached(key string) {
	h.l.Warn("reference build failure cached", "reference", key)
}

func (h *Hooks) UnresolvableReference(key string) {
	h.l.Debug("reference checksum unresolvable, skipped", "reference", key)
}

func (h *Hooks) PersistedHit(scope, key string) {
	h.l.Debug("read served from persisted snapshot", "scope", scope, "key", key)
}

func (h *Hooks) Evicted(key string) {
	h.l.Debug("metadata entry evicted", "reference", key)
}
