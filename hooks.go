package symcache

// Hooks are lightweight callbacks for high-signal cache events.
// Implementations MUST be cheap and non-blocking; the cache calls them on
// hot paths (wrap with hooks/async to offload slow sinks).
//
// scope is "project" or "reference"; key is the string form of the
// ProjectID or ReferenceID involved.
type Hooks interface {
	// A (re)build started because no cached entry matched the computed
	// checksum.
	BuildStarted(scope, key string)

	// A refresh found the cached checksum already current and skipped the
	// builder. Dominant case in steady state.
	BuildSkipped(scope, key string)

	// The builder's output checksum disagreed with the computed checksum.
	// Fired just before the refresh aborts with a MismatchError.
	ChecksumMismatch(scope, key string)

	// A reference build failed and the failure was cached with its
	// checksum so the reference is not rebuilt until its content moves.
	NegativeCached(key string)

	// A reference checksum could not be computed; nothing was cached.
	UnresolvableReference(key string)

	// A read miss was served from a persisted snapshot.
	PersistedHit(scope, key string)

	// A metadata entry's referencing set emptied and the entry was dropped.
	Evicted(key string)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) BuildStarted(string, string)     {}
func (NopHooks) BuildSkipped(string, string)     {}
func (NopHooks) ChecksumMismatch(string, string) {}
func (NopHooks) NegativeCached(string)           {}
func (NopHooks) UnresolvableReference(string)    {}
func (NopHooks) PersistedHit(string, string)     {}
func (NopHooks) Evicted(string)                  {}
