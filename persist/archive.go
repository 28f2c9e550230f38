// Package persist stores checksum-tagged index snapshots in a
// snapstore.Store. It is the building block applications use to implement
// symcache.Indexer's Load methods: save a snapshot after every successful
// build, and a later session recovers it before paying for the first
// rebuild.
//
// Snapshots are best-effort by contract. A corrupt envelope is deleted and
// read as a miss; the cache simply rebuilds.
package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/symcache"
	"github.com/unkn0wn-root/symcache/internal/keys"
	"github.com/unkn0wn-root/symcache/internal/wire"
	"github.com/unkn0wn-root/symcache/snapstore"
)

// Archive reads and writes raw snapshot payloads. Wrap it in a Typed to work
// with structured snapshot values.
type Archive struct {
	store snapstore.Store
	ns    string
	ttl   time.Duration
	log   symcache.Logger
}

type Options struct {
	// Required
	Namespace string // isolates workspaces sharing one store
	Store     snapstore.Store

	TTL    time.Duration   // 0 => store default / no expiry
	Logger symcache.Logger // nil => NopLogger
}

func New(opts Options) (*Archive, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("persist: store is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("persist: namespace is required")
	}
	a := &Archive{
		store: opts.Store,
		ns:    opts.Namespace,
		ttl:   opts.TTL,
	}
	a.log = coalesceLogger(opts.Logger)
	return a, nil
}

// SaveProject stores payload as the current snapshot for id, tagged with the
// checksum it was built from.
func (a *Archive) SaveProject(ctx context.Context, id symcache.ProjectID, sum symcache.Checksum, payload []byte) error {
	return a.save(ctx, keys.Project(a.ns, string(id)), sum, payload)
}

// LoadProject recovers the snapshot for id, if any.
func (a *Archive) LoadProject(ctx context.Context, id symcache.ProjectID) (symcache.Checksum, []byte, bool, error) {
	return a.load(ctx, keys.Project(a.ns, string(id)))
}

// DeleteProject drops the snapshot for id (best-effort).
func (a *Archive) DeleteProject(ctx context.Context, id symcache.ProjectID) error {
	return a.store.Delete(ctx, keys.Project(a.ns, string(id)))
}

// SaveReference stores payload as the current snapshot for id.
func (a *Archive) SaveReference(ctx context.Context, id symcache.ReferenceID, sum symcache.Checksum, payload []byte) error {
	return a.save(ctx, keys.Reference(a.ns, string(id)), sum, payload)
}

// LoadReference recovers the snapshot for id, if any.
func (a *Archive) LoadReference(ctx context.Context, id symcache.ReferenceID) (symcache.Checksum, []byte, bool, error) {
	return a.load(ctx, keys.Reference(a.ns, string(id)))
}

// DeleteReference drops the snapshot for id (best-effort).
func (a *Archive) DeleteReference(ctx context.Context, id symcache.ReferenceID) error {
	return a.store.Delete(ctx, keys.Reference(a.ns, string(id)))
}

func (a *Archive) save(ctx context.Context, key string, sum symcache.Checksum, payload []byte) error {
	b := wire.EncodeSnapshot(uint64(sum), payload)
	ok, err := a.store.Put(ctx, key, b, a.ttl)
	if err != nil {
		return err
	}
	if !ok {
		a.log.Debug("snapshot write rejected by store (pressure)", symcache.Fields{"key": key})
	}
	return nil
}

func (a *Archive) load(ctx context.Context, key string) (symcache.Checksum, []byte, bool, error) {
	raw, ok, err := a.store.Get(ctx, key)
	if err != nil || !ok {
		return 0, nil, false, err
	}
	sum, payload, err := wire.DecodeSnapshot(raw)
	if err != nil {
		// self-heal corrupt snapshot
		_ = a.store.Delete(ctx, key)
		a.log.Warn("corrupt snapshot deleted", symcache.Fields{"key": key})
		return 0, nil, false, nil
	}
	return symcache.Checksum(sum), payload, true, nil
}

func coalesceLogger(l symcache.Logger) symcache.Logger {
	if l == nil {
		return symcache.NopLogger{}
	}
	return l
}
