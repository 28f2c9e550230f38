package checksum

import (
	"sync"

	"github.com/unkn0wn-root/symcache"
)

// Memo memoizes checksums by object identity. An entry is tied to the exact
// content-version object it was computed from, so a lookup is only
// meaningful while the caller still holds that same object.
//
// Consult a Memo synchronously with the triggering event and never across a
// suspension point: the workspace may swap version objects between events,
// and a late lookup would pin a checksum to content that no longer exists.
// This is why symcache computes all reference checksums before launching any
// build.
type Memo struct {
	mu sync.Mutex
	m  map[any]symcache.Checksum
}

func NewMemo() *Memo {
	return &Memo{m: make(map[any]symcache.Checksum)}
}

// Do returns the memoized checksum for key, computing and recording it on
// first sight. compute runs outside the lock; two racing first sights may
// both compute, which is harmless because checksums of identical content are
// equal.
func (mo *Memo) Do(key any, compute func() symcache.Checksum) symcache.Checksum {
	mo.mu.Lock()
	if s, ok := mo.m[key]; ok {
		mo.mu.Unlock()
		return s
	}
	mo.mu.Unlock()

	s := compute()

	mo.mu.Lock()
	mo.m[key] = s
	mo.mu.Unlock()
	return s
}

// Forget drops the entry for key. Call it when a content version is retired.
func (mo *Memo) Forget(key any) {
	mo.mu.Lock()
	delete(mo.m, key)
	mo.mu.Unlock()
}

// Len reports the number of memoized entries.
func (mo *Memo) Len() int {
	mo.mu.Lock()
	defer mo.mu.Unlock()
	return len(mo.m)
}
