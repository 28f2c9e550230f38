package symcache

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"testing"
)

// ==============================
// Test doubles
// ==============================

func contentSum(s string) Checksum {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	sum := h.Sum64()
	if sum == 0 {
		sum = 1
	}
	return Checksum(sum)
}

type fakeIndex struct {
	sum     Checksum
	symbols []string
}

func (f *fakeIndex) Checksum() Checksum { return f.sum }
func (f *fakeIndex) WithChecksum(sum Checksum) Index {
	return &fakeIndex{sum: sum, symbols: f.symbols}
}

// sameContent reports whether two indexes share the same underlying symbol
// data (i.e. no rebuild happened between them).
func sameContent(a, b Index) bool {
	fa, fb := a.(*fakeIndex), b.(*fakeIndex)
	if len(fa.symbols) == 0 || len(fb.symbols) == 0 {
		return false
	}
	return &fa.symbols[0] == &fb.symbols[0]
}

type fakeReference struct{ id ReferenceID }

func (r *fakeReference) ID() ReferenceID { return r.id }

type fakeProject struct {
	mu      sync.Mutex
	id      ProjectID
	content string
	refs    []Reference
}

func (p *fakeProject) ID() ProjectID { return p.id }

func (p *fakeProject) References() []Reference {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Reference, len(p.refs))
	copy(out, p.refs)
	return out
}

func (p *fakeProject) setContent(s string) {
	p.mu.Lock()
	p.content = s
	p.mu.Unlock()
}

func (p *fakeProject) getContent() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.content
}

type fakeDocument struct{ p Project }

func (d fakeDocument) Project() Project { return d.p }

type fakeWorkspace struct {
	mu       sync.Mutex
	projects map[ProjectID]*fakeProject
}

func newFakeWorkspace() *fakeWorkspace {
	return &fakeWorkspace{projects: make(map[ProjectID]*fakeProject)}
}

func (w *fakeWorkspace) Projects() []Project {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Project, 0, len(w.projects))
	for _, p := range w.projects {
		out = append(out, p)
	}
	return out
}

func (w *fakeWorkspace) add(p *fakeProject) {
	w.mu.Lock()
	w.projects[p.id] = p
	w.mu.Unlock()
}

func (w *fakeWorkspace) drop(id ProjectID) {
	w.mu.Lock()
	delete(w.projects, id)
	w.mu.Unlock()
}

// fakeSums derives project checksums from fake content and serves reference
// checksums from an explicit table; absent references read as unresolvable.
type fakeSums struct {
	mu      sync.Mutex
	refSums map[ReferenceID]Checksum
}

func newFakeSums() *fakeSums {
	return &fakeSums{refSums: make(map[ReferenceID]Checksum)}
}

func (s *fakeSums) ProjectChecksum(p Project) (Checksum, error) {
	return contentSum(p.(*fakeProject).getContent()), nil
}

func (s *fakeSums) ReferenceChecksum(r Reference) (Checksum, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.refSums[r.ID()]
	return sum, ok
}

func (s *fakeSums) setRef(id ReferenceID, sum Checksum) {
	s.mu.Lock()
	s.refSums[id] = sum
	s.mu.Unlock()
}

func (s *fakeSums) dropRef(id ReferenceID) {
	s.mu.Lock()
	delete(s.refSums, id)
	s.mu.Unlock()
}

var errBuildFailed = errors.New("builder: metadata unreadable")

// fakeIndexer builds indexes tagged with the oracle's current checksum and
// counts invocations. Knobs: per-reference build failures, a global checksum
// skew for mismatch tests, a gate channel that blocks project builds, and
// persisted snapshots for the Load methods.
type fakeIndexer struct {
	sums *fakeSums

	mu            sync.Mutex
	projectBuilds map[ProjectID]int
	refBuilds     map[ReferenceID]int
	projectLoads  map[ProjectID]int
	failRefs      map[ReferenceID]bool
	skewSums      bool
	gate          chan struct{}
	persistedProj map[ProjectID]Index
	persistedRefs map[ReferenceID]Index
	loadErr       error
}

func newFakeIndexer(sums *fakeSums) *fakeIndexer {
	return &fakeIndexer{
		sums:          sums,
		projectBuilds: make(map[ProjectID]int),
		refBuilds:     make(map[ReferenceID]int),
		projectLoads:  make(map[ProjectID]int),
		failRefs:      make(map[ReferenceID]bool),
		persistedProj: make(map[ProjectID]Index),
		persistedRefs: make(map[ReferenceID]Index),
	}
}

func (ix *fakeIndexer) BuildProject(ctx context.Context, p Project) (Index, error) {
	ix.mu.Lock()
	ix.projectBuilds[p.ID()]++
	gate := ix.gate
	skew := ix.skewSums
	ix.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	sum := contentSum(p.(*fakeProject).getContent())
	if skew {
		sum++
	}
	return &fakeIndex{sum: sum, symbols: []string{"proj:" + string(p.ID())}}, nil
}

func (ix *fakeIndexer) BuildReference(ctx context.Context, r Reference) (Index, error) {
	ix.mu.Lock()
	ix.refBuilds[r.ID()]++
	fail := ix.failRefs[r.ID()]
	skew := ix.skewSums
	ix.mu.Unlock()

	if fail {
		return nil, errBuildFailed
	}
	sum, _ := ix.sums.ReferenceChecksum(r)
	if skew {
		sum++
	}
	return &fakeIndex{sum: sum, symbols: []string{"ref:" + string(r.ID())}}, nil
}

func (ix *fakeIndexer) LoadProject(_ context.Context, id ProjectID) (Index, bool, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.projectLoads[id]++
	if ix.loadErr != nil {
		return nil, false, ix.loadErr
	}
	idx, ok := ix.persistedProj[id]
	return idx, ok, nil
}

func (ix *fakeIndexer) LoadReference(_ context.Context, id ReferenceID) (Index, bool, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.loadErr != nil {
		return nil, false, ix.loadErr
	}
	idx, ok := ix.persistedRefs[id]
	return idx, ok, nil
}

func (ix *fakeIndexer) projectBuildCount(id ProjectID) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.projectBuilds[id]
}

func (ix *fakeIndexer) refBuildCount(id ReferenceID) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.refBuilds[id]
}

func (ix *fakeIndexer) projectLoadCount(id ProjectID) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.projectLoads[id]
}

func (ix *fakeIndexer) setGate(gate chan struct{}) {
	ix.mu.Lock()
	ix.gate = gate
	ix.mu.Unlock()
}

func (ix *fakeIndexer) setSkew(on bool) {
	ix.mu.Lock()
	ix.skewSums = on
	ix.mu.Unlock()
}

func (ix *fakeIndexer) setFailRef(id ReferenceID, fail bool) {
	ix.mu.Lock()
	ix.failRefs[id] = fail
	ix.mu.Unlock()
}

// world bundles the collaborators one test scenario shares.
type world struct {
	ws   *fakeWorkspace
	sums *fakeSums
	ix   *fakeIndexer
}

func newWorld() *world {
	sums := newFakeSums()
	return &world{
		ws:   newFakeWorkspace(),
		sums: sums,
		ix:   newFakeIndexer(sums),
	}
}

// project creates a project, registers it in the workspace and assigns
// reference checksums for the given reference ids.
func (w *world) project(id ProjectID, content string, refIDs ...ReferenceID) *fakeProject {
	refs := make([]Reference, 0, len(refIDs))
	for _, rid := range refIDs {
		refs = append(refs, &fakeReference{id: rid})
		if _, ok := w.sums.ReferenceChecksum(&fakeReference{id: rid}); !ok {
			w.sums.setRef(rid, contentSum(string(rid)))
		}
	}
	p := &fakeProject{id: id, content: content, refs: refs}
	w.ws.add(p)
	return p
}

func newTestService(t *testing.T, w *world, mod func(*Options)) Service {
	t.Helper()
	opts := Options{
		Indexer:   w.ix,
		Checksums: w.sums,
		Workspace: w.ws,
	}
	if mod != nil {
		mod(&opts)
	}
	svc, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}
