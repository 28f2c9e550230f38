package persist

import (
	"context"

	"github.com/unkn0wn-root/symcache"
	"github.com/unkn0wn-root/symcache/codec"
)

// Typed pairs an Archive with a codec for the snapshot value type. A value
// that no longer decodes (schema drift between sessions) is deleted and read
// as a miss, matching the best-effort loader contract.
type Typed[V any] struct {
	Archive *Archive
	Codec   codec.Codec[V]
}

func (t Typed[V]) SaveProject(ctx context.Context, id symcache.ProjectID, sum symcache.Checksum, v V) error {
	payload, err := t.Codec.Encode(v)
	if err != nil {
		return err
	}
	return t.Archive.SaveProject(ctx, id, sum, payload)
}

func (t Typed[V]) LoadProject(ctx context.Context, id symcache.ProjectID) (symcache.Checksum, V, bool, error) {
	var zero V
	sum, payload, ok, err := t.Archive.LoadProject(ctx, id)
	if err != nil || !ok {
		return 0, zero, false, err
	}
	v, err := t.Codec.Decode(payload)
	if err != nil {
		_ = t.Archive.DeleteProject(ctx, id)
		return 0, zero, false, nil
	}
	return sum, v, true, nil
}

func (t Typed[V]) SaveReference(ctx context.Context, id symcache.ReferenceID, sum symcache.Checksum, v V) error {
	payload, err := t.Codec.Encode(v)
	if err != nil {
		return err
	}
	return t.Archive.SaveReference(ctx, id, sum, payload)
}

func (t Typed[V]) LoadReference(ctx context.Context, id symcache.ReferenceID) (symcache.Checksum, V, bool, error) {
	var zero V
	sum, payload, ok, err := t.Archive.LoadReference(ctx, id)
	if err != nil || !ok {
		return 0, zero, false, err
	}
	v, err := t.Codec.Decode(payload)
	if err != nil {
		_ = t.Archive.DeleteReference(ctx, id)
		return 0, zero, false, nil
	}
	return sum, v, true, nil
}
