// Package checksum provides content-fingerprint primitives for implementing
// symcache.ChecksumSource. Fingerprints are xxhash-based: fast enough to run
// on every edit event without building anything.
//
// All functions remap an (astronomically unlikely) zero digest to 1, because
// the zero symcache.Checksum is reserved for "no checksum".
package checksum

import (
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/unkn0wn-root/symcache"
)

// OfBytes fingerprints a single byte slice.
func OfBytes(b []byte) symcache.Checksum {
	return nonZero(xxhash.Sum64(b))
}

// OfString fingerprints a single string without copying it.
func OfString(s string) symcache.Checksum {
	return nonZero(xxhash.Sum64String(s))
}

// OfStrings fingerprints an ordered sequence of strings. Each part is
// length-prefixed so ("ab","c") and ("a","bc") stay distinct.
func OfStrings(parts ...string) symcache.Checksum {
	d := xxhash.New()
	var n [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(n[:], uint64(len(p)))
		_, _ = d.Write(n[:])
		_, _ = d.WriteString(p)
	}
	return nonZero(d.Sum64())
}

// OfReader fingerprints everything readable from r.
func OfReader(r io.Reader) (symcache.Checksum, error) {
	d := xxhash.New()
	if _, err := io.Copy(d, r); err != nil {
		return 0, err
	}
	return nonZero(d.Sum64()), nil
}

// Combine folds checksums into one, order-sensitive. Use it to derive a
// project checksum from per-document checksums.
func Combine(sums ...symcache.Checksum) symcache.Checksum {
	d := xxhash.New()
	var n [8]byte
	for _, s := range sums {
		binary.LittleEndian.PutUint64(n[:], uint64(s))
		_, _ = d.Write(n[:])
	}
	return nonZero(d.Sum64())
}

func nonZero(u uint64) symcache.Checksum {
	if u == 0 {
		u = 1
	}
	return symcache.Checksum(u)
}
