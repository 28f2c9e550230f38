// Package keys builds the storage keys used by the persist package.
//
// The keyspaces "proj:<ns>:" and "ref:<ns>:" are owned by symcache; external
// code must not write under these prefixes.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
)

// Reference ids are often derived from file paths or content hashes and can
// be arbitrarily long; ids beyond this length are folded to a fixed-width
// digest so store keys stay bounded.
const maxRawID = 64

// Project returns the storage key for a project snapshot.
func Project(ns, id string) string { return build("proj", ns, id) }

// Reference returns the storage key for a binary-reference snapshot.
func Reference(ns, id string) string { return build("ref", ns, id) }

func build(kind, ns, id string) string {
	if len(id) > maxRawID {
		sum := sha256.Sum256([]byte(id))
		id = hex.EncodeToString(sum[:16])
	}
	return kind + ":" + ns + ":" + id
}
