package symcache

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a Service whose session ended.
var ErrClosed = errors.New("symcache: service closed")

// MismatchError reports a builder whose output checksum disagrees with the
// checksum independently computed for the same content. The two must always
// agree; a disagreement is a builder/oracle contract bug, not a runtime
// condition, so the triggering refresh aborts and the error is never
// swallowed.
type MismatchError struct {
	Scope    string // "project" or "reference"
	Key      string
	Built    Checksum // checksum carried by the built index
	Computed Checksum // checksum computed by the ChecksumSource
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("symcache: %s %q: built index checksum %#x disagrees with computed checksum %#x",
		e.Scope, e.Key, uint64(e.Built), uint64(e.Computed))
}
