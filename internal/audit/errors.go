package audit

import (
	"errors"
	"fmt"
)

// ErrStorageWrite wraps any failure to durably persist a new entry. The
// entry is not considered logged; callers may retry the whole Append.
var ErrStorageWrite = errors.New("audit log write failed")

// ErrStorageRead wraps any failure to read the persisted log back.
var ErrStorageRead = errors.New("audit log read failed")

// IntegrityError reports the first entry whose stored hash does not match
// the hash recomputed from its own fields and its predecessor's stored
// hash — evidence of tampering or reordering at that index.
type IntegrityError struct {
	Index    int    // zero-based entry index
	Expected string // recomputed hash
	Stored   string // hash found in the file
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("audit chain broken at entry %d: expected %s, stored %s",
		e.Index, e.Expected, e.Stored)
}
