package audit

import (
	"encoding/json"
	"fmt"
)

// VerifyResult is the outcome of a full-chain integrity walk.
type VerifyResult struct {
	Valid   bool
	Entries int
	// Violation is non-nil when Valid is false and points at the first
	// entry whose stored hash could not be reproduced.
	Violation *IntegrityError
}

// Verify walks the log from genesis forward, recomputing every entry's
// hash from its own stored fields plus the previous entry's stored hash,
// and comparing against the stored entry_hash.
//
// Verify is read-only. It returns an error only when the file itself
// cannot be read or parsed; a hash mismatch is reported in the result,
// never as an error, so callers can tell "could not verify" apart from
// "verified and broken".
func (l *Log) Verify() (VerifyResult, error) {
	entries, err := readEntries(l.path)
	if err != nil {
		return VerifyResult{}, err
	}

	prev := GenesisHash
	for i, record := range entries {
		stored, _ := record[fieldEntryHash].(string)

		recomputed, err := recomputeHash(record, prev)
		if err != nil {
			return VerifyResult{}, fmt.Errorf("%w: entry %d: %v", ErrStorageRead, i, err)
		}

		if recomputed != stored {
			return VerifyResult{
				Entries: len(entries),
				Violation: &IntegrityError{
					Index:    i,
					Expected: recomputed,
					Stored:   stored,
				},
			}, nil
		}
		prev = stored
	}

	return VerifyResult{Valid: true, Entries: len(entries)}, nil
}

// recomputeHash rebuilds the canonical byte form of a stored record with
// its entry_hash removed, chained to prevHash. The record's own stored
// prev_hash field stays in the hashed bytes exactly as written, so a
// reordered entry fails even if its hash was recomputed consistently.
func recomputeHash(record map[string]any, prevHash string) (string, error) {
	stripped := make(map[string]any, len(record))
	for k, v := range record {
		if k == fieldEntryHash {
			continue
		}
		stripped[k] = v
	}

	canonical, err := canonicalJSON(stripped)
	if err != nil {
		return "", err
	}
	return chainHash(prevHash, canonical), nil
}

// Entry is the parsed, read-only view of one persisted record.
type Entry struct {
	TS        int64
	PrevHash  string
	EntryHash string
	Fields    map[string]any
}

// Entries parses and returns every record in the log, oldest first.
func (l *Log) Entries() ([]Entry, error) {
	records, err := readEntries(l.path)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(records))
	for i, record := range records {
		e := Entry{Fields: make(map[string]any)}
		for k, v := range record {
			switch k {
			case fieldTimestamp:
				n, ok := v.(json.Number)
				if !ok {
					return nil, fmt.Errorf("%w: entry %d: non-numeric ts", ErrStorageRead, i)
				}
				ts, err := n.Int64()
				if err != nil {
					return nil, fmt.Errorf("%w: entry %d: %v", ErrStorageRead, i, err)
				}
				e.TS = ts
			case fieldPrevHash:
				e.PrevHash, _ = v.(string)
			case fieldEntryHash:
				e.EntryHash, _ = v.(string)
			default:
				e.Fields[k] = v
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
