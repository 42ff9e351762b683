// Package audit implements the append-only, hash-chained audit log.
//
// Every query/answer event is one JSON object on its own line of an
// append-only file. Each entry embeds the SHA-256 hash of its
// predecessor, so altering or deleting any historical entry invalidates
// every later hash and a single linear scan detects it. The chain is
// tamper-evident, not tamper-proof: there are no signing keys, and an
// attacker with write access to the file can rebuild it wholesale.
package audit

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// GenesisHash is the prev_hash of the very first entry. It is a fixed
// sentinel, never a possible SHA-256 output (those are 64 hex chars).
const GenesisHash = "GENESIS"

// Reserved field names the log stamps onto every record. Caller-supplied
// fields must not use them.
const (
	fieldTimestamp = "ts"
	fieldPrevHash  = "prev_hash"
	fieldEntryHash = "entry_hash"
)

// Log is the sole writer of one audit chain file.
//
// The mutex serializes the read-tail-then-append sequence so two entries
// can never claim the same predecessor. The tail hash is cached in
// memory after the first scan and updated on every successful append;
// this assumes no other process writes the same file.
type Log struct {
	path string

	mu   sync.Mutex
	tail string // "" until primed, then GenesisHash or last entry_hash

	now func() time.Time // injectable clock for tests
}

// Open prepares a Log writing to path, creating parent directories as
// needed. The file itself is created lazily on first append.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return &Log{path: path, now: time.Now}, nil
}

// Path returns the location of the backing file.
func (l *Log) Path() string { return l.path }

// Append stamps fields with the current timestamp and the tail hash,
// computes the entry hash, and durably writes the completed record as
// the new tail. The returned string is the new entry's hash.
//
// On any write failure the entry is not logged and the cached tail is
// left untouched, so a retry redoes the whole read-tail-then-write
// sequence instead of forking the chain.
func (l *Log) Append(fields map[string]any) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev, err := l.tailLocked()
	if err != nil {
		return "", err
	}

	record := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		if k == fieldTimestamp || k == fieldPrevHash || k == fieldEntryHash {
			return "", fmt.Errorf("audit: field %q is reserved", k)
		}
		record[k] = v
	}
	record[fieldTimestamp] = l.now().Unix()
	record[fieldPrevHash] = prev

	canonical, err := canonicalJSON(record)
	if err != nil {
		return "", err
	}
	hash := chainHash(prev, canonical)
	record[fieldEntryHash] = hash

	line, err := encodeCompact(record)
	if err != nil {
		return "", err
	}

	if err := l.writeLine(line); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	l.tail = hash
	return hash, nil
}

// TailHash returns the last entry's hash, or GenesisHash when the log is
// empty.
func (l *Log) TailHash() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tailLocked()
}

// writeLine appends one record line and syncs it to disk before the
// write is considered durable.
func (l *Log) writeLine(line []byte) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// tailLocked returns the cached tail hash, scanning the file once on
// cold start. Callers must hold l.mu.
func (l *Log) tailLocked() (string, error) {
	if l.tail != "" {
		return l.tail, nil
	}

	entries, err := readEntries(l.path)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		l.tail = GenesisHash
		return l.tail, nil
	}

	last := entries[len(entries)-1]
	hash, _ := last[fieldEntryHash].(string)
	if hash == "" {
		return "", fmt.Errorf("%w: tail entry has no %s", ErrStorageRead, fieldEntryHash)
	}
	l.tail = hash
	return l.tail, nil
}

// chainHash binds an entry to its predecessor:
// hex(SHA-256(prev_hash || canonical_record)).
func chainHash(prevHash string, canonical []byte) string {
	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil))
}

// readEntries parses the whole file, one generic record per line.
// Numbers are kept as json.Number so re-hashing reproduces the exact
// bytes that were written.
func readEntries(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageRead, err)
	}
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var record map[string]any
		if err := dec.Decode(&record); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrStorageRead, len(entries)+1, err)
		}
		entries = append(entries, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageRead, err)
	}
	return entries, nil
}
