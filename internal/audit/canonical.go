package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// canonicalJSON produces the deterministic byte form of a record that the
// entry hash is computed over: object keys sorted lexicographically at
// every nesting level, compact encoding, HTML characters and non-ASCII
// text preserved literally.
//
// The value is round-tripped through a generic decode so that struct
// field order can never leak into the output, and numbers are carried as
// json.Number so re-verification reproduces the exact digits that were
// originally written.
func canonicalJSON(v any) ([]byte, error) {
	first, err := encodeCompact(v)
	if err != nil {
		return nil, fmt.Errorf("canonical encode: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(first))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonical decode: %w", err)
	}

	return encodeCompact(generic)
}

// encodeCompact marshals without HTML escaping and without the trailing
// newline json.Encoder appends.
func encodeCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
