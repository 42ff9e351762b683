package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "audits", "audit_log.jsonl"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	l.now = func() time.Time { return time.Unix(1700000000, 0) }
	return l
}

func TestAppendVerifyRoundTrip(t *testing.T) {
	l := testLog(t)

	var hashes []string
	for _, v := range []int{1, 2, 3} {
		h, err := l.Append(map[string]any{"a": v})
		if err != nil {
			t.Fatalf("Append(%d) failed: %v", v, err)
		}
		if len(h) != 64 {
			t.Errorf("entry hash %q is not 64 hex chars", h)
		}
		hashes = append(hashes, h)
	}

	res, err := l.Verify()
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !res.Valid {
		t.Fatalf("chain invalid: %v", res.Violation)
	}
	if res.Entries != 3 {
		t.Errorf("Entries = %d, want 3", res.Entries)
	}

	entries, err := l.Entries()
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if entries[0].PrevHash != GenesisHash {
		t.Errorf("first prev_hash = %q, want %q", entries[0].PrevHash, GenesisHash)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].PrevHash != hashes[i-1] {
			t.Errorf("entry %d prev_hash = %q, want %q", i, entries[i].PrevHash, hashes[i-1])
		}
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(lines []string) []string
		wantIndex int
	}{
		{
			name: "field edited in middle entry",
			mutate: func(lines []string) []string {
				lines[1] = strings.Replace(lines[1], `"a":2`, `"a":99`, 1)
				return lines
			},
			wantIndex: 1,
		},
		{
			name: "first entry edited",
			mutate: func(lines []string) []string {
				lines[0] = strings.Replace(lines[0], `"a":1`, `"a":0`, 1)
				return lines
			},
			wantIndex: 0,
		},
		{
			name: "entry deleted",
			mutate: func(lines []string) []string {
				return append(lines[:1], lines[2:]...)
			},
			wantIndex: 1,
		},
		{
			name: "entries reordered",
			mutate: func(lines []string) []string {
				lines[1], lines[2] = lines[2], lines[1]
				return lines
			},
			wantIndex: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := testLog(t)
			for _, v := range []int{1, 2, 3} {
				if _, err := l.Append(map[string]any{"a": v}); err != nil {
					t.Fatalf("Append failed: %v", err)
				}
			}

			raw, err := os.ReadFile(l.Path())
			if err != nil {
				t.Fatalf("read log: %v", err)
			}
			lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
			lines = tt.mutate(lines)
			out := strings.Join(lines, "\n") + "\n"
			if err := os.WriteFile(l.Path(), []byte(out), 0o600); err != nil {
				t.Fatalf("write mutated log: %v", err)
			}

			res, err := l.Verify()
			if err != nil {
				t.Fatalf("Verify failed: %v", err)
			}
			if res.Valid {
				t.Fatal("expected violation, chain verified as valid")
			}
			if res.Violation.Index != tt.wantIndex {
				t.Errorf("violation at %d, want %d", res.Violation.Index, tt.wantIndex)
			}
			if res.Violation.Expected == res.Violation.Stored {
				t.Error("expected and stored hashes should differ")
			}
		})
	}
}

func TestGenesisTail(t *testing.T) {
	l := testLog(t)

	tail, err := l.TailHash()
	if err != nil {
		t.Fatalf("TailHash failed: %v", err)
	}
	if tail != GenesisHash {
		t.Errorf("empty log tail = %q, want %q", tail, GenesisHash)
	}

	h, err := l.Append(map[string]any{"action": "qa"})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	tail, err = l.TailHash()
	if err != nil {
		t.Fatalf("TailHash failed: %v", err)
	}
	if tail != h {
		t.Errorf("tail = %q, want %q", tail, h)
	}
}

func TestColdStartResumesChain(t *testing.T) {
	l := testLog(t)
	if _, err := l.Append(map[string]any{"a": 1}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// A fresh Log on the same file must pick up the existing tail.
	reopened, err := Open(l.Path())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	reopened.now = l.now
	if _, err := reopened.Append(map[string]any{"a": 2}); err != nil {
		t.Fatalf("Append after reopen failed: %v", err)
	}

	res, err := reopened.Verify()
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !res.Valid || res.Entries != 2 {
		t.Errorf("got valid=%v entries=%d, want valid chain of 2", res.Valid, res.Entries)
	}
}

func TestAppendRejectsReservedFields(t *testing.T) {
	l := testLog(t)
	for _, field := range []string{"ts", "prev_hash", "entry_hash"} {
		if _, err := l.Append(map[string]any{field: "x"}); err == nil {
			t.Errorf("Append with reserved field %q did not fail", field)
		}
	}
}

func TestAppendFailsWithoutForking(t *testing.T) {
	l := testLog(t)
	if _, err := l.Append(map[string]any{"a": 1}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Make the file unwritable: the append must fail and leave the
	// chain exactly as it was.
	if err := os.Chmod(l.Path(), 0o400); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	defer os.Chmod(l.Path(), 0o600)

	if _, err := l.Append(map[string]any{"a": 2}); err == nil {
		t.Skip("running with privileges that ignore file modes")
	}

	os.Chmod(l.Path(), 0o600)
	res, err := l.Verify()
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !res.Valid || res.Entries != 1 {
		t.Errorf("got valid=%v entries=%d, want untouched chain of 1", res.Valid, res.Entries)
	}

	// The next append must still chain off the surviving tail.
	if _, err := l.Append(map[string]any{"a": 3}); err != nil {
		t.Fatalf("Append after failure: %v", err)
	}
	res, err = l.Verify()
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !res.Valid || res.Entries != 2 {
		t.Errorf("got valid=%v entries=%d, want valid chain of 2", res.Valid, res.Entries)
	}
}
