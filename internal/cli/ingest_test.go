package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadCorpus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.jsonl")
	data := `{"text": "Access reviews run quarterly.", "framework": "SOC2", "control_id": "CC6.1"}

{"text": "Data at rest is encrypted.", "framework": "ISO27001", "control_id": "A.10.1", "evidence_keys": ["evidence/crypto.pdf"]}
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	chunks, err := readCorpus(path)
	if err != nil {
		t.Fatalf("readCorpus: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].ControlID != "CC6.1" || chunks[0].Framework != "SOC2" {
		t.Errorf("unexpected first chunk: %+v", chunks[0])
	}
	if len(chunks[1].EvidenceKeys) != 1 {
		t.Errorf("expected evidence key on second chunk: %+v", chunks[1])
	}
}

func TestReadCorpusRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"broken json", `{"text": "x"`},
		{"missing text", `{"framework": "SOC2", "control_id": "CC6.1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "corpus.jsonl")
			if err := os.WriteFile(path, []byte(tt.line+"\n"), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := readCorpus(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestReadCorpusMissingFile(t *testing.T) {
	if _, err := readCorpus(filepath.Join(t.TempDir(), "absent.jsonl")); err == nil {
		t.Fatal("expected error")
	}
}
