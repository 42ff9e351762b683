package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/govkb/govkb/internal/retrieval"
)

var ingestBatch int

var ingestCmd = &cobra.Command{
	Use:   "ingest <corpus.jsonl>",
	Short: "Index a control corpus into the vector backend",
	Long: `Ingest a JSONL corpus of compliance controls. Each line is one object:

  {"text": "...", "framework": "SOC2", "control_id": "CC6.1", "evidence_keys": ["..."]}

Chunks are embedded with the configured embedding model and upserted
into the vector class in batches.`,
	Args: cobra.ExactArgs(1),
	RunE: ingestCommand,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestBatch, "batch", 64, "Chunks per upsert batch")
	rootCmd.AddCommand(ingestCmd)
}

func ingestCommand(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	chunks, err := readCorpus(args[0])
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks found in %s", args[0])
	}

	store, err := a.store()
	if err != nil {
		return fmt.Errorf("failed to connect vector backend: %w", err)
	}

	total := 0
	for start := 0; start < len(chunks); start += ingestBatch {
		end := start + ingestBatch
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := store.Upsert(cmd.Context(), chunks[start:end]); err != nil {
			return fmt.Errorf("upsert failed after %d chunks: %w", total, err)
		}
		total += end - start
		fmt.Printf("Indexed %d/%d chunks\n", total, len(chunks))
	}

	if _, err := a.log.Append(map[string]any{
		"action": "ingest",
		"source": args[0],
		"chunks": total,
	}); err != nil {
		return fmt.Errorf("audit append failed: %w", err)
	}

	fmt.Printf("Done: %d chunks indexed into %s\n", total, a.cfg.Vector.Class)
	return nil
}

func readCorpus(path string) ([]retrieval.Chunk, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer file.Close()

	var chunks []retrieval.Chunk
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var chunk retrieval.Chunk
		if err := json.Unmarshal([]byte(text), &chunk); err != nil {
			return nil, fmt.Errorf("corpus line %d: %w", line, err)
		}
		if chunk.Text == "" {
			return nil, fmt.Errorf("corpus line %d: missing text", line)
		}
		chunks = append(chunks, chunk)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	return chunks, nil
}
