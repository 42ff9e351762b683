// Package retrieval talks to the vector-search collaborator. The rest of
// the system only sees the Retriever interface; backend failures are
// meant to be absorbed by the caller, which degrades to empty results
// and records the failure in the audit entry.
package retrieval

import "context"

// Hit is one ranked passage from the knowledge base. Higher Score means
// more relevant; exact semantics are backend-specific.
type Hit struct {
	Text         string   `json:"text"`
	Framework    string   `json:"framework"`
	ControlID    string   `json:"control_id,omitempty"`
	PolicyID     string   `json:"policy_id,omitempty"`
	Score        float64  `json:"score"`
	EvidenceKeys []string `json:"evidence_keys,omitempty"`
}

// ID returns the control identifier, falling back to the policy one.
func (h Hit) ID() string {
	if h.ControlID != "" {
		return h.ControlID
	}
	return h.PolicyID
}

// Retriever returns ranked passages for a query.
type Retriever interface {
	Search(ctx context.Context, query string) ([]Hit, error)
}

// Embedder turns texts into vectors for the store.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunk is one ingestible knowledge-base passage.
type Chunk struct {
	Text         string   `json:"text"`
	Framework    string   `json:"framework"`
	ControlID    string   `json:"control_id,omitempty"`
	PolicyID     string   `json:"policy_id,omitempty"`
	EvidenceKeys []string `json:"evidence_keys,omitempty"`
}
