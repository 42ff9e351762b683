package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// DefaultClass is the Weaviate class holding compliance-control chunks.
const DefaultClass = "ComplianceControl"

// StoreConfig configures the Weaviate-backed retriever.
type StoreConfig struct {
	Host   string // e.g. "localhost:8080"
	Scheme string // "http" or "https"
	Class  string // defaults to DefaultClass
	TopK   int    // defaults to 5
}

// Store searches and populates a Weaviate class. Query vectors come from
// the injected Embedder; Weaviate only does nearest-neighbor lookup.
type Store struct {
	client   *weaviate.Client
	embedder Embedder
	class    string
	topK     int
	logger   *slog.Logger
}

func NewStore(cfg StoreConfig, embedder Embedder, logger *slog.Logger) (*Store, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("weaviate host not configured")
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "http"
	}
	if cfg.Class == "" {
		cfg.Class = DefaultClass
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}

	client, err := weaviate.NewClient(weaviate.Config{Host: cfg.Host, Scheme: cfg.Scheme})
	if err != nil {
		return nil, fmt.Errorf("weaviate client: %w", err)
	}

	return &Store{
		client:   client,
		embedder: embedder,
		class:    cfg.Class,
		topK:     cfg.TopK,
		logger:   logger,
	}, nil
}

// Search embeds the query and runs a nearVector lookup, reporting
// certainty (always in [0,1]) as the hit score.
func (s *Store) Search(ctx context.Context, query string) ([]Hit, error) {
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vectors[0])

	fields := []graphql.Field{
		{Name: "text"},
		{Name: "framework"},
		{Name: "control_id"},
		{Name: "policy_id"},
		{Name: "evidence_keys"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "certainty"},
		}},
	}

	resp, err := s.client.GraphQL().Get().
		WithClassName(s.class).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(s.topK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}

	hits, err := parseHits(resp, s.class)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("retrieval complete", "hits", len(hits), "class", s.class)
	return hits, nil
}

// Upsert embeds and batch-writes chunks into the class.
func (s *Store) Upsert(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	objects := make([]*models.Object, len(chunks))
	for i, c := range chunks {
		objects[i] = &models.Object{
			Class: s.class,
			Properties: map[string]any{
				"text":          c.Text,
				"framework":     c.Framework,
				"control_id":    c.ControlID,
				"policy_id":     c.PolicyID,
				"evidence_keys": c.EvidenceKeys,
			},
			Vector: vectors[i],
		}
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate batch write failed: %w", err)
	}
	for _, obj := range resp {
		if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
			return fmt.Errorf("weaviate object rejected: %s", obj.Result.Errors.Error[0].Message)
		}
	}

	s.logger.Info("chunks ingested", "count", len(chunks), "class", s.class)
	return nil
}

// graphQL response shapes; the Get payload is keyed by class name.
type searchResponse struct {
	Get map[string][]searchObject `json:"Get"`
}

type searchObject struct {
	Text         string   `json:"text"`
	Framework    string   `json:"framework"`
	ControlID    string   `json:"control_id"`
	PolicyID     string   `json:"policy_id"`
	EvidenceKeys []string `json:"evidence_keys"`
	Additional   struct {
		Certainty float64 `json:"certainty"`
	} `json:"_additional"`
}

// parseHits converts Weaviate's dynamic GraphQL payload into Hits.
func parseHits(resp *models.GraphQLResponse, class string) ([]Hit, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate query error: %s", resp.Errors[0].Message)
	}

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal GraphQL data: %w", err)
	}
	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal GraphQL data: %w", err)
	}

	objects := parsed.Get[class]
	hits := make([]Hit, 0, len(objects))
	for _, o := range objects {
		hits = append(hits, Hit{
			Text:         o.Text,
			Framework:    o.Framework,
			ControlID:    o.ControlID,
			PolicyID:     o.PolicyID,
			Score:        o.Additional.Certainty,
			EvidenceKeys: o.EvidenceKeys,
		})
	}
	return hits, nil
}
