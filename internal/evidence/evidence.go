// Package evidence resolves retrieved controls to the evidence objects
// backing them, preferring keys carried in retrieval metadata and falling
// back to a local evidence map file.
package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/govkb/govkb/internal/retrieval"
	"github.com/govkb/govkb/internal/snapshot"
)

// Map associates "FRAMEWORK:CONTROL" keys with evidence objects.
type Map map[string][]MapEntry

// MapEntry is one evidence object reference in the map file.
type MapEntry struct {
	S3Key       string `json:"s3_key"`
	Description string `json:"description,omitempty"`
}

// Ref is one resolved evidence reference, presigned when possible.
type Ref struct {
	Control     string `json:"control"`
	S3Key       string `json:"s3_key"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

// LoadMap reads the evidence map file. A missing file is an empty map,
// not an error; evidence is an optional feature.
func LoadMap(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Map{}, nil
		}
		return nil, fmt.Errorf("failed to read evidence map %s: %w", path, err)
	}

	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse evidence map %s: %w", path, err)
	}
	return m, nil
}

// Presigner produces read URLs for evidence keys. snapshot.Exporter
// satisfies it.
type Presigner interface {
	PresignMany(ctx context.Context, keys []string, expires time.Duration) []snapshot.KeyURL
}

// Resolve collects evidence references for the retrieved hits. Keys
// carried in hit metadata win; the map file is the fallback per control.
// The second return value lists every key that was looked up, for
// debugging key mismatches.
func Resolve(ctx context.Context, hits []retrieval.Hit, m Map, presigner Presigner) ([]Ref, []string) {
	refs := []Ref{}
	var lookedUp []string

	for _, h := range hits {
		framework := h.Framework
		if framework == "" {
			framework = "POL"
		}
		control := framework + ":" + h.ID()

		if len(h.EvidenceKeys) > 0 {
			lookedUp = append(lookedUp, h.EvidenceKeys...)
			for _, ku := range presigner.PresignMany(ctx, h.EvidenceKeys, time.Hour) {
				refs = append(refs, Ref{Control: control, S3Key: ku.Key, URL: ku.URL})
			}
			continue
		}

		for _, entry := range m[control] {
			lookedUp = append(lookedUp, entry.S3Key)
			keyURLs := presigner.PresignMany(ctx, []string{entry.S3Key}, time.Hour)
			url := ""
			if len(keyURLs) > 0 {
				url = keyURLs[0].URL
			}
			refs = append(refs, Ref{
				Control:     control,
				S3Key:       entry.S3Key,
				URL:         url,
				Description: entry.Description,
			})
		}
	}

	return refs, lookedUp
}
