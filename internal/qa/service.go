// Package qa orchestrates one question/answer round trip: guardrails,
// retrieval, answer synthesis, evidence resolution, the audit append,
// and the post-append governance event.
//
// External collaborators (retrieval, assistant, presigner, event bus)
// are absorbed at this boundary: their failures degrade the result but
// the event is still audited with whatever partial information exists,
// because the audit record's job is to faithfully record what happened,
// including failures.
package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/govkb/govkb/internal/answer"
	"github.com/govkb/govkb/internal/audit"
	"github.com/govkb/govkb/internal/events"
	"github.com/govkb/govkb/internal/evidence"
	"github.com/govkb/govkb/internal/governance"
	"github.com/govkb/govkb/internal/guardrail"
	"github.com/govkb/govkb/internal/retrieval"
)

// Service wires the collaborators for the ask path. Retriever and the
// audit log are required; responder, presigner and emitter are optional
// features that degrade to no-ops when absent.
type Service struct {
	Guard       *guardrail.Evaluator
	Retriever   retrieval.Retriever
	Log         *audit.Log
	Emitter     events.Emitter
	Presigner   evidence.Presigner
	EvidenceMap evidence.Map
	Policy      *governance.Policy
	Responder   answer.Responder
	Model       string
	Region      string
	Logger      *slog.Logger
}

// Result is everything one round trip produced, including the hash of
// the audit entry that recorded it.
type Result struct {
	RequestID  string               `json:"request_id"`
	Query      string               `json:"query"`
	Redacted   string               `json:"redacted"`
	Findings   []guardrail.Finding  `json:"findings"`
	Verdict    guardrail.Verdict    `json:"verdict"`
	Hidden     guardrail.HiddenScan `json:"hidden"`
	Hits       []retrieval.Hit      `json:"hits"`
	Answer     string               `json:"answer"`
	Confidence float64              `json:"confidence"`
	Evidence   []evidence.Ref       `json:"evidence,omitempty"`
	EntryHash  string               `json:"entry_hash"`

	// GovernanceReason is set when the governance policy blocked
	// retrieval; RetrievalError when the backend failed.
	GovernanceReason string `json:"governance_reason,omitempty"`
	RetrievalError   string `json:"retrieval_error,omitempty"`
}

// Ask runs the full pipeline for one query. The only error it returns is
// a failed audit append: an unaudited answer must never be surfaced.
func (s *Service) Ask(ctx context.Context, query string) (*Result, error) {
	res := &Result{
		RequestID: uuid.NewString(),
		Query:     query,
	}

	res.Hidden = guardrail.ScanHidden(query)
	res.Redacted, res.Findings, res.Verdict = s.Guard.Sanitize(res.Hidden.Stripped)

	if ok, reason := s.checkGovernance(); !ok {
		res.GovernanceReason = reason
		s.Logger.Warn("governance policy blocked retrieval",
			"request_id", res.RequestID, "reason", reason)
	} else if s.Retriever != nil {
		hits, err := s.Retriever.Search(ctx, res.Redacted)
		if err != nil {
			// Absorbed: the event is still audited with empty results.
			res.RetrievalError = err.Error()
			s.Logger.Warn("retrieval failed",
				"request_id", res.RequestID, "error", err)
		}
		res.Hits = hits
	}

	res.Answer, res.Confidence = s.buildAnswer(ctx, res)

	if s.Presigner != nil {
		res.Evidence, _ = evidence.Resolve(ctx, res.Hits, s.EvidenceMap, s.Presigner)
	}

	hash, err := s.Log.Append(s.auditFields(res))
	if err != nil {
		return nil, fmt.Errorf("audit append failed: %w", err)
	}
	res.EntryHash = hash

	if s.Emitter != nil {
		s.Emitter.Emit(events.GovernanceEvent{
			RequestID:  res.RequestID,
			EntryHash:  hash,
			Injection:  res.Verdict.IsInjection,
			Triggers:   res.Verdict.Triggers,
			Confidence: res.Confidence,
			Model:      s.Model,
			Frameworks: frameworks(res.Hits),
		})
	}

	return res, nil
}

func (s *Service) checkGovernance() (bool, string) {
	if s.Policy == nil {
		return true, ""
	}
	if ok, reason := s.Policy.CheckRegion(s.Region); !ok {
		return false, reason
	}
	if ok, reason := s.Policy.CheckModel(s.Model); !ok {
		return false, reason
	}
	return true, ""
}

// buildAnswer prefers the assistant responder when configured, falling
// back to grounded synthesis if the assistant is unreachable.
func (s *Service) buildAnswer(ctx context.Context, res *Result) (string, float64) {
	grounded, confidence := answer.Synthesize(res.Redacted, res.Hits)
	if s.Responder == nil || len(res.Hits) == 0 {
		return grounded, confidence
	}

	var excerpts []string
	for _, h := range res.Hits {
		excerpts = append(excerpts, fmt.Sprintf("[%s %s] %s", h.Framework, h.ID(), h.Text))
	}
	text, err := s.Responder.Respond(ctx, res.Redacted, strings.Join(excerpts, "\n"))
	if err != nil {
		s.Logger.Warn("assistant failed, using grounded synthesis",
			"request_id", res.RequestID, "error", err)
		return grounded, confidence
	}
	return text, confidence
}

// auditFields builds the open field mapping the chain stores for this
// event. Shapes mirror what verifiers and downstream auditors expect.
func (s *Service) auditFields(res *Result) map[string]any {
	retrieved := make([]map[string]any, 0, len(res.Hits))
	for _, h := range res.Hits {
		retrieved = append(retrieved, map[string]any{
			"id":        h.ID(),
			"framework": h.Framework,
			"score":     h.Score,
		})
	}

	fields := map[string]any{
		"action":         "qa",
		"request_id":     res.RequestID,
		"query_raw":      res.Query,
		"query_redacted": res.Redacted,
		"pii_findings":   res.Findings,
		"inj":            res.Verdict,
		"retrieved":      retrieved,
		"confidence":     res.Confidence,
		"evidence":       res.Evidence,
		"model_used":     s.Model,
	}
	if !res.Hidden.Clean {
		fields["hidden_chars"] = res.Hidden.Threats
	}
	if res.GovernanceReason != "" {
		fields["governance_violation"] = res.GovernanceReason
	}
	if res.RetrievalError != "" {
		fields["retrieval_error"] = res.RetrievalError
	}
	return fields
}

// frameworks returns the distinct framework labels in hit order.
func frameworks(hits []retrieval.Hit) []string {
	seen := make(map[string]bool)
	var out []string
	for _, h := range hits {
		if h.Framework == "" || seen[h.Framework] {
			continue
		}
		seen[h.Framework] = true
		out = append(out, h.Framework)
	}
	return out
}
