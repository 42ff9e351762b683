// Package events publishes governance events after audit entries are
// durably committed. Emission is strictly best-effort: a publish failure
// is logged and dropped, it never fails the append that produced it.
package events

import "log/slog"

// GovernanceEvent summarizes one audited query/answer round trip for
// downstream consumers (dashboards, alerting). It carries the entry hash
// rather than the entry itself; the chain stays the source of truth.
type GovernanceEvent struct {
	RequestID  string   `json:"request_id"`
	EntryHash  string   `json:"entry_hash"`
	Injection  bool     `json:"injection"`
	Triggers   []string `json:"triggers,omitempty"`
	Confidence float64  `json:"confidence"`
	Model      string   `json:"model"`
	Frameworks []string `json:"frameworks,omitempty"`
}

// Emitter delivers governance events. Implementations must not block the
// caller on delivery and must swallow their own failures.
type Emitter interface {
	Emit(event GovernanceEvent)
}

// LogEmitter writes events to the structured log. Always configured; in
// deployments without an event bus it is the only emitter.
type LogEmitter struct {
	logger *slog.Logger
}

func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) Emit(event GovernanceEvent) {
	e.logger.Info("governance event",
		"request_id", event.RequestID,
		"entry_hash", event.EntryHash,
		"injection", event.Injection,
		"confidence", event.Confidence,
		"model", event.Model,
		"frameworks", event.Frameworks,
	)
}

// MultiEmitter fans one event out to several emitters.
type MultiEmitter struct {
	emitters []Emitter
}

func NewMultiEmitter(emitters ...Emitter) *MultiEmitter {
	return &MultiEmitter{emitters: emitters}
}

func (m *MultiEmitter) Emit(event GovernanceEvent) {
	for _, e := range m.emitters {
		e.Emit(event)
	}
}
