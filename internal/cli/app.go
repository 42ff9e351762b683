package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/govkb/govkb/internal/answer"
	"github.com/govkb/govkb/internal/audit"
	"github.com/govkb/govkb/internal/config"
	"github.com/govkb/govkb/internal/events"
	"github.com/govkb/govkb/internal/evidence"
	"github.com/govkb/govkb/internal/governance"
	"github.com/govkb/govkb/internal/guardrail"
	"github.com/govkb/govkb/internal/qa"
	"github.com/govkb/govkb/internal/retrieval"
	"github.com/govkb/govkb/internal/rules"
	"github.com/govkb/govkb/internal/snapshot"
)

// app bundles the pieces every command needs. Commands that talk to AWS
// or the vector backend build those clients on top via the helpers
// below, so `govkb log` and `govkb verify` work with no credentials at
// all.
type app struct {
	cfg    *config.Config
	rules  *rules.Set
	guard  *guardrail.Evaluator
	log    *audit.Log
	policy *governance.Policy
	logger *slog.Logger
}

func loadApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	set, err := rules.Load(cfg.Rules.PIIPath, cfg.Rules.InjectionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load guardrail rules: %w", err)
	}

	auditPath := cfg.Audit.LogPath
	if logPath != "" {
		auditPath = logPath
	}
	log, err := audit.Open(auditPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	policy, err := governance.Load(cfg.Governance.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load governance policy: %w", err)
	}

	return &app{
		cfg:    cfg,
		rules:  set,
		guard:  guardrail.NewEvaluator(set),
		log:    log,
		policy: policy,
		logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}, nil
}

func (a *app) awsConfig(ctx context.Context) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(a.cfg.AWS.Region))
}

// exporter returns nil without error when no audit bucket is
// configured; snapshotting and presigning then simply stay off.
func (a *app) exporter(ctx context.Context) (*snapshot.Exporter, error) {
	if a.cfg.AWS.AuditBucket == "" {
		return nil, nil
	}
	awsCfg, err := a.awsConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return snapshot.New(awsCfg, a.cfg.AWS.AuditBucket, a.logger), nil
}

func (a *app) emitter(ctx context.Context) (events.Emitter, error) {
	logEmitter := events.NewLogEmitter(a.logger)
	if a.cfg.AWS.EventBusName == "" {
		return logEmitter, nil
	}
	awsCfg, err := a.awsConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	bus := events.NewEventBridgeEmitter(awsCfg, a.cfg.AWS.EventBusName, a.cfg.AWS.EventDetailType, a.logger)
	return events.NewMultiEmitter(logEmitter, bus), nil
}

func (a *app) embedder() *retrieval.OpenAIEmbedder {
	m := a.cfg.Models
	return retrieval.NewOpenAIEmbedder(m.APIKey, m.BaseURL, m.Embedding)
}

func (a *app) store() (*retrieval.Store, error) {
	v := a.cfg.Vector
	return retrieval.NewStore(retrieval.StoreConfig{
		Host:   v.Host,
		Scheme: v.Scheme,
		Class:  v.Class,
		TopK:   v.TopK,
	}, a.embedder(), a.logger)
}

// service wires the full question-answering pipeline. model overrides
// the configured answer model when non-empty.
func (a *app) service(ctx context.Context, model string) (*qa.Service, error) {
	if model == "" {
		model = a.cfg.Models.LLM
	}

	var retriever retrieval.Retriever
	if a.cfg.Vector.Backend != "none" {
		store, err := a.store()
		if err != nil {
			return nil, fmt.Errorf("failed to connect vector backend: %w", err)
		}
		retriever = store
	}

	emitter, err := a.emitter(ctx)
	if err != nil {
		return nil, err
	}

	exporter, err := a.exporter(ctx)
	if err != nil {
		return nil, err
	}

	evidenceMap, err := evidence.LoadMap(a.cfg.Evidence.MapPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load evidence map: %w", err)
	}

	var responder answer.Responder
	if a.cfg.Models.APIKey != "" {
		responder = answer.NewOpenAIResponder(a.cfg.Models.APIKey, a.cfg.Models.BaseURL, model)
	}

	svc := &qa.Service{
		Guard:       a.guard,
		Retriever:   retriever,
		Log:         a.log,
		Emitter:     emitter,
		EvidenceMap: evidenceMap,
		Policy:      a.policy,
		Responder:   responder,
		Model:       model,
		Region:      a.cfg.AWS.Region,
		Logger:      a.logger,
	}
	if exporter != nil {
		svc.Presigner = exporter
	}
	return svc, nil
}
