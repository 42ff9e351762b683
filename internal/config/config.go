// Package config loads application configuration from a YAML file with
// GOVKB_* environment overrides. Rule files and policies are loaded by
// their own packages; config only knows where they live.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const DefaultConfigDir = ".govkb"

// Config is the resolved application configuration.
type Config struct {
	ConfigDir  string           `mapstructure:"-"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Rules      RulesConfig      `mapstructure:"rules"`
	Governance GovernanceConfig `mapstructure:"governance"`
	Evidence   EvidenceConfig   `mapstructure:"evidence"`
	AWS        AWSConfig        `mapstructure:"aws"`
	Vector     VectorConfig     `mapstructure:"vector"`
	Models     ModelsConfig     `mapstructure:"models"`
}

// AuditConfig locates the chain file.
type AuditConfig struct {
	LogPath string `mapstructure:"log_path"`
}

// RulesConfig locates the guardrail rule files.
type RulesConfig struct {
	PIIPath       string `mapstructure:"pii_path"`
	InjectionPath string `mapstructure:"injection_path"`
}

// GovernanceConfig locates the model governance policy.
type GovernanceConfig struct {
	PolicyPath string `mapstructure:"policy_path"`
}

// EvidenceConfig locates the evidence map file.
type EvidenceConfig struct {
	MapPath string `mapstructure:"map_path"`
}

// AWSConfig holds region and audit-infrastructure settings. AuditBucket
// and EventBusName may be empty, which disables the respective feature.
type AWSConfig struct {
	Region          string `mapstructure:"region"`
	AuditBucket     string `mapstructure:"audit_bucket"`
	EventBusName    string `mapstructure:"event_bus_name"`
	EventDetailType string `mapstructure:"event_detail_type"`
}

// VectorConfig selects and configures the retrieval backend.
type VectorConfig struct {
	Backend string `mapstructure:"backend"`
	Host    string `mapstructure:"host"`
	Scheme  string `mapstructure:"scheme"`
	Class   string `mapstructure:"class"`
	TopK    int    `mapstructure:"top_k"`
}

// ModelsConfig identifies the embedding and answer models.
type ModelsConfig struct {
	Embedding string `mapstructure:"embedding"`
	LLM       string `mapstructure:"llm"`
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
}

// Load resolves configuration from the given file (or
// <configDir>/config.yaml when empty), environment variables, and
// defaults, and makes sure the config directory exists.
func Load(path string) (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, DefaultConfigDir)
	if err := ensureDir(configDir); err != nil {
		return nil, err
	}

	vip := viper.New()
	if path != "" {
		vip.SetConfigFile(path)
	} else {
		vip.SetConfigName("config")
		vip.SetConfigType("yaml")
		vip.AddConfigPath(configDir)
		vip.AddConfigPath(".")
	}

	vip.SetEnvPrefix("GOVKB")
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()

	setDefaults(vip, configDir)

	if err := vip.ReadInConfig(); err != nil {
		// An explicit file must exist; the default search path may not.
		if path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigDir = configDir
	return &cfg, nil
}

func setDefaults(vip *viper.Viper, configDir string) {
	vip.SetDefault("audit.log_path", filepath.Join(configDir, "audits", "audit_log.jsonl"))
	vip.SetDefault("rules.pii_path", filepath.Join(configDir, "security", "pii_patterns.yaml"))
	vip.SetDefault("rules.injection_path", filepath.Join(configDir, "security", "prompt_injection_rules.yaml"))
	vip.SetDefault("governance.policy_path", filepath.Join(configDir, "security", "model_governance.yaml"))
	vip.SetDefault("evidence.map_path", filepath.Join(configDir, "data", "evidence_map.json"))

	vip.SetDefault("aws.region", "us-east-1")
	vip.SetDefault("aws.audit_bucket", "")
	vip.SetDefault("aws.event_bus_name", "")
	vip.SetDefault("aws.event_detail_type", "AIGovAudit")

	vip.SetDefault("vector.backend", "weaviate")
	vip.SetDefault("vector.host", "localhost:8080")
	vip.SetDefault("vector.scheme", "http")
	vip.SetDefault("vector.class", "ComplianceControl")
	vip.SetDefault("vector.top_k", 5)

	vip.SetDefault("models.embedding", "text-embedding-3-small")
	vip.SetDefault("models.llm", "gpt-4o-mini")
	vip.SetDefault("models.api_key", "")
	vip.SetDefault("models.base_url", "")
}

func ensureDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0o700)
	}
	return nil
}
