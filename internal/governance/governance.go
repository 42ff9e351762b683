// Package governance gates the ask path on the organization's model
// governance policy: which regions may serve requests and which model
// identifiers are approved.
package governance

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Policy is the model governance rule set, loaded once at startup.
type Policy struct {
	AllowRegions []string `yaml:"allow_regions"`
	AllowModels  []string `yaml:"allow_models"`
}

// Load reads the governance policy file. A missing file yields the
// permissive default; a malformed one is a startup error.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPolicy(), nil
		}
		return nil, fmt.Errorf("failed to read governance policy %s: %w", path, err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse governance policy %s: %w", path, err)
	}
	return &p, nil
}

// DefaultPolicy allows the common US regions and leaves the model list
// empty, which means any model is accepted.
func DefaultPolicy() *Policy {
	return &Policy{
		AllowRegions: []string{"us-east-1", "us-west-2"},
	}
}

// CheckRegion reports whether the deployment region is allowed, with a
// human-readable reason when it is not.
func (p *Policy) CheckRegion(region string) (bool, string) {
	if len(p.AllowRegions) == 0 || slices.Contains(p.AllowRegions, region) {
		return true, "OK"
	}
	return false, fmt.Sprintf("region %s not allowed", region)
}

// CheckModel reports whether a model identifier is approved. An empty
// allow list approves everything.
func (p *Policy) CheckModel(model string) (bool, string) {
	if len(p.AllowModels) == 0 || slices.Contains(p.AllowModels, model) {
		return true, "OK"
	}
	return false, fmt.Sprintf("model %s not in the approved list", model)
}

// AllowedModels returns the approved model identifiers.
func (p *Policy) AllowedModels() []string {
	return slices.Clone(p.AllowModels)
}
