package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Tuning is the standalone engine-tuning file. It carries only the
// scoring knobs, so operators can re-tune weights without touching the
// deployment config.
type Tuning struct {
	Verify      *VerifyConfig      `yaml:"verify,omitempty"`
	Credibility *CredibilityConfig `yaml:"credibility,omitempty"`
	Drift       *DriftConfig       `yaml:"drift,omitempty"`
	Resolver    *ResolverConfig    `yaml:"resolver,omitempty"`
}

// LoadTuning reads an engine-tuning YAML file. The file has a top-level
// "engine" key wrapping the sections.
func LoadTuning(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read tuning %s", path)
	}

	var wrapper struct {
		Engine Tuning `yaml:"engine"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "config: parse tuning")
	}

	return &wrapper.Engine, nil
}

// Apply overlays the tuning sections onto cfg. Sections absent from the
// file leave the corresponding config untouched.
func (t *Tuning) Apply(cfg *Config) {
	if t == nil {
		return
	}
	if t.Verify != nil {
		cfg.Verify = *t.Verify
	}
	if t.Credibility != nil {
		cfg.Credibility = *t.Credibility
	}
	if t.Drift != nil {
		cfg.Drift = *t.Drift
	}
	if t.Resolver != nil {
		cfg.Resolver = *t.Resolver
	}
}
