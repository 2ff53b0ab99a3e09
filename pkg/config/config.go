package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/polyguard-ai/polyguard/pkg/detectors"
	"github.com/polyguard-ai/polyguard/pkg/types"
)

// PhasePolicy is the configured detector chain for one phase. Functions
// holds canonical detector names in configured order; Settings carries the
// phase's remaining keys for per-detector decoding.
type PhasePolicy struct {
	Functions []string
	Mode      types.ExecutionMode
	Settings  map[string]any
}

// Policy is the full per-run policy snapshot. Read-only after Load.
type Policy struct {
	Phases map[types.Phase]*PhasePolicy
}

// Phase returns the policy for one phase, or nil when not configured.
func (p *Policy) Phase(phase types.Phase) *PhasePolicy {
	if p == nil {
		return nil
	}
	return p.Phases[phase]
}

type phaseFile struct {
	Functions     []string       `mapstructure:"functions"`
	ExecutionType string         `mapstructure:"execution_type"`
	Settings      map[string]any `mapstructure:",remain"`
}

// Load reads the policy file (JSON or YAML) and normalizes it. Unknown
// detector identifiers are dropped with a warning; unknown execution modes
// coerce to sequential.
func Load(path string, logger *logrus.Logger) (*Policy, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}

	policy := &Policy{Phases: make(map[types.Phase]*PhasePolicy)}
	for _, phase := range []types.Phase{types.PhaseInput, types.PhaseOutput} {
		raw := v.GetStringMap(string(phase))
		if len(raw) == 0 {
			continue
		}

		var pf phaseFile
		if err := mapstructure.Decode(raw, &pf); err != nil {
			return nil, fmt.Errorf("failed to decode %s phase: %w", phase, err)
		}

		functions := make([]string, 0, len(pf.Functions))
		seen := make(map[string]bool, len(pf.Functions))
		for _, ident := range pf.Functions {
			name, ok := detectors.CanonicalName(ident)
			if !ok {
				logger.WithFields(logrus.Fields{
					"phase":    phase,
					"function": ident,
				}).Warn("unknown detector identifier, skipping")
				continue
			}
			if seen[name] {
				logger.WithFields(logrus.Fields{
					"phase":    phase,
					"function": ident,
				}).Debug("duplicate detector identifier, skipping")
				continue
			}
			seen[name] = true
			functions = append(functions, name)
		}

		policy.Phases[phase] = &PhasePolicy{
			Functions: functions,
			Mode:      types.ParseExecutionMode(pf.ExecutionType),
			Settings:  pf.Settings,
		}
	}

	if len(policy.Phases) == 0 {
		return nil, fmt.Errorf("policy file %s configures no phases", path)
	}

	return policy, nil
}

// Validate checks each configured detector against the catalog's allowed
// phases and runs its settings validation, failing fast on the first
// misplaced detector, unknown category, or malformed knob.
func (p *Policy) Validate(registry map[string]detectors.Detector) error {
	for phase, pp := range p.Phases {
		for _, name := range pp.Functions {
			if def, ok := detectors.DefinitionFor(name); ok && !phaseAllowed(def.AllowedPhases, phase) {
				return fmt.Errorf("detector %s is not allowed in the %s phase", name, phase)
			}
			d, ok := registry[name]
			if !ok {
				continue
			}
			if err := d.ValidateSettings(pp.Settings); err != nil {
				return fmt.Errorf("invalid %s settings for %s phase: %w", name, phase, err)
			}
		}
	}
	return nil
}

func phaseAllowed(allowed []types.Phase, phase types.Phase) bool {
	for _, p := range allowed {
		if p == phase {
			return true
		}
	}
	return false
}
