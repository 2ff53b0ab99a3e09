package entities

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/polyguard-ai/polyguard/pkg/detectors"
	"github.com/polyguard-ai/polyguard/pkg/infra/language"
	"github.com/polyguard-ai/polyguard/pkg/piimatch"
	"github.com/polyguard-ai/polyguard/pkg/taxonomy"
	"github.com/polyguard-ai/polyguard/pkg/types"
)

const (
	categoryEntityBlocked = "entity_blocked"
	categoryPIIDetected   = "pii_detected"
)

// Config carries the entity knobs of a phase's settings. Only categories in
// the blocked-type set are evaluated; thresholds resolve per type, falling
// back to the phase default.
type Config struct {
	BlockedTypes       []string           `mapstructure:"analyze_entities_blocked_types"`
	SalienceThreshold  float64            `mapstructure:"analyze_entities_salience_threshold"`
	SalienceThresholds map[string]float64 `mapstructure:"analyze_entities_salience_thresholds"`
}

// Results is the raw payload published alongside the blocking decision.
type Results struct {
	Entities []language.Entity `json:"entities"`
}

type Detector struct {
	logger *logrus.Logger
	client language.Client
}

func NewDetector(logger *logrus.Logger, client language.Client) detectors.Detector {
	return &Detector{logger: logger, client: client}
}

func (d *Detector) Name() string {
	return detectors.NameEntities
}

func (d *Detector) AllowedPhases() []types.Phase {
	return []types.Phase{types.PhaseInput, types.PhaseOutput}
}

func (d *Detector) ValidateSettings(settings map[string]any) error {
	var cfg Config
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return fmt.Errorf("failed to decode settings: %w", err)
	}
	if _, err := taxonomy.ParseEntityTypes(cfg.BlockedTypes); err != nil {
		return err
	}
	for raw := range cfg.SalienceThresholds {
		if _, err := taxonomy.ParseEntityType(raw); err != nil {
			return err
		}
	}
	return nil
}

func (d *Detector) Evaluate(
	ctx context.Context,
	text string,
	check types.CheckType,
	settings map[string]any,
) (*types.DetectorResult, error) {
	var cfg Config
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	if strings.TrimSpace(text) == "" {
		return &types.DetectorResult{Detector: d.Name(), Error: detectors.ErrEmptyInput.Error()}, nil
	}

	blockedTypes, err := taxonomy.ParseEntityTypes(cfg.BlockedTypes)
	if err != nil {
		return nil, err
	}

	// The structured backend is only consulted for types it models; a
	// pattern-only configuration skips the remote call entirely.
	var structured []language.Entity
	var backendErr string
	if hasStructuredBacked(blockedTypes) {
		structured, err = d.client.AnalyzeEntities(ctx, text)
		if err != nil {
			d.logger.WithError(err).Warn("entity backend call failed")
			backendErr = err.Error()
		}
	}

	// OTHER and UNKNOWN carry no signal and are dropped from all reporting.
	relevant := make([]language.Entity, 0, len(structured))
	for _, e := range structured {
		t := strings.ToUpper(e.Type)
		if t == string(taxonomy.EntityOther) || t == string(taxonomy.EntityUnknown) {
			continue
		}
		relevant = append(relevant, e)
	}

	blocked := Decide(relevant, piimatch.Scan(text, blockedTypes), cfg, blockedTypes)

	out := &types.DetectorResult{
		Detector: d.Name(),
		Results:  Results{Entities: relevant},
		Error:    backendErr,
	}
	if len(blocked) > 0 {
		out.BlockedItems = blocked
	}
	return out, nil
}

// Decide merges the structured findings with the pattern findings and
// applies per-type salience thresholds. A pattern finding is appended only
// when its matched value was not already flagged by a structured finding.
func Decide(structured []language.Entity, pattern []types.Finding, cfg Config, blockedTypes []taxonomy.EntityType) []types.BlockedItem {
	if len(blockedTypes) == 0 {
		return nil
	}

	blockedSet := make(map[taxonomy.EntityType]bool, len(blockedTypes))
	for _, t := range blockedTypes {
		blockedSet[t] = true
	}

	thresholds := make(map[taxonomy.EntityType]float64, len(cfg.SalienceThresholds))
	for raw, v := range cfg.SalienceThresholds {
		if t, err := taxonomy.ParseEntityType(raw); err == nil {
			thresholds[t] = v
		}
	}
	thresholdFor := func(t taxonomy.EntityType) float64 {
		if v, ok := thresholds[t]; ok {
			return v
		}
		return cfg.SalienceThreshold
	}

	var blocked []types.BlockedItem
	flaggedValues := make(map[string]bool)

	for _, e := range structured {
		t, err := taxonomy.ParseEntityType(e.Type)
		if err != nil || !blockedSet[t] {
			continue
		}
		threshold := thresholdFor(t)
		if e.Salience < threshold {
			continue
		}
		blocked = append(blocked, types.BlockedItem{
			Category:   categoryEntityBlocked,
			EntityName: e.Name,
			EntityType: string(t),
			Confidence: e.Salience,
			Threshold:  threshold,
			Severity:   types.SeverityForConfidence(e.Salience),
			Method:     types.MethodStructured,
		})
		flaggedValues[e.Name] = true
	}

	for _, f := range pattern {
		if flaggedValues[f.Value] {
			continue
		}
		t, err := taxonomy.ParseEntityType(f.Category)
		if err != nil || !blockedSet[t] {
			continue
		}
		threshold := thresholdFor(t)
		if f.Confidence < threshold {
			continue
		}
		blocked = append(blocked, types.BlockedItem{
			Category:   categoryPIIDetected,
			EntityName: f.Value,
			EntityType: string(t),
			Confidence: f.Confidence,
			Threshold:  threshold,
			Severity:   f.Severity,
			Method:     types.MethodPattern,
		})
		flaggedValues[f.Value] = true
	}

	return blocked
}

func hasStructuredBacked(blockedTypes []taxonomy.EntityType) bool {
	for _, t := range blockedTypes {
		if t.StructuredBacked() {
			return true
		}
	}
	return false
}
