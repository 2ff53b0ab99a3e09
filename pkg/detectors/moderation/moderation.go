package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/polyguard-ai/polyguard/pkg/detectors"
	"github.com/polyguard-ai/polyguard/pkg/infra/language"
	"github.com/polyguard-ai/polyguard/pkg/taxonomy"
	"github.com/polyguard-ai/polyguard/pkg/types"
)

// DefaultThreshold applies to any category without a configured override.
const DefaultThreshold = 0.5

// Config carries the moderation knobs of a phase's settings. A nil
// blocked-category list means every category the backend reports is in
// scope (default-deny); an explicit empty list blocks nothing.
type Config struct {
	BlockedCategories []string           `mapstructure:"moderate_text_blocked_categories"`
	Thresholds        map[string]float64 `mapstructure:"moderate_text_thresholds"`
}

// Score is one moderation category observation with its severity band.
type Score struct {
	Category   string         `json:"category"`
	Confidence float64        `json:"confidence"`
	Severity   types.Severity `json:"severity"`
}

// Results is the raw payload published alongside the blocking decision.
type Results struct {
	Moderation []Score `json:"moderation"`
}

type Detector struct {
	logger *logrus.Logger
	client language.Client
}

func NewDetector(logger *logrus.Logger, client language.Client) detectors.Detector {
	return &Detector{logger: logger, client: client}
}

func (d *Detector) Name() string {
	return detectors.NameModeration
}

func (d *Detector) AllowedPhases() []types.Phase {
	return []types.Phase{types.PhaseInput, types.PhaseOutput}
}

func (d *Detector) ValidateSettings(settings map[string]any) error {
	var cfg Config
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return fmt.Errorf("failed to decode settings: %w", err)
	}
	if _, err := taxonomy.ParseModerationCategories(cfg.BlockedCategories); err != nil {
		return err
	}
	if _, err := taxonomy.ParseModerationThresholds(cfg.Thresholds); err != nil {
		return err
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

	categories, err := d.client.ModerateText(ctx, text)
	if err != nil {
		d.logger.WithError(err).Warn("moderation backend call failed")
		return &types.DetectorResult{Detector: d.Name(), Error: err.Error()}, nil
	}

	scores := make([]Score, 0, len(categories))
	for _, cat := range categories {
		scores = append(scores, Score{
			Category:   cat.Name,
			Confidence: cat.Confidence,
			Severity:   types.SeverityForConfidence(cat.Confidence),
		})
	}

	out := &types.DetectorResult{Detector: d.Name(), Results: Results{Moderation: scores}}
	if blocked := Decide(scores, cfg); len(blocked) > 0 {
		out.BlockedItems = blocked
	}
	return out, nil
}

// Decide blocks every in-scope category whose confidence meets its
// threshold. With no blocked-category list configured, all reported
// categories are in scope.
func Decide(scores []Score, cfg Config) []types.BlockedItem {
	blockAll := cfg.BlockedCategories == nil

	blockedSet := make(map[string]bool, len(cfg.BlockedCategories))
	for _, raw := range cfg.BlockedCategories {
		if c, err := taxonomy.ParseModerationCategory(raw); err == nil {
			blockedSet[strings.ToLower(string(c))] = true
		}
	}

	thresholds := make(map[string]float64, len(cfg.Thresholds))
	for raw, v := range cfg.Thresholds {
		if c, err := taxonomy.ParseModerationCategory(raw); err == nil {
			thresholds[strings.ToLower(string(c))] = v
		}
	}

	var blocked []types.BlockedItem
	for _, s := range scores {
		key := strings.ToLower(s.Category)
		if !blockAll && !blockedSet[key] {
			continue
		}
		threshold := DefaultThreshold
		if v, ok := thresholds[key]; ok {
			threshold = v
		}
		if s.Confidence < threshold {
			continue
		}
		blocked = append(blocked, types.BlockedItem{
			Category:   s.Category,
			Confidence: s.Confidence,
			Threshold:  threshold,
			Severity:   s.Severity,
		})
	}
	return blocked
}
