package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/polyguard-ai/polyguard/pkg/detectors"
	"github.com/polyguard-ai/polyguard/pkg/infra/language"
	"github.com/polyguard-ai/polyguard/pkg/types"
)

const (
	// DefaultThreshold is the shared confidence threshold for every
	// configured category pattern.
	DefaultThreshold = 0.5

	// MinWords is the classification backend's minimum input length in
	// whitespace-delimited tokens.
	MinWords = 20
)

// Config carries the classification knobs of a phase's settings. Blocked
// categories are case-insensitive substring patterns over the returned
// labels.
type Config struct {
	BlockedCategories []string `mapstructure:"classify_text_blocked_categories"`
	Threshold         *float64 `mapstructure:"classify_text_threshold"`
}

// Results is the raw payload published alongside the blocking decision.
type Results struct {
	Categories []language.Category `json:"categories"`
}

type Detector struct {
	logger *logrus.Logger
	client language.Client
}

func NewDetector(logger *logrus.Logger, client language.Client) detectors.Detector {
	return &Detector{logger: logger, client: client}
}

func (d *Detector) Name() string {
	return detectors.NameClassify
}

func (d *Detector) AllowedPhases() []types.Phase {
	return []types.Phase{types.PhaseInput, types.PhaseOutput}
}

func (d *Detector) ValidateSettings(settings map[string]any) error {
	var cfg Config
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return fmt.Errorf("failed to decode settings: %w", err)
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
	if len(strings.Fields(text)) < MinWords {
		return &types.DetectorResult{Detector: d.Name(), Error: detectors.ErrInputTooShort.Error()}, nil
	}

	categories, err := d.client.ClassifyText(ctx, text)
	if err != nil {
		d.logger.WithError(err).Warn("classification backend call failed")
		return &types.DetectorResult{Detector: d.Name(), Error: err.Error()}, nil
	}

	out := &types.DetectorResult{Detector: d.Name(), Results: Results{Categories: categories}}
	if blocked := Decide(categories, cfg); len(blocked) > 0 {
		out.BlockedItems = blocked
	}
	return out, nil
}

// Decide blocks a label when any configured pattern is a substring of it
// and its confidence meets the shared threshold. The first matching pattern
// wins and is recorded.
func Decide(categories []language.Category, cfg Config) []types.BlockedItem {
	if len(cfg.BlockedCategories) == 0 {
		return nil
	}

	threshold := DefaultThreshold
	if cfg.Threshold != nil {
		threshold = *cfg.Threshold
	}

	var blocked []types.BlockedItem
	for _, cat := range categories {
		if cat.Confidence < threshold {
			continue
		}
		label := strings.ToLower(cat.Name)
		for _, pattern := range cfg.BlockedCategories {
			if !strings.Contains(label, strings.ToLower(pattern)) {
				continue
			}
			blocked = append(blocked, types.BlockedItem{
				Category:       cat.Name,
				MatchedPattern: pattern,
				Confidence:     cat.Confidence,
				Threshold:      threshold,
				Severity:       types.SeverityForConfidence(cat.Confidence),
			})
			break
		}
	}
	return blocked
}
