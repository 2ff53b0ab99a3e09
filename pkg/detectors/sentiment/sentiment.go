package sentiment

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
	// DefaultScoreThreshold blocks at or below this document score unless
	// overridden.
	DefaultScoreThreshold = -0.50

	blockedCategory = "negative_sentiment"
)

// Config carries the sentiment knobs of a phase's settings. Blocking is on
// by default; set analyze_sentiment_block_negative to false to disable it.
type Config struct {
	BlockNegative      *bool    `mapstructure:"analyze_sentiment_block_negative"`
	ScoreThreshold     *float64 `mapstructure:"analyze_sentiment_score_threshold"`
	MagnitudeThreshold *float64 `mapstructure:"analyze_sentiment_magnitude_threshold"`
}

type Detector struct {
	logger *logrus.Logger
	client language.Client
}

func NewDetector(logger *logrus.Logger, client language.Client) detectors.Detector {
	return &Detector{logger: logger, client: client}
}

func (d *Detector) Name() string {
	return detectors.NameSentiment
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

	result, err := d.client.AnalyzeSentiment(ctx, text)
	if err != nil {
		d.logger.WithError(err).Warn("sentiment backend call failed")
		return &types.DetectorResult{Detector: d.Name(), Error: err.Error()}, nil
	}

	out := &types.DetectorResult{Detector: d.Name(), Results: result}
	if item := Decide(result, cfg); item != nil {
		out.BlockedItems = []types.BlockedItem{*item}
	}
	return out, nil
}

// Decide applies the sentiment blocking policy. When both the score and the
// magnitude condition trigger, one BlockedItem reports them jointly.
func Decide(result *language.Sentiment, cfg Config) *types.BlockedItem {
	if cfg.BlockNegative != nil && !*cfg.BlockNegative {
		return nil
	}

	scoreThreshold := DefaultScoreThreshold
	if cfg.ScoreThreshold != nil {
		scoreThreshold = *cfg.ScoreThreshold
	}

	var reasons []string
	if result.Score <= scoreThreshold {
		reasons = append(reasons, fmt.Sprintf("score (%g) <= threshold (%g)", result.Score, scoreThreshold))
	}
	if cfg.MagnitudeThreshold != nil && result.Magnitude >= *cfg.MagnitudeThreshold {
		reasons = append(reasons, fmt.Sprintf("magnitude (%g) >= threshold (%g)", result.Magnitude, *cfg.MagnitudeThreshold))
	}
	if len(reasons) == 0 {
		return nil
	}

	return &types.BlockedItem{
		Category:  blockedCategory,
		Score:     result.Score,
		Magnitude: result.Magnitude,
		Threshold: scoreThreshold,
		Reason:    strings.Join(reasons, ", "),
	}
}
