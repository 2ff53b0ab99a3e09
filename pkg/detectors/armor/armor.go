package armor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/polyguard-ai/polyguard/pkg/detectors"
	"github.com/polyguard-ai/polyguard/pkg/infra/armorclient"
	"github.com/polyguard-ai/polyguard/pkg/taxonomy"
	"github.com/polyguard-ai/polyguard/pkg/types"
)

// Config carries the armor knobs of a phase's settings. CheckType forces a
// sanitize endpoint regardless of the phase; empty leaves the phase's
// default in place.
type Config struct {
	CheckType string `mapstructure:"model_armor_check_type"`
}

// Results is the raw payload published alongside the delegated decision.
type Results struct {
	FilterResults     map[string]armorclient.FilterResult `json:"filter_results"`
	OverallMatchState string                              `json:"overall_match_state"`
}

// Detector delegates blocking entirely to the composite filter backend's
// match-state signal; no local threshold logic applies.
type Detector struct {
	logger *logrus.Logger
	client armorclient.Client
}

func NewDetector(logger *logrus.Logger, client armorclient.Client) detectors.Detector {
	return &Detector{logger: logger, client: client}
}

func (d *Detector) Name() string {
	return detectors.NameArmor
}

func (d *Detector) AllowedPhases() []types.Phase {
	return []types.Phase{types.PhaseInput, types.PhaseOutput}
}

func (d *Detector) ValidateSettings(settings map[string]any) error {
	// The backend template encodes all armor policy; only the endpoint
	// override is checked here.
	var cfg Config
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return fmt.Errorf("failed to decode settings: %w", err)
	}
	if cfg.CheckType != "" {
		if _, err := taxonomy.ParseCheckType(cfg.CheckType); err != nil {
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
	if strings.TrimSpace(text) == "" {
		return &types.DetectorResult{Detector: d.Name(), Error: detectors.ErrEmptyInput.Error()}, nil
	}

	var cfg Config
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if cfg.CheckType != "" {
		ct, err := taxonomy.ParseCheckType(cfg.CheckType)
		if err != nil {
			return nil, err
		}
		check = ct
	}

	var result *armorclient.Result
	var err error
	if check == types.CheckModelResponse {
		result, err = d.client.SanitizeModelResponse(ctx, text)
	} else {
		result, err = d.client.SanitizeUserPrompt(ctx, text)
	}
	if err != nil {
		d.logger.WithError(err).Warn("armor backend call failed")
		return &types.DetectorResult{Detector: d.Name(), Error: err.Error()}, nil
	}

	out := &types.DetectorResult{
		Detector: d.Name(),
		Results: Results{
			FilterResults:     result.Filters,
			OverallMatchState: result.OverallMatchState,
		},
	}
	if blocked := BlockedFilters(result); len(blocked) > 0 {
		out.BlockedItems = blocked
	}
	return out, nil
}

// BlockedFilters republishes the backend's pre-computed block reasons, one
// item per matched filter, in filter-name order.
func BlockedFilters(result *armorclient.Result) []types.BlockedItem {
	names := make([]string, 0, len(result.Filters))
	for name := range result.Filters {
		names = append(names, name)
	}
	sort.Strings(names)

	var blocked []types.BlockedItem
	for _, name := range names {
		filter := result.Filters[name]
		if filter.MatchState != armorclient.MatchFound {
			continue
		}
		item := types.BlockedItem{
			Filter:   name,
			Severity: severityForLevel(filter.ConfidenceLevel),
			Reason:   "match_state=" + filter.MatchState,
		}
		if name == "rai" {
			catNames := make([]string, 0, len(filter.Categories))
			for cat := range filter.Categories {
				catNames = append(catNames, cat)
			}
			sort.Strings(catNames)
			for _, cat := range catNames {
				cr := filter.Categories[cat]
				if cr.MatchState != armorclient.MatchFound {
					continue
				}
				item.MatchedCategories = append(item.MatchedCategories, types.MatchedCategory{
					Category:        cat,
					ConfidenceLevel: cr.ConfidenceLevel,
				})
			}
		}
		blocked = append(blocked, item)
	}
	return blocked
}

func severityForLevel(level string) types.Severity {
	switch strings.ToUpper(level) {
	case "HIGH":
		return types.SeverityHigh
	case "MEDIUM":
		return types.SeverityMedium
	case "LOW":
		return types.SeverityLow
	case "":
		return ""
	default:
		return types.SeverityNegligible
	}
}
