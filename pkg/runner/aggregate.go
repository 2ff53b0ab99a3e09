package runner

import (
	"github.com/polyguard-ai/polyguard/pkg/types"
)

// Aggregate reduces phase results into the overall verdict summary. A
// phase fails when any of its detectors produced a blocked item or an
// error; skipped phases contribute nothing. Failure order follows the
// phase's configured detector order, so repeated aggregation of the same
// results is identical.
func Aggregate(results map[types.Phase]*types.PhaseResult) types.Summary {
	summary := types.Summary{Passed: true}

	for _, phase := range []types.Phase{types.PhaseInput, types.PhaseOutput} {
		result, ok := results[phase]
		if !ok || result == nil || result.Skipped {
			continue
		}

		var failures []types.Failure
		for _, name := range result.Order {
			dr, ok := result.Detectors[name]
			if !ok {
				continue
			}
			failures = append(failures, detectorFailures(name, dr)...)
		}

		if summary.Phases == nil {
			summary.Phases = make(map[types.Phase]types.PhaseSummary)
		}
		passed := len(failures) == 0
		summary.Phases[phase] = types.PhaseSummary{Passed: passed, Failures: failures}
		if !passed {
			summary.Passed = false
		}
	}

	return summary
}

func detectorFailures(name string, dr types.DetectorResult) []types.Failure {
	var failures []types.Failure
	for _, item := range dr.BlockedItems {
		failures = append(failures, types.Failure{
			Detector:   name,
			Category:   failureCategory(item),
			Confidence: failureConfidence(item),
			Severity:   item.Severity,
			Reason:     item.Reason,
		})
	}
	if dr.Error != "" {
		failures = append(failures, types.Failure{Detector: name, Error: dr.Error})
	}
	return failures
}

// failureCategory falls back to the filter name and then the entity type
// when a blocked item carries no category of its own.
func failureCategory(item types.BlockedItem) string {
	if item.Category != "" {
		return item.Category
	}
	if item.Filter != "" {
		return item.Filter
	}
	return item.EntityType
}

// failureConfidence prefers the confidence/salience number; sentiment
// items carry only a score.
func failureConfidence(item types.BlockedItem) float64 {
	if item.Confidence != 0 {
		return item.Confidence
	}
	return item.Score
}
