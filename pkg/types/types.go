package types

import "strings"

// Phase represents when content is checked: before the model sees it or
// after the model produced it.
type Phase string

const (
	PhaseInput  Phase = "input"
	PhaseOutput Phase = "output"
)

// CheckType is the tag forwarded to the composite filter backend so it can
// apply the template side matching the evaluated content.
type CheckType string

const (
	CheckUserPrompt    CheckType = "user_prompt"
	CheckModelResponse CheckType = "model_response"
)

// ExecutionMode controls how the detectors of a phase are dispatched.
type ExecutionMode string

const (
	ExecutionSequential ExecutionMode = "sequential"
	ExecutionParallel   ExecutionMode = "parallel"
)

// ParseExecutionMode coerces any unrecognized value to sequential.
func ParseExecutionMode(raw string) ExecutionMode {
	if strings.EqualFold(strings.TrimSpace(raw), string(ExecutionParallel)) {
		return ExecutionParallel
	}
	return ExecutionSequential
}

// DetectionMethod records which source produced a finding.
type DetectionMethod string

const (
	MethodStructured DetectionMethod = "structured"
	MethodPattern    DetectionMethod = "pattern"
)

// Severity is the discretized confidence band reported alongside raw scores.
type Severity string

const (
	SeverityNegligible Severity = "negligible"
	SeverityLow        Severity = "low"
	SeverityMedium     Severity = "medium"
	SeverityHigh       Severity = "high"
)

// SeverityForConfidence maps a confidence in [0,1] to its band.
func SeverityForConfidence(confidence float64) Severity {
	switch {
	case confidence >= 0.8:
		return SeverityHigh
	case confidence >= 0.5:
		return SeverityMedium
	case confidence >= 0.3:
		return SeverityLow
	default:
		return SeverityNegligible
	}
}
