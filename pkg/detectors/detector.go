// Package detectors defines the contract every detector family implements
// and the registry of known detector identifiers.
package detectors

import (
	"context"
	"errors"

	"github.com/polyguard-ai/polyguard/pkg/types"
)

var (
	// ErrEmptyInput rejects empty or whitespace-only text before any
	// remote call is made.
	ErrEmptyInput = errors.New("text cannot be empty")
	// ErrInputTooShort rejects text below the classification minimum of 20
	// whitespace-delimited tokens.
	ErrInputTooShort = errors.New("text too short for classification (min 20 words)")
)

// Detector evaluates text for one phase and applies its family's blocking
// policy. Implementations report raw findings and blocked items; they never
// abort sibling detectors.
type Detector interface {
	Name() string
	// AllowedPhases returns the phases the detector may be configured for.
	AllowedPhases() []types.Phase
	// ValidateSettings checks the phase settings relevant to this detector,
	// resolving category names fail-fast.
	ValidateSettings(settings map[string]any) error
	Evaluate(
		ctx context.Context,
		text string,
		check types.CheckType,
		settings map[string]any,
	) (*types.DetectorResult, error)
}
