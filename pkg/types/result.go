package types

// Finding is one detector's raw observation about the text. Findings are
// immutable once created; policy evaluation reads them and discards them
// after the verdict is built.
type Finding struct {
	Category   string          `json:"category"`
	Value      string          `json:"value,omitempty"`
	Confidence float64         `json:"confidence"`
	Method     DetectionMethod `json:"method"`
	Severity   Severity        `json:"severity,omitempty"`
}

// BlockedItem is a finding that crossed its configured threshold. The set of
// populated fields depends on the detector family that produced it.
type BlockedItem struct {
	Category          string            `json:"category"`
	EntityName        string            `json:"entity_name,omitempty"`
	EntityType        string            `json:"entity_type,omitempty"`
	Confidence        float64           `json:"confidence,omitempty"`
	Score             float64           `json:"score,omitempty"`
	Magnitude         float64           `json:"magnitude,omitempty"`
	Threshold         float64           `json:"threshold"`
	Severity          Severity          `json:"severity,omitempty"`
	Method            DetectionMethod   `json:"detection_method,omitempty"`
	MatchedPattern    string            `json:"matched_pattern,omitempty"`
	Filter            string            `json:"filter,omitempty"`
	MatchedCategories []MatchedCategory `json:"matched_categories,omitempty"`
	Reason            string            `json:"reason,omitempty"`
}

// MatchedCategory is a sub-category reported by the composite filter backend.
type MatchedCategory struct {
	Category        string `json:"category"`
	ConfidenceLevel string `json:"confidence_level,omitempty"`
}

// DetectorResult holds one detector's outcome for one phase.
type DetectorResult struct {
	Detector     string        `json:"-"`
	Results      any           `json:"results,omitempty"`
	BlockedItems []BlockedItem `json:"blocked_items,omitempty"`
	Error        string        `json:"error,omitempty"`
	Elapsed      float64       `json:"time_taken_seconds"`
}

// PhaseResult is the immutable outcome of one phase, assembled once every
// detector task has returned.
type PhaseResult struct {
	Phase     Phase                     `json:"-"`
	Mode      ExecutionMode             `json:"execution_type,omitempty"`
	Skipped   bool                      `json:"skipped,omitempty"`
	Message   string                    `json:"message,omitempty"`
	Order     []string                  `json:"-"`
	Detectors map[string]DetectorResult `json:"detectors,omitempty"`
	Elapsed   float64                   `json:"time_taken_seconds"`
}

// Failure is one structured entry in a failing phase's summary.
type Failure struct {
	Detector   string   `json:"detector"`
	Category   string   `json:"category,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Severity   Severity `json:"severity,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// PhaseSummary is the pass/fail reduction of one phase.
type PhaseSummary struct {
	Passed   bool      `json:"passed"`
	Failures []Failure `json:"failures,omitempty"`
}

// Summary folds all evaluated phases into the overall pass/fail.
type Summary struct {
	Passed bool                   `json:"passed"`
	Phases map[Phase]PhaseSummary `json:"phases,omitempty"`
}

// TextRecord echoes the content a verdict was produced for.
type TextRecord struct {
	InputText     string `json:"input_text"`
	GeneratedText string `json:"generated_text,omitempty"`
}

// Verdict is the terminal artifact of a run.
type Verdict struct {
	RunID   string                 `json:"run_id"`
	Phases  map[Phase]*PhaseResult `json:"phases,omitempty"`
	Summary Summary                `json:"summary"`
	Text    TextRecord             `json:"text"`
	Elapsed float64                `json:"total_time_seconds"`
}
