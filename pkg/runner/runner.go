package runner

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/polyguard-ai/polyguard/pkg/audit"
	"github.com/polyguard-ai/polyguard/pkg/config"
	"github.com/polyguard-ai/polyguard/pkg/detectors"
	"github.com/polyguard-ai/polyguard/pkg/infra/prometheus"
	"github.com/polyguard-ai/polyguard/pkg/types"
)

// Runner executes the configured detector chains and folds their results
// into a verdict. The policy snapshot is read-only for the Runner's
// lifetime.
type Runner struct {
	logger   *logrus.Logger
	policy   *config.Policy
	registry map[string]detectors.Detector
	store    audit.Store
	identity string
}

type Option func(*Runner)

// WithAuditStore appends every completed run for identity to the store.
func WithAuditStore(store audit.Store, identity string) Option {
	return func(r *Runner) {
		r.store = store
		r.identity = identity
	}
}

// New validates the policy against the registry and builds a Runner.
// Unknown categories or malformed knobs in the policy fail here, before
// any text is evaluated.
func New(
	logger *logrus.Logger,
	policy *config.Policy,
	registry map[string]detectors.Detector,
	opts ...Option,
) (*Runner, error) {
	if err := policy.Validate(registry); err != nil {
		return nil, err
	}
	r := &Runner{logger: logger, policy: policy, registry: registry}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run evaluates the input phase against inputText and, when configured,
// the output phase against generatedText. An empty generatedText skips
// the output phase; an empty inputText fails before any phase runs.
func (r *Runner) Run(ctx context.Context, inputText, generatedText string) (*types.Verdict, error) {
	return r.run(ctx, []types.Phase{types.PhaseInput, types.PhaseOutput}, inputText, generatedText)
}

// RunInput evaluates only the configured input phase.
func (r *Runner) RunInput(ctx context.Context, inputText string) (*types.Verdict, error) {
	return r.run(ctx, []types.Phase{types.PhaseInput}, inputText, "")
}

// RunOutput evaluates only the configured output phase against text.
func (r *Runner) RunOutput(ctx context.Context, text string) (*types.Verdict, error) {
	return r.run(ctx, []types.Phase{types.PhaseOutput}, text, text)
}

func (r *Runner) run(ctx context.Context, phases []types.Phase, inputText, generatedText string) (*types.Verdict, error) {
	if strings.TrimSpace(inputText) == "" {
		return nil, detectors.ErrEmptyInput
	}

	runID := uuid.NewString()
	log := r.logger.WithField("run_id", runID)
	start := time.Now()

	results := make(map[types.Phase]*types.PhaseResult)
	for _, phase := range phases {
		pp := r.policy.Phase(phase)
		if pp == nil {
			continue
		}

		if phase == types.PhaseOutput && strings.TrimSpace(generatedText) == "" {
			results[phase] = &types.PhaseResult{
				Phase:   phase,
				Skipped: true,
				Message: "no generated text supplied",
			}
			log.Debug("output phase skipped, no generated text")
			continue
		}

		text, check := inputText, types.CheckUserPrompt
		if phase == types.PhaseOutput {
			text, check = generatedText, types.CheckModelResponse
		}
		results[phase] = r.runPhase(ctx, log, phase, pp, text, check)
	}

	summary := Aggregate(results)

	verdict := &types.Verdict{
		RunID:   runID,
		Phases:  results,
		Summary: summary,
		Text: types.TextRecord{
			InputText:     inputText,
			GeneratedText: generatedText,
		},
		Elapsed: time.Since(start).Seconds(),
	}

	outcome := "passed"
	if !summary.Passed {
		outcome = "failed"
	}
	prometheus.RunTotal.WithLabelValues(outcome).Inc()
	log.WithFields(logrus.Fields{
		"passed":  summary.Passed,
		"elapsed": verdict.Elapsed,
	}).Info("run completed")

	if r.store != nil {
		entry := audit.Entry{
			Timestamp: time.Now().UTC(),
			InputText: inputText,
			Verdict:   *verdict,
		}
		if err := r.store.Append(r.identity, entry); err != nil {
			log.WithError(err).Warn("failed to append audit entry")
		}
	}

	return verdict, nil
}

// runPhase dispatches the phase's detector chain in its configured mode.
// The PhaseResult is assembled once, after every detector has returned.
func (r *Runner) runPhase(
	ctx context.Context,
	log *logrus.Entry,
	phase types.Phase,
	pp *config.PhasePolicy,
	text string,
	check types.CheckType,
) *types.PhaseResult {
	start := time.Now()
	result := &types.PhaseResult{
		Phase:     phase,
		Mode:      pp.Mode,
		Order:     pp.Functions,
		Detectors: make(map[string]types.DetectorResult, len(pp.Functions)),
	}

	if pp.Mode == types.ExecutionParallel {
		resultChan := make(chan types.DetectorResult, len(pp.Functions))

		var wg sync.WaitGroup
		for _, name := range pp.Functions {
			d, ok := r.registry[name]
			if !ok {
				continue
			}
			wg.Add(1)
			go func(name string, d detectors.Detector) {
				defer wg.Done()
				resultChan <- r.evaluateOne(ctx, log, phase, name, d, text, check, pp.Settings)
			}(name, d)
		}

		go func() {
			wg.Wait()
			close(resultChan)
		}()

		for dr := range resultChan {
			result.Detectors[dr.Detector] = dr
		}
	} else {
		for _, name := range pp.Functions {
			d, ok := r.registry[name]
			if !ok {
				continue
			}
			dr := r.evaluateOne(ctx, log, phase, name, d, text, check, pp.Settings)
			result.Detectors[dr.Detector] = dr
		}
	}

	result.Elapsed = time.Since(start).Seconds()
	return result
}

// evaluateOne times one detector, remote call inclusive. A detector whose
// invocation returns a Go error becomes an error-only record with zero
// elapsed time; in-band detector errors keep their timing.
func (r *Runner) evaluateOne(
	ctx context.Context,
	log *logrus.Entry,
	phase types.Phase,
	name string,
	d detectors.Detector,
	text string,
	check types.CheckType,
	settings map[string]any,
) types.DetectorResult {
	start := time.Now()
	res, err := d.Evaluate(ctx, text, check, settings)
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"phase":    phase,
			"detector": name,
		}).Error("detector invocation failed")
		prometheus.DetectorErrors.WithLabelValues(string(phase), name).Inc()
		return types.DetectorResult{Detector: name, Error: err.Error()}
	}

	elapsed := time.Since(start).Seconds()
	res.Detector = name
	res.Elapsed = elapsed

	prometheus.DetectorLatency.WithLabelValues(string(phase), name).Observe(elapsed)
	if res.Error != "" {
		prometheus.DetectorErrors.WithLabelValues(string(phase), name).Inc()
	}
	if n := len(res.BlockedItems); n > 0 {
		prometheus.BlockedItems.WithLabelValues(string(phase), name).Add(float64(n))
		log.WithFields(logrus.Fields{
			"phase":    phase,
			"detector": name,
			"blocked":  n,
		}).Info("detector blocked content")
	}

	return *res
}
