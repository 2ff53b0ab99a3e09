package config_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyguard-ai/polyguard/pkg/config"
	"github.com/polyguard-ai/polyguard/pkg/detectors"
	"github.com/polyguard-ai/polyguard/pkg/detectors/moderation"
	"github.com/polyguard-ai/polyguard/pkg/types"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ParsesPhasesAndSettings(t *testing.T) {
	path := writePolicy(t, `{
		"input": {
			"functions": ["analyze_sentiment", "moderate_text"],
			"execution_type": "parallel",
			"analyze_sentiment_score_threshold": -0.3
		},
		"output": {
			"functions": ["moderate_text"]
		}
	}`)

	policy, err := config.Load(path, newTestLogger())
	require.NoError(t, err)

	input := policy.Phase(types.PhaseInput)
	require.NotNil(t, input)
	assert.Equal(t, []string{detectors.NameSentiment, detectors.NameModeration}, input.Functions)
	assert.Equal(t, types.ExecutionParallel, input.Mode)
	assert.Equal(t, -0.3, input.Settings["analyze_sentiment_score_threshold"])

	output := policy.Phase(types.PhaseOutput)
	require.NotNil(t, output)
	assert.Equal(t, types.ExecutionSequential, output.Mode)
}

func TestLoad_UnknownFunctionDropped(t *testing.T) {
	path := writePolicy(t, `{
		"input": {
			"functions": ["analyze_sentiment", "summon_dragons", "moderate_text"]
		}
	}`)

	policy, err := config.Load(path, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t,
		[]string{detectors.NameSentiment, detectors.NameModeration},
		policy.Phase(types.PhaseInput).Functions)
}

func TestLoad_DuplicateIdentifiersCollapse(t *testing.T) {
	path := writePolicy(t, `{
		"input": {
			"functions": ["sentiment", "analyze_sentiment", "moderate_text", "moderate"]
		}
	}`)

	policy, err := config.Load(path, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t,
		[]string{detectors.NameSentiment, detectors.NameModeration},
		policy.Phase(types.PhaseInput).Functions)
}

func TestLoad_AliasIdentifiersResolve(t *testing.T) {
	path := writePolicy(t, `{
		"input": {"functions": ["sentiment", "entities", "armor"]}
	}`)

	policy, err := config.Load(path, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t,
		[]string{detectors.NameSentiment, detectors.NameEntities, detectors.NameArmor},
		policy.Phase(types.PhaseInput).Functions)
}

func TestLoad_UnknownModeCoercesToSequential(t *testing.T) {
	path := writePolicy(t, `{
		"input": {"functions": ["moderate_text"], "execution_type": "turbo"}
	}`)

	policy, err := config.Load(path, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, types.ExecutionSequential, policy.Phase(types.PhaseInput).Mode)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.json"), newTestLogger())
	require.Error(t, err)
}

func TestLoad_NoPhasesFails(t *testing.T) {
	path := writePolicy(t, `{}`)
	_, err := config.Load(path, newTestLogger())
	require.Error(t, err)
}

func TestValidate_UnknownCategoryFailsFast(t *testing.T) {
	path := writePolicy(t, `{
		"input": {
			"functions": ["moderate_text"],
			"moderate_text_blocked_categories": ["not_a_real_category"]
		}
	}`)

	policy, err := config.Load(path, newTestLogger())
	require.NoError(t, err)

	registry := map[string]detectors.Detector{
		detectors.NameModeration: moderation.NewDetector(newTestLogger(), nil),
	}
	require.Error(t, policy.Validate(registry))
}

func TestValidate_HealthySettingsPass(t *testing.T) {
	path := writePolicy(t, `{
		"input": {
			"functions": ["moderate_text"],
			"moderate_text_blocked_categories": ["toxic", "violent"]
		}
	}`)

	policy, err := config.Load(path, newTestLogger())
	require.NoError(t, err)

	registry := map[string]detectors.Detector{
		detectors.NameModeration: moderation.NewDetector(newTestLogger(), nil),
	}
	require.NoError(t, policy.Validate(registry))
}
