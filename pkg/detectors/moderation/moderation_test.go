package moderation_test

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyguard-ai/polyguard/pkg/detectors/moderation"
	"github.com/polyguard-ai/polyguard/pkg/infra/language"
	"github.com/polyguard-ai/polyguard/pkg/types"
)

type fakeLanguage struct {
	categories []language.Category
	err        error
}

func (f *fakeLanguage) AnalyzeSentiment(ctx context.Context, text string) (*language.Sentiment, error) {
	return nil, nil
}

func (f *fakeLanguage) AnalyzeEntities(ctx context.Context, text string) ([]language.Entity, error) {
	return nil, nil
}

func (f *fakeLanguage) ClassifyText(ctx context.Context, text string) ([]language.Category, error) {
	return nil, nil
}

func (f *fakeLanguage) ModerateText(ctx context.Context, text string) ([]language.Category, error) {
	return f.categories, f.err
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestEvaluate_DefaultDenyBlocksAnyCategory(t *testing.T) {
	client := &fakeLanguage{categories: []language.Category{
		{Name: "Violent", Confidence: 0.7},
		{Name: "Health", Confidence: 0.1},
	}}
	d := moderation.NewDetector(newTestLogger(), client)

	result, err := d.Evaluate(context.Background(), "some violent text", types.CheckUserPrompt, nil)
	require.NoError(t, err)
	require.Len(t, result.BlockedItems, 1)

	item := result.BlockedItems[0]
	assert.Equal(t, "Violent", item.Category)
	assert.Equal(t, 0.7, item.Confidence)
	assert.Equal(t, moderation.DefaultThreshold, item.Threshold)
	assert.Equal(t, types.SeverityMedium, item.Severity)
}

func TestEvaluate_ExplicitEmptyListBlocksNothing(t *testing.T) {
	client := &fakeLanguage{categories: []language.Category{
		{Name: "Violent", Confidence: 0.95},
	}}
	d := moderation.NewDetector(newTestLogger(), client)

	settings := map[string]any{"moderate_text_blocked_categories": []string{}}
	result, err := d.Evaluate(context.Background(), "text", types.CheckUserPrompt, settings)
	require.NoError(t, err)
	assert.Empty(t, result.BlockedItems)
}

func TestEvaluate_ConfiguredListScopesBlocking(t *testing.T) {
	client := &fakeLanguage{categories: []language.Category{
		{Name: "Violent", Confidence: 0.9},
		{Name: "Toxic", Confidence: 0.9},
	}}
	d := moderation.NewDetector(newTestLogger(), client)

	settings := map[string]any{"moderate_text_blocked_categories": []string{"toxic"}}
	result, err := d.Evaluate(context.Background(), "text", types.CheckUserPrompt, settings)
	require.NoError(t, err)
	require.Len(t, result.BlockedItems, 1)
	assert.Equal(t, "Toxic", result.BlockedItems[0].Category)
}

func TestEvaluate_AliasCategoryNamesResolve(t *testing.T) {
	client := &fakeLanguage{categories: []language.Category{
		{Name: "Death, Harm & Tragedy", Confidence: 0.8},
	}}
	d := moderation.NewDetector(newTestLogger(), client)

	settings := map[string]any{
		"moderate_text_blocked_categories": []string{"death_harm_tragedy"},
	}
	result, err := d.Evaluate(context.Background(), "text", types.CheckUserPrompt, settings)
	require.NoError(t, err)
	require.Len(t, result.BlockedItems, 1)
	assert.Equal(t, "Death, Harm & Tragedy", result.BlockedItems[0].Category)
}

func TestEvaluate_PerCategoryThreshold(t *testing.T) {
	client := &fakeLanguage{categories: []language.Category{
		{Name: "Politics", Confidence: 0.35},
	}}
	d := moderation.NewDetector(newTestLogger(), client)

	settings := map[string]any{
		"moderate_text_blocked_categories": []string{"politics"},
		"moderate_text_thresholds":         map[string]any{"politics": 0.3},
	}
	result, err := d.Evaluate(context.Background(), "text", types.CheckUserPrompt, settings)
	require.NoError(t, err)
	require.Len(t, result.BlockedItems, 1)
	assert.Equal(t, 0.3, result.BlockedItems[0].Threshold)
}

func TestEvaluate_SeverityBandsOnScores(t *testing.T) {
	client := &fakeLanguage{categories: []language.Category{
		{Name: "Toxic", Confidence: 0.85},
		{Name: "Insult", Confidence: 0.6},
		{Name: "Profanity", Confidence: 0.35},
		{Name: "Health", Confidence: 0.1},
	}}
	d := moderation.NewDetector(newTestLogger(), client)

	settings := map[string]any{"moderate_text_blocked_categories": []string{}}
	result, err := d.Evaluate(context.Background(), "text", types.CheckUserPrompt, settings)
	require.NoError(t, err)

	raw, ok := result.Results.(moderation.Results)
	require.True(t, ok)
	require.Len(t, raw.Moderation, 4)
	assert.Equal(t, types.SeverityHigh, raw.Moderation[0].Severity)
	assert.Equal(t, types.SeverityMedium, raw.Moderation[1].Severity)
	assert.Equal(t, types.SeverityLow, raw.Moderation[2].Severity)
	assert.Equal(t, types.SeverityNegligible, raw.Moderation[3].Severity)
}

func TestValidateSettings_UnknownCategoryFails(t *testing.T) {
	d := moderation.NewDetector(newTestLogger(), &fakeLanguage{})

	err := d.ValidateSettings(map[string]any{
		"moderate_text_blocked_categories": []string{"nonsense_category"},
	})
	require.Error(t, err)
}
