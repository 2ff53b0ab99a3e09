package taxonomy_test

import (
	"testing"

	"github.com/polyguard-ai/polyguard/pkg/taxonomy"
	"github.com/polyguard-ai/polyguard/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntityType_CanonicalIsIdempotent(t *testing.T) {
	for _, et := range taxonomy.EntityTypes {
		got, err := taxonomy.ParseEntityType(string(et))
		require.NoError(t, err, "entity type %s", et)
		assert.Equal(t, et, got)
	}
}

func TestParseEntityType_CaseAndSeparatorInsensitive(t *testing.T) {
	cases := map[string]taxonomy.EntityType{
		"person":        taxonomy.EntityPerson,
		"Phone Number":  taxonomy.EntityPhoneNumber,
		"phone-number":  taxonomy.EntityPhoneNumber,
		" credit_card ": taxonomy.EntityCreditCard,
		"ssn":           taxonomy.EntitySSN,
		"work of art":   taxonomy.EntityWorkOfArt,
	}
	for raw, want := range cases {
		got, err := taxonomy.ParseEntityType(raw)
		require.NoError(t, err, "input %q", raw)
		assert.Equal(t, want, got)
	}
}

func TestParseEntityType_Unknown(t *testing.T) {
	for _, raw := range []string{"", "   ", "telephone", "credit"} {
		_, err := taxonomy.ParseEntityType(raw)
		require.Error(t, err, "input %q", raw)
		var unknown *taxonomy.UnknownCategoryError
		assert.ErrorAs(t, err, &unknown)
	}
}

func TestStructuredBacked(t *testing.T) {
	assert.True(t, taxonomy.EntityPhoneNumber.StructuredBacked())
	assert.False(t, taxonomy.EntitySSN.StructuredBacked())
	assert.False(t, taxonomy.EntityCreditCard.StructuredBacked())
}

func TestParseModerationCategory_CanonicalIsIdempotent(t *testing.T) {
	for _, c := range taxonomy.ModerationCategories {
		got, err := taxonomy.ParseModerationCategory(string(c))
		require.NoError(t, err, "category %s", c)
		assert.Equal(t, c, got)
	}
}

func TestParseModerationCategory_Aliases(t *testing.T) {
	cases := map[string]taxonomy.ModerationCategory{
		"toxic":                 taxonomy.ModerationToxic,
		"VIOLENT":               taxonomy.ModerationViolent,
		"death":                 taxonomy.ModerationDeathHarmTragedy,
		"harm":                  taxonomy.ModerationDeathHarmTragedy,
		"tragedy":               taxonomy.ModerationDeathHarmTragedy,
		"death_harm_tragedy":    taxonomy.ModerationDeathHarmTragedy,
		"Death, Harm & Tragedy": taxonomy.ModerationDeathHarmTragedy,
		"firearms":              taxonomy.ModerationFirearmsWeapons,
		"weapons":               taxonomy.ModerationFirearmsWeapons,
		"public safety":         taxonomy.ModerationPublicSafety,
		"religion":              taxonomy.ModerationReligionBelief,
		"drugs":                 taxonomy.ModerationIllicitDrugs,
		"war-conflict":          taxonomy.ModerationWarConflict,
	}
	for raw, want := range cases {
		got, err := taxonomy.ParseModerationCategory(raw)
		require.NoError(t, err, "input %q", raw)
		assert.Equal(t, want, got)
	}
}

func TestParseModerationCategories_FailsFast(t *testing.T) {
	_, err := taxonomy.ParseModerationCategories([]string{"toxic", "bogus"})
	require.Error(t, err)
	var unknown *taxonomy.UnknownCategoryError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, taxonomy.KindModerationCategory, unknown.Kind)
	assert.Equal(t, "bogus", unknown.Raw)
}

func TestParseModerationCategories_NilStaysNil(t *testing.T) {
	got, err := taxonomy.ParseModerationCategories(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseModerationThresholds(t *testing.T) {
	got, err := taxonomy.ParseModerationThresholds(map[string]float64{
		"toxic": 0.3,
		"harm":  0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, map[taxonomy.ModerationCategory]float64{
		taxonomy.ModerationToxic:            0.3,
		taxonomy.ModerationDeathHarmTragedy: 0.7,
	}, got)
}

func TestParseCheckType(t *testing.T) {
	cases := map[string]types.CheckType{
		"user_prompt":    types.CheckUserPrompt,
		"User Prompt":    types.CheckUserPrompt,
		"input":          types.CheckUserPrompt,
		"prompt":         types.CheckUserPrompt,
		"model_response": types.CheckModelResponse,
		"output":         types.CheckModelResponse,
		"response":       types.CheckModelResponse,
	}
	for raw, want := range cases {
		got, err := taxonomy.ParseCheckType(raw)
		require.NoError(t, err, "input %q", raw)
		assert.Equal(t, want, got)
	}

	_, err := taxonomy.ParseCheckType("sideways")
	assert.Error(t, err)
}
