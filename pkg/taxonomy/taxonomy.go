// Package taxonomy holds the canonical category enumerations used across the
// detector families, plus the case and separator insensitive parsing that
// turns configuration strings into canonical categories.
package taxonomy

import (
	"fmt"
	"strings"

	"github.com/polyguard-ai/polyguard/pkg/types"
)

// Kind names the taxonomy a raw string is being resolved against.
type Kind string

const (
	KindEntityType         Kind = "entity_type"
	KindModerationCategory Kind = "moderation_category"
	KindCheckType          Kind = "check_type"
)

// UnknownCategoryError reports a string that resolved to no canonical entry
// or alias. Configuration loading propagates it to the caller.
type UnknownCategoryError struct {
	Kind Kind
	Raw  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s: %q", e.Kind, e.Raw)
}

// EntityType is a structured entity detector category. SSN and CreditCard
// are pattern-only: the structured backend does not model them and they are
// routed exclusively to the pattern matcher.
type EntityType string

const (
	EntityUnknown      EntityType = "UNKNOWN"
	EntityPerson       EntityType = "PERSON"
	EntityLocation     EntityType = "LOCATION"
	EntityOrganization EntityType = "ORGANIZATION"
	EntityEvent        EntityType = "EVENT"
	EntityWorkOfArt    EntityType = "WORK_OF_ART"
	EntityConsumerGood EntityType = "CONSUMER_GOOD"
	EntityOther        EntityType = "OTHER"
	EntityPhoneNumber  EntityType = "PHONE_NUMBER"
	EntityAddress      EntityType = "ADDRESS"
	EntityEmail        EntityType = "EMAIL"
	EntityURL          EntityType = "URL"
	EntityDate         EntityType = "DATE"
	EntityNumber       EntityType = "NUMBER"
	EntityPrice        EntityType = "PRICE"
	EntityIBAN         EntityType = "IBAN"
	EntityFlightNumber EntityType = "FLIGHT_NUMBER"
	EntityIDNumber     EntityType = "ID_NUMBER"
	EntitySSN          EntityType = "SSN"
	EntityCreditCard   EntityType = "CREDIT_CARD"
)

// EntityTypes lists every canonical entity type.
var EntityTypes = []EntityType{
	EntityUnknown, EntityPerson, EntityLocation, EntityOrganization,
	EntityEvent, EntityWorkOfArt, EntityConsumerGood, EntityOther,
	EntityPhoneNumber, EntityAddress, EntityEmail, EntityURL,
	EntityDate, EntityNumber, EntityPrice, EntityIBAN,
	EntityFlightNumber, EntityIDNumber, EntitySSN, EntityCreditCard,
}

// patternOnlyEntityTypes have no structured backend coverage.
var patternOnlyEntityTypes = map[EntityType]bool{
	EntitySSN:        true,
	EntityCreditCard: true,
}

// StructuredBacked reports whether the structured entity backend models t.
func (t EntityType) StructuredBacked() bool {
	return !patternOnlyEntityTypes[t]
}

// ModerationCategory is a harmful-content moderation label. The string value
// is the display form the moderation backend reports.
type ModerationCategory string

const (
	ModerationToxic            ModerationCategory = "Toxic"
	ModerationInsult           ModerationCategory = "Insult"
	ModerationProfanity        ModerationCategory = "Profanity"
	ModerationDerogatory       ModerationCategory = "Derogatory"
	ModerationSexual           ModerationCategory = "Sexual"
	ModerationDeathHarmTragedy ModerationCategory = "Death, Harm & Tragedy"
	ModerationViolent          ModerationCategory = "Violent"
	ModerationFirearmsWeapons  ModerationCategory = "Firearms & Weapons"
	ModerationPublicSafety     ModerationCategory = "Public Safety"
	ModerationHealth           ModerationCategory = "Health"
	ModerationReligionBelief   ModerationCategory = "Religion & Belief"
	ModerationIllicitDrugs     ModerationCategory = "Illicit Drugs"
	ModerationWarConflict      ModerationCategory = "War & Conflict"
	ModerationPolitics         ModerationCategory = "Politics"
	ModerationFinance          ModerationCategory = "Finance"
	ModerationLegal            ModerationCategory = "Legal"
)

// ModerationCategories lists every canonical moderation category.
var ModerationCategories = []ModerationCategory{
	ModerationToxic, ModerationInsult, ModerationProfanity,
	ModerationDerogatory, ModerationSexual, ModerationDeathHarmTragedy,
	ModerationViolent, ModerationFirearmsWeapons, ModerationPublicSafety,
	ModerationHealth, ModerationReligionBelief, ModerationIllicitDrugs,
	ModerationWarConflict, ModerationPolitics, ModerationFinance,
	ModerationLegal,
}

// moderationAliases maps curated shorthand for the multi-word categories.
var moderationAliases = map[string]ModerationCategory{
	"death":              ModerationDeathHarmTragedy,
	"harm":               ModerationDeathHarmTragedy,
	"tragedy":            ModerationDeathHarmTragedy,
	"death_harm_tragedy": ModerationDeathHarmTragedy,
	"firearms":           ModerationFirearmsWeapons,
	"weapons":            ModerationFirearmsWeapons,
	"firearms_weapons":   ModerationFirearmsWeapons,
	"public":             ModerationPublicSafety,
	"safety":             ModerationPublicSafety,
	"public_safety":      ModerationPublicSafety,
	"religion":           ModerationReligionBelief,
	"belief":             ModerationReligionBelief,
	"religion_belief":    ModerationReligionBelief,
	"drugs":              ModerationIllicitDrugs,
	"illicit":            ModerationIllicitDrugs,
	"illicit_drugs":      ModerationIllicitDrugs,
	"war":                ModerationWarConflict,
	"conflict":           ModerationWarConflict,
	"war_conflict":       ModerationWarConflict,
}

// checkTypeAliases covers the common phase shorthand.
var checkTypeAliases = map[string]types.CheckType{
	"user":     types.CheckUserPrompt,
	"prompt":   types.CheckUserPrompt,
	"input":    types.CheckUserPrompt,
	"model":    types.CheckModelResponse,
	"response": types.CheckModelResponse,
	"output":   types.CheckModelResponse,
}

// normalizeKey trims, lowercases and collapses space and dash separators to
// a single underscore. The result is the lookup key for every table.
func normalizeKey(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

// enumName converts a display value like "Death, Harm & Tragedy" into its
// underscore name form for matching.
func enumName(value string) string {
	s := strings.ToLower(value)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "&", "")
	return normalizeKey(s)
}

// ParseEntityType resolves raw into a canonical EntityType. Matching is
// case and separator insensitive; an already-canonical name resolves to
// itself.
func ParseEntityType(raw string) (EntityType, error) {
	key := normalizeKey(raw)
	if key == "" {
		return "", &UnknownCategoryError{Kind: KindEntityType, Raw: raw}
	}
	for _, t := range EntityTypes {
		if normalizeKey(string(t)) == key {
			return t, nil
		}
	}
	return "", &UnknownCategoryError{Kind: KindEntityType, Raw: raw}
}

// ParseEntityTypes resolves a list, failing on the first unknown entry.
func ParseEntityTypes(raw []string) ([]EntityType, error) {
	if raw == nil {
		return nil, nil
	}
	out := make([]EntityType, 0, len(raw))
	for _, r := range raw {
		t, err := ParseEntityType(r)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ParseModerationCategory resolves raw into a canonical ModerationCategory,
// matching the name form, the display value, or a curated alias.
func ParseModerationCategory(raw string) (ModerationCategory, error) {
	key := normalizeKey(raw)
	if key == "" {
		return "", &UnknownCategoryError{Kind: KindModerationCategory, Raw: raw}
	}
	for _, c := range ModerationCategories {
		if enumName(string(c)) == key || normalizeKey(string(c)) == key {
			return c, nil
		}
	}
	if c, ok := moderationAliases[key]; ok {
		return c, nil
	}
	return "", &UnknownCategoryError{Kind: KindModerationCategory, Raw: raw}
}

// ParseModerationCategories resolves a list, failing on the first unknown
// entry. A nil input stays nil so callers can tell "unset" from "empty".
func ParseModerationCategories(raw []string) ([]ModerationCategory, error) {
	if raw == nil {
		return nil, nil
	}
	out := make([]ModerationCategory, 0, len(raw))
	for _, r := range raw {
		c, err := ParseModerationCategory(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ParseModerationThresholds resolves the keys of a per-category threshold
// map to canonical categories.
func ParseModerationThresholds(raw map[string]float64) (map[ModerationCategory]float64, error) {
	if raw == nil {
		return nil, nil
	}
	out := make(map[ModerationCategory]float64, len(raw))
	for k, v := range raw {
		c, err := ParseModerationCategory(k)
		if err != nil {
			return nil, err
		}
		out[c] = v
	}
	return out, nil
}

// ParseCheckType resolves raw into a CheckType, accepting the canonical
// values and the common phase shorthand.
func ParseCheckType(raw string) (types.CheckType, error) {
	key := normalizeKey(raw)
	switch key {
	case "":
		return "", &UnknownCategoryError{Kind: KindCheckType, Raw: raw}
	case string(types.CheckUserPrompt):
		return types.CheckUserPrompt, nil
	case string(types.CheckModelResponse):
		return types.CheckModelResponse, nil
	}
	if ct, ok := checkTypeAliases[key]; ok {
		return ct, nil
	}
	return "", &UnknownCategoryError{Kind: KindCheckType, Raw: raw}
}
