package detectors

import (
	"strings"

	"github.com/google/uuid"

	"github.com/polyguard-ai/polyguard/pkg/types"
)

// Canonical detector identifiers.
const (
	NameSentiment  = "analyze_sentiment"
	NameEntities   = "analyze_entities"
	NameClassify   = "classify_text"
	NameModeration = "moderate_text"
	NameArmor      = "model_armor"
)

// DetectorDefinition describes one registered detector for discovery
// surfaces and configuration validation.
type DetectorDefinition struct {
	UUID          string        `json:"id"`
	Name          string        `json:"name"`
	Label         string        `json:"label"`
	Description   string        `json:"description"`
	AllowedPhases []types.Phase `json:"allowed_phases"`
	Category      string        `json:"category"`
}

var DetectorList = []DetectorDefinition{
	{
		UUID:          GenerateDetectorUUID(NameSentiment),
		Name:          NameSentiment,
		Description:   "Scores document sentiment and blocks strongly negative content",
		AllowedPhases: []types.Phase{types.PhaseInput, types.PhaseOutput},
		Category:      "content_security",
		Label:         "Sentiment Guard",
	},
	{
		UUID:          GenerateDetectorUUID(NameEntities),
		Name:          NameEntities,
		Description:   "Detects named entities and PII, merging structured and pattern findings",
		AllowedPhases: []types.Phase{types.PhaseInput, types.PhaseOutput},
		Category:      "data_protection",
		Label:         "Entity & PII Guard",
	},
	{
		UUID:          GenerateDetectorUUID(NameClassify),
		Name:          NameClassify,
		Description:   "Classifies text into topics and blocks configured category patterns",
		AllowedPhases: []types.Phase{types.PhaseInput, types.PhaseOutput},
		Category:      "content_security",
		Label:         "Topic Guard",
	},
	{
		UUID:          GenerateDetectorUUID(NameModeration),
		Name:          NameModeration,
		Description:   "Moderates harmful content with a default-deny category posture",
		AllowedPhases: []types.Phase{types.PhaseInput, types.PhaseOutput},
		Category:      "content_security",
		Label:         "Moderation Guard",
	},
	{
		UUID:          GenerateDetectorUUID(NameArmor),
		Name:          NameArmor,
		Description:   "Delegates to the composite filter backend's pre-configured template",
		AllowedPhases: []types.Phase{types.PhaseInput, types.PhaseOutput},
		Category:      "content_security",
		Label:         "Composite Filter",
	},
}

// DefinitionFor looks up the catalog entry for a canonical detector name.
func DefinitionFor(name string) (DetectorDefinition, bool) {
	for _, def := range DetectorList {
		if def.Name == name {
			return def, true
		}
	}
	return DetectorDefinition{}, false
}

// GenerateDetectorUUID derives a stable identifier from the detector name.
func GenerateDetectorUUID(name string) string {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

// identifierAliases maps the accepted configuration spellings to canonical
// detector names.
var identifierAliases = map[string]string{
	"sentiment":         NameSentiment,
	"analyze_sentiment": NameSentiment,
	"entities":          NameEntities,
	"analyze_entities":  NameEntities,
	"classify":          NameClassify,
	"classify_text":     NameClassify,
	"moderate":          NameModeration,
	"moderate_text":     NameModeration,
	"model_armor":       NameArmor,
	"armor":             NameArmor,
}

// CanonicalName resolves a configured identifier to its canonical detector
// name. Unrecognized identifiers report ok=false and are filtered out by
// configuration validation, never at dispatch time.
func CanonicalName(raw string) (string, bool) {
	name, ok := identifierAliases[strings.ToLower(strings.TrimSpace(raw))]
	return name, ok
}
