package runner

import (
	"github.com/sirupsen/logrus"

	"github.com/polyguard-ai/polyguard/pkg/detectors"
	"github.com/polyguard-ai/polyguard/pkg/detectors/armor"
	"github.com/polyguard-ai/polyguard/pkg/detectors/classify"
	"github.com/polyguard-ai/polyguard/pkg/detectors/entities"
	"github.com/polyguard-ai/polyguard/pkg/detectors/moderation"
	"github.com/polyguard-ai/polyguard/pkg/detectors/sentiment"
	"github.com/polyguard-ai/polyguard/pkg/infra/armorclient"
	"github.com/polyguard-ai/polyguard/pkg/infra/language"
)

// NewRegistry maps every canonical detector name to its adapter. Policy
// dispatch resolves against this map, never by dynamic lookup.
func NewRegistry(
	logger *logrus.Logger,
	languageClient language.Client,
	armorClient armorclient.Client,
) map[string]detectors.Detector {
	return map[string]detectors.Detector{
		detectors.NameSentiment:  sentiment.NewDetector(logger, languageClient),
		detectors.NameEntities:   entities.NewDetector(logger, languageClient),
		detectors.NameClassify:   classify.NewDetector(logger, languageClient),
		detectors.NameModeration: moderation.NewDetector(logger, languageClient),
		detectors.NameArmor:      armor.NewDetector(logger, armorClient),
	}
}
