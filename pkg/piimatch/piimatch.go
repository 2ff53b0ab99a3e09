// Package piimatch is the regex fallback for PII classes the structured
// entity backend misses or does not model at all. It needs no remote
// service, which keeps entity blocking useful when the backend is down.
package piimatch

import (
	"regexp"

	"github.com/polyguard-ai/polyguard/pkg/taxonomy"
	"github.com/polyguard-ai/polyguard/pkg/types"
)

// patterns holds the per-category pattern sets. Ordering inside a set
// matters: the first pattern to match a literal value claims it.
var patterns = map[taxonomy.EntityType][]*regexp.Regexp{
	taxonomy.EntityPhoneNumber: {
		regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-.\s]?\d{4}\b`),
		regexp.MustCompile(`\+\d{1,3}[-.\s]?\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		regexp.MustCompile(`\b\d{10}\b`),
	},
	taxonomy.EntityEmail: {
		regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`),
	},
	taxonomy.EntitySSN: {
		regexp.MustCompile(`\b\d{3}[-.\s]?\d{2}[-.\s]?\d{4}\b`),
	},
	taxonomy.EntityCreditCard: {
		regexp.MustCompile(`\b\d{4}[-.\s]?\d{4}[-.\s]?\d{4}[-.\s]?\d{4}\b`),
	},
}

// Categories lists the entity types the matcher has pattern sets for.
func Categories() []taxonomy.EntityType {
	out := make([]taxonomy.EntityType, 0, len(patterns))
	for _, t := range []taxonomy.EntityType{
		taxonomy.EntityPhoneNumber,
		taxonomy.EntityEmail,
		taxonomy.EntitySSN,
		taxonomy.EntityCreditCard,
	} {
		if _, ok := patterns[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Scan runs the pattern sets of the enabled categories against text. Every
// match is reported with confidence 1.0 and detection method "pattern".
// Duplicate literal matches within one category are suppressed, first
// occurrence wins. Categories not in enabled are never reported.
func Scan(text string, enabled []taxonomy.EntityType) []types.Finding {
	if text == "" || len(enabled) == 0 {
		return nil
	}

	var findings []types.Finding
	for _, category := range Categories() {
		if !contains(enabled, category) {
			continue
		}
		seen := make(map[string]bool)
		for _, re := range patterns[category] {
			for _, match := range re.FindAllString(text, -1) {
				if seen[match] {
					continue
				}
				seen[match] = true
				findings = append(findings, types.Finding{
					Category:   string(category),
					Value:      match,
					Confidence: 1.0,
					Method:     types.MethodPattern,
					Severity:   types.SeverityHigh,
				})
			}
		}
	}
	return findings
}

func contains(set []taxonomy.EntityType, t taxonomy.EntityType) bool {
	for _, s := range set {
		if s == t {
			return true
		}
	}
	return false
}
