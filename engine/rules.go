package engine

import (
	"regexp"
	"strings"

	"moderation-service/models"
)

// RuleFinding is a single rule's verdict on a piece of content.
type RuleFinding struct {
	RuleName string                  `json:"rule_name"`
	Severity models.Severity         `json:"severity"`
	Action   models.ModerationAction `json:"action"`
	Flag     string                  `json:"flag"`
}

// actionForSeverity is the fixed severity-to-action mapping used by the
// built-in rules and the resolver.
func actionForSeverity(s models.Severity) models.ModerationAction {
	switch s {
	case models.SeverityCritical:
		return models.ActionEscalate
	case models.SeverityHigh:
		return models.ActionQuarantine
	case models.SeverityMedium:
		return models.ActionFlag
	default:
		return models.ActionFlag
	}
}

type textRule struct {
	name     string
	pattern  *regexp.Regexp
	severity models.Severity
	flag     string
}

var textRules = []textRule{
	{
		name:     "profanity",
		pattern:  regexp.MustCompile(`(?i)\b(fuck|shit|bitch|asshole|bastard|cunt|dick|whore)\b`),
		severity: models.SeverityMedium,
		flag:     models.FlagInappropriateContent,
	},
	{
		name:     "spam_phrasing",
		pattern:  regexp.MustCompile(`(?i)(buy now|limited offer|click here|free money|act now|100% free|earn \$|make money fast)`),
		severity: models.SeverityMedium,
		flag:     models.FlagSpam,
	},
	{
		name:     "contact_info",
		pattern:  regexp.MustCompile(`(?i)([a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}|\+?\d[\d\s\-()]{8,}\d|(whatsapp|telegram|snapchat)\s*[:@])`),
		severity: models.SeverityMedium,
		flag:     models.FlagSpam,
	},
	{
		name:     "cruelty_language",
		pattern:  regexp.MustCompile(`(?i)(beat(ing)? (the |my |a )?(dog|cat|pet|animal)|starv(e|ing) (the |my |a )?(dog|cat|pet|animal)|animal fight|dog fight|bait animal)`),
		severity: models.SeverityCritical,
		flag:     models.FlagViolence,
	},
	{
		name:     "underage_language",
		pattern:  regexp.MustCompile(`(?i)\b(under\s?age|minor[s]? only|i'?m (1[0-7]|[0-9]) years? old)\b`),
		severity: models.SeverityCritical,
		flag:     models.FlagAdultContent,
	},
}

// imageLabelRules maps known vision-classifier labels to findings.
var imageLabelRules = map[string]struct {
	name     string
	severity models.Severity
	flag     string
}{
	"nudity":         {"image_nudity", models.SeverityHigh, models.FlagNudity},
	"sexual_content": {"image_nudity", models.SeverityHigh, models.FlagAdultContent},
	"violence":       {"image_violence", models.SeverityHigh, models.FlagViolence},
	"weapon":         {"image_violence", models.SeverityHigh, models.FlagViolence},
	"gore":           {"image_violence", models.SeverityHigh, models.FlagViolence},
	"animal_cruelty": {"image_animal_cruelty", models.SeverityCritical, models.FlagViolence},
}

// Behavior thresholds.
const (
	maxPostsPerMinute  = 10
	maxViolationsIn24h = 3
)

// Evaluate runs the built-in text, image-label and behavior rules against the
// given signals. It is deterministic and has no side effects. Content with no
// text, labels or counters yields zero findings.
func Evaluate(signals models.ContentSignals) []RuleFinding {
	var findings []RuleFinding

	if signals.Text != "" {
		for _, rule := range textRules {
			if rule.pattern.MatchString(signals.Text) {
				findings = append(findings, RuleFinding{
					RuleName: rule.name,
					Severity: rule.severity,
					Action:   actionForSeverity(rule.severity),
					Flag:     rule.flag,
				})
			}
		}
	}

	for _, label := range signals.ImageLabels {
		if rule, ok := imageLabelRules[strings.ToLower(label)]; ok {
			findings = append(findings, RuleFinding{
				RuleName: rule.name,
				Severity: rule.severity,
				Action:   actionForSeverity(rule.severity),
				Flag:     rule.flag,
			})
		}
	}

	if signals.PostsInLastMinute > maxPostsPerMinute {
		findings = append(findings, RuleFinding{
			RuleName: "posting_rate",
			Severity: models.SeverityMedium,
			Action:   actionForSeverity(models.SeverityMedium),
			Flag:     models.FlagSpam,
		})
	}

	if signals.ViolationsIn24h > maxViolationsIn24h {
		findings = append(findings, RuleFinding{
			RuleName: "repeat_violations",
			Severity: models.SeverityHigh,
			Action:   actionForSeverity(models.SeverityHigh),
			Flag:     models.FlagOther,
		})
	}

	return findings
}

// EvaluateCustom applies operator-configured rules on top of the built-ins.
// Inactive rules and rules for a different content type are skipped.
func EvaluateCustom(signals models.ContentSignals, rules []models.ModerationRule) []RuleFinding {
	var findings []RuleFinding

	lowerText := strings.ToLower(signals.Text)
	labels := make(map[string]bool, len(signals.ImageLabels))
	for _, l := range signals.ImageLabels {
		labels[strings.ToLower(l)] = true
	}

	for _, rule := range rules {
		if !rule.IsActive || rule.ContentType != signals.ContentType {
			continue
		}

		matched := false
		for _, kw := range rule.Conditions.Keywords {
			if kw != "" && strings.Contains(lowerText, strings.ToLower(kw)) {
				matched = true
				break
			}
		}
		if !matched {
			for _, label := range rule.Conditions.ImageLabels {
				if labels[strings.ToLower(label)] {
					matched = true
					break
				}
			}
		}
		if !matched && rule.Conditions.ReportCountThreshold > 0 &&
			signals.ReportCount >= rule.Conditions.ReportCountThreshold {
			matched = true
		}

		if matched {
			findings = append(findings, RuleFinding{
				RuleName: rule.Name,
				Severity: rule.Severity,
				Action:   rule.Action,
				Flag:     models.FlagOther,
			})
		}
	}

	return findings
}
