package engine

import (
	"moderation-service/models"
)

// Verdict is the resolved outcome of a findings set.
type Verdict struct {
	Safe       bool                    `json:"safe"`
	Severity   models.Severity         `json:"severity,omitempty"`
	Action     models.ModerationAction `json:"action"`
	Confidence float64                 `json:"confidence"`
	Flags      []string                `json:"flags,omitempty"`
}

// confidencePenalty is the per-finding confidence reduction. Each independent
// signal lowers confidence in a clean verdict; individual rules are noisy, so
// more flags means less certainty the content is safe. Tunable policy
// constant, not a calibrated model.
const (
	confidencePenalty = 0.2
	confidenceFloor   = 0.1
)

// Resolve reduces a findings set to one overall severity and recommended
// action. The highest severity present wins; ties keep the first-seen rule.
// Re-ordering the findings never changes the resolved severity or action.
func Resolve(findings []RuleFinding) Verdict {
	if len(findings) == 0 {
		return Verdict{
			Safe:       true,
			Action:     models.ActionApprove,
			Confidence: 1.0,
		}
	}

	top := findings[0]
	for _, f := range findings[1:] {
		if models.SeverityRank(f.Severity) > models.SeverityRank(top.Severity) {
			top = f
		}
	}

	confidence := 1.0 - confidencePenalty*float64(len(findings))
	if confidence < confidenceFloor {
		confidence = confidenceFloor
	}

	seen := make(map[string]bool)
	var flags []string
	for _, f := range findings {
		flag := models.NormalizeFlag(f.Flag)
		if !seen[flag] {
			seen[flag] = true
			flags = append(flags, flag)
		}
	}

	return Verdict{
		Safe:       false,
		Severity:   top.Severity,
		Action:     top.Action,
		Confidence: confidence,
		Flags:      flags,
	}
}

// PriorityForSeverity maps a resolved severity to a queue priority.
func PriorityForSeverity(s models.Severity) models.Priority {
	switch s {
	case models.SeverityCritical:
		return models.PriorityUrgent
	case models.SeverityHigh:
		return models.PriorityHigh
	case models.SeverityMedium:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}
