package engine

import (
	"math"
	"testing"

	"moderation-service/models"
)

func finding(name string, sev models.Severity) RuleFinding {
	return RuleFinding{RuleName: name, Severity: sev, Action: actionForSeverity(sev), Flag: models.FlagOther}
}

func TestResolveNoFindings(t *testing.T) {
	verdict := Resolve(nil)
	if !verdict.Safe {
		t.Error("expected safe verdict for zero findings")
	}
	if verdict.Action != models.ActionApprove {
		t.Errorf("action = %q, want approve", verdict.Action)
	}
	if verdict.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", verdict.Confidence)
	}
}

func TestResolveSeverityPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		findings   []RuleFinding
		wantSev    models.Severity
		wantAction models.ModerationAction
	}{
		{
			"critical wins",
			[]RuleFinding{finding("a", models.SeverityLow), finding("b", models.SeverityCritical), finding("c", models.SeverityHigh)},
			models.SeverityCritical, models.ActionEscalate,
		},
		{
			"high maps to quarantine",
			[]RuleFinding{finding("a", models.SeverityMedium), finding("b", models.SeverityHigh)},
			models.SeverityHigh, models.ActionQuarantine,
		},
		{
			"medium maps to flag",
			[]RuleFinding{finding("a", models.SeverityMedium)},
			models.SeverityMedium, models.ActionFlag,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Resolve(tt.findings)
			if verdict.Severity != tt.wantSev {
				t.Errorf("severity = %q, want %q", verdict.Severity, tt.wantSev)
			}
			if verdict.Action != tt.wantAction {
				t.Errorf("action = %q, want %q", verdict.Action, tt.wantAction)
			}
			if verdict.Safe {
				t.Error("verdict should not be safe with findings present")
			}
		})
	}
}

func TestResolveOrderInvariant(t *testing.T) {
	findings := []RuleFinding{
		finding("a", models.SeverityLow),
		finding("b", models.SeverityHigh),
		finding("c", models.SeverityMedium),
		finding("d", models.SeverityCritical),
	}

	want := Resolve(findings)

	permutations := [][]int{
		{3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1},
	}
	for _, perm := range permutations {
		shuffled := make([]RuleFinding, len(findings))
		for i, j := range perm {
			shuffled[i] = findings[j]
		}
		got := Resolve(shuffled)
		if got.Severity != want.Severity || got.Action != want.Action || got.Confidence != want.Confidence {
			t.Errorf("resolve changed under reordering: %+v vs %+v", got, want)
		}
	}
}

func TestResolveTieKeepsFirstSeen(t *testing.T) {
	first := RuleFinding{RuleName: "first", Severity: models.SeverityHigh, Action: models.ActionQuarantine}
	second := RuleFinding{RuleName: "second", Severity: models.SeverityHigh, Action: models.ActionReject}

	verdict := Resolve([]RuleFinding{first, second})
	if verdict.Action != models.ActionQuarantine {
		t.Errorf("tie should keep first-seen action, got %q", verdict.Action)
	}
}

func TestResolveConfidence(t *testing.T) {
	tests := []struct {
		count int
		want  float64
	}{
		{1, 0.8},
		{2, 0.6},
		{3, 0.4},
		{4, 0.2},
		{5, 0.1}, // floor
		{9, 0.1},
	}

	for _, tt := range tests {
		var findings []RuleFinding
		for i := 0; i < tt.count; i++ {
			findings = append(findings, finding("r", models.SeverityLow))
		}
		got := Resolve(findings).Confidence
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("confidence for %d findings = %v, want %v", tt.count, got, tt.want)
		}
	}
}

func TestPriorityForSeverity(t *testing.T) {
	if PriorityForSeverity(models.SeverityCritical) != models.PriorityUrgent {
		t.Error("critical severity should map to urgent priority")
	}
	if PriorityForSeverity(models.SeverityLow) != models.PriorityLow {
		t.Error("low severity should map to low priority")
	}
}
