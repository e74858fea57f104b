package service

import (
	"classpulse_backend/internal/model"
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"
)

func attnInsight(itype model.InsightType, rule string, status model.InsightStatus, signals datatypes.JSONMap) *model.Insight {
	return &model.Insight{
		Type:     itype,
		RuleName: rule,
		Status:   status,
		Signals:  signals,
	}
}

func TestCategorize(t *testing.T) {
	thresholds := model.DefaultThresholds()

	cases := []struct {
		name    string
		insight *model.Insight
		want    string
	}{
		{"celebration", attnInsight(model.InsightCelebrateProgress, RuleNotableImprovement, model.InsightActive, nil), CategoryCelebration},
		{"enrichment", attnInsight(model.InsightChallengeOpportunity, RuleReadyForChallenge, model.InsightActive, nil), CategoryEnrichment},
		{"monitor", attnInsight(model.InsightMonitor, RuleAssignmentDifficulty, model.InsightActive, nil), CategoryMonitor},
		{"group is always needs support", attnInsight(model.InsightCheckIn, RuleGroupSupport, model.InsightActive, datatypes.JSONMap{"score": 55}), CategoryNeedsSupport},
		{"struggling score", attnInsight(model.InsightCheckIn, RuleNeedsSupport, model.InsightActive, datatypes.JSONMap{"score": 25}), CategoryNeedsSupport},
		{"developing score", attnInsight(model.InsightCheckIn, RuleNeedsSupport, model.InsightActive, datatypes.JSONMap{"score": 55}), CategoryDeveloping},
	}

	for _, tc := range cases {
		if got := Categorize(tc.insight, thresholds); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCountsTowardAttention(t *testing.T) {
	thresholds := model.DefaultThresholds()

	cases := []struct {
		name    string
		insight *model.Insight
		want    bool
	}{
		{"active struggling counts", attnInsight(model.InsightCheckIn, RuleNeedsSupport, model.InsightActive, datatypes.JSONMap{"score": 25}), true},
		{"resolved never counts", attnInsight(model.InsightCheckIn, RuleNeedsSupport, model.InsightResolved, datatypes.JSONMap{"score": 25}), false},
		{"celebration excluded", attnInsight(model.InsightCelebrateProgress, RuleNotableImprovement, model.InsightActive, nil), false},
		{"enrichment excluded", attnInsight(model.InsightChallengeOpportunity, RuleReadyForChallenge, model.InsightActive, nil), false},
		{"monitor excluded", attnInsight(model.InsightMonitor, RuleAssignmentDifficulty, model.InsightActive, nil), false},
		{"developing without evidence excluded", attnInsight(model.InsightCheckIn, RuleNeedsSupport, model.InsightActive, datatypes.JSONMap{"score": 55}), false},
		{"developing with elevated flag counts", attnInsight(model.InsightCheckIn, RuleNeedsSupport, model.InsightActive, datatypes.JSONMap{"score": 55, "elevated": true}), true},
		{"developing with high hint rate counts", attnInsight(model.InsightCheckIn, RuleNeedsSupport, model.InsightActive, datatypes.JSONMap{"score": 55, "hintRate": 0.8}), true},
		{"developing with escalated help counts", attnInsight(model.InsightCheckIn, RuleNeedsSupport, model.InsightActive, datatypes.JSONMap{"score": 55, "helpRequests": 3}), true},
	}

	for _, tc := range cases {
		if got := CountsTowardAttention(tc.insight, thresholds); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestReasonFormat(t *testing.T) {
	thresholds := model.DefaultThresholds()

	cases := []struct {
		name    string
		insight *model.Insight
		want    string
	}{
		{
			"score with high hints",
			attnInsight(model.InsightCheckIn, RuleNeedsSupport, model.InsightActive, datatypes.JSONMap{"score": 25, "hintRate": 0.7}),
			"Needs support · Scored 25% with high hints",
		},
		{
			"score alone",
			attnInsight(model.InsightCheckIn, RuleNeedsSupport, model.InsightActive, datatypes.JSONMap{"score": 25, "hintRate": 0.2}),
			"Needs support · Scored 25%",
		},
		{
			"support-seeking intent",
			attnInsight(model.InsightCheckIn, RuleNeedsSupport, model.InsightActive, datatypes.JSONMap{"coachIntent": "support_seeking"}),
			"Needs support · Asked for help in coaching",
		},
		{
			"group phrasing with threshold",
			attnInsight(model.InsightCheckIn, RuleGroupSupport, model.InsightActive, datatypes.JSONMap{"groupSize": 4, "threshold": 40}),
			"Needs support · Part of group below 40%",
		},
		{
			"group phrasing without threshold",
			attnInsight(model.InsightCheckIn, RuleGroupSupport, model.InsightActive, datatypes.JSONMap{"groupSize": 4}),
			"Needs support · One of 4 struggling",
		},
		{
			"generic fallback",
			attnInsight(model.InsightCheckIn, RuleNeedsSupport, model.InsightActive, datatypes.JSONMap{}),
			"Needs support · Needs a check-in",
		},
	}

	for _, tc := range cases {
		if got := Reason(tc.insight, thresholds); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestEntriesFanOutAndOrdering(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher", model.Teacher)
	assignmentID := uint(7)

	group := env.createActiveInsight(t, teacher.ID, RuleGroupSupport, []uint{1, 2, 3}, &assignmentID)
	group.Priority = 60
	if err := env.insights.Save(group); err != nil {
		t.Fatalf("save: %v", err)
	}
	single := env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{4}, &assignmentID)
	single.Priority = 90
	if err := env.insights.Save(single); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Excluded categories never produce entries.
	celebration := env.createActiveInsight(t, teacher.ID, RuleNotableImprovement, []uint{5}, &assignmentID)
	celebration.Type = model.InsightCelebrateProgress
	if err := env.insights.Save(celebration); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := env.attention.Entries(teacher.ID)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("entries = %+v, want 3 group fan-outs plus 1 single", entries)
	}
	if entries[0].StudentID != 4 {
		t.Errorf("first entry student = %d, want the high-priority single", entries[0].StudentID)
	}
	for _, entry := range entries[1:] {
		if entry.InsightID != group.ID {
			t.Errorf("entry %+v should come from the group insight", entry)
		}
	}
}

func TestStateAggregates(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher", model.Teacher)
	class := env.createClass(t, teacher.ID, "7A")
	assignment := env.createAssignment(t, class.ID, "Fractions Quiz", time.Now())

	env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{1}, &assignment.ID)
	env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{2}, &assignment.ID)

	pending := env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{3}, nil)
	pending.Status = model.InsightPending
	if err := env.insights.Save(pending); err != nil {
		t.Fatalf("save: %v", err)
	}

	state, err := env.attention.State(context.Background(), teacher.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.StudentsNeedingAttention != 2 {
		t.Errorf("students needing attention = %d, want 2", state.StudentsNeedingAttention)
	}
	if state.PendingCount != 1 {
		t.Errorf("pending count = %d, want 1", state.PendingCount)
	}
	if len(state.ByAssignment) != 1 || state.ByAssignment[0].StudentCount != 2 {
		t.Fatalf("breakdown = %+v, want one assignment with 2 students", state.ByAssignment)
	}
	if state.ByAssignment[0].AssignmentTitle != "Fractions Quiz" {
		t.Errorf("breakdown title = %q, want the assignment title", state.ByAssignment[0].AssignmentTitle)
	}
}
