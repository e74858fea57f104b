package service

import (
	"classpulse_backend/internal/model"
	"testing"
	"time"
)

func TestScorePriorityWeighting(t *testing.T) {
	now := time.Now()
	fresh := now.Add(-time.Hour)
	stale := now.Add(-80 * time.Hour)
	aged := now.Add(-48 * time.Hour)

	cases := []struct {
		name      string
		itype     model.InsightType
		rule      string
		band      model.ConfidenceBand
		createdAt time.Time
		groupSize int
		want      int
	}{
		{"fresh high individual check-in clamps at 100", model.InsightCheckIn, RuleNeedsSupport, model.ConfidenceHigh, fresh, 1, 100},
		{"aged medium celebration", model.InsightCelebrateProgress, RuleNotableImprovement, model.ConfidenceMedium, aged, 1, 63},
		{"stale medium monitor", model.InsightMonitor, RuleAssignmentDifficulty, model.ConfidenceMedium, stale, 0, 60},
		{"stale low enrichment", model.InsightChallengeOpportunity, RuleReadyForChallenge, model.ConfidenceLow, stale, 1, 52},
		{"aged high group with size bonus", model.InsightCheckIn, RuleGroupSupport, model.ConfidenceHigh, aged, 4, 93},
	}

	for _, tc := range cases {
		got := ScorePriority(tc.itype, tc.rule, tc.band, tc.createdAt, tc.groupSize, now)
		if got != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestScorePriorityIndividualOutranksGroup(t *testing.T) {
	now := time.Now()
	aged := now.Add(-48 * time.Hour)

	individual := ScorePriority(model.InsightCheckIn, RuleNeedsSupport, model.ConfidenceHigh, aged, 1, now)
	group := ScorePriority(model.InsightCheckIn, RuleGroupSupport, model.ConfidenceHigh, aged, 1, now)
	if individual <= group {
		t.Fatalf("individual check-in should outrank a small group: %d vs %d", individual, group)
	}
}

func TestScorePriorityStaysInRange(t *testing.T) {
	now := time.Now()
	for _, createdAt := range []time.Time{now, now.Add(-100 * time.Hour)} {
		for _, band := range []model.ConfidenceBand{model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow} {
			for _, size := range []int{0, 1, 5} {
				p := ScorePriority(model.InsightCheckIn, RuleNeedsSupport, band, createdAt, size, now)
				if p < 1 || p > 100 {
					t.Fatalf("priority %d out of range for band=%s size=%d", p, band, size)
				}
			}
		}
	}
}
