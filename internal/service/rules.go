package service

import (
	"classpulse_backend/internal/model"
	"fmt"

	"gorm.io/datatypes"
)

// Detection rule names. The rule name travels with the insight as its audit
// trail and is part of the dedup key.
const (
	RuleNeedsSupport         = "needs_support"
	RuleGroupSupport         = "group_support"
	RuleReadyForChallenge    = "ready_for_challenge"
	RuleNotableImprovement   = "notable_improvement"
	RuleAssignmentDifficulty = "assignment_difficulty"
)

// supportSeekingScoreMax gates the coach-intent arm of needs_support.
const supportSeekingScoreMax = 50

// difficultyAverageMax and difficultyCompletionMax gate the aggregate-level
// assignment_difficulty rule.
const (
	difficultyAverageMax    = 50.0
	difficultyCompletionMax = 0.5
)

// studentRules are evaluated once per performance summary; aggregateRules
// once per assignment aggregate. Each is a pure predicate + content builder:
// it returns nil when the rule does not fire.
var studentRules = []func(model.StudentPerformance, model.TeacherThresholdSettings) *model.Insight{
	evalNeedsSupport,
	evalReadyForChallenge,
	evalNotableImprovement,
}

var aggregateRules = []func(model.AssignmentAggregate, model.TeacherThresholdSettings) *model.Insight{
	evalGroupSupport,
	evalAssignmentDifficulty,
}

func evalNeedsSupport(p model.StudentPerformance, t model.TeacherThresholdSettings) *model.Insight {
	lowScore := p.Score < t.StrugglingScoreMax
	heavyHints := p.HintRate > t.HeavyHintRatio && p.Score < t.DevelopingScoreMax
	seekingSupport := p.CoachIntent == model.IntentSupportSeeking && p.Score < supportSeekingScoreMax

	if !lowScore && !heavyHints && !seekingSupport {
		return nil
	}

	confidence := model.ConfidenceMedium
	if lowScore || heavyHints {
		confidence = model.ConfidenceHigh
	}

	evidence := []string{fmt.Sprintf("Scored %d%% on %s", p.Score, p.AssignmentTitle)}
	if p.HintRate > t.HeavyHintRatio {
		evidence = append(evidence, fmt.Sprintf("Used hints on %.0f%% of responses", p.HintRate*100))
	}
	if seekingSupport {
		evidence = append(evidence, "Asked for help in the coaching chat")
	}

	assignmentID := p.AssignmentID
	return &model.Insight{
		Type:       model.InsightCheckIn,
		RuleName:   RuleNeedsSupport,
		StudentIDs: datatypes.NewJSONSlice([]uint{p.StudentID}),

		AssignmentID: &assignmentID,
		Summary:      fmt.Sprintf("%s may need support on %s", p.StudentName, p.AssignmentTitle),
		Evidence:     datatypes.NewJSONSlice(evidence),
		SuggestedActions: datatypes.NewJSONSlice([]string{
			"Schedule a 1:1 check-in",
			"Reassign a scaffolded version",
			"Add a note for the next session",
		}),
		Confidence: confidence,
		Signals: datatypes.JSONMap{
			"score":        p.Score,
			"hintRate":     p.HintRate,
			"coachIntent":  string(p.CoachIntent),
			"helpRequests": p.HelpRequests,
			"elevated":     heavyHints && !lowScore,
			"escalated":    p.HelpRequests >= t.EscalationHelpCount,
		},
	}
}

func evalReadyForChallenge(p model.StudentPerformance, t model.TeacherThresholdSettings) *model.Insight {
	if p.Score < t.ExcellingScoreMin || p.HintRate >= t.MinimalHintRatio {
		return nil
	}

	confidence := model.ConfidenceMedium
	if p.CoachIntent == model.IntentEnrichmentSeeking {
		confidence = model.ConfidenceHigh
	}

	assignmentID := p.AssignmentID
	return &model.Insight{
		Type:       model.InsightChallengeOpportunity,
		RuleName:   RuleReadyForChallenge,
		StudentIDs: datatypes.NewJSONSlice([]uint{p.StudentID}),

		AssignmentID: &assignmentID,
		Summary:      fmt.Sprintf("%s is ready for a challenge beyond %s", p.StudentName, p.AssignmentTitle),
		Evidence: datatypes.NewJSONSlice([]string{
			fmt.Sprintf("Scored %d%% with almost no hints", p.Score),
		}),
		SuggestedActions: datatypes.NewJSONSlice([]string{
			"Assign an extension activity",
			"Award a badge for independent work",
		}),
		Confidence: confidence,
		Signals: datatypes.JSONMap{
			"score":       p.Score,
			"hintRate":    p.HintRate,
			"coachIntent": string(p.CoachIntent),
		},
	}
}

func evalNotableImprovement(p model.StudentPerformance, t model.TeacherThresholdSettings) *model.Insight {
	if p.PreviousScore == nil {
		return nil
	}
	delta := p.Score - *p.PreviousScore
	if delta < t.ImprovementDelta || p.Score < t.DevelopingScoreMax {
		return nil
	}

	assignmentID := p.AssignmentID
	return &model.Insight{
		Type:       model.InsightCelebrateProgress,
		RuleName:   RuleNotableImprovement,
		StudentIDs: datatypes.NewJSONSlice([]uint{p.StudentID}),

		AssignmentID: &assignmentID,
		Summary:      fmt.Sprintf("%s improved by %d points on %s", p.StudentName, delta, p.AssignmentTitle),
		Evidence: datatypes.NewJSONSlice([]string{
			fmt.Sprintf("Score went from %d%% to %d%%", *p.PreviousScore, p.Score),
		}),
		SuggestedActions: datatypes.NewJSONSlice([]string{
			"Celebrate the progress in class",
			"Award an improvement badge",
		}),
		Confidence: model.ConfidenceMedium,
		Signals: datatypes.JSONMap{
			"score":         p.Score,
			"previousScore": *p.PreviousScore,
			"delta":         delta,
		},
	}
}

func evalGroupSupport(a model.AssignmentAggregate, t model.TeacherThresholdSettings) *model.Insight {
	if len(a.StrugglingStudentIDs) < t.GroupStrugglingMin {
		return nil
	}

	assignmentID := a.AssignmentID
	return &model.Insight{
		Type:       model.InsightCheckIn,
		RuleName:   RuleGroupSupport,
		StudentIDs: datatypes.NewJSONSlice(a.StrugglingStudentIDs),

		AssignmentID: &assignmentID,
		Summary:      fmt.Sprintf("%d students are struggling with %s", len(a.StrugglingStudentIDs), a.AssignmentTitle),
		Evidence: datatypes.NewJSONSlice([]string{
			fmt.Sprintf("%d of %d students scored below %d%%", len(a.StrugglingStudentIDs), a.StudentCount, t.StrugglingScoreMax),
			fmt.Sprintf("Class average is %.0f%%", a.AverageScore),
		}),
		SuggestedActions: datatypes.NewJSONSlice([]string{
			"Run a small-group reteach",
			"Review the assignment's difficulty",
		}),
		Confidence: model.ConfidenceHigh,
		Signals: datatypes.JSONMap{
			"groupSize": len(a.StrugglingStudentIDs),
			"avgScore":  a.AverageScore,
			"threshold": t.StrugglingScoreMax,
		},
	}
}

func evalAssignmentDifficulty(a model.AssignmentAggregate, t model.TeacherThresholdSettings) *model.Insight {
	if a.AverageScore >= difficultyAverageMax ||
		a.CompletionRate() >= difficultyCompletionMax ||
		a.DaysSinceAssigned < t.StaleAssignmentDays {
		return nil
	}

	// Assignment-level: empty student scope.
	assignmentID := a.AssignmentID
	return &model.Insight{
		Type:       model.InsightMonitor,
		RuleName:   RuleAssignmentDifficulty,
		StudentIDs: datatypes.NewJSONSlice([]uint{}),

		AssignmentID: &assignmentID,
		Summary:      fmt.Sprintf("%s may be too difficult as assigned", a.AssignmentTitle),
		Evidence: datatypes.NewJSONSlice([]string{
			fmt.Sprintf("Average score is %.0f%% after %d days", a.AverageScore, a.DaysSinceAssigned),
			fmt.Sprintf("Only %d of %d students have completed it", a.CompletedCount, a.StudentCount),
		}),
		SuggestedActions: datatypes.NewJSONSlice([]string{
			"Break the assignment into smaller parts",
			"Revisit the prerequisites in class",
		}),
		Confidence: model.ConfidenceMedium,
		Signals: datatypes.JSONMap{
			"avgScore":          a.AverageScore,
			"completionRate":    a.CompletionRate(),
			"daysSinceAssigned": a.DaysSinceAssigned,
		},
	}
}
