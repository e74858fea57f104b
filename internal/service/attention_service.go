package service

import (
	"classpulse_backend/internal/model"
	"classpulse_backend/internal/repository"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
)

// Attention categories. Celebration, enrichment, and assignment-level
// monitor insights never count toward attention regardless of status.
const (
	CategoryNeedsSupport = "Needs support"
	CategoryDeveloping   = "Developing"
	CategoryCelebration  = "Celebration"
	CategoryEnrichment   = "Enrichment"
	CategoryMonitor      = "Monitor"
)

const attentionCacheTTL = 30 * time.Second

// AttentionService answers "does this student need attention right now" — a
// stricter predicate than status = active — and aggregates it per teacher.
type AttentionService struct {
	InsightRepo *repository.InsightRepository
	RosterRepo  *repository.RosterRepository
	Settings    *SettingsService
	Redis       *redis.Client
}

func NewAttentionService(
	insightRepo *repository.InsightRepository,
	rosterRepo *repository.RosterRepository,
	settings *SettingsService,
	rdb *redis.Client,
) *AttentionService {
	return &AttentionService{
		InsightRepo: insightRepo,
		RosterRepo:  rosterRepo,
		Settings:    settings,
		Redis:       rdb,
	}
}

// Categorize maps an insight to its attention category from type, rule, and
// the score signal relative to the teacher's thresholds.
func Categorize(insight *model.Insight, thresholds model.TeacherThresholdSettings) string {
	switch insight.Type {
	case model.InsightCelebrateProgress:
		return CategoryCelebration
	case model.InsightChallengeOpportunity:
		return CategoryEnrichment
	case model.InsightMonitor:
		return CategoryMonitor
	}
	if insight.RuleName == RuleGroupSupport {
		return CategoryNeedsSupport
	}
	if score, ok := signalInt(insight.Signals, "score"); ok && score >= thresholds.StrugglingScoreMax {
		return CategoryDeveloping
	}
	return CategoryNeedsSupport
}

// CountsTowardAttention applies the strict predicate: active status, a
// non-excluded category, and — for the conditionally-elevated developing
// tier — explicit elevation evidence.
func CountsTowardAttention(insight *model.Insight, thresholds model.TeacherThresholdSettings) bool {
	if insight.Status != model.InsightActive {
		return false
	}
	switch Categorize(insight, thresholds) {
	case CategoryCelebration, CategoryEnrichment, CategoryMonitor:
		return false
	case CategoryDeveloping:
		return hasElevationEvidence(insight, thresholds)
	}
	return true
}

func hasElevationEvidence(insight *model.Insight, thresholds model.TeacherThresholdSettings) bool {
	if signalBool(insight.Signals, "elevated") || signalBool(insight.Signals, "escalated") {
		return true
	}
	if rate, ok := signalFloat(insight.Signals, "hintRate"); ok && rate > thresholds.HighHintRatio {
		return true
	}
	if count, ok := signalInt(insight.Signals, "helpRequests"); ok && count >= thresholds.EscalationHelpCount {
		return true
	}
	return false
}

// Reason renders the short fixed-format reason line for one student,
// "{Category} · {Reason phrase}". The most specific available signal wins:
// score with high hints, then score alone, then coach intent, then raw hint
// rate, then help-request count, then a generic fallback. Group insights
// are rewritten into single-student phrasing because attention rows always
// target one student.
func Reason(insight *model.Insight, thresholds model.TeacherThresholdSettings) string {
	category := Categorize(insight, thresholds)

	if insight.RuleName == RuleGroupSupport {
		if threshold, ok := signalInt(insight.Signals, "threshold"); ok {
			return fmt.Sprintf("%s · Part of group below %d%%", category, threshold)
		}
		size, _ := signalInt(insight.Signals, "groupSize")
		return fmt.Sprintf("%s · One of %d struggling", category, size)
	}

	score, hasScore := signalInt(insight.Signals, "score")
	rate, hasRate := signalFloat(insight.Signals, "hintRate")
	intent, _ := signalString(insight.Signals, "coachIntent")
	help, hasHelp := signalInt(insight.Signals, "helpRequests")

	switch {
	case hasScore && hasRate && rate > thresholds.HighHintRatio:
		return fmt.Sprintf("%s · Scored %d%% with high hints", category, score)
	case hasScore:
		return fmt.Sprintf("%s · Scored %d%%", category, score)
	case intent == string(model.IntentSupportSeeking):
		return fmt.Sprintf("%s · Asked for help in coaching", category)
	case hasRate && rate > 0:
		return fmt.Sprintf("%s · Hints on %.0f%% of problems", category, rate*100)
	case hasHelp && help > 0:
		return fmt.Sprintf("%s · %d help requests", category, help)
	default:
		return fmt.Sprintf("%s · Needs a check-in", category)
	}
}

// Entries lists the students needing attention for a teacher, one row per
// (student, insight), highest priority first.
func (s *AttentionService) Entries(teacherID uint) ([]model.AttentionEntry, error) {
	thresholds, err := s.Settings.Resolve(teacherID)
	if err != nil {
		return nil, err
	}
	insights, err := s.InsightRepo.ListByTeacherAndStatuses(teacherID, []model.InsightStatus{model.InsightActive})
	if err != nil {
		return nil, err
	}

	var entries []model.AttentionEntry
	for i := range insights {
		insight := insights[i]
		if !CountsTowardAttention(&insight, thresholds) {
			continue
		}
		reason := Reason(&insight, thresholds)
		for _, studentID := range insight.StudentIDs {
			entries = append(entries, model.AttentionEntry{
				StudentID:    studentID,
				InsightID:    insight.ID,
				AssignmentID: insight.AssignmentID,
				Category:     Categorize(&insight, thresholds),
				Reason:       reason,
				Priority:     insight.Priority,
			})
		}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Priority > entries[b].Priority
	})
	return entries, nil
}

func attentionCacheKey(teacherID uint) string {
	return fmt.Sprintf("attention:state:%d", teacherID)
}

// State computes the teacher's attention aggregate, serving from the redis
// cache when fresh.
func (s *AttentionService) State(ctx context.Context, teacherID uint) (*model.AttentionState, error) {
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, attentionCacheKey(teacherID)).Result(); err == nil {
			var state model.AttentionState
			if json.Unmarshal([]byte(cached), &state) == nil {
				return &state, nil
			}
		}
	}

	entries, err := s.Entries(teacherID)
	if err != nil {
		return nil, err
	}
	pending, err := s.InsightRepo.ListByTeacherAndStatuses(teacherID, []model.InsightStatus{model.InsightPending})
	if err != nil {
		return nil, err
	}

	students := make(map[uint]struct{})
	perAssignment := make(map[uint]map[uint]struct{})
	for _, entry := range entries {
		students[entry.StudentID] = struct{}{}
		if entry.AssignmentID != nil {
			if perAssignment[*entry.AssignmentID] == nil {
				perAssignment[*entry.AssignmentID] = make(map[uint]struct{})
			}
			perAssignment[*entry.AssignmentID][entry.StudentID] = struct{}{}
		}
	}

	state := &model.AttentionState{
		StudentsNeedingAttention: len(students),
		PendingCount:             len(pending),
	}
	for assignmentID, studentSet := range perAssignment {
		breakdown := model.AttentionAssignmentBreakdown{
			AssignmentID: assignmentID,
			StudentCount: len(studentSet),
		}
		if assignment, err := s.RosterRepo.FindAssignment(assignmentID); err == nil {
			breakdown.AssignmentTitle = assignment.Title
		}
		state.ByAssignment = append(state.ByAssignment, breakdown)
	}
	sort.Slice(state.ByAssignment, func(a, b int) bool {
		return state.ByAssignment[a].AssignmentID < state.ByAssignment[b].AssignmentID
	})

	if s.Redis != nil {
		if payload, err := json.Marshal(state); err == nil {
			s.Redis.Set(ctx, attentionCacheKey(teacherID), payload, attentionCacheTTL)
		}
	}
	return state, nil
}

// Invalidate drops the cached aggregate after a lifecycle mutation.
func (s *AttentionService) Invalidate(ctx context.Context, teacherID uint) {
	if s.Redis != nil {
		s.Redis.Del(ctx, attentionCacheKey(teacherID))
	}
}

// Signal readers tolerate both in-memory values and the float64/bool/string
// shapes JSON round-tripping produces.

func signalInt(signals map[string]interface{}, key string) (int, bool) {
	switch v := signals[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return int(f), true
		}
	}
	return 0, false
}

func signalFloat(signals map[string]interface{}, key string) (float64, bool) {
	switch v := signals[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}

func signalBool(signals map[string]interface{}, key string) bool {
	v, _ := signals[key].(bool)
	return v
}

func signalString(signals map[string]interface{}, key string) (string, bool) {
	v, ok := signals[key].(string)
	return v, ok
}
