package service

import (
	"classpulse_backend/internal/model"
	"classpulse_backend/internal/repository"
	"classpulse_backend/pkg/logger"
	"classpulse_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

// DetectionService runs the rule engine over the aggregated performance
// inputs and persists the surviving candidates. One generation pass is
// Aggregator → rules → dedup guard → scorer → insight store.
type DetectionService struct {
	InsightRepo *repository.InsightRepository
	Aggregator  *AggregatorService
	Settings    *SettingsService
}

func NewDetectionService(
	insightRepo *repository.InsightRepository,
	aggregator *AggregatorService,
	settings *SettingsService,
) *DetectionService {
	return &DetectionService{
		InsightRepo: insightRepo,
		Aggregator:  aggregator,
		Settings:    settings,
	}
}

// GenerateForTeacher evaluates every rule against the teacher's current
// performance data and returns the newly persisted insights. A failing
// candidate is logged and skipped; it never aborts the batch. Re-running on
// identical input is safe: the dedup guard suppresses equivalents.
func (s *DetectionService) GenerateForTeacher(teacherID uint) ([]model.Insight, error) {
	thresholds, err := s.Settings.Resolve(teacherID)
	if err != nil {
		return nil, err
	}

	perfs, aggs, err := s.Aggregator.Collect(teacherID, thresholds)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var created []model.Insight

	for _, perf := range perfs {
		for _, rule := range studentRules {
			candidate := rule(perf, thresholds)
			if candidate == nil {
				continue
			}
			if insight, ok := s.admit(teacherID, candidate, now); ok {
				created = append(created, *insight)
			}
		}
	}

	for _, agg := range aggs {
		for _, rule := range aggregateRules {
			candidate := rule(agg, thresholds)
			if candidate == nil {
				continue
			}
			if insight, ok := s.admit(teacherID, candidate, now); ok {
				created = append(created, *insight)
			}
		}
	}

	return created, nil
}

// admit runs a candidate through the dedup guard and scorer and persists it.
// A dedup hit is silent suppression, not an error.
func (s *DetectionService) admit(teacherID uint, candidate *model.Insight, now time.Time) (*model.Insight, bool) {
	candidate.TeacherID = teacherID
	candidate.Status = model.InsightActive
	candidate.ScopeKey = model.InsightScopeKey(candidate.RuleName, candidate.StudentIDs, candidate.AssignmentID)

	exists, err := s.InsightRepo.ExistsEquivalent(teacherID, candidate.ScopeKey)
	if err != nil {
		logger.Log.Error("dedup check failed, skipping candidate",
			zap.String("rule", candidate.RuleName),
			zap.String("scopeKey", candidate.ScopeKey),
			zap.Error(err))
		return nil, false
	}
	if exists {
		return nil, false
	}

	candidate.ConfidenceScore = candidate.Confidence.Score()
	candidate.Priority = ScorePriority(candidate.Type, candidate.RuleName, candidate.Confidence, now, len(candidate.StudentIDs), now)

	if err := s.InsightRepo.Create(candidate); err != nil {
		logger.Log.Error("failed to persist insight, skipping candidate",
			zap.String("rule", candidate.RuleName),
			zap.Error(err))
		return nil, false
	}

	monitoring.InsightCounter.WithLabelValues(candidate.RuleName).Inc()
	return candidate, true
}
