package service

import (
	"classpulse_backend/internal/model"
	"time"
)

// Priority weighting. The computed value is the sole sort key for the
// teacher-facing active list (ties break by creation time, then id).
const (
	priorityBase = 50

	weightIndividualCheckIn = 25
	weightGroupSupport      = 20
	weightMonitor           = 12
	weightEnrichment        = 10
	weightCelebration       = 5

	weightConfidenceHigh   = 15
	weightConfidenceMedium = 8
	weightConfidenceLow    = 2

	weightFresh = 10 // created <24h ago
	weightStale = -10

	weightLargeGroup = 8 // ≥3 affected students
)

// ScorePriority computes the 1-100 priority for an insight from its type,
// confidence band, age, and group size.
func ScorePriority(insightType model.InsightType, ruleName string, band model.ConfidenceBand, createdAt time.Time, groupSize int, now time.Time) int {
	p := priorityBase

	switch insightType {
	case model.InsightCheckIn:
		if ruleName == RuleGroupSupport {
			p += weightGroupSupport
		} else {
			p += weightIndividualCheckIn
		}
	case model.InsightChallengeOpportunity:
		p += weightEnrichment
	case model.InsightCelebrateProgress:
		p += weightCelebration
	case model.InsightMonitor:
		p += weightMonitor
	}

	switch band {
	case model.ConfidenceHigh:
		p += weightConfidenceHigh
	case model.ConfidenceMedium:
		p += weightConfidenceMedium
	default:
		p += weightConfidenceLow
	}

	age := now.Sub(createdAt)
	if age < 24*time.Hour {
		p += weightFresh
	} else if age > 72*time.Hour {
		p += weightStale
	}

	if groupSize >= 3 {
		p += weightLargeGroup
	}

	return clampPriority(p)
}

func clampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 100 {
		return 100
	}
	return p
}
