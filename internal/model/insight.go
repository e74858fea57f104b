package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type InsightType string

const (
	InsightCheckIn              InsightType = "check_in"
	InsightChallengeOpportunity InsightType = "challenge_opportunity"
	InsightCelebrateProgress    InsightType = "celebrate_progress"
	InsightMonitor              InsightType = "monitor"
)

type InsightStatus string

const (
	InsightActive    InsightStatus = "active"
	InsightPending   InsightStatus = "pending"
	InsightResolved  InsightStatus = "resolved"
	InsightDismissed InsightStatus = "dismissed"
	InsightReviewed  InsightStatus = "reviewed"
)

type ConfidenceBand string

const (
	ConfidenceHigh   ConfidenceBand = "high"
	ConfidenceMedium ConfidenceBand = "medium"
	ConfidenceLow    ConfidenceBand = "low"
)

// Score maps a band to its numeric confidence.
func (b ConfidenceBand) Score() float64 {
	switch b {
	case ConfidenceHigh:
		return 0.9
	case ConfidenceMedium:
		return 0.8
	default:
		return 0.7
	}
}

// Insight is a generated, teacher-facing actionable observation about one or
// more students, produced by a detection rule and tracked through the
// active/pending/resolved/dismissed/reviewed lifecycle.
// swagger:model Insight
type Insight struct {
	BaseModel
	TeacherID uint        `gorm:"index;not null" json:"teacherId"`
	Type      InsightType `gorm:"size:30;not null" json:"insightType"`
	RuleName  string      `gorm:"size:50;not null" json:"ruleName"`

	StudentIDs   datatypes.JSONSlice[uint] `json:"studentIds"`
	AssignmentID *uint                     `gorm:"index" json:"assignmentId"`
	// ScopeKey is rule|assignment|sorted-student-set; the dedup guard keys
	// equivalence on it.
	ScopeKey string `gorm:"size:255;index" json:"-"`

	Summary          string                      `gorm:"size:500" json:"summary"`
	Evidence         datatypes.JSONSlice[string] `json:"evidence"`
	SuggestedActions datatypes.JSONSlice[string] `json:"suggestedActions"`
	Signals          datatypes.JSONMap           `json:"signals"` // raw values that triggered the rule

	Priority        int            `gorm:"default:1" json:"priority"` // 1-100
	Confidence      ConfidenceBand `gorm:"size:10;default:'low'" json:"confidence"`
	ConfidenceScore float64        `gorm:"default:0.7" json:"confidenceScore"`

	Status     InsightStatus `gorm:"size:20;index;default:'active'" json:"status"`
	ReviewedAt *time.Time    `json:"reviewedAt"`
	ResolvedAt *time.Time    `json:"resolvedAt"`

	OutcomeID       *string `gorm:"size:36" json:"outcomeId"`
	FeedbackHelpful *bool   `json:"feedbackHelpful"`
	FeedbackNote    string  `gorm:"type:text" json:"feedbackNote"`
}

func (Insight) TableName() string {
	return "insights"
}

// HasStudent reports whether the insight's scope includes the student.
func (i *Insight) HasStudent(studentID uint) bool {
	for _, id := range i.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// insightTransitions lists the legal lifecycle moves. Active is the initial
// state; every non-active state can only return to active via an explicit
// reactivate.
var insightTransitions = map[InsightStatus][]InsightStatus{
	InsightActive:    {InsightPending, InsightResolved, InsightDismissed, InsightReviewed},
	InsightPending:   {InsightResolved, InsightActive},
	InsightResolved:  {InsightActive},
	InsightDismissed: {InsightActive},
	InsightReviewed:  {InsightActive},
}

// CanTransition reports whether moving the insight to the target status is
// legal from its current status.
func (i *Insight) CanTransition(to InsightStatus) bool {
	for _, s := range insightTransitions[i.Status] {
		if s == to {
			return true
		}
	}
	return false
}

// DedupStatuses are the statuses that keep an equivalent insight from being
// regenerated. Only pruning a record clears the slate.
var DedupStatuses = []InsightStatus{InsightActive, InsightPending, InsightResolved, InsightDismissed}

// PrunableStatuses are the terminal statuses eligible for age-based pruning.
// Pending insights still expect a follow-up and are kept.
var PrunableStatuses = []InsightStatus{InsightResolved, InsightDismissed, InsightReviewed}

// InsightScopeKey builds the dedup key for a (rule, student set, assignment)
// triple. Student order is irrelevant: ids are sorted before joining.
func InsightScopeKey(ruleName string, studentIDs []uint, assignmentID *uint) string {
	ids := make([]uint, len(studentIDs))
	copy(ids, studentIDs)
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}

	assignment := "-"
	if assignmentID != nil {
		assignment = fmt.Sprintf("%d", *assignmentID)
	}
	return ruleName + "|" + assignment + "|" + strings.Join(parts, ",")
}
