package model

import (
	"time"

	"gorm.io/datatypes"
)

type ReviewState string

const (
	ReviewNotStarted        ReviewState = "not_started"
	ReviewPending           ReviewState = "pending_review"
	ReviewReviewed          ReviewState = "reviewed"
	ReviewFollowupScheduled ReviewState = "followup_scheduled"
	ReviewResolved          ReviewState = "resolved"
)

// StudentAssignment is the per-student projection of an assignment: how far
// the student got and where the teacher stands on reviewing that work.
// ReviewState is never hand-set; every mutation path recomputes it through
// service.DeriveReviewState.
// swagger:model StudentAssignment
type StudentAssignment struct {
	BaseModel
	StudentID    uint                      `gorm:"uniqueIndex:idx_student_assignment;not null" json:"studentId"`
	AssignmentID uint                      `gorm:"uniqueIndex:idx_student_assignment;not null" json:"assignmentId"`
	CompletedAt  *time.Time                `json:"completedAt"`
	ReviewedAt   *time.Time                `json:"reviewedAt"`
	ReviewState  ReviewState               `gorm:"size:30;default:'not_started'" json:"reviewState"`
	TodoIDs      datatypes.JSONSlice[uint] `json:"todoIds"`
	BadgeIDs     datatypes.JSONSlice[uint] `json:"badgeIds"`
	Attempts     int                       `gorm:"default:0" json:"attempts"`
}

func (sa *StudentAssignment) HasBadge() bool {
	return len(sa.BadgeIDs) > 0
}

func (StudentAssignment) TableName() string {
	return "student_assignments"
}
