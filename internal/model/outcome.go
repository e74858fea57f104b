package model

import "gorm.io/datatypes"

type ActionType string

const (
	ActionReassign     ActionType = "reassign"
	ActionAwardBadge   ActionType = "award_badge"
	ActionAddNote      ActionType = "add_note"
	ActionDismiss      ActionType = "dismiss"
	ActionMarkReviewed ActionType = "mark_reviewed"
)

// IsSystemAction reports whether the action is executed by the platform
// itself. Everything else becomes a teacher to-do.
func (a ActionType) IsSystemAction() bool {
	return a == ActionReassign || a == ActionAwardBadge
}

type ResolutionStatus string

const (
	ResolutionCompleted      ResolutionStatus = "completed"
	ResolutionPending        ResolutionStatus = "pending"
	ResolutionFollowUpNeeded ResolutionStatus = "follow_up_needed"
)

// ActionOutcome is the append-only audit record of one teacher action taken
// against an insight. Immutable once created; exactly one insight references
// it via outcomeId.
// swagger:model ActionOutcome
type ActionOutcome struct {
	UUIDBase
	InsightID        uint                        `gorm:"index;not null" json:"insightId"`
	ActorID          uint                        `gorm:"not null" json:"actorId"`
	StudentIDs       datatypes.JSONSlice[uint]   `json:"studentIds"`
	AssignmentID     *uint                       `json:"assignmentId"`
	Actions          datatypes.JSONSlice[string] `json:"actions"`
	ResolutionStatus ResolutionStatus            `gorm:"size:30;not null" json:"resolutionStatus"`
	Metadata         datatypes.JSONMap           `json:"metadata"` // badge type, note text, previous score
}

func (ActionOutcome) TableName() string {
	return "action_outcomes"
}
