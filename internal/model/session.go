package model

import (
	"time"

	"gorm.io/datatypes"
)

type CoachIntent string

const (
	IntentNone              CoachIntent = "none"
	IntentSupportSeeking    CoachIntent = "support_seeking"
	IntentEnrichmentSeeking CoachIntent = "enrichment_seeking"
	IntentPractice          CoachIntent = "practice"
)

// LearningSession is one completed (or in-progress) run of a student through
// an assignment, as handed over by the performance source.
// swagger:model LearningSession
type LearningSession struct {
	BaseModel
	StudentID     uint                      `gorm:"index;not null" json:"studentId"`
	AssignmentID  uint                      `gorm:"index;not null" json:"assignmentId"`
	Score         int                       `gorm:"default:0" json:"score"` // 0-100
	HintFlags     datatypes.JSONSlice[bool] `json:"hintFlags"`              // per-response hint-used flags
	CoachIntent   CoachIntent               `gorm:"size:30;default:'none'" json:"coachIntent"`
	HelpRequests  int                       `gorm:"default:0" json:"helpRequests"`
	PreviousScore *int                      `json:"previousScore"`
	TeacherNote   string                    `gorm:"type:text" json:"teacherNote"`
	CompletedAt   *time.Time                `gorm:"index" json:"completedAt"`
}

// HintRate is the fraction of responses where a hint was used.
func (s *LearningSession) HintRate() float64 {
	if len(s.HintFlags) == 0 {
		return 0
	}
	used := 0
	for _, f := range s.HintFlags {
		if f {
			used++
		}
	}
	return float64(used) / float64(len(s.HintFlags))
}

type SessionNoteKind string

const (
	NoteKindSystem  SessionNoteKind = "system"
	NoteKindTeacher SessionNoteKind = "teacher"
)

// SessionNote is an append-only note entry on a session. System-authored
// entries are written and removed by the synchronizer; teacher entries are
// never touched by it. The student-facing view filters by kind.
type SessionNote struct {
	BaseModel
	SessionID uint            `gorm:"index;not null" json:"sessionId"`
	Kind      SessionNoteKind `gorm:"size:20;not null" json:"kind"`
	Label     string          `gorm:"type:text;not null" json:"label"`
}

func (LearningSession) TableName() string {
	return "learning_sessions"
}

func (SessionNote) TableName() string {
	return "session_notes"
}
