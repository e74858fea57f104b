package model

import "time"

type TodoStatus string

const (
	TodoOpen       TodoStatus = "open"
	TodoDone       TodoStatus = "done"
	TodoSuperseded TodoStatus = "superseded"
)

// TeacherTodo is a checklist item created from a soft (non-system-executed)
// insight action. Superseded todos are historical only and never count
// toward open/done totals.
// swagger:model TeacherTodo
type TeacherTodo struct {
	BaseModel
	TeacherID           uint   `gorm:"index;not null" json:"teacherId"`
	InsightID           uint   `gorm:"index;not null" json:"insightId"`
	StudentAssignmentID uint   `gorm:"index;not null" json:"studentAssignmentId"`
	ActionKey           string `gorm:"size:50;not null" json:"actionKey"`
	Label               string `gorm:"size:255;not null" json:"label"`

	// Denormalized display context so todo lists render without joins.
	ClassName       string `gorm:"size:100" json:"className"`
	Subject         string `gorm:"size:100" json:"subject"`
	AssignmentTitle string `gorm:"size:255" json:"assignmentTitle"`
	StudentName     string `gorm:"size:100" json:"studentName"`

	Status       TodoStatus `gorm:"size:20;index;default:'open'" json:"status"`
	DoneAt       *time.Time `json:"doneAt"`
	SupersededAt *time.Time `json:"supersededAt"`
}

func (TeacherTodo) TableName() string {
	return "teacher_todos"
}
