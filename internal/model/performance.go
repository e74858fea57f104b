package model

import "time"

// StudentPerformance is the flat per-student-per-assignment input to the
// detection rules, reshaped from the latest completed session.
type StudentPerformance struct {
	StudentID       uint        `json:"studentId"`
	StudentName     string      `json:"studentName"`
	AssignmentID    uint        `json:"assignmentId"`
	AssignmentTitle string      `json:"assignmentTitle"`
	Score           int         `json:"score"`    // 0-100
	HintRate        float64     `json:"hintRate"` // 0-1
	CoachIntent     CoachIntent `json:"coachIntent"`
	HasTeacherNote  bool        `json:"hasTeacherNote"`
	PreviousScore   *int        `json:"previousScore"`
	HelpRequests    int         `json:"helpRequests"`
	CompletedAt     time.Time   `json:"completedAt"`
}

// AssignmentAggregate is the per-assignment-per-class input to the
// aggregate-level detection rules.
type AssignmentAggregate struct {
	AssignmentID         uint    `json:"assignmentId"`
	AssignmentTitle      string  `json:"assignmentTitle"`
	ClassID              uint    `json:"classId"`
	StudentCount         int     `json:"studentCount"`
	CompletedCount       int     `json:"completedCount"`
	AverageScore         float64 `json:"averageScore"`
	StrugglingStudentIDs []uint  `json:"strugglingStudentIds"`
	DaysSinceAssigned    int     `json:"daysSinceAssigned"`
}

// CompletionRate is completed over rostered students, 0 when nobody is
// enrolled.
func (a *AssignmentAggregate) CompletionRate() float64 {
	if a.StudentCount == 0 {
		return 0
	}
	return float64(a.CompletedCount) / float64(a.StudentCount)
}
