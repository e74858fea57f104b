package model

// AttentionEntry is one student who needs teacher attention right now,
// derived from an active insight. Group insights fan out to one entry per
// affected student.
// swagger:model AttentionEntry
type AttentionEntry struct {
	StudentID    uint   `json:"studentId"`
	InsightID    uint   `json:"insightId"`
	AssignmentID *uint  `json:"assignmentId"`
	Category     string `json:"category"`
	Reason       string `json:"reason"` // "{Category} · {Reason phrase}"
	Priority     int    `json:"priority"`
}

// AttentionAssignmentBreakdown counts attention entries per assignment.
type AttentionAssignmentBreakdown struct {
	AssignmentID    uint   `json:"assignmentId"`
	AssignmentTitle string `json:"assignmentTitle"`
	StudentCount    int    `json:"studentCount"`
}

// AttentionState is the teacher-facing aggregate consumed by dashboards.
// swagger:model AttentionState
type AttentionState struct {
	StudentsNeedingAttention int                            `json:"studentsNeedingAttention"`
	PendingCount             int                            `json:"pendingCount"`
	ByAssignment             []AttentionAssignmentBreakdown `json:"byAssignment"`
}
