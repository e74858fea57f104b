package model

import "time"

// swagger:model Class
type Class struct {
	BaseModel
	TeacherID uint   `gorm:"index;not null" json:"teacherId"`
	Name      string `gorm:"size:100;not null" json:"name"`
	Subject   string `gorm:"size:100" json:"subject"`
}

// swagger:model Assignment
type Assignment struct {
	BaseModel
	ClassID    uint       `gorm:"index;not null" json:"classId"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	AssignedAt time.Time  `json:"assignedAt"`
	DueAt      *time.Time `json:"dueAt"`
}

// ClassEnrollment links a student to a class roster.
type ClassEnrollment struct {
	BaseModel
	ClassID   uint `gorm:"uniqueIndex:idx_class_student;not null" json:"classId"`
	StudentID uint `gorm:"uniqueIndex:idx_class_student;not null" json:"studentId"`
}

// Badge is awarded by a teacher against a student's assignment work.
// swagger:model Badge
type Badge struct {
	BaseModel
	StudentID    uint   `gorm:"index;not null" json:"studentId"`
	AssignmentID uint   `gorm:"index;not null" json:"assignmentId"`
	AwardedBy    uint   `gorm:"not null" json:"awardedBy"`
	BadgeType    string `gorm:"size:50;not null" json:"badgeType"`
}

func (Class) TableName() string {
	return "classes"
}

func (Assignment) TableName() string {
	return "assignments"
}

func (ClassEnrollment) TableName() string {
	return "class_enrollments"
}

func (Badge) TableName() string {
	return "badges"
}
