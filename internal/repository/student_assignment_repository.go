package repository

import (
	"classpulse_backend/internal/model"

	"gorm.io/gorm"
)

type StudentAssignmentRepository struct {
	DB *gorm.DB
}

func NewStudentAssignmentRepository(db *gorm.DB) *StudentAssignmentRepository {
	return &StudentAssignmentRepository{DB: db}
}

func (r *StudentAssignmentRepository) Find(studentID, assignmentID uint) (*model.StudentAssignment, error) {
	var sa model.StudentAssignment
	err := r.DB.Where("student_id = ? AND assignment_id = ?", studentID, assignmentID).First(&sa).Error
	if err != nil {
		return nil, err
	}
	return &sa, nil
}

// FindOrCreate returns the projection for the pair, creating an empty
// not_started row on first touch.
func (r *StudentAssignmentRepository) FindOrCreate(studentID, assignmentID uint) (*model.StudentAssignment, error) {
	sa, err := r.Find(studentID, assignmentID)
	if err == gorm.ErrRecordNotFound {
		sa = &model.StudentAssignment{
			StudentID:    studentID,
			AssignmentID: assignmentID,
			ReviewState:  model.ReviewNotStarted,
		}
		if err := r.DB.Create(sa).Error; err != nil {
			return nil, err
		}
		return sa, nil
	}
	return sa, err
}

func (r *StudentAssignmentRepository) FindByID(id uint) (*model.StudentAssignment, error) {
	var sa model.StudentAssignment
	err := r.DB.First(&sa, id).Error
	if err != nil {
		return nil, err
	}
	return &sa, nil
}

func (r *StudentAssignmentRepository) Save(sa *model.StudentAssignment) error {
	return r.DB.Save(sa).Error
}

func (r *StudentAssignmentRepository) ListByAssignment(assignmentID uint) ([]model.StudentAssignment, error) {
	var sas []model.StudentAssignment
	err := r.DB.Where("assignment_id = ?", assignmentID).Find(&sas).Error
	return sas, err
}
