package repository

import (
	"classpulse_backend/internal/model"

	"gorm.io/gorm"
)

type RosterRepository struct {
	DB *gorm.DB
}

func NewRosterRepository(db *gorm.DB) *RosterRepository {
	return &RosterRepository{DB: db}
}

func (r *RosterRepository) CreateClass(class *model.Class) error {
	return r.DB.Create(class).Error
}

func (r *RosterRepository) FindClass(id uint) (*model.Class, error) {
	var class model.Class
	err := r.DB.First(&class, id).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *RosterRepository) ListClassesByTeacher(teacherID uint) ([]model.Class, error) {
	var classes []model.Class
	err := r.DB.Where("teacher_id = ?", teacherID).Find(&classes).Error
	return classes, err
}

func (r *RosterRepository) CreateAssignment(assignment *model.Assignment) error {
	return r.DB.Create(assignment).Error
}

func (r *RosterRepository) FindAssignment(id uint) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.DB.First(&assignment, id).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *RosterRepository) ListAssignmentsByClassIDs(classIDs []uint) ([]model.Assignment, error) {
	var assignments []model.Assignment
	if len(classIDs) == 0 {
		return assignments, nil
	}
	err := r.DB.Where("class_id IN ?", classIDs).Find(&assignments).Error
	return assignments, err
}

func (r *RosterRepository) Enroll(enrollment *model.ClassEnrollment) error {
	return r.DB.Create(enrollment).Error
}

func (r *RosterRepository) ListStudentIDsByClass(classID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.ClassEnrollment{}).Where("class_id = ?", classID).Pluck("student_id", &ids).Error
	return ids, err
}

func (r *RosterRepository) CreateBadge(badge *model.Badge) error {
	return r.DB.Create(badge).Error
}
