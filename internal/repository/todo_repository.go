package repository

import (
	"classpulse_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type TodoRepository struct {
	DB *gorm.DB
}

func NewTodoRepository(db *gorm.DB) *TodoRepository {
	return &TodoRepository{DB: db}
}

func (r *TodoRepository) CreateBatch(todos []model.TeacherTodo) error {
	if len(todos) == 0 {
		return nil
	}
	return r.DB.Create(&todos).Error
}

func (r *TodoRepository) FindByID(id uint) (*model.TeacherTodo, error) {
	var todo model.TeacherTodo
	err := r.DB.First(&todo, id).Error
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

func (r *TodoRepository) Save(todo *model.TeacherTodo) error {
	return r.DB.Save(todo).Error
}

func (r *TodoRepository) Delete(id uint) error {
	return r.DB.Delete(&model.TeacherTodo{}, id).Error
}

func (r *TodoRepository) ListByTeacher(teacherID uint) ([]model.TeacherTodo, error) {
	var todos []model.TeacherTodo
	err := r.DB.Where("teacher_id = ?", teacherID).Order("created_at desc").Find(&todos).Error
	return todos, err
}

func (r *TodoRepository) ListByInsight(insightID uint) ([]model.TeacherTodo, error) {
	var todos []model.TeacherTodo
	err := r.DB.Where("insight_id = ?", insightID).Find(&todos).Error
	return todos, err
}

// CountByStudentAssignment returns open and done counts for the linked
// student assignment. Superseded todos are historical only and excluded.
func (r *TodoRepository) CountByStudentAssignment(studentAssignmentID uint) (open int64, done int64, err error) {
	err = r.DB.Model(&model.TeacherTodo{}).
		Where("student_assignment_id = ? AND status = ?", studentAssignmentID, model.TodoOpen).
		Count(&open).Error
	if err != nil {
		return 0, 0, err
	}
	err = r.DB.Model(&model.TeacherTodo{}).
		Where("student_assignment_id = ? AND status = ?", studentAssignmentID, model.TodoDone).
		Count(&done).Error
	return open, done, err
}

// SupersedeByStudentAssignment marks every live todo on the student
// assignment historical-only. Rows are kept, not deleted.
func (r *TodoRepository) SupersedeByStudentAssignment(studentAssignmentID uint) error {
	now := time.Now()
	return r.DB.Model(&model.TeacherTodo{}).
		Where("student_assignment_id = ? AND status IN ?", studentAssignmentID, []model.TodoStatus{model.TodoOpen, model.TodoDone}).
		Updates(map[string]interface{}{"status": model.TodoSuperseded, "superseded_at": now}).Error
}
