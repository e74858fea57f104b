package repository

import (
	"classpulse_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type InsightRepository struct {
	DB *gorm.DB
}

func NewInsightRepository(db *gorm.DB) *InsightRepository {
	return &InsightRepository{DB: db}
}

func (r *InsightRepository) Create(insight *model.Insight) error {
	return r.DB.Create(insight).Error
}

func (r *InsightRepository) Save(insight *model.Insight) error {
	return r.DB.Save(insight).Error
}

func (r *InsightRepository) FindByID(id uint) (*model.Insight, error) {
	var insight model.Insight
	err := r.DB.First(&insight, id).Error
	if err != nil {
		return nil, err
	}
	return &insight, nil
}

// ExistsEquivalent is the dedup guard: it reports whether the teacher already
// has an insight with the same scope key in any regeneration-blocking status.
func (r *InsightRepository) ExistsEquivalent(teacherID uint, scopeKey string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Insight{}).
		Where("teacher_id = ? AND scope_key = ? AND status IN ?", teacherID, scopeKey, model.DedupStatuses).
		Count(&count).Error
	return count > 0, err
}

// InsightFilter narrows teacher insight listings. Zero values are ignored.
type InsightFilter struct {
	Status       model.InsightStatus
	AssignmentID uint
}

// ListByTeacher returns the teacher's insights ordered by priority desc with
// creation time then id ascending as the tie-break.
func (r *InsightRepository) ListByTeacher(teacherID uint, filter InsightFilter) ([]model.Insight, error) {
	var insights []model.Insight
	query := r.DB.Where("teacher_id = ?", teacherID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AssignmentID != 0 {
		query = query.Where("assignment_id = ?", filter.AssignmentID)
	}
	err := query.Order("priority desc, created_at asc, id asc").Find(&insights).Error
	return insights, err
}

func (r *InsightRepository) ListByTeacherAndStatuses(teacherID uint, statuses []model.InsightStatus) ([]model.Insight, error) {
	var insights []model.Insight
	err := r.DB.Where("teacher_id = ? AND status IN ?", teacherID, statuses).
		Order("priority desc, created_at asc, id asc").Find(&insights).Error
	return insights, err
}

// ListActiveByAssignment returns active insights for one assignment; the
// caller filters by student membership in memory.
func (r *InsightRepository) ListActiveByAssignment(teacherID, assignmentID uint) ([]model.Insight, error) {
	var insights []model.Insight
	err := r.DB.Where("teacher_id = ? AND assignment_id = ? AND status = ?", teacherID, assignmentID, model.InsightActive).
		Find(&insights).Error
	return insights, err
}

// PruneTerminal hard-deletes terminal insights created before the cutoff so
// their scope keys stop blocking regeneration.
func (r *InsightRepository) PruneTerminal(before time.Time) (int64, error) {
	result := r.DB.Unscoped().
		Where("status IN ? AND created_at < ?", model.PrunableStatuses, before).
		Delete(&model.Insight{})
	return result.RowsAffected, result.Error
}
