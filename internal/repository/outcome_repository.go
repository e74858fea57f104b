package repository

import (
	"classpulse_backend/internal/model"

	"gorm.io/gorm"
)

type OutcomeRepository struct {
	DB *gorm.DB
}

func NewOutcomeRepository(db *gorm.DB) *OutcomeRepository {
	return &OutcomeRepository{DB: db}
}

// Create persists the outcome. Outcomes are append-only; there is no update.
func (r *OutcomeRepository) Create(outcome *model.ActionOutcome) error {
	return r.DB.Create(outcome).Error
}

func (r *OutcomeRepository) FindByID(id string) (*model.ActionOutcome, error) {
	var outcome model.ActionOutcome
	err := r.DB.Where("id = ?", id).First(&outcome).Error
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (r *OutcomeRepository) ListByInsight(insightID uint) ([]model.ActionOutcome, error) {
	var outcomes []model.ActionOutcome
	err := r.DB.Where("insight_id = ?", insightID).Order("created_at asc").Find(&outcomes).Error
	return outcomes, err
}
