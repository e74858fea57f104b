package repository

import (
	"classpulse_backend/internal/model"

	"gorm.io/gorm"
)

type SettingsRepository struct {
	DB *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{DB: db}
}

func (r *SettingsRepository) FindByTeacher(teacherID uint) (*model.TeacherThresholdSettings, error) {
	var settings model.TeacherThresholdSettings
	err := r.DB.Where("teacher_id = ?", teacherID).First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *SettingsRepository) Upsert(settings *model.TeacherThresholdSettings) error {
	var existing model.TeacherThresholdSettings
	err := r.DB.Where("teacher_id = ?", settings.TeacherID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.DB.Create(settings).Error
	} else if err != nil {
		return err
	}
	settings.ID = existing.ID
	settings.CreatedAt = existing.CreatedAt
	return r.DB.Save(settings).Error
}
