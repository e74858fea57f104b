package service

import (
	"classpulse_backend/internal/model"
	"classpulse_backend/internal/repository"
	"classpulse_backend/internal/util"
	"fmt"

	"gorm.io/gorm"
)

type SettingsService struct {
	SettingsRepo *repository.SettingsRepository
}

func NewSettingsService(settingsRepo *repository.SettingsRepository) *SettingsService {
	return &SettingsService{SettingsRepo: settingsRepo}
}

// Resolve returns the teacher's thresholds with defaults merged in; a
// teacher with no saved row gets the platform defaults.
func (s *SettingsService) Resolve(teacherID uint) (model.TeacherThresholdSettings, error) {
	settings, err := s.SettingsRepo.FindByTeacher(teacherID)
	if err == gorm.ErrRecordNotFound {
		return model.DefaultThresholds(), nil
	} else if err != nil {
		return model.TeacherThresholdSettings{}, err
	}
	return settings.MergeDefaults(), nil
}

// Update validates and persists the teacher's thresholds. Validation runs
// against the defaults-merged view and rejects before anything is saved.
func (s *SettingsService) Update(teacherID uint, settings model.TeacherThresholdSettings) (model.TeacherThresholdSettings, error) {
	settings.TeacherID = teacherID
	merged := settings.MergeDefaults()
	if err := ValidateThresholds(merged); err != nil {
		return model.TeacherThresholdSettings{}, err
	}
	if err := s.SettingsRepo.Upsert(&settings); err != nil {
		return model.TeacherThresholdSettings{}, err
	}
	return merged, nil
}

// ValidateThresholds enforces the numeric ranges and the cross-field
// ordering: struggling < developing < excelling, ratios within [0,1].
func ValidateThresholds(t model.TeacherThresholdSettings) error {
	scoreFields := map[string]int{
		"strugglingScoreMax": t.StrugglingScoreMax,
		"developingScoreMax": t.DevelopingScoreMax,
		"excellingScoreMin":  t.ExcellingScoreMin,
	}
	for name, v := range scoreFields {
		if v < 1 || v > 100 {
			return fmt.Errorf("%w: %s must be within 1-100", util.ErrInvalidThresholds, name)
		}
	}

	ratioFields := map[string]float64{
		"heavyHintRatio":   t.HeavyHintRatio,
		"minimalHintRatio": t.MinimalHintRatio,
		"highHintRatio":    t.HighHintRatio,
	}
	for name, v := range ratioFields {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be within 0-1", util.ErrInvalidThresholds, name)
		}
	}

	if t.StrugglingScoreMax >= t.DevelopingScoreMax {
		return fmt.Errorf("%w: strugglingScoreMax must stay below developingScoreMax", util.ErrInvalidThresholds)
	}
	if t.DevelopingScoreMax >= t.ExcellingScoreMin {
		return fmt.Errorf("%w: developingScoreMax must stay below excellingScoreMin", util.ErrInvalidThresholds)
	}
	if t.ImprovementDelta < 1 || t.GroupStrugglingMin < 1 || t.EscalationHelpCount < 1 || t.StaleAssignmentDays < 1 {
		return fmt.Errorf("%w: counts must be positive", util.ErrInvalidThresholds)
	}
	return nil
}
