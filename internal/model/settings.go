package model

// TeacherThresholdSettings holds the tunable cutoffs that parameterize rule
// evaluation and attention classification. Teacher-scoped; zero-valued fields
// fall back to defaults when resolved.
// swagger:model TeacherThresholdSettings
type TeacherThresholdSettings struct {
	BaseModel
	TeacherID uint `gorm:"uniqueIndex;not null" json:"teacherId"`

	StrugglingScoreMax int `gorm:"default:0" json:"strugglingScoreMax"` // below this a student is struggling
	DevelopingScoreMax int `gorm:"default:0" json:"developingScoreMax"` // below this (and above struggling) a student is developing
	ExcellingScoreMin  int `gorm:"default:0" json:"excellingScoreMin"`

	HeavyHintRatio   float64 `gorm:"default:0" json:"heavyHintRatio"`   // rule trigger
	MinimalHintRatio float64 `gorm:"default:0" json:"minimalHintRatio"` // below this counts as working unaided
	HighHintRatio    float64 `gorm:"default:0" json:"highHintRatio"`    // attention elevation

	ImprovementDelta    int `gorm:"default:0" json:"improvementDelta"`
	GroupStrugglingMin  int `gorm:"default:0" json:"groupStrugglingMin"`
	EscalationHelpCount int `gorm:"default:0" json:"escalationHelpCount"`
	StaleAssignmentDays int `gorm:"default:0" json:"staleAssignmentDays"`
}

func (TeacherThresholdSettings) TableName() string {
	return "teacher_threshold_settings"
}

// DefaultThresholds returns the platform defaults applied when a teacher has
// no saved settings (or has left fields unset).
func DefaultThresholds() TeacherThresholdSettings {
	return TeacherThresholdSettings{
		StrugglingScoreMax:  40,
		DevelopingScoreMax:  70,
		ExcellingScoreMin:   85,
		HeavyHintRatio:      0.5,
		MinimalHintRatio:    0.1,
		HighHintRatio:       0.5,
		ImprovementDelta:    15,
		GroupStrugglingMin:  3,
		EscalationHelpCount: 3,
		StaleAssignmentDays: 3,
	}
}

// MergeDefaults fills zero-valued fields from the platform defaults.
func (t TeacherThresholdSettings) MergeDefaults() TeacherThresholdSettings {
	d := DefaultThresholds()
	if t.StrugglingScoreMax == 0 {
		t.StrugglingScoreMax = d.StrugglingScoreMax
	}
	if t.DevelopingScoreMax == 0 {
		t.DevelopingScoreMax = d.DevelopingScoreMax
	}
	if t.ExcellingScoreMin == 0 {
		t.ExcellingScoreMin = d.ExcellingScoreMin
	}
	if t.HeavyHintRatio == 0 {
		t.HeavyHintRatio = d.HeavyHintRatio
	}
	if t.MinimalHintRatio == 0 {
		t.MinimalHintRatio = d.MinimalHintRatio
	}
	if t.HighHintRatio == 0 {
		t.HighHintRatio = d.HighHintRatio
	}
	if t.ImprovementDelta == 0 {
		t.ImprovementDelta = d.ImprovementDelta
	}
	if t.GroupStrugglingMin == 0 {
		t.GroupStrugglingMin = d.GroupStrugglingMin
	}
	if t.EscalationHelpCount == 0 {
		t.EscalationHelpCount = d.EscalationHelpCount
	}
	if t.StaleAssignmentDays == 0 {
		t.StaleAssignmentDays = d.StaleAssignmentDays
	}
	return t
}
