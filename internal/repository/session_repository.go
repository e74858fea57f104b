package repository

import (
	"classpulse_backend/internal/model"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(session *model.LearningSession) error {
	return r.DB.Create(session).Error
}

func (r *SessionRepository) ListCompletedByAssignmentIDs(assignmentIDs []uint) ([]model.LearningSession, error) {
	var sessions []model.LearningSession
	if len(assignmentIDs) == 0 {
		return sessions, nil
	}
	err := r.DB.Where("assignment_id IN ? AND completed_at IS NOT NULL", assignmentIDs).
		Order("completed_at asc").Find(&sessions).Error
	return sessions, err
}

// LatestCompleted returns the most recent completed session for a (student,
// assignment) pair, or gorm.ErrRecordNotFound.
func (r *SessionRepository) LatestCompleted(studentID, assignmentID uint) (*model.LearningSession, error) {
	var session model.LearningSession
	err := r.DB.Where("student_id = ? AND assignment_id = ? AND completed_at IS NOT NULL", studentID, assignmentID).
		Order("completed_at desc").First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) AddNote(note *model.SessionNote) error {
	return r.DB.Create(note).Error
}

func (r *SessionRepository) ListNotes(sessionID uint, kind model.SessionNoteKind) ([]model.SessionNote, error) {
	var notes []model.SessionNote
	query := r.DB.Where("session_id = ?", sessionID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	err := query.Order("created_at asc").Find(&notes).Error
	return notes, err
}

// RemoveNoteByLabel deletes the system note whose label matches exactly.
// Content outside system-authored entries is never touched.
func (r *SessionRepository) RemoveNoteByLabel(sessionID uint, label string) error {
	return r.DB.Unscoped().
		Where("session_id = ? AND kind = ? AND label = ?", sessionID, model.NoteKindSystem, label).
		Delete(&model.SessionNote{}).Error
}
