package service

import (
	"classpulse_backend/internal/model"
	"classpulse_backend/internal/repository"
	"classpulse_backend/internal/util"
)

// ActionService executes the system-side checklist actions (reassign, award
// badge) on behalf of the insight lifecycle. The lifecycle only needs the
// success/failure and the ids handed back for outcome linkage.
type ActionService struct {
	RosterRepo            *repository.RosterRepository
	StudentAssignmentRepo *repository.StudentAssignmentRepository
	SessionRepo           *repository.SessionRepository
	Sync                  *SyncService
}

func NewActionService(
	rosterRepo *repository.RosterRepository,
	studentAssignmentRepo *repository.StudentAssignmentRepository,
	sessionRepo *repository.SessionRepository,
	sync *SyncService,
) *ActionService {
	return &ActionService{
		RosterRepo:            rosterRepo,
		StudentAssignmentRepo: studentAssignmentRepo,
		SessionRepo:           sessionRepo,
		Sync:                  sync,
	}
}

// Reassign resets the student's assignment for another attempt and returns
// the score being replaced (for the outcome's audit metadata).
func (s *ActionService) Reassign(studentID, assignmentID uint) (previousScore *int, err error) {
	sa, err := s.StudentAssignmentRepo.FindOrCreate(studentID, assignmentID)
	if err != nil {
		return nil, err
	}

	session, err := s.SessionRepo.LatestCompleted(studentID, assignmentID)
	if err == nil {
		score := session.Score
		previousScore = &score
	}

	sa.Attempts++
	sa.CompletedAt = nil
	sa.ReviewedAt = nil
	if err := s.Sync.RecomputeReviewState(sa); err != nil {
		return nil, err
	}
	return previousScore, nil
}

// AwardBadge creates the badge, attaches it to the student assignment, and
// recomputes review state, returning the badge id for outcome linkage.
func (s *ActionService) AwardBadge(teacherID, studentID, assignmentID uint, badgeType string) (uint, error) {
	badge := &model.Badge{
		StudentID:    studentID,
		AssignmentID: assignmentID,
		AwardedBy:    teacherID,
		BadgeType:    badgeType,
	}
	if err := s.RosterRepo.CreateBadge(badge); err != nil {
		return 0, err
	}

	sa, err := s.StudentAssignmentRepo.FindOrCreate(studentID, assignmentID)
	if err != nil {
		return 0, err
	}
	sa.BadgeIDs = append(sa.BadgeIDs, badge.ID)
	if err := s.Sync.RecomputeReviewState(sa); err != nil {
		return 0, err
	}
	return badge.ID, nil
}

// AddTeacherNote appends a teacher-authored note to the student's latest
// completed session. Unlike system notes, it is never removed by the
// synchronizer.
func (s *ActionService) AddTeacherNote(studentID, assignmentID uint, text string) error {
	session, err := s.SessionRepo.LatestCompleted(studentID, assignmentID)
	if err != nil {
		return util.ErrAssignmentNotFound
	}
	return s.SessionRepo.AddNote(&model.SessionNote{
		SessionID: session.ID,
		Kind:      model.NoteKindTeacher,
		Label:     text,
	})
}
