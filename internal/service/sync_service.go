package service

import (
	"classpulse_backend/internal/model"
	"classpulse_backend/internal/repository"
	"classpulse_backend/internal/util"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SyncService keeps the records hanging off an insight lifecycle mutually
// consistent: the student-assignment review state and the system-authored
// session notes. Every mutation path recomputes review state through
// DeriveReviewState; nothing hand-sets it.
type SyncService struct {
	TodoRepo              *repository.TodoRepository
	StudentAssignmentRepo *repository.StudentAssignmentRepository
	SessionRepo           *repository.SessionRepository
}

func NewSyncService(
	todoRepo *repository.TodoRepository,
	studentAssignmentRepo *repository.StudentAssignmentRepository,
	sessionRepo *repository.SessionRepository,
) *SyncService {
	return &SyncService{
		TodoRepo:              todoRepo,
		StudentAssignmentRepo: studentAssignmentRepo,
		SessionRepo:           sessionRepo,
	}
}

// DeriveReviewState is the single derivation point for a student
// assignment's review state. Pure: for fixed inputs the result is
// deterministic and call-order independent. Precedence: an open linked todo
// schedules a follow-up; a badge or a completed todo resolves; a bare review
// stays reviewed; otherwise completion decides pending vs not started.
func DeriveReviewState(completedAt, reviewedAt *time.Time, openTodos, doneTodos int, hasBadge bool) model.ReviewState {
	if openTodos > 0 {
		return model.ReviewFollowupScheduled
	}
	if hasBadge || doneTodos > 0 {
		return model.ReviewResolved
	}
	if reviewedAt != nil {
		return model.ReviewReviewed
	}
	if completedAt != nil {
		return model.ReviewPending
	}
	return model.ReviewNotStarted
}

// RecomputeReviewState reloads the live todo counts for the projection and
// rewrites its review state.
func (s *SyncService) RecomputeReviewState(sa *model.StudentAssignment) error {
	open, done, err := s.TodoRepo.CountByStudentAssignment(sa.ID)
	if err != nil {
		return err
	}
	sa.ReviewState = DeriveReviewState(sa.CompletedAt, sa.ReviewedAt, int(open), int(done), sa.HasBadge())
	return s.StudentAssignmentRepo.Save(sa)
}

// SystemNoteLabel renders the note text appended when a todo is completed.
// Reopening removes the note by this exact label, so it must be derived only
// from values stable across the complete/reopen window.
func SystemNoteLabel(todo *model.TeacherTodo, doneAt time.Time) string {
	return fmt.Sprintf("[System · %s] %s", doneAt.Format(util.DateFormat), todo.Label)
}

// OnTodoCompleted appends a system note to the most recent completed session
// of the linked (assignment, student) pair, then recomputes review state.
// A pair with no completed session just skips the note.
func (s *SyncService) OnTodoCompleted(todo *model.TeacherTodo) error {
	sa, err := s.StudentAssignmentRepo.FindByID(todo.StudentAssignmentID)
	if err != nil {
		return err
	}

	session, err := s.SessionRepo.LatestCompleted(sa.StudentID, sa.AssignmentID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if session != nil {
		note := &model.SessionNote{
			SessionID: session.ID,
			Kind:      model.NoteKindSystem,
			Label:     SystemNoteLabel(todo, *todo.DoneAt),
		}
		if err := s.SessionRepo.AddNote(note); err != nil {
			return err
		}
	}

	return s.RecomputeReviewState(sa)
}

// OnTodoReopened removes the system note appended on completion (matched by
// its exact label) and recomputes review state. doneAt is the completion
// timestamp the note was rendered with.
func (s *SyncService) OnTodoReopened(todo *model.TeacherTodo, doneAt time.Time) error {
	sa, err := s.StudentAssignmentRepo.FindByID(todo.StudentAssignmentID)
	if err != nil {
		return err
	}

	session, err := s.SessionRepo.LatestCompleted(sa.StudentID, sa.AssignmentID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if session != nil {
		if err := s.SessionRepo.RemoveNoteByLabel(session.ID, SystemNoteLabel(todo, doneAt)); err != nil {
			return err
		}
	}

	return s.RecomputeReviewState(sa)
}
