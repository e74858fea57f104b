package service

import (
	"classpulse_backend/internal/model"
	"classpulse_backend/internal/repository"
	"classpulse_backend/internal/util"
	"classpulse_backend/pkg/monitoring"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InsightService owns the canonical insight lifecycle and the teacher
// actions that drive it. Every status change goes through the transition
// table on the model; cross-entity effects go through the synchronizer.
type InsightService struct {
	InsightRepo           *repository.InsightRepository
	OutcomeRepo           *repository.OutcomeRepository
	TodoRepo              *repository.TodoRepository
	StudentAssignmentRepo *repository.StudentAssignmentRepository
	RosterRepo            *repository.RosterRepository
	UserRepo              *repository.UserRepository
	Actions               *ActionService
	Sync                  *SyncService
}

func NewInsightService(
	insightRepo *repository.InsightRepository,
	outcomeRepo *repository.OutcomeRepository,
	todoRepo *repository.TodoRepository,
	studentAssignmentRepo *repository.StudentAssignmentRepository,
	rosterRepo *repository.RosterRepository,
	userRepo *repository.UserRepository,
	actions *ActionService,
	sync *SyncService,
) *InsightService {
	return &InsightService{
		InsightRepo:           insightRepo,
		OutcomeRepo:           outcomeRepo,
		TodoRepo:              todoRepo,
		StudentAssignmentRepo: studentAssignmentRepo,
		RosterRepo:            rosterRepo,
		UserRepo:              userRepo,
		Actions:               actions,
		Sync:                  sync,
	}
}

func (s *InsightService) findOwned(insightID, teacherID uint) (*model.Insight, error) {
	insight, err := s.InsightRepo.FindByID(insightID)
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrInsightNotFound
	} else if err != nil {
		return nil, err
	}
	if insight.TeacherID != teacherID {
		return nil, util.ErrPermissionDenied
	}
	return insight, nil
}

func (s *InsightService) transition(insight *model.Insight, to model.InsightStatus, now time.Time) error {
	if !insight.CanTransition(to) {
		return util.ErrIllegalTransition
	}
	insight.Status = to
	switch to {
	case model.InsightReviewed:
		insight.ReviewedAt = &now
	case model.InsightResolved:
		insight.ResolvedAt = &now
	case model.InsightActive:
		insight.ResolvedAt = nil
	}
	return s.InsightRepo.Save(insight)
}

func (s *InsightService) List(teacherID uint, filter repository.InsightFilter, studentID uint) ([]model.Insight, error) {
	insights, err := s.InsightRepo.ListByTeacher(teacherID, filter)
	if err != nil {
		return nil, err
	}
	if studentID == 0 {
		return insights, nil
	}
	filtered := insights[:0]
	for _, insight := range insights {
		if insight.HasStudent(studentID) {
			filtered = append(filtered, insight)
		}
	}
	return filtered, nil
}

func (s *InsightService) Get(insightID, teacherID uint) (*model.Insight, error) {
	return s.findOwned(insightID, teacherID)
}

// Review is the legacy acknowledgment: the insight is marked reviewed with
// no structured outcome.
func (s *InsightService) Review(insightID, teacherID uint) (*model.Insight, error) {
	insight, err := s.findOwned(insightID, teacherID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(insight, model.InsightReviewed, time.Now()); err != nil {
		return nil, err
	}
	return insight, nil
}

// Dismiss marks the insight explicitly ignored and records a dismiss
// outcome. The dedup guard keeps an equivalent from regenerating.
func (s *InsightService) Dismiss(insightID, teacherID uint, note string) (*model.Insight, error) {
	insight, err := s.findOwned(insightID, teacherID)
	if err != nil {
		return nil, err
	}
	if !insight.CanTransition(model.InsightDismissed) {
		return nil, util.ErrIllegalTransition
	}

	outcome := &model.ActionOutcome{
		InsightID:        insight.ID,
		ActorID:          teacherID,
		StudentIDs:       insight.StudentIDs,
		AssignmentID:     insight.AssignmentID,
		Actions:          datatypes.NewJSONSlice([]string{string(model.ActionDismiss)}),
		ResolutionStatus: model.ResolutionCompleted,
		Metadata:         datatypes.JSONMap{"note": note},
	}
	if err := s.OutcomeRepo.Create(outcome); err != nil {
		return nil, err
	}

	insight.OutcomeID = &outcome.ID
	if err := s.transition(insight, model.InsightDismissed, time.Now()); err != nil {
		return nil, err
	}
	return insight, nil
}

// Reactivate resurfaces a non-active insight, e.g. after a todo tied to it
// was deleted and the teacher wants it back.
func (s *InsightService) Reactivate(insightID, teacherID uint) (*model.Insight, error) {
	insight, err := s.findOwned(insightID, teacherID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(insight, model.InsightActive, time.Now()); err != nil {
		return nil, err
	}
	return insight, nil
}

// Feedback records the teacher's helpful/not-helpful verdict on an insight.
func (s *InsightService) Feedback(insightID, teacherID uint, helpful bool, note string) (*model.Insight, error) {
	insight, err := s.findOwned(insightID, teacherID)
	if err != nil {
		return nil, err
	}
	insight.FeedbackHelpful = &helpful
	insight.FeedbackNote = note
	if err := s.InsightRepo.Save(insight); err != nil {
		return nil, err
	}
	return insight, nil
}

// ChecklistAction is one entry of a submitted teacher checklist.
type ChecklistAction struct {
	Key       model.ActionType `json:"key" binding:"required"`
	StudentID uint             `json:"studentId"`
	Label     string           `json:"label"`
	BadgeType string           `json:"badgeType"`
	NoteText  string           `json:"noteText"`
}

// SubmitChecklist executes a teacher's checklist against an insight. System
// actions run through the collaborators; soft actions become teacher todos.
// A follow-up-expecting system action (reassign) leaves the insight pending,
// anything else resolves it. Exactly one outcome is created and linked.
func (s *InsightService) SubmitChecklist(insightID, teacherID uint, actions []ChecklistAction) (*model.Insight, *model.ActionOutcome, error) {
	if len(actions) == 0 {
		return nil, nil, util.ErrEmptyChecklist
	}
	insight, err := s.findOwned(insightID, teacherID)
	if err != nil {
		return nil, nil, err
	}

	metadata := datatypes.JSONMap{}
	actionKeys := make([]string, 0, len(actions))
	expectsFollowUp := false
	var todos []model.TeacherTodo

	for _, action := range actions {
		actionKeys = append(actionKeys, string(action.Key))
		studentID := action.StudentID
		if studentID == 0 && len(insight.StudentIDs) == 1 {
			studentID = insight.StudentIDs[0]
		}

		switch {
		case action.Key == model.ActionReassign:
			if insight.AssignmentID == nil || studentID == 0 {
				return nil, nil, util.ErrAssignmentNotFound
			}
			previousScore, err := s.Actions.Reassign(studentID, *insight.AssignmentID)
			if err != nil {
				return nil, nil, err
			}
			if previousScore != nil {
				metadata["previousScore"] = *previousScore
			}
			expectsFollowUp = true

		case action.Key == model.ActionAwardBadge:
			if insight.AssignmentID == nil || studentID == 0 {
				return nil, nil, util.ErrAssignmentNotFound
			}
			badgeID, err := s.Actions.AwardBadge(teacherID, studentID, *insight.AssignmentID, action.BadgeType)
			if err != nil {
				return nil, nil, err
			}
			metadata["badgeType"] = action.BadgeType
			metadata["badgeId"] = badgeID

		default:
			todo, err := s.buildTodo(insight, teacherID, studentID, action)
			if err != nil {
				return nil, nil, err
			}
			todos = append(todos, *todo)
			if action.NoteText != "" {
				metadata["noteText"] = action.NoteText
			}
		}
	}

	if err := s.TodoRepo.CreateBatch(todos); err != nil {
		return nil, nil, err
	}
	for _, todo := range todos {
		sa, err := s.StudentAssignmentRepo.FindByID(todo.StudentAssignmentID)
		if err != nil {
			return nil, nil, err
		}
		sa.TodoIDs = append(sa.TodoIDs, todo.ID)
		if err := s.Sync.RecomputeReviewState(sa); err != nil {
			return nil, nil, err
		}
	}

	resolution := model.ResolutionCompleted
	targetStatus := model.InsightResolved
	if expectsFollowUp {
		resolution = model.ResolutionPending
		targetStatus = model.InsightPending
	} else if len(todos) > 0 {
		resolution = model.ResolutionFollowUpNeeded
	}

	outcome := &model.ActionOutcome{
		InsightID:        insight.ID,
		ActorID:          teacherID,
		StudentIDs:       insight.StudentIDs,
		AssignmentID:     insight.AssignmentID,
		Actions:          datatypes.NewJSONSlice(actionKeys),
		ResolutionStatus: resolution,
		Metadata:         metadata,
	}
	if err := s.OutcomeRepo.Create(outcome); err != nil {
		return nil, nil, err
	}

	insight.OutcomeID = &outcome.ID
	if err := s.transition(insight, targetStatus, time.Now()); err != nil {
		return nil, nil, err
	}
	return insight, outcome, nil
}

// buildTodo materializes a soft checklist action as a teacher todo with its
// denormalized display context.
func (s *InsightService) buildTodo(insight *model.Insight, teacherID, studentID uint, action ChecklistAction) (*model.TeacherTodo, error) {
	if insight.AssignmentID == nil || studentID == 0 {
		return nil, util.ErrAssignmentNotFound
	}

	sa, err := s.StudentAssignmentRepo.FindOrCreate(studentID, *insight.AssignmentID)
	if err != nil {
		return nil, err
	}

	todo := &model.TeacherTodo{
		TeacherID:           teacherID,
		InsightID:           insight.ID,
		StudentAssignmentID: sa.ID,
		ActionKey:           string(action.Key),
		Label:               action.Label,
		Status:              model.TodoOpen,
	}
	if todo.Label == "" {
		todo.Label = string(action.Key)
	}

	if assignment, err := s.RosterRepo.FindAssignment(*insight.AssignmentID); err == nil {
		todo.AssignmentTitle = assignment.Title
		if class, err := s.RosterRepo.FindClass(assignment.ClassID); err == nil {
			todo.ClassName = class.Name
			todo.Subject = class.Subject
		}
	}
	if student, err := s.UserRepo.FindByID(studentID); err == nil {
		todo.StudentName = student.Name
	}
	return todo, nil
}

// MarkAssignmentReviewed records the teacher's review of one student's work
// on an assignment and cascades: every active insight scoped to that exact
// (student, assignment) pair resolves, even ones the review did not name.
func (s *InsightService) MarkAssignmentReviewed(teacherID, studentID, assignmentID uint) (*model.StudentAssignment, error) {
	sa, err := s.StudentAssignmentRepo.FindOrCreate(studentID, assignmentID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	sa.ReviewedAt = &now

	insights, err := s.InsightRepo.ListActiveByAssignment(teacherID, assignmentID)
	if err != nil {
		return nil, err
	}
	for i := range insights {
		insight := insights[i]
		if !insight.HasStudent(studentID) {
			continue
		}
		if err := s.transition(&insight, model.InsightResolved, now); err != nil {
			return nil, err
		}
	}

	if err := s.Sync.RecomputeReviewState(sa); err != nil {
		return nil, err
	}
	return sa, nil
}

// ReopenAssignmentReview clears the review and supersedes the todos hanging
// off the pair, keeping them as history only.
func (s *InsightService) ReopenAssignmentReview(teacherID, studentID, assignmentID uint) (*model.StudentAssignment, error) {
	sa, err := s.StudentAssignmentRepo.Find(studentID, assignmentID)
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrAssignmentNotFound
	} else if err != nil {
		return nil, err
	}

	sa.ReviewedAt = nil
	if err := s.TodoRepo.SupersedeByStudentAssignment(sa.ID); err != nil {
		return nil, err
	}
	if err := s.Sync.RecomputeReviewState(sa); err != nil {
		return nil, err
	}
	return sa, nil
}

// Prune hard-deletes terminal insights older than the retention window,
// clearing their dedup slates.
func (s *InsightService) Prune(retention time.Duration) (int64, error) {
	removed, err := s.InsightRepo.PruneTerminal(time.Now().Add(-retention))
	if err != nil {
		return 0, err
	}
	monitoring.InsightPruneCounter.Add(float64(removed))
	return removed, nil
}
