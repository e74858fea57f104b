package service

import (
	"classpulse_backend/internal/model"
	"classpulse_backend/internal/repository"
	"classpulse_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type TodoService struct {
	TodoRepo    *repository.TodoRepository
	InsightRepo *repository.InsightRepository
	Sync        *SyncService
}

func NewTodoService(
	todoRepo *repository.TodoRepository,
	insightRepo *repository.InsightRepository,
	sync *SyncService,
) *TodoService {
	return &TodoService{
		TodoRepo:    todoRepo,
		InsightRepo: insightRepo,
		Sync:        sync,
	}
}

func (s *TodoService) findOwned(todoID, teacherID uint) (*model.TeacherTodo, error) {
	todo, err := s.TodoRepo.FindByID(todoID)
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrTodoNotFound
	} else if err != nil {
		return nil, err
	}
	if todo.TeacherID != teacherID {
		return nil, util.ErrPermissionDenied
	}
	return todo, nil
}

// Complete moves an open todo to done and lets the synchronizer append the
// system session note and recompute the assignment's review state.
func (s *TodoService) Complete(todoID, teacherID uint) (*model.TeacherTodo, error) {
	todo, err := s.findOwned(todoID, teacherID)
	if err != nil {
		return nil, err
	}
	if todo.Status != model.TodoOpen {
		return nil, util.ErrTodoNotCompletable
	}

	now := time.Now()
	todo.Status = model.TodoDone
	todo.DoneAt = &now
	if err := s.TodoRepo.Save(todo); err != nil {
		return nil, err
	}

	if err := s.Sync.OnTodoCompleted(todo); err != nil {
		return nil, err
	}
	return todo, nil
}

// Reopen moves a done todo back to open, removing the system note that
// completion appended. The note label is rebuilt from DoneAt before it is
// cleared, so the removal matches byte for byte.
func (s *TodoService) Reopen(todoID, teacherID uint) (*model.TeacherTodo, error) {
	todo, err := s.findOwned(todoID, teacherID)
	if err != nil {
		return nil, err
	}
	if todo.Status != model.TodoDone || todo.DoneAt == nil {
		return nil, util.ErrTodoNotReopenable
	}

	doneAt := *todo.DoneAt
	todo.Status = model.TodoOpen
	todo.DoneAt = nil
	if err := s.TodoRepo.Save(todo); err != nil {
		return nil, err
	}

	if err := s.Sync.OnTodoReopened(todo, doneAt); err != nil {
		return nil, err
	}
	return todo, nil
}

// Delete removes a todo. When reactivateInsight is set and the source
// insight is in a non-active state, it resurfaces as active so the teacher
// sees it again.
func (s *TodoService) Delete(todoID, teacherID uint, reactivateInsight bool) error {
	todo, err := s.findOwned(todoID, teacherID)
	if err != nil {
		return err
	}

	sa, err := s.Sync.StudentAssignmentRepo.FindByID(todo.StudentAssignmentID)
	if err != nil {
		return err
	}

	if err := s.TodoRepo.Delete(todo.ID); err != nil {
		return err
	}

	if reactivateInsight {
		insight, err := s.InsightRepo.FindByID(todo.InsightID)
		if err == nil && insight.CanTransition(model.InsightActive) {
			insight.Status = model.InsightActive
			insight.ResolvedAt = nil
			if err := s.InsightRepo.Save(insight); err != nil {
				return err
			}
		}
	}

	return s.Sync.RecomputeReviewState(sa)
}

func (s *TodoService) ListByTeacher(teacherID uint) ([]model.TeacherTodo, error) {
	return s.TodoRepo.ListByTeacher(teacherID)
}

// TodoGroup is one bucket of a grouped todo listing with its live counts.
type TodoGroup struct {
	Key       string              `json:"key"`
	OpenCount int                 `json:"openCount"`
	DoneCount int                 `json:"doneCount"`
	Todos     []model.TeacherTodo `json:"todos"`
}

// Grouped buckets the teacher's todos by class, subject, assignment, or
// student. Superseded todos are excluded from counts and listings.
func (s *TodoService) Grouped(teacherID uint, groupBy string) ([]TodoGroup, error) {
	todos, err := s.TodoRepo.ListByTeacher(teacherID)
	if err != nil {
		return nil, err
	}

	keyOf := func(t model.TeacherTodo) string {
		switch groupBy {
		case "subject":
			return t.Subject
		case "assignment":
			return t.AssignmentTitle
		case "student":
			return t.StudentName
		default:
			return t.ClassName
		}
	}

	index := make(map[string]int)
	var groups []TodoGroup
	for _, todo := range todos {
		if todo.Status == model.TodoSuperseded {
			continue
		}
		key := keyOf(todo)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, TodoGroup{Key: key})
		}
		groups[i].Todos = append(groups[i].Todos, todo)
		if todo.Status == model.TodoOpen {
			groups[i].OpenCount++
		} else {
			groups[i].DoneCount++
		}
	}
	return groups, nil
}
