package service

import (
	"classpulse_backend/internal/model"
	"classpulse_backend/internal/repository"
	"classpulse_backend/pkg/logger"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Log = zap.NewNop()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Class{},
		&model.Assignment{},
		&model.ClassEnrollment{},
		&model.Badge{},
		&model.LearningSession{},
		&model.SessionNote{},
		&model.StudentAssignment{},
		&model.Insight{},
		&model.ActionOutcome{},
		&model.TeacherTodo{},
		&model.TeacherThresholdSettings{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// testEnv wires the full service graph over one in-memory database, the way
// the app does it, minus redis.
type testEnv struct {
	db *gorm.DB

	users              *repository.UserRepository
	roster             *repository.RosterRepository
	sessions           *repository.SessionRepository
	insights           *repository.InsightRepository
	outcomes           *repository.OutcomeRepository
	todos              *repository.TodoRepository
	studentAssignments *repository.StudentAssignmentRepository
	settingsRepo       *repository.SettingsRepository

	settings  *SettingsService
	detection *DetectionService
	sync      *SyncService
	actions   *ActionService
	insight   *InsightService
	todo      *TodoService
	attention *AttentionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	env := &testEnv{
		db:                 db,
		users:              repository.NewUserRepository(db),
		roster:             repository.NewRosterRepository(db),
		sessions:           repository.NewSessionRepository(db),
		insights:           repository.NewInsightRepository(db),
		outcomes:           repository.NewOutcomeRepository(db),
		todos:              repository.NewTodoRepository(db),
		studentAssignments: repository.NewStudentAssignmentRepository(db),
		settingsRepo:       repository.NewSettingsRepository(db),
	}

	env.settings = NewSettingsService(env.settingsRepo)
	aggregator := NewAggregatorService(env.roster, env.sessions, env.users)
	env.detection = NewDetectionService(env.insights, aggregator, env.settings)
	env.sync = NewSyncService(env.todos, env.studentAssignments, env.sessions)
	env.actions = NewActionService(env.roster, env.studentAssignments, env.sessions, env.sync)
	env.insight = NewInsightService(
		env.insights, env.outcomes, env.todos, env.studentAssignments,
		env.roster, env.users, env.actions, env.sync,
	)
	env.todo = NewTodoService(env.todos, env.insights, env.sync)
	env.attention = NewAttentionService(env.insights, env.roster, env.settings, nil)
	return env
}

func (e *testEnv) createUser(t *testing.T, name string, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{Name: name, Email: name + "@test.local", Password: "x", Role: role}
	if err := e.users.Create(user); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func (e *testEnv) createClass(t *testing.T, teacherID uint, name string, studentIDs ...uint) *model.Class {
	t.Helper()
	class := &model.Class{TeacherID: teacherID, Name: name, Subject: "Math"}
	if err := e.roster.CreateClass(class); err != nil {
		t.Fatalf("create class: %v", err)
	}
	for _, id := range studentIDs {
		if err := e.roster.Enroll(&model.ClassEnrollment{ClassID: class.ID, StudentID: id}); err != nil {
			t.Fatalf("enroll student %d: %v", id, err)
		}
	}
	return class
}

func (e *testEnv) createAssignment(t *testing.T, classID uint, title string, assignedAt time.Time) *model.Assignment {
	t.Helper()
	assignment := &model.Assignment{ClassID: classID, Title: title, AssignedAt: assignedAt}
	if err := e.roster.CreateAssignment(assignment); err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	return assignment
}

func (e *testEnv) createCompletedSession(t *testing.T, studentID, assignmentID uint, score int, hintFlags []bool) *model.LearningSession {
	t.Helper()
	completedAt := time.Now().Add(-time.Hour)
	session := &model.LearningSession{
		StudentID:    studentID,
		AssignmentID: assignmentID,
		Score:        score,
		CompletedAt:  &completedAt,
	}
	for _, f := range hintFlags {
		session.HintFlags = append(session.HintFlags, f)
	}
	if err := e.sessions.Create(session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session
}
