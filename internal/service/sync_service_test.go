package service

import (
	"classpulse_backend/internal/model"
	"testing"
	"time"
)

func TestDeriveReviewState(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name        string
		completedAt *time.Time
		reviewedAt  *time.Time
		openTodos   int
		doneTodos   int
		hasBadge    bool
		want        model.ReviewState
	}{
		{"untouched", nil, nil, 0, 0, false, model.ReviewNotStarted},
		{"completed awaiting review", &now, nil, 0, 0, false, model.ReviewPending},
		{"reviewed with nothing attached", &now, &now, 0, 0, false, model.ReviewReviewed},
		{"open todo schedules follow-up", &now, &now, 1, 0, false, model.ReviewFollowupScheduled},
		{"open todo wins over badge", &now, &now, 1, 2, true, model.ReviewFollowupScheduled},
		{"done todo resolves", &now, nil, 0, 1, false, model.ReviewResolved},
		{"badge resolves", &now, nil, 0, 0, true, model.ReviewResolved},
		{"badge resolves even unreviewed and incomplete", nil, nil, 0, 0, true, model.ReviewResolved},
	}

	for _, tc := range cases {
		got := DeriveReviewState(tc.completedAt, tc.reviewedAt, tc.openTodos, tc.doneTodos, tc.hasBadge)
		if got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestDeriveReviewStateIsPure(t *testing.T) {
	now := time.Now()
	for i := 0; i < 3; i++ {
		if got := DeriveReviewState(&now, &now, 0, 1, false); got != model.ReviewResolved {
			t.Fatalf("call %d: got %s, want resolved", i, got)
		}
	}
}

func TestTodoCompletionWritesSystemNoteAndReopenRemovesIt(t *testing.T) {
	env := newTestEnv(t)

	teacher := env.createUser(t, "teacher", model.Teacher)
	student := env.createUser(t, "ana", model.Student)
	class := env.createClass(t, teacher.ID, "7A", student.ID)
	assignment := env.createAssignment(t, class.ID, "Fractions Quiz", time.Now().Add(-24*time.Hour))
	session := env.createCompletedSession(t, student.ID, assignment.ID, 40, nil)

	sa, err := env.studentAssignments.FindOrCreate(student.ID, assignment.ID)
	if err != nil {
		t.Fatalf("find or create: %v", err)
	}
	sa.CompletedAt = session.CompletedAt
	if err := env.studentAssignments.Save(sa); err != nil {
		t.Fatalf("save: %v", err)
	}

	todo := model.TeacherTodo{
		TeacherID:           teacher.ID,
		InsightID:           1,
		StudentAssignmentID: sa.ID,
		ActionKey:           "schedule_checkin",
		Label:               "Schedule a 1:1 check-in",
		Status:              model.TodoOpen,
	}
	if err := env.todos.CreateBatch([]model.TeacherTodo{todo}); err != nil {
		t.Fatalf("create todo: %v", err)
	}
	todos, _ := env.todos.ListByTeacher(teacher.ID)
	todoID := todos[0].ID

	done, err := env.todo.Complete(todoID, teacher.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != model.TodoDone || done.DoneAt == nil {
		t.Fatalf("todo after complete = %+v, want done with timestamp", done)
	}

	wantLabel := SystemNoteLabel(done, *done.DoneAt)
	notes, err := env.sessions.ListNotes(session.ID, model.NoteKindSystem)
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != 1 || notes[0].Label != wantLabel {
		t.Fatalf("system notes = %+v, want exactly %q", notes, wantLabel)
	}

	sa, _ = env.studentAssignments.FindByID(sa.ID)
	if sa.ReviewState != model.ReviewResolved {
		t.Errorf("review state after complete = %s, want resolved", sa.ReviewState)
	}

	reopened, err := env.todo.Reopen(todoID, teacher.ID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Status != model.TodoOpen || reopened.DoneAt != nil {
		t.Fatalf("todo after reopen = %+v, want open without timestamp", reopened)
	}

	notes, _ = env.sessions.ListNotes(session.ID, model.NoteKindSystem)
	if len(notes) != 0 {
		t.Fatalf("system notes after reopen = %+v, want none", notes)
	}

	sa, _ = env.studentAssignments.FindByID(sa.ID)
	if sa.ReviewState != model.ReviewFollowupScheduled {
		t.Errorf("review state after reopen = %s, want followup_scheduled", sa.ReviewState)
	}
}

func TestReopenLeavesTeacherNotesAlone(t *testing.T) {
	env := newTestEnv(t)

	teacher := env.createUser(t, "teacher", model.Teacher)
	student := env.createUser(t, "ben", model.Student)
	class := env.createClass(t, teacher.ID, "7A", student.ID)
	assignment := env.createAssignment(t, class.ID, "Decimals", time.Now().Add(-24*time.Hour))
	session := env.createCompletedSession(t, student.ID, assignment.ID, 40, nil)

	sa, _ := env.studentAssignments.FindOrCreate(student.ID, assignment.ID)

	if err := env.actions.AddTeacherNote(student.ID, assignment.ID, "Great effort today"); err != nil {
		t.Fatalf("add teacher note: %v", err)
	}

	todo := model.TeacherTodo{
		TeacherID: teacher.ID, InsightID: 1, StudentAssignmentID: sa.ID,
		ActionKey: "add_note", Label: "Check in", Status: model.TodoOpen,
	}
	if err := env.todos.CreateBatch([]model.TeacherTodo{todo}); err != nil {
		t.Fatalf("create todo: %v", err)
	}
	todos, _ := env.todos.ListByTeacher(teacher.ID)

	if _, err := env.todo.Complete(todos[0].ID, teacher.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := env.todo.Reopen(todos[0].ID, teacher.ID); err != nil {
		t.Fatalf("reopen: %v", err)
	}

	teacherNotes, err := env.sessions.ListNotes(session.ID, model.NoteKindTeacher)
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(teacherNotes) != 1 || teacherNotes[0].Label != "Great effort today" {
		t.Fatalf("teacher notes = %+v, want the original untouched", teacherNotes)
	}
}

func TestCompleteWithoutSessionSkipsNote(t *testing.T) {
	env := newTestEnv(t)

	teacher := env.createUser(t, "teacher", model.Teacher)
	student := env.createUser(t, "cam", model.Student)
	class := env.createClass(t, teacher.ID, "7A", student.ID)
	assignment := env.createAssignment(t, class.ID, "Geometry", time.Now().Add(-24*time.Hour))

	sa, _ := env.studentAssignments.FindOrCreate(student.ID, assignment.ID)
	todo := model.TeacherTodo{
		TeacherID: teacher.ID, InsightID: 1, StudentAssignmentID: sa.ID,
		ActionKey: "add_note", Label: "Check in", Status: model.TodoOpen,
	}
	if err := env.todos.CreateBatch([]model.TeacherTodo{todo}); err != nil {
		t.Fatalf("create todo: %v", err)
	}
	todos, _ := env.todos.ListByTeacher(teacher.ID)

	if _, err := env.todo.Complete(todos[0].ID, teacher.ID); err != nil {
		t.Fatalf("complete without a session should still succeed: %v", err)
	}

	sa, _ = env.studentAssignments.FindByID(sa.ID)
	if sa.ReviewState != model.ReviewResolved {
		t.Errorf("review state = %s, want resolved", sa.ReviewState)
	}
}
