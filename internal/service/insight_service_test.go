package service

import (
	"classpulse_backend/internal/model"
	"classpulse_backend/internal/util"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"
)

func (e *testEnv) createActiveInsight(t *testing.T, teacherID uint, rule string, studentIDs []uint, assignmentID *uint) *model.Insight {
	t.Helper()
	insight := &model.Insight{
		TeacherID:  teacherID,
		Type:       model.InsightCheckIn,
		RuleName:   rule,
		StudentIDs: datatypes.NewJSONSlice(studentIDs),

		AssignmentID: assignmentID,
		ScopeKey:     model.InsightScopeKey(rule, studentIDs, assignmentID),
		Summary:      "test insight",
		Confidence:   model.ConfidenceHigh,
		Priority:     80,
		Status:       model.InsightActive,
		Signals:      datatypes.JSONMap{"score": 25},
	}
	if err := e.insights.Create(insight); err != nil {
		t.Fatalf("create insight: %v", err)
	}
	return insight
}

func TestInsightTransitionLegality(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher", model.Teacher)
	insight := env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{1}, nil)

	reviewed, err := env.insight.Review(insight.ID, teacher.ID)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != model.InsightReviewed || reviewed.ReviewedAt == nil {
		t.Fatalf("after review = %+v, want reviewed with timestamp", reviewed)
	}

	// Reviewed is terminal except for reactivation.
	if _, err := env.insight.Review(insight.ID, teacher.ID); !errors.Is(err, util.ErrIllegalTransition) {
		t.Fatalf("double review err = %v, want illegal transition", err)
	}
	if _, err := env.insight.Dismiss(insight.ID, teacher.ID, ""); !errors.Is(err, util.ErrIllegalTransition) {
		t.Fatalf("dismiss after review err = %v, want illegal transition", err)
	}

	reactivated, err := env.insight.Reactivate(insight.ID, teacher.ID)
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if reactivated.Status != model.InsightActive {
		t.Fatalf("after reactivate = %s, want active", reactivated.Status)
	}
}

func TestInsightOwnershipChecks(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", model.Teacher)
	other := env.createUser(t, "other", model.Teacher)
	insight := env.createActiveInsight(t, owner.ID, RuleNeedsSupport, []uint{1}, nil)

	if _, err := env.insight.Review(insight.ID, other.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("foreign review err = %v, want permission denied", err)
	}
	if _, err := env.insight.Review(9999, owner.ID); !errors.Is(err, util.ErrInsightNotFound) {
		t.Fatalf("missing insight err = %v, want not found", err)
	}
}

func TestDismissRecordsOutcomeAndBlocksRegeneration(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher", model.Teacher)
	assignmentID := uint(5)
	insight := env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{3}, &assignmentID)

	dismissed, err := env.insight.Dismiss(insight.ID, teacher.ID, "already handled offline")
	if err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if dismissed.Status != model.InsightDismissed {
		t.Fatalf("status = %s, want dismissed", dismissed.Status)
	}
	if dismissed.OutcomeID == nil {
		t.Fatal("dismiss should link an outcome")
	}

	outcome, err := env.outcomes.FindByID(*dismissed.OutcomeID)
	if err != nil {
		t.Fatalf("find outcome: %v", err)
	}
	if len(outcome.Actions) != 1 || outcome.Actions[0] != string(model.ActionDismiss) {
		t.Errorf("outcome actions = %v, want [dismiss]", outcome.Actions)
	}

	// A dismissed insight still blocks its equivalent.
	exists, err := env.insights.ExistsEquivalent(teacher.ID, dismissed.ScopeKey)
	if err != nil {
		t.Fatalf("dedup check: %v", err)
	}
	if !exists {
		t.Error("dismissed insight should keep blocking regeneration")
	}
}

func TestSubmitChecklistReassignPlusNote(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher", model.Teacher)
	student := env.createUser(t, "ana", model.Student)
	class := env.createClass(t, teacher.ID, "7A", student.ID)
	assignment := env.createAssignment(t, class.ID, "Fractions Quiz", time.Now().Add(-24*time.Hour))
	env.createCompletedSession(t, student.ID, assignment.ID, 25, nil)

	insight := env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{student.ID}, &assignment.ID)

	updated, outcome, err := env.insight.SubmitChecklist(insight.ID, teacher.ID, []ChecklistAction{
		{Key: model.ActionReassign},
		{Key: model.ActionAddNote, Label: "Add a note for the next session", NoteText: "Retry after reteach"},
	})
	if err != nil {
		t.Fatalf("submit checklist: %v", err)
	}

	// Reassign expects a follow-up, so the insight waits in pending.
	if updated.Status != model.InsightPending {
		t.Errorf("status = %s, want pending", updated.Status)
	}
	if outcome.ResolutionStatus != model.ResolutionPending {
		t.Errorf("resolution = %s, want pending", outcome.ResolutionStatus)
	}
	if score, ok := outcome.Metadata["previousScore"]; !ok {
		t.Error("outcome should record the replaced score")
	} else if s, ok := score.(int); ok && s != 25 {
		t.Errorf("previousScore = %v, want 25", score)
	}
	if len(outcome.Actions) != 2 {
		t.Errorf("outcome actions = %v, want both submitted keys", outcome.Actions)
	}

	// Exactly one todo: reassign executed by the system, add_note became a todo.
	todos, err := env.todos.ListByInsight(insight.ID)
	if err != nil {
		t.Fatalf("list todos: %v", err)
	}
	if len(todos) != 1 {
		t.Fatalf("todos = %+v, want exactly one", todos)
	}
	if todos[0].StudentName != "ana" || todos[0].AssignmentTitle != "Fractions Quiz" || todos[0].ClassName != "7A" {
		t.Errorf("todo context = %+v, want denormalized student/assignment/class", todos[0])
	}

	sa, err := env.studentAssignments.Find(student.ID, assignment.ID)
	if err != nil {
		t.Fatalf("find projection: %v", err)
	}
	if len(sa.TodoIDs) != 1 || sa.TodoIDs[0] != todos[0].ID {
		t.Errorf("projection todo links = %v, want [%d]", sa.TodoIDs, todos[0].ID)
	}
	if sa.Attempts != 1 {
		t.Errorf("attempts = %d, want 1 after reassign", sa.Attempts)
	}
	if sa.ReviewState != model.ReviewFollowupScheduled {
		t.Errorf("review state = %s, want followup_scheduled", sa.ReviewState)
	}
}

func TestSubmitChecklistSoftOnlyResolvesWithFollowUpNeeded(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher", model.Teacher)
	student := env.createUser(t, "ben", model.Student)
	class := env.createClass(t, teacher.ID, "7A", student.ID)
	assignment := env.createAssignment(t, class.ID, "Decimals", time.Now().Add(-24*time.Hour))

	insight := env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{student.ID}, &assignment.ID)

	updated, outcome, err := env.insight.SubmitChecklist(insight.ID, teacher.ID, []ChecklistAction{
		{Key: model.ActionAddNote, Label: "Schedule a 1:1 check-in"},
	})
	if err != nil {
		t.Fatalf("submit checklist: %v", err)
	}
	if updated.Status != model.InsightResolved {
		t.Errorf("status = %s, want resolved", updated.Status)
	}
	if outcome.ResolutionStatus != model.ResolutionFollowUpNeeded {
		t.Errorf("resolution = %s, want follow_up_needed", outcome.ResolutionStatus)
	}
}

func TestSubmitChecklistBadgeOnlyCompletes(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher", model.Teacher)
	student := env.createUser(t, "cam", model.Student)
	class := env.createClass(t, teacher.ID, "7A", student.ID)
	assignment := env.createAssignment(t, class.ID, "Geometry", time.Now().Add(-24*time.Hour))

	insight := env.createActiveInsight(t, teacher.ID, RuleReadyForChallenge, []uint{student.ID}, &assignment.ID)

	updated, outcome, err := env.insight.SubmitChecklist(insight.ID, teacher.ID, []ChecklistAction{
		{Key: model.ActionAwardBadge, BadgeType: "independent_work"},
	})
	if err != nil {
		t.Fatalf("submit checklist: %v", err)
	}
	if updated.Status != model.InsightResolved {
		t.Errorf("status = %s, want resolved", updated.Status)
	}
	if outcome.ResolutionStatus != model.ResolutionCompleted {
		t.Errorf("resolution = %s, want completed", outcome.ResolutionStatus)
	}

	sa, err := env.studentAssignments.Find(student.ID, assignment.ID)
	if err != nil {
		t.Fatalf("find projection: %v", err)
	}
	if !sa.HasBadge() {
		t.Error("projection should carry the awarded badge")
	}
	if sa.ReviewState != model.ReviewResolved {
		t.Errorf("review state = %s, want resolved", sa.ReviewState)
	}
}

func TestSubmitChecklistEmptyRejected(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher", model.Teacher)
	insight := env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{1}, nil)

	if _, _, err := env.insight.SubmitChecklist(insight.ID, teacher.ID, nil); !errors.Is(err, util.ErrEmptyChecklist) {
		t.Fatalf("err = %v, want empty checklist", err)
	}
}

func TestMarkAssignmentReviewedCascades(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher", model.Teacher)
	student := env.createUser(t, "ana", model.Student)
	bystander := env.createUser(t, "ben", model.Student)
	class := env.createClass(t, teacher.ID, "7A", student.ID, bystander.ID)
	reviewed := env.createAssignment(t, class.ID, "Fractions Quiz", time.Now().Add(-24*time.Hour))
	other := env.createAssignment(t, class.ID, "Decimals", time.Now().Add(-24*time.Hour))

	inScope := env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{student.ID}, &reviewed.ID)
	groupInScope := env.createActiveInsight(t, teacher.ID, RuleGroupSupport, []uint{student.ID, bystander.ID}, &reviewed.ID)
	otherStudent := env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{bystander.ID}, &reviewed.ID)
	otherAssignment := env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{student.ID}, &other.ID)

	sa, err := env.insight.MarkAssignmentReviewed(teacher.ID, student.ID, reviewed.ID)
	if err != nil {
		t.Fatalf("mark reviewed: %v", err)
	}
	if sa.ReviewedAt == nil {
		t.Fatal("projection should record the review timestamp")
	}
	if sa.ReviewState != model.ReviewReviewed {
		t.Errorf("review state = %s, want reviewed", sa.ReviewState)
	}

	wantStatus := map[uint]model.InsightStatus{
		inScope.ID:         model.InsightResolved,
		groupInScope.ID:    model.InsightResolved,
		otherStudent.ID:    model.InsightActive,
		otherAssignment.ID: model.InsightActive,
	}
	for id, want := range wantStatus {
		got, err := env.insights.FindByID(id)
		if err != nil {
			t.Fatalf("find insight %d: %v", id, err)
		}
		if got.Status != want {
			t.Errorf("insight %d status = %s, want %s", id, got.Status, want)
		}
	}
}

func TestReopenAssignmentReviewSupersedesTodos(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher", model.Teacher)
	student := env.createUser(t, "ana", model.Student)
	class := env.createClass(t, teacher.ID, "7A", student.ID)
	assignment := env.createAssignment(t, class.ID, "Fractions Quiz", time.Now().Add(-24*time.Hour))

	insight := env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{student.ID}, &assignment.ID)
	if _, _, err := env.insight.SubmitChecklist(insight.ID, teacher.ID, []ChecklistAction{
		{Key: model.ActionAddNote, Label: "Check in"},
	}); err != nil {
		t.Fatalf("submit checklist: %v", err)
	}

	if _, err := env.insight.MarkAssignmentReviewed(teacher.ID, student.ID, assignment.ID); err != nil {
		t.Fatalf("mark reviewed: %v", err)
	}

	sa, err := env.insight.ReopenAssignmentReview(teacher.ID, student.ID, assignment.ID)
	if err != nil {
		t.Fatalf("reopen review: %v", err)
	}
	if sa.ReviewedAt != nil {
		t.Error("reopen should clear the review timestamp")
	}

	todos, err := env.todos.ListByInsight(insight.ID)
	if err != nil {
		t.Fatalf("list todos: %v", err)
	}
	if len(todos) != 1 || todos[0].Status != model.TodoSuperseded || todos[0].SupersededAt == nil {
		t.Fatalf("todos after reopen = %+v, want one superseded with timestamp", todos)
	}

	// Superseded todos no longer count toward review state.
	if sa.ReviewState != model.ReviewNotStarted {
		t.Errorf("review state = %s, want not_started", sa.ReviewState)
	}
}

func TestFeedbackRecordsVerdict(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher", model.Teacher)
	insight := env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{1}, nil)

	updated, err := env.insight.Feedback(insight.ID, teacher.ID, false, "she was just tired that day")
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if updated.FeedbackHelpful == nil || *updated.FeedbackHelpful {
		t.Error("verdict should be recorded as not helpful")
	}
	if updated.FeedbackNote == "" {
		t.Error("note should be recorded")
	}
	// Feedback never moves the lifecycle.
	if updated.Status != model.InsightActive {
		t.Errorf("status = %s, want active", updated.Status)
	}
}

func TestPruneClearsDedupSlate(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.createUser(t, "teacher", model.Teacher)

	old := env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{1}, nil)
	if _, err := env.insight.Review(old.ID, teacher.ID); err != nil {
		t.Fatalf("review: %v", err)
	}
	keepActive := env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{2}, nil)
	keepFresh := env.createActiveInsight(t, teacher.ID, RuleNeedsSupport, []uint{3}, nil)
	if _, err := env.insight.Review(keepFresh.ID, teacher.ID); err != nil {
		t.Fatalf("review: %v", err)
	}

	// Age the first two past the retention window.
	aged := time.Now().Add(-100 * 24 * time.Hour)
	for _, id := range []uint{old.ID, keepActive.ID} {
		if err := env.db.Model(&model.Insight{}).Where("id = ?", id).Update("created_at", aged).Error; err != nil {
			t.Fatalf("age insight %d: %v", id, err)
		}
	}

	removed, err := env.insight.Prune(90 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want only the aged terminal insight", removed)
	}

	// The slate is clear: an equivalent can be generated again.
	exists, err := env.insights.ExistsEquivalent(teacher.ID, old.ScopeKey)
	if err != nil {
		t.Fatalf("dedup check: %v", err)
	}
	if exists {
		t.Error("pruned insight should no longer block regeneration")
	}

	// Aged but active survives; fresh terminal survives.
	if _, err := env.insights.FindByID(keepActive.ID); err != nil {
		t.Errorf("aged active insight should survive: %v", err)
	}
	if _, err := env.insights.FindByID(keepFresh.ID); err != nil {
		t.Errorf("fresh reviewed insight should survive: %v", err)
	}
}
