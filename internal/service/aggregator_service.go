package service

import (
	"classpulse_backend/internal/model"
	"classpulse_backend/internal/repository"
	"time"
)

// AggregatorService reshapes raw session records into the two flat inputs
// the detection rules consume: per-student-per-assignment performance
// summaries and per-assignment aggregates.
type AggregatorService struct {
	RosterRepo  *repository.RosterRepository
	SessionRepo *repository.SessionRepository
	UserRepo    *repository.UserRepository
}

func NewAggregatorService(
	rosterRepo *repository.RosterRepository,
	sessionRepo *repository.SessionRepository,
	userRepo *repository.UserRepository,
) *AggregatorService {
	return &AggregatorService{
		RosterRepo:  rosterRepo,
		SessionRepo: sessionRepo,
		UserRepo:    userRepo,
	}
}

// Collect builds performance summaries and assignment aggregates for every
// assignment in the teacher's classes. When a student has several completed
// sessions on one assignment, the latest wins.
func (s *AggregatorService) Collect(teacherID uint, thresholds model.TeacherThresholdSettings) ([]model.StudentPerformance, []model.AssignmentAggregate, error) {
	classes, err := s.RosterRepo.ListClassesByTeacher(teacherID)
	if err != nil {
		return nil, nil, err
	}

	classIDs := make([]uint, 0, len(classes))
	rosterSize := make(map[uint]int) // classID -> enrolled count
	for _, class := range classes {
		classIDs = append(classIDs, class.ID)
		studentIDs, err := s.RosterRepo.ListStudentIDsByClass(class.ID)
		if err != nil {
			return nil, nil, err
		}
		rosterSize[class.ID] = len(studentIDs)
	}

	assignments, err := s.RosterRepo.ListAssignmentsByClassIDs(classIDs)
	if err != nil {
		return nil, nil, err
	}

	assignmentIDs := make([]uint, 0, len(assignments))
	assignmentByID := make(map[uint]model.Assignment, len(assignments))
	for _, a := range assignments {
		assignmentIDs = append(assignmentIDs, a.ID)
		assignmentByID[a.ID] = a
	}

	sessions, err := s.SessionRepo.ListCompletedByAssignmentIDs(assignmentIDs)
	if err != nil {
		return nil, nil, err
	}

	// Latest completed session per (student, assignment); sessions arrive in
	// completion order so later entries overwrite earlier ones.
	type pairKey struct{ student, assignment uint }
	latest := make(map[pairKey]model.LearningSession)
	studentIDSet := make(map[uint]struct{})
	for _, session := range sessions {
		latest[pairKey{session.StudentID, session.AssignmentID}] = session
		studentIDSet[session.StudentID] = struct{}{}
	}

	studentIDs := make([]uint, 0, len(studentIDSet))
	for id := range studentIDSet {
		studentIDs = append(studentIDs, id)
	}
	students, err := s.UserRepo.FindByIDs(studentIDs)
	if err != nil {
		return nil, nil, err
	}
	nameByID := make(map[uint]string, len(students))
	for _, u := range students {
		nameByID[u.ID] = u.Name
	}

	now := time.Now()
	var perfs []model.StudentPerformance
	aggByAssignment := make(map[uint]*model.AssignmentAggregate)

	for key, session := range latest {
		assignment := assignmentByID[key.assignment]

		perfs = append(perfs, model.StudentPerformance{
			StudentID:       key.student,
			StudentName:     nameByID[key.student],
			AssignmentID:    key.assignment,
			AssignmentTitle: assignment.Title,
			Score:           session.Score,
			HintRate:        session.HintRate(),
			CoachIntent:     session.CoachIntent,
			HasTeacherNote:  session.TeacherNote != "",
			PreviousScore:   session.PreviousScore,
			HelpRequests:    session.HelpRequests,
			CompletedAt:     *session.CompletedAt,
		})

		agg, ok := aggByAssignment[key.assignment]
		if !ok {
			agg = &model.AssignmentAggregate{
				AssignmentID:      key.assignment,
				AssignmentTitle:   assignment.Title,
				ClassID:           assignment.ClassID,
				StudentCount:      rosterSize[assignment.ClassID],
				DaysSinceAssigned: int(now.Sub(assignment.AssignedAt).Hours() / 24),
			}
			aggByAssignment[key.assignment] = agg
		}
		agg.CompletedCount++
		agg.AverageScore += float64(session.Score)
		if session.Score < thresholds.StrugglingScoreMax {
			agg.StrugglingStudentIDs = append(agg.StrugglingStudentIDs, key.student)
		}
	}

	aggs := make([]model.AssignmentAggregate, 0, len(aggByAssignment))
	for _, agg := range aggByAssignment {
		if agg.CompletedCount > 0 {
			agg.AverageScore /= float64(agg.CompletedCount)
		}
		aggs = append(aggs, *agg)
	}

	return perfs, aggs, nil
}
