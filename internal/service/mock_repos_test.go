package service

import (
	"context"
	"sort"

	"alcyxob/routine-forge/internal/domain"
	"alcyxob/routine-forge/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hand-written in-memory repositories backing the service tests. They keep
// the repository contract (sentinel errors, sort orders) without a database.

// --- users ---

type mockUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	user.ID = id
	clone := *user
	m.users[id] = &clone
	return id, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *mockUserRepo) AddStudentIDToCoach(_ context.Context, coachID, studentID primitive.ObjectID) error {
	coach, ok := m.users[coachID]
	if !ok {
		return repository.ErrNotFound
	}
	coach.StudentIDs = append(coach.StudentIDs, studentID)
	return nil
}

func (m *mockUserRepo) GetStudentsByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	var students []domain.User
	for _, u := range m.users {
		if u.CoachID != nil && *u.CoachID == coachID {
			students = append(students, *u)
		}
	}
	return students, nil
}

func (m *mockUserRepo) SetCoachForStudent(_ context.Context, studentID, coachID primitive.ObjectID) error {
	student, ok := m.users[studentID]
	if !ok {
		return repository.ErrNotFound
	}
	student.CoachID = &coachID
	return nil
}

// --- exercises ---

type mockExerciseRepo struct {
	exercises map[primitive.ObjectID]*domain.Exercise
}

func newMockExerciseRepo() *mockExerciseRepo {
	return &mockExerciseRepo{exercises: make(map[primitive.ObjectID]*domain.Exercise)}
}

func (m *mockExerciseRepo) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	exercise.ID = id
	clone := *exercise
	m.exercises[id] = &clone
	return id, nil
}

func (m *mockExerciseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	e, ok := m.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *e
	return &clone, nil
}

func (m *mockExerciseRepo) GetByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.Exercise, error) {
	var out []domain.Exercise
	for _, e := range m.exercises {
		if e.CoachID == coachID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockExerciseRepo) Update(_ context.Context, exercise *domain.Exercise) error {
	if _, ok := m.exercises[exercise.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *exercise
	m.exercises[exercise.ID] = &clone
	return nil
}

func (m *mockExerciseRepo) Delete(_ context.Context, id, coachID primitive.ObjectID) error {
	e, ok := m.exercises[id]
	if !ok || e.CoachID != coachID {
		return repository.ErrNotFound
	}
	delete(m.exercises, id)
	return nil
}

// --- routines ---

type mockRoutineRepo struct {
	routines map[primitive.ObjectID]*domain.Routine
}

func newMockRoutineRepo() *mockRoutineRepo {
	return &mockRoutineRepo{routines: make(map[primitive.ObjectID]*domain.Routine)}
}

func (m *mockRoutineRepo) Create(_ context.Context, routine *domain.Routine) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	routine.ID = id
	clone := *routine
	m.routines[id] = &clone
	return id, nil
}

func (m *mockRoutineRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Routine, error) {
	r, ok := m.routines[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (m *mockRoutineRepo) GetByStudentAndCoachID(_ context.Context, studentID, coachID primitive.ObjectID) ([]domain.Routine, error) {
	var out []domain.Routine
	for _, r := range m.routines {
		if r.StudentID == studentID && r.CoachID == coachID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockRoutineRepo) GetActiveByStudentID(_ context.Context, studentID primitive.ObjectID) (*domain.Routine, error) {
	for _, r := range m.routines {
		if r.StudentID == studentID && r.Status == domain.RoutineActive {
			clone := *r
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockRoutineRepo) Update(_ context.Context, routine *domain.Routine) error {
	if _, ok := m.routines[routine.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *routine
	m.routines[routine.ID] = &clone
	return nil
}

func (m *mockRoutineRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.RoutineStatus) error {
	r, ok := m.routines[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = status
	return nil
}

func (m *mockRoutineRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.routines[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.routines, id)
	return nil
}

func (m *mockRoutineRepo) LockOthersForStudent(_ context.Context, studentID, excludeRoutineID primitive.ObjectID) error {
	for _, r := range m.routines {
		if r.StudentID == studentID && r.ID != excludeRoutineID && r.Status == domain.RoutineActive {
			r.Status = domain.RoutineLocked
		}
	}
	return nil
}

// --- workouts ---

type mockWorkoutRepo struct {
	workouts map[primitive.ObjectID]*domain.Workout
}

func newMockWorkoutRepo() *mockWorkoutRepo {
	return &mockWorkoutRepo{workouts: make(map[primitive.ObjectID]*domain.Workout)}
}

func (m *mockWorkoutRepo) Create(_ context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	workout.ID = id
	clone := *workout
	m.workouts[id] = &clone
	return id, nil
}

func (m *mockWorkoutRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	w, ok := m.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *w
	return &clone, nil
}

func (m *mockWorkoutRepo) GetByRoutineID(_ context.Context, routineID primitive.ObjectID) ([]domain.Workout, error) {
	var out []domain.Workout
	for _, w := range m.workouts {
		if w.RoutineID == routineID {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (m *mockWorkoutRepo) DeleteByRoutineID(_ context.Context, routineID primitive.ObjectID) error {
	for id, w := range m.workouts {
		if w.RoutineID == routineID {
			delete(m.workouts, id)
		}
	}
	return nil
}

// --- slots ---

type mockSlotRepo struct {
	slots map[primitive.ObjectID]*domain.ExerciseSlot
}

func newMockSlotRepo() *mockSlotRepo {
	return &mockSlotRepo{slots: make(map[primitive.ObjectID]*domain.ExerciseSlot)}
}

func (m *mockSlotRepo) Create(_ context.Context, slot *domain.ExerciseSlot) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	slot.ID = id
	clone := *slot
	m.slots[id] = &clone
	return id, nil
}

func (m *mockSlotRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ExerciseSlot, error) {
	s, ok := m.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (m *mockSlotRepo) GetByWorkoutID(_ context.Context, workoutID primitive.ObjectID) ([]domain.ExerciseSlot, error) {
	var out []domain.ExerciseSlot
	for _, s := range m.slots {
		if s.WorkoutID == workoutID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (m *mockSlotRepo) DeleteByWorkoutID(_ context.Context, workoutID primitive.ObjectID) error {
	for id, s := range m.slots {
		if s.WorkoutID == workoutID {
			delete(m.slots, id)
		}
	}
	return nil
}

// --- series ---

type mockSeriesRepo struct {
	series map[primitive.ObjectID]domain.Series
}

func newMockSeriesRepo() *mockSeriesRepo {
	return &mockSeriesRepo{series: make(map[primitive.ObjectID]domain.Series)}
}

func (m *mockSeriesRepo) CreateMany(_ context.Context, series []domain.Series) error {
	for _, s := range series {
		if s.ID == primitive.NilObjectID {
			s.ID = primitive.NewObjectID()
		}
		m.series[s.ID] = s
	}
	return nil
}

func (m *mockSeriesRepo) GetBySlotID(_ context.Context, slotID primitive.ObjectID) ([]domain.Series, error) {
	var out []domain.Series
	for _, s := range m.series {
		if s.SlotID == slotID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (m *mockSeriesRepo) DeleteBySlotID(_ context.Context, slotID primitive.ObjectID) error {
	for id, s := range m.series {
		if s.SlotID == slotID {
			delete(m.series, id)
		}
	}
	return nil
}

// --- sessions ---

type mockSessionRepo struct {
	sessions map[primitive.ObjectID]*domain.ExecutionSession
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[primitive.ObjectID]*domain.ExecutionSession)}
}

func (m *mockSessionRepo) Create(_ context.Context, session *domain.ExecutionSession) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	session.ID = id
	clone := *session
	m.sessions[id] = &clone
	return id, nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ExecutionSession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (m *mockSessionRepo) GetByRoutineID(_ context.Context, routineID primitive.ObjectID) ([]domain.ExecutionSession, error) {
	var out []domain.ExecutionSession
	for _, s := range m.sessions {
		if s.RoutineID == routineID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionNumber < out[j].SessionNumber })
	return out, nil
}

func (m *mockSessionRepo) GetLatestExecuted(_ context.Context, routineID, studentID primitive.ObjectID) (*domain.ExecutionSession, error) {
	var latest *domain.ExecutionSession
	for _, s := range m.sessions {
		if s.RoutineID != routineID || s.StudentID != studentID || s.ExecutedAt == nil {
			continue
		}
		if latest == nil ||
			s.ExecutedAt.After(*latest.ExecutedAt) ||
			(s.ExecutedAt.Equal(*latest.ExecutedAt) && s.SessionNumber > latest.SessionNumber) {
			latest = s
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (m *mockSessionRepo) Update(_ context.Context, session *domain.ExecutionSession) error {
	if _, ok := m.sessions[session.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *session
	m.sessions[session.ID] = &clone
	return nil
}
