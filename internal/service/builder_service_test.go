package service

import (
	"context"
	"testing"

	"alcyxob/routine-forge/internal/domain"
	"alcyxob/routine-forge/internal/repository"
	"alcyxob/routine-forge/internal/staging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type builderFixture struct {
	svc       BuilderService
	drafts    staging.Store
	users     *mockUserRepo
	exercises *mockExerciseRepo
	routines  *mockRoutineRepo
	workouts  *mockWorkoutRepo
	slots     *mockSlotRepo
	series    *mockSeriesRepo
	sessions  *mockSessionRepo
	coachID   primitive.ObjectID
	studentID primitive.ObjectID
}

func newBuilderFixture(t *testing.T) *builderFixture {
	t.Helper()
	f := &builderFixture{
		drafts:    staging.NewMemoryStore(),
		users:     newMockUserRepo(),
		exercises: newMockExerciseRepo(),
		routines:  newMockRoutineRepo(),
		workouts:  newMockWorkoutRepo(),
		slots:     newMockSlotRepo(),
		series:    newMockSeriesRepo(),
		sessions:  newMockSessionRepo(),
	}
	ctx := context.Background()

	coach := &domain.User{Name: "Coach", Email: "coach@example.com", Role: domain.RoleCoach}
	coachID, err := f.users.Create(ctx, coach)
	require.NoError(t, err)
	f.coachID = coachID

	student := &domain.User{Name: "Student", Email: "student@example.com", Role: domain.RoleStudent}
	studentID, err := f.users.Create(ctx, student)
	require.NoError(t, err)
	f.studentID = studentID
	require.NoError(t, f.users.SetCoachForStudent(ctx, studentID, coachID))

	f.svc = NewBuilderService(f.drafts, f.users, f.exercises, f.routines, f.workouts, f.slots, f.series, f.sessions)
	return f
}

func (f *builderFixture) seedExercise(t *testing.T, name string, equipment domain.EquipmentClass) primitive.ObjectID {
	t.Helper()
	id, err := f.exercises.Create(context.Background(), &domain.Exercise{
		CoachID:   f.coachID,
		Name:      name,
		Equipment: equipment,
	})
	require.NoError(t, err)
	return id
}

func builderConfig(sessions int) staging.Configuration {
	return staging.Configuration{
		Name:            "Hypertrophy Block",
		Objective:       domain.ObjectiveHypertrophy,
		Difficulty:      domain.DifficultyIntermediate,
		SessionsPerWeek: sessions,
	}
}

// buildCompleteDraft drives the wizard to a committable state: complete
// configuration, named workouts with muscle groups, one slot per workout.
func buildCompleteDraft(t *testing.T, f *builderFixture, cfg staging.Configuration) *staging.RoutineDraft {
	t.Helper()
	ctx := context.Background()

	_, err := f.svc.StartOrResume(ctx, f.coachID, f.studentID)
	require.NoError(t, err)
	draft, err := f.svc.SaveConfiguration(ctx, f.coachID, f.studentID, cfg)
	require.NoError(t, err)
	require.Len(t, draft.Workouts, cfg.SessionsPerWeek)

	workouts := make([]staging.DraftWorkout, len(draft.Workouts))
	copy(workouts, draft.Workouts)
	for i := range workouts {
		workouts[i].MuscleGroups = []string{"Chest", "Back"}
	}
	draft, err = f.svc.SaveWorkouts(ctx, f.coachID, f.studentID, workouts)
	require.NoError(t, err)

	exerciseID := f.seedExercise(t, "Bench Press", domain.EquipmentFreeWeight)
	for _, w := range draft.Workouts {
		draft, err = f.svc.AddSlot(ctx, f.coachID, f.studentID, w.LocalID, exerciseID, nil)
		require.NoError(t, err)
	}
	return draft
}

func TestBuilder_StartOrResume(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()

	draft, err := f.svc.StartOrResume(ctx, f.coachID, f.studentID)
	require.NoError(t, err)
	assert.Equal(t, staging.StepConfiguration, draft.Step)
	assert.Empty(t, draft.Workouts)

	// Changes survive a resume.
	_, err = f.svc.SaveConfiguration(ctx, f.coachID, f.studentID, builderConfig(2))
	require.NoError(t, err)
	resumed, err := f.svc.StartOrResume(ctx, f.coachID, f.studentID)
	require.NoError(t, err)
	assert.Equal(t, "Hypertrophy Block", resumed.Config.Name)
	assert.Len(t, resumed.Workouts, 2)
}

func TestBuilder_StartOrResume_UnmanagedStudent(t *testing.T) {
	f := newBuilderFixture(t)
	otherCoach, err := f.users.Create(context.Background(), &domain.User{Role: domain.RoleCoach})
	require.NoError(t, err)

	_, err = f.svc.StartOrResume(context.Background(), otherCoach, f.studentID)
	assert.ErrorIs(t, err, ErrStudentNotManaged)
}

func TestBuilder_SaveConfiguration_GeneratesWorkoutsWhenComplete(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()
	_, err := f.svc.StartOrResume(ctx, f.coachID, f.studentID)
	require.NoError(t, err)

	// Incomplete configuration generates nothing.
	draft, err := f.svc.SaveConfiguration(ctx, f.coachID, f.studentID, staging.Configuration{Name: "Partial"})
	require.NoError(t, err)
	assert.Empty(t, draft.Workouts)

	draft, err = f.svc.SaveConfiguration(ctx, f.coachID, f.studentID, builderConfig(3))
	require.NoError(t, err)
	require.Len(t, draft.Workouts, 3)
	assert.Equal(t, "Workout A", draft.Workouts[0].Name)
}

func TestBuilder_SaveConfiguration_SessionsPerWeekFixedAfterGeneration(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()
	_, err := f.svc.StartOrResume(ctx, f.coachID, f.studentID)
	require.NoError(t, err)
	_, err = f.svc.SaveConfiguration(ctx, f.coachID, f.studentID, builderConfig(3))
	require.NoError(t, err)

	changed := builderConfig(4)
	_, err = f.svc.SaveConfiguration(ctx, f.coachID, f.studentID, changed)
	assert.ErrorIs(t, err, ErrSessionsPerWeekFixed)

	// Other configuration fields stay editable.
	renamed := builderConfig(3)
	renamed.Name = "Renamed Block"
	draft, err := f.svc.SaveConfiguration(ctx, f.coachID, f.studentID, renamed)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Block", draft.Config.Name)
	assert.Len(t, draft.Workouts, 3)
}

func TestBuilder_AdvanceGates(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()
	_, err := f.svc.StartOrResume(ctx, f.coachID, f.studentID)
	require.NoError(t, err)

	_, err = f.svc.Advance(ctx, f.coachID, f.studentID)
	assert.ErrorIs(t, err, ErrStepGateNotSatisfied, "empty configuration must not pass")

	_, err = f.svc.SaveConfiguration(ctx, f.coachID, f.studentID, builderConfig(2))
	require.NoError(t, err)
	draft, err := f.svc.Advance(ctx, f.coachID, f.studentID)
	require.NoError(t, err)
	assert.Equal(t, staging.StepWorkouts, draft.Step)

	_, err = f.svc.Advance(ctx, f.coachID, f.studentID)
	assert.ErrorIs(t, err, ErrStepGateNotSatisfied, "workouts without muscle groups must not pass")
}

func TestBuilder_BackKeepsData(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()
	draft := buildCompleteDraft(t, f, builderConfig(2))

	for draft.Step < staging.StepReview {
		var err error
		draft, err = f.svc.Advance(ctx, f.coachID, f.studentID)
		require.NoError(t, err)
	}

	draft, err := f.svc.Back(ctx, f.coachID, f.studentID)
	require.NoError(t, err)
	assert.Equal(t, staging.StepExercises, draft.Step)
	require.Len(t, draft.Workouts, 2)
	assert.NotEmpty(t, draft.Workouts[0].Slots, "backward navigation must not discard staged data")

	// Back from the first step is a no-op.
	for i := 0; i < 5; i++ {
		draft, err = f.svc.Back(ctx, f.coachID, f.studentID)
		require.NoError(t, err)
	}
	assert.Equal(t, staging.StepConfiguration, draft.Step)
}

func TestBuilder_RegenerateWorkoutsDiscardsExercises(t *testing.T) {
	f := newBuilderFixture(t)
	buildCompleteDraft(t, f, builderConfig(2))

	draft, err := f.svc.RegenerateWorkouts(context.Background(), f.coachID, f.studentID, 4)
	require.NoError(t, err)
	require.Len(t, draft.Workouts, 4)
	assert.Equal(t, 4, draft.Config.SessionsPerWeek)
	for _, w := range draft.Workouts {
		assert.Empty(t, w.Slots)
		assert.Empty(t, w.MuscleGroups)
	}
}

func TestBuilder_SaveWorkouts_MuscleGroupChangeClearsSlots(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()
	draft := buildCompleteDraft(t, f, builderConfig(2))

	first := draft.Workouts[0]
	first.MuscleGroups = []string{"Legs"}
	second := draft.Workouts[1]
	second.Name = "Renamed Only"

	draft, err := f.svc.SaveWorkouts(ctx, f.coachID, f.studentID, []staging.DraftWorkout{first, second})
	require.NoError(t, err)
	assert.Empty(t, draft.Workouts[0].Slots, "changed muscle groups discard staged slots")
	assert.NotEmpty(t, draft.Workouts[1].Slots, "a rename alone keeps staged slots")
	assert.Equal(t, "Renamed Only", draft.Workouts[1].Name)
}

func TestBuilder_AddSlot(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()
	_, err := f.svc.StartOrResume(ctx, f.coachID, f.studentID)
	require.NoError(t, err)
	draft, err := f.svc.SaveConfiguration(ctx, f.coachID, f.studentID, builderConfig(1))
	require.NoError(t, err)
	workoutID := draft.Workouts[0].LocalID

	_, err = f.svc.AddSlot(ctx, f.coachID, f.studentID, workoutID, primitive.NewObjectID(), nil)
	assert.ErrorIs(t, err, ErrExerciseNotFound)

	exerciseID := f.seedExercise(t, "Squat", domain.EquipmentFreeWeight)
	draft, err = f.svc.AddSlot(ctx, f.coachID, f.studentID, workoutID, exerciseID, nil)
	require.NoError(t, err)
	require.Len(t, draft.Workouts[0].Slots, 1)
	slot := draft.Workouts[0].Slots[0]
	assert.Equal(t, 1, slot.Sequence)
	require.Len(t, slot.Series, 1, "new slot is seeded with one default series")
	assert.Equal(t, domain.SeriesSimple, slot.Series[0].Kind)
	assert.Equal(t, domain.DefaultSimpleRestSeconds, slot.Series[0].RestAfterSeconds)
}

func TestBuilder_AddSlot_Paired(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()
	_, err := f.svc.StartOrResume(ctx, f.coachID, f.studentID)
	require.NoError(t, err)
	draft, err := f.svc.SaveConfiguration(ctx, f.coachID, f.studentID, builderConfig(1))
	require.NoError(t, err)
	workoutID := draft.Workouts[0].LocalID

	primary := f.seedExercise(t, "Biceps Curl", domain.EquipmentFreeWeight)
	paired := f.seedExercise(t, "Triceps Pushdown", domain.EquipmentCable)

	draft, err = f.svc.AddSlot(ctx, f.coachID, f.studentID, workoutID, primary, &paired)
	require.NoError(t, err)
	slot := draft.Workouts[0].Slots[0]
	require.Len(t, slot.Series, 1)
	assert.Equal(t, domain.SeriesCombined, slot.Series[0].Kind)
	require.NotNil(t, slot.Series[0].Secondary)
	assert.Equal(t, domain.DefaultCombinedRestSeconds, slot.Series[0].RestAfterSeconds)
}

func TestBuilder_UpdateSeries_BodyweightLoadIgnored(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()
	_, err := f.svc.StartOrResume(ctx, f.coachID, f.studentID)
	require.NoError(t, err)
	draft, err := f.svc.SaveConfiguration(ctx, f.coachID, f.studentID, builderConfig(1))
	require.NoError(t, err)
	workoutID := draft.Workouts[0].LocalID

	pullUp := f.seedExercise(t, "Pull-Up", domain.EquipmentBodyweight)
	draft, err = f.svc.AddSlot(ctx, f.coachID, f.studentID, workoutID, pullUp, nil)
	require.NoError(t, err)
	slotID := draft.Workouts[0].Slots[0].LocalID

	reps, load := 8, 20.0
	draft, err = f.svc.UpdateSeries(ctx, f.coachID, f.studentID, workoutID, slotID, 1, SeriesInput{Reps: &reps, LoadKg: &load})
	require.NoError(t, err)
	series := draft.Workouts[0].Slots[0].Series[0]
	assert.Equal(t, 8, series.Primary.Reps)
	assert.Zero(t, series.Primary.LoadKg, "loads on bodyweight exercises are never stored")
}

func TestBuilder_SeriesEditing(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()
	_, err := f.svc.StartOrResume(ctx, f.coachID, f.studentID)
	require.NoError(t, err)
	draft, err := f.svc.SaveConfiguration(ctx, f.coachID, f.studentID, builderConfig(1))
	require.NoError(t, err)
	workoutID := draft.Workouts[0].LocalID

	row := f.seedExercise(t, "Seated Row", domain.EquipmentCable)
	draft, err = f.svc.AddSlot(ctx, f.coachID, f.studentID, workoutID, row, nil)
	require.NoError(t, err)
	slotID := draft.Workouts[0].Slots[0].LocalID

	draft, err = f.svc.AddSeries(ctx, f.coachID, f.studentID, workoutID, slotID)
	require.NoError(t, err)
	draft, err = f.svc.AddSeries(ctx, f.coachID, f.studentID, workoutID, slotID)
	require.NoError(t, err)
	require.Len(t, draft.Workouts[0].Slots[0].Series, 3)

	draft, err = f.svc.RemoveSeries(ctx, f.coachID, f.studentID, workoutID, slotID, 2)
	require.NoError(t, err)
	series := draft.Workouts[0].Slots[0].Series
	require.Len(t, series, 2)
	assert.Equal(t, 1, series[0].Sequence)
	assert.Equal(t, 2, series[1].Sequence)

	draft, err = f.svc.ToggleDropSet(ctx, f.coachID, f.studentID, workoutID, slotID, 1)
	require.NoError(t, err)
	assert.True(t, draft.Workouts[0].Slots[0].Series[0].DropSet)

	load := 35.5
	draft, err = f.svc.UpdateSeries(ctx, f.coachID, f.studentID, workoutID, slotID, 1, SeriesInput{DropSetLoadKg: &load})
	require.NoError(t, err)
	assert.Equal(t, 35.5, draft.Workouts[0].Slots[0].Series[0].DropSetLoadKg)
}

func TestBuilder_Commit_GateIncomplete(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()
	_, err := f.svc.StartOrResume(ctx, f.coachID, f.studentID)
	require.NoError(t, err)
	_, err = f.svc.SaveConfiguration(ctx, f.coachID, f.studentID, builderConfig(2))
	require.NoError(t, err)

	_, err = f.svc.Commit(ctx, f.coachID, f.studentID, true)
	assert.ErrorIs(t, err, ErrStepGateNotSatisfied)
	assert.Empty(t, f.routines.routines, "nothing is persisted when the gates fail")
}

func TestBuilder_CommitActivate(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()

	// A previously active routine for the same student must get locked.
	previous := &domain.Routine{StudentID: f.studentID, CoachID: f.coachID, Name: "Old Block", Status: domain.RoutineActive}
	previousID, err := f.routines.Create(ctx, previous)
	require.NoError(t, err)

	cfg := builderConfig(3)
	weeks := 4
	cfg.DurationWeeks = &weeks
	buildCompleteDraft(t, f, cfg)

	routine, err := f.svc.Commit(ctx, f.coachID, f.studentID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.RoutineActive, routine.Status)
	assert.Equal(t, 3, routine.SessionsPerWeek)

	locked, err := f.routines.GetByID(ctx, previousID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoutineLocked, locked.Status)

	sessions, err := f.sessions.GetByRoutineID(ctx, routine.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 12, "sessions per week times duration weeks")
	for i, session := range sessions {
		assert.Equal(t, i+1, session.SessionNumber)
		assert.Equal(t, domain.SessionOpen, session.Status)
	}
	// Workouts cycle over the plan: sessions 1 and 4 share a workout.
	assert.Equal(t, sessions[0].WorkoutID, sessions[3].WorkoutID)
	assert.NotEqual(t, sessions[0].WorkoutID, sessions[1].WorkoutID)

	_, err = f.drafts.Load(ctx, f.studentID)
	assert.ErrorIs(t, err, staging.ErrDraftNotFound, "staging is cleared after commit")
}

func TestBuilder_CommitActivate_NoDurationPlansOneCycle(t *testing.T) {
	f := newBuilderFixture(t)
	buildCompleteDraft(t, f, builderConfig(2))

	routine, err := f.svc.Commit(context.Background(), f.coachID, f.studentID, true)
	require.NoError(t, err)

	sessions, err := f.sessions.GetByRoutineID(context.Background(), routine.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 2, "without a duration only the first workout cycle is planned")
}

func TestBuilder_CommitWithoutActivate(t *testing.T) {
	f := newBuilderFixture(t)
	buildCompleteDraft(t, f, builderConfig(2))

	routine, err := f.svc.Commit(context.Background(), f.coachID, f.studentID, false)
	require.NoError(t, err)
	assert.Equal(t, domain.RoutineDraft, routine.Status)

	sessions, err := f.sessions.GetByRoutineID(context.Background(), routine.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions, "no sessions are planned before activation")
}

func TestBuilder_SaveAsDraftResumeRoundTrip(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()
	staged := buildCompleteDraft(t, f, builderConfig(2))
	reps := 10
	workoutID := staged.Workouts[0].LocalID
	slotID := staged.Workouts[0].Slots[0].LocalID
	_, err := f.svc.UpdateSeries(ctx, f.coachID, f.studentID, workoutID, slotID, 1, SeriesInput{Reps: &reps})
	require.NoError(t, err)

	routine, err := f.svc.SaveAsDraft(ctx, f.coachID, f.studentID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RoutineDraft, routine.Status)
	_, err = f.drafts.Load(ctx, f.studentID)
	assert.ErrorIs(t, err, staging.ErrDraftNotFound)

	resumed, err := f.svc.ResumeDraftRoutine(ctx, f.coachID, routine.ID)
	require.NoError(t, err)
	assert.Equal(t, staging.StepReview, resumed.Step)
	assert.Equal(t, "Hypertrophy Block", resumed.Config.Name)
	require.Len(t, resumed.Workouts, 2)
	require.Len(t, resumed.Workouts[0].Slots, 1)
	series := resumed.Workouts[0].Slots[0].Series
	require.Len(t, series, 1)
	assert.Equal(t, 10, series[0].Primary.Reps)
	assert.Equal(t, primitive.NilObjectID, series[0].ID, "staged series carry no persisted identity")
}

func TestBuilder_ResumeDraftRoutine_Guards(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()

	_, err := f.svc.ResumeDraftRoutine(ctx, f.coachID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrRoutineNotFound)

	activeID, err := f.routines.Create(ctx, &domain.Routine{StudentID: f.studentID, CoachID: f.coachID, Status: domain.RoutineActive})
	require.NoError(t, err)
	_, err = f.svc.ResumeDraftRoutine(ctx, f.coachID, activeID)
	assert.ErrorIs(t, err, ErrRoutineNotDraft)

	draftID, err := f.routines.Create(ctx, &domain.Routine{StudentID: f.studentID, CoachID: primitive.NewObjectID(), Status: domain.RoutineDraft})
	require.NoError(t, err)
	_, err = f.svc.ResumeDraftRoutine(ctx, f.coachID, draftID)
	assert.ErrorIs(t, err, ErrRoutineAccessDenied)
}

func TestBuilder_CommitAfterResume_SupersedesSavedDraft(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()
	buildCompleteDraft(t, f, builderConfig(2))

	saved, err := f.svc.SaveAsDraft(ctx, f.coachID, f.studentID, nil)
	require.NoError(t, err)
	resumed, err := f.svc.ResumeDraftRoutine(ctx, f.coachID, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, resumed.RoutineID, "staged copy links back to the saved routine")

	committed, err := f.svc.Commit(ctx, f.coachID, f.studentID, true)
	require.NoError(t, err)
	assert.NotEqual(t, saved.ID, committed.ID)

	// The committed routine replaces the saved draft; only one routine
	// remains on record for the student.
	routines, err := f.routines.GetByStudentAndCoachID(ctx, f.studentID, f.coachID)
	require.NoError(t, err)
	require.Len(t, routines, 1)
	assert.Equal(t, committed.ID, routines[0].ID)
	assert.Equal(t, domain.RoutineActive, routines[0].Status)

	// The superseded routine's tree is gone with it.
	workouts, err := f.workouts.GetByRoutineID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Empty(t, workouts)
}

func TestBuilder_ResaveAfterResume_SupersedesSavedDraft(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()
	buildCompleteDraft(t, f, builderConfig(1))

	first, err := f.svc.SaveAsDraft(ctx, f.coachID, f.studentID, nil)
	require.NoError(t, err)
	_, err = f.svc.ResumeDraftRoutine(ctx, f.coachID, first.ID)
	require.NoError(t, err)

	second, err := f.svc.SaveAsDraft(ctx, f.coachID, f.studentID, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	routines, err := f.routines.GetByStudentAndCoachID(ctx, f.studentID, f.coachID)
	require.NoError(t, err)
	require.Len(t, routines, 1, "re-saving a resumed draft never duplicates it")
	assert.Equal(t, second.ID, routines[0].ID)

	_, err = f.routines.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBuilder_Discard(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()
	buildCompleteDraft(t, f, builderConfig(1))

	require.NoError(t, f.svc.Discard(ctx, f.coachID, f.studentID))
	_, err := f.drafts.Load(ctx, f.studentID)
	assert.ErrorIs(t, err, staging.ErrDraftNotFound)
}
