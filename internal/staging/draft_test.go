package staging

import (
	"testing"

	"alcyxob/routine-forge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func completeConfig(sessions int) Configuration {
	return Configuration{
		Name:            "Fall Block",
		Objective:       domain.ObjectiveHypertrophy,
		Difficulty:      domain.DifficultyIntermediate,
		SessionsPerWeek: sessions,
	}
}

func TestNewDraft_StartsOnConfiguration(t *testing.T) {
	d := NewDraft(primitive.NewObjectID(), primitive.NewObjectID())
	assert.Equal(t, StepConfiguration, d.Step)
	assert.Empty(t, d.Workouts)
}

func TestConfiguration_IsComplete(t *testing.T) {
	assert.False(t, Configuration{}.IsComplete())
	assert.False(t, Configuration{Name: "X", Objective: domain.ObjectiveStrength, Difficulty: domain.DifficultyBeginner}.IsComplete())
	assert.True(t, completeConfig(3).IsComplete())
}

func TestGenerateWorkouts_SequentialNames(t *testing.T) {
	d := NewDraft(primitive.NewObjectID(), primitive.NewObjectID())
	d.Config = completeConfig(3)
	d.GenerateWorkouts()

	require.Len(t, d.Workouts, 3)
	assert.Equal(t, "Workout A", d.Workouts[0].Name)
	assert.Equal(t, "Workout B", d.Workouts[1].Name)
	assert.Equal(t, "Workout C", d.Workouts[2].Name)
	for i, w := range d.Workouts {
		assert.Equal(t, i+1, w.Sequence)
		assert.NotEmpty(t, w.LocalID)
		assert.False(t, w.IsComplete(), "generated workouts start incomplete")
	}
}

func TestGenerateWorkouts_OnlyWhenEmpty(t *testing.T) {
	d := NewDraft(primitive.NewObjectID(), primitive.NewObjectID())
	d.Config = completeConfig(2)
	d.GenerateWorkouts()
	d.Workouts[0].Name = "Push"

	d.GenerateWorkouts()
	require.Len(t, d.Workouts, 2)
	assert.Equal(t, "Push", d.Workouts[0].Name, "regeneration must be explicit")
}

func TestRegenerateWorkouts_DiscardsEverything(t *testing.T) {
	d := NewDraft(primitive.NewObjectID(), primitive.NewObjectID())
	d.Config = completeConfig(2)
	d.GenerateWorkouts()
	d.Workouts[0].MuscleGroups = []string{"Chest"}
	d.Workouts[0].Slots = []DraftSlot{{
		LocalID:    "slot-1",
		ExerciseID: primitive.NewObjectID(),
		Series:     domain.AppendSeries(nil, domain.SeriesSimple),
	}}

	d.RegenerateWorkouts(4)

	require.Len(t, d.Workouts, 4)
	assert.Equal(t, 4, d.Config.SessionsPerWeek)
	for _, w := range d.Workouts {
		assert.Empty(t, w.Slots)
		assert.Empty(t, w.MuscleGroups)
	}
}

func TestWorkoutByLocalID(t *testing.T) {
	d := NewDraft(primitive.NewObjectID(), primitive.NewObjectID())
	d.Config = completeConfig(2)
	d.GenerateWorkouts()

	found := d.WorkoutByLocalID(d.Workouts[1].LocalID)
	require.NotNil(t, found)
	assert.Equal(t, "Workout B", found.Name)

	assert.Nil(t, d.WorkoutByLocalID("nope"))
}

func TestDraftSlot_Kind(t *testing.T) {
	slot := DraftSlot{ExerciseID: primitive.NewObjectID()}
	assert.Equal(t, domain.SeriesSimple, slot.Kind())

	paired := primitive.NewObjectID()
	slot.PairedExerciseID = &paired
	assert.Equal(t, domain.SeriesCombined, slot.Kind())
}

func TestCanAdvanceFrom_Gates(t *testing.T) {
	d := NewDraft(primitive.NewObjectID(), primitive.NewObjectID())
	assert.False(t, d.CanAdvanceFrom(StepConfiguration))

	d.Config = completeConfig(1)
	assert.True(t, d.CanAdvanceFrom(StepConfiguration))

	d.GenerateWorkouts()
	assert.False(t, d.CanAdvanceFrom(StepWorkouts), "workout has no muscle groups yet")

	d.Workouts[0].MuscleGroups = []string{"Legs"}
	assert.True(t, d.CanAdvanceFrom(StepWorkouts))

	assert.False(t, d.CanAdvanceFrom(StepExercises), "workout has no slots yet")
	d.Workouts[0].Slots = []DraftSlot{{
		LocalID:    "slot-1",
		ExerciseID: primitive.NewObjectID(),
		Series:     domain.AppendSeries(nil, domain.SeriesSimple),
	}}
	assert.True(t, d.CanAdvanceFrom(StepExercises))

	assert.False(t, d.CanAdvanceFrom(StepReview), "review has no forward gate")
}

func TestWizardStep_String(t *testing.T) {
	assert.Equal(t, "configuration", StepConfiguration.String())
	assert.Equal(t, "review", StepReview.String())
}
