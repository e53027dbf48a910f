// internal/staging/draft.go
package staging

import (
	"fmt"
	"time"
	"unicode/utf8"

	"alcyxob/routine-forge/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WizardStep is one step of the routine builder. The four steps are strictly
// linear; forward movement is gated on step completeness, backward movement
// is always allowed.
type WizardStep int

const (
	StepConfiguration WizardStep = iota + 1
	StepWorkouts
	StepExercises
	StepReview
)

func (s WizardStep) String() string {
	switch s {
	case StepConfiguration:
		return "configuration"
	case StepWorkouts:
		return "workouts"
	case StepExercises:
		return "exercises"
	case StepReview:
		return "review"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Configuration is the wizard's first-step slice of the draft.
type Configuration struct {
	Name            string            `bson:"name" json:"name"`
	Objective       domain.Objective  `bson:"objective" json:"objective"`
	Difficulty      domain.Difficulty `bson:"difficulty" json:"difficulty"`
	SessionsPerWeek int               `bson:"sessionsPerWeek" json:"sessionsPerWeek"`
	DurationWeeks   *int              `bson:"durationWeeks,omitempty" json:"durationWeeks,omitempty"`
	AllowSelfGuided bool              `bson:"allowSelfGuided" json:"allowSelfGuided"`
	Notes           string            `bson:"notes,omitempty" json:"notes,omitempty"`
}

// IsComplete reports whether the Configuration step gate is satisfied.
func (c Configuration) IsComplete() bool {
	return c.Name != "" && c.Objective != "" && c.Difficulty != "" && c.SessionsPerWeek >= 1
}

// DraftSlot is a staged ExerciseSlot. LocalID identifies it while the slot
// has no persisted identity yet.
type DraftSlot struct {
	LocalID          string              `bson:"localId" json:"localId"`
	ExerciseID       primitive.ObjectID  `bson:"exerciseId" json:"exerciseId"`
	PairedExerciseID *primitive.ObjectID `bson:"pairedExerciseId,omitempty" json:"pairedExerciseId,omitempty"`
	Sequence         int                 `bson:"sequence" json:"sequence"`
	RestAfterSeconds int                 `bson:"restAfterSeconds" json:"restAfterSeconds"`
	Notes            string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Series           []domain.Series     `bson:"series" json:"series"`
}

// Kind returns the series variant this slot's sets use.
func (s DraftSlot) Kind() domain.SeriesKind {
	if s.PairedExerciseID != nil && *s.PairedExerciseID != primitive.NilObjectID {
		return domain.SeriesCombined
	}
	return domain.SeriesSimple
}

// IsComplete reports whether the slot carries at least one series.
func (s DraftSlot) IsComplete() bool {
	return len(s.Series) >= 1
}

// DraftWorkout is a staged Workout with its staged slots inline.
type DraftWorkout struct {
	LocalID          string      `bson:"localId" json:"localId"`
	Sequence         int         `bson:"sequence" json:"sequence"`
	Name             string      `bson:"name" json:"name"`
	MuscleGroups     []string    `bson:"muscleGroups,omitempty" json:"muscleGroups,omitempty"`
	Notes            string      `bson:"notes,omitempty" json:"notes,omitempty"`
	EstimatedMinutes int         `bson:"estimatedMinutes,omitempty" json:"estimatedMinutes,omitempty"`
	Slots            []DraftSlot `bson:"slots" json:"slots"`
}

// IsComplete mirrors the committed Workout rule: name of at least two
// characters and at least one muscle group.
func (w DraftWorkout) IsComplete() bool {
	return utf8.RuneCountInString(w.Name) >= domain.MinWorkoutNameLen && len(w.MuscleGroups) >= 1
}

// RoutineDraft is the staged, not-yet-committed routine aggregate. One draft
// exists per (coach, student) authoring flow, keyed by student: the staging
// store scopes drafts per student so a coach working on several students in
// one session never leaks data across them.
type RoutineDraft struct {
	StudentID primitive.ObjectID `bson:"studentId" json:"studentId"`
	CoachID   primitive.ObjectID `bson:"coachId" json:"coachId"`
	// RoutineID links a staged copy back to the server-side Draft routine
	// it was resumed from. The next save or commit supersedes that routine
	// instead of creating a duplicate. Nil for drafts started fresh.
	RoutineID primitive.ObjectID `bson:"routineId,omitempty" json:"routineId,omitempty"`
	Step      WizardStep         `bson:"step" json:"step"`
	Config    Configuration      `bson:"config" json:"config"`
	Workouts  []DraftWorkout     `bson:"workouts,omitempty" json:"workouts,omitempty"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewDraft creates an empty draft positioned on the first step.
func NewDraft(studentID, coachID primitive.ObjectID) *RoutineDraft {
	return &RoutineDraft{
		StudentID: studentID,
		CoachID:   coachID,
		Step:      StepConfiguration,
	}
}

// workoutName produces the default sequential name for the i-th workout
// (1-based): "Workout A", "Workout B", ...
func workoutName(sequence int) string {
	if sequence >= 1 && sequence <= 26 {
		return fmt.Sprintf("Workout %c", 'A'+sequence-1)
	}
	return fmt.Sprintf("Workout %d", sequence)
}

// NewDraftWorkout creates a staged workout at the given ordinal with its
// default sequential name. It starts incomplete: no muscle groups yet.
func NewDraftWorkout(sequence int) DraftWorkout {
	return DraftWorkout{
		LocalID:  uuid.NewString(),
		Sequence: sequence,
		Name:     workoutName(sequence),
	}
}

// GenerateWorkouts populates the workout list from SessionsPerWeek, one
// workout per weekly session. It only acts when the list is still empty;
// deliberate rebuilds go through RegenerateWorkouts.
func (d *RoutineDraft) GenerateWorkouts() {
	if len(d.Workouts) > 0 || d.Config.SessionsPerWeek < 1 {
		return
	}
	d.Workouts = make([]DraftWorkout, 0, d.Config.SessionsPerWeek)
	for i := 1; i <= d.Config.SessionsPerWeek; i++ {
		d.Workouts = append(d.Workouts, NewDraftWorkout(i))
	}
}

// RegenerateWorkouts discards the entire workout list, including every
// staged slot and series beneath it, and rebuilds newCount fresh workouts.
// Data loss is the contract: callers invoke this only on a deliberate
// change of the weekly session count after workouts already exist.
func (d *RoutineDraft) RegenerateWorkouts(newCount int) {
	if newCount < 1 {
		return
	}
	d.Config.SessionsPerWeek = newCount
	d.Workouts = nil
	d.GenerateWorkouts()
}

// WorkoutByLocalID returns the staged workout with the given local ID, or
// nil if the draft holds no such workout.
func (d *RoutineDraft) WorkoutByLocalID(localID string) *DraftWorkout {
	for i := range d.Workouts {
		if d.Workouts[i].LocalID == localID {
			return &d.Workouts[i]
		}
	}
	return nil
}

// WorkoutsComplete reports whether the Workouts step gate is satisfied:
// every staged workout is complete.
func (d *RoutineDraft) WorkoutsComplete() bool {
	if len(d.Workouts) == 0 {
		return false
	}
	for _, w := range d.Workouts {
		if !w.IsComplete() {
			return false
		}
	}
	return true
}

// ExercisesComplete reports whether the Exercises step gate is satisfied:
// every staged workout holds at least one slot, and every slot at least one
// series.
func (d *RoutineDraft) ExercisesComplete() bool {
	if len(d.Workouts) == 0 {
		return false
	}
	for _, w := range d.Workouts {
		if len(w.Slots) == 0 {
			return false
		}
		for _, s := range w.Slots {
			if !s.IsComplete() {
				return false
			}
		}
	}
	return true
}

// CanAdvanceFrom reports whether the gate out of the given step is
// satisfied. Review has no forward gate; commit handles it.
func (d *RoutineDraft) CanAdvanceFrom(step WizardStep) bool {
	switch step {
	case StepConfiguration:
		return d.Config.IsComplete()
	case StepWorkouts:
		return d.WorkoutsComplete()
	case StepExercises:
		return d.ExercisesComplete()
	default:
		return false
	}
}
