package domain

import (
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MinWorkoutNameLen is the minimum name length for a workout to count as
// complete in the builder.
const MinWorkoutNameLen = 2

// Workout represents one named training day within a Routine.
type Workout struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoutineID        primitive.ObjectID `bson:"routineId" json:"routineId"`
	Sequence         int                `bson:"sequence" json:"sequence"` // Order within the routine, 1-based
	Name             string             `bson:"name" json:"name"`         // e.g., "Workout A", "Upper Body"
	MuscleGroups     []string           `bson:"muscleGroups" json:"muscleGroups"`
	Notes            string             `bson:"notes,omitempty" json:"notes,omitempty"`
	EstimatedMinutes int                `bson:"estimatedMinutes,omitempty" json:"estimatedMinutes,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsComplete reports whether the workout satisfies the builder's Workouts
// step gate: a name of at least two characters and at least one muscle group.
func (w Workout) IsComplete() bool {
	return utf8.RuneCountInString(w.Name) >= MinWorkoutNameLen && len(w.MuscleGroups) >= 1
}
