package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseSlot is one position within a Workout. A simple slot references a
// single exercise; a combined slot (superset/bi-set) pairs a second exercise
// with it, in which case PairedExerciseID is non-nil.
type ExerciseSlot struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkoutID        primitive.ObjectID  `bson:"workoutId" json:"workoutId"`
	ExerciseID       primitive.ObjectID  `bson:"exerciseId" json:"exerciseId"`
	PairedExerciseID *primitive.ObjectID `bson:"pairedExerciseId,omitempty" json:"pairedExerciseId,omitempty"`
	Sequence         int                 `bson:"sequence" json:"sequence"` // Order within the workout, 1-based
	// Rest applied after the slot; meaningless (and not rendered) on the
	// workout's last slot.
	RestAfterSeconds int       `bson:"restAfterSeconds" json:"restAfterSeconds"`
	Notes            string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsCombined reports whether the slot pairs two exercises.
func (s ExerciseSlot) IsCombined() bool {
	return s.PairedExerciseID != nil && *s.PairedExerciseID != primitive.NilObjectID
}
