// internal/domain/routine.go
package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Objective is the training goal a routine is built around.
type Objective string

const (
	ObjectiveHypertrophy  Objective = "hypertrophy"
	ObjectiveStrength     Objective = "strength"
	ObjectiveFatLoss      Objective = "fat_loss"
	ObjectiveConditioning Objective = "conditioning"
)

// Difficulty level of a routine.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// RoutineStatus is the lifecycle state of a committed routine.
type RoutineStatus string

const (
	RoutineDraft     RoutineStatus = "draft"
	RoutineActive    RoutineStatus = "active"
	RoutineLocked    RoutineStatus = "locked"
	RoutineCompleted RoutineStatus = "completed"
	RoutineCancelled RoutineStatus = "cancelled"
)

// RoutineAction names a requested routine status change.
type RoutineAction string

const (
	RoutineActionActivate RoutineAction = "activate"
	RoutineActionLock     RoutineAction = "lock"
	RoutineActionComplete RoutineAction = "complete"
	RoutineActionCancel   RoutineAction = "cancel"
)

// ErrIllegalRoutineTransition is returned when a status change is not
// permitted from the routine's current status.
var ErrIllegalRoutineTransition = errors.New("illegal routine status transition")

// routineTransitions is the closed transition table: current status x action
// -> next status. Absence means the transition is rejected. Completed and
// Cancelled are terminal. Lock is how a previously Active routine is moved
// aside when a newer one is activated for the same student.
var routineTransitions = map[RoutineStatus]map[RoutineAction]RoutineStatus{
	RoutineDraft: {
		RoutineActionActivate: RoutineActive,
		RoutineActionCancel:   RoutineCancelled,
	},
	RoutineActive: {
		RoutineActionLock:     RoutineLocked,
		RoutineActionComplete: RoutineCompleted,
		RoutineActionCancel:   RoutineCancelled,
	},
	RoutineLocked: {
		RoutineActionActivate: RoutineActive,
		RoutineActionCancel:   RoutineCancelled,
	},
}

// Apply resolves an action against the transition table.
func (s RoutineStatus) Apply(action RoutineAction) (RoutineStatus, error) {
	next, ok := routineTransitions[s][action]
	if !ok {
		return s, ErrIllegalRoutineTransition
	}
	return next, nil
}

// IsTerminal reports whether no further status changes are allowed.
func (s RoutineStatus) IsTerminal() bool {
	return s == RoutineCompleted || s == RoutineCancelled
}

// Routine is a committed multi-week training program assigned to one student
// by one coach. At most one routine per student may be Active at a time.
type Routine struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentID       primitive.ObjectID `bson:"studentId" json:"studentId"`
	CoachID         primitive.ObjectID `bson:"coachId" json:"coachId"`
	Name            string             `bson:"name" json:"name"`
	Objective       Objective          `bson:"objective" json:"objective"`
	Difficulty      Difficulty         `bson:"difficulty" json:"difficulty"`
	Status          RoutineStatus      `bson:"status" json:"status"`
	SessionsPerWeek int                `bson:"sessionsPerWeek" json:"sessionsPerWeek"`
	DurationWeeks   *int               `bson:"durationWeeks,omitempty" json:"durationWeeks,omitempty"`
	AllowSelfGuided bool               `bson:"allowSelfGuided" json:"allowSelfGuided"` // student may run sessions without the coach
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
