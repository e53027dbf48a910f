// internal/domain/session.go
package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionStatus is the lifecycle state of one execution session.
type SessionStatus string

const (
	SessionOpen       SessionStatus = "open"
	SessionInProgress SessionStatus = "in_progress"
	SessionPaused     SessionStatus = "paused"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// SessionAction names a requested session status change.
type SessionAction string

const (
	SessionActionResume   SessionAction = "resume" // also starts an Open session
	SessionActionPause    SessionAction = "pause"
	SessionActionComplete SessionAction = "complete"
	SessionActionCancel   SessionAction = "cancel"
)

// ErrIllegalSessionTransition is returned when a status change is not
// permitted from the session's current status.
var ErrIllegalSessionTransition = errors.New("illegal session status transition")

// sessionTransitions is the closed transition table: current status x action
// -> next status. Absence means rejection. Completed and Cancelled are
// terminal. Resume from InProgress maps back to InProgress: an idempotent
// transition, kept in the table so the execution date still gets refreshed.
var sessionTransitions = map[SessionStatus]map[SessionAction]SessionStatus{
	SessionOpen: {
		SessionActionResume: SessionInProgress,
		SessionActionCancel: SessionCancelled,
	},
	SessionInProgress: {
		SessionActionResume:   SessionInProgress,
		SessionActionPause:    SessionPaused,
		SessionActionComplete: SessionCompleted,
		SessionActionCancel:   SessionCancelled,
	},
	SessionPaused: {
		SessionActionResume: SessionInProgress,
		SessionActionCancel: SessionCancelled,
	},
}

// Apply resolves an action against the transition table.
func (s SessionStatus) Apply(action SessionAction) (SessionStatus, error) {
	next, ok := sessionTransitions[s][action]
	if !ok {
		return s, ErrIllegalSessionTransition
	}
	return next, nil
}

// IsTerminal reports whether no further status changes are allowed.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// ExecutionMode distinguishes who is physically running the session. It is
// resolved from the caller's role at session start and persisted, so history
// queries never re-derive it.
type ExecutionMode string

const (
	ModeCoachAssisted ExecutionMode = "coach_assisted"
	ModeSelfGuided    ExecutionMode = "self_guided"
)

// ModeForRole maps the acting role to the execution mode.
func ModeForRole(role Role) ExecutionMode {
	if role == RoleCoach {
		return ModeCoachAssisted
	}
	return ModeSelfGuided
}

// SlotOutcome records what happened to one planned slot during a session.
type SlotOutcome string

const (
	OutcomeAttempted SlotOutcome = "attempted"
	OutcomeSkipped   SlotOutcome = "skipped"
)

// SlotResult is the per-slot outcome embedded in a session. Skipped slots
// are recorded, never dropped: partial completion is a first-class terminal
// outcome, not an error.
type SlotResult struct {
	SlotID  primitive.ObjectID `bson:"slotId" json:"slotId"`
	Outcome SlotOutcome        `bson:"outcome" json:"outcome"`
}

// ExecutionSession is one concrete, datable attempt at running a specific
// Workout of a specific Routine. Sessions are never deleted, only
// status-transitioned, to preserve history.
type ExecutionSession struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoutineID      primitive.ObjectID `bson:"routineId" json:"routineId"`
	WorkoutID      primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	StudentID      primitive.ObjectID `bson:"studentId" json:"studentId"`
	SessionNumber  int                `bson:"sessionNumber" json:"sessionNumber"`
	Status         SessionStatus      `bson:"status" json:"status"`
	ExecutedAt     *time.Time         `bson:"executedAt,omitempty" json:"executedAt,omitempty"`
	ElapsedSeconds int                `bson:"elapsedSeconds" json:"elapsedSeconds"`
	PlannedMinutes int                `bson:"plannedMinutes" json:"plannedMinutes"`
	Mode           ExecutionMode      `bson:"mode,omitempty" json:"mode,omitempty"`
	SlotResults    []SlotResult       `bson:"slotResults,omitempty" json:"slotResults,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
