package repository

import (
	"alcyxob/routine-forge/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	AddStudentIDToCoach(ctx context.Context, coachID, studentID primitive.ObjectID) error
	GetStudentsByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)
	SetCoachForStudent(ctx context.Context, studentID, coachID primitive.ObjectID) error
}

// ExerciseRepository defines the interface for interacting with the exercise
// catalog.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error // Ensure coach owns the exercise
}

// RoutineRepository defines the interface for interacting with committed
// routine data.
type RoutineRepository interface {
	Create(ctx context.Context, routine *domain.Routine) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Routine, error)
	GetByStudentAndCoachID(ctx context.Context, studentID, coachID primitive.ObjectID) ([]domain.Routine, error)
	GetActiveByStudentID(ctx context.Context, studentID primitive.ObjectID) (*domain.Routine, error)
	Update(ctx context.Context, routine *domain.Routine) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.RoutineStatus) error
	// Delete removes a routine document. Only Draft routines are ever
	// deleted; committed routines keep their history and change status
	// instead.
	Delete(ctx context.Context, id primitive.ObjectID) error
	// LockOthersForStudent moves every other Active routine of the student
	// to Locked. Part of the activation flow: at most one Active routine
	// per student at any time.
	LockOthersForStudent(ctx context.Context, studentID, excludeRoutineID primitive.ObjectID) error
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	GetByRoutineID(ctx context.Context, routineID primitive.ObjectID) ([]domain.Workout, error)
	DeleteByRoutineID(ctx context.Context, routineID primitive.ObjectID) error
}

// SlotRepository defines the interface for interacting with exercise slots.
type SlotRepository interface {
	Create(ctx context.Context, slot *domain.ExerciseSlot) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseSlot, error)
	GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.ExerciseSlot, error)
	DeleteByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) error
}

// SeriesRepository defines the interface for interacting with series data.
type SeriesRepository interface {
	CreateMany(ctx context.Context, series []domain.Series) error
	GetBySlotID(ctx context.Context, slotID primitive.ObjectID) ([]domain.Series, error)
	DeleteBySlotID(ctx context.Context, slotID primitive.ObjectID) error
}

// SessionRepository defines the interface for interacting with execution
// sessions. Sessions are never deleted.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.ExecutionSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExecutionSession, error)
	GetByRoutineID(ctx context.Context, routineID primitive.ObjectID) ([]domain.ExecutionSession, error)
	// GetLatestExecuted returns the most recent session with a non-null
	// execution date for the routine/student pair, ordered by execution
	// date desc then session number desc. ErrNotFound when none exists.
	GetLatestExecuted(ctx context.Context, routineID, studentID primitive.ObjectID) (*domain.ExecutionSession, error)
	Update(ctx context.Context, session *domain.ExecutionSession) error
}
