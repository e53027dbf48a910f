// internal/service/routine_service.go
package service

import (
	"alcyxob/routine-forge/internal/domain"
	"alcyxob/routine-forge/internal/repository"
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrRoutineNotFound     = errors.New("routine not found")
	ErrRoutineAccessDenied = errors.New("access denied to this routine")
)

// RoutineDetail aggregates a routine with its full workout, slot and series
// tree, as the review and execution screens consume it.
type RoutineDetail struct {
	Routine  domain.Routine  `json:"routine"`
	Workouts []WorkoutDetail `json:"workouts"`
}

type WorkoutDetail struct {
	Workout domain.Workout `json:"workout"`
	Slots   []SlotDetail   `json:"slots"`
}

type SlotDetail struct {
	Slot   domain.ExerciseSlot `json:"slot"`
	Series []domain.Series     `json:"series"`
}

// --- Service Interface ---

// RoutineService manages the lifecycle of committed routines. Status changes
// go through the routine transition table only; there is no free-form status
// setter.
type RoutineService interface {
	Activate(ctx context.Context, coachID, routineID primitive.ObjectID) (*domain.Routine, error)
	Complete(ctx context.Context, coachID, routineID primitive.ObjectID) (*domain.Routine, error)
	Cancel(ctx context.Context, coachID, routineID primitive.ObjectID) (*domain.Routine, error)

	ListForStudent(ctx context.Context, coachID, studentID primitive.ObjectID) ([]domain.Routine, error)
	GetActiveForStudent(ctx context.Context, studentID primitive.ObjectID) (*domain.Routine, error)
	GetDetail(ctx context.Context, callerID primitive.ObjectID, callerRole domain.Role, routineID primitive.ObjectID) (*RoutineDetail, error)
}

// --- Service Implementation ---

type routineService struct {
	userRepo    repository.UserRepository
	routineRepo repository.RoutineRepository
	workoutRepo repository.WorkoutRepository
	slotRepo    repository.SlotRepository
	seriesRepo  repository.SeriesRepository
	sessionRepo repository.SessionRepository
}

// NewRoutineService creates a new instance of routineService.
func NewRoutineService(
	userRepo repository.UserRepository,
	routineRepo repository.RoutineRepository,
	workoutRepo repository.WorkoutRepository,
	slotRepo repository.SlotRepository,
	seriesRepo repository.SeriesRepository,
	sessionRepo repository.SessionRepository,
) RoutineService {
	return &routineService{
		userRepo:    userRepo,
		routineRepo: routineRepo,
		workoutRepo: workoutRepo,
		slotRepo:    slotRepo,
		seriesRepo:  seriesRepo,
		sessionRepo: sessionRepo,
	}
}

// Activate transitions a Draft or Locked routine to Active. Any other
// routine of the same student that was Active is locked in the same call,
// so at most one routine per student is Active at any moment. Planned
// session rows are created on first activation.
func (s *routineService) Activate(ctx context.Context, coachID, routineID primitive.ObjectID) (*domain.Routine, error) {
	routine, err := s.ownedRoutine(ctx, coachID, routineID)
	if err != nil {
		return nil, err
	}

	next, err := routine.Status.Apply(domain.RoutineActionActivate)
	if err != nil {
		return nil, err
	}

	if err := s.routineRepo.UpdateStatus(ctx, routineID, next); err != nil {
		return nil, err
	}
	if err := s.routineRepo.LockOthersForStudent(ctx, routine.StudentID, routineID); err != nil {
		return nil, err
	}
	routine.Status = next

	// A routine re-activated from Locked already carries its session rows.
	existing, err := s.sessionRepo.GetByRoutineID(ctx, routineID)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		if err := createPlannedSessions(ctx, s.workoutRepo, s.sessionRepo, routine); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"routine": routineID.Hex(),
		"student": routine.StudentID.Hex(),
	}).Info("routine activated")
	return routine, nil
}

// Complete transitions an Active routine to Completed (terminal).
func (s *routineService) Complete(ctx context.Context, coachID, routineID primitive.ObjectID) (*domain.Routine, error) {
	return s.applyAction(ctx, coachID, routineID, domain.RoutineActionComplete)
}

// Cancel transitions a routine to Cancelled (terminal).
func (s *routineService) Cancel(ctx context.Context, coachID, routineID primitive.ObjectID) (*domain.Routine, error) {
	return s.applyAction(ctx, coachID, routineID, domain.RoutineActionCancel)
}

// ListForStudent returns the student's routines, newest first.
func (s *routineService) ListForStudent(ctx context.Context, coachID, studentID primitive.ObjectID) ([]domain.Routine, error) {
	if _, err := requireManagedStudent(ctx, s.userRepo, coachID, studentID); err != nil {
		return nil, err
	}
	return s.routineRepo.GetByStudentAndCoachID(ctx, studentID, coachID)
}

// GetActiveForStudent returns the student's single Active routine, if any.
func (s *routineService) GetActiveForStudent(ctx context.Context, studentID primitive.ObjectID) (*domain.Routine, error) {
	routine, err := s.routineRepo.GetActiveByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoutineNotFound
		}
		return nil, err
	}
	return routine, nil
}

// GetDetail loads the full routine tree. Coaches see routines they authored;
// students see their own.
func (s *routineService) GetDetail(ctx context.Context, callerID primitive.ObjectID, callerRole domain.Role, routineID primitive.ObjectID) (*RoutineDetail, error) {
	routine, err := s.routineRepo.GetByID(ctx, routineID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoutineNotFound
		}
		return nil, err
	}
	switch callerRole {
	case domain.RoleCoach:
		if routine.CoachID != callerID {
			return nil, ErrRoutineAccessDenied
		}
	case domain.RoleStudent:
		if routine.StudentID != callerID {
			return nil, ErrRoutineAccessDenied
		}
	default:
		return nil, ErrRoutineAccessDenied
	}

	workouts, err := s.workoutRepo.GetByRoutineID(ctx, routineID)
	if err != nil {
		return nil, err
	}

	detail := &RoutineDetail{Routine: *routine}
	for _, workout := range workouts {
		wd := WorkoutDetail{Workout: workout}
		slots, err := s.slotRepo.GetByWorkoutID(ctx, workout.ID)
		if err != nil {
			return nil, err
		}
		for _, slot := range slots {
			series, err := s.seriesRepo.GetBySlotID(ctx, slot.ID)
			if err != nil {
				return nil, err
			}
			wd.Slots = append(wd.Slots, SlotDetail{Slot: slot, Series: series})
		}
		detail.Workouts = append(detail.Workouts, wd)
	}
	return detail, nil
}

// --- Helpers ---

func (s *routineService) ownedRoutine(ctx context.Context, coachID, routineID primitive.ObjectID) (*domain.Routine, error) {
	routine, err := s.routineRepo.GetByID(ctx, routineID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoutineNotFound
		}
		return nil, err
	}
	if routine.CoachID != coachID {
		return nil, ErrRoutineAccessDenied
	}
	return routine, nil
}

func (s *routineService) applyAction(ctx context.Context, coachID, routineID primitive.ObjectID, action domain.RoutineAction) (*domain.Routine, error) {
	routine, err := s.ownedRoutine(ctx, coachID, routineID)
	if err != nil {
		return nil, err
	}
	next, err := routine.Status.Apply(action)
	if err != nil {
		return nil, err
	}
	if err := s.routineRepo.UpdateStatus(ctx, routineID, next); err != nil {
		return nil, err
	}
	routine.Status = next

	log.WithFields(log.Fields{
		"routine": routineID.Hex(),
		"action":  action,
		"status":  next,
	}).Info("routine status changed")
	return routine, nil
}
