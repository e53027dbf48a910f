package service

import (
	"alcyxob/routine-forge/internal/cache"
	"alcyxob/routine-forge/internal/domain"
	"alcyxob/routine-forge/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound     = errors.New("exercise not found")
	ErrExerciseAccessDenied = errors.New("access denied to modify or delete this exercise")
	ErrValidationFailed     = errors.New("exercise validation failed")
)

// --- Service Interface ---
type CatalogService interface {
	CreateExercise(ctx context.Context, coachID primitive.ObjectID, name, description string, equipment domain.EquipmentClass, muscleGroup, difficulty string) (*domain.Exercise, error)
	GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	GetExercisesByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, coachID, exerciseID primitive.ObjectID, name, description string, equipment domain.EquipmentClass, muscleGroup, difficulty string) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, coachID, exerciseID primitive.ObjectID) error
	// Lookup serves display attributes through the exercise cache:
	// synchronous, never fails, placeholder until resolved.
	Lookup(exerciseID primitive.ObjectID) domain.DisplayInfo
}

// --- Service Implementation ---

// catalogService implements the CatalogService interface.
type catalogService struct {
	exerciseRepo repository.ExerciseRepository
	lookupCache  *cache.ExerciseCache
}

// NewCatalogService creates a new instance of catalogService.
func NewCatalogService(exerciseRepo repository.ExerciseRepository, lookupCache *cache.ExerciseCache) CatalogService {
	return &catalogService{
		exerciseRepo: exerciseRepo,
		lookupCache:  lookupCache,
	}
}

// CreateExercise handles the creation of a new exercise by a coach.
func (s *catalogService) CreateExercise(ctx context.Context, coachID primitive.ObjectID, name, description string, equipment domain.EquipmentClass, muscleGroup, difficulty string) (*domain.Exercise, error) {
	if name == "" || equipment == "" {
		return nil, ErrValidationFailed
	}
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID is required to create an exercise")
	}

	exercise := &domain.Exercise{
		CoachID:     coachID,
		Name:        name,
		Description: description,
		Equipment:   equipment,
		MuscleGroup: muscleGroup,
		Difficulty:  difficulty,
	}

	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	// Fetch again to get DB-populated timestamps
	return s.exerciseRepo.GetByID(ctx, exerciseID)
}

// GetExerciseByID retrieves a single exercise.
func (s *catalogService) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

// GetExercisesByCoach retrieves all exercises in a coach's catalog.
func (s *catalogService) GetExercisesByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Exercise, error) {
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID cannot be nil")
	}
	exercises, err := s.exerciseRepo.GetByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	return exercises, nil
}

// UpdateExercise handles updating an existing exercise, ensuring ownership.
func (s *catalogService) UpdateExercise(ctx context.Context, coachID, exerciseID primitive.ObjectID, name, description string, equipment domain.EquipmentClass, muscleGroup, difficulty string) (*domain.Exercise, error) {
	if name == "" || equipment == "" {
		return nil, ErrValidationFailed
	}
	if coachID == primitive.NilObjectID || exerciseID == primitive.NilObjectID {
		return nil, errors.New("coach ID and exercise ID are required")
	}

	existing, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	if existing.CoachID != coachID {
		return nil, ErrExerciseAccessDenied
	}

	existing.Name = name
	existing.Description = description
	existing.Equipment = equipment
	existing.MuscleGroup = muscleGroup
	existing.Difficulty = difficulty

	err = s.exerciseRepo.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	// The cached display attributes may be stale now.
	if s.lookupCache != nil {
		s.lookupCache.Invalidate(exerciseID)
	}
	return existing, nil
}

// DeleteExercise handles deleting an exercise, ensuring ownership.
func (s *catalogService) DeleteExercise(ctx context.Context, coachID, exerciseID primitive.ObjectID) error {
	if coachID == primitive.NilObjectID || exerciseID == primitive.NilObjectID {
		return errors.New("coach ID and exercise ID are required")
	}

	// The repository's Delete includes the coachID in its filter, so
	// ownership is enforced at the DB level.
	err := s.exerciseRepo.Delete(ctx, exerciseID, coachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}

	if s.lookupCache != nil {
		s.lookupCache.Invalidate(exerciseID)
	}
	return nil
}

// Lookup serves display attributes for one exercise through the cache.
func (s *catalogService) Lookup(exerciseID primitive.ObjectID) domain.DisplayInfo {
	return s.lookupCache.Get(exerciseID)
}
