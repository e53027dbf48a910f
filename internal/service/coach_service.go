package service

import (
	"alcyxob/routine-forge/internal/domain"
	"alcyxob/routine-forge/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrStudentNotFound        = errors.New("student user not found")
	ErrStudentNotRole         = errors.New("user found but is not a student")
	ErrStudentAlreadyAssigned = errors.New("student is already assigned to a coach")
	ErrStudentNotManaged      = errors.New("student is not managed by this coach")
)

// --- Service Interface ---
type CoachService interface {
	AddStudentByEmail(ctx context.Context, coachID primitive.ObjectID, studentEmail string) (*domain.User, error)
	GetManagedStudents(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)
}

// --- Service Implementation ---

// coachService implements the CoachService interface.
type coachService struct {
	userRepo repository.UserRepository
}

// NewCoachService creates a new instance of coachService.
func NewCoachService(userRepo repository.UserRepository) CoachService {
	return &coachService{
		userRepo: userRepo,
	}
}

// AddStudentByEmail finds a student by email and assigns them to the coach.
func (s *coachService) AddStudentByEmail(ctx context.Context, coachID primitive.ObjectID, studentEmail string) (*domain.User, error) {
	// 1. Validate Input
	if coachID == primitive.NilObjectID || studentEmail == "" {
		return nil, errors.New("coach ID and student email are required")
	}

	// 2. Find the potential student user
	student, err := s.userRepo.GetByEmail(ctx, studentEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	// 3. Verify the user is actually a student
	if student.Role != domain.RoleStudent {
		return nil, ErrStudentNotRole
	}

	// 4. Check if the student is already assigned to any coach
	if student.CoachID != nil && *student.CoachID != primitive.NilObjectID {
		if *student.CoachID == coachID {
			// Already managed by this coach
			return student, nil
		}
		return nil, ErrStudentAlreadyAssigned
	}

	// 5. Assign student to coach (update both records)
	err = s.userRepo.AddStudentIDToCoach(ctx, coachID, student.ID)
	if err != nil {
		return nil, err
	}

	err = s.userRepo.SetCoachForStudent(ctx, student.ID, coachID)
	if err != nil {
		return nil, err
	}

	student.CoachID = &coachID // Update in-memory object for return
	return student, nil
}

// GetManagedStudents retrieves the list of students managed by the coach.
func (s *coachService) GetManagedStudents(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID is required")
	}
	students, err := s.userRepo.GetStudentsByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	// Clear password hashes before returning
	for i := range students {
		students[i].PasswordHash = ""
	}
	return students, nil
}

// requireManagedStudent verifies a student exists and is managed by the
// coach. Shared by the builder and routine services.
func requireManagedStudent(ctx context.Context, userRepo repository.UserRepository, coachID, studentID primitive.ObjectID) (*domain.User, error) {
	student, err := userRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if student.CoachID == nil || *student.CoachID != coachID {
		return nil, ErrStudentNotManaged
	}
	return student, nil
}
