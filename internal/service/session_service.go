// internal/service/session_service.go
package service

import (
	"alcyxob/routine-forge/internal/domain"
	"alcyxob/routine-forge/internal/repository"
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAccessDenied  = errors.New("access denied to this session")
	ErrSelfGuidedNotAllowed = errors.New("routine does not allow self-guided execution")
)

// DefaultRefreshDelay is how long external change notifications for one
// routine are coalesced before subscribers are told to re-fetch.
const DefaultRefreshDelay = 400 * time.Millisecond

// --- Service Interface ---

// SessionService drives execution sessions through their status lifecycle.
// All status changes go through the session transition table; sessions are
// never deleted, so a student's execution history stays intact.
type SessionService interface {
	// Resume starts an Open session or resumes a Paused one. Resuming a
	// session that is already InProgress is legal and refreshes its
	// execution date.
	Resume(ctx context.Context, callerID primitive.ObjectID, callerRole domain.Role, sessionID primitive.ObjectID) (*domain.ExecutionSession, error)
	Pause(ctx context.Context, callerID primitive.ObjectID, callerRole domain.Role, sessionID primitive.ObjectID, elapsedSeconds int) (*domain.ExecutionSession, error)
	// Complete finishes a session, recording an outcome for every slot of
	// its workout: attempted for the given slot IDs, skipped for the rest.
	Complete(ctx context.Context, callerID primitive.ObjectID, callerRole domain.Role, sessionID primitive.ObjectID, elapsedSeconds int, attemptedSlotIDs []primitive.ObjectID) (*domain.ExecutionSession, error)
	Cancel(ctx context.Context, callerID primitive.ObjectID, callerRole domain.Role, sessionID primitive.ObjectID) (*domain.ExecutionSession, error)

	// NextSession resolves the session that should run next for a routine:
	// the one after the latest executed session, or the first session when
	// none has been executed yet. Missing rows are created lazily.
	NextSession(ctx context.Context, callerID primitive.ObjectID, callerRole domain.Role, routineID primitive.ObjectID) (*domain.ExecutionSession, error)
	ListForRoutine(ctx context.Context, callerID primitive.ObjectID, callerRole domain.Role, routineID primitive.ObjectID) ([]domain.ExecutionSession, error)

	// NotifyRoutineChanged reports an out-of-band change to a routine's
	// data. Notifications are debounced per routine before subscribers are
	// asked to re-fetch.
	NotifyRoutineChanged(routineID primitive.ObjectID)
	// SubscribeRefresh registers the callback invoked after debouncing.
	SubscribeRefresh(fn func(routineID primitive.ObjectID))
}

// --- Service Implementation ---

type sessionService struct {
	routineRepo repository.RoutineRepository
	workoutRepo repository.WorkoutRepository
	slotRepo    repository.SlotRepository
	sessionRepo repository.SessionRepository

	refresh *Debouncer

	// refreshMu guards onRefresh; the debounce timers read it from their
	// own goroutines.
	refreshMu sync.Mutex
	onRefresh func(routineID primitive.ObjectID)
}

// NewSessionService creates a new instance of sessionService.
func NewSessionService(
	routineRepo repository.RoutineRepository,
	workoutRepo repository.WorkoutRepository,
	slotRepo repository.SlotRepository,
	sessionRepo repository.SessionRepository,
	refreshDelay time.Duration,
) SessionService {
	if refreshDelay <= 0 {
		refreshDelay = DefaultRefreshDelay
	}
	s := &sessionService{
		routineRepo: routineRepo,
		workoutRepo: workoutRepo,
		slotRepo:    slotRepo,
		sessionRepo: sessionRepo,
	}
	s.refresh = NewDebouncer(refreshDelay, func(key string) {
		routineID, err := primitive.ObjectIDFromHex(key)
		if err != nil {
			return
		}
		s.refreshMu.Lock()
		fn := s.onRefresh
		s.refreshMu.Unlock()
		if fn != nil {
			log.WithField("routine", key).Debug("routine change settled; notifying refresh subscriber")
			fn(routineID)
		}
	})
	return s
}

// === Lifecycle ===

// Resume starts or resumes a session. The execution date is stamped on
// every resume, including the idempotent InProgress case, so the session
// always carries the date it was last worked on. The execution mode is
// resolved from the caller's role the first time and then kept.
func (s *sessionService) Resume(ctx context.Context, callerID primitive.ObjectID, callerRole domain.Role, sessionID primitive.ObjectID) (*domain.ExecutionSession, error) {
	session, _, err := s.authorizedSession(ctx, callerID, callerRole, sessionID)
	if err != nil {
		return nil, err
	}

	next, err := session.Status.Apply(domain.SessionActionResume)
	if err != nil {
		return nil, err
	}
	session.Status = next

	now := time.Now()
	session.ExecutedAt = &now
	if session.Mode == "" {
		session.Mode = domain.ModeForRole(callerRole)
	}

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Pause suspends an InProgress session, keeping the elapsed time so a later
// resume continues the clock instead of restarting it.
func (s *sessionService) Pause(ctx context.Context, callerID primitive.ObjectID, callerRole domain.Role, sessionID primitive.ObjectID, elapsedSeconds int) (*domain.ExecutionSession, error) {
	session, _, err := s.authorizedSession(ctx, callerID, callerRole, sessionID)
	if err != nil {
		return nil, err
	}

	next, err := session.Status.Apply(domain.SessionActionPause)
	if err != nil {
		return nil, err
	}
	session.Status = next
	if elapsedSeconds > session.ElapsedSeconds {
		session.ElapsedSeconds = elapsedSeconds
	}

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Complete finishes a session. Every slot of the session's workout gets an
// outcome: attempted when its ID is in attemptedSlotIDs, skipped otherwise.
// Partial completion is a normal terminal outcome.
func (s *sessionService) Complete(ctx context.Context, callerID primitive.ObjectID, callerRole domain.Role, sessionID primitive.ObjectID, elapsedSeconds int, attemptedSlotIDs []primitive.ObjectID) (*domain.ExecutionSession, error) {
	session, _, err := s.authorizedSession(ctx, callerID, callerRole, sessionID)
	if err != nil {
		return nil, err
	}

	next, err := session.Status.Apply(domain.SessionActionComplete)
	if err != nil {
		return nil, err
	}

	slots, err := s.slotRepo.GetByWorkoutID(ctx, session.WorkoutID)
	if err != nil {
		return nil, err
	}
	attempted := make(map[primitive.ObjectID]bool, len(attemptedSlotIDs))
	for _, id := range attemptedSlotIDs {
		attempted[id] = true
	}
	results := make([]domain.SlotResult, 0, len(slots))
	for _, slot := range slots {
		outcome := domain.OutcomeSkipped
		if attempted[slot.ID] {
			outcome = domain.OutcomeAttempted
		}
		results = append(results, domain.SlotResult{SlotID: slot.ID, Outcome: outcome})
	}

	session.Status = next
	session.SlotResults = results
	if elapsedSeconds > session.ElapsedSeconds {
		session.ElapsedSeconds = elapsedSeconds
	}
	if session.ExecutedAt == nil {
		now := time.Now()
		session.ExecutedAt = &now
	}

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"session":   sessionID.Hex(),
		"attempted": len(attemptedSlotIDs),
		"total":     len(slots),
	}).Info("session completed")
	return session, nil
}

// Cancel abandons a session (terminal).
func (s *sessionService) Cancel(ctx context.Context, callerID primitive.ObjectID, callerRole domain.Role, sessionID primitive.ObjectID) (*domain.ExecutionSession, error) {
	session, _, err := s.authorizedSession(ctx, callerID, callerRole, sessionID)
	if err != nil {
		return nil, err
	}

	next, err := session.Status.Apply(domain.SessionActionCancel)
	if err != nil {
		return nil, err
	}
	session.Status = next

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// === Planning ===

// NextSession finds the session to run next. The latest executed session
// determines the position in the plan; when its successor row does not
// exist yet it is created on the fly, continuing the workout cycle.
func (s *sessionService) NextSession(ctx context.Context, callerID primitive.ObjectID, callerRole domain.Role, routineID primitive.ObjectID) (*domain.ExecutionSession, error) {
	routine, err := s.authorizedRoutine(ctx, callerID, callerRole, routineID)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessionRepo.GetByRoutineID(ctx, routineID)
	if err != nil {
		return nil, err
	}

	nextNumber := 1
	latest, err := s.sessionRepo.GetLatestExecuted(ctx, routineID, routine.StudentID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if latest != nil {
		nextNumber = latest.SessionNumber + 1
	}

	for i := range sessions {
		if sessions[i].SessionNumber == nextNumber {
			return &sessions[i], nil
		}
	}

	// Off the end of the planned rows; extend the cycle lazily.
	workouts, err := s.workoutRepo.GetByRoutineID(ctx, routineID)
	if err != nil {
		return nil, err
	}
	if len(workouts) == 0 {
		return nil, ErrSessionNotFound
	}
	workout := workouts[(nextNumber-1)%len(workouts)]
	session := &domain.ExecutionSession{
		RoutineID:      routineID,
		WorkoutID:      workout.ID,
		StudentID:      routine.StudentID,
		SessionNumber:  nextNumber,
		Status:         domain.SessionOpen,
		PlannedMinutes: workout.EstimatedMinutes,
	}
	sessionID, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	session.ID = sessionID
	return session, nil
}

// ListForRoutine returns all sessions of a routine in plan order.
func (s *sessionService) ListForRoutine(ctx context.Context, callerID primitive.ObjectID, callerRole domain.Role, routineID primitive.ObjectID) ([]domain.ExecutionSession, error) {
	if _, err := s.authorizedRoutine(ctx, callerID, callerRole, routineID); err != nil {
		return nil, err
	}
	return s.sessionRepo.GetByRoutineID(ctx, routineID)
}

// === Change notifications ===

func (s *sessionService) NotifyRoutineChanged(routineID primitive.ObjectID) {
	s.refresh.Trigger(routineID.Hex())
}

func (s *sessionService) SubscribeRefresh(fn func(routineID primitive.ObjectID)) {
	s.refreshMu.Lock()
	s.onRefresh = fn
	s.refreshMu.Unlock()
}

// === Helpers ===

// authorizedSession loads a session and checks the caller may drive it.
// Coaches must own the routine. Students must own the session, and running
// it without the coach additionally requires the routine to allow
// self-guided execution; a denial changes nothing about the session.
func (s *sessionService) authorizedSession(ctx context.Context, callerID primitive.ObjectID, callerRole domain.Role, sessionID primitive.ObjectID) (*domain.ExecutionSession, *domain.Routine, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, err
	}

	routine, err := s.routineRepo.GetByID(ctx, session.RoutineID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrRoutineNotFound
		}
		return nil, nil, err
	}

	switch callerRole {
	case domain.RoleCoach:
		if routine.CoachID != callerID {
			return nil, nil, ErrSessionAccessDenied
		}
	case domain.RoleStudent:
		if session.StudentID != callerID {
			return nil, nil, ErrSessionAccessDenied
		}
		if !routine.AllowSelfGuided {
			return nil, nil, ErrSelfGuidedNotAllowed
		}
	default:
		return nil, nil, ErrSessionAccessDenied
	}
	return session, routine, nil
}

func (s *sessionService) authorizedRoutine(ctx context.Context, callerID primitive.ObjectID, callerRole domain.Role, routineID primitive.ObjectID) (*domain.Routine, error) {
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
	return routine, nil
}
