// internal/service/builder_service.go
package service

import (
	"alcyxob/routine-forge/internal/domain"
	"alcyxob/routine-forge/internal/repository"
	"alcyxob/routine-forge/internal/staging"
	"context"
	"errors"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrNoDraft              = errors.New("no staged draft for this student")
	ErrStepGateNotSatisfied = errors.New("current step is not complete")
	ErrSessionsPerWeekFixed = errors.New("sessions per week changed after workouts were generated; use regenerate")
	ErrDraftWorkoutNotFound = errors.New("staged workout not found")
	ErrDraftSlotNotFound    = errors.New("staged slot not found")
	ErrRoutineNotDraft      = errors.New("routine is not in draft status")
)

// SeriesInput carries one edit to a staged series. Nil fields are untouched.
type SeriesInput struct {
	Reps             *int
	LoadKg           *float64
	PairedReps       *int
	PairedLoadKg     *float64
	DropSetLoadKg    *float64
	RestAfterSeconds *int
}

// --- Service Interface ---

// BuilderService is the routine builder wizard: a strictly linear four-step
// flow (Configuration, Workouts, Exercises, Review) over the staged draft.
// Forward navigation is gated on step completeness; backward navigation is
// always allowed and never discards data for completed steps. Every mutation
// is flushed to the staging store, which survives process restarts until the
// draft is committed or discarded.
type BuilderService interface {
	StartOrResume(ctx context.Context, coachID, studentID primitive.ObjectID) (*staging.RoutineDraft, error)
	Advance(ctx context.Context, coachID, studentID primitive.ObjectID) (*staging.RoutineDraft, error)
	Back(ctx context.Context, coachID, studentID primitive.ObjectID) (*staging.RoutineDraft, error)

	SaveConfiguration(ctx context.Context, coachID, studentID primitive.ObjectID, cfg staging.Configuration) (*staging.RoutineDraft, error)
	SaveWorkouts(ctx context.Context, coachID, studentID primitive.ObjectID, workouts []staging.DraftWorkout) (*staging.RoutineDraft, error)
	RegenerateWorkouts(ctx context.Context, coachID, studentID primitive.ObjectID, newCount int) (*staging.RoutineDraft, error)
	SaveAllExercises(ctx context.Context, coachID, studentID primitive.ObjectID, slotsByWorkout map[string][]staging.DraftSlot) (*staging.RoutineDraft, error)

	AddSlot(ctx context.Context, coachID, studentID primitive.ObjectID, workoutLocalID string, exerciseID primitive.ObjectID, pairedExerciseID *primitive.ObjectID) (*staging.RoutineDraft, error)
	RemoveSlot(ctx context.Context, coachID, studentID primitive.ObjectID, workoutLocalID, slotLocalID string) (*staging.RoutineDraft, error)
	AddSeries(ctx context.Context, coachID, studentID primitive.ObjectID, workoutLocalID, slotLocalID string) (*staging.RoutineDraft, error)
	RemoveSeries(ctx context.Context, coachID, studentID primitive.ObjectID, workoutLocalID, slotLocalID string, sequence int) (*staging.RoutineDraft, error)
	ToggleDropSet(ctx context.Context, coachID, studentID primitive.ObjectID, workoutLocalID, slotLocalID string, sequence int) (*staging.RoutineDraft, error)
	UpdateSeries(ctx context.Context, coachID, studentID primitive.ObjectID, workoutLocalID, slotLocalID string, sequence int, input SeriesInput) (*staging.RoutineDraft, error)

	SaveAsDraft(ctx context.Context, coachID, studentID primitive.ObjectID, override *staging.RoutineDraft) (*domain.Routine, error)
	Discard(ctx context.Context, coachID, studentID primitive.ObjectID) error
	Commit(ctx context.Context, coachID, studentID primitive.ObjectID, activate bool) (*domain.Routine, error)
	ResumeDraftRoutine(ctx context.Context, coachID, routineID primitive.ObjectID) (*staging.RoutineDraft, error)
}

// --- Service Implementation ---

type builderService struct {
	drafts       staging.Store
	userRepo     repository.UserRepository
	exerciseRepo repository.ExerciseRepository
	routineRepo  repository.RoutineRepository
	workoutRepo  repository.WorkoutRepository
	slotRepo     repository.SlotRepository
	seriesRepo   repository.SeriesRepository
	sessionRepo  repository.SessionRepository
}

// NewBuilderService creates a new instance of builderService.
func NewBuilderService(
	drafts staging.Store,
	userRepo repository.UserRepository,
	exerciseRepo repository.ExerciseRepository,
	routineRepo repository.RoutineRepository,
	workoutRepo repository.WorkoutRepository,
	slotRepo repository.SlotRepository,
	seriesRepo repository.SeriesRepository,
	sessionRepo repository.SessionRepository,
) BuilderService {
	return &builderService{
		drafts:       drafts,
		userRepo:     userRepo,
		exerciseRepo: exerciseRepo,
		routineRepo:  routineRepo,
		workoutRepo:  workoutRepo,
		slotRepo:     slotRepo,
		seriesRepo:   seriesRepo,
		sessionRepo:  sessionRepo,
	}
}

// === Wizard lifecycle ===

// StartOrResume restores the staged draft for the student, creating a fresh
// one on the Configuration step when nothing is staged.
func (s *builderService) StartOrResume(ctx context.Context, coachID, studentID primitive.ObjectID) (*staging.RoutineDraft, error) {
	if _, err := requireManagedStudent(ctx, s.userRepo, coachID, studentID); err != nil {
		return nil, err
	}

	draft, err := s.drafts.Load(ctx, studentID)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, staging.ErrDraftNotFound) {
		return nil, err
	}

	draft = staging.NewDraft(studentID, coachID)
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Advance moves the wizard one step forward, if the current step's gate is
// satisfied.
func (s *builderService) Advance(ctx context.Context, coachID, studentID primitive.ObjectID) (*staging.RoutineDraft, error) {
	draft, err := s.loadDraft(ctx, coachID, studentID)
	if err != nil {
		return nil, err
	}
	if draft.Step >= staging.StepReview {
		return draft, nil
	}
	if !draft.CanAdvanceFrom(draft.Step) {
		return nil, ErrStepGateNotSatisfied
	}
	draft.Step++
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Back moves the wizard one step backward. Always permitted; never discards
// data already entered for completed steps.
func (s *builderService) Back(ctx context.Context, coachID, studentID primitive.ObjectID) (*staging.RoutineDraft, error) {
	draft, err := s.loadDraft(ctx, coachID, studentID)
	if err != nil {
		return nil, err
	}
	if draft.Step > staging.StepConfiguration {
		draft.Step--
		if err := s.drafts.Save(ctx, draft); err != nil {
			return nil, err
		}
	}
	return draft, nil
}

// === Step slices ===

// SaveConfiguration merges the Configuration step's slice into the draft.
// When the configuration first becomes complete the workout list is
// generated from it, one workout per weekly session, named sequentially.
// Once workouts exist the weekly session count is fixed: changing it goes
// through RegenerateWorkouts, never through this setter.
func (s *builderService) SaveConfiguration(ctx context.Context, coachID, studentID primitive.ObjectID, cfg staging.Configuration) (*staging.RoutineDraft, error) {
	draft, err := s.loadDraft(ctx, coachID, studentID)
	if err != nil {
		return nil, err
	}

	if len(draft.Workouts) > 0 && cfg.SessionsPerWeek != draft.Config.SessionsPerWeek {
		return nil, ErrSessionsPerWeekFixed
	}

	draft.Config = cfg
	if draft.Config.IsComplete() {
		draft.GenerateWorkouts()
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// SaveWorkouts merges the Workouts step's slice into the draft, matching
// staged workouts by local ID. A change to a workout's muscle groups
// regenerates that workout's slot list from scratch: downstream exercise
// data for it is discarded, per the builder's data-loss contract.
func (s *builderService) SaveWorkouts(ctx context.Context, coachID, studentID primitive.ObjectID, workouts []staging.DraftWorkout) (*staging.RoutineDraft, error) {
	draft, err := s.loadDraft(ctx, coachID, studentID)
	if err != nil {
		return nil, err
	}

	for _, in := range workouts {
		existing := draft.WorkoutByLocalID(in.LocalID)
		if existing == nil {
			continue // unknown workout ids are ignored
		}
		if !sameMuscleGroups(existing.MuscleGroups, in.MuscleGroups) && len(existing.Slots) > 0 {
			log.WithFields(log.Fields{
				"student": studentID.Hex(),
				"workout": existing.LocalID,
			}).Info("muscle groups changed; discarding staged slots for workout")
			existing.Slots = nil
		}
		existing.Name = in.Name
		existing.MuscleGroups = in.MuscleGroups
		existing.Notes = in.Notes
		existing.EstimatedMinutes = in.EstimatedMinutes
	}

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// RegenerateWorkouts is the explicit, deliberate rebuild of the workout
// list for a new weekly session count. Contract: every staged workout, slot
// and series is discarded and replaced by fresh, incomplete workouts.
func (s *builderService) RegenerateWorkouts(ctx context.Context, coachID, studentID primitive.ObjectID, newCount int) (*staging.RoutineDraft, error) {
	if newCount < 1 {
		return nil, ErrStepGateNotSatisfied
	}
	draft, err := s.loadDraft(ctx, coachID, studentID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"student":  studentID.Hex(),
		"oldCount": len(draft.Workouts),
		"newCount": newCount,
	}).Info("regenerating staged workouts; all staged exercises discarded")

	draft.RegenerateWorkouts(newCount)
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// SaveAllExercises replaces the slot lists of the given workouts wholesale,
// keyed by workout local ID. Incoming slots are normalized: ordinals are
// renumbered contiguously, empty slots are seeded with one default series,
// and loads on bodyweight exercises are cleared.
func (s *builderService) SaveAllExercises(ctx context.Context, coachID, studentID primitive.ObjectID, slotsByWorkout map[string][]staging.DraftSlot) (*staging.RoutineDraft, error) {
	draft, err := s.loadDraft(ctx, coachID, studentID)
	if err != nil {
		return nil, err
	}

	for workoutLocalID, slots := range slotsByWorkout {
		workout := draft.WorkoutByLocalID(workoutLocalID)
		if workout == nil {
			continue
		}
		normalized := make([]staging.DraftSlot, 0, len(slots))
		for i := range slots {
			slot := slots[i]
			if slot.LocalID == "" {
				slot.LocalID = uuid.NewString()
			}
			slot.Sequence = len(normalized) + 1
			if err := s.normalizeSlot(ctx, &slot); err != nil {
				return nil, err
			}
			normalized = append(normalized, slot)
		}
		workout.Slots = normalized
	}

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// === Slot and series editing ===

// AddSlot appends a new slot to a staged workout, seeded with one default
// series of the matching kind.
func (s *builderService) AddSlot(ctx context.Context, coachID, studentID primitive.ObjectID, workoutLocalID string, exerciseID primitive.ObjectID, pairedExerciseID *primitive.ObjectID) (*staging.RoutineDraft, error) {
	draft, err := s.loadDraft(ctx, coachID, studentID)
	if err != nil {
		return nil, err
	}
	workout := draft.WorkoutByLocalID(workoutLocalID)
	if workout == nil {
		return nil, ErrDraftWorkoutNotFound
	}

	// The referenced exercises must exist in the catalog.
	if _, err := s.exerciseRepo.GetByID(ctx, exerciseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if pairedExerciseID != nil {
		if _, err := s.exerciseRepo.GetByID(ctx, *pairedExerciseID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrExerciseNotFound
			}
			return nil, err
		}
	}

	slot := staging.DraftSlot{
		LocalID:          uuid.NewString(),
		ExerciseID:       exerciseID,
		PairedExerciseID: pairedExerciseID,
		Sequence:         len(workout.Slots) + 1,
		RestAfterSeconds: domain.DefaultSimpleRestSeconds,
	}
	slot.Series = domain.AppendSeries(nil, slot.Kind())
	workout.Slots = append(workout.Slots, slot)

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// RemoveSlot removes a staged slot and renumbers the remainder.
func (s *builderService) RemoveSlot(ctx context.Context, coachID, studentID primitive.ObjectID, workoutLocalID, slotLocalID string) (*staging.RoutineDraft, error) {
	draft, err := s.loadDraft(ctx, coachID, studentID)
	if err != nil {
		return nil, err
	}
	workout := draft.WorkoutByLocalID(workoutLocalID)
	if workout == nil {
		return nil, ErrDraftWorkoutNotFound
	}

	kept := make([]staging.DraftSlot, 0, len(workout.Slots))
	for _, slot := range workout.Slots {
		if slot.LocalID == slotLocalID {
			continue
		}
		slot.Sequence = len(kept) + 1
		kept = append(kept, slot)
	}
	workout.Slots = kept

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// AddSeries appends a series to a staged slot with the default rest for its
// kind.
func (s *builderService) AddSeries(ctx context.Context, coachID, studentID primitive.ObjectID, workoutLocalID, slotLocalID string) (*staging.RoutineDraft, error) {
	return s.editSlot(ctx, coachID, studentID, workoutLocalID, slotLocalID, func(slot *staging.DraftSlot) error {
		slot.Series = domain.AppendSeries(slot.Series, slot.Kind())
		return nil
	})
}

// RemoveSeries removes one series by ordinal. Removing the only remaining
// series is a no-op, per the series engine.
func (s *builderService) RemoveSeries(ctx context.Context, coachID, studentID primitive.ObjectID, workoutLocalID, slotLocalID string, sequence int) (*staging.RoutineDraft, error) {
	return s.editSlot(ctx, coachID, studentID, workoutLocalID, slotLocalID, func(slot *staging.DraftSlot) error {
		slot.Series = domain.RemoveSeries(slot.Series, sequence)
		return nil
	})
}

// ToggleDropSet flips the drop-set flag on one staged series.
func (s *builderService) ToggleDropSet(ctx context.Context, coachID, studentID primitive.ObjectID, workoutLocalID, slotLocalID string, sequence int) (*staging.RoutineDraft, error) {
	return s.editSlot(ctx, coachID, studentID, workoutLocalID, slotLocalID, func(slot *staging.DraftSlot) error {
		if sequence < 1 || sequence > len(slot.Series) {
			return nil // invalid ordinals are ignored
		}
		slot.Series[sequence-1].ToggleDropSet()
		return nil
	})
}

// UpdateSeries applies field edits to one staged series, enforcing the
// bodyweight rule against the referenced exercises' equipment classes.
func (s *builderService) UpdateSeries(ctx context.Context, coachID, studentID primitive.ObjectID, workoutLocalID, slotLocalID string, sequence int, input SeriesInput) (*staging.RoutineDraft, error) {
	return s.editSlot(ctx, coachID, studentID, workoutLocalID, slotLocalID, func(slot *staging.DraftSlot) error {
		if sequence < 1 || sequence > len(slot.Series) {
			return nil
		}
		series := &slot.Series[sequence-1]

		equipment, pairedEquipment, err := s.slotEquipment(ctx, slot)
		if err != nil {
			return err
		}

		if input.Reps != nil {
			series.SetReps(*input.Reps)
		}
		if input.LoadKg != nil {
			series.SetLoad(*input.LoadKg, equipment)
		}
		if input.PairedReps != nil {
			series.SetPairedReps(*input.PairedReps)
		}
		if input.PairedLoadKg != nil {
			series.SetPairedLoad(*input.PairedLoadKg, pairedEquipment)
		}
		if input.DropSetLoadKg != nil {
			series.SetDropSetLoad(*input.DropSetLoadKg, equipment)
		}
		if input.RestAfterSeconds != nil && *input.RestAfterSeconds >= 0 {
			series.RestAfterSeconds = *input.RestAfterSeconds
		}
		return nil
	})
}

// === Exits ===

// SaveAsDraft commits the current aggregate to the server as a routine with
// Draft status, then clears only the local staging copy. The server-side
// draft stays resumable through ResumeDraftRoutine. An override carries
// in-flight edits not yet flushed to the staging store.
func (s *builderService) SaveAsDraft(ctx context.Context, coachID, studentID primitive.ObjectID, override *staging.RoutineDraft) (*domain.Routine, error) {
	var draft *staging.RoutineDraft
	var err error
	if override != nil && override.StudentID == studentID && override.CoachID == coachID {
		draft = override
		// An override assembled by the caller may not carry the resumed
		// routine link; recover it from the stored draft.
		if draft.RoutineID == primitive.NilObjectID {
			if stored, err := s.drafts.Load(ctx, studentID); err == nil {
				draft.RoutineID = stored.RoutineID
			}
		}
	} else {
		draft, err = s.loadDraft(ctx, coachID, studentID)
		if err != nil {
			return nil, err
		}
	}

	routine, err := s.persistAggregate(ctx, draft, domain.RoutineDraft)
	if err != nil {
		return nil, err
	}
	if err := s.removeSupersededDraft(ctx, draft); err != nil {
		return nil, err
	}
	if err := s.drafts.Clear(ctx, studentID); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"routine": routine.ID.Hex(),
		"student": studentID.Hex(),
	}).Info("staged draft saved server-side; staging cleared")
	return routine, nil
}

// Discard clears the staged draft irrecoverably.
func (s *builderService) Discard(ctx context.Context, coachID, studentID primitive.ObjectID) error {
	if _, err := requireManagedStudent(ctx, s.userRepo, coachID, studentID); err != nil {
		return err
	}
	return s.drafts.Clear(ctx, studentID)
}

// Commit translates the staged aggregate into persisted records and clears
// staging. With activate set, the routine becomes Active and any previously
// Active routine of the student is locked in the same operation; one row
// per planned session occurrence is created for the execution flow.
func (s *builderService) Commit(ctx context.Context, coachID, studentID primitive.ObjectID, activate bool) (*domain.Routine, error) {
	draft, err := s.loadDraft(ctx, coachID, studentID)
	if err != nil {
		return nil, err
	}

	// All three gates must hold before the draft can leave Review.
	if !draft.Config.IsComplete() || !draft.WorkoutsComplete() || !draft.ExercisesComplete() {
		return nil, ErrStepGateNotSatisfied
	}

	status := domain.RoutineDraft
	if activate {
		status = domain.RoutineActive
	}
	routine, err := s.persistAggregate(ctx, draft, status)
	if err != nil {
		return nil, err
	}
	if err := s.removeSupersededDraft(ctx, draft); err != nil {
		return nil, err
	}

	if activate {
		// At most one Active routine per student.
		if err := s.routineRepo.LockOthersForStudent(ctx, studentID, routine.ID); err != nil {
			return nil, err
		}
		if err := createPlannedSessions(ctx, s.workoutRepo, s.sessionRepo, routine); err != nil {
			return nil, err
		}
	}

	if err := s.drafts.Clear(ctx, studentID); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"routine": routine.ID.Hex(),
		"student": studentID.Hex(),
		"status":  routine.Status,
	}).Info("routine committed")
	return routine, nil
}

// ResumeDraftRoutine loads a server-side Draft routine back into the
// staging store so the wizard can continue where SaveAsDraft left off.
func (s *builderService) ResumeDraftRoutine(ctx context.Context, coachID, routineID primitive.ObjectID) (*staging.RoutineDraft, error) {
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
	if routine.Status != domain.RoutineDraft {
		return nil, ErrRoutineNotDraft
	}

	draft := staging.NewDraft(routine.StudentID, routine.CoachID)
	draft.RoutineID = routine.ID
	draft.Step = staging.StepReview
	draft.Config = staging.Configuration{
		Name:            routine.Name,
		Objective:       routine.Objective,
		Difficulty:      routine.Difficulty,
		SessionsPerWeek: routine.SessionsPerWeek,
		DurationWeeks:   routine.DurationWeeks,
		AllowSelfGuided: routine.AllowSelfGuided,
		Notes:           routine.Notes,
	}

	workouts, err := s.workoutRepo.GetByRoutineID(ctx, routineID)
	if err != nil {
		return nil, err
	}
	for _, workout := range workouts {
		dw := staging.DraftWorkout{
			LocalID:          uuid.NewString(),
			Sequence:         workout.Sequence,
			Name:             workout.Name,
			MuscleGroups:     workout.MuscleGroups,
			Notes:            workout.Notes,
			EstimatedMinutes: workout.EstimatedMinutes,
		}
		slots, err := s.slotRepo.GetByWorkoutID(ctx, workout.ID)
		if err != nil {
			return nil, err
		}
		for _, slot := range slots {
			ds := staging.DraftSlot{
				LocalID:          uuid.NewString(),
				ExerciseID:       slot.ExerciseID,
				PairedExerciseID: slot.PairedExerciseID,
				Sequence:         slot.Sequence,
				RestAfterSeconds: slot.RestAfterSeconds,
				Notes:            slot.Notes,
			}
			series, err := s.seriesRepo.GetBySlotID(ctx, slot.ID)
			if err != nil {
				return nil, err
			}
			// Strip persisted identity; the staged copies get fresh IDs on
			// the next commit.
			for i := range series {
				series[i].ID = primitive.NilObjectID
				series[i].SlotID = primitive.NilObjectID
			}
			ds.Series = series
			dw.Slots = append(dw.Slots, ds)
		}
		draft.Workouts = append(draft.Workouts, dw)
	}

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// === Helpers ===

func (s *builderService) loadDraft(ctx context.Context, coachID, studentID primitive.ObjectID) (*staging.RoutineDraft, error) {
	if _, err := requireManagedStudent(ctx, s.userRepo, coachID, studentID); err != nil {
		return nil, err
	}
	draft, err := s.drafts.Load(ctx, studentID)
	if err != nil {
		if errors.Is(err, staging.ErrDraftNotFound) {
			return nil, ErrNoDraft
		}
		return nil, err
	}
	return draft, nil
}

// editSlot loads the draft, locates one staged slot, applies the edit, and
// flushes the draft back to the staging store.
func (s *builderService) editSlot(ctx context.Context, coachID, studentID primitive.ObjectID, workoutLocalID, slotLocalID string, edit func(*staging.DraftSlot) error) (*staging.RoutineDraft, error) {
	draft, err := s.loadDraft(ctx, coachID, studentID)
	if err != nil {
		return nil, err
	}
	workout := draft.WorkoutByLocalID(workoutLocalID)
	if workout == nil {
		return nil, ErrDraftWorkoutNotFound
	}
	var slot *staging.DraftSlot
	for i := range workout.Slots {
		if workout.Slots[i].LocalID == slotLocalID {
			slot = &workout.Slots[i]
			break
		}
	}
	if slot == nil {
		return nil, ErrDraftSlotNotFound
	}

	if err := edit(slot); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// slotEquipment resolves the equipment classes of a slot's exercises.
func (s *builderService) slotEquipment(ctx context.Context, slot *staging.DraftSlot) (domain.EquipmentClass, domain.EquipmentClass, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, slot.ExerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", ErrExerciseNotFound
		}
		return "", "", err
	}
	var pairedEquipment domain.EquipmentClass
	if slot.PairedExerciseID != nil {
		paired, err := s.exerciseRepo.GetByID(ctx, *slot.PairedExerciseID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return "", "", ErrExerciseNotFound
			}
			return "", "", err
		}
		pairedEquipment = paired.Equipment
	}
	return exercise.Equipment, pairedEquipment, nil
}

// normalizeSlot sanitizes one incoming staged slot: seeds an empty series
// list, renumbers series ordinals, and clears loads that violate the
// bodyweight rule.
func (s *builderService) normalizeSlot(ctx context.Context, slot *staging.DraftSlot) error {
	if slot.RestAfterSeconds < 0 {
		slot.RestAfterSeconds = 0
	}
	if len(slot.Series) == 0 {
		slot.Series = domain.AppendSeries(nil, slot.Kind())
	}

	equipment, pairedEquipment, err := s.slotEquipment(ctx, slot)
	if err != nil {
		return err
	}

	for i := range slot.Series {
		series := &slot.Series[i]
		series.Sequence = i + 1
		series.Kind = slot.Kind()
		if series.Kind == domain.SeriesCombined && series.Secondary == nil {
			series.Secondary = &domain.SetEntry{}
		}
		if series.Kind == domain.SeriesSimple {
			series.Secondary = nil
		}
		if equipment.IsBodyweight() {
			series.Primary.LoadKg = 0
			series.DropSetLoadKg = 0
		}
		if series.Secondary != nil && pairedEquipment.IsBodyweight() {
			series.Secondary.LoadKg = 0
		}
		if series.Kind != domain.SeriesSimple {
			series.DropSet = false
			series.DropSetLoadKg = 0
		}
	}
	return nil
}

// persistAggregate translates the staged aggregate into persisted routine,
// workout, slot and series records with the given routine status.
func (s *builderService) persistAggregate(ctx context.Context, draft *staging.RoutineDraft, status domain.RoutineStatus) (*domain.Routine, error) {
	routine := &domain.Routine{
		StudentID:       draft.StudentID,
		CoachID:         draft.CoachID,
		Name:            draft.Config.Name,
		Objective:       draft.Config.Objective,
		Difficulty:      draft.Config.Difficulty,
		Status:          status,
		SessionsPerWeek: draft.Config.SessionsPerWeek,
		DurationWeeks:   draft.Config.DurationWeeks,
		AllowSelfGuided: draft.Config.AllowSelfGuided,
		Notes:           draft.Config.Notes,
	}
	routineID, err := s.routineRepo.Create(ctx, routine)
	if err != nil {
		return nil, err
	}
	routine.ID = routineID

	for _, dw := range draft.Workouts {
		workout := &domain.Workout{
			RoutineID:        routineID,
			Sequence:         dw.Sequence,
			Name:             dw.Name,
			MuscleGroups:     dw.MuscleGroups,
			Notes:            dw.Notes,
			EstimatedMinutes: dw.EstimatedMinutes,
		}
		workoutID, err := s.workoutRepo.Create(ctx, workout)
		if err != nil {
			return nil, err
		}

		for _, ds := range dw.Slots {
			slot := &domain.ExerciseSlot{
				WorkoutID:        workoutID,
				ExerciseID:       ds.ExerciseID,
				PairedExerciseID: ds.PairedExerciseID,
				Sequence:         ds.Sequence,
				RestAfterSeconds: ds.RestAfterSeconds,
				Notes:            ds.Notes,
			}
			slotID, err := s.slotRepo.Create(ctx, slot)
			if err != nil {
				return nil, err
			}

			series := make([]domain.Series, len(ds.Series))
			copy(series, ds.Series)
			for i := range series {
				series[i].ID = primitive.NewObjectID()
				series[i].SlotID = slotID
			}
			if err := s.seriesRepo.CreateMany(ctx, series); err != nil {
				return nil, err
			}
		}
	}

	return routine, nil
}

// createPlannedSessions creates one Open session row per planned occurrence,
// cycling the routine's workouts week over week. Without a duration the
// first cycle is planned and later sessions are created lazily by the
// session service.
func createPlannedSessions(ctx context.Context, workoutRepo repository.WorkoutRepository, sessionRepo repository.SessionRepository, routine *domain.Routine) error {
	workouts, err := workoutRepo.GetByRoutineID(ctx, routine.ID)
	if err != nil {
		return err
	}
	if len(workouts) == 0 {
		return nil
	}

	total := len(workouts)
	if routine.DurationWeeks != nil && *routine.DurationWeeks > 0 {
		total = routine.SessionsPerWeek * *routine.DurationWeeks
	}

	for number := 1; number <= total; number++ {
		workout := workouts[(number-1)%len(workouts)]
		session := &domain.ExecutionSession{
			RoutineID:      routine.ID,
			WorkoutID:      workout.ID,
			StudentID:      routine.StudentID,
			SessionNumber:  number,
			Status:         domain.SessionOpen,
			PlannedMinutes: workout.EstimatedMinutes,
		}
		if _, err := sessionRepo.Create(ctx, session); err != nil {
			return err
		}
	}
	return nil
}

// removeSupersededDraft deletes the server-side Draft routine a resumed
// staged copy replaces, including its workout, slot and series records.
// The routine is only removed while it is still a Draft; any other status
// means it moved on since the resume and it stays untouched.
func (s *builderService) removeSupersededDraft(ctx context.Context, draft *staging.RoutineDraft) error {
	if draft.RoutineID == primitive.NilObjectID {
		return nil
	}
	routine, err := s.routineRepo.GetByID(ctx, draft.RoutineID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if routine.Status != domain.RoutineDraft {
		return nil
	}

	workouts, err := s.workoutRepo.GetByRoutineID(ctx, draft.RoutineID)
	if err != nil {
		return err
	}
	for _, workout := range workouts {
		slots, err := s.slotRepo.GetByWorkoutID(ctx, workout.ID)
		if err != nil {
			return err
		}
		for _, slot := range slots {
			if err := s.seriesRepo.DeleteBySlotID(ctx, slot.ID); err != nil {
				return err
			}
		}
		if err := s.slotRepo.DeleteByWorkoutID(ctx, workout.ID); err != nil {
			return err
		}
	}
	if err := s.workoutRepo.DeleteByRoutineID(ctx, draft.RoutineID); err != nil {
		return err
	}
	if err := s.routineRepo.Delete(ctx, draft.RoutineID); err != nil {
		return err
	}

	log.WithField("routine", draft.RoutineID.Hex()).Info("superseded draft routine removed")
	return nil
}

// sameMuscleGroups compares two tag lists as sets.
func sameMuscleGroups(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, tag := range a {
		seen[tag]++
	}
	for _, tag := range b {
		if seen[tag] == 0 {
			return false
		}
		seen[tag]--
	}
	return true
}
