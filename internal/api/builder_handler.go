// internal/api/builder_handler.go
package api

import (
	"alcyxob/routine-forge/internal/domain"
	"alcyxob/routine-forge/internal/service"
	"alcyxob/routine-forge/internal/staging"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BuilderHandler struct {
	builderService service.BuilderService
}

func NewBuilderHandler(builderService service.BuilderService) *BuilderHandler {
	return &BuilderHandler{builderService: builderService}
}

// --- DTOs ---

type ConfigurationRequest struct {
	Name            string `json:"name"`
	Objective       string `json:"objective" binding:"omitempty,oneof=hypertrophy strength fat_loss conditioning"`
	Difficulty      string `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	SessionsPerWeek int    `json:"sessionsPerWeek" binding:"omitempty,min=1,max=7"`
	DurationWeeks   *int   `json:"durationWeeks" binding:"omitempty,min=1"`
	AllowSelfGuided bool   `json:"allowSelfGuided"`
	Notes           string `json:"notes"`
}

type DraftWorkoutRequest struct {
	LocalID          string   `json:"localId" binding:"required"`
	Name             string   `json:"name"`
	MuscleGroups     []string `json:"muscleGroups"`
	Notes            string   `json:"notes"`
	EstimatedMinutes int      `json:"estimatedMinutes" binding:"omitempty,min=0"`
}

type RegenerateWorkoutsRequest struct {
	SessionsPerWeek int `json:"sessionsPerWeek" binding:"required,min=1,max=7"`
}

type AddSlotRequest struct {
	ExerciseID       string  `json:"exerciseId" binding:"required"`
	PairedExerciseID *string `json:"pairedExerciseId"`
}

type UpdateSeriesRequest struct {
	Reps             *int     `json:"reps" binding:"omitempty,min=0"`
	LoadKg           *float64 `json:"loadKg" binding:"omitempty,min=0"`
	PairedReps       *int     `json:"pairedReps" binding:"omitempty,min=0"`
	PairedLoadKg     *float64 `json:"pairedLoadKg" binding:"omitempty,min=0"`
	DropSetLoadKg    *float64 `json:"dropSetLoadKg" binding:"omitempty,min=0"`
	RestAfterSeconds *int     `json:"restAfterSeconds" binding:"omitempty,min=0"`
}

type DraftSlotRequest struct {
	LocalID          string               `json:"localId"`
	ExerciseID       string               `json:"exerciseId" binding:"required"`
	PairedExerciseID *string              `json:"pairedExerciseId"`
	RestAfterSeconds int                  `json:"restAfterSeconds" binding:"omitempty,min=0"`
	Notes            string               `json:"notes"`
	Series           []DraftSeriesRequest `json:"series"`
}

type DraftSeriesRequest struct {
	Reps             int      `json:"reps" binding:"omitempty,min=0"`
	LoadKg           float64  `json:"loadKg" binding:"omitempty,min=0"`
	PairedReps       int      `json:"pairedReps" binding:"omitempty,min=0"`
	PairedLoadKg     float64  `json:"pairedLoadKg" binding:"omitempty,min=0"`
	DropSet          bool     `json:"dropSet"`
	DropSetLoadKg    float64  `json:"dropSetLoadKg" binding:"omitempty,min=0"`
	RestAfterSeconds int      `json:"restAfterSeconds" binding:"omitempty,min=0"`
}

type SaveExercisesRequest struct {
	SlotsByWorkout map[string][]DraftSlotRequest `json:"slotsByWorkout" binding:"required"`
}

type CommitRequest struct {
	Activate bool `json:"activate"`
}

// SaveDraftRequest carries in-flight edits not yet flushed to the staging
// store, so a save captures exactly what the client shows.
type SaveDraftRequest struct {
	Step     int                       `json:"step" binding:"omitempty,min=1,max=4"`
	Config   ConfigurationRequest      `json:"config"`
	Workouts []SaveDraftWorkoutRequest `json:"workouts"`
}

type SaveDraftWorkoutRequest struct {
	LocalID          string             `json:"localId"`
	Name             string             `json:"name"`
	MuscleGroups     []string           `json:"muscleGroups"`
	Notes            string             `json:"notes"`
	EstimatedMinutes int                `json:"estimatedMinutes" binding:"omitempty,min=0"`
	Slots            []DraftSlotRequest `json:"slots"`
}

type SeriesResponse struct {
	Sequence         int     `json:"sequence"`
	Kind             string  `json:"kind"`
	Reps             int     `json:"reps"`
	LoadKg           float64 `json:"loadKg"`
	PairedReps       *int    `json:"pairedReps,omitempty"`
	PairedLoadKg     *float64 `json:"pairedLoadKg,omitempty"`
	DropSet          bool    `json:"dropSet"`
	DropSetLoadKg    float64 `json:"dropSetLoadKg,omitempty"`
	RestAfterSeconds int     `json:"restAfterSeconds"`
}

type DraftSlotResponse struct {
	LocalID          string           `json:"localId"`
	ExerciseID       string           `json:"exerciseId"`
	PairedExerciseID *string          `json:"pairedExerciseId,omitempty"`
	Sequence         int              `json:"sequence"`
	RestAfterSeconds int              `json:"restAfterSeconds"`
	Notes            string           `json:"notes,omitempty"`
	Series           []SeriesResponse `json:"series"`
}

type DraftWorkoutResponse struct {
	LocalID          string              `json:"localId"`
	Sequence         int                 `json:"sequence"`
	Name             string              `json:"name"`
	MuscleGroups     []string            `json:"muscleGroups"`
	Notes            string              `json:"notes,omitempty"`
	EstimatedMinutes int                 `json:"estimatedMinutes"`
	Complete         bool                `json:"complete"`
	Slots            []DraftSlotResponse `json:"slots"`
}

type DraftResponse struct {
	StudentID string                 `json:"studentId"`
	Step      int                    `json:"step"`
	StepName  string                 `json:"stepName"`
	Config    ConfigurationRequest   `json:"config"`
	Workouts  []DraftWorkoutResponse `json:"workouts"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// MapSeriesToResponse converts one domain.Series to the response DTO.
func MapSeriesToResponse(s *domain.Series) SeriesResponse {
	resp := SeriesResponse{
		Sequence:         s.Sequence,
		Kind:             string(s.Kind),
		Reps:             s.Primary.Reps,
		LoadKg:           s.Primary.LoadKg,
		DropSet:          s.DropSet,
		DropSetLoadKg:    s.DropSetLoadKg,
		RestAfterSeconds: s.RestAfterSeconds,
	}
	if s.Secondary != nil {
		reps := s.Secondary.Reps
		load := s.Secondary.LoadKg
		resp.PairedReps = &reps
		resp.PairedLoadKg = &load
	}
	return resp
}

// MapDraftToResponse converts the staged draft to the response DTO.
func MapDraftToResponse(d *staging.RoutineDraft) DraftResponse {
	if d == nil {
		return DraftResponse{}
	}
	resp := DraftResponse{
		StudentID: d.StudentID.Hex(),
		Step:      int(d.Step),
		StepName:  d.Step.String(),
		Config: ConfigurationRequest{
			Name:            d.Config.Name,
			Objective:       string(d.Config.Objective),
			Difficulty:      string(d.Config.Difficulty),
			SessionsPerWeek: d.Config.SessionsPerWeek,
			DurationWeeks:   d.Config.DurationWeeks,
			AllowSelfGuided: d.Config.AllowSelfGuided,
			Notes:           d.Config.Notes,
		},
		UpdatedAt: d.UpdatedAt,
	}
	for i := range d.Workouts {
		w := &d.Workouts[i]
		wr := DraftWorkoutResponse{
			LocalID:          w.LocalID,
			Sequence:         w.Sequence,
			Name:             w.Name,
			MuscleGroups:     w.MuscleGroups,
			Notes:            w.Notes,
			EstimatedMinutes: w.EstimatedMinutes,
			Complete:         w.IsComplete(),
			Slots:            []DraftSlotResponse{},
		}
		for j := range w.Slots {
			slot := &w.Slots[j]
			sr := DraftSlotResponse{
				LocalID:          slot.LocalID,
				ExerciseID:       slot.ExerciseID.Hex(),
				Sequence:         slot.Sequence,
				RestAfterSeconds: slot.RestAfterSeconds,
				Notes:            slot.Notes,
				Series:           []SeriesResponse{},
			}
			if slot.PairedExerciseID != nil {
				hex := slot.PairedExerciseID.Hex()
				sr.PairedExerciseID = &hex
			}
			for k := range slot.Series {
				sr.Series = append(sr.Series, MapSeriesToResponse(&slot.Series[k]))
			}
			wr.Slots = append(wr.Slots, sr)
		}
		resp.Workouts = append(resp.Workouts, wr)
	}
	return resp
}

// --- Handler Methods ---

// respondDraft maps common builder service errors and writes the draft.
func respondDraft(c *gin.Context, draft *staging.RoutineDraft, err error) {
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStudentNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrStudentNotManaged):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrNoDraft):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrStepGateNotSatisfied),
			errors.Is(err, service.ErrSessionsPerWeekFixed):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrDraftWorkoutNotFound),
			errors.Is(err, service.ErrDraftSlotNotFound),
			errors.Is(err, service.ErrExerciseNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Builder operation failed.")
		}
		return
	}
	c.JSON(http.StatusOK, MapDraftToResponse(draft))
}

func (h *BuilderHandler) ids(c *gin.Context) (coachID, studentID primitive.ObjectID, ok bool) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token.")
		return coachID, studentID, false
	}
	studentID, err = primitive.ObjectIDFromHex(c.Param("studentId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid student ID format in URL path.")
		return coachID, studentID, false
	}
	return coachID, studentID, true
}

// GetDraft godoc
// @Summary Open the routine builder for a student
// @Description Returns the staged draft, creating a fresh one when nothing is staged.
// @Tags Builder
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Success 200 {object} DraftResponse "The staged draft"
// @Failure 403 {object} gin.H "Student not managed by this coach"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /coach/students/{studentId}/draft [get]
func (h *BuilderHandler) GetDraft(c *gin.Context) {
	coachID, studentID, ok := h.ids(c)
	if !ok {
		return
	}
	draft, err := h.builderService.StartOrResume(c.Request.Context(), coachID, studentID)
	respondDraft(c, draft, err)
}

// Advance godoc
// @Summary Move the builder one step forward
// @Tags Builder
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Success 200 {object} DraftResponse "The staged draft"
// @Failure 409 {object} gin.H "Current step incomplete"
// @Router /coach/students/{studentId}/draft/advance [post]
func (h *BuilderHandler) Advance(c *gin.Context) {
	coachID, studentID, ok := h.ids(c)
	if !ok {
		return
	}
	draft, err := h.builderService.Advance(c.Request.Context(), coachID, studentID)
	respondDraft(c, draft, err)
}

// Back godoc
// @Summary Move the builder one step backward
// @Tags Builder
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Success 200 {object} DraftResponse "The staged draft"
// @Router /coach/students/{studentId}/draft/back [post]
func (h *BuilderHandler) Back(c *gin.Context) {
	coachID, studentID, ok := h.ids(c)
	if !ok {
		return
	}
	draft, err := h.builderService.Back(c.Request.Context(), coachID, studentID)
	respondDraft(c, draft, err)
}

// SaveConfiguration godoc
// @Summary Save the Configuration step
// @Tags Builder
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Param config body ConfigurationRequest true "Routine configuration"
// @Success 200 {object} DraftResponse "The staged draft"
// @Failure 409 {object} gin.H "Sessions per week fixed once workouts exist"
// @Router /coach/students/{studentId}/draft/configuration [put]
func (h *BuilderHandler) SaveConfiguration(c *gin.Context) {
	coachID, studentID, ok := h.ids(c)
	if !ok {
		return
	}
	var req ConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	cfg := staging.Configuration{
		Name:            req.Name,
		Objective:       domain.Objective(req.Objective),
		Difficulty:      domain.Difficulty(req.Difficulty),
		SessionsPerWeek: req.SessionsPerWeek,
		DurationWeeks:   req.DurationWeeks,
		AllowSelfGuided: req.AllowSelfGuided,
		Notes:           req.Notes,
	}
	draft, err := h.builderService.SaveConfiguration(c.Request.Context(), coachID, studentID, cfg)
	respondDraft(c, draft, err)
}

// SaveWorkouts godoc
// @Summary Save the Workouts step
// @Description Merges workout edits into the draft by local ID. Changing a
// workout's muscle groups discards its staged exercises.
// @Tags Builder
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Param workouts body []DraftWorkoutRequest true "Workout edits"
// @Success 200 {object} DraftResponse "The staged draft"
// @Router /coach/students/{studentId}/draft/workouts [put]
func (h *BuilderHandler) SaveWorkouts(c *gin.Context) {
	coachID, studentID, ok := h.ids(c)
	if !ok {
		return
	}
	var req []DraftWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	workouts := make([]staging.DraftWorkout, len(req))
	for i, w := range req {
		workouts[i] = staging.DraftWorkout{
			LocalID:          w.LocalID,
			Name:             w.Name,
			MuscleGroups:     w.MuscleGroups,
			Notes:            w.Notes,
			EstimatedMinutes: w.EstimatedMinutes,
		}
	}
	draft, err := h.builderService.SaveWorkouts(c.Request.Context(), coachID, studentID, workouts)
	respondDraft(c, draft, err)
}

// RegenerateWorkouts godoc
// @Summary Rebuild the workout list for a new weekly session count
// @Description Discards every staged workout, slot and series and generates
// fresh workouts. This is the only way to change sessions per week after
// generation.
// @Tags Builder
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Param request body RegenerateWorkoutsRequest true "New weekly session count"
// @Success 200 {object} DraftResponse "The staged draft"
// @Router /coach/students/{studentId}/draft/workouts/regenerate [post]
func (h *BuilderHandler) RegenerateWorkouts(c *gin.Context) {
	coachID, studentID, ok := h.ids(c)
	if !ok {
		return
	}
	var req RegenerateWorkoutsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	draft, err := h.builderService.RegenerateWorkouts(c.Request.Context(), coachID, studentID, req.SessionsPerWeek)
	respondDraft(c, draft, err)
}

// SaveExercises godoc
// @Summary Save the Exercises step
// @Description Replaces the slot lists of the given workouts wholesale.
// @Tags Builder
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Param request body SaveExercisesRequest true "Slots per workout local ID"
// @Success 200 {object} DraftResponse "The staged draft"
// @Router /coach/students/{studentId}/draft/exercises [put]
func (h *BuilderHandler) SaveExercises(c *gin.Context) {
	coachID, studentID, ok := h.ids(c)
	if !ok {
		return
	}
	var req SaveExercisesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	slotsByWorkout := make(map[string][]staging.DraftSlot, len(req.SlotsByWorkout))
	for workoutLocalID, slots := range req.SlotsByWorkout {
		converted := make([]staging.DraftSlot, 0, len(slots))
		for _, in := range slots {
			slot, err := mapSlotRequest(in)
			if err != nil {
				abortWithError(c, http.StatusBadRequest, err.Error())
				return
			}
			converted = append(converted, slot)
		}
		slotsByWorkout[workoutLocalID] = converted
	}
	draft, err := h.builderService.SaveAllExercises(c.Request.Context(), coachID, studentID, slotsByWorkout)
	respondDraft(c, draft, err)
}

func mapSlotRequest(in DraftSlotRequest) (staging.DraftSlot, error) {
	exerciseID, err := primitive.ObjectIDFromHex(in.ExerciseID)
	if err != nil {
		return staging.DraftSlot{}, errors.New("invalid exercise ID format")
	}
	slot := staging.DraftSlot{
		LocalID:          in.LocalID,
		ExerciseID:       exerciseID,
		RestAfterSeconds: in.RestAfterSeconds,
		Notes:            in.Notes,
	}
	if in.PairedExerciseID != nil {
		pairedID, err := primitive.ObjectIDFromHex(*in.PairedExerciseID)
		if err != nil {
			return staging.DraftSlot{}, errors.New("invalid paired exercise ID format")
		}
		slot.PairedExerciseID = &pairedID
	}
	for i, s := range in.Series {
		series := domain.Series{
			Sequence:         i + 1,
			Kind:             slot.Kind(),
			Primary:          domain.SetEntry{Reps: s.Reps, LoadKg: s.LoadKg},
			DropSet:          s.DropSet,
			DropSetLoadKg:    s.DropSetLoadKg,
			RestAfterSeconds: s.RestAfterSeconds,
		}
		if slot.Kind() == domain.SeriesCombined {
			series.Secondary = &domain.SetEntry{Reps: s.PairedReps, LoadKg: s.PairedLoadKg}
		}
		slot.Series = append(slot.Series, series)
	}
	return slot, nil
}

// mapSaveDraftRequest builds the in-flight override from the request body.
// Workout and series ordinals are renumbered from the payload order.
func mapSaveDraftRequest(coachID, studentID primitive.ObjectID, req SaveDraftRequest) (*staging.RoutineDraft, error) {
	draft := staging.NewDraft(studentID, coachID)
	draft.Step = staging.StepReview
	if req.Step >= int(staging.StepConfiguration) && req.Step <= int(staging.StepReview) {
		draft.Step = staging.WizardStep(req.Step)
	}
	draft.Config = staging.Configuration{
		Name:            req.Config.Name,
		Objective:       domain.Objective(req.Config.Objective),
		Difficulty:      domain.Difficulty(req.Config.Difficulty),
		SessionsPerWeek: req.Config.SessionsPerWeek,
		DurationWeeks:   req.Config.DurationWeeks,
		AllowSelfGuided: req.Config.AllowSelfGuided,
		Notes:           req.Config.Notes,
	}
	for i, w := range req.Workouts {
		dw := staging.DraftWorkout{
			LocalID:          w.LocalID,
			Sequence:         i + 1,
			Name:             w.Name,
			MuscleGroups:     w.MuscleGroups,
			Notes:            w.Notes,
			EstimatedMinutes: w.EstimatedMinutes,
		}
		for j, s := range w.Slots {
			slot, err := mapSlotRequest(s)
			if err != nil {
				return nil, err
			}
			slot.Sequence = j + 1
			dw.Slots = append(dw.Slots, slot)
		}
		draft.Workouts = append(draft.Workouts, dw)
	}
	return draft, nil
}

// AddSlot godoc
// @Summary Add an exercise slot to a staged workout
// @Tags Builder
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Param workoutLocalId path string true "Staged workout's local ID"
// @Param request body AddSlotRequest true "Exercise (and optional pairing)"
// @Success 200 {object} DraftResponse "The staged draft"
// @Failure 404 {object} gin.H "Workout or exercise not found"
// @Router /coach/students/{studentId}/draft/workouts/{workoutLocalId}/slots [post]
func (h *BuilderHandler) AddSlot(c *gin.Context) {
	coachID, studentID, ok := h.ids(c)
	if !ok {
		return
	}
	var req AddSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}
	var pairedID *primitive.ObjectID
	if req.PairedExerciseID != nil {
		id, err := primitive.ObjectIDFromHex(*req.PairedExerciseID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid paired exercise ID format.")
			return
		}
		pairedID = &id
	}

	draft, err := h.builderService.AddSlot(c.Request.Context(), coachID, studentID, c.Param("workoutLocalId"), exerciseID, pairedID)
	respondDraft(c, draft, err)
}

// RemoveSlot godoc
// @Summary Remove an exercise slot from a staged workout
// @Tags Builder
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Param workoutLocalId path string true "Staged workout's local ID"
// @Param slotLocalId path string true "Staged slot's local ID"
// @Success 200 {object} DraftResponse "The staged draft"
// @Router /coach/students/{studentId}/draft/workouts/{workoutLocalId}/slots/{slotLocalId} [delete]
func (h *BuilderHandler) RemoveSlot(c *gin.Context) {
	coachID, studentID, ok := h.ids(c)
	if !ok {
		return
	}
	draft, err := h.builderService.RemoveSlot(c.Request.Context(), coachID, studentID, c.Param("workoutLocalId"), c.Param("slotLocalId"))
	respondDraft(c, draft, err)
}

// AddSeries godoc
// @Summary Append a series to a staged slot
// @Tags Builder
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Param workoutLocalId path string true "Staged workout's local ID"
// @Param slotLocalId path string true "Staged slot's local ID"
// @Success 200 {object} DraftResponse "The staged draft"
// @Router /coach/students/{studentId}/draft/workouts/{workoutLocalId}/slots/{slotLocalId}/series [post]
func (h *BuilderHandler) AddSeries(c *gin.Context) {
	coachID, studentID, ok := h.ids(c)
	if !ok {
		return
	}
	draft, err := h.builderService.AddSeries(c.Request.Context(), coachID, studentID, c.Param("workoutLocalId"), c.Param("slotLocalId"))
	respondDraft(c, draft, err)
}

// RemoveSeries godoc
// @Summary Remove a series from a staged slot by ordinal
// @Description Removing the only remaining series is a no-op.
// @Tags Builder
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Param workoutLocalId path string true "Staged workout's local ID"
// @Param slotLocalId path string true "Staged slot's local ID"
// @Param sequence path int true "Series ordinal (1-based)"
// @Success 200 {object} DraftResponse "The staged draft"
// @Router /coach/students/{studentId}/draft/workouts/{workoutLocalId}/slots/{slotLocalId}/series/{sequence} [delete]
func (h *BuilderHandler) RemoveSeries(c *gin.Context) {
	coachID, studentID, ok := h.ids(c)
	if !ok {
		return
	}
	sequence, err := strconv.Atoi(c.Param("sequence"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid series ordinal in URL path.")
		return
	}
	draft, err := h.builderService.RemoveSeries(c.Request.Context(), coachID, studentID, c.Param("workoutLocalId"), c.Param("slotLocalId"), sequence)
	respondDraft(c, draft, err)
}

// ToggleDropSet godoc
// @Summary Toggle the drop-set flag on a staged series
// @Tags Builder
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Param workoutLocalId path string true "Staged workout's local ID"
// @Param slotLocalId path string true "Staged slot's local ID"
// @Param sequence path int true "Series ordinal (1-based)"
// @Success 200 {object} DraftResponse "The staged draft"
// @Router /coach/students/{studentId}/draft/workouts/{workoutLocalId}/slots/{slotLocalId}/series/{sequence}/dropset [post]
func (h *BuilderHandler) ToggleDropSet(c *gin.Context) {
	coachID, studentID, ok := h.ids(c)
	if !ok {
		return
	}
	sequence, err := strconv.Atoi(c.Param("sequence"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid series ordinal in URL path.")
		return
	}
	draft, err := h.builderService.ToggleDropSet(c.Request.Context(), coachID, studentID, c.Param("workoutLocalId"), c.Param("slotLocalId"), sequence)
	respondDraft(c, draft, err)
}

// UpdateSeries godoc
// @Summary Edit one staged series
// @Description Applies field edits; loads on bodyweight exercises are ignored.
// @Tags Builder
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Param workoutLocalId path string true "Staged workout's local ID"
// @Param slotLocalId path string true "Staged slot's local ID"
// @Param sequence path int true "Series ordinal (1-based)"
// @Param request body UpdateSeriesRequest true "Field edits"
// @Success 200 {object} DraftResponse "The staged draft"
// @Router /coach/students/{studentId}/draft/workouts/{workoutLocalId}/slots/{slotLocalId}/series/{sequence} [patch]
func (h *BuilderHandler) UpdateSeries(c *gin.Context) {
	coachID, studentID, ok := h.ids(c)
	if !ok {
		return
	}
	sequence, err := strconv.Atoi(c.Param("sequence"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid series ordinal in URL path.")
		return
	}
	var req UpdateSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	input := service.SeriesInput{
		Reps:             req.Reps,
		LoadKg:           req.LoadKg,
		PairedReps:       req.PairedReps,
		PairedLoadKg:     req.PairedLoadKg,
		DropSetLoadKg:    req.DropSetLoadKg,
		RestAfterSeconds: req.RestAfterSeconds,
	}
	draft, err := h.builderService.UpdateSeries(c.Request.Context(), coachID, studentID, c.Param("workoutLocalId"), c.Param("slotLocalId"), sequence, input)
	respondDraft(c, draft, err)
}

// SaveAsDraft godoc
// @Summary Save the staged draft as a server-side Draft routine
// @Description Persists the aggregate with Draft status and clears staging.
// The routine can be reopened later through the resume endpoint. An optional
// body carries in-flight edits not yet flushed to the staging store; without
// a body the staged draft is saved as-is.
// @Tags Builder
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Param draft body SaveDraftRequest false "In-flight draft override"
// @Success 201 {object} RoutineResponse "The saved routine"
// @Failure 404 {object} gin.H "No staged draft"
// @Router /coach/students/{studentId}/draft/save [post]
func (h *BuilderHandler) SaveAsDraft(c *gin.Context) {
	coachID, studentID, ok := h.ids(c)
	if !ok {
		return
	}

	var override *staging.RoutineDraft
	if c.Request.ContentLength > 0 {
		var req SaveDraftRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
			return
		}
		mapped, err := mapSaveDraftRequest(coachID, studentID, req)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		override = mapped
	}

	routine, err := h.builderService.SaveAsDraft(c.Request.Context(), coachID, studentID, override)
	if err != nil {
		if errors.Is(err, service.ErrNoDraft) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrStudentNotManaged) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to save draft.")
		}
		return
	}
	c.JSON(http.StatusCreated, MapRoutineToResponse(routine))
}

// DiscardDraft godoc
// @Summary Discard the staged draft
// @Tags Builder
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Success 200 {object} gin.H "message: Draft discarded"
// @Router /coach/students/{studentId}/draft [delete]
func (h *BuilderHandler) DiscardDraft(c *gin.Context) {
	coachID, studentID, ok := h.ids(c)
	if !ok {
		return
	}
	if err := h.builderService.Discard(c.Request.Context(), coachID, studentID); err != nil {
		if errors.Is(err, service.ErrStudentNotManaged) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to discard draft.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Draft discarded"})
}

// CommitDraft godoc
// @Summary Commit the staged draft as a routine
// @Description All wizard gates must be satisfied. With activate set, the
// routine becomes Active and any previously Active routine of the student
// is locked.
// @Tags Builder
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Param request body CommitRequest true "Commit options"
// @Success 201 {object} RoutineResponse "The committed routine"
// @Failure 409 {object} gin.H "Wizard gates not satisfied"
// @Router /coach/students/{studentId}/draft/commit [post]
func (h *BuilderHandler) CommitDraft(c *gin.Context) {
	coachID, studentID, ok := h.ids(c)
	if !ok {
		return
	}
	var req CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	routine, err := h.builderService.Commit(c.Request.Context(), coachID, studentID, req.Activate)
	if err != nil {
		if errors.Is(err, service.ErrNoDraft) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrStepGateNotSatisfied) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else if errors.Is(err, service.ErrStudentNotManaged) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to commit routine.")
		}
		return
	}
	c.JSON(http.StatusCreated, MapRoutineToResponse(routine))
}

// ResumeDraftRoutine godoc
// @Summary Reopen a server-side Draft routine in the builder
// @Description Loads the routine's aggregate back into staging so editing
// can continue where SaveAsDraft left off.
// @Tags Builder
// @Produce json
// @Security BearerAuth
// @Param routineId path string true "Routine's ObjectID Hex"
// @Success 200 {object} DraftResponse "The staged draft"
// @Failure 403 {object} gin.H "Not the routine's coach"
// @Failure 404 {object} gin.H "Routine not found"
// @Failure 409 {object} gin.H "Routine is not in Draft status"
// @Router /coach/routines/{routineId}/resume [post]
func (h *BuilderHandler) ResumeDraftRoutine(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token.")
		return
	}
	routineID, err := primitive.ObjectIDFromHex(c.Param("routineId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid routine ID format in URL path.")
		return
	}

	draft, err := h.builderService.ResumeDraftRoutine(c.Request.Context(), coachID, routineID)
	if err != nil {
		if errors.Is(err, service.ErrRoutineNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrRoutineAccessDenied) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else if errors.Is(err, service.ErrRoutineNotDraft) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to resume draft routine.")
		}
		return
	}
	c.JSON(http.StatusOK, MapDraftToResponse(draft))
}
