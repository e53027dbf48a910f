// internal/api/routine_handler.go
package api

import (
	"alcyxob/routine-forge/internal/domain"
	"alcyxob/routine-forge/internal/service"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RoutineHandler struct {
	routineService service.RoutineService
	catalogService service.CatalogService
}

func NewRoutineHandler(routineService service.RoutineService, catalogService service.CatalogService) *RoutineHandler {
	return &RoutineHandler{
		routineService: routineService,
		catalogService: catalogService,
	}
}

// --- DTOs ---

type RoutineResponse struct {
	ID              string    `json:"id"`
	StudentID       string    `json:"studentId"`
	CoachID         string    `json:"coachId"`
	Name            string    `json:"name"`
	Objective       string    `json:"objective"`
	Difficulty      string    `json:"difficulty"`
	Status          string    `json:"status"`
	SessionsPerWeek int       `json:"sessionsPerWeek"`
	DurationWeeks   *int      `json:"durationWeeks,omitempty"`
	AllowSelfGuided bool      `json:"allowSelfGuided"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type SlotDetailResponse struct {
	ID               string           `json:"id"`
	ExerciseID       string           `json:"exerciseId"`
	ExerciseName     string           `json:"exerciseName"`
	PairedExerciseID *string          `json:"pairedExerciseId,omitempty"`
	PairedName       string           `json:"pairedExerciseName,omitempty"`
	Sequence         int              `json:"sequence"`
	RestAfterSeconds int              `json:"restAfterSeconds"`
	Notes            string           `json:"notes,omitempty"`
	Series           []SeriesResponse `json:"series"`
}

type WorkoutDetailResponse struct {
	ID               string               `json:"id"`
	Sequence         int                  `json:"sequence"`
	Name             string               `json:"name"`
	MuscleGroups     []string             `json:"muscleGroups"`
	Notes            string               `json:"notes,omitempty"`
	EstimatedMinutes int                  `json:"estimatedMinutes"`
	Slots            []SlotDetailResponse `json:"slots"`
}

type RoutineDetailResponse struct {
	Routine  RoutineResponse         `json:"routine"`
	Workouts []WorkoutDetailResponse `json:"workouts"`
}

// MapRoutineToResponse converts domain.Routine to the response DTO.
func MapRoutineToResponse(r *domain.Routine) RoutineResponse {
	if r == nil {
		return RoutineResponse{}
	}
	return RoutineResponse{
		ID:              r.ID.Hex(),
		StudentID:       r.StudentID.Hex(),
		CoachID:         r.CoachID.Hex(),
		Name:            r.Name,
		Objective:       string(r.Objective),
		Difficulty:      string(r.Difficulty),
		Status:          string(r.Status),
		SessionsPerWeek: r.SessionsPerWeek,
		DurationWeeks:   r.DurationWeeks,
		AllowSelfGuided: r.AllowSelfGuided,
		Notes:           r.Notes,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// MapRoutinesToResponse converts a slice of domain.Routine.
func MapRoutinesToResponse(routines []domain.Routine) []RoutineResponse {
	responses := make([]RoutineResponse, len(routines))
	for i := range routines {
		responses[i] = MapRoutineToResponse(&routines[i])
	}
	return responses
}

// mapDetailToResponse converts the service detail aggregate, resolving
// exercise display names through the lookup cache.
func (h *RoutineHandler) mapDetailToResponse(detail *service.RoutineDetail) RoutineDetailResponse {
	resp := RoutineDetailResponse{
		Routine:  MapRoutineToResponse(&detail.Routine),
		Workouts: []WorkoutDetailResponse{},
	}
	for i := range detail.Workouts {
		wd := &detail.Workouts[i]
		wr := WorkoutDetailResponse{
			ID:               wd.Workout.ID.Hex(),
			Sequence:         wd.Workout.Sequence,
			Name:             wd.Workout.Name,
			MuscleGroups:     wd.Workout.MuscleGroups,
			Notes:            wd.Workout.Notes,
			EstimatedMinutes: wd.Workout.EstimatedMinutes,
			Slots:            []SlotDetailResponse{},
		}
		for j := range wd.Slots {
			sd := &wd.Slots[j]
			sr := SlotDetailResponse{
				ID:               sd.Slot.ID.Hex(),
				ExerciseID:       sd.Slot.ExerciseID.Hex(),
				ExerciseName:     h.catalogService.Lookup(sd.Slot.ExerciseID).Name,
				Sequence:         sd.Slot.Sequence,
				RestAfterSeconds: sd.Slot.RestAfterSeconds,
				Notes:            sd.Slot.Notes,
				Series:           []SeriesResponse{},
			}
			if sd.Slot.PairedExerciseID != nil {
				hex := sd.Slot.PairedExerciseID.Hex()
				sr.PairedExerciseID = &hex
				sr.PairedName = h.catalogService.Lookup(*sd.Slot.PairedExerciseID).Name
			}
			for k := range sd.Series {
				sr.Series = append(sr.Series, MapSeriesToResponse(&sd.Series[k]))
			}
			wr.Slots = append(wr.Slots, sr)
		}
		resp.Workouts = append(resp.Workouts, wr)
	}
	return resp
}

// --- Handler Methods ---

func respondRoutine(c *gin.Context, routine *domain.Routine, err error) {
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoutineNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrRoutineAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, domain.ErrIllegalRoutineTransition):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Routine operation failed.")
		}
		return
	}
	c.JSON(http.StatusOK, MapRoutineToResponse(routine))
}

func routineIDFromPath(c *gin.Context) (primitive.ObjectID, bool) {
	routineID, err := primitive.ObjectIDFromHex(c.Param("routineId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid routine ID format in URL path.")
		return primitive.NilObjectID, false
	}
	return routineID, true
}

// ActivateRoutine godoc
// @Summary Activate a routine
// @Description Transitions a Draft or Locked routine to Active. Any other
// Active routine of the student is locked in the same call.
// @Tags Routines
// @Produce json
// @Security BearerAuth
// @Param routineId path string true "Routine's ObjectID Hex"
// @Success 200 {object} RoutineResponse "Routine activated"
// @Failure 403 {object} gin.H "Not the routine's coach"
// @Failure 404 {object} gin.H "Routine not found"
// @Failure 409 {object} gin.H "Illegal status transition"
// @Router /coach/routines/{routineId}/activate [post]
func (h *RoutineHandler) ActivateRoutine(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token.")
		return
	}
	routineID, ok := routineIDFromPath(c)
	if !ok {
		return
	}
	routine, err := h.routineService.Activate(c.Request.Context(), coachID, routineID)
	respondRoutine(c, routine, err)
}

// CompleteRoutine godoc
// @Summary Complete a routine
// @Tags Routines
// @Produce json
// @Security BearerAuth
// @Param routineId path string true "Routine's ObjectID Hex"
// @Success 200 {object} RoutineResponse "Routine completed"
// @Failure 409 {object} gin.H "Illegal status transition"
// @Router /coach/routines/{routineId}/complete [post]
func (h *RoutineHandler) CompleteRoutine(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token.")
		return
	}
	routineID, ok := routineIDFromPath(c)
	if !ok {
		return
	}
	routine, err := h.routineService.Complete(c.Request.Context(), coachID, routineID)
	respondRoutine(c, routine, err)
}

// CancelRoutine godoc
// @Summary Cancel a routine
// @Tags Routines
// @Produce json
// @Security BearerAuth
// @Param routineId path string true "Routine's ObjectID Hex"
// @Success 200 {object} RoutineResponse "Routine cancelled"
// @Failure 409 {object} gin.H "Illegal status transition"
// @Router /coach/routines/{routineId}/cancel [post]
func (h *RoutineHandler) CancelRoutine(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token.")
		return
	}
	routineID, ok := routineIDFromPath(c)
	if !ok {
		return
	}
	routine, err := h.routineService.Cancel(c.Request.Context(), coachID, routineID)
	respondRoutine(c, routine, err)
}

// GetRoutinesForStudent godoc
// @Summary Get the routines authored for a student
// @Tags Routines
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student's ObjectID Hex"
// @Success 200 {array} RoutineResponse "List of routines, newest first"
// @Failure 403 {object} gin.H "Student not managed by this coach"
// @Router /coach/students/{studentId}/routines [get]
func (h *RoutineHandler) GetRoutinesForStudent(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token.")
		return
	}
	studentID, err := primitive.ObjectIDFromHex(c.Param("studentId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid student ID format in URL path.")
		return
	}

	routines, err := h.routineService.ListForStudent(c.Request.Context(), coachID, studentID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrStudentNotManaged) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve routines.")
		}
		return
	}

	if routines == nil {
		c.JSON(http.StatusOK, []RoutineResponse{})
		return
	}
	c.JSON(http.StatusOK, MapRoutinesToResponse(routines))
}

// GetMyActiveRoutine godoc
// @Summary Get the authenticated student's Active routine
// @Tags Routines
// @Produce json
// @Security BearerAuth
// @Success 200 {object} RoutineResponse "The Active routine"
// @Failure 404 {object} gin.H "No Active routine"
// @Router /student/routines/active [get]
func (h *RoutineHandler) GetMyActiveRoutine(c *gin.Context) {
	studentID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify student from token.")
		return
	}

	routine, err := h.routineService.GetActiveForStudent(c.Request.Context(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrRoutineNotFound) {
			abortWithError(c, http.StatusNotFound, "No active routine.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve active routine.")
		}
		return
	}
	c.JSON(http.StatusOK, MapRoutineToResponse(routine))
}

// GetRoutineDetail godoc
// @Summary Get the full routine tree
// @Description Returns the routine with its workouts, slots and series.
// Exercise names come from the lookup cache and may show a loading
// placeholder until resolved.
// @Tags Routines
// @Produce json
// @Security BearerAuth
// @Param routineId path string true "Routine's ObjectID Hex"
// @Success 200 {object} RoutineDetailResponse "Full routine detail"
// @Failure 403 {object} gin.H "Not the routine's coach or student"
// @Failure 404 {object} gin.H "Routine not found"
// @Router /routines/{routineId} [get]
func (h *RoutineHandler) GetRoutineDetail(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	callerRole, err := getUserRoleFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify role from token.")
		return
	}
	routineID, ok := routineIDFromPath(c)
	if !ok {
		return
	}

	detail, err := h.routineService.GetDetail(c.Request.Context(), callerID, callerRole, routineID)
	if err != nil {
		if errors.Is(err, service.ErrRoutineNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrRoutineAccessDenied) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve routine detail.")
		}
		return
	}
	c.JSON(http.StatusOK, h.mapDetailToResponse(detail))
}
