// internal/api/exercise_handler.go
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

type ExerciseHandler struct {
	catalogService service.CatalogService
}

func NewExerciseHandler(catalogService service.CatalogService) *ExerciseHandler {
	return &ExerciseHandler{catalogService: catalogService}
}

// --- DTOs ---

type ExerciseRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Equipment   string `json:"equipment" binding:"required,oneof=machine free_weight cable elastic bodyweight"`
	MuscleGroup string `json:"muscleGroup"`
	Difficulty  string `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
}

type ExerciseResponse struct {
	ID          string    `json:"id"`
	CoachID     string    `json:"coachId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Equipment   string    `json:"equipment"`
	MuscleGroup string    `json:"muscleGroup,omitempty"`
	Difficulty  string    `json:"difficulty,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type DisplayInfoResponse struct {
	Name      string `json:"name"`
	Equipment string `json:"equipment,omitempty"`
}

// MapExerciseToResponse converts domain.Exercise to the response DTO.
func MapExerciseToResponse(e *domain.Exercise) ExerciseResponse {
	if e == nil {
		return ExerciseResponse{}
	}
	return ExerciseResponse{
		ID:          e.ID.Hex(),
		CoachID:     e.CoachID.Hex(),
		Name:        e.Name,
		Description: e.Description,
		Equipment:   string(e.Equipment),
		MuscleGroup: e.MuscleGroup,
		Difficulty:  e.Difficulty,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// MapExercisesToResponse converts a slice of domain.Exercise.
func MapExercisesToResponse(exercises []domain.Exercise) []ExerciseResponse {
	responses := make([]ExerciseResponse, len(exercises))
	for i := range exercises {
		responses[i] = MapExerciseToResponse(&exercises[i])
	}
	return responses
}

// --- Handler Methods ---

// CreateExercise godoc
// @Summary Create a new exercise in the coach's catalog
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exerciseRequest body ExerciseRequest true "Exercise details"
// @Success 201 {object} ExerciseResponse "Exercise created"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token.")
		return
	}

	exercise, err := h.catalogService.CreateExercise(
		c.Request.Context(),
		coachID,
		req.Name,
		req.Description,
		domain.EquipmentClass(req.Equipment),
		req.MuscleGroup,
		req.Difficulty,
	)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create exercise.")
		}
		return
	}

	c.JSON(http.StatusCreated, MapExerciseToResponse(exercise))
}

// GetCoachExercises godoc
// @Summary Get the authenticated coach's exercise catalog
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ExerciseResponse "List of exercises"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /exercises [get]
func (h *ExerciseHandler) GetCoachExercises(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token.")
		return
	}

	exercises, err := h.catalogService.GetExercisesByCoach(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve exercises.")
		return
	}

	if exercises == nil {
		c.JSON(http.StatusOK, []ExerciseResponse{})
		return
	}
	c.JSON(http.StatusOK, MapExercisesToResponse(exercises))
}

// UpdateExercise godoc
// @Summary Update an exercise in the coach's catalog
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exerciseId path string true "Exercise's ObjectID Hex"
// @Param exerciseRequest body ExerciseRequest true "Updated exercise details"
// @Success 200 {object} ExerciseResponse "Exercise updated"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Forbidden"
// @Failure 404 {object} gin.H "Exercise not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /exercises/{exerciseId} [put]
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("exerciseId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format in URL path.")
		return
	}

	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token.")
		return
	}

	exercise, err := h.catalogService.UpdateExercise(
		c.Request.Context(),
		coachID,
		exerciseID,
		req.Name,
		req.Description,
		domain.EquipmentClass(req.Equipment),
		req.MuscleGroup,
		req.Difficulty,
	)
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrExerciseAccessDenied) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update exercise.")
		}
		return
	}

	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// DeleteExercise godoc
// @Summary Delete an exercise from the coach's catalog
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param exerciseId path string true "Exercise's ObjectID Hex"
// @Success 200 {object} gin.H "message: Exercise deleted"
// @Failure 400 {object} gin.H "Invalid ID format"
// @Failure 404 {object} gin.H "Exercise not found or not owned"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /exercises/{exerciseId} [delete]
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("exerciseId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format in URL path.")
		return
	}

	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token.")
		return
	}

	if err := h.catalogService.DeleteExercise(c.Request.Context(), coachID, exerciseID); err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete exercise.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Exercise deleted successfully"})
}

// GetExerciseDisplay godoc
// @Summary Get cached display attributes for an exercise
// @Description Returns the exercise's name and equipment through the lookup
// cache. Always succeeds; unresolved entries return a loading placeholder.
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param exerciseId path string true "Exercise's ObjectID Hex"
// @Success 200 {object} DisplayInfoResponse "Display attributes"
// @Failure 400 {object} gin.H "Invalid ID format"
// @Router /exercises/{exerciseId}/display [get]
func (h *ExerciseHandler) GetExerciseDisplay(c *gin.Context) {
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("exerciseId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format in URL path.")
		return
	}

	info := h.catalogService.Lookup(exerciseID)
	c.JSON(http.StatusOK, DisplayInfoResponse{
		Name:      info.Name,
		Equipment: string(info.Equipment),
	})
}
