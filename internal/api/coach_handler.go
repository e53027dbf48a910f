// internal/api/coach_handler.go
package api

import (
	"alcyxob/routine-forge/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type CoachHandler struct {
	coachService service.CoachService
}

func NewCoachHandler(coachService service.CoachService) *CoachHandler {
	return &CoachHandler{coachService: coachService}
}

// --- DTOs ---

type AddStudentRequest struct {
	StudentEmail string `json:"studentEmail" binding:"required,email"`
}

// --- Handler Methods ---

// AddStudentByEmail godoc
// @Summary Add a student to the coach's roster by email
// @Description Associates an existing student user with the authenticated coach.
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentRequest body AddStudentRequest true "Student's email"
// @Success 200 {object} UserResponse "Student added to roster"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "User is not a student, or already has a coach"
// @Failure 404 {object} gin.H "Student not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /coach/students [post]
func (h *CoachHandler) AddStudentByEmail(c *gin.Context) {
	var req AddStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token.")
		return
	}

	student, err := h.coachService.AddStudentByEmail(c.Request.Context(), coachID, req.StudentEmail)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrStudentNotRole) || errors.Is(err, service.ErrStudentAlreadyAssigned) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to add student.")
		}
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(student))
}

// GetManagedStudents godoc
// @Summary Get the coach's managed students
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse "List of managed students"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /coach/students [get]
func (h *CoachHandler) GetManagedStudents(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token.")
		return
	}

	students, err := h.coachService.GetManagedStudents(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve managed students.")
		return
	}

	if students == nil {
		c.JSON(http.StatusOK, []UserResponse{})
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(students))
}
