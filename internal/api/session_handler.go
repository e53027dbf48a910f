// internal/api/session_handler.go
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

type SessionHandler struct {
	sessionService service.SessionService
}

func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// --- DTOs ---

type PauseSessionRequest struct {
	ElapsedSeconds int `json:"elapsedSeconds" binding:"min=0"`
}

type CompleteSessionRequest struct {
	ElapsedSeconds   int      `json:"elapsedSeconds" binding:"min=0"`
	AttemptedSlotIDs []string `json:"attemptedSlotIds"`
}

type SlotResultResponse struct {
	SlotID  string `json:"slotId"`
	Outcome string `json:"outcome"`
}

type SessionResponse struct {
	ID             string               `json:"id"`
	RoutineID      string               `json:"routineId"`
	WorkoutID      string               `json:"workoutId"`
	StudentID      string               `json:"studentId"`
	SessionNumber  int                  `json:"sessionNumber"`
	Status         string               `json:"status"`
	ExecutedAt     *time.Time           `json:"executedAt,omitempty"`
	ElapsedSeconds int                  `json:"elapsedSeconds"`
	PlannedMinutes int                  `json:"plannedMinutes"`
	Mode           string               `json:"mode,omitempty"`
	SlotResults    []SlotResultResponse `json:"slotResults,omitempty"`
}

// MapSessionToResponse converts domain.ExecutionSession to the response DTO.
func MapSessionToResponse(s *domain.ExecutionSession) SessionResponse {
	if s == nil {
		return SessionResponse{}
	}
	resp := SessionResponse{
		ID:             s.ID.Hex(),
		RoutineID:      s.RoutineID.Hex(),
		WorkoutID:      s.WorkoutID.Hex(),
		StudentID:      s.StudentID.Hex(),
		SessionNumber:  s.SessionNumber,
		Status:         string(s.Status),
		ExecutedAt:     s.ExecutedAt,
		ElapsedSeconds: s.ElapsedSeconds,
		PlannedMinutes: s.PlannedMinutes,
		Mode:           string(s.Mode),
	}
	for _, r := range s.SlotResults {
		resp.SlotResults = append(resp.SlotResults, SlotResultResponse{
			SlotID:  r.SlotID.Hex(),
			Outcome: string(r.Outcome),
		})
	}
	return resp
}

// MapSessionsToResponse converts a slice of domain.ExecutionSession.
func MapSessionsToResponse(sessions []domain.ExecutionSession) []SessionResponse {
	responses := make([]SessionResponse, len(sessions))
	for i := range sessions {
		responses[i] = MapSessionToResponse(&sessions[i])
	}
	return responses
}

// --- Handler Methods ---

func respondSession(c *gin.Context, session *domain.ExecutionSession, err error) {
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrRoutineNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrSessionAccessDenied),
			errors.Is(err, service.ErrRoutineAccessDenied),
			errors.Is(err, service.ErrSelfGuidedNotAllowed):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, domain.ErrIllegalSessionTransition):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Session operation failed.")
		}
		return
	}
	c.JSON(http.StatusOK, MapSessionToResponse(session))
}

func (h *SessionHandler) caller(c *gin.Context) (primitive.ObjectID, domain.Role, bool) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return primitive.NilObjectID, "", false
	}
	callerRole, err := getUserRoleFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify role from token.")
		return primitive.NilObjectID, "", false
	}
	return callerID, callerRole, true
}

func sessionIDFromPath(c *gin.Context) (primitive.ObjectID, bool) {
	sessionID, err := primitive.ObjectIDFromHex(c.Param("sessionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format in URL path.")
		return primitive.NilObjectID, false
	}
	return sessionID, true
}

// ResumeSession godoc
// @Summary Start or resume a session
// @Description Starts an Open session or resumes a Paused one. Resuming an
// InProgress session refreshes its execution date. Students need the
// routine's self-guided flag to run sessions without the coach.
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session's ObjectID Hex"
// @Success 200 {object} SessionResponse "The session, now InProgress"
// @Failure 403 {object} gin.H "Access denied or self-guided not allowed"
// @Failure 404 {object} gin.H "Session not found"
// @Failure 409 {object} gin.H "Illegal status transition"
// @Router /sessions/{sessionId}/resume [post]
func (h *SessionHandler) ResumeSession(c *gin.Context) {
	callerID, callerRole, ok := h.caller(c)
	if !ok {
		return
	}
	sessionID, ok := sessionIDFromPath(c)
	if !ok {
		return
	}
	session, err := h.sessionService.Resume(c.Request.Context(), callerID, callerRole, sessionID)
	respondSession(c, session, err)
}

// PauseSession godoc
// @Summary Pause an InProgress session
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session's ObjectID Hex"
// @Param request body PauseSessionRequest true "Elapsed time so far"
// @Success 200 {object} SessionResponse "The session, now Paused"
// @Failure 409 {object} gin.H "Illegal status transition"
// @Router /sessions/{sessionId}/pause [post]
func (h *SessionHandler) PauseSession(c *gin.Context) {
	callerID, callerRole, ok := h.caller(c)
	if !ok {
		return
	}
	sessionID, ok := sessionIDFromPath(c)
	if !ok {
		return
	}
	var req PauseSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	session, err := h.sessionService.Pause(c.Request.Context(), callerID, callerRole, sessionID, req.ElapsedSeconds)
	respondSession(c, session, err)
}

// CompleteSession godoc
// @Summary Complete a session
// @Description Records a terminal outcome for every slot of the session's
// workout: attempted for the listed slot IDs, skipped for the rest.
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session's ObjectID Hex"
// @Param request body CompleteSessionRequest true "Elapsed time and attempted slots"
// @Success 200 {object} SessionResponse "The session, now Completed"
// @Failure 409 {object} gin.H "Illegal status transition"
// @Router /sessions/{sessionId}/complete [post]
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	callerID, callerRole, ok := h.caller(c)
	if !ok {
		return
	}
	sessionID, ok := sessionIDFromPath(c)
	if !ok {
		return
	}
	var req CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	attempted := make([]primitive.ObjectID, 0, len(req.AttemptedSlotIDs))
	for _, hex := range req.AttemptedSlotIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid slot ID format in attempted list.")
			return
		}
		attempted = append(attempted, id)
	}
	session, err := h.sessionService.Complete(c.Request.Context(), callerID, callerRole, sessionID, req.ElapsedSeconds, attempted)
	respondSession(c, session, err)
}

// CancelSession godoc
// @Summary Cancel a session
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session's ObjectID Hex"
// @Success 200 {object} SessionResponse "The session, now Cancelled"
// @Failure 409 {object} gin.H "Illegal status transition"
// @Router /sessions/{sessionId}/cancel [post]
func (h *SessionHandler) CancelSession(c *gin.Context) {
	callerID, callerRole, ok := h.caller(c)
	if !ok {
		return
	}
	sessionID, ok := sessionIDFromPath(c)
	if !ok {
		return
	}
	session, err := h.sessionService.Cancel(c.Request.Context(), callerID, callerRole, sessionID)
	respondSession(c, session, err)
}

// GetNextSession godoc
// @Summary Get the next session to run for a routine
// @Description Resolves the session after the latest executed one, creating
// its row lazily when the plan has run past the pre-created sessions.
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param routineId path string true "Routine's ObjectID Hex"
// @Success 200 {object} SessionResponse "The next session"
// @Failure 404 {object} gin.H "Routine not found or has no workouts"
// @Router /routines/{routineId}/sessions/next [get]
func (h *SessionHandler) GetNextSession(c *gin.Context) {
	callerID, callerRole, ok := h.caller(c)
	if !ok {
		return
	}
	routineID, err := primitive.ObjectIDFromHex(c.Param("routineId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid routine ID format in URL path.")
		return
	}
	session, err := h.sessionService.NextSession(c.Request.Context(), callerID, callerRole, routineID)
	respondSession(c, session, err)
}

// GetSessionsForRoutine godoc
// @Summary List all sessions of a routine in plan order
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param routineId path string true "Routine's ObjectID Hex"
// @Success 200 {array} SessionResponse "Sessions in plan order"
// @Failure 403 {object} gin.H "Access denied"
// @Router /routines/{routineId}/sessions [get]
func (h *SessionHandler) GetSessionsForRoutine(c *gin.Context) {
	callerID, callerRole, ok := h.caller(c)
	if !ok {
		return
	}
	routineID, err := primitive.ObjectIDFromHex(c.Param("routineId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid routine ID format in URL path.")
		return
	}

	sessions, err := h.sessionService.ListForRoutine(c.Request.Context(), callerID, callerRole, routineID)
	if err != nil {
		if errors.Is(err, service.ErrRoutineNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrRoutineAccessDenied) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve sessions.")
		}
		return
	}

	if sessions == nil {
		c.JSON(http.StatusOK, []SessionResponse{})
		return
	}
	c.JSON(http.StatusOK, MapSessionsToResponse(sessions))
}
