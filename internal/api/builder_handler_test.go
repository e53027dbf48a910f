package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"alcyxob/routine-forge/internal/domain"
	"alcyxob/routine-forge/internal/service"
	"alcyxob/routine-forge/internal/staging"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubBuilderService intercepts SaveAsDraft; the embedded interface covers
// the methods these tests never reach.
type stubBuilderService struct {
	service.BuilderService
	saveAsDraft func(ctx context.Context, coachID, studentID primitive.ObjectID, override *staging.RoutineDraft) (*domain.Routine, error)
}

func (s *stubBuilderService) SaveAsDraft(ctx context.Context, coachID, studentID primitive.ObjectID, override *staging.RoutineDraft) (*domain.Routine, error) {
	return s.saveAsDraft(ctx, coachID, studentID, override)
}

func saveDraftRouter(svc service.BuilderService, coachID primitive.ObjectID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextUserIDKey, coachID.Hex())
		c.Set(ContextUserRoleKey, domain.RoleCoach)
	})
	h := NewBuilderHandler(svc)
	r.POST("/coach/students/:studentId/draft/save", h.SaveAsDraft)
	return r
}

func TestBuilderHandler_SaveAsDraft_ForwardsInFlightDraft(t *testing.T) {
	coachID := primitive.NewObjectID()
	studentID := primitive.NewObjectID()
	exerciseID := primitive.NewObjectID()

	var got *staging.RoutineDraft
	svc := &stubBuilderService{
		saveAsDraft: func(_ context.Context, _, _ primitive.ObjectID, override *staging.RoutineDraft) (*domain.Routine, error) {
			got = override
			return &domain.Routine{ID: primitive.NewObjectID(), StudentID: studentID, CoachID: coachID, Name: "Block", Status: domain.RoutineDraft}, nil
		},
	}
	router := saveDraftRouter(svc, coachID)

	body := `{
		"config": {"name": "Block", "objective": "strength", "difficulty": "beginner", "sessionsPerWeek": 1},
		"workouts": [{
			"localId": "w1", "name": "Workout A", "muscleGroups": ["Chest"],
			"slots": [{"exerciseId": "` + exerciseID.Hex() + `", "series": [{"reps": 8, "loadKg": 60}]}]
		}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/coach/students/"+studentID.Hex()+"/draft/save", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, got, "the in-flight draft reaches the service")
	assert.Equal(t, studentID, got.StudentID)
	assert.Equal(t, coachID, got.CoachID)
	assert.Equal(t, "Block", got.Config.Name)
	require.Len(t, got.Workouts, 1)
	require.Len(t, got.Workouts[0].Slots, 1)
	slot := got.Workouts[0].Slots[0]
	assert.Equal(t, exerciseID, slot.ExerciseID)
	require.Len(t, slot.Series, 1)
	assert.Equal(t, 8, slot.Series[0].Primary.Reps)
	assert.Equal(t, 60.0, slot.Series[0].Primary.LoadKg)
}

func TestBuilderHandler_SaveAsDraft_NoBodySavesStagedDraft(t *testing.T) {
	coachID := primitive.NewObjectID()
	studentID := primitive.NewObjectID()

	overrideSeen := true
	svc := &stubBuilderService{
		saveAsDraft: func(_ context.Context, _, _ primitive.ObjectID, override *staging.RoutineDraft) (*domain.Routine, error) {
			overrideSeen = override != nil
			return &domain.Routine{ID: primitive.NewObjectID(), StudentID: studentID, CoachID: coachID, Name: "Block", Status: domain.RoutineDraft}, nil
		},
	}
	router := saveDraftRouter(svc, coachID)

	req := httptest.NewRequest(http.MethodPost, "/coach/students/"+studentID.Hex()+"/draft/save", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.False(t, overrideSeen, "an empty body saves the staged draft as-is")
}
