package api

import (
	"alcyxob/routine-forge/internal/domain"
	"alcyxob/routine-forge/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	coachService service.CoachService,
	catalogService service.CatalogService,
	builderService service.BuilderService,
	routineService service.RoutineService,
	sessionService service.SessionService,
) {

	authHandler := NewAuthHandler(authService)
	coachHandler := NewCoachHandler(coachService)
	exerciseHandler := NewExerciseHandler(catalogService)
	builderHandler := NewBuilderHandler(builderService)
	routineHandler := NewRoutineHandler(routineService, catalogService)
	sessionHandler := NewSessionHandler(sessionService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex(), "role": role})
		})

		// --- Exercise Catalog ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.POST("", RoleMiddleware(domain.RoleCoach), exerciseHandler.CreateExercise)
			exerciseGroup.GET("", RoleMiddleware(domain.RoleCoach), exerciseHandler.GetCoachExercises)
			exerciseGroup.PUT("/:exerciseId", RoleMiddleware(domain.RoleCoach), exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:exerciseId", RoleMiddleware(domain.RoleCoach), exerciseHandler.DeleteExercise)
			// Display lookup is open to both roles; it backs list rendering.
			exerciseGroup.GET("/:exerciseId/display", exerciseHandler.GetExerciseDisplay)
		}

		// --- Coach Routes ---
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			coachGroup.POST("/students", coachHandler.AddStudentByEmail)
			coachGroup.GET("/students", coachHandler.GetManagedStudents)

			// Routine builder wizard, staged per student.
			coachGroup.GET("/students/:studentId/draft", builderHandler.GetDraft)
			coachGroup.DELETE("/students/:studentId/draft", builderHandler.DiscardDraft)
			coachGroup.POST("/students/:studentId/draft/advance", builderHandler.Advance)
			coachGroup.POST("/students/:studentId/draft/back", builderHandler.Back)
			coachGroup.PUT("/students/:studentId/draft/configuration", builderHandler.SaveConfiguration)
			coachGroup.PUT("/students/:studentId/draft/workouts", builderHandler.SaveWorkouts)
			coachGroup.POST("/students/:studentId/draft/workouts/regenerate", builderHandler.RegenerateWorkouts)
			coachGroup.PUT("/students/:studentId/draft/exercises", builderHandler.SaveExercises)
			coachGroup.POST("/students/:studentId/draft/workouts/:workoutLocalId/slots", builderHandler.AddSlot)
			coachGroup.DELETE("/students/:studentId/draft/workouts/:workoutLocalId/slots/:slotLocalId", builderHandler.RemoveSlot)
			coachGroup.POST("/students/:studentId/draft/workouts/:workoutLocalId/slots/:slotLocalId/series", builderHandler.AddSeries)
			coachGroup.DELETE("/students/:studentId/draft/workouts/:workoutLocalId/slots/:slotLocalId/series/:sequence", builderHandler.RemoveSeries)
			coachGroup.PATCH("/students/:studentId/draft/workouts/:workoutLocalId/slots/:slotLocalId/series/:sequence", builderHandler.UpdateSeries)
			coachGroup.POST("/students/:studentId/draft/workouts/:workoutLocalId/slots/:slotLocalId/series/:sequence/dropset", builderHandler.ToggleDropSet)
			coachGroup.POST("/students/:studentId/draft/save", builderHandler.SaveAsDraft)
			coachGroup.POST("/students/:studentId/draft/commit", builderHandler.CommitDraft)

			// Committed routine lifecycle.
			coachGroup.GET("/students/:studentId/routines", routineHandler.GetRoutinesForStudent)
			coachGroup.POST("/routines/:routineId/resume", builderHandler.ResumeDraftRoutine)
			coachGroup.POST("/routines/:routineId/activate", routineHandler.ActivateRoutine)
			coachGroup.POST("/routines/:routineId/complete", routineHandler.CompleteRoutine)
			coachGroup.POST("/routines/:routineId/cancel", routineHandler.CancelRoutine)
		}

		// --- Student Routes ---
		studentGroup := protected.Group("/student")
		studentGroup.Use(RoleMiddleware(domain.RoleStudent))
		{
			studentGroup.GET("/routines/active", routineHandler.GetMyActiveRoutine)
		}

		// --- Shared Routine / Session Routes (coach or student, checked in service) ---
		protected.GET("/routines/:routineId", routineHandler.GetRoutineDetail)
		protected.GET("/routines/:routineId/sessions", sessionHandler.GetSessionsForRoutine)
		protected.GET("/routines/:routineId/sessions/next", sessionHandler.GetNextSession)
		protected.POST("/sessions/:sessionId/resume", sessionHandler.ResumeSession)
		protected.POST("/sessions/:sessionId/pause", sessionHandler.PauseSession)
		protected.POST("/sessions/:sessionId/complete", sessionHandler.CompleteSession)
		protected.POST("/sessions/:sessionId/cancel", sessionHandler.CancelSession)
	}
}
