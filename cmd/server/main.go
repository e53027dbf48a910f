package main

import (
	"alcyxob/routine-forge/internal/api"
	"alcyxob/routine-forge/internal/cache"
	"alcyxob/routine-forge/internal/config"
	"alcyxob/routine-forge/internal/repository/mongo"
	"alcyxob/routine-forge/internal/service"
	"alcyxob/routine-forge/internal/staging"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// @title Routine Forge API
// @version 1.0
// @description API for authoring training routines and driving their execution sessions.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	// --- Logging ---
	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Logging.FormatJSON {
		log.SetFormatter(&log.JSONFormatter{})
	}
	log.Info("starting routine-forge server")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Info("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Errorf("failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info("database connection established")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection(mongo.UserCollectionName))
		mongo.EnsureExerciseIndexes(ctx, appDB.Collection(mongo.ExerciseCollectionName))
		mongo.EnsureRoutineIndexes(ctx, appDB.Collection(mongo.RoutineCollectionName))
		mongo.EnsureWorkoutIndexes(ctx, appDB.Collection(mongo.WorkoutCollectionName))
		mongo.EnsureSlotIndexes(ctx, appDB.Collection(mongo.SlotCollectionName))
		mongo.EnsureSeriesIndexes(ctx, appDB.Collection(mongo.SeriesCollectionName))
		mongo.EnsureSessionIndexes(ctx, appDB.Collection(mongo.SessionCollectionName))
		staging.EnsureDraftIndexes(ctx, appDB.Collection(staging.DraftCollectionName))
		log.Info("index creation process completed")
	}()

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	routineRepo := mongo.NewMongoRoutineRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)
	slotRepo := mongo.NewMongoSlotRepository(appDB)
	seriesRepo := mongo.NewMongoSeriesRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)
	draftStore := staging.NewMongoStore(appDB)

	// --- Exercise Lookup Cache ---
	lookupCache := cache.NewExerciseCache(exerciseRepo, cfg.Cache.SizeMB*1024*1024, cfg.Cache.FetchTimeout)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	coachService := service.NewCoachService(userRepo)
	catalogService := service.NewCatalogService(exerciseRepo, lookupCache)
	builderService := service.NewBuilderService(draftStore, userRepo, exerciseRepo, routineRepo, workoutRepo, slotRepo, seriesRepo, sessionRepo)
	routineService := service.NewRoutineService(userRepo, routineRepo, workoutRepo, slotRepo, seriesRepo, sessionRepo)
	sessionService := service.NewSessionService(routineRepo, workoutRepo, slotRepo, sessionRepo, service.DefaultRefreshDelay)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default()

	// --- Setup Routes ---
	api.SetupRoutes(router, cfg.JWT.Secret, authService, coachService, catalogService, builderService, routineService, sessionService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Infof("server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Info("server exiting")
}
