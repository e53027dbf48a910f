// internal/repository/mongo/session_repo.go
package mongo

import (
	"alcyxob/routine-forge/internal/domain"
	"alcyxob/routine-forge/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionCollectionName is the collection this repository reads and writes.
const SessionCollectionName = "execution_sessions"

// mongoSessionRepository implements repository.SessionRepository. There is
// deliberately no Delete: sessions only ever change status, history stays.
type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new ExecutionSession repository.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(SessionCollectionName),
	}
}

// Create inserts a new execution session.
func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.ExecutionSession) (primitive.ObjectID, error) {
	if session.RoutineID == primitive.NilObjectID || session.WorkoutID == primitive.NilObjectID || session.StudentID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session requires routineId, workoutId, and studentId")
	}
	session.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted session ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single session by its ID.
func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExecutionSession, error) {
	var session domain.ExecutionSession
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetByRoutineID retrieves all sessions of a routine in session order.
func (r *mongoSessionRepository) GetByRoutineID(ctx context.Context, routineID primitive.ObjectID) ([]domain.ExecutionSession, error) {
	var sessions []domain.ExecutionSession
	filter := bson.M{"routineId": routineID}
	findOptions := options.Find().SetSort(bson.D{{Key: "sessionNumber", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetLatestExecuted returns the most recent session with a non-null
// execution date for the routine/student pair: execution date desc, then
// session number desc as the tie-breaker.
func (r *mongoSessionRepository) GetLatestExecuted(ctx context.Context, routineID, studentID primitive.ObjectID) (*domain.ExecutionSession, error) {
	var session domain.ExecutionSession
	filter := bson.M{
		"routineId":  routineID,
		"studentId":  studentID,
		"executedAt": bson.M{"$ne": nil},
	}
	findOptions := options.FindOne().SetSort(bson.D{
		{Key: "executedAt", Value: -1},
		{Key: "sessionNumber", Value: -1},
	})

	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Update persists the mutable execution fields of a session.
func (r *mongoSessionRepository) Update(ctx context.Context, session *domain.ExecutionSession) error {
	if session.ID == primitive.NilObjectID {
		return errors.New("session ID is required for update")
	}

	filter := bson.M{"_id": session.ID}
	updateDoc := bson.M{
		"$set": bson.M{
			"status":         session.Status,
			"executedAt":     session.ExecutedAt,
			"elapsedSeconds": session.ElapsedSeconds,
			"mode":           session.Mode,
			"slotResults":    session.SlotResults,
			"updatedAt":      time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureSessionIndexes creates necessary indexes. Call during startup.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "routineId", Value: 1}, {Key: "sessionNumber", Value: 1}},
			Options: options.Index(),
		},
		{
			// Supports the next-session suggestion query
			Keys: bson.D{
				{Key: "routineId", Value: 1},
				{Key: "studentId", Value: 1},
				{Key: "executedAt", Value: -1},
			},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
