// internal/repository/mongo/routine_repo.go
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

// RoutineCollectionName is the collection this repository reads and writes.
const RoutineCollectionName = "routines"

// mongoRoutineRepository implements repository.RoutineRepository
type mongoRoutineRepository struct {
	collection *mongo.Collection
}

// NewMongoRoutineRepository creates a new Routine repository.
func NewMongoRoutineRepository(db *mongo.Database) repository.RoutineRepository {
	return &mongoRoutineRepository{
		collection: db.Collection(RoutineCollectionName),
	}
}

// Create inserts a new routine.
func (r *mongoRoutineRepository) Create(ctx context.Context, routine *domain.Routine) (primitive.ObjectID, error) {
	if routine.StudentID == primitive.NilObjectID || routine.CoachID == primitive.NilObjectID || routine.Name == "" {
		return primitive.NilObjectID, errors.New("routine requires studentId, coachId, and name")
	}
	routine.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	routine.CreatedAt = now
	routine.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, routine)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted routine ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single routine by its ID.
func (r *mongoRoutineRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Routine, error) {
	var routine domain.Routine
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&routine)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &routine, nil
}

// GetByStudentAndCoachID retrieves all routines for a specific student
// created by a specific coach, newest first.
func (r *mongoRoutineRepository) GetByStudentAndCoachID(ctx context.Context, studentID, coachID primitive.ObjectID) ([]domain.Routine, error) {
	var routines []domain.Routine
	// Filter ensures coach ownership and correct student association
	filter := bson.M{
		"studentId": studentID,
		"coachId":   coachID,
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &routines); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return routines, nil
}

// GetActiveByStudentID retrieves the student's single Active routine, if any.
func (r *mongoRoutineRepository) GetActiveByStudentID(ctx context.Context, studentID primitive.ObjectID) (*domain.Routine, error) {
	var routine domain.Routine
	filter := bson.M{
		"studentId": studentID,
		"status":    domain.RoutineActive,
	}
	err := r.collection.FindOne(ctx, filter).Decode(&routine)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &routine, nil
}

// Update modifies the updatable fields of a routine. StudentID, CoachID and
// CreatedAt never change through this path.
func (r *mongoRoutineRepository) Update(ctx context.Context, routine *domain.Routine) error {
	if routine.ID == primitive.NilObjectID {
		return errors.New("routine ID is required for update")
	}

	filter := bson.M{"_id": routine.ID}
	updateDoc := bson.M{
		"$set": bson.M{
			"name":            routine.Name,
			"objective":       routine.Objective,
			"difficulty":      routine.Difficulty,
			"status":          routine.Status,
			"sessionsPerWeek": routine.SessionsPerWeek,
			"durationWeeks":   routine.DurationWeeks,
			"allowSelfGuided": routine.AllowSelfGuided,
			"notes":           routine.Notes,
			"updatedAt":       time.Now().UTC(),
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

// UpdateStatus sets only the status field.
func (r *mongoRoutineRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.RoutineStatus) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a routine document.
func (r *mongoRoutineRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// LockOthersForStudent moves every other Active routine of the student to
// Locked, preserving the single-active invariant during activation.
func (r *mongoRoutineRepository) LockOthersForStudent(ctx context.Context, studentID, excludeRoutineID primitive.ObjectID) error {
	filter := bson.M{
		"studentId": studentID,
		"status":    domain.RoutineActive,
		"_id":       bson.M{"$ne": excludeRoutineID}, // Don't touch the routine being activated
	}
	update := bson.M{"$set": bson.M{"status": domain.RoutineLocked, "updatedAt": time.Now().UTC()}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// EnsureRoutineIndexes creates necessary indexes. Call during startup.
func EnsureRoutineIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Compound index for the main query pattern: routines of a student by a coach
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "studentId", Value: 1}},
			Options: options.Index(),
		},
		{
			// Index to quickly find the active routine for a student
			Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
