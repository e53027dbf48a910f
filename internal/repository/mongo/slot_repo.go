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

// SlotCollectionName is the collection this repository reads and writes.
const SlotCollectionName = "exercise_slots"

// mongoSlotRepository implements repository.SlotRepository
type mongoSlotRepository struct {
	collection *mongo.Collection
}

// NewMongoSlotRepository creates a new ExerciseSlot repository.
func NewMongoSlotRepository(db *mongo.Database) repository.SlotRepository {
	return &mongoSlotRepository{
		collection: db.Collection(SlotCollectionName),
	}
}

// Create inserts a new exercise slot.
func (r *mongoSlotRepository) Create(ctx context.Context, slot *domain.ExerciseSlot) (primitive.ObjectID, error) {
	if slot.WorkoutID == primitive.NilObjectID || slot.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("slot requires workoutId and exerciseId")
	}
	slot.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	slot.CreatedAt = now
	slot.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, slot)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted slot ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single slot by its ID.
func (r *mongoSlotRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseSlot, error) {
	var slot domain.ExerciseSlot
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &slot, nil
}

// GetByWorkoutID retrieves all slots of a workout, in workout order.
func (r *mongoSlotRepository) GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.ExerciseSlot, error) {
	var slots []domain.ExerciseSlot
	filter := bson.M{"workoutId": workoutID}
	findOptions := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &slots); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

// DeleteByWorkoutID removes all slots of a workout.
func (r *mongoSlotRepository) DeleteByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"workoutId": workoutID})
	return err
}

// EnsureSlotIndexes creates necessary indexes. Call during startup.
func EnsureSlotIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workoutId", Value: 1}, {Key: "sequence", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
