// internal/staging/mongo_store.go
package staging

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DraftCollectionName is the scratch collection backing the Mongo store.
const DraftCollectionName = "routine_drafts"

// mongoStore implements Store on a Mongo scratch collection, one document
// per student, replaced wholesale on every Save.
type mongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore creates a Mongo-backed staging store.
func NewMongoStore(db *mongo.Database) Store {
	return &mongoStore{
		collection: db.Collection(DraftCollectionName),
	}
}

// Load restores the staged draft for one student.
func (s *mongoStore) Load(ctx context.Context, studentID primitive.ObjectID) (*RoutineDraft, error) {
	var draft RoutineDraft
	filter := bson.M{"studentId": studentID}
	err := s.collection.FindOne(ctx, filter).Decode(&draft)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	return &draft, nil
}

// Save upserts the whole draft document for the draft's student.
func (s *mongoStore) Save(ctx context.Context, draft *RoutineDraft) error {
	if draft == nil || draft.StudentID == primitive.NilObjectID {
		return errors.New("draft requires a studentId")
	}
	draft.UpdatedAt = time.Now().UTC()

	filter := bson.M{"studentId": draft.StudentID}
	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, filter, draft, opts)
	return err
}

// Clear removes the staged draft. Absence is not an error.
func (s *mongoStore) Clear(ctx context.Context, studentID primitive.ObjectID) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"studentId": studentID})
	return err
}

// EnsureDraftIndexes creates the staging collection indexes. Call during
// startup.
func EnsureDraftIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One staged draft per student.
			Keys:    bson.D{{Key: "studentId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
