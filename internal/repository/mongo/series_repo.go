package mongo

import (
	"alcyxob/routine-forge/internal/domain"
	"alcyxob/routine-forge/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SeriesCollectionName is the collection this repository reads and writes.
const SeriesCollectionName = "series"

// mongoSeriesRepository implements repository.SeriesRepository
type mongoSeriesRepository struct {
	collection *mongo.Collection
}

// NewMongoSeriesRepository creates a new Series repository.
func NewMongoSeriesRepository(db *mongo.Database) repository.SeriesRepository {
	return &mongoSeriesRepository{
		collection: db.Collection(SeriesCollectionName),
	}
}

// CreateMany inserts all series of one slot in a single call. Each series
// must already reference its slot.
func (r *mongoSeriesRepository) CreateMany(ctx context.Context, series []domain.Series) error {
	if len(series) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(series))
	for i := range series {
		if series[i].SlotID == primitive.NilObjectID {
			return errors.New("series requires slotId")
		}
		if series[i].ID == primitive.NilObjectID {
			series[i].ID = primitive.NewObjectID()
		}
		docs = append(docs, series[i])
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// GetBySlotID retrieves all series of a slot, in ordinal order.
func (r *mongoSeriesRepository) GetBySlotID(ctx context.Context, slotID primitive.ObjectID) ([]domain.Series, error) {
	var series []domain.Series
	filter := bson.M{"slotId": slotID}
	findOptions := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &series); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return series, nil
}

// DeleteBySlotID removes all series of a slot.
func (r *mongoSeriesRepository) DeleteBySlotID(ctx context.Context, slotID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"slotId": slotID})
	return err
}

// EnsureSeriesIndexes creates necessary indexes. Call during startup.
func EnsureSeriesIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slotId", Value: 1}, {Key: "sequence", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
