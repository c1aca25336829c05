package error_log

import (
	"context"

	"bulk-webhook/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ErrorLogRepository interface {
	Create(ctx context.Context, entry *ErrorLog) error
	List(ctx context.Context, limit int64) ([]ErrorLog, error)
	EnsureIndexes(ctx context.Context) error
}

type ErrorLogRepositoryImpl struct {
	collection *mongo.Collection
}

func NewErrorLogRepository(db *database.MongodbDB) ErrorLogRepository {
	return &ErrorLogRepositoryImpl{
		collection: db.DB.Collection("error_logs"),
	}
}

func (r *ErrorLogRepositoryImpl) Create(ctx context.Context, entry *ErrorLog) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

func (r *ErrorLogRepositoryImpl) List(ctx context.Context, limit int64) ([]ErrorLog, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []ErrorLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *ErrorLogRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	return err
}
