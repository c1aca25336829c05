package bulk_webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bulk-webhook/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BulkWebhookRepository interface {
	Create(ctx context.Context, webhook *BulkWebhook) error
	Get(ctx context.Context, id string) (*BulkWebhook, error)
	List(ctx context.Context) ([]BulkWebhook, error)
	ListEnabled(ctx context.Context, frequencies ...Frequency) ([]BulkWebhook, error)
	Update(ctx context.Context, id string, webhook *BulkWebhook) error
	Delete(ctx context.Context, id string) error
	UpdateLastSent(ctx context.Context, id string, at time.Time) error
	EnsureIndexes(ctx context.Context) error
}

type RequestLogRepository interface {
	Create(ctx context.Context, log *RequestLog) error
	Get(ctx context.Context, id string) (*RequestLog, error)
	List(ctx context.Context, webhookID string, limit int64) ([]RequestLog, error)
	EnsureIndexes(ctx context.Context) error
}

type BulkWebhookRepositoryImpl struct {
	collection *mongo.Collection
}

func NewBulkWebhookRepository(db *database.MongodbDB) BulkWebhookRepository {
	return &BulkWebhookRepositoryImpl{
		collection: db.DB.Collection("bulk_webhooks"),
	}
}

func (r *BulkWebhookRepositoryImpl) Create(ctx context.Context, webhook *BulkWebhook) error {
	if webhook.ID.IsZero() {
		webhook.ID = primitive.NewObjectID()
	}
	webhook.CreatedAt = time.Now()
	webhook.UpdatedAt = webhook.CreatedAt
	_, err := r.collection.InsertOne(ctx, webhook)
	return writeError(err, webhook.Name)
}

// writeError turns the unique name index violation into a client error
func writeError(err error, name string) error {
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidWebhook, ErrDuplicateName, name)
	}
	return err
}

func (r *BulkWebhookRepositoryImpl) Get(ctx context.Context, id string) (*BulkWebhook, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrWebhookNotFound
	}

	var webhook BulkWebhook
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&webhook); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrWebhookNotFound
		}
		return nil, err
	}
	return &webhook, nil
}

func (r *BulkWebhookRepositoryImpl) List(ctx context.Context) ([]BulkWebhook, error) {
	return r.find(ctx, bson.M{})
}

func (r *BulkWebhookRepositoryImpl) ListEnabled(ctx context.Context, frequencies ...Frequency) ([]BulkWebhook, error) {
	return r.find(ctx, bson.M{
		"enabled":   true,
		"frequency": bson.M{"$in": frequencies},
	})
}

func (r *BulkWebhookRepositoryImpl) find(ctx context.Context, filter bson.M) ([]BulkWebhook, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	webhooks := []BulkWebhook{}
	if err := cursor.All(ctx, &webhooks); err != nil {
		return nil, err
	}
	return webhooks, nil
}

func (r *BulkWebhookRepositoryImpl) Update(ctx context.Context, id string, webhook *BulkWebhook) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrWebhookNotFound
	}

	webhook.ID = oid
	webhook.UpdatedAt = time.Now()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": oid}, webhook)
	if err != nil {
		return writeError(err, webhook.Name)
	}
	if res.MatchedCount == 0 {
		return ErrWebhookNotFound
	}
	return nil
}

func (r *BulkWebhookRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrWebhookNotFound
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrWebhookNotFound
	}
	return nil
}

func (r *BulkWebhookRepositoryImpl) UpdateLastSent(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrWebhookNotFound
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"last_sent_at": at}})
	return err
}

func (r *BulkWebhookRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "enabled", Value: 1}, {Key: "frequency", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

type RequestLogRepositoryImpl struct {
	collection *mongo.Collection
}

func NewRequestLogRepository(db *database.MongodbDB) RequestLogRepository {
	return &RequestLogRepositoryImpl{
		collection: db.DB.Collection("webhook_request_logs"),
	}
}

func (r *RequestLogRepositoryImpl) Create(ctx context.Context, log *RequestLog) error {
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, log)
	return err
}

func (r *RequestLogRepositoryImpl) Get(ctx context.Context, id string) (*RequestLog, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrLogNotFound
	}
	var log RequestLog
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&log); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}
	return &log, nil
}

func (r *RequestLogRepositoryImpl) List(ctx context.Context, webhookID string, limit int64) ([]RequestLog, error) {
	filter := bson.M{}
	if webhookID != "" {
		filter["webhook_id"] = webhookID
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []RequestLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *RequestLogRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "webhook_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}
