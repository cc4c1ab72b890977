package audit

import (
	"context"
	"fmt"
	"time"

	"admindash/admin-service/internal/app/admin/entity"
	"admindash/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSink хранит журнал доступа к секретам в MongoDB
type MongoSink struct {
	collection *mongo.Collection
}

// NewMongoSink создает приемник и индексы по локали и времени
func NewMongoSink(db *mongo.Database, collectionName string) *MongoSink {
	collection := db.Collection(collectionName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "locale_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("locale_id_timestamp_idx"),
		},
		{
			Keys:    bson.D{{Key: "admin_user", Value: 1}},
			Options: options.Index().SetName("admin_user_idx"),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		// Индексы могли быть созданы раньше, работу не прерываем
		logger.Warn().Err(err).Str("collection", collectionName).Msg("Failed to create audit indexes")
	}

	return &MongoSink{collection: collection}
}

func (s *MongoSink) Write(ctx context.Context, record entity.AuditRecord) error {
	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

// ConnectMongo подключается к MongoDB с повторными попытками
func ConnectMongo(ctx context.Context, uri string, attempts int) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)

	var lastErr error
	for i := 0; i < attempts; i++ {
		client, err := connectOnce(ctx, clientOptions)
		if err == nil {
			return client, nil
		}
		lastErr = err

		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to MongoDB, retrying...")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}

	return nil, lastErr
}

func connectOnce(ctx context.Context, clientOptions *options.ClientOptions) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client, nil
}
