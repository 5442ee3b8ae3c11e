package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/bakehouse/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

type snapshotDoc struct {
	UserID    string                `bson:"user_id"`
	Items     []domain.CartLineItem `bson:"items"`
	UpdatedAt time.Time             `bson:"updated_at"`
}

type MongoSnapshots struct {
	collection *mongo.Collection
}

func NewMongoSnapshots(db *mongo.Database) *MongoSnapshots {
	return &MongoSnapshots{
		collection: db.Collection("carts"),
	}
}

func (m *MongoSnapshots) Load(ctx context.Context, userID string) ([]domain.CartLineItem, error) {
	var doc snapshotDoc

	err := m.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return doc.Items, nil
}

func (m *MongoSnapshots) Save(ctx context.Context, userID string, items []domain.CartLineItem) error {
	if items == nil {
		items = []domain.CartLineItem{}
	}
	doc := snapshotDoc{UserID: userID, Items: items, UpdatedAt: time.Now()}

	filter := bson.M{"user_id": userID}
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

func (m *MongoSnapshots) Delete(ctx context.Context, userID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}

func (m *MongoSnapshots) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(14 * 24 * 60 * 60), // abandoned carts
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
