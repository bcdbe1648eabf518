package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	DefaultDatabase = "delivery_database"
	UserCollection  = "user"
)

// Connect to mongo and check the server answers
// uri: connection string in format mongodb://...
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("cant initialize mongo client. Err: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping failed. Err: %w", err)
	}

	return client, nil
}

// Create indexes the repositories rely on
// Creating an existing index is no-op for mongo, so it is safe to run on every start
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(UserCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("error while creating user indexes. Err: %w", err)
	}

	return nil
}

func ConnectAndEnsureIndexes(ctx context.Context, uri string, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := Connect(ctx, uri)
	if err != nil {
		return nil, nil, err
	}

	db := client.Database(database)
	if err := EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	return client, db, nil
}
