package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// MongoClient manages the connection to MongoDB
type MongoClient struct {
	client   *mongo.Client
	database string
}

// NewMongoClient creates a new MongoDB client. The database named in the URI
// path is the one extracted by default.
func NewMongoClient(ctx context.Context, uri string) (*MongoClient, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &MongoClient{client: client, database: cs.Database}, nil
}

// Close closes the database connection
func (c *MongoClient) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// DatabaseName returns the database named in the connection URI
func (c *MongoClient) DatabaseName() string {
	return c.database
}

// GetDatabase returns a handle to the named database
func (c *MongoClient) GetDatabase(name string) *mongo.Database {
	return c.client.Database(name)
}
