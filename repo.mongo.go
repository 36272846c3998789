package main

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	StudentsCollection = "students"
	BooksCollection    = "books"
)

// GetMongoClient connects a single client, whose pool is shared by all
// repositories for the process lifetime, and verifies the connection.
func GetMongoClient(config *Config) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(config.Mongo.URI).
		SetConnectTimeout(config.Mongo.ConnectTimeout)
	if config.Mongo.MaxPoolSize > 0 {
		opts = opts.SetMaxPoolSize(config.Mongo.MaxPoolSize)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Mongo.ConnectTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), config.Mongo.PingTimeout)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return client, err
	}
	return client, nil
}
