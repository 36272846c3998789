package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type mongoBookStorage struct {
	logger *zap.Logger
	coll   *mongo.Collection
}

// NewMongoBookStorage provides an instance of mongo-based book storage.
func NewMongoBookStorage(logger *zap.Logger, db *mongo.Database) BookStorage {
	return &mongoBookStorage{
		logger: logger,
		coll:   db.Collection(BooksCollection),
	}
}

// Insert stores a new book record.
func (mb *mongoBookStorage) Insert(ctx context.Context, book Book) (Book, error) {
	if _, err := mb.coll.InsertOne(ctx, book); err != nil {
		return book, errors.Wrap(err, "inserting book")
	}
	return book, nil
}

// Find returns all books matching the filter, in natural storage order.
func (mb *mongoBookStorage) Find(ctx context.Context, filter BookFilter) ([]Book, error) {
	cursor, err := mb.coll.Find(ctx, filter.BSON())
	if err != nil {
		return nil, errors.Wrap(err, "finding books")
	}
	books := []Book{}
	if err := cursor.All(ctx, &books); err != nil {
		return nil, errors.Wrap(err, "decoding books")
	}
	return books, nil
}

// GetOne retrieves a book record based on its id.
func (mb *mongoBookStorage) GetOne(ctx context.Context, id primitive.ObjectID) (Book, error) {
	var book Book
	err := mb.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, errors.Wrap(err, "finding book")
	}
	return book, nil
}

// GetDetail retrieves a book with its borrower resolved through a $lookup
// on the students collection. A dangling borrower reference leaves the
// borrower field empty instead of failing.
func (mb *mongoBookStorage) GetDetail(ctx context.Context, id primitive.ObjectID) (BookDetail, error) {
	var detail BookDetail
	pipeline := []bson.M{
		{"$match": bson.M{"_id": id}},
		{"$lookup": bson.M{
			"from":         StudentsCollection,
			"localField":   "borrowed_by",
			"foreignField": "_id",
			"as":           "borrower",
		}},
		{"$unwind": bson.M{"path": "$borrower", "preserveNullAndEmptyArrays": true}},
	}
	cursor, err := mb.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return detail, errors.Wrap(err, "aggregating book detail")
	}
	details := []BookDetail{}
	if err := cursor.All(ctx, &details); err != nil {
		return detail, errors.Wrap(err, "decoding book detail")
	}
	if len(details) == 0 {
		return detail, ErrBookNotFound
	}
	return details[0], nil
}

// Borrow flips an available book to borrowed in one conditional update.
// The availability check and the write are a single document operation,
// so only one of two concurrent borrowers can match the filter.
func (mb *mongoBookStorage) Borrow(ctx context.Context, id, studentID primitive.ObjectID, at, due time.Time) (Book, error) {
	var book Book
	err := mb.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "available": true},
		bson.M{"$set": bson.M{
			"available":   false,
			"borrowed_by": studentID,
			"borrow_date": at,
			"due_date":    due,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&book)
	if err == mongo.ErrNoDocuments {
		// Either the book is gone or someone else holds it.
		if _, gerr := mb.GetOne(ctx, id); gerr != nil {
			return book, gerr
		}
		return book, ErrBookNotAvailable
	}
	if err != nil {
		return book, errors.Wrap(err, "borrowing book")
	}
	return book, nil
}

// Return marks a book available again and clears the borrow fields,
// whoever held it.
func (mb *mongoBookStorage) Return(ctx context.Context, id primitive.ObjectID) (Book, error) {
	var book Book
	err := mb.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set":   bson.M{"available": true},
			"$unset": bson.M{"borrowed_by": "", "borrow_date": "", "due_date": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, errors.Wrap(err, "returning book")
	}
	return book, nil
}

// Count returns the number of book records.
func (mb *mongoBookStorage) Count(ctx context.Context) (int64, error) {
	n, err := mb.coll.CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "counting books")
}

// CountAvailable returns the number of books currently on the shelf.
func (mb *mongoBookStorage) CountAvailable(ctx context.Context) (int64, error) {
	n, err := mb.coll.CountDocuments(ctx, bson.M{"available": true})
	return n, errors.Wrap(err, "counting available books")
}
