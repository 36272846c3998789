package main

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type mongoStudentStorage struct {
	logger *zap.Logger
	coll   *mongo.Collection
}

// NewMongoStudentStorage provides an instance of mongo-based student storage.
func NewMongoStudentStorage(logger *zap.Logger, db *mongo.Database) StudentStorage {
	return &mongoStudentStorage{
		logger: logger,
		coll:   db.Collection(StudentsCollection),
	}
}

// Insert stores a new student record.
func (ms *mongoStudentStorage) Insert(ctx context.Context, student Student) (Student, error) {
	if _, err := ms.coll.InsertOne(ctx, student); err != nil {
		return student, errors.Wrap(err, "inserting student")
	}
	return student, nil
}

// InsertMany stores a batch of student records. The insert is ordered, so a
// failure keeps the documents inserted before it and discards the rest.
func (ms *mongoStudentStorage) InsertMany(ctx context.Context, students []Student) ([]Student, error) {
	if len(students) == 0 {
		return []Student{}, nil
	}
	docs := make([]interface{}, 0, len(students))
	for _, s := range students {
		docs = append(docs, s)
	}
	if _, err := ms.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return nil, errors.Wrap(err, "inserting students")
	}
	return students, nil
}

// Find returns all students matching the filter, in natural storage order.
func (ms *mongoStudentStorage) Find(ctx context.Context, filter StudentFilter) ([]Student, error) {
	cursor, err := ms.coll.Find(ctx, filter.BSON())
	if err != nil {
		return nil, errors.Wrap(err, "finding students")
	}
	students := []Student{}
	if err := cursor.All(ctx, &students); err != nil {
		return nil, errors.Wrap(err, "decoding students")
	}
	return students, nil
}

// GetOne retrieves a student record based on its id.
func (ms *mongoStudentStorage) GetOne(ctx context.Context, id primitive.ObjectID) (Student, error) {
	var student Student
	err := ms.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&student)
	if err == mongo.ErrNoDocuments {
		return student, ErrStudentNotFound
	}
	if err != nil {
		return student, errors.Wrap(err, "finding student")
	}
	return student, nil
}

// Update applies a partial field set to one student and returns the
// updated document.
func (ms *mongoStudentStorage) Update(ctx context.Context, id primitive.ObjectID, patch StudentPatch) (Student, error) {
	var student Student
	err := ms.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		patch.SetBSON(),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&student)
	if err == mongo.ErrNoDocuments {
		return student, ErrStudentNotFound
	}
	if err != nil {
		return student, errors.Wrap(err, "updating student")
	}
	return student, nil
}

// UpdateMany applies a patch to every student matching the filter and
// returns the modified count.
func (ms *mongoStudentStorage) UpdateMany(ctx context.Context, filter StudentFilter, patch StudentPatch) (int64, error) {
	res, err := ms.coll.UpdateMany(ctx, filter.BSON(), patch.SetBSON())
	if err != nil {
		return 0, errors.Wrap(err, "updating students")
	}
	return res.ModifiedCount, nil
}

// Delete removes one student record and returns the deleted count.
func (ms *mongoStudentStorage) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := ms.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, errors.Wrap(err, "deleting student")
	}
	return res.DeletedCount, nil
}

// DeleteMany removes every student matching the filter.
func (ms *mongoStudentStorage) DeleteMany(ctx context.Context, filter StudentFilter) (int64, error) {
	res, err := ms.coll.DeleteMany(ctx, filter.BSON())
	if err != nil {
		return 0, errors.Wrap(err, "deleting students")
	}
	return res.DeletedCount, nil
}

// DeleteAll removes every student record from the collection.
func (ms *mongoStudentStorage) DeleteAll(ctx context.Context) (int64, error) {
	res, err := ms.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, errors.Wrap(err, "deleting all students")
	}
	return res.DeletedCount, nil
}

// Count returns the number of student records.
func (ms *mongoStudentStorage) Count(ctx context.Context) (int64, error) {
	n, err := ms.coll.CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "counting students")
}
