package main

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StudentStorage defines possible operations on student records.
// Bulk operations report how many documents they touched; touching
// zero documents is a valid outcome, not an error.
type StudentStorage interface {
	Insert(ctx context.Context, student Student) (Student, error)
	InsertMany(ctx context.Context, students []Student) ([]Student, error)
	Find(ctx context.Context, filter StudentFilter) ([]Student, error)
	GetOne(ctx context.Context, id primitive.ObjectID) (Student, error)
	Update(ctx context.Context, id primitive.ObjectID, patch StudentPatch) (Student, error)
	UpdateMany(ctx context.Context, filter StudentFilter, patch StudentPatch) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	DeleteMany(ctx context.Context, filter StudentFilter) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// BookStorage defines possible operations on book records. Borrow is a
// single conditional update: it flips an available book to borrowed or
// reports ErrBookNotAvailable, so two concurrent borrowers cannot both win.
type BookStorage interface {
	Insert(ctx context.Context, book Book) (Book, error)
	Find(ctx context.Context, filter BookFilter) ([]Book, error)
	GetOne(ctx context.Context, id primitive.ObjectID) (Book, error)
	GetDetail(ctx context.Context, id primitive.ObjectID) (BookDetail, error)
	Borrow(ctx context.Context, id, studentID primitive.ObjectID, at, due time.Time) (Book, error)
	Return(ctx context.Context, id primitive.ObjectID) (Book, error)
	Count(ctx context.Context) (int64, error)
	CountAvailable(ctx context.Context) (int64, error)
}
