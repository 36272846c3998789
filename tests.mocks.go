package main

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// This file contains mocks definitions needed to perform unit tests.

type MockStudentStorage struct {
	InsertFunc     func(ctx context.Context, student Student) (Student, error)
	InsertManyFunc func(ctx context.Context, students []Student) ([]Student, error)
	FindFunc       func(ctx context.Context, filter StudentFilter) ([]Student, error)
	GetOneFunc     func(ctx context.Context, id primitive.ObjectID) (Student, error)
	UpdateFunc     func(ctx context.Context, id primitive.ObjectID, patch StudentPatch) (Student, error)
	UpdateManyFunc func(ctx context.Context, filter StudentFilter, patch StudentPatch) (int64, error)
	DeleteFunc     func(ctx context.Context, id primitive.ObjectID) (int64, error)
	DeleteManyFunc func(ctx context.Context, filter StudentFilter) (int64, error)
	DeleteAllFunc  func(ctx context.Context) (int64, error)
	CountFunc      func(ctx context.Context) (int64, error)
}

// Insert mocks the behavior of student creation by the repository.
func (m *MockStudentStorage) Insert(ctx context.Context, student Student) (Student, error) {
	return m.InsertFunc(ctx, student)
}

// InsertMany mocks the behavior of batch student creation by the repository.
func (m *MockStudentStorage) InsertMany(ctx context.Context, students []Student) ([]Student, error) {
	return m.InsertManyFunc(ctx, students)
}

// Find mocks the behavior of students filtering by the repository.
func (m *MockStudentStorage) Find(ctx context.Context, filter StudentFilter) ([]Student, error) {
	return m.FindFunc(ctx, filter)
}

// GetOne mocks the behavior of retrieving a student by the repository.
func (m *MockStudentStorage) GetOne(ctx context.Context, id primitive.ObjectID) (Student, error) {
	return m.GetOneFunc(ctx, id)
}

// Update mocks the behavior of updating a student by the repository.
func (m *MockStudentStorage) Update(ctx context.Context, id primitive.ObjectID, patch StudentPatch) (Student, error) {
	return m.UpdateFunc(ctx, id, patch)
}

// UpdateMany mocks the behavior of bulk updating students by the repository.
func (m *MockStudentStorage) UpdateMany(ctx context.Context, filter StudentFilter, patch StudentPatch) (int64, error) {
	return m.UpdateManyFunc(ctx, filter, patch)
}

// Delete mocks the behavior of deleting a student by the repository.
func (m *MockStudentStorage) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return m.DeleteFunc(ctx, id)
}

// DeleteMany mocks the behavior of conditional students deletion by the repository.
func (m *MockStudentStorage) DeleteMany(ctx context.Context, filter StudentFilter) (int64, error) {
	return m.DeleteManyFunc(ctx, filter)
}

// DeleteAll mocks the behavior of full students deletion by the repository.
func (m *MockStudentStorage) DeleteAll(ctx context.Context) (int64, error) {
	return m.DeleteAllFunc(ctx)
}

// Count mocks the behavior of counting students by the repository.
func (m *MockStudentStorage) Count(ctx context.Context) (int64, error) {
	return m.CountFunc(ctx)
}

type MockBookStorage struct {
	InsertFunc         func(ctx context.Context, book Book) (Book, error)
	FindFunc           func(ctx context.Context, filter BookFilter) ([]Book, error)
	GetOneFunc         func(ctx context.Context, id primitive.ObjectID) (Book, error)
	GetDetailFunc      func(ctx context.Context, id primitive.ObjectID) (BookDetail, error)
	BorrowFunc         func(ctx context.Context, id, studentID primitive.ObjectID, at, due time.Time) (Book, error)
	ReturnFunc         func(ctx context.Context, id primitive.ObjectID) (Book, error)
	CountFunc          func(ctx context.Context) (int64, error)
	CountAvailableFunc func(ctx context.Context) (int64, error)
}

// Insert mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Insert(ctx context.Context, book Book) (Book, error) {
	return m.InsertFunc(ctx, book)
}

// Find mocks the behavior of books filtering by the repository.
func (m *MockBookStorage) Find(ctx context.Context, filter BookFilter) ([]Book, error) {
	return m.FindFunc(ctx, filter)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id primitive.ObjectID) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

// GetDetail mocks the behavior of retrieving a book with its borrower by the repository.
func (m *MockBookStorage) GetDetail(ctx context.Context, id primitive.ObjectID) (BookDetail, error) {
	return m.GetDetailFunc(ctx, id)
}

// Borrow mocks the behavior of the borrow check-and-set by the repository.
func (m *MockBookStorage) Borrow(ctx context.Context, id, studentID primitive.ObjectID, at, due time.Time) (Book, error) {
	return m.BorrowFunc(ctx, id, studentID, at, due)
}

// Return mocks the behavior of returning a book by the repository.
func (m *MockBookStorage) Return(ctx context.Context, id primitive.ObjectID) (Book, error) {
	return m.ReturnFunc(ctx, id)
}

// Count mocks the behavior of counting books by the repository.
func (m *MockBookStorage) Count(ctx context.Context) (int64, error) {
	return m.CountFunc(ctx)
}

// CountAvailable mocks the behavior of counting available books by the repository.
func (m *MockBookStorage) CountAvailable(ctx context.Context) (int64, error) {
	return m.CountAvailableFunc(ctx)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
// equals to `2023-07-02 00:00:00 +0000 UTC` in String format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// Zero returns zero time.
func (mck *MockClocker) Zero() time.Time {
	return time.Time{}
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}

// MockDocIDHandler implements a fake DocIDHandler with a predictable id.
// Parse stays the real hex parsing so invalid id tests keep working.
type MockDocIDHandler struct {
	MockedID primitive.ObjectID
}

// NewMockDocIDHandler returns a mocked instance minting always the same id.
func NewMockDocIDHandler(hex string) *MockDocIDHandler {
	id, _ := primitive.ObjectIDFromHex(hex)
	return &MockDocIDHandler{MockedID: id}
}

// New provides the configured document id.
func (mdoc *MockDocIDHandler) New() primitive.ObjectID {
	return mdoc.MockedID
}

// Parse converts an hex string into an object id.
func (mdoc *MockDocIDHandler) Parse(hex string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(hex)
}
