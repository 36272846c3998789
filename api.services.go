package main

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// StudentServiceProvider describes the student record operations
// exposed to the handlers.
type StudentServiceProvider interface {
	Create(ctx context.Context, student Student) (Student, error)
	CreateMany(ctx context.Context, students []Student) ([]Student, error)
	CreateSample(ctx context.Context) ([]Student, error)
	Find(ctx context.Context, filter StudentFilter) ([]Student, error)
	Update(ctx context.Context, id primitive.ObjectID, patch StudentPatch) (Student, error)
	Complete(ctx context.Context, id primitive.ObjectID) (Student, error)
	UpdateMany(ctx context.Context, filter StudentFilter, patch StudentPatch) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	DeleteMany(ctx context.Context, filter StudentFilter) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type StudentService struct {
	logger  *zap.Logger
	config  *Config
	clock   Clocker
	docIDs  DocIDHandler
	storage StudentStorage
}

func NewStudentService(logger *zap.Logger, config *Config, clock Clocker, docIDs DocIDHandler, storage StudentStorage) StudentServiceProvider {
	return &StudentService{
		logger:  logger,
		config:  config,
		clock:   clock,
		docIDs:  docIDs,
		storage: storage,
	}
}

// prepare stamps the generated identity and the creation defaults on a
// new student record.
func (ss *StudentService) prepare(student Student) Student {
	student.ID = ss.docIDs.New()
	if len(student.Status) == 0 {
		student.Status = StatusEnrolled
	}
	if student.EnrollmentDate.IsZero() {
		student.EnrollmentDate = ss.clock.Now().UTC()
	}
	return student
}

func (ss *StudentService) Create(ctx context.Context, student Student) (Student, error) {
	return ss.storage.Insert(ctx, ss.prepare(student))
}

func (ss *StudentService) CreateMany(ctx context.Context, students []Student) ([]Student, error) {
	prepared := make([]Student, 0, len(students))
	for _, student := range students {
		prepared = append(prepared, ss.prepare(student))
	}
	return ss.storage.InsertMany(ctx, prepared)
}

func (ss *StudentService) CreateSample(ctx context.Context) ([]Student, error) {
	return ss.CreateMany(ctx, SampleStudents())
}

func (ss *StudentService) Find(ctx context.Context, filter StudentFilter) ([]Student, error) {
	return ss.storage.Find(ctx, filter)
}

func (ss *StudentService) Update(ctx context.Context, id primitive.ObjectID, patch StudentPatch) (Student, error) {
	return ss.storage.Update(ctx, id, patch)
}

// Complete is the status shortcut moving one student to completed.
func (ss *StudentService) Complete(ctx context.Context, id primitive.ObjectID) (Student, error) {
	completed := StatusCompleted
	return ss.storage.Update(ctx, id, StudentPatch{Status: &completed})
}

func (ss *StudentService) UpdateMany(ctx context.Context, filter StudentFilter, patch StudentPatch) (int64, error) {
	return ss.storage.UpdateMany(ctx, filter, patch)
}

func (ss *StudentService) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return ss.storage.Delete(ctx, id)
}

func (ss *StudentService) DeleteMany(ctx context.Context, filter StudentFilter) (int64, error) {
	return ss.storage.DeleteMany(ctx, filter)
}

func (ss *StudentService) DeleteAll(ctx context.Context) (int64, error) {
	ss.logger.Warn("service: deleting all student records")
	return ss.storage.DeleteAll(ctx)
}

func (ss *StudentService) Count(ctx context.Context) (int64, error) {
	return ss.storage.Count(ctx)
}

// LibraryStats carries the per-collection counts of the library.
type LibraryStats struct {
	Books     int64 `json:"books"`
	Available int64 `json:"available"`
	Borrowed  int64 `json:"borrowed"`
}

// LibraryServiceProvider describes the book and borrow/return operations
// exposed to the handlers.
type LibraryServiceProvider interface {
	AddBook(ctx context.Context, book Book) (Book, error)
	Books(ctx context.Context, filter BookFilter) ([]Book, error)
	BookDetail(ctx context.Context, id primitive.ObjectID) (BookDetail, error)
	Borrow(ctx context.Context, bookID, studentID primitive.ObjectID) (Book, error)
	Return(ctx context.Context, bookID primitive.ObjectID) (Book, error)
	Stats(ctx context.Context) (LibraryStats, error)
}

type LibraryService struct {
	logger   *zap.Logger
	config   *Config
	clock    Clocker
	docIDs   DocIDHandler
	books    BookStorage
	students StudentStorage
}

func NewLibraryService(logger *zap.Logger, config *Config, clock Clocker, docIDs DocIDHandler, books BookStorage, students StudentStorage) LibraryServiceProvider {
	return &LibraryService{
		logger:   logger,
		config:   config,
		clock:    clock,
		docIDs:   docIDs,
		books:    books,
		students: students,
	}
}

func (ls *LibraryService) AddBook(ctx context.Context, book Book) (Book, error) {
	book.ID = ls.docIDs.New()
	book.Available = true
	book.BorrowedBy = nil
	book.BorrowDate = nil
	book.DueDate = nil
	return ls.books.Insert(ctx, book)
}

func (ls *LibraryService) Books(ctx context.Context, filter BookFilter) ([]Book, error) {
	return ls.books.Find(ctx, filter)
}

func (ls *LibraryService) BookDetail(ctx context.Context, id primitive.ObjectID) (BookDetail, error) {
	return ls.books.GetDetail(ctx, id)
}

// Borrow hands a book to a student. The student must exist, and the
// storage performs the availability check-and-set as one operation.
func (ls *LibraryService) Borrow(ctx context.Context, bookID, studentID primitive.ObjectID) (Book, error) {
	if _, err := ls.students.GetOne(ctx, studentID); err != nil {
		return Book{}, err
	}
	at := ls.clock.Now().UTC()
	due := at.Add(ls.config.Library.LoanPeriod)
	return ls.books.Borrow(ctx, bookID, studentID, at, due)
}

// Return puts a book back on the shelf without checking who returns it.
func (ls *LibraryService) Return(ctx context.Context, bookID primitive.ObjectID) (Book, error) {
	return ls.books.Return(ctx, bookID)
}

func (ls *LibraryService) Stats(ctx context.Context) (LibraryStats, error) {
	total, err := ls.books.Count(ctx)
	if err != nil {
		return LibraryStats{}, err
	}
	available, err := ls.books.CountAvailable(ctx)
	if err != nil {
		return LibraryStats{}, err
	}
	return LibraryStats{Books: total, Available: available, Borrowed: total - available}, nil
}
