package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// The bolt backend keeps one bucket per collection and evaluates the typed
// filters in memory. It backs the embedded/dev setup and the repository
// unit tests, with the same identity shape as the mongo backend.

type boltStudentStorage struct {
	logger *zap.Logger
	client *bolt.DB
}

type boltBookStorage struct {
	logger *zap.Logger
	client *bolt.DB
}

// GetBoltDBClient setup the database and the buckets then provides a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{StudentsCollection, BooksCollection} {
			if _, errB := tx.CreateBucketIfNotExists([]byte(name)); errB != nil {
				return fmt.Errorf("failed to create %s bucket: %v", name, errB)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up buckets: %v", err)
	}
	return db, nil
}

// NewBoltStudentStorage provides an instance of bolt-based student storage.
func NewBoltStudentStorage(logger *zap.Logger, client *bolt.DB) StudentStorage {
	return &boltStudentStorage{
		logger: logger,
		client: client,
	}
}

// NewBoltBookStorage provides an instance of bolt-based book storage.
func NewBoltBookStorage(logger *zap.Logger, client *bolt.DB) BookStorage {
	return &boltBookStorage{
		logger: logger,
		client: client,
	}
}

// Insert stores a new student record into boltdb store.
func (bs *boltStudentStorage) Insert(_ context.Context, student Student) (Student, error) {
	studentBytes, err := json.Marshal(student)
	if err != nil {
		return student, err
	}
	err = bs.client.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(StudentsCollection)).Put([]byte(student.ID.Hex()), studentBytes)
	})
	return student, err
}

// InsertMany stores a batch of student records in one transaction, so a
// failure leaves none of the batch behind.
func (bs *boltStudentStorage) InsertMany(_ context.Context, students []Student) ([]Student, error) {
	err := bs.client.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(StudentsCollection))
		for _, student := range students {
			studentBytes, err := json.Marshal(student)
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(student.ID.Hex()), studentBytes); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return students, nil
}

// Find retrieves all students matching the filter from the bolt database.
func (bs *boltStudentStorage) Find(_ context.Context, filter StudentFilter) ([]Student, error) {
	students := []Student{}
	err := bs.client.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(StudentsCollection)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var student Student
			if err := json.Unmarshal(v, &student); err != nil {
				return err
			}
			if filter.Matches(student) {
				students = append(students, student)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return students, nil
}

// GetOne retrieves a student record based on its id from boltdb store.
func (bs *boltStudentStorage) GetOne(_ context.Context, id primitive.ObjectID) (Student, error) {
	var student Student
	err := bs.client.View(func(tx *bolt.Tx) error {
		result := tx.Bucket([]byte(StudentsCollection)).Get([]byte(id.Hex()))
		if result == nil {
			return ErrStudentNotFound
		}
		return json.Unmarshal(result, &student)
	})
	return student, err
}

// Update applies a partial field set to one student record.
func (bs *boltStudentStorage) Update(_ context.Context, id primitive.ObjectID, patch StudentPatch) (Student, error) {
	var student Student
	err := bs.client.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(StudentsCollection))
		result := bucket.Get([]byte(id.Hex()))
		if result == nil {
			return ErrStudentNotFound
		}
		if err := json.Unmarshal(result, &student); err != nil {
			return err
		}
		patch.Apply(&student)
		studentBytes, err := json.Marshal(student)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(id.Hex()), studentBytes)
	})
	return student, err
}

// UpdateMany applies a patch to every student matching the filter. A record
// the patch leaves untouched is not rewritten nor counted, so the modified
// count means the same thing as the mongo backend's one.
func (bs *boltStudentStorage) UpdateMany(_ context.Context, filter StudentFilter, patch StudentPatch) (int64, error) {
	var modified int64
	err := bs.client.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(StudentsCollection))
		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var student Student
			if err := json.Unmarshal(v, &student); err != nil {
				return err
			}
			if !filter.Matches(student) {
				continue
			}
			before := student
			patch.Apply(&student)
			if student == before {
				continue
			}
			studentBytes, err := json.Marshal(student)
			if err != nil {
				return err
			}
			if err := bucket.Put(k, studentBytes); err != nil {
				return err
			}
			modified++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return modified, nil
}

// Delete removes a student record based on its id from boltdb store.
func (bs *boltStudentStorage) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	var deleted int64
	err := bs.client.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(StudentsCollection))
		if bucket.Get([]byte(id.Hex())) == nil {
			return nil
		}
		deleted = 1
		return bucket.Delete([]byte(id.Hex()))
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// DeleteMany removes every student matching the filter from boltdb store.
func (bs *boltStudentStorage) DeleteMany(_ context.Context, filter StudentFilter) (int64, error) {
	var deleted int64
	err := bs.client.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(StudentsCollection))
		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var student Student
			if err := json.Unmarshal(v, &student); err != nil {
				return err
			}
			if !filter.Matches(student) {
				continue
			}
			if err := c.Delete(); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// DeleteAll removes every student record from boltdb store.
func (bs *boltStudentStorage) DeleteAll(ctx context.Context) (int64, error) {
	return bs.DeleteMany(ctx, StudentFilter{})
}

// Count returns the number of student records in the bolt database.
func (bs *boltStudentStorage) Count(_ context.Context) (int64, error) {
	var n int64
	err := bs.client.View(func(tx *bolt.Tx) error {
		n = int64(tx.Bucket([]byte(StudentsCollection)).Stats().KeyN)
		return nil
	})
	return n, err
}

// Insert stores a new book record into boltdb store.
func (bb *boltBookStorage) Insert(_ context.Context, book Book) (Book, error) {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return book, err
	}
	err = bb.client.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BooksCollection)).Put([]byte(book.ID.Hex()), bookBytes)
	})
	return book, err
}

// Find retrieves all books matching the filter from the bolt database.
func (bb *boltBookStorage) Find(_ context.Context, filter BookFilter) ([]Book, error) {
	books := []Book{}
	err := bb.client.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(BooksCollection)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var book Book
			if err := json.Unmarshal(v, &book); err != nil {
				return err
			}
			if filter.Matches(book) {
				books = append(books, book)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

// GetOne retrieves a book record based on its id from boltdb store.
func (bb *boltBookStorage) GetOne(_ context.Context, id primitive.ObjectID) (Book, error) {
	var book Book
	err := bb.client.View(func(tx *bolt.Tx) error {
		result := tx.Bucket([]byte(BooksCollection)).Get([]byte(id.Hex()))
		if result == nil {
			return ErrBookNotFound
		}
		return json.Unmarshal(result, &book)
	})
	return book, err
}

// GetDetail retrieves a book and resolves its borrower from the students
// bucket. A dangling borrower reference leaves the borrower field empty.
func (bb *boltBookStorage) GetDetail(_ context.Context, id primitive.ObjectID) (BookDetail, error) {
	var detail BookDetail
	err := bb.client.View(func(tx *bolt.Tx) error {
		result := tx.Bucket([]byte(BooksCollection)).Get([]byte(id.Hex()))
		if result == nil {
			return ErrBookNotFound
		}
		if err := json.Unmarshal(result, &detail.Book); err != nil {
			return err
		}
		if detail.BorrowedBy == nil {
			return nil
		}
		borrower := tx.Bucket([]byte(StudentsCollection)).Get([]byte(detail.BorrowedBy.Hex()))
		if borrower == nil {
			return nil
		}
		var student Student
		if err := json.Unmarshal(borrower, &student); err != nil {
			return err
		}
		detail.Borrower = &student
		return nil
	})
	return detail, err
}

// Borrow flips an available book to borrowed. Bolt serializes writing
// transactions, so the check and the write run as one atomic step.
func (bb *boltBookStorage) Borrow(_ context.Context, id, studentID primitive.ObjectID, at, due time.Time) (Book, error) {
	var book Book
	err := bb.client.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(BooksCollection))
		result := bucket.Get([]byte(id.Hex()))
		if result == nil {
			return ErrBookNotFound
		}
		if err := json.Unmarshal(result, &book); err != nil {
			return err
		}
		if !book.Available {
			return ErrBookNotAvailable
		}
		book.Available = false
		book.BorrowedBy = &studentID
		book.BorrowDate = &at
		book.DueDate = &due
		bookBytes, err := json.Marshal(book)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(id.Hex()), bookBytes)
	})
	return book, err
}

// Return marks a book available again and clears the borrow fields.
func (bb *boltBookStorage) Return(_ context.Context, id primitive.ObjectID) (Book, error) {
	var book Book
	err := bb.client.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(BooksCollection))
		result := bucket.Get([]byte(id.Hex()))
		if result == nil {
			return ErrBookNotFound
		}
		if err := json.Unmarshal(result, &book); err != nil {
			return err
		}
		book.Available = true
		book.BorrowedBy = nil
		book.BorrowDate = nil
		book.DueDate = nil
		bookBytes, err := json.Marshal(book)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(id.Hex()), bookBytes)
	})
	return book, err
}

// Count returns the number of book records in the bolt database.
func (bb *boltBookStorage) Count(_ context.Context) (int64, error) {
	var n int64
	err := bb.client.View(func(tx *bolt.Tx) error {
		n = int64(tx.Bucket([]byte(BooksCollection)).Stats().KeyN)
		return nil
	})
	return n, err
}

// CountAvailable returns the number of books currently on the shelf.
func (bb *boltBookStorage) CountAvailable(ctx context.Context) (int64, error) {
	books, err := bb.Find(ctx, BookFilter{Available: boolPtr(true)})
	if err != nil {
		return 0, err
	}
	return int64(len(books)), nil
}

func boolPtr(b bool) *bool { return &b }
