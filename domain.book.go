package main

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Book represents a library book record. BorrowedBy points to the
// borrowing student's id and is nil while the book sits on the shelf.
type Book struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title      string              `bson:"title" json:"title"`
	Author     string              `bson:"author" json:"author"`
	ISBN       string              `bson:"isbn,omitempty" json:"isbn,omitempty"`
	Category   string              `bson:"category,omitempty" json:"category,omitempty"`
	Available  bool                `bson:"available" json:"available"`
	BorrowedBy *primitive.ObjectID `bson:"borrowed_by,omitempty" json:"borrowedBy,omitempty"`
	BorrowDate *time.Time          `bson:"borrow_date,omitempty" json:"borrowDate,omitempty"`
	DueDate    *time.Time          `bson:"due_date,omitempty" json:"dueDate,omitempty"`
}

// BookDetail is a book with its borrower reference resolved at read time.
// Borrower stays nil for available books and for dangling references
// (deleting a student does not clean up the books pointing at it).
type BookDetail struct {
	Book     `bson:",inline"`
	Borrower *Student `bson:"borrower,omitempty" json:"borrower,omitempty"`
}

// BorrowRequest is the payload of a borrow call.
type BorrowRequest struct {
	BookID    string `json:"bookId"`
	StudentID string `json:"studentId"`
}

// ReturnRequest is the payload of a return call.
type ReturnRequest struct {
	BookID string `json:"bookId"`
}

// ValidateNewBook checks the content of a book creation request.
func ValidateNewBook(b *Book) error {
	if len(b.Title) == 0 {
		return missingFieldError("title")
	}

	if len(b.Author) == 0 {
		return missingFieldError("author")
	}

	return nil
}
