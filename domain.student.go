package main

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student statuses. A student is enrolled at creation time and moves
// to completed or dropped through the update endpoints.
const (
	StatusEnrolled  = "enrolled"
	StatusCompleted = "completed"
	StatusDropped   = "dropped"
)

// Student represents a student record.
type Student struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Age            int                `bson:"age" json:"age"`
	Course         string             `bson:"course" json:"course"`
	Status         string             `bson:"status" json:"status"`
	EnrollmentDate time.Time          `bson:"enrollment_date" json:"enrollmentDate"`
	Email          string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone          string             `bson:"phone,omitempty" json:"phone,omitempty"`
}

// ValidateNewStudent checks the content of a student creation request.
func ValidateNewStudent(s *Student) error {
	if len(s.Name) == 0 {
		return missingFieldError("name")
	}

	if s.Age <= 0 {
		return missingFieldError("age")
	}

	if len(s.Course) == 0 {
		return missingFieldError("course")
	}

	return nil
}

// SampleStudents returns the built-in data set served by the sample
// insertion endpoint. Useful to play with the query endpoints.
func SampleStudents() []Student {
	return []Student{
		{Name: "Alice Johnson", Age: 20, Course: "Mathematics", Email: "alice@example.com"},
		{Name: "Brian Okafor", Age: 23, Course: "Physics", Phone: "555-0101"},
		{Name: "Chen Wei", Age: 26, Course: "Computer Science", Email: "chen@example.com"},
		{Name: "Dina Farouk", Age: 22, Course: "Computer Science"},
		{Name: "Emeka Obi", Age: 29, Course: "History", Email: "emeka@example.com", Phone: "555-0102"},
	}
}
