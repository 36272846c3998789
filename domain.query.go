package main

import (
	"go.mongodb.org/mongo-driver/bson"
)

// This file holds the typed query layer. Handlers never forward raw client
// json to the database: every reachable predicate is one of the fields below,
// mapped to a fixed set of operators ($in, $gte, $lte, $exists, $or). Each
// filter carries two renderings, the bson document sent to mongo and the
// in-memory match used by the bolt backend and the tests.

// IntRange is an inclusive numeric range. A nil bound is open.
type IntRange struct {
	Min *int
	Max *int
}

// IsZero reports whether both bounds are open.
func (r IntRange) IsZero() bool {
	return r.Min == nil && r.Max == nil
}

// BSON renders the range as a comparison document, or nil when open.
func (r IntRange) BSON() bson.M {
	if r.IsZero() {
		return nil
	}
	m := bson.M{}
	if r.Min != nil {
		m["$gte"] = *r.Min
	}
	if r.Max != nil {
		m["$lte"] = *r.Max
	}
	return m
}

// Contains reports whether n falls within the inclusive bounds.
func (r IntRange) Contains(n int) bool {
	if r.Min != nil && n < *r.Min {
		return false
	}
	if r.Max != nil && n > *r.Max {
		return false
	}
	return true
}

// StudentFilter is the closed set of predicates reachable from the student
// read, bulk update and bulk delete endpoints.
type StudentFilter struct {
	Course   string          // equality; ignored when Courses is set
	Courses  []string        // set membership on course
	Status   string          // equality
	Age      IntRange        // inclusive range
	HasEmail *bool           // field existence
	Any      []StudentFilter // disjunction of sub-filters
}

// IsZero reports whether the filter matches everything.
func (f StudentFilter) IsZero() bool {
	return f.Course == "" && len(f.Courses) == 0 && f.Status == "" &&
		f.Age.IsZero() && f.HasEmail == nil && len(f.Any) == 0
}

// BSON renders the filter as a mongo query document.
func (f StudentFilter) BSON() bson.M {
	q := bson.M{}
	if len(f.Courses) > 0 {
		q["course"] = bson.M{"$in": f.Courses}
	} else if f.Course != "" {
		q["course"] = f.Course
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if rng := f.Age.BSON(); rng != nil {
		q["age"] = rng
	}
	if f.HasEmail != nil {
		q["email"] = bson.M{"$exists": *f.HasEmail}
	}
	if len(f.Any) > 0 {
		branches := make([]bson.M, 0, len(f.Any))
		for _, branch := range f.Any {
			branches = append(branches, branch.BSON())
		}
		q["$or"] = branches
	}
	return q
}

// Matches evaluates the filter against a student in memory. Optional fields
// are stored with omitempty, so an absent email round-trips as an empty
// string and the existence check relies on that.
func (f StudentFilter) Matches(s Student) bool {
	if len(f.Courses) > 0 {
		found := false
		for _, c := range f.Courses {
			if s.Course == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	} else if f.Course != "" && s.Course != f.Course {
		return false
	}

	if f.Status != "" && s.Status != f.Status {
		return false
	}

	if !f.Age.Contains(s.Age) {
		return false
	}

	if f.HasEmail != nil && (len(s.Email) > 0) != *f.HasEmail {
		return false
	}

	if len(f.Any) > 0 {
		matched := false
		for _, branch := range f.Any {
			if branch.Matches(s) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// StudentCondition is the wire form of a student filter, accepted in the
// bodies of the bulk update and conditional delete endpoints.
type StudentCondition struct {
	Course   string   `json:"course,omitempty"`
	Courses  []string `json:"courses,omitempty"`
	Status   string   `json:"status,omitempty"`
	MinAge   *int     `json:"minAge,omitempty"`
	MaxAge   *int     `json:"maxAge,omitempty"`
	HasEmail *bool    `json:"hasEmail,omitempty"`
}

// IsZero reports whether no predicate was supplied.
func (c StudentCondition) IsZero() bool {
	return c.Course == "" && len(c.Courses) == 0 && c.Status == "" &&
		c.MinAge == nil && c.MaxAge == nil && c.HasEmail == nil
}

// Filter converts the wire condition into a typed filter.
func (c StudentCondition) Filter() StudentFilter {
	return StudentFilter{
		Course:   c.Course,
		Courses:  c.Courses,
		Status:   c.Status,
		Age:      IntRange{Min: c.MinAge, Max: c.MaxAge},
		HasEmail: c.HasEmail,
	}
}

// Canned query types served by the operator demonstration endpoint.
const (
	QueryTypeAnd    = "and"
	QueryTypeOr     = "or"
	QueryTypeExists = "exists"
)

// ComplexStudentFilter returns the canned filter for a demo query type:
// `and` conjoins a status equality with an age lower bound, `or` matches
// either a course or young students, `exists` selects students with an
// email on file.
func ComplexStudentFilter(queryType string) (StudentFilter, error) {
	adult, young, hasEmail := 18, 21, true
	switch queryType {
	case QueryTypeAnd:
		return StudentFilter{Status: StatusEnrolled, Age: IntRange{Min: &adult}}, nil
	case QueryTypeOr:
		return StudentFilter{Any: []StudentFilter{
			{Course: "Mathematics"},
			{Age: IntRange{Max: &young}},
		}}, nil
	case QueryTypeExists:
		return StudentFilter{HasEmail: &hasEmail}, nil
	default:
		return StudentFilter{}, ErrUnknownQueryType
	}
}

// StudentPatch is the closed set of student fields a client may update.
// Nil fields are left untouched; updates are always rendered as a $set.
type StudentPatch struct {
	Name   *string `json:"name,omitempty"`
	Age    *int    `json:"age,omitempty"`
	Course *string `json:"course,omitempty"`
	Status *string `json:"status,omitempty"`
	Email  *string `json:"email,omitempty"`
	Phone  *string `json:"phone,omitempty"`
}

// IsZero reports whether the patch carries no field.
func (p StudentPatch) IsZero() bool {
	return p.Name == nil && p.Age == nil && p.Course == nil &&
		p.Status == nil && p.Email == nil && p.Phone == nil
}

// SetBSON renders the patch as a $set update document.
func (p StudentPatch) SetBSON() bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Age != nil {
		set["age"] = *p.Age
	}
	if p.Course != nil {
		set["course"] = *p.Course
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	return bson.M{"$set": set}
}

// Apply mutates a student in memory, mirroring SetBSON.
func (p StudentPatch) Apply(s *Student) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Age != nil {
		s.Age = *p.Age
	}
	if p.Course != nil {
		s.Course = *p.Course
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.Phone != nil {
		s.Phone = *p.Phone
	}
}

// BookFilter is the closed set of predicates reachable from the book
// listing endpoints.
type BookFilter struct {
	Category  string
	Available *bool
}

// BSON renders the filter as a mongo query document.
func (f BookFilter) BSON() bson.M {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Available != nil {
		q["available"] = *f.Available
	}
	return q
}

// Matches evaluates the filter against a book in memory.
func (f BookFilter) Matches(b Book) bool {
	if f.Category != "" && b.Category != f.Category {
		return false
	}
	if f.Available != nil && b.Available != *f.Available {
		return false
	}
	return true
}
