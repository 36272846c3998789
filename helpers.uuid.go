package main

import (
	"strings"

	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	_ UIDHandler   = (*IDsHandler)(nil)      // ensure IDsHandler implements UIDHandler.
	_ DocIDHandler = (*ObjectIDHandler)(nil) // ensure ObjectIDHandler implements DocIDHandler.
)

// UIDHandler is an interface for getting a uid.
type UIDHandler interface {
	Generate(prefix string) string
	IsValid(prefix string, id string) bool
}

// IDsHandler implements the UIDHandler interface.
type IDsHandler struct{}

// NewIDsHandler returns a ready to use IDsHandler.
func NewIDsHandler() *IDsHandler {
	return &IDsHandler{}
}

// Generate provides a random unique identifier.
func (idh *IDsHandler) Generate(prefix string) string {
	id, _ := uuid.NewV4()
	return prefix + ":" + id.String()
}

// IsValid checks if a given string is a valid uuid after removal of custom prefix.
func (idh *IDsHandler) IsValid(id, prefix string) bool {
	if u := uuid.FromStringOrNil(strings.TrimPrefix(id, prefix+":")); u != uuid.Nil {
		return true
	}
	return false
}

// DocIDHandler is an interface for minting and parsing document identities.
// Documents carry mongo object ids whatever backend stores them, so both
// repositories produce the same identity shape.
type DocIDHandler interface {
	New() primitive.ObjectID
	Parse(hex string) (primitive.ObjectID, error)
}

// ObjectIDHandler implements the DocIDHandler interface.
type ObjectIDHandler struct{}

// NewObjectIDHandler returns a ready to use ObjectIDHandler.
func NewObjectIDHandler() *ObjectIDHandler {
	return &ObjectIDHandler{}
}

// New provides a fresh document object id.
func (oih *ObjectIDHandler) New() primitive.ObjectID {
	return primitive.NewObjectID()
}

// Parse converts an hex string received from a client into an object id.
func (oih *ObjectIDHandler) Parse(hex string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(hex)
}
