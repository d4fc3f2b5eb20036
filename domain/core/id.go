package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// PostID is the source's base36 submission identifier (e.g. "fui7gp").
	PostID ID
	// RunID identifies one pipeline execution.
	RunID ID
)

func (id PostID) String() string { return ID(id).String() }
func (id RunID) String() string  { return ID(id).String() }

// NewRunID returns a time-ordered run identifier
func NewRunID() RunID {
	return RunID(NewID())
}

// ParsePostID parses a string into PostID
func ParsePostID(s string) (PostID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("post ID cannot be empty")
	}
	return PostID(s), nil
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}
