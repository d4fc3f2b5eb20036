package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound     = errors.New("resource not found")
	ErrPostNotFound = fmt.Errorf("%w: post", ErrNotFound)

	// Cache contract
	ErrCacheMiss     = errors.New("responses not cached")
	ErrAlreadyCached = errors.New("responses already cached")

	ErrInvalidDateRange = errors.New("invalid date range")
)

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewDateRangeError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidDateRange, reason)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
