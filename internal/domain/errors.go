package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when a record cannot be mapped to relational rows
	ErrValidation = errors.New("validation failed")

	// ErrProductNotFound is returned when a product cannot be found
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrOpenFoodFactsAPIFailure is returned when an Open Food Facts request fails
	ErrOpenFoodFactsAPIFailure = errors.New("Open Food Facts API request failed")

	// ErrInvalidPayload is returned when a raw payload cannot be decoded into a product
	ErrInvalidPayload = errors.New("invalid product payload")
)

// ValidationError describes why a single record was rejected.
type ValidationError struct {
	Code   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("product %s: %s: %s", e.Code, e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) match any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
