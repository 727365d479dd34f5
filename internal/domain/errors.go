package domain

import "errors"

var (
	// ErrInvalidRequest marks a weather request missing its location or carrying a bad date.
	ErrInvalidRequest = errors.New("invalid weather request")

	// ErrLocationUnresolved is returned when coordinates cannot be turned into a place name.
	ErrLocationUnresolved = errors.New("location could not be resolved")

	// ErrEmptyPayload rejects source messages with no body to normalize.
	ErrEmptyPayload = errors.New("empty forecast payload")
)
