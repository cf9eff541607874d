package domain

import "errors"

// common domain errors that cross entity boundaries.
// the api layer maps these to http status codes.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidInput  = errors.New("invalid input")
)
