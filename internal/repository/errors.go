package repository

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrInUse is returned when deleting a row other rows still point at.
	ErrInUse = errors.New("record in use")
)
