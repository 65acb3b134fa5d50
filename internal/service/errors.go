package service

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")

	// ErrCorruptContent means a stored record failed to decode. That is data
	// corruption, fatal for the record and never retryable.
	ErrCorruptContent = errors.New("stored content is corrupt")
)
