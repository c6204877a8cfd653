package model

import "errors"

var (
	// Dataset lifecycle errors
	ErrUnknownDatasetType = errors.New("unknown dataset type")
	ErrSchemaMismatch     = errors.New("schema mismatch")
	ErrIOFailure          = errors.New("io failure")
	ErrValidationFailure  = errors.New("validation failure")
	ErrDataFileNotFound   = errors.New("data file not found")
	ErrBackupNotFound     = errors.New("backup not found")

	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token related errors
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
