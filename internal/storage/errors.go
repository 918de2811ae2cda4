package storage

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrLogClosed       = errors.New("log already closed")
	ErrVersionConflict = errors.New("version conflict")
)
