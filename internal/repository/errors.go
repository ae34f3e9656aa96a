package repository

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	ErrDatabase = errors.New("database error")
)
