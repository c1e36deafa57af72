package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Sentinel errors shared by the PostgreSQL and MongoDB implementations.
var (
	ErrNotFound       = errors.New("record not found")
	ErrInvalidID      = errors.New("invalid identifier")
	ErrDuplicateEmail = errors.New("email already registered")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
