package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned on duplicate favorite/cart/follow
	// creation, whether detected by the pre-check or by the database
	// uniqueness constraint under a concurrent race.
	ErrAlreadyExists = errors.New("already exists")
	// ErrSelfFollow is returned on an attempt to follow oneself.
	ErrSelfFollow = errors.New("cannot subscribe to yourself")
	// ErrEmptyCart is returned when a shopping list is requested with
	// nothing in the cart.
	ErrEmptyCart = errors.New("shopping cart is empty")
	// ErrNotAllowed is returned when the requester is neither the author
	// nor an admin.
	ErrNotAllowed = errors.New("not allowed")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries field-scoped messages; the whole request fails
// atomically when any field is invalid.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msgs := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, "; ")))
	}
	return strings.Join(parts, ", ")
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// isUniqueViolation reports whether err is a uniqueness-constraint failure.
// Postgres surfaces these as pq error 23505, sqlite (tests) as a UNIQUE
// constraint message, and gorm may translate either.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
