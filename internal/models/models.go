// Package models contains CoachDesk's persistence layer: package-level
// functions issuing raw SQL against a *sql.DB. No ORM, no query builder.
package models

import "errors"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput is returned when caller-supplied values fail validation
// before any query is issued.
var ErrInvalidInput = errors.New("invalid input")
