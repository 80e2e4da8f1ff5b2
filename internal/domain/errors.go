// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates caller-supplied data failed validation at a boundary.
var ErrValidation = errors.New("validation failed")

// ErrLimitReached indicates a configured capacity limit was hit.
var ErrLimitReached = errors.New("limit reached")
