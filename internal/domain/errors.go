// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a state-transition or concurrent-modification conflict.
var ErrConflict = errors.New("conflict: resource is not in the expected state")

// ErrValidation indicates the request failed a domain validation rule.
var ErrValidation = errors.New("validation failed")
