// Package store persists voter records. Every implementation returns
// sentinel.ErrNotFound for missing records and sentinel.ErrConflict when an
// email is already held by another voter.
package store

import (
	"registrar/pkg/platform/sentinel"
)

var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
)
