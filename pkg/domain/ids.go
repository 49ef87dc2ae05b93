// Package domain holds typed identifiers shared across voter packages.
package domain

import (
	"strconv"
	"strings"

	dErrors "registrar/pkg/domain-errors"
)

// VoterID identifies a voter record. Stores assign it on first save; the
// zero value means "not assigned" and is never a valid lookup key.
type VoterID int64

// ParseVoterID parses a decimal path or query value into a VoterID.
func ParseVoterID(s string) (VoterID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "voter id is required")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInvalidInput, "voter id must be numeric")
	}
	if n <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "voter id must be positive")
	}
	return VoterID(n), nil
}

// IsNil reports whether the id is unassigned.
func (v VoterID) IsNil() bool {
	return v <= 0
}

func (v VoterID) Int64() int64 {
	return int64(v)
}

func (v VoterID) String() string {
	return strconv.FormatInt(int64(v), 10)
}
