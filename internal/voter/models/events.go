package models

import (
	"time"

	id "registrar/pkg/domain"
)

// EventType names a voter lifecycle transition.
type EventType string

const (
	EventVoterCreated EventType = "voter_created"
	EventVoterUpdated EventType = "voter_updated"
	EventVoterDeleted EventType = "voter_deleted"
)

// VoterEvent is emitted after a successful lifecycle change.
type VoterEvent struct {
	Type       EventType  `json:"event"`
	VoterID    id.VoterID `json:"voter_id"`
	Email      string     `json:"email"`
	RequestID  string     `json:"request_id,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
