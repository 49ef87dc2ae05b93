package models

import (
	id "registrar/pkg/domain"
)

// Voter is the persisted registration record.
//
// Invariants:
//   - ID is assigned by the store on first save and never changes
//   - Email is unique across all voters (exact string match)
//   - PasswordHash is a one-way digest and is never serialized
type Voter struct {
	ID           id.VoterID `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
}

// VoterInput is the request shape for create and update. Password fields
// are required on create and optional on update.
type VoterInput struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// VoterOutput is the externally visible voter.
type VoterOutput struct {
	ID    id.VoterID `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
}

// GenericOutput carries a confirmation message.
type GenericOutput struct {
	Message string `json:"message"`
}

// FromInput builds an unsaved record from input. The password hash is
// filled in by the caller after validation.
func FromInput(in VoterInput) *Voter {
	return &Voter{
		Email: in.Email,
		Name:  in.Name,
	}
}

// ToOutput strips sensitive fields from a record.
func ToOutput(v *Voter) VoterOutput {
	return VoterOutput{
		ID:    v.ID,
		Email: v.Email,
		Name:  v.Name,
	}
}

// ToOutputs converts records in order.
func ToOutputs(voters []*Voter) []VoterOutput {
	out := make([]VoterOutput, 0, len(voters))
	for _, v := range voters {
		out = append(out, ToOutput(v))
	}
	return out
}
