package service

import (
	"context"
	"regexp"

	"registrar/internal/voter/models"
	dErrors "registrar/pkg/domain-errors"
)

// Workflow failure messages. Callers match on these verbatim.
const (
	MsgInvalidID         = "Invalid id"
	MsgVoterNotFound     = "Voter not found"
	MsgEmailNotFound     = "Email not found"
	MsgEmailRegistered   = "Email already registered"
	MsgInvalidEmail      = "Invalid email"
	MsgInvalidName       = "Invalid name"
	MsgNameTooShort      = "Invalid name. Min. 5 letters"
	MsgNeedLastName      = "Need a last name"
	MsgPasswordsMismatch = "Passwords doesn't match"
	MsgPasswordMismatch  = "Password doesn't match"
	MsgVoterDeleted      = "Voter deleted"
)

const minNameLength = 5

// namePattern requires at least two letter-only words.
var namePattern = regexp.MustCompile(`^(?i:[a-z]+ [a-z ]+)$`)

// validateInput applies the field rules in order and reports the first
// failure. The duplicate email check only runs on create.
func (s *Service) validateInput(ctx context.Context, in models.VoterInput, isUpdate bool) error {
	if isBlank(in.Email) {
		return invalid(MsgInvalidEmail)
	}
	if !isUpdate {
		existing, err := s.findByEmail(ctx, in.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return invalid(MsgEmailRegistered)
		}
	}

	if isBlank(in.Name) {
		return invalid(MsgInvalidName)
	}
	if len([]rune(in.Name)) < minNameLength {
		return invalid(MsgNameTooShort)
	}
	if !namePattern.MatchString(in.Name) {
		return invalid(MsgNeedLastName)
	}

	if !isBlank(in.Password) {
		if in.Password != in.PasswordConfirm {
			return invalid(MsgPasswordsMismatch)
		}
	} else if !isUpdate {
		return invalid(MsgPasswordMismatch)
	}
	return nil
}

// validatePassword guards the create path before hashing.
func validatePassword(password, confirm string) error {
	if isBlank(password) || isBlank(confirm) || password != confirm {
		return invalid(MsgPasswordMismatch)
	}
	return nil
}

func invalid(msg string) error {
	return dErrors.New(dErrors.CodeValidation, msg)
}
