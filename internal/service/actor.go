package service

import (
	"strings"

	"github.com/artisans-echo/artwork-service/internal/access"
	"github.com/artisans-echo/artwork-service/internal/apperr"
	"github.com/artisans-echo/artwork-service/internal/validation"
)

// resolveActor returns the user a request acts for: the email named in the
// payload, or the caller when none is named. A caller may only act for
// themselves.
func resolveActor(guard *access.Guard, identity, email, field string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		email = identity
	}
	if email == "" {
		return "", apperr.Validation(field + " is required")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return "", apperr.Validation(field + " must be a valid email address")
	}
	if err := guard.CheckSelf(identity, email); err != nil {
		return "", err
	}
	return email, nil
}
