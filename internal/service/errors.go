package service

import (
	"errors"

	"invoicing/internal/billing"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("already exists")
)

func inputError(field, reason string) error {
	return &billing.InputError{Field: field, Reason: reason}
}
