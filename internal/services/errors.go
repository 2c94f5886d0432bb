package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidToken  = errors.New("invalid token")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")

	ErrProjectNotFound    = fmt.Errorf("project %w", ErrNotFound)
	ErrTaskNotFound       = fmt.Errorf("task %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrMemberNotFound     = fmt.Errorf("member %w", ErrNotFound)
	ErrEmailTaken         = fmt.Errorf("user %w", ErrAlreadyExists)
	ErrLastAdmin          = fmt.Errorf("project must keep at least one admin: %w", ErrForbidden)
	ErrInvalidCredentials = errors.New("invalid email or password")
)

func invalidInput(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInvalidInput)
}
