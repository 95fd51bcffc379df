package service

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the referenced dream, user or conversation does not exist
	// or is not visible to the caller.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidOperation indicates a precondition failed before any write, such as following oneself.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrForbidden indicates the actor does not own the record.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrUsernameTaken indicates another account already uses the username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidUsername indicates the username does not match the allowed pattern.
	ErrInvalidUsername = errors.New("username must be 3-16 characters of a-z, 0-9 or _")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrChatUnavailable is returned when a direct chat could not be resolved or created.
	ErrChatUnavailable = errors.New("chat could not be started")
	// ErrAIQuotaExceeded indicates the caller already holds the maximum number of interpretations for a dream.
	ErrAIQuotaExceeded = errors.New("interpretation limit reached for this dream")
)

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
