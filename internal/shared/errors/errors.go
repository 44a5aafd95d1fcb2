package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrUnauthorizedChat = errors.New("chat is not authorized")
	ErrQuotaExceeded    = errors.New("instance quota exceeded")
	ErrNothingToDelete  = errors.New("no instances to delete")
	ErrSessionData      = errors.New("session data missing")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// ProvisionError represents a non-success response from the provisioning API.
// The raw response body is kept for logging and never shown to the user.
type ProvisionError struct {
	Operation  string // e.g., "create", "list", "delete"
	StatusCode int
	Body       string
	Err        error
}

func (e *ProvisionError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("provisioning %s failed with status %d: %s", e.Operation, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("provisioning %s failed with status %d: %v", e.Operation, e.StatusCode, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// NewProvisionError creates a new provision error
func NewProvisionError(operation string, statusCode int, body string, err error) *ProvisionError {
	return &ProvisionError{
		Operation:  operation,
		StatusCode: statusCode,
		Body:       body,
		Err:        err,
	}
}

// SessionError represents an inconsistency in per-chat dialog state, such as a
// confirmation arriving without the data an earlier step should have stored.
type SessionError struct {
	ChatID  int64
	State   string
	Missing string
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session inconsistency (chat=%d, state=%s): missing %q", e.ChatID, e.State, e.Missing)
}

func (e *SessionError) Unwrap() error {
	return ErrSessionData
}

// NewSessionError creates a new session error
func NewSessionError(chatID int64, state, missing string) *SessionError {
	return &SessionError{
		ChatID:  chatID,
		State:   state,
		Missing: missing,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := "config error"
	if e.Field != "" {
		msg = fmt.Sprintf("config error [%s]", e.Field)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidConfig
}

// NewConfigError creates a new config error
func NewConfigError(field, message string, err error) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
