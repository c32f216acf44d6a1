package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid_configuration")
	ErrPersistence          = errors.New("persistence_failed")
	ErrInvalidTransition    = errors.New("invalid_status_transition")
	ErrNotFound             = errors.New("not_found")
	ErrSettlementLocked     = errors.New("settlement_locked")
	ErrInvalidID            = errors.New("invalid_id")
)

// ConfigurationError rejects a run before any computation.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrInvalidConfiguration }
func (e *ConfigurationError) Unwrap() error        { return e.Err }

// PersistenceError means the atomic write was rolled back.
type PersistenceError struct {
	PartyType string
	PartyID   string
	Err       error
}

func (e *PersistenceError) Error() string {
	if e.PartyID != "" {
		return fmt.Sprintf("persist settlements for %s:%s: %v", e.PartyType, e.PartyID, e.Err)
	}
	return fmt.Sprintf("persist settlements: %v", e.Err)
}

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
func (e *PersistenceError) Unwrap() error        { return e.Err }

// TransitionError reports an illegal status change for one record.
type TransitionError struct {
	ID   string
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("settlement %s: cannot transition from %s to %s", e.ID, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// LookupError reports a missing settlement or organization.
type LookupError struct {
	Kind string
	ID   string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *LookupError) Is(target error) bool { return target == ErrNotFound }

// RecordError is one failed record inside a batch result.
type RecordError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

func NewRecordError(id string, err error) RecordError {
	return RecordError{ID: id, Error: err.Error()}
}
