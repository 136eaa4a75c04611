package civ

import (
	"errors"
	"fmt"
)

// ErrConcurrency is returned when a turn is already being resolved for a session.
var ErrConcurrency = errors.New("turn resolution already in progress")

// ConfigurationError reports that a map or start layout cannot satisfy its
// structural requirements.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// InvalidResearchRequest reports a research rule violation. No state is
// mutated when it is returned.
type InvalidResearchRequest struct {
	TechID string
	Reason string
}

func (e *InvalidResearchRequest) Error() string {
	return fmt.Sprintf("invalid research %q: %s", e.TechID, e.Reason)
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ActionError reports a rejected unit, city or AI action.
type ActionError struct {
	Action string
	Reason string
}

func (e *ActionError) Error() string {
	return e.Action + ": " + e.Reason
}

// PartialApplicationWarning records a per-entity failure that was isolated
// and skipped so the rest of a bulk step could complete.
type PartialApplicationWarning struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func warn(subject string, err error) PartialApplicationWarning {
	return PartialApplicationWarning{Subject: subject, Message: err.Error()}
}

// IsNotFound reports whether err wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
