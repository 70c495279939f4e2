package domain

import (
	"fmt"
	"strings"
)

// DuplicateIDError reports a submission whose external identifier already
// names a stored entity with conflicting identity-bearing content. It is a
// client error: no write occurs and no notification fires.
type DuplicateIDError struct {
	EntityType string
	ExternalID string
	Conflict   string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate external identifier %q for %s: %s", e.ExternalID, e.EntityType, e.Conflict)
}

// AmbiguousMatchError reports that two or more stored entities satisfy the
// match predicate for one incoming record. The enclosing transaction is
// rolled back in full and the ambiguity is reported to the notifier;
// ambiguity is never auto-resolved.
type AmbiguousMatchError struct {
	EntityType string
	Operation  string
	Candidates []string
	// Incoming carries the submitted record for the notification payload.
	Incoming any
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous match for %s during %s: %d candidates (%s)",
		e.EntityType, e.Operation, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// MissingReferenceError reports an incoming record that references another
// entity purely by external identifier when no such entity is stored.
type MissingReferenceError struct {
	EntityType string
	Reference  string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("referenced %s %q does not exist", e.EntityType, e.Reference)
}

// ValidationError reports a record that fails structural validation before
// any matching is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record: %s: %s", e.Field, e.Reason)
}
