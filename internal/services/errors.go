package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInputMissing marks a missing upstream artifact (scanned library,
	// catalog snapshot). Fatal for the run.
	ErrInputMissing = errors.New("input missing")
	// ErrMalformedEntry marks a catalog or library entry missing required
	// fields. Skipped, never fatal.
	ErrMalformedEntry = errors.New("malformed entry")
	// ErrCollaborator marks an external search or scrape failure. Treated
	// as "no result from this stage".
	ErrCollaborator = errors.New("collaborator failure")
	// ErrPersistence marks cache load/save problems. Load failures degrade
	// to an empty cache; save failures are fatal.
	ErrPersistence = errors.New("persistence failure")
)

// Wrap builds an error message that includes component context while
// tagging it with the provided marker for later classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrCollaborator
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether the error should abort the batch rather than be
// isolated to the item that produced it.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInputMissing) || errors.Is(err, ErrPersistence)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
