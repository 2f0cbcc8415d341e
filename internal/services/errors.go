package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks unusable configuration; runs abort before any
	// fetch.
	ErrConfiguration = errors.New("configuration error")
	// ErrFetch marks a failed or truncated remote fetch; resolution never
	// runs against partial results.
	ErrFetch = errors.New("fetch error")
	// ErrNoRecords marks an unexpectedly empty remote table.
	ErrNoRecords = errors.New("no records")
	// ErrStore marks a remote store mutation failure (delete/update batch).
	ErrStore = errors.New("store error")
	// ErrValidation marks malformed local input (spreadsheets, JSON dumps).
	ErrValidation = errors.New("validation error")
	// ErrTransient marks failures worth retrying on a later run.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
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
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
