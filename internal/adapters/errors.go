package adapters

import (
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented marks a declared capability that has not been built.
	// Callers compare with errors.Is and must not treat it as a runtime failure.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnknownAdapter is returned by Registry.Get for unregistered ids.
	ErrUnknownAdapter = errors.New("unknown adapter")
)

// CompatibilityError reports a file that failed structural validation before
// any parsing was attempted.
type CompatibilityError struct {
	AdapterID string
	Reason    string
}

func (e *CompatibilityError) Error() string {
	return fmt.Sprintf("file is not compatible with %s: %s", e.AdapterID, e.Reason)
}
