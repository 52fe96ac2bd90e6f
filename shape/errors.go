// errors.go - Fehler-Definitionen fuer Shape-Beschreibungen und -Validierung
package shape

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedSpec wird zurueckgegeben wenn ein Validator eine Spec-Art
	// bekommt, die er nicht unterstuetzt (z.B. Implicit fuer Inputs)
	ErrUnsupportedSpec = errors.New("unsupported shape description")

	// ErrLengthMismatch wird bei ungleich langen Parameter-Listen zurueckgegeben
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrNegativeDim wird bei negativen Dimensionen zurueckgegeben
	ErrNegativeDim = errors.New("negative dimension")

	// ErrMissingReference fehlt bei Implicit der Referenz-Tensor
	ErrMissingReference = errors.New("missing reference tensor")

	// ErrUnknownReference wird zurueckgegeben wenn der Referenz-Tensor
	// nicht in der Registry steht
	ErrUnknownReference = errors.New("unknown reference tensor")
)

// SpecError beschreibt einen Fehler bei Erstellung oder Auswertung einer Spec.
type SpecError struct {
	Op  string
	Err error
}

// Error implementiert das error Interface.
func (e *SpecError) Error() string {
	return fmt.Sprintf("shape %s: %v", e.Op, e.Err)
}

// Unwrap gibt den zugrundeliegenden Fehler zurueck.
func (e *SpecError) Unwrap() error {
	return e.Err
}
