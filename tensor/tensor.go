// MODUL: tensor
// ZWECK: Benannte Test-Tensoren mit Shape, Achsen-Label und float64-Daten
// INPUT: Name, Achsen-Label (z.B. "bcyx"), Shape, Daten
// OUTPUT: Tensor-Werte, Differenz-Tensoren
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: shape, gonum/floats
// HINWEISE: Daten liegen row-major (C-Order) vor, intern immer float64

// Package tensor haelt Beispiel-Tensoren fuer Modelltests.
package tensor

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/bioimageio/modeltest/shape"
)

var (
	// ErrSizeMismatch wird zurueckgegeben wenn Daten nicht zur Shape passen
	ErrSizeMismatch = errors.New("data size does not match shape")

	// ErrShapeMismatch wird zurueckgegeben wenn zwei Tensoren verschiedene Shapes haben
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrUnsupportedDType wird bei nicht unterstuetzten npy-Datentypen zurueckgegeben
	ErrUnsupportedDType = errors.New("unsupported dtype")

	// ErrFortranOrder wird fuer Fortran-geordnete npy-Dateien zurueckgegeben
	ErrFortranOrder = errors.New("fortran-ordered arrays are not supported")
)

// Tensor ist ein konkretes Array mit beobachteter Shape.
type Tensor struct {
	Name  string
	Axes  string
	Shape shape.Shape
	Data  []float64
}

// New erstellt einen Tensor und prueft dass len(data) zur Shape passt.
func New(name, axes string, s shape.Shape, data []float64) (*Tensor, error) {
	if s.Size() != len(data) {
		return nil, fmt.Errorf("%w: shape %v needs %d values, got %d", ErrSizeMismatch, s, s.Size(), len(data))
	}
	return &Tensor{
		Name:  name,
		Axes:  axes,
		Shape: slices.Clone(s),
		Data:  data,
	}, nil
}

// Size gibt die Anzahl der Elemente zurueck.
func (t *Tensor) Size() int {
	return len(t.Data)
}

// Clone erstellt eine tiefe Kopie.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{
		Name:  t.Name,
		Axes:  t.Axes,
		Shape: slices.Clone(t.Shape),
		Data:  slices.Clone(t.Data),
	}
}

// WithLabel gibt eine Kopie mit neuem Namen und Achsen-Label zurueck.
// Die Daten werden geteilt.
func (t *Tensor) WithLabel(name, axes string) *Tensor {
	return &Tensor{Name: name, Axes: axes, Shape: t.Shape, Data: t.Data}
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(%s, axes=%s, shape=%v)", t.Name, t.Axes, t.Shape)
}

// Sub berechnet a - b elementweise. Beide Shapes muessen gleich sein.
func Sub(a, b *Tensor) (*Tensor, error) {
	if !a.Shape.Equal(b.Shape) {
		return nil, fmt.Errorf("%w: %v vs %v", ErrShapeMismatch, a.Shape, b.Shape)
	}
	diff := make([]float64, len(a.Data))
	floats.SubTo(diff, a.Data, b.Data)
	return &Tensor{
		Name:  a.Name,
		Axes:  a.Axes,
		Shape: slices.Clone(a.Shape),
		Data:  diff,
	}, nil
}
