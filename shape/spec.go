// MODUL: spec
// ZWECK: Shape-Beschreibungen fuer Modell-Ein- und Ausgaben als geschlossener Summentyp
// INPUT: Dimensionen, Minimum/Step, Referenz-Tensor mit Scale/Offset
// OUTPUT: Spec-Werte (Exact, Parametrized, Implicit)
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: keine (nur Standardbibliothek)
// HINWEISE: Spec ist versiegelt (unexportierte Methode), Validatoren matchen per Type-Switch.
//           Werte sind nach dem Erstellen unveraenderlich, Konstruktoren kopieren Slices.

// Package shape prueft beobachtete Tensor-Shapes gegen deklarierte Shape-Beschreibungen.
package shape

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ============================================================================
// Shape
// ============================================================================

// Shape ist die Groesse eines Tensors entlang jeder Achse.
type Shape []int

// Equal vergleicht elementweise inklusive Rang.
func (s Shape) Equal(o Shape) bool {
	return slices.Equal(s, o)
}

// Size gibt die Anzahl der Elemente zurueck (1 fuer Skalare).
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// String formatiert die Shape als Tupel, z.B. (1, 3, 256, 256)
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ============================================================================
// Spec - Summentyp
// ============================================================================

// Spec ist eine Shape-Beschreibung. Implementiert nur von Exact,
// Parametrized und Implicit.
type Spec interface {
	fmt.Stringer
	spec()
}

// Exact verlangt genau diese Dimensionen.
type Exact struct {
	Dims Shape
}

// Parametrized beschreibt die Familie min + k*step.
type Parametrized struct {
	Min  []int
	Step []int
}

// Implicit leitet eine Output-Shape aus der Shape eines Input-Tensors ab:
// round(ref[i]*scale[i]) + 2*offset[i]
type Implicit struct {
	Reference string
	Scale     []float64
	Offset    []float64
}

func (Exact) spec()        {}
func (Parametrized) spec() {}
func (Implicit) spec()     {}

// ============================================================================
// Konstruktoren
// ============================================================================

// NewExact erstellt eine exakte Shape-Beschreibung.
func NewExact(dims ...int) (Exact, error) {
	if err := checkNonNegative("dims", dims); err != nil {
		return Exact{}, err
	}
	return Exact{Dims: slices.Clone(Shape(dims))}, nil
}

// NewParametrized erstellt eine parametrisierte Shape-Beschreibung.
// minDims und step muessen gleich lang und nicht-negativ sein.
func NewParametrized(minDims, step []int) (Parametrized, error) {
	if len(minDims) != len(step) {
		return Parametrized{}, &SpecError{
			Op:  "parametrized",
			Err: fmt.Errorf("%w: min has %d axes, step has %d", ErrLengthMismatch, len(minDims), len(step)),
		}
	}
	if err := checkNonNegative("min", minDims); err != nil {
		return Parametrized{}, err
	}
	if err := checkNonNegative("step", step); err != nil {
		return Parametrized{}, err
	}
	return Parametrized{Min: slices.Clone(minDims), Step: slices.Clone(step)}, nil
}

// NewImplicit erstellt eine implizite Output-Shape-Beschreibung.
func NewImplicit(reference string, scale, offset []float64) (Implicit, error) {
	if reference == "" {
		return Implicit{}, &SpecError{Op: "implicit", Err: ErrMissingReference}
	}
	if len(scale) != len(offset) {
		return Implicit{}, &SpecError{
			Op:  "implicit",
			Err: fmt.Errorf("%w: scale has %d axes, offset has %d", ErrLengthMismatch, len(scale), len(offset)),
		}
	}
	return Implicit{
		Reference: reference,
		Scale:     slices.Clone(scale),
		Offset:    slices.Clone(offset),
	}, nil
}

func checkNonNegative(field string, dims []int) error {
	for i, d := range dims {
		if d < 0 {
			return &SpecError{
				Op:  field,
				Err: fmt.Errorf("%w: axis %d is %d", ErrNegativeDim, i, d),
			}
		}
	}
	return nil
}

// ============================================================================
// Formatierung
// ============================================================================

func (e Exact) String() string {
	return formatInts(e.Dims)
}

func (p Parametrized) String() string {
	return fmt.Sprintf("{min: %s, step: %s}", formatInts(p.Min), formatInts(p.Step))
}

func (i Implicit) String() string {
	return fmt.Sprintf("{reference_tensor: %s, scale: %s, offset: %s}",
		i.Reference, formatFloats(i.Scale), formatFloats(i.Offset))
}

func formatInts(v []int) string {
	parts := make([]string, len(v))
	for i, d := range v {
		parts[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatFloats(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
