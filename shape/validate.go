// MODUL: validate
// ZWECK: Beobachtete Shapes gegen Input- und Output-Beschreibungen pruefen
// INPUT: beobachtete Shape, Spec, Registry mit bereits validierten Input-Shapes
// OUTPUT: Match ja/nein, Fehler bei nicht unterstuetzter Spec-Art
// NEBENEFFEKTE: Validator.Input schreibt erfolgreiche Input-Shapes in die Registry
// ABHAENGIGKEITEN: spec.go, registry.go
// HINWEISE: Inputs: Exact, Parametrized. Outputs: Exact, Implicit.
//           Parametrized-Suche standardmaessig im Gleichschritt ueber alle Achsen.

package shape

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// ============================================================================
// Suchmodus fuer Parametrized
// ============================================================================

// SearchMode legt fest, wie Parametrized-Shapes gesucht werden.
type SearchMode int

const (
	// LockStep addiert step auf allen Achsen gleichzeitig. Ein Match
	// verlangt dasselbe k fuer jede Achse.
	LockStep SearchMode = iota

	// PerAxis prueft jede Achse unabhaengig: observed = min + k_i*step_i.
	PerAxis
)

// String gibt den Konfigurationsnamen zurueck.
func (m SearchMode) String() string {
	switch m {
	case LockStep:
		return "lockstep"
	case PerAxis:
		return "per_axis"
	default:
		return fmt.Sprintf("SearchMode(%d)", int(m))
	}
}

// ParseSearchMode liest einen Suchmodus. Leerer String ergibt LockStep.
func ParseSearchMode(s string) (SearchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lockstep", "lock_step":
		return LockStep, nil
	case "per_axis", "peraxis", "independent":
		return PerAxis, nil
	default:
		return LockStep, fmt.Errorf("unknown shape search mode %q", s)
	}
}

// ============================================================================
// Input-Validierung
// ============================================================================

// MatchInput prueft eine Input-Shape gegen Exact oder Parametrized.
func MatchInput(observed Shape, spec Spec, mode SearchMode) (bool, error) {
	switch s := spec.(type) {
	case Exact:
		return observed.Equal(s.Dims), nil
	case Parametrized:
		return matchParametrized(observed, s, mode), nil
	default:
		return false, &SpecError{
			Op:  "input",
			Err: fmt.Errorf("%w %T", ErrUnsupportedSpec, spec),
		}
	}
}

func matchParametrized(observed Shape, p Parametrized, mode SearchMode) bool {
	if len(observed) != len(p.Min) {
		return false
	}

	if allZero(p.Step) {
		return observed.Equal(p.Min)
	}

	if mode == PerAxis {
		for i := range observed {
			if !axisReachable(observed[i], p.Min[i], p.Step[i]) {
				return false
			}
		}
		return true
	}

	// Terminiert, weil mindestens eine Achse waechst und ueberschiesst
	candidate := slices.Clone(p.Min)
	for lessEqual(candidate, observed) {
		if slices.Equal(candidate, observed) {
			return true
		}
		for i := range candidate {
			candidate[i] += p.Step[i]
		}
	}
	return false
}

func axisReachable(observed, minDim, step int) bool {
	if step == 0 {
		return observed == minDim
	}
	return observed >= minDim && (observed-minDim)%step == 0
}

func allZero(v []int) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func lessEqual(a, b []int) bool {
	for i := range a {
		if a[i] > b[i] {
			return false
		}
	}
	return true
}

// ============================================================================
// Output-Validierung
// ============================================================================

// MatchOutput prueft eine Output-Shape gegen Exact oder Implicit.
// Implicit wird ueber die Registry aufgeloest.
func MatchOutput(observed Shape, spec Spec, reg *Registry) (bool, error) {
	switch s := spec.(type) {
	case Exact:
		return observed.Equal(s.Dims), nil
	case Implicit:
		expected, err := ExpectedOutput(s, reg)
		if err != nil {
			return false, err
		}
		if len(expected) != len(observed) {
			return false, nil
		}
		for i, e := range expected {
			if float64(observed[i]) != e {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, &SpecError{
			Op:  "output",
			Err: fmt.Errorf("%w %T", ErrUnsupportedSpec, spec),
		}
	}
}

// ExpectedOutput berechnet round(ref[i]*scale[i]) + 2*offset[i] pro Achse.
// Gerundet wird einmal vor dem Offset, halbe Werte zur geraden Zahl.
// Fraktionale Offsets bleiben erhalten und matchen dann keine Shape.
func ExpectedOutput(spec Implicit, reg *Registry) ([]float64, error) {
	ref, ok := reg.Get(spec.Reference)
	if !ok {
		return nil, &SpecError{
			Op:  "implicit",
			Err: fmt.Errorf("%w '%s'", ErrUnknownReference, spec.Reference),
		}
	}
	if len(ref) != len(spec.Scale) || len(spec.Offset) != len(spec.Scale) {
		return nil, &SpecError{
			Op: "implicit",
			Err: fmt.Errorf("%w: reference '%s' has %d axes, scale %d, offset %d",
				ErrLengthMismatch, spec.Reference, len(ref), len(spec.Scale), len(spec.Offset)),
		}
	}

	expected := make([]float64, len(ref))
	for i, d := range ref {
		expected[i] = math.RoundToEven(float64(d)*spec.Scale[i]) + 2*spec.Offset[i]
	}
	return expected, nil
}

// ============================================================================
// Validator - haelt die Registry eines Laufs
// ============================================================================

// Validator prueft Inputs und Outputs eines einzelnen Testlaufs.
// Nicht fuer parallele Nutzung gedacht, ein Validator pro Lauf.
type Validator struct {
	mode     SearchMode
	registry *Registry
}

// NewValidator erstellt einen Validator mit leerer Registry.
func NewValidator(mode SearchMode) *Validator {
	return &Validator{mode: mode, registry: NewRegistry()}
}

// Input prueft die Input-Shape und merkt sie sich bei Erfolg unter name.
func (v *Validator) Input(name string, observed Shape, spec Spec) (bool, error) {
	ok, err := MatchInput(observed, spec, v.mode)
	if err != nil || !ok {
		return ok, err
	}
	v.registry.Set(name, observed)
	return true, nil
}

// Output prueft die Output-Shape gegen die bisher validierten Inputs.
func (v *Validator) Output(observed Shape, spec Spec) (bool, error) {
	return MatchOutput(observed, spec, v.registry)
}

// Registry gibt die Registry des Laufs zurueck.
func (v *Validator) Registry() *Registry {
	return v.registry
}
