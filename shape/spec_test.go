package shape

import (
	"errors"
	"testing"
)

func TestSpecConstructors(t *testing.T) {
	if _, err := NewParametrized([]int{1, 2}, []int{1}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("NewParametrized: erwartet ErrLengthMismatch, bekam %v", err)
	}
	if _, err := NewParametrized([]int{1, -2}, []int{0, 0}); !errors.Is(err, ErrNegativeDim) {
		t.Errorf("NewParametrized: erwartet ErrNegativeDim, bekam %v", err)
	}
	if _, err := NewExact(1, -1); !errors.Is(err, ErrNegativeDim) {
		t.Errorf("NewExact: erwartet ErrNegativeDim, bekam %v", err)
	}
	if _, err := NewImplicit("", nil, nil); !errors.Is(err, ErrMissingReference) {
		t.Errorf("NewImplicit: erwartet ErrMissingReference, bekam %v", err)
	}
	if _, err := NewImplicit("raw", []float64{1, 1}, []float64{0}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("NewImplicit: erwartet ErrLengthMismatch, bekam %v", err)
	}
}

func TestSpecConstructorsCopy(t *testing.T) {
	dims := []int{1, 2, 3}
	e, err := NewExact(dims...)
	if err != nil {
		t.Fatal(err)
	}
	dims[0] = 99
	if e.Dims[0] != 1 {
		t.Errorf("Exact teilt Speicher mit dem Aufrufer: %v", e.Dims)
	}
}

func TestSpecString(t *testing.T) {
	tests := []struct {
		spec Spec
		want string
	}{
		{Exact{Dims: Shape{1, 3, 256, 256}}, "[1, 3, 256, 256]"},
		{Parametrized{Min: []int{1, 64}, Step: []int{0, 16}}, "{min: [1, 64], step: [0, 16]}"},
		{Implicit{Reference: "raw", Scale: []float64{1, 0.5}, Offset: []float64{0, 8}}, "{reference_tensor: raw, scale: [1, 0.5], offset: [0, 8]}"},
	}

	for _, tt := range tests {
		if got := tt.spec.String(); got != tt.want {
			t.Errorf("String() = %q, erwartet %q", got, tt.want)
		}
	}
}

func TestShapeString(t *testing.T) {
	if got := (Shape{1, 3, 255, 255}).String(); got != "(1, 3, 255, 255)" {
		t.Errorf("String() = %q", got)
	}
	if got := (Shape{7}).String(); got != "(7,)" {
		t.Errorf("String() = %q", got)
	}
	if got := (Shape{}).Size(); got != 1 {
		t.Errorf("Size() von Skalar = %d, erwartet 1", got)
	}
}
