package rdf

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/bioimageio/modeltest/shape"
)

// TensorShape dekodiert die drei Formen des shape-Felds:
//
//	shape: [1, 3, 256, 256]                                     -> shape.Exact
//	shape: {min: [1, 1, 64, 64], step: [0, 0, 16, 16]}          -> shape.Parametrized
//	shape: {reference_tensor: raw, scale: [..], offset: [..]}   -> shape.Implicit
type TensorShape struct {
	shape.Spec
}

type shapeMapping struct {
	Min       []int     `yaml:"min,omitempty"`
	Step      []int     `yaml:"step,omitempty"`
	Reference string    `yaml:"reference_tensor,omitempty"`
	Scale     []float64 `yaml:"scale,omitempty"`
	Offset    []float64 `yaml:"offset,omitempty"`
}

// UnmarshalYAML implementiert yaml.Unmarshaler.
func (s *TensorShape) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var dims []int
		if err := node.Decode(&dims); err != nil {
			return err
		}
		spec, err := shape.NewExact(dims...)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		s.Spec = spec
		return nil

	case yaml.MappingNode:
		var m shapeMapping
		if err := node.Decode(&m); err != nil {
			return err
		}
		var (
			spec shape.Spec
			err  error
		)
		switch {
		case m.Reference != "":
			spec, err = shape.NewImplicit(m.Reference, m.Scale, m.Offset)
		case m.Min != nil:
			spec, err = shape.NewParametrized(m.Min, m.Step)
		default:
			return fmt.Errorf("line %d: shape mapping needs min/step or reference_tensor/scale/offset", node.Line)
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		s.Spec = spec
		return nil

	default:
		return fmt.Errorf("line %d: shape must be a list or a mapping", node.Line)
	}
}

// MarshalYAML schreibt die Spec in der Dateiform zurueck.
func (s TensorShape) MarshalYAML() (any, error) {
	switch v := s.Spec.(type) {
	case shape.Exact:
		return []int(v.Dims), nil
	case shape.Parametrized:
		return shapeMapping{Min: v.Min, Step: v.Step}, nil
	case shape.Implicit:
		return shapeMapping{Reference: v.Reference, Scale: v.Scale, Offset: v.Offset}, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w %T", shape.ErrUnsupportedSpec, s.Spec)
	}
}
