// description.go - Ressourcen-Beschreibung (rdf.yaml) als Go-Typen
//
// Enthaelt:
// - Description: Kopf der Beschreibung, Typ-Erkennung (model vs. andere)
// - InputTensor / OutputTensor: deklarierte Tensoren mit Achsen und Shape
// - Weights: Gewichtsformate in der Reihenfolge der Datei (Prioritaet)
//
// Relative Pfade (test_inputs, test_outputs, weights) werden gegen Root aufgeloest.
package rdf

import (
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TypeModel ist der Ressourcen-Typ fuer Modelle
const TypeModel = "model"

// Description ist eine geladene Ressourcen-Beschreibung.
type Description struct {
	FormatVersion string `yaml:"format_version"`
	Type          string `yaml:"type"`
	Name          string `yaml:"name"`
	Description   string `yaml:"description,omitempty"`

	Inputs  []InputTensor  `yaml:"inputs,omitempty"`
	Outputs []OutputTensor `yaml:"outputs,omitempty"`

	TestInputs  []string `yaml:"test_inputs,omitempty"`
	TestOutputs []string `yaml:"test_outputs,omitempty"`

	Weights Weights `yaml:"weights,omitempty"`

	// Root ist das Verzeichnis der Beschreibung, Source die Referenz beim Laden
	Root   string `yaml:"-"`
	Source string `yaml:"-"`
}

// Processing ist ein Vor- oder Nachverarbeitungs-Schritt.
type Processing struct {
	Name   string         `yaml:"name"`
	Kwargs map[string]any `yaml:"kwargs,omitempty"`
}

// InputTensor beschreibt einen Modell-Input.
type InputTensor struct {
	Name          string       `yaml:"name"`
	Axes          string       `yaml:"axes"`
	DataType      string       `yaml:"data_type"`
	Shape         TensorShape  `yaml:"shape"`
	Preprocessing []Processing `yaml:"preprocessing,omitempty"`
}

// OutputTensor beschreibt einen Modell-Output.
type OutputTensor struct {
	Name           string       `yaml:"name"`
	Axes           string       `yaml:"axes"`
	DataType       string       `yaml:"data_type"`
	Shape          TensorShape  `yaml:"shape"`
	Halo           []int        `yaml:"halo,omitempty"`
	Postprocessing []Processing `yaml:"postprocessing,omitempty"`
}

// WeightsEntry ist ein Gewichtsformat mit Quelle.
type WeightsEntry struct {
	Format string         `yaml:"-"`
	Source string         `yaml:"source"`
	SHA256 string         `yaml:"sha256,omitempty"`
	Extra  map[string]any `yaml:",inline"`
}

// Weights behaelt die Reihenfolge der Formate aus der Datei.
type Weights []WeightsEntry

// UnmarshalYAML liest die weights-Map in Dateireihenfolge.
func (w *Weights) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: weights must be a mapping", node.Line)
	}
	entries := make(Weights, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var entry WeightsEntry
		if err := node.Content[i+1].Decode(&entry); err != nil {
			return err
		}
		entry.Format = node.Content[i].Value
		entries = append(entries, entry)
	}
	*w = entries
	return nil
}

// Formats gibt die Formatnamen in Prioritaetsreihenfolge zurueck.
func (w Weights) Formats() []string {
	names := make([]string, len(w))
	for i, e := range w {
		names[i] = e.Format
	}
	return names
}

// Get sucht ein Format.
func (w Weights) Get(format string) (WeightsEntry, bool) {
	for _, e := range w {
		if e.Format == format {
			return e, true
		}
	}
	return WeightsEntry{}, false
}

// IsModel prueft den Ressourcen-Typ.
func (d *Description) IsModel() bool {
	return d.Type == TypeModel
}

// TypeName gibt den Typ fuer Meldungen zurueck.
func (d *Description) TypeName() string {
	if d.Type == "" {
		return "<unknown>"
	}
	return d.Type
}

// Resolve loest einen Pfad relativ zum Verzeichnis der Beschreibung auf.
func (d *Description) Resolve(path string) string {
	if filepath.IsAbs(path) || d.Root == "" {
		return path
	}
	return filepath.Join(d.Root, path)
}

// TestInputPaths gibt die aufgeloesten Pfade der Test-Inputs zurueck.
func (d *Description) TestInputPaths() []string {
	return d.resolveAll(d.TestInputs)
}

// TestOutputPaths gibt die aufgeloesten Pfade der Test-Outputs zurueck.
func (d *Description) TestOutputPaths() []string {
	return d.resolveAll(d.TestOutputs)
}

func (d *Description) resolveAll(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = d.Resolve(p)
	}
	return out
}
