// load_test.go - Tests fuer das Laden und Dekodieren von Beschreibungen
package rdf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/bioimageio/modeltest/shape"
)

const unetRDF = `
format_version: 0.4.9
type: model
name: UNet2D nuclei
inputs:
  - name: raw
    axes: bcyx
    data_type: float32
    shape:
      min: [1, 1, 64, 64]
      step: [0, 0, 16, 16]
    preprocessing:
      - name: zero_mean_unit_variance
        kwargs: {mode: per_sample, axes: xy}
outputs:
  - name: mask
    axes: bcyx
    data_type: float32
    shape:
      reference_tensor: raw
      scale: [1, 1, 1, 1]
      offset: [0, 0, 0, 0]
    halo: [0, 0, 8, 8]
test_inputs: [test_input.npy]
test_outputs: [test_output.npy]
weights:
  torchscript:
    source: weights.pt
  onnx:
    source: weights.onnx
    opset_version: 12
`

func TestParseModel(t *testing.T) {
	d, err := Parse([]byte(unetRDF))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !d.IsModel() {
		t.Fatalf("IsModel() = false, erwartet true")
	}
	if len(d.Inputs) != 1 || len(d.Outputs) != 1 {
		t.Fatalf("Inputs/Outputs = %d/%d, erwartet 1/1", len(d.Inputs), len(d.Outputs))
	}

	want := shape.Parametrized{Min: []int{1, 1, 64, 64}, Step: []int{0, 0, 16, 16}}
	if diff := cmp.Diff(shape.Spec(want), d.Inputs[0].Shape.Spec); diff != "" {
		t.Errorf("Input-Shape (-want +got):\n%s", diff)
	}

	wantOut := shape.Implicit{Reference: "raw", Scale: []float64{1, 1, 1, 1}, Offset: []float64{0, 0, 0, 0}}
	if diff := cmp.Diff(shape.Spec(wantOut), d.Outputs[0].Shape.Spec); diff != "" {
		t.Errorf("Output-Shape (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"torchscript", "onnx"}, d.Weights.Formats()); diff != "" {
		t.Errorf("Weights-Reihenfolge (-want +got):\n%s", diff)
	}
	onnx, ok := d.Weights.Get("onnx")
	if !ok || onnx.Source != "weights.onnx" || onnx.Extra["opset_version"] != 12 {
		t.Errorf("onnx Eintrag = %+v", onnx)
	}

	if got := d.Inputs[0].Preprocessing[0].Name; got != "zero_mean_unit_variance" {
		t.Errorf("Preprocessing = %q", got)
	}
}

func TestParseExactShape(t *testing.T) {
	d, err := Parse([]byte(`
type: model
name: exact
inputs:
  - {name: input, axes: bcyx, data_type: float32, shape: [1, 3, 256, 256]}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := shape.Exact{Dims: shape.Shape{1, 3, 256, 256}}
	if diff := cmp.Diff(shape.Spec(want), d.Inputs[0].Shape.Spec); diff != "" {
		t.Errorf("Shape (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"kein Typ", "name: x\n", ErrInvalid},
		{"doppelter Name", "type: model\ninputs:\n  - {name: a, shape: [1]}\n  - {name: a, shape: [1]}\n", ErrInvalid},
		{"min/step Laenge", "type: model\ninputs:\n  - {name: a, shape: {min: [1, 2], step: [1]}}\n", shape.ErrLengthMismatch},
		{"negative Dimension", "type: model\ninputs:\n  - {name: a, shape: [1, -2]}\n", shape.ErrNegativeDim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, erwartet %v", err, tt.want)
			}
		})
	}

	if _, err := Parse([]byte("type: model\ninputs:\n  - {name: a, shape: {foo: 1}}\n")); err == nil {
		t.Error("Erwartete Fehler fuer leere shape-Map")
	}
}

func TestParseNonModel(t *testing.T) {
	d, err := Parse([]byte("type: dataset\nname: cells\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.IsModel() {
		t.Error("dataset sollte kein Modell sein")
	}
	if d.TypeName() != "dataset" {
		t.Errorf("TypeName() = %q", d.TypeName())
	}
}

func TestLoadDirectoryResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "rdf.yaml"), []byte(unetRDF), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Root != dir || d.Source != dir {
		t.Errorf("Root/Source = %q/%q, erwartet %q", d.Root, d.Source, dir)
	}
	if diff := cmp.Diff([]string{filepath.Join(dir, "test_input.npy")}, d.TestInputPaths()); diff != "" {
		t.Errorf("TestInputPaths (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(t.TempDir()); !errors.Is(err, ErrNotFound) {
		t.Errorf("leeres Verzeichnis: error = %v, erwartet ErrNotFound", err)
	}
	if _, err := Load("https://example.org/rdf.yaml"); !errors.Is(err, ErrRemoteSource) {
		t.Errorf("URL: error = %v, erwartet ErrRemoteSource", err)
	}

	_, err := Load(filepath.Join(t.TempDir(), "fehlt.yaml"))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("fehlende Datei: error = %v", err)
	}
}

func TestTensorShapeMarshalRoundtrip(t *testing.T) {
	in := TensorShape{Spec: shape.Implicit{Reference: "raw", Scale: []float64{1, 0.5}, Offset: []float64{0, 4}}}
	out, err := yaml.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back TensorShape
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(in.Spec, back.Spec); diff != "" {
		t.Errorf("Roundtrip (-want +got):\n%s", diff)
	}
}
