// MODUL: tensor_test
// ZWECK: Tests fuer Tensor-Erstellung, Differenz und npy-Laden
// INPUT: Synthetische npy-Dateien
// OUTPUT: Testresultate
// NEBENEFFEKTE: schreibt temporaere Dateien (t.TempDir)
// ABHAENGIGKEITEN: testing, go-cmp, npyio, float16
// HINWEISE: npy-Header werden von Hand geschrieben (Format-Version 1.0)

package tensor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sbinet/npyio/npy"
	"github.com/x448/float16"

	"github.com/bioimageio/modeltest/shape"
)

// npyBytes baut eine .npy Datei mit gegebenem dtype, Shape und Rohdaten.
func npyBytes(descr string, dims []int, payload []byte) []byte {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = fmt.Sprint(d)
	}
	shapeStr := "(" + strings.Join(parts, ", ") + ")"
	if len(dims) == 1 {
		shapeStr = "(" + parts[0] + ",)"
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, shapeStr)

	// Magic(6) + Version(2) + Laenge(2) + Header + '\n' auf 64 Bytes auffuellen
	total := 10 + len(header) + 1
	if pad := total % 64; pad != 0 {
		header += strings.Repeat(" ", 64-pad)
	}
	header += "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	buf.Write(payload)
	return buf.Bytes()
}

func float32Payload(v ...float32) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, v)
	return buf.Bytes()
}

func TestNew(t *testing.T) {
	if _, err := New("x", "bc", shape.Shape{2, 2}, []float64{1, 2, 3}); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("Erwartete ErrSizeMismatch, bekam %v", err)
	}

	tt, err := New("x", "bc", shape.Shape{2, 2}, []float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tt.Size() != 4 {
		t.Errorf("Size() = %d, erwartet 4", tt.Size())
	}
}

func TestSub(t *testing.T) {
	a, _ := New("a", "x", shape.Shape{3}, []float64{1, 2, 3})
	b, _ := New("b", "x", shape.Shape{3}, []float64{0.5, 2, 4})

	diff, err := Sub(a, b)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if d := cmp.Diff([]float64{0.5, 0, -1}, diff.Data); d != "" {
		t.Errorf("Sub (-want +got):\n%s", d)
	}
	if a.Data[0] != 1 {
		t.Errorf("Sub hat den Eingabe-Tensor veraendert")
	}

	c, _ := New("c", "xy", shape.Shape{1, 3}, []float64{1, 2, 3})
	if _, err := Sub(a, c); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Erwartete ErrShapeMismatch, bekam %v", err)
	}
}

func TestReadNpyFloat32(t *testing.T) {
	data := npyBytes("<f4", []int{2, 3}, float32Payload(1, 2, 3, 4, 5, 6))

	got, err := ReadNpy(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadNpy: %v", err)
	}
	if d := cmp.Diff(shape.Shape{2, 3}, got.Shape); d != "" {
		t.Errorf("Shape (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]float64{1, 2, 3, 4, 5, 6}, got.Data); d != "" {
		t.Errorf("Daten (-want +got):\n%s", d)
	}
}

func TestReadNpyFloat16(t *testing.T) {
	values := []float32{0.5, -2, 1024}
	var payload bytes.Buffer
	for _, v := range values {
		binary.Write(&payload, binary.LittleEndian, float16.Fromfloat32(v).Bits())
	}

	got, err := ReadNpy(bytes.NewReader(npyBytes("<f2", []int{3}, payload.Bytes())))
	if err != nil {
		t.Fatalf("ReadNpy: %v", err)
	}
	if d := cmp.Diff([]float64{0.5, -2, 1024}, got.Data); d != "" {
		t.Errorf("Daten (-want +got):\n%s", d)
	}
}

func TestReadNpyWrittenByNpyio(t *testing.T) {
	var buf bytes.Buffer
	if err := npy.Write(&buf, []float64{0.25, math.Pi}); err != nil {
		t.Fatalf("npy.Write: %v", err)
	}

	got, err := ReadNpy(&buf)
	if err != nil {
		t.Fatalf("ReadNpy: %v", err)
	}
	if d := cmp.Diff(shape.Shape{2}, got.Shape); d != "" {
		t.Errorf("Shape (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]float64{0.25, math.Pi}, got.Data); d != "" {
		t.Errorf("Daten (-want +got):\n%s", d)
	}
}

func TestReadNpyUnsupported(t *testing.T) {
	data := npyBytes("<c16", []int{1}, make([]byte, 16))
	if _, err := ReadNpy(bytes.NewReader(data)); err == nil {
		t.Error("Erwartete Fehler fuer complex128")
	}
}

func TestLoadNpy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.npy")
	if err := os.WriteFile(path, npyBytes("<f4", []int{1, 1, 2, 2}, float32Payload(1, 2, 3, 4)), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := LoadNpy(path)
	if err != nil {
		t.Fatalf("LoadNpy: %v", err)
	}
	if got.Name != path {
		t.Errorf("Name = %q, erwartet %q", got.Name, path)
	}
	if d := cmp.Diff(shape.Shape{1, 1, 2, 2}, got.Shape); d != "" {
		t.Errorf("Shape (-want +got):\n%s", d)
	}

	if _, err := LoadNpy(filepath.Join(t.TempDir(), "fehlt.npy")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Erwartete os.ErrNotExist, bekam %v", err)
	}
}

func TestWriteNpyRoundtrip(t *testing.T) {
	orig, _ := New("diff", "bcyx", shape.Shape{1, 2, 2, 1}, []float64{-1.5, 0, 2.25, 1e-9})
	path := filepath.Join(t.TempDir(), "diff.npy")
	if err := SaveNpy(path, orig); err != nil {
		t.Fatalf("SaveNpy: %v", err)
	}

	got, err := LoadNpy(path)
	if err != nil {
		t.Fatalf("LoadNpy: %v", err)
	}
	if d := cmp.Diff(orig.Shape, got.Shape); d != "" {
		t.Errorf("Shape (-want +got):\n%s", d)
	}
	if d := cmp.Diff(orig.Data, got.Data); d != "" {
		t.Errorf("Daten (-want +got):\n%s", d)
	}
}
