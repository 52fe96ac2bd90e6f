// npy.go - Laden von NumPy .npy Beispieldateien
//
// Unterstuetzt alle Standard-Ganzzahl-, Bool- und Float-Typen (f2, f4, f8).
// float16 wird von npy nicht dekodiert und deshalb direkt aus dem
// Datenblock am Dateiende gelesen.
package tensor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sbinet/npyio/npy"
	"github.com/x448/float16"

	"github.com/bioimageio/modeltest/shape"
)

// LoadNpy laedt eine .npy Datei als Tensor. Name ist der Dateipfad.
func LoadNpy(path string) (*Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load npy: %w", err)
	}
	defer f.Close()

	t, err := ReadNpy(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load npy: %s: %w", path, err)
	}
	t.Name = path
	return t, nil
}

// ReadNpy dekodiert einen .npy Stream.
func ReadNpy(r io.Reader) (*Tensor, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	nr, err := npy.NewReader(bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}

	descr := nr.Header.Descr
	if descr.Fortran {
		return nil, ErrFortranOrder
	}

	s := shape.Shape(append([]int(nil), descr.Shape...))
	n := s.Size()

	order, kind := splitDType(descr.Type)
	var data []float64
	switch kind {
	case "f8":
		data, err = readAs[float64](nr, n)
	case "f4":
		data, err = readAs[float32](nr, n)
	case "f2":
		data, err = readFloat16(buf, order, n)
	case "i1":
		data, err = readAs[int8](nr, n)
	case "i2":
		data, err = readAs[int16](nr, n)
	case "i4":
		data, err = readAs[int32](nr, n)
	case "i8":
		data, err = readAs[int64](nr, n)
	case "u1":
		data, err = readAs[uint8](nr, n)
	case "u2":
		data, err = readAs[uint16](nr, n)
	case "u4":
		data, err = readAs[uint32](nr, n)
	case "u8":
		data, err = readAs[uint64](nr, n)
	case "b1":
		data, err = readBool(nr, n)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedDType, descr.Type)
	}
	if err != nil {
		return nil, err
	}

	return &Tensor{Shape: s, Data: data}, nil
}

type number interface {
	~float32 | ~float64 | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func readAs[T number](nr *npy.Reader, n int) ([]float64, error) {
	raw := make([]T, n)
	if err := nr.Read(&raw); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out, nil
}

func readBool(nr *npy.Reader, n int) ([]float64, error) {
	raw := make([]bool, n)
	if err := nr.Read(&raw); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i, v := range raw {
		if v {
			out[i] = 1
		}
	}
	return out, nil
}

// readFloat16 liest die letzten 2*n Bytes, dort liegt der Datenblock.
func readFloat16(file []byte, order binary.ByteOrder, n int) ([]float64, error) {
	if len(file) < 2*n {
		return nil, fmt.Errorf("read float16 data: %w", io.ErrUnexpectedEOF)
	}
	buf := file[len(file)-2*n:]
	out := make([]float64, n)
	for i := range out {
		bits := order.Uint16(buf[2*i:])
		out[i] = float64(float16.Frombits(bits).Float32())
	}
	return out, nil
}

// splitDType trennt "<f4" in Byte-Order und Typ-Kuerzel.
func splitDType(descr string) (binary.ByteOrder, string) {
	var order binary.ByteOrder = binary.LittleEndian
	if strings.HasPrefix(descr, ">") {
		order = binary.BigEndian
	}
	return order, strings.TrimLeft(descr, "<>|=")
}
