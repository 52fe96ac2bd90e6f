package tensor

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

// WriteNpy schreibt den Tensor als little-endian float64 (.npy Version 1.0).
// npy.Write kennt nur 1-D Slices und 2-D Matrizen, deshalb eigener Header.
func WriteNpy(w io.Writer, t *Tensor) error {
	parts := make([]string, len(t.Shape))
	for i, d := range t.Shape {
		parts[i] = fmt.Sprint(d)
	}
	dims := "(" + strings.Join(parts, ", ") + ")"
	if len(parts) == 1 {
		dims = "(" + parts[0] + ",)"
	}

	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': %s, }", dims)
	if pad := (10 + len(header) + 1) % 64; pad != 0 {
		header += strings.Repeat(" ", 64-pad)
	}
	header += "\n"

	if _, err := io.WriteString(w, "\x93NUMPY\x01\x00"); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, t.Data)
}

// SaveNpy schreibt den Tensor in eine Datei.
func SaveNpy(path string, t *Tensor) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteNpy(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
