// MODUL: load
// ZWECK: Ressourcen-Beschreibungen von der Platte laden
// INPUT: Referenz (Pfad zu rdf.yaml oder Verzeichnis mit rdf.yaml)
// OUTPUT: *Description mit gesetztem Root und Source
// NEBENEFFEKTE: liest Dateien
// ABHAENGIGKEITEN: gopkg.in/yaml.v3
// HINWEISE: Entfernte Quellen (http/https) werden nicht unterstuetzt

// Package rdf laedt Ressourcen-Beschreibungen fuer Modelltests.
package rdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DescriptionFiles sind die Dateinamen, die in einem Verzeichnis gesucht werden
var DescriptionFiles = []string{"rdf.yaml", "bioimageio.yaml", "model.yaml"}

var (
	// ErrNotFound wird zurueckgegeben wenn keine Beschreibung gefunden wurde
	ErrNotFound = errors.New("resource description not found")

	// ErrRemoteSource wird fuer http(s)-Referenzen zurueckgegeben
	ErrRemoteSource = errors.New("remote resource descriptions are not supported")

	// ErrInvalid wird bei strukturell ungueltigen Beschreibungen zurueckgegeben
	ErrInvalid = errors.New("invalid resource description")
)

// LoadError beschreibt einen Fehler beim Laden einer Beschreibung.
type LoadError struct {
	Source string
	Err    error
}

// Error implementiert das error Interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

// Unwrap gibt den zugrundeliegenden Fehler zurueck.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load laedt eine Beschreibung aus einer Datei oder einem Verzeichnis.
func Load(ref string) (*Description, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return nil, &LoadError{Source: ref, Err: ErrRemoteSource}
	}

	path, err := locate(ref)
	if err != nil {
		return nil, &LoadError{Source: ref, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: ref, Err: err}
	}

	d, err := Parse(data)
	if err != nil {
		return nil, &LoadError{Source: ref, Err: err}
	}
	d.Root = filepath.Dir(path)
	d.Source = ref
	return d, nil
}

// Parse dekodiert eine Beschreibung aus YAML. Unbekannte Felder werden ignoriert.
func Parse(data []byte) (*Description, error) {
	var d Description
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&d); err != nil {
		return nil, err
	}
	if err := d.check(); err != nil {
		return nil, err
	}
	return &d, nil
}

// check prueft nur was fuer Modelltests strukturell notwendig ist.
func (d *Description) check() error {
	if d.Type == "" {
		return fmt.Errorf("%w: missing type", ErrInvalid)
	}
	if !d.IsModel() {
		return nil
	}

	seen := make(map[string]bool)
	for i, in := range d.Inputs {
		if in.Name == "" {
			return fmt.Errorf("%w: input %d has no name", ErrInvalid, i)
		}
		if seen[in.Name] {
			return fmt.Errorf("%w: duplicate tensor name '%s'", ErrInvalid, in.Name)
		}
		seen[in.Name] = true
	}
	for i, out := range d.Outputs {
		if out.Name == "" {
			return fmt.Errorf("%w: output %d has no name", ErrInvalid, i)
		}
	}
	return nil
}

func locate(ref string) (string, error) {
	info, err := os.Stat(ref)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return ref, nil
	}

	for _, name := range DescriptionFiles {
		candidate := filepath.Join(ref, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w in %s (tried %s)", ErrNotFound, ref, strings.Join(DescriptionFiles, ", "))
}
