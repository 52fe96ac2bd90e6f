// Package pipeline - Adapter-Registry fuer Gewichtsformate.
//
// MODUL: registry
// ZWECK: Zentrale Registry fuer Pipeline-Factories pro Gewichtsformat
// INPUT: Formatname (torchscript, onnx, ...), Factory-Funktionen
// OUTPUT: Pipelines fuer Modelle
// NEBENEFFEKTE: Keine (rein speicherbasiert)
// ABHAENGIGKEITEN: sync (stdlib), pipeline.go (Factory)
// HINWEISE: Thread-sicher durch RWMutex. Ohne explizites Format gilt die
//           Reihenfolge der weights-Eintraege im Modell als Prioritaet.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bioimageio/modeltest/rdf"
)

var (
	// ErrNoFactory wird zurueckgegeben wenn keine Factory uebergeben wurde
	ErrNoFactory = errors.New("no prediction pipeline factory")

	// ErrNoAdapter wird zurueckgegeben wenn fuer kein Format ein Adapter registriert ist
	ErrNoAdapter = errors.New("no pipeline adapter registered")

	// ErrWeightsMissing wird zurueckgegeben wenn das Modell das Format nicht anbietet
	ErrWeightsMissing = errors.New("model has no weights in this format")
)

// RegistryError beschreibt einen Fehler bei der Adapter-Auswahl.
type RegistryError struct {
	Op   string
	Name string
	Err  error
}

// Error implementiert das error Interface.
func (e *RegistryError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("pipeline registry %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pipeline registry %s '%s': %v", e.Op, e.Name, e.Err)
}

// Unwrap gibt den zugrundeliegenden Fehler zurueck.
func (e *RegistryError) Unwrap() error {
	return e.Err
}

// ============================================================================
// Registry
// ============================================================================

// Registry verwaltet Factories pro Gewichtsformat.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry erstellt eine leere Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Default ist die prozessweite Registry fuer CLI und Server.
var Default = NewRegistry()

// Register registriert eine Factory fuer ein Gewichtsformat.
// Ueberschreibt existierende Eintraege ohne Warnung.
func (r *Registry) Register(format string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[format] = factory
}

// Get gibt die Factory fuer das Format zurueck.
func (r *Registry) Get(format string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[format]
	return f, ok
}

// List gibt die registrierten Formate sortiert zurueck.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select waehlt das Gewichtsformat fuer ein Modell.
func (r *Registry) Select(model *rdf.Description, format string) (string, Factory, error) {
	if format != "" {
		if _, ok := model.Weights.Get(format); !ok {
			return "", nil, &RegistryError{Op: "select", Name: format, Err: ErrWeightsMissing}
		}
		f, ok := r.Get(format)
		if !ok {
			return "", nil, &RegistryError{Op: "select", Name: format, Err: ErrNoAdapter}
		}
		return format, f, nil
	}

	for _, candidate := range model.Weights.Formats() {
		if f, ok := r.Get(candidate); ok {
			return candidate, f, nil
		}
	}
	return "", nil, &RegistryError{
		Op:  "select",
		Err: fmt.Errorf("%w for any of %v (available: %v)", ErrNoAdapter, model.Weights.Formats(), r.List()),
	}
}

// Create implementiert Factory: waehlt das Format und erstellt die Pipeline.
func (r *Registry) Create(ctx context.Context, model *rdf.Description, opts Options) (Pipeline, error) {
	format, factory, err := r.Select(model, opts.WeightFormat)
	if err != nil {
		return nil, err
	}
	opts.WeightFormat = format
	return factory(ctx, model, opts)
}
