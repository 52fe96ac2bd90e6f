// MODUL: pipeline
// ZWECK: Schnittstelle zur Prediction-Pipeline (Vorverarbeitung, Ausfuehrung, Nachverarbeitung)
// INPUT: Modell-Beschreibung, Optionen (Devices, Gewichtsformat), Input-Tensoren
// OUTPUT: Pipeline-Handle, Ergebnis-Tensoren
// NEBENEFFEKTE: Pipelines koennen Geraete-/Beschleuniger-Handles halten
// ABHAENGIGKEITEN: rdf, tensor
// HINWEISE: Close() MUSS aufgerufen werden, Use() garantiert das auf jedem Pfad

// Package pipeline definiert die Prediction-Pipeline, gegen die Modelle getestet werden.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bioimageio/modeltest/rdf"
	"github.com/bioimageio/modeltest/tensor"
)

// ============================================================================
// Schnittstelle
// ============================================================================

// Stats sind Stichproben-Statistiken aus der Vorverarbeitung,
// z.B. mean/std pro Tensor, die die Nachverarbeitung wieder braucht.
type Stats map[string]map[string]float64

// Pipeline fuehrt ein Modell in drei getrennt beobachtbaren Stufen aus.
type Pipeline interface {
	Preprocess(ctx context.Context, inputs ...*tensor.Tensor) ([]*tensor.Tensor, Stats, error)
	Predict(ctx context.Context, inputs ...*tensor.Tensor) ([]*tensor.Tensor, error)
	Postprocess(ctx context.Context, stats Stats, outputs ...*tensor.Tensor) ([]*tensor.Tensor, error)
	Close() error
}

// Options konfigurieren die Erstellung einer Pipeline.
type Options struct {
	Devices      []string
	WeightFormat string
}

// Factory erstellt eine Pipeline fuer ein Modell.
type Factory func(ctx context.Context, model *rdf.Description, opts Options) (Pipeline, error)

// ============================================================================
// Ausfuehrung
// ============================================================================

// Use erstellt die Pipeline, ruft fn auf und schliesst die Pipeline danach,
// auch wenn fn fehlschlaegt oder panict. Close-Fehler werden angehaengt.
func Use(ctx context.Context, factory Factory, model *rdf.Description, opts Options, fn func(Pipeline) error) (err error) {
	if factory == nil {
		return ErrNoFactory
	}

	p, err := factory(ctx, model, opts)
	if err != nil {
		return fmt.Errorf("create prediction pipeline: %w", err)
	}
	slog.Debug("prediction pipeline acquired", "model", model.Name, "weight_format", opts.WeightFormat, "devices", opts.Devices)

	defer func() {
		if cerr := p.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close prediction pipeline: %w", cerr))
		}
		slog.Debug("prediction pipeline released", "model", model.Name)
	}()

	return fn(p)
}

// Predict fuehrt alle drei Stufen nacheinander aus.
func Predict(ctx context.Context, p Pipeline, inputs ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	processed, stats, err := p.Preprocess(ctx, inputs...)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	raw, err := p.Predict(ctx, processed...)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	outputs, err := p.Postprocess(ctx, stats, raw...)
	if err != nil {
		return nil, fmt.Errorf("postprocess: %w", err)
	}
	return outputs, nil
}
