// MODUL: runner
// ZWECK: Regressionstest eines Modells gegen seine Beispiel-Daten
// INPUT: Modell-Beschreibung, SampleLoader, Pipeline-Factory, Optionen
// OUTPUT: Report (Error nil = bestanden)
// NEBENEFFEKTE: Liest Beispieldateien, erstellt und schliesst eine Pipeline, loggt via slog
// ABHAENGIGKEITEN: shape, compare, pipeline, rdf, tensor, envconfig, pkg/errors
// HINWEISE: Laden, Input-Shapes und nicht aufloesbare Output-Beschreibungen sind fatal
//           (Abbruch mit Traceback). Output-Shapes, Anzahl und Werte sind weich.

// Package resourcetest testet Modell-Ressourcen gegen ihre eigenen Beispiel-Daten.
package resourcetest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/pkg/errors"

	"github.com/bioimageio/modeltest/compare"
	"github.com/bioimageio/modeltest/envconfig"
	"github.com/bioimageio/modeltest/pipeline"
	"github.com/bioimageio/modeltest/rdf"
	"github.com/bioimageio/modeltest/shape"
	"github.com/bioimageio/modeltest/tensor"
)

// ============================================================================
// Optionen
// ============================================================================

// Options konfigurieren einen Testlauf.
type Options struct {
	Decimal      int
	Devices      []string
	WeightFormat string
	SearchMode   shape.SearchMode

	// Workers begrenzt parallele Dekodierung der Beispieldateien
	Workers int
}

// DefaultOptions liest die Optionen aus der Umgebung.
func DefaultOptions() Options {
	mode, err := shape.ParseSearchMode(envconfig.ShapeSearch())
	if err != nil {
		slog.Warn("invalid environment variable, using default", "key", "BIOIMAGEIO_SHAPE_SEARCH", "error", err, "default", mode)
	}
	return Options{
		Decimal:      envconfig.Decimal(),
		Devices:      envconfig.Devices(),
		WeightFormat: envconfig.WeightFormat(),
		SearchMode:   mode,
		Workers:      int(envconfig.SampleWorkers()),
	}
}

func (o Options) pipeline() pipeline.Options {
	return pipeline.Options{Devices: o.Devices, WeightFormat: o.WeightFormat}
}

// ============================================================================
// Regressionstest
// ============================================================================

// Run testet ein geladenes Modell. Jeder Aufruf hat eigenen Zustand,
// mehrere Laeufe duerfen parallel stattfinden.
func Run(ctx context.Context, model *rdf.Description, samples SampleLoader, factory pipeline.Factory, opts Options) (report *Report) {
	report = newReport(model.Source)
	logger := slog.With("run", report.RunID, "model", model.Name)
	logger.Debug("model test started", "decimal", opts.Decimal, "shape_search", opts.SearchMode)

	defer func() {
		if p := recover(); p != nil {
			report.panicked(p, debug.Stack())
		}
		report.finish()
		logger.Info("model test finished", "ok", report.OK(), "failures", len(report.Failures))
	}()

	if err := run(ctx, model, samples, factory, opts, report, logger); err != nil {
		logger.Error("model test aborted", "error", err.Error())
		report.fatal(err)
	}
	return report
}

func run(ctx context.Context, model *rdf.Description, samples SampleLoader, factory pipeline.Factory, opts Options, report *Report, logger *slog.Logger) error {
	// Laden
	inputs, err := samples.Load(ctx, model.TestInputPaths())
	if err != nil {
		return abort(KindLoad, -1, "", err)
	}
	expected, err := samples.Load(ctx, model.TestOutputPaths())
	if err != nil {
		return abort(KindLoad, -1, "", err)
	}
	if len(inputs) != len(model.Inputs) {
		return abort(KindLoad, -1, "", errors.Errorf("Number of test inputs and declared inputs disagree: %d != %d", len(inputs), len(model.Inputs)))
	}
	if len(expected) != len(model.Outputs) {
		return abort(KindLoad, -1, "", errors.Errorf("Number of test outputs and declared outputs disagree: %d != %d", len(expected), len(model.Outputs)))
	}
	for i, in := range model.Inputs {
		inputs[i] = inputs[i].WithLabel(in.Name, in.Axes)
	}
	for i, out := range model.Outputs {
		expected[i] = expected[i].WithLabel(out.Name, out.Axes)
	}

	// Input-Shapes, erster Fehler bricht ab
	v := shape.NewValidator(opts.SearchMode)
	for i, in := range model.Inputs {
		ok, err := v.Input(in.Name, inputs[i].Shape, in.Shape.Spec)
		if err != nil {
			return abort(KindInputShape, i, in.Name, err)
		}
		if !ok {
			return abort(KindInputShape, i, in.Name, errors.Errorf(
				"Shape of test input %d '%s' does not match input shape description: %s (observed %v)",
				i, in.Name, in.Shape.Spec, inputs[i].Shape))
		}
	}

	// Output-Shapes der Erwartung, weich. Eine nicht aufloesbare Beschreibung
	// (unbekannte Referenz, falscher Rang) bricht wie bei den Inputs ab.
	for i, out := range model.Outputs {
		ok, err := v.Output(expected[i].Shape, out.Shape.Spec)
		if err != nil {
			return abort(KindOutputShape, i, out.Name, err)
		}
		if !ok {
			msg := fmt.Sprintf("Shape of test output %d '%s' does not match output shape description: %s (observed %v).",
				i, out.Name, out.Shape.Spec, expected[i].Shape)
			logger.Warn("output shape mismatch", "index", i, "name", out.Name, "observed", expected[i].Shape.String())
			report.soft(KindOutputShape, i, out.Name, msg)
		}
	}

	// Vorhersage, Pipeline wird auf jedem Pfad geschlossen
	var results []*tensor.Tensor
	err = pipeline.Use(ctx, factory, model, opts.pipeline(), func(p pipeline.Pipeline) error {
		var err error
		results, err = pipeline.Predict(ctx, p, inputs...)
		return err
	})
	if err != nil {
		return abort(KindPredict, -1, "", err)
	}

	if len(results) != len(expected) {
		msg := fmt.Sprintf("Number of outputs and number of expected outputs disagree: %d != %d", len(results), len(expected))
		logger.Warn("output count mismatch", "outputs", len(results), "expected", len(expected))
		report.soft(KindCardinality, -1, "", msg)
		return nil
	}

	// Werte, alle Paare werden geprueft. Ungleiche Shapes werden nicht verglichen.
	for i := range results {
		if !compare.Comparable(results[i], expected[i]) {
			res := compare.ShapeMismatch(results[i], expected[i], opts.Decimal)
			logger.Warn("output shape differs from expected output", "index", i, "name", expected[i].Name,
				"shape", results[i].Shape.String(), "expected", expected[i].Shape.String())
			report.soft(KindValue, i, expected[i].Name, "Output and expected output disagree:\n "+res.Message)
			continue
		}
		res := compare.AlmostEqual(results[i], expected[i], opts.Decimal)
		if res.Match {
			continue
		}
		logger.Warn("output value mismatch", "index", i, "name", expected[i].Name,
			"mismatched", res.Stats.Mismatched, "max_abs_diff", res.Stats.MaxAbsDiff)
		report.soft(KindValue, i, expected[i].Name, "Output and expected output disagree:\n "+res.Message)
	}
	return nil
}

// ============================================================================
// Tester - Einstieg ueber Referenzen (Pfad zu rdf.yaml oder Verzeichnis)
// ============================================================================

// Tester laedt Beschreibungen und fuehrt Tests mit festen Kollaborateuren aus.
type Tester struct {
	Options Options

	// Describe laedt eine Beschreibung, Default rdf.Load
	Describe func(ref string) (*rdf.Description, error)

	Samples   SampleLoader
	Pipelines pipeline.Factory

	// Notify erhaelt Hinweise des Diagnoselaufs, Default os.Stderr
	Notify io.Writer
}

// NewTester erstellt einen Tester mit Dateisystem-Loader und der Default-Registry.
func NewTester(opts Options) *Tester {
	return &Tester{
		Options:   opts,
		Describe:  rdf.Load,
		Samples:   FileSampleLoader{Workers: opts.Workers},
		Pipelines: pipeline.Default.Create,
		Notify:    os.Stderr,
	}
}

// describe laedt die Beschreibung. Bei Fehler gibt es einen fertigen Report zurueck.
func (t *Tester) describe(ref string) (*rdf.Description, *Report) {
	d, err := t.Describe(ref)
	if err == nil {
		return d, nil
	}
	report := newReport(ref)
	report.fatal(abort(KindLoad, -1, "", err))
	report.finish()
	slog.Error("loading resource description failed", "run", report.RunID, "ref", ref, "error", err.Error())
	return nil, report
}

// TestModel testet ein Modell. Andere Ressourcen-Typen ergeben einen
// weichen Fehler ohne Traceback.
func (t *Tester) TestModel(ctx context.Context, ref string) *Report {
	d, report := t.describe(ref)
	if report != nil {
		return report
	}
	if !d.IsModel() {
		report := newReport(ref)
		report.soft(KindNotModel, -1, "", fmt.Sprintf("Expected RDF type Model, got %s instead.", d.TypeName()))
		report.finish()
		return report
	}
	return Run(ctx, d, t.Samples, t.Pipelines, t.Options)
}

// TestResource testet eine beliebige Ressource. Nur Modelle haben Tests,
// alle anderen gelten als bestanden sobald sie geladen werden koennen.
func (t *Tester) TestResource(ctx context.Context, ref string) *Report {
	d, report := t.describe(ref)
	if report != nil {
		return report
	}
	if !d.IsModel() {
		report := newReport(ref)
		report.finish()
		slog.Info("no tests for resource type", "run", report.RunID, "ref", ref, "type", d.TypeName())
		return report
	}
	return Run(ctx, d, t.Samples, t.Pipelines, t.Options)
}
