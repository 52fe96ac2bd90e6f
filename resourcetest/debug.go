// debug.go - Diagnoselauf: alle Zwischenstufen einer Vorhersage sichtbar machen
//
// Keine Shape-Pruefung und kein Bestanden/Durchgefallen. Passt die Anzahl
// der Outputs nicht zur Erwartung, bleibt Diff leer und ein Hinweis geht
// an Notes, das Log und den Notify-Writer.
package resourcetest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/bioimageio/modeltest/pipeline"
	"github.com/bioimageio/modeltest/rdf"
	"github.com/bioimageio/modeltest/tensor"
)

// ErrNotModel wird zurueckgegeben wenn die Ressource kein Modell ist.
var ErrNotModel = errors.New("not a bioimageio.model")

// DiagnosticReport haelt die Tensoren jeder Stufe.
type DiagnosticReport struct {
	RunID           string           `json:"run_id"`
	Inputs          []*tensor.Tensor `json:"-"`
	InputsProcessed []*tensor.Tensor `json:"-"`
	OutputsRaw      []*tensor.Tensor `json:"-"`
	Outputs         []*tensor.Tensor `json:"-"`
	Expected        []*tensor.Tensor `json:"-"`

	// Diff ist nil wenn die Anzahl von Outputs und Erwartung abweicht
	Diff  []*tensor.Tensor `json:"-"`
	Notes []string         `json:"notes,omitempty"`
}

// Debug fuehrt die drei Pipeline-Stufen einzeln aus und sammelt die Tensoren.
func Debug(ctx context.Context, model *rdf.Description, samples SampleLoader, factory pipeline.Factory, opts Options, notify io.Writer) (*DiagnosticReport, error) {
	if !model.IsModel() {
		return nil, notModel(describeRef(model))
	}

	report := &DiagnosticReport{RunID: uuid.NewString()}
	logger := slog.With("run", report.RunID, "model", model.Name)

	inputs, err := samples.Load(ctx, model.TestInputPaths())
	if err != nil {
		return nil, errors.Wrap(err, "load test inputs")
	}
	expected, err := samples.Load(ctx, model.TestOutputPaths())
	if err != nil {
		return nil, errors.Wrap(err, "load test outputs")
	}
	for i := range inputs {
		if i < len(model.Inputs) {
			inputs[i] = inputs[i].WithLabel(model.Inputs[i].Name, model.Inputs[i].Axes)
		}
	}
	for i := range expected {
		if i < len(model.Outputs) {
			expected[i] = expected[i].WithLabel(model.Outputs[i].Name, model.Outputs[i].Axes)
		}
	}
	report.Inputs = inputs
	report.Expected = expected

	err = pipeline.Use(ctx, factory, model, opts.pipeline(), func(p pipeline.Pipeline) error {
		processed, stats, err := p.Preprocess(ctx, cloneAll(inputs)...)
		if err != nil {
			return errors.Wrap(err, "preprocess")
		}
		report.InputsProcessed = processed

		raw, err := p.Predict(ctx, cloneAll(processed)...)
		if err != nil {
			return errors.Wrap(err, "predict")
		}
		report.OutputsRaw = raw

		outputs, err := p.Postprocess(ctx, stats, cloneAll(raw)...)
		if err != nil {
			return errors.Wrap(err, "postprocess")
		}
		report.Outputs = outputs
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(report.Outputs) != len(expected) {
		report.note(logger, notify, fmt.Sprintf("Number of outputs and number of expected outputs disagree: %d != %d", len(report.Outputs), len(expected)))
		return report, nil
	}

	report.Diff = make([]*tensor.Tensor, len(expected))
	for i, out := range report.Outputs {
		d, err := tensor.Sub(out, expected[i])
		if err != nil {
			report.note(logger, notify, fmt.Sprintf("Output %d '%s' cannot be compared: %v", i, expected[i].Name, err))
			continue
		}
		report.Diff[i] = d.WithLabel(expected[i].Name, expected[i].Axes)
	}
	return report, nil
}

// DebugModel laedt die Beschreibung und fuehrt Debug aus.
func (t *Tester) DebugModel(ctx context.Context, ref string) (*DiagnosticReport, error) {
	d, err := t.Describe(ref)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !d.IsModel() {
		return nil, notModel(ref)
	}
	return Debug(ctx, d, t.Samples, t.Pipelines, t.Options, t.Notify)
}

func (r *DiagnosticReport) note(logger *slog.Logger, w io.Writer, msg string) {
	r.Notes = append(r.Notes, msg)
	logger.Warn(msg)
	if w != nil {
		fmt.Fprintln(w, msg)
	}
}

func notModel(ref string) error {
	return errors.WithStack(fmt.Errorf("%w: %s", ErrNotModel, ref))
}

func describeRef(model *rdf.Description) string {
	if model.Source != "" {
		return model.Source
	}
	return model.Name
}

// cloneAll verhindert dass eine Stufe die Tensoren der vorigen veraendert.
func cloneAll(ts []*tensor.Tensor) []*tensor.Tensor {
	out := make([]*tensor.Tensor, len(ts))
	for i, t := range ts {
		out[i] = t.Clone()
	}
	return out
}

// ============================================================================
// Zusammenfassung fuer CLI und Server
// ============================================================================

// TensorSummary beschreibt einen Tensor einer Stufe in wenigen Zahlen.
type TensorSummary struct {
	Stage string  `json:"stage"`
	Name  string  `json:"name"`
	Shape string  `json:"shape"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// Stages in Reihenfolge der Ausfuehrung.
var Stages = []string{"inputs", "inputs_processed", "outputs_raw", "outputs", "expected", "diff"}

// Stage gibt die Tensoren einer Stufe zurueck.
func (r *DiagnosticReport) Stage(name string) []*tensor.Tensor {
	switch name {
	case "inputs":
		return r.Inputs
	case "inputs_processed":
		return r.InputsProcessed
	case "outputs_raw":
		return r.OutputsRaw
	case "outputs":
		return r.Outputs
	case "expected":
		return r.Expected
	case "diff":
		return r.Diff
	}
	return nil
}

// Summary fasst alle Stufen zusammen. Fehlende Diff-Eintraege werden uebersprungen.
func (r *DiagnosticReport) Summary() []TensorSummary {
	var out []TensorSummary
	for _, stage := range Stages {
		for _, t := range r.Stage(stage) {
			if t == nil {
				continue
			}
			s := TensorSummary{Stage: stage, Name: t.Name, Shape: t.Shape.String()}
			if n := len(t.Data); n > 0 {
				s.Min = floats.Min(t.Data)
				s.Max = floats.Max(t.Data)
				s.Mean = floats.Sum(t.Data) / float64(n)
			}
			out = append(out, s)
		}
	}
	return out
}
