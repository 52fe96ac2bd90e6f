// debug_test.go - Tests fuer den Diagnoselauf
package resourcetest

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioimageio/modeltest/pipeline"
	"github.com/bioimageio/modeltest/rdf"
	"github.com/bioimageio/modeltest/shape"
	"github.com/bioimageio/modeltest/tensor"
)

// arithPipeline: Vorverarbeitung +1, Vorhersage *2, Nachverarbeitung -1.
// Veraendert die uebergebenen Tensoren direkt.
type arithPipeline struct {
	extraOutput bool
	closed      int
}

func (a *arithPipeline) Preprocess(_ context.Context, inputs ...*tensor.Tensor) ([]*tensor.Tensor, pipeline.Stats, error) {
	for _, t := range inputs {
		for i := range t.Data {
			t.Data[i]++
		}
	}
	return inputs, pipeline.Stats{}, nil
}

func (a *arithPipeline) Predict(_ context.Context, inputs ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	for _, t := range inputs {
		for i := range t.Data {
			t.Data[i] *= 2
		}
	}
	if a.extraOutput {
		return append(inputs, inputs[0].Clone()), nil
	}
	return inputs, nil
}

func (a *arithPipeline) Postprocess(_ context.Context, _ pipeline.Stats, outputs ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	for _, t := range outputs {
		for i := range t.Data {
			t.Data[i]--
		}
	}
	return outputs, nil
}

func (a *arithPipeline) Close() error {
	a.closed++
	return nil
}

func (a *arithPipeline) factory() pipeline.Factory {
	return func(context.Context, *rdf.Description, pipeline.Options) (pipeline.Pipeline, error) {
		return a, nil
	}
}

func debugSamples(t *testing.T) SampleLoader {
	t.Helper()
	in, err := tensor.New("", "", shape.Shape{2}, []float64{1, 2})
	require.NoError(t, err)
	out, err := tensor.New("", "", shape.Shape{2}, []float64{3, 5.5})
	require.NoError(t, err)
	return mapLoader(map[string]*tensor.Tensor{"in0.npy": in, "out0.npy": out})
}

func TestDebugCollectsStages(t *testing.T) {
	model := newModel([]shape.Spec{shape.Exact{Dims: shape.Shape{2}}}, []shape.Spec{shape.Exact{Dims: shape.Shape{2}}})
	p := &arithPipeline{}
	var notes bytes.Buffer

	report, err := Debug(context.Background(), model, debugSamples(t), p.factory(), Options{}, &notes)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2}, report.Inputs[0].Data, "Inputs bleiben unveraendert")
	assert.Equal(t, []float64{2, 3}, report.InputsProcessed[0].Data)
	assert.Equal(t, []float64{4, 6}, report.OutputsRaw[0].Data)
	assert.Equal(t, []float64{3, 5}, report.Outputs[0].Data)
	assert.Equal(t, []float64{3, 5.5}, report.Expected[0].Data)
	require.Len(t, report.Diff, 1)
	assert.Equal(t, []float64{0, -0.5}, report.Diff[0].Data)
	assert.Equal(t, "input", report.Inputs[0].Name)
	assert.Equal(t, "output0", report.Expected[0].Name)

	assert.Empty(t, report.Notes)
	assert.Zero(t, notes.Len())
	assert.Equal(t, 1, p.closed)

	summary := report.Summary()
	require.Len(t, summary, 6)
	assert.Equal(t, "inputs", summary[0].Stage)
	assert.Equal(t, "diff", summary[5].Stage)
	assert.InDelta(t, -0.25, summary[5].Mean, 1e-12)
	assert.Equal(t, "(2,)", summary[0].Shape)
}

func TestDebugCardinalityLeavesDiffUnset(t *testing.T) {
	model := newModel([]shape.Spec{shape.Exact{Dims: shape.Shape{2}}}, []shape.Spec{shape.Exact{Dims: shape.Shape{2}}})
	p := &arithPipeline{extraOutput: true}
	var notes bytes.Buffer

	report, err := Debug(context.Background(), model, debugSamples(t), p.factory(), Options{}, &notes)
	require.NoError(t, err)

	assert.Nil(t, report.Diff)
	require.Len(t, report.Notes, 1)
	assert.Equal(t, "Number of outputs and number of expected outputs disagree: 2 != 1", report.Notes[0])
	assert.Contains(t, notes.String(), "2 != 1")
	assert.Equal(t, 1, p.closed)
}

func TestDebugNotModel(t *testing.T) {
	_, err := Debug(context.Background(), &rdf.Description{Type: "dataset", Name: "cells"}, debugSamples(t), (&arithPipeline{}).factory(), Options{}, nil)
	require.ErrorIs(t, err, ErrNotModel)
	assert.Equal(t, "not a bioimageio.model: cells", err.Error())

	tester := NewTester(Options{})
	tester.Describe = describeAs(&rdf.Description{Type: "application"}, nil)
	_, err = tester.DebugModel(context.Background(), "app.yaml")
	assert.ErrorIs(t, err, ErrNotModel)
}
