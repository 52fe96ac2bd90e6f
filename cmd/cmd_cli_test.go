package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioimageio/modeltest/pipeline"
	"github.com/bioimageio/modeltest/rdf"
	"github.com/bioimageio/modeltest/resourcetest"
	"github.com/bioimageio/modeltest/shape"
	"github.com/bioimageio/modeltest/tensor"
)

type echoPipeline struct{}

func (echoPipeline) Preprocess(_ context.Context, in ...*tensor.Tensor) ([]*tensor.Tensor, pipeline.Stats, error) {
	return in, nil, nil
}

func (echoPipeline) Predict(_ context.Context, in ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	return in, nil
}

func (echoPipeline) Postprocess(_ context.Context, _ pipeline.Stats, out ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	return out, nil
}

func (echoPipeline) Close() error { return nil }

// fakeTesters ersetzt newTester. Ressource "pass" besteht, "fail" weicht
// in den Werten ab, "cells" ist ein dataset.
func fakeTesters(t *testing.T) *resourcetest.Options {
	t.Helper()
	var used resourcetest.Options

	s := shape.Shape{1, 2}
	model := func(name string) *rdf.Description {
		return &rdf.Description{
			Type:        rdf.TypeModel,
			Name:        name,
			Source:      name,
			Inputs:      []rdf.InputTensor{{Name: "raw", Axes: "bx", Shape: rdf.TensorShape{Spec: shape.Exact{Dims: s}}}},
			Outputs:     []rdf.OutputTensor{{Name: "mask", Axes: "bx", Shape: rdf.TensorShape{Spec: shape.Exact{Dims: s}}}},
			TestInputs:  []string{name + "/in.npy"},
			TestOutputs: []string{name + "/out.npy"},
		}
	}

	orig := newTester
	t.Cleanup(func() { newTester = orig })
	newTester = func(opts resourcetest.Options) *resourcetest.Tester {
		used = opts
		return &resourcetest.Tester{
			Options: opts,
			Describe: func(ref string) (*rdf.Description, error) {
				switch ref {
				case "pass", "fail":
					return model(ref), nil
				case "cells":
					return &rdf.Description{Type: "dataset", Name: "cells"}, nil
				}
				return nil, &rdf.LoadError{Source: ref, Err: rdf.ErrNotFound}
			},
			Samples: resourcetest.SampleLoaderFunc(func(_ context.Context, paths []string) ([]*tensor.Tensor, error) {
				out := make([]*tensor.Tensor, len(paths))
				for i, p := range paths {
					value := 1.0
					if p == "fail/out.npy" {
						value = 3
					}
					tt, err := tensor.New(p, "", s, []float64{value, value})
					if err != nil {
						return nil, err
					}
					out[i] = tt
				}
				return out, nil
			}),
			Pipelines: func(context.Context, *rdf.Description, pipeline.Options) (pipeline.Pipeline, error) {
				return echoPipeline{}, nil
			},
		}
	}
	return &used
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewCLI()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestTestCommandPasses(t *testing.T) {
	fakeTesters(t)

	out, _, err := execute(t, "test", "pass", "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "pass")
	assert.Contains(t, out, "ok")
}

func TestTestCommandFails(t *testing.T) {
	fakeTesters(t)

	out, _, err := execute(t, "test", "pass", "fail", "--format", "table")
	require.Error(t, err)
	assert.Equal(t, "1 of 2 resources failed", err.Error())
	assert.Contains(t, out, "value")
	assert.Contains(t, out, "Output and expected output disagree:")
	assert.NotContains(t, out, "\n y:", "Meldungen werden einzeilig dargestellt")
}

func TestTestCommandJSON(t *testing.T) {
	fakeTesters(t)

	out, _, err := execute(t, "test", "cells", "--format", "json")
	require.Error(t, err)

	var report resourcetest.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.NotNil(t, report.Error)
	assert.Equal(t, "Expected RDF type Model, got dataset instead.", *report.Error)

	_, _, err = execute(t, "test", "cells", "--resource", "--format", "json")
	assert.NoError(t, err)
}

func TestTestCommandLoadErrorPrintsTraceback(t *testing.T) {
	fakeTesters(t)

	out, stderr, err := execute(t, "test", "fehlt", "--format", "table")
	require.Error(t, err)
	assert.Contains(t, out, "error")
	assert.Contains(t, out, "load")
	assert.Contains(t, stderr, "Traceback for fehlt")
}

func TestTestCommandFlags(t *testing.T) {
	used := fakeTesters(t)
	t.Setenv("BIOIMAGEIO_DECIMAL", "6")
	t.Setenv("BIOIMAGEIO_DEVICES", "cuda:0")

	_, _, err := execute(t, "test", "pass", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, 6, used.Decimal)
	assert.Equal(t, []string{"cuda:0"}, used.Devices)

	_, _, err = execute(t, "test", "pass", "--format", "json", "--decimal", "2", "--devices", "cpu", "--shape-search", "per_axis")
	require.NoError(t, err)
	assert.Equal(t, 2, used.Decimal)
	assert.Equal(t, []string{"cpu"}, used.Devices)
	assert.Equal(t, shape.PerAxis, used.SearchMode)

	_, _, err = execute(t, "test", "pass", "--shape-search", "diagonal")
	assert.Error(t, err)

	_, _, err = execute(t, "test", "pass", "--format", "yaml")
	assert.Error(t, err)

	_, _, err = execute(t, "test")
	assert.Error(t, err, "mindestens eine Ressource")
}

func TestDebugCommandDump(t *testing.T) {
	fakeTesters(t)
	dir := filepath.Join(t.TempDir(), "dump")

	out, _, err := execute(t, "debug", "fail", "--dump", dir, "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "outputs_raw")
	assert.Contains(t, out, "diff")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 6)

	diff, err := tensor.LoadNpy(filepath.Join(dir, "diff_0_mask.npy"))
	require.NoError(t, err)
	assert.Equal(t, []float64{-2, -2}, diff.Data)

	_, _, err = execute(t, "debug", "cells")
	assert.ErrorIs(t, err, resourcetest.ErrNotModel)

	_, _, err = execute(t, "debug", "pass", "--remote", "--dump", dir)
	assert.Error(t, err)
}

func TestEnvsCommand(t *testing.T) {
	t.Setenv("BIOIMAGEIO_DECIMAL", "3")

	out, _, err := execute(t, "envs", "--format", "json")
	require.NoError(t, err)

	var values map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &values))
	assert.Equal(t, "3", values["BIOIMAGEIO_DECIMAL"])

	out, _, err = execute(t, "envs", "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "BIOIMAGEIO_SHAPE_SEARCH")
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a b c", oneLine("a\n b\tc", 80))
	got := oneLine(strings.Repeat("x", 50), 10)
	assert.Equal(t, "xxxxxxx...", got)
	assert.Equal(t, "out", safeName("models/unet/out.npy"))
}

func TestHelpMentionsMissingAdapters(t *testing.T) {
	root := NewCLI()
	for _, name := range []string{"test", "debug"} {
		c, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Contains(t, c.Long, "no pipeline adapter", name)
		assert.Contains(t, c.Long, "--remote", name)
	}
}
