// samples.go - Laden der Beispiel-Tensoren eines Modells
//
// FileSampleLoader dekodiert .npy-Dateien parallel, die Reihenfolge
// der Ergebnisse entspricht immer der Reihenfolge der Pfade.
package resourcetest

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/bioimageio/modeltest/logutil"
	"github.com/bioimageio/modeltest/tensor"
)

// SampleLoader laedt Beispiel-Tensoren aus Pfaden.
type SampleLoader interface {
	Load(ctx context.Context, paths []string) ([]*tensor.Tensor, error)
}

// SampleLoaderFunc macht aus einer Funktion einen SampleLoader.
type SampleLoaderFunc func(ctx context.Context, paths []string) ([]*tensor.Tensor, error)

// Load implementiert SampleLoader.
func (f SampleLoaderFunc) Load(ctx context.Context, paths []string) ([]*tensor.Tensor, error) {
	return f(ctx, paths)
}

// FileSampleLoader liest .npy-Dateien von der Platte.
type FileSampleLoader struct {
	// Workers begrenzt parallele Dekodierungen, 0 = unbegrenzt
	Workers int
}

// Load implementiert SampleLoader.
func (l FileSampleLoader) Load(ctx context.Context, paths []string) ([]*tensor.Tensor, error) {
	out := make([]*tensor.Tensor, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if l.Workers > 0 {
		g.SetLimit(l.Workers)
	}
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := tensor.LoadNpy(p)
			if err != nil {
				return err
			}
			logutil.Trace("sample decoded", "path", p, "shape", t.Shape.String())
			out[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
