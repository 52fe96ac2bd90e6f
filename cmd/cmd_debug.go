// Package cmd - debug Command
// Zeigt die Tensoren jeder Pipeline-Stufe und schreibt sie optional als .npy.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bioimageio/modeltest/api"
	"github.com/bioimageio/modeltest/resourcetest"
	"github.com/bioimageio/modeltest/tensor"
)

// DebugHandler - Fuehrt einen Diagnoselauf aus
func DebugHandler(cmd *cobra.Command, args []string) error {
	opts, err := optionsFromFlags(cmd)
	if err != nil {
		return err
	}
	asJSON, err := useJSON(cmd)
	if err != nil {
		return err
	}
	remote, _ := cmd.Flags().GetBool("remote")
	dump, _ := cmd.Flags().GetString("dump")

	if remote {
		if dump != "" {
			return errors.New("--dump cannot be combined with --remote")
		}
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return err
		}
		resp, err := client.Debug(cmd.Context(), &api.DebugRequest{
			Model:        remoteRef(args[0]),
			Devices:      opts.Devices,
			WeightFormat: opts.WeightFormat,
		})
		if err != nil {
			return err
		}
		return renderSummary(cmd, debugOutput{RunID: resp.RunID, Summary: resp.Summary, Notes: resp.Notes}, asJSON)
	}

	tester := newTester(opts)
	// Hinweise stehen in der Ausgabe, nicht doppelt auf stderr
	tester.Notify = nil
	report, err := tester.DebugModel(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if dump != "" {
		n, err := dumpStages(dump, report)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d tensors to %s\n", n, dump)
	}

	return renderSummary(cmd, debugOutput{RunID: report.RunID, Summary: report.Summary(), Notes: report.Notes}, asJSON)
}

// dumpStages schreibt jeden Tensor als <stage>_<index>_<name>.npy nach dir
func dumpStages(dir string, report *resourcetest.DiagnosticReport) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	n := 0
	for _, stage := range resourcetest.Stages {
		for i, t := range report.Stage(stage) {
			if t == nil {
				continue
			}
			name := fmt.Sprintf("%s_%d", stage, i)
			if t.Name != "" {
				name += "_" + safeName(t.Name)
			}
			if err := tensor.SaveNpy(filepath.Join(dir, name+".npy"), t); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

// safeName entfernt Pfadanteile, Tensor-Namen koennen Dateipfade sein
func safeName(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), ".npy")
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, name)
}

// newDebugCmd - Erstellt den debug Command
func newDebugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug MODEL",
		Short: "Show the tensors of every pipeline stage for a model's sample data",
		Long: `Debug runs preprocessing, prediction and postprocessing separately and shows
every stage tensor. Like test, it needs a registered pipeline adapter. This
binary registers none, so local runs fail with "no pipeline adapter
registered". Use --remote to debug on a server that has one.`,
		Args: cobra.ExactArgs(1),
		RunE: DebugHandler,
	}

	addRunFlags(cmd)
	cmd.Flags().String("dump", "", "Write all stage tensors as .npy files into this directory")

	return cmd
}
