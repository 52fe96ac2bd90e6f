// Package cmd - test Command
// Testet eine oder mehrere Ressourcen, lokal oder ueber den Server.
// Exit-Code 1 sobald ein Report einen Fehler hat.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bioimageio/modeltest/api"
	"github.com/bioimageio/modeltest/envconfig"
	"github.com/bioimageio/modeltest/resourcetest"
)

// TestHandler - Fuehrt Regressionstests fuer alle Argumente aus
func TestHandler(cmd *cobra.Command, args []string) error {
	opts, err := optionsFromFlags(cmd)
	if err != nil {
		return err
	}
	asJSON, err := useJSON(cmd)
	if err != nil {
		return err
	}
	resource, _ := cmd.Flags().GetBool("resource")
	remote, _ := cmd.Flags().GetBool("remote")

	var reports []*resourcetest.Report
	if remote {
		reports, err = testRemote(cmd, args, opts, resource)
		if err != nil {
			return err
		}
	} else {
		tester := newTester(opts)
		for _, ref := range args {
			if resource {
				reports = append(reports, tester.TestResource(cmd.Context(), ref))
			} else {
				reports = append(reports, tester.TestModel(cmd.Context(), ref))
			}
		}
	}

	if err := renderReports(cmd, args, reports, asJSON); err != nil {
		return err
	}

	failed := 0
	for _, r := range reports {
		if !r.OK() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d resources failed", failed, len(reports))
	}
	return nil
}

func testRemote(cmd *cobra.Command, refs []string, opts resourcetest.Options, resource bool) ([]*resourcetest.Report, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, err
	}

	reports := make([]*resourcetest.Report, 0, len(refs))
	for _, ref := range refs {
		decimal := opts.Decimal
		report, err := client.Test(cmd.Context(), &api.TestRequest{
			Model:        remoteRef(ref),
			Resource:     resource,
			Decimal:      &decimal,
			Devices:      opts.Devices,
			WeightFormat: opts.WeightFormat,
			ShapeSearch:  opts.SearchMode.String(),
		})
		if err != nil {
			return nil, fmt.Errorf("test %s on %s: %w", ref, envconfig.Host(), err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// newTestCmd - Erstellt den test Command
func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test RESOURCE...",
		Short: "Test models against their sample inputs and outputs",
		Long: `Test validates the sample tensor shapes against the declared shapes,
runs the prediction pipeline on the sample inputs and compares the results
with the expected outputs. RESOURCE is an rdf.yaml file or a directory containing one.

Prediction needs a pipeline adapter for one of the model's weight formats.
This binary registers none, so local model tests end with a fatal predict
failure (no pipeline adapter registered). Use --remote to run them on a
server whose build registers adapters.`,
		Args: cobra.MinimumNArgs(1),
		RunE: TestHandler,
	}

	addRunFlags(cmd)
	cmd.Flags().Int("decimal", envconfig.DefaultDecimal, "Decimal places for the output comparison")
	cmd.Flags().String("shape-search", "", "Parametrized input shape search: lockstep or per_axis")
	cmd.Flags().Bool("resource", false, "Accept any resource type, only models are tested")

	return cmd
}
