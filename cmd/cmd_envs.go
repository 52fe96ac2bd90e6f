// Package cmd - envs Command
// Listet alle Environment-Variablen mit aktuellem Wert.
package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/bioimageio/modeltest/envconfig"
)

// EnvsHandler - Gibt die Konfiguration aus
func EnvsHandler(cmd *cobra.Command, _ []string) error {
	asJSON, err := useJSON(cmd)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), envconfig.Values())
	}

	vars := envconfig.AsMap()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	slices.Sort(names)

	var data [][]string
	for _, name := range names {
		v := vars[name]
		data = append(data, []string{name, fmt.Sprintf("%v", v.Value), v.Description})
	}

	table := newTable(cmd.OutOrStdout(), []string{"NAME", "VALUE", "DESCRIPTION"})
	table.AppendBulk(data)
	table.Render()
	return nil
}

// newEnvsCmd - Erstellt den envs Command
func newEnvsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envs",
		Short: "Show the environment configuration",
		Args:  cobra.ExactArgs(0),
		RunE:  EnvsHandler,
	}
	cmd.Flags().String("format", "auto", "Output format: auto, table or json")
	return cmd
}
