// Package cmd - Ausgabe von Reports als Tabelle oder JSON.
// Enthaelt: useJSON, renderReports, renderSummary, Truncation nach Anzeigebreite
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bioimageio/modeltest/envconfig"
	"github.com/bioimageio/modeltest/resourcetest"
)

// useJSON entscheidet das Ausgabeformat. Bei "auto" gilt JSON, wenn
// BIOIMAGEIO_JSON gesetzt ist oder stdout kein Terminal ist.
func useJSON(cmd *cobra.Command) (bool, error) {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		return true, nil
	case "table":
		return false, nil
	case "", "auto":
		if envconfig.JSONOutput() {
			return true, nil
		}
		f, ok := cmd.OutOrStdout().(*os.File)
		return !ok || !term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("unknown output format %q (auto, table, json)", format)
	}
}

// messageWidth ist die Spaltenbreite fuer Meldungen
func messageWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			return max(width-50, 30)
		}
	}
	return 100
}

// oneLine fasst mehrzeilige Meldungen zusammen und kuerzt nach Anzeigebreite
func oneLine(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "...")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoWrapText(false)
	return table
}

// ============================================================================
// Testberichte
// ============================================================================

// renderReports gibt eine Zeile pro Fehler aus, bestandene Ressourcen eine Zeile "ok".
// Tracebacks fataler Fehler gehen nach stderr.
func renderReports(cmd *cobra.Command, refs []string, reports []*resourcetest.Report, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		if len(reports) == 1 {
			return writeJSON(out, reports[0])
		}
		return writeJSON(out, reports)
	}

	width := messageWidth(out)
	var data [][]string
	for i, r := range reports {
		if r.OK() {
			data = append(data, []string{refs[i], "ok", "", "", "", ""})
			continue
		}
		for _, f := range r.Failures {
			status := "failed"
			if f.Fatal {
				status = "error"
			}
			index := ""
			if f.Index >= 0 {
				index = strconv.Itoa(f.Index)
			}
			data = append(data, []string{refs[i], status, string(f.Kind), index, f.Name, oneLine(f.Message, width)})
		}
	}

	table := newTable(out, []string{"RESOURCE", "STATUS", "KIND", "INDEX", "TENSOR", "MESSAGE"})
	table.AppendBulk(data)
	table.Render()

	for i, r := range reports {
		if len(r.Traceback) == 0 {
			continue
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\nTraceback for %s (run %s):\n", refs[i], r.RunID)
		for _, line := range r.Traceback {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", line)
		}
	}
	return nil
}

// ============================================================================
// Diagnose
// ============================================================================

type debugOutput struct {
	RunID   string                       `json:"run_id"`
	Summary []resourcetest.TensorSummary `json:"summary"`
	Notes   []string                     `json:"notes,omitempty"`
}

func renderSummary(cmd *cobra.Command, d debugOutput, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, d)
	}

	var data [][]string
	for _, s := range d.Summary {
		data = append(data, []string{
			s.Stage,
			s.Name,
			s.Shape,
			strconv.FormatFloat(s.Min, 'g', 6, 64),
			strconv.FormatFloat(s.Max, 'g', 6, 64),
			strconv.FormatFloat(s.Mean, 'g', 6, 64),
		})
	}

	table := newTable(out, []string{"STAGE", "TENSOR", "SHAPE", "MIN", "MAX", "MEAN"})
	table.AppendBulk(data)
	table.Render()

	for _, n := range d.Notes {
		fmt.Fprintf(out, "\nNote: %s\n", n)
	}
	return nil
}
