// Package cmd - Haupt-CLI fuer modeltest
// Dieses Modul enthaelt NewCLI, die Environment-Dokumentation und gemeinsame Flags.
// Die Handler liegen in cmd_check.go, cmd_debug.go, cmd_serve.go und cmd_envs.go.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bioimageio/modeltest/envconfig"
	"github.com/bioimageio/modeltest/logutil"
	"github.com/bioimageio/modeltest/resourcetest"
	"github.com/bioimageio/modeltest/shape"
)

// newTester ist austauschbar, damit Tests Fake-Pipelines einsetzen koennen
var newTester = resourcetest.NewTester

// appendEnvDocs haengt die relevanten Environment-Variablen an die Hilfe an
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-26s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "modeltest",
		Short:         "Test bioimage.io model resources against their own sample data",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// Der Server setzt seinen eigenen Logger
			if cmd.Name() != "serve" {
				slog.SetDefault(logutil.NewLogger(os.Stderr, cliLogLevel()))
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			if version, _ := cmd.Flags().GetBool("version"); version {
				versionHandler(cmd, args)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	testCmd := newTestCmd()
	debugCmd := newDebugCmd()
	serveCmd := newServeCmd()
	envsCmd := newEnvsCmd()

	envVars := envconfig.AsMap()
	run := []envconfig.EnvVar{
		envVars["BIOIMAGEIO_DECIMAL"],
		envVars["BIOIMAGEIO_DEVICES"],
		envVars["BIOIMAGEIO_WEIGHT_FORMAT"],
		envVars["BIOIMAGEIO_SHAPE_SEARCH"],
		envVars["BIOIMAGEIO_SAMPLE_WORKERS"],
		envVars["BIOIMAGEIO_JSON"],
		envVars["BIOIMAGEIO_HOST"],
	}

	for _, cmd := range []*cobra.Command{testCmd, debugCmd, serveCmd} {
		switch cmd {
		case serveCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["BIOIMAGEIO_DEBUG"],
				envVars["BIOIMAGEIO_HOST"],
				envVars["BIOIMAGEIO_ORIGINS"],
				envVars["BIOIMAGEIO_MAX_RUNS"],
				envVars["BIOIMAGEIO_DECIMAL"],
				envVars["BIOIMAGEIO_DEVICES"],
				envVars["BIOIMAGEIO_SHAPE_SEARCH"],
			})
		default:
			appendEnvDocs(cmd, run)
		}
	}

	rootCmd.AddCommand(testCmd, debugCmd, serveCmd, envsCmd)

	return rootCmd
}

// cliLogLevel: ohne BIOIMAGEIO_DEBUG nur Fehler, die Ergebnisse stehen im Report
func cliLogLevel() slog.Level {
	if level := envconfig.LogLevel(); level < slog.LevelInfo {
		return level
	}
	return slog.LevelError
}

// ============================================================================
// Gemeinsame Flags
// ============================================================================

// addRunFlags registriert die Flags fuer Pipeline und Vergleich
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("devices", nil, "Devices for the prediction pipeline (e.g. cuda:0,cpu)")
	cmd.Flags().String("weight-format", "", "Weight format to use (default: model priority)")
	cmd.Flags().Bool("remote", false, "Run on the modeltest server at BIOIMAGEIO_HOST")
	cmd.Flags().String("format", "auto", "Output format: auto, table or json")
}

// optionsFromFlags startet bei den Umgebungswerten und uebernimmt gesetzte Flags
func optionsFromFlags(cmd *cobra.Command) (resourcetest.Options, error) {
	opts := resourcetest.DefaultOptions()
	flags := cmd.Flags()

	if flags.Changed("devices") {
		opts.Devices, _ = flags.GetStringSlice("devices")
	}
	if flags.Changed("weight-format") {
		opts.WeightFormat, _ = flags.GetString("weight-format")
	}
	if flags.Lookup("decimal") != nil && flags.Changed("decimal") {
		decimal, _ := flags.GetInt("decimal")
		if decimal < 0 {
			return opts, fmt.Errorf("--decimal must not be negative, got %d", decimal)
		}
		opts.Decimal = decimal
	}
	if flags.Lookup("shape-search") != nil && flags.Changed("shape-search") {
		s, _ := flags.GetString("shape-search")
		mode, err := shape.ParseSearchMode(s)
		if err != nil {
			return opts, err
		}
		opts.SearchMode = mode
	}
	return opts, nil
}

// remoteRef macht lokale Pfade absolut, der Server hat ein anderes Arbeitsverzeichnis
func remoteRef(ref string) string {
	if strings.Contains(ref, "://") {
		return ref
	}
	if abs, err := filepath.Abs(ref); err == nil {
		return abs
	}
	return ref
}
