// Package cmd - Server- und Versions-Commands
// Dieses Modul enthaelt RunServer, versionHandler und newServeCmd.
package cmd

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/bioimageio/modeltest/api"
	"github.com/bioimageio/modeltest/envconfig"
	"github.com/bioimageio/modeltest/server"
	"github.com/bioimageio/modeltest/version"
)

// RunServer - Startet den modeltest Server
func RunServer(_ *cobra.Command, _ []string) error {
	ln, err := net.Listen("tcp", envconfig.Host())
	if err != nil {
		return err
	}

	err = server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// versionHandler - Zeigt Client- und Server-Version
func versionHandler(cmd *cobra.Command, _ []string) {
	fmt.Fprintf(cmd.OutOrStdout(), "modeltest version is %s\n", version.Version)

	client, err := api.ClientFromEnvironment()
	if err != nil {
		return
	}

	serverVersion, err := client.Version(cmd.Context())
	if err != nil {
		return
	}

	if serverVersion != version.Version {
		fmt.Fprintf(cmd.OutOrStdout(), "Warning: server at %s is version %s\n", envconfig.Host(), serverVersion)
	}
}

// newServeCmd - Erstellt den serve Command
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the modeltest server",
		Args:    cobra.ExactArgs(0),
		RunE:    RunServer,
	}
}
