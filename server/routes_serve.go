// routes_serve.go - Server-Start und Lifecycle-Management
// Enthaelt: Serve() - Hauptfunktion zum Starten des HTTP-Servers

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bioimageio/modeltest/envconfig"
	"github.com/bioimageio/modeltest/logutil"
	"github.com/bioimageio/modeltest/pipeline"
	"github.com/bioimageio/modeltest/resourcetest"
	"github.com/bioimageio/modeltest/version"
)

// Serve startet den HTTP-Server und blockiert bis SIGINT/SIGTERM
func Serve(ln net.Listener) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	slog.Info("server config", "env", envconfig.Values())

	s := NewServer(ln.Addr(), resourcetest.DefaultOptions())
	h, err := s.GenerateRoutes()
	if err != nil {
		return err
	}

	adapters := logAdapters(pipeline.Default)

	slog.Info(fmt.Sprintf("Listening on %s (version %s)", ln.Addr(), version.Version), "adapters", adapters)
	srvr := &http.Server{Handler: h}

	ctx, done := context.WithCancel(context.Background())

	// Laufende Pipelines werden von ihren Handlern geschlossen
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		srvr.Close()
		done()
	}()

	err = srvr.Serve(ln)
	// Bei Close aus dem Signal-Handler auf ctx warten, sonst sofort zurueck
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-ctx.Done()
	return nil
}

// logAdapters gibt die registrierten Adapter zurueck und warnt, wenn keiner
// registriert ist. Dann endet jeder Modelltest mit NO_ADAPTER.
func logAdapters(reg *pipeline.Registry) []string {
	adapters := reg.List()
	if len(adapters) == 0 {
		slog.Warn("no pipeline adapters registered in this build, model tests fail at prediction and /api/debug returns NO_ADAPTER",
			"hint", "register a factory with pipeline.Default.Register or use a server that has one")
	}
	return adapters
}
