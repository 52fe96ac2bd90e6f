// Package api - Anfrage- und Antworttypen der HTTP-Schnittstelle.
// Enthaelt: StatusError, TestRequest, DebugRequest, DebugResponse, VersionResponse
package api

import (
	"fmt"

	"github.com/bioimageio/modeltest/resourcetest"
	"github.com/bioimageio/modeltest/shape"
)

// StatusError is an error with an HTTP status code and message.
type StatusError struct {
	StatusCode   int    `json:"-"`
	Status       string `json:"-"`
	Code         string `json:"code"`
	ErrorMessage string `json:"error"`
}

func (e StatusError) Error() string {
	switch {
	case e.Status != "" && e.ErrorMessage != "":
		return fmt.Sprintf("%s: %s", e.Status, e.ErrorMessage)
	case e.Status != "":
		return e.Status
	case e.ErrorMessage != "":
		return e.ErrorMessage
	default:
		return "something went wrong, please see the modeltest server logs for details"
	}
}

// TestRequest startet einen Regressionstest auf dem Server.
// Model ist ein Pfad (Datei oder Verzeichnis), den der Server lesen kann.
type TestRequest struct {
	Model string `json:"model"`

	// Resource testet beliebige Ressourcen, Nicht-Modelle bestehen dann
	Resource bool `json:"resource,omitempty"`

	// Ueberschreiben die Server-Defaults, leer = Default
	Decimal      *int     `json:"decimal,omitempty"`
	Devices      []string `json:"devices,omitempty"`
	WeightFormat string   `json:"weight_format,omitempty"`
	ShapeSearch  string   `json:"shape_search,omitempty"`
}

// TestResponse ist der Testbericht.
type TestResponse = resourcetest.Report

// DebugRequest startet einen Diagnoselauf.
type DebugRequest struct {
	Model        string   `json:"model"`
	Devices      []string `json:"devices,omitempty"`
	WeightFormat string   `json:"weight_format,omitempty"`
}

// DebugResponse fasst einen Diagnoselauf zusammen. Die Tensoren selbst
// werden nicht uebertragen.
type DebugResponse struct {
	RunID   string                       `json:"run_id"`
	Summary []resourcetest.TensorSummary `json:"summary"`
	Notes   []string                     `json:"notes,omitempty"`
}

// VersionResponse ist die Antwort von /api/version.
type VersionResponse struct {
	Version string `json:"version"`
}

// Options wendet die Felder der Anfrage auf base an.
func (r *TestRequest) Options(base resourcetest.Options) (resourcetest.Options, error) {
	opts := base
	if r.Decimal != nil {
		if *r.Decimal < 0 {
			return opts, fmt.Errorf("decimal must not be negative, got %d", *r.Decimal)
		}
		opts.Decimal = *r.Decimal
	}
	if len(r.Devices) > 0 {
		opts.Devices = r.Devices
	}
	if r.WeightFormat != "" {
		opts.WeightFormat = r.WeightFormat
	}
	if r.ShapeSearch != "" {
		mode, err := shape.ParseSearchMode(r.ShapeSearch)
		if err != nil {
			return opts, err
		}
		opts.SearchMode = mode
	}
	return opts, nil
}

// Options wendet die Felder der Anfrage auf base an.
func (r *DebugRequest) Options(base resourcetest.Options) resourcetest.Options {
	opts := base
	if len(r.Devices) > 0 {
		opts.Devices = r.Devices
	}
	if r.WeightFormat != "" {
		opts.WeightFormat = r.WeightFormat
	}
	return opts
}
