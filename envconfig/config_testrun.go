// config_testrun.go - Einstellungen fuer Modell-Testlaeufe
//
// Dieses Modul enthaelt:
// - Decimal: Genauigkeit fuer den Output-Vergleich
// - WeightFormat: bevorzugtes Gewichtsformat
// - ShapeSearch: Suchmodus fuer parametrisierte Input-Shapes
// - SampleWorkers: parallele Dekodierung von Beispieldateien
// - MaxRuns: gleichzeitige Testlaeufe im Server
package envconfig

import (
	"log/slog"
	"strconv"
)

// =============================================================================
// Vergleich und Pipeline
// =============================================================================

// DefaultDecimal ist die Standard-Anzahl Dezimalstellen
const DefaultDecimal = 4

// Decimal gibt die Dezimalstellen fuer den Output-Vergleich zurueck
// Konfigurierbar via BIOIMAGEIO_DECIMAL
// Default: 4 (Toleranz 1.5e-4)
func Decimal() int {
	if s := Var("BIOIMAGEIO_DECIMAL"); s != "" {
		n, err := strconv.Atoi(s)
		if err == nil && n >= 0 {
			return n
		}
		slog.Warn("invalid environment variable, using default", "key", "BIOIMAGEIO_DECIMAL", "value", s, "default", DefaultDecimal)
	}
	return DefaultDecimal
}

var (
	// WeightFormat erzwingt ein Gewichtsformat (leer = Prioritaet aus dem Modell)
	WeightFormat = String("BIOIMAGEIO_WEIGHT_FORMAT")

	// ShapeSearch waehlt den Suchmodus fuer parametrisierte Shapes (lockstep, per_axis)
	ShapeSearch = String("BIOIMAGEIO_SHAPE_SEARCH")

	// SampleWorkers begrenzt die parallele Dekodierung von Beispieldateien
	SampleWorkers = Uint("BIOIMAGEIO_SAMPLE_WORKERS", 4)

	// MaxRuns begrenzt gleichzeitige Testlaeufe im Server, Pipelines halten Geraete
	MaxRuns = Uint("BIOIMAGEIO_MAX_RUNS", 1)

	// JSONOutput erzwingt JSON statt Tabellen in der CLI
	JSONOutput = Bool("BIOIMAGEIO_JSON")
)
