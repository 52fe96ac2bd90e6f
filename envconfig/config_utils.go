// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - BoolWithDefault/Bool: Boolean-Getter mit Default-Wert
// - String: String-Getter
// - Uint: Integer-Getter mit Default-Wert
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import (
	"fmt"
	"log/slog"
	"strconv"
)

// =============================================================================
// Getter-Fabriken
// =============================================================================

// BoolWithDefault gibt eine Funktion zurueck, die einen Bool mit Default-Wert liest
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// String gibt eine Funktion zurueck, die einen String liest
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// Uint gibt eine Funktion zurueck, die einen uint mit Default-Wert liest
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// =============================================================================
// Export
// =============================================================================

// EnvVar repraesentiert eine Environment-Variable mit Metadaten
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"BIOIMAGEIO_DEBUG":          {"BIOIMAGEIO_DEBUG", LogLevel(), "Show additional debug information (e.g. BIOIMAGEIO_DEBUG=1)"},
		"BIOIMAGEIO_HOST":           {"BIOIMAGEIO_HOST", Host(), "Listen address for the test server (default 127.0.0.1:11435)"},
		"BIOIMAGEIO_ORIGINS":        {"BIOIMAGEIO_ORIGINS", AllowedOrigins(), "A comma separated list of allowed origins"},
		"BIOIMAGEIO_DECIMAL":        {"BIOIMAGEIO_DECIMAL", Decimal(), "Decimal places for output comparison (default 4)"},
		"BIOIMAGEIO_DEVICES":        {"BIOIMAGEIO_DEVICES", Devices(), "Comma separated devices for the prediction pipeline"},
		"BIOIMAGEIO_WEIGHT_FORMAT":  {"BIOIMAGEIO_WEIGHT_FORMAT", WeightFormat(), "Weight format to test (default: model priority)"},
		"BIOIMAGEIO_SHAPE_SEARCH":   {"BIOIMAGEIO_SHAPE_SEARCH", ShapeSearch(), "Parametrized shape search: lockstep or per_axis (default lockstep)"},
		"BIOIMAGEIO_SAMPLE_WORKERS": {"BIOIMAGEIO_SAMPLE_WORKERS", SampleWorkers(), "Parallel sample file decoders (default 4)"},
		"BIOIMAGEIO_MAX_RUNS":       {"BIOIMAGEIO_MAX_RUNS", MaxRuns(), "Maximum concurrent test runs in the server (default 1)"},
		"BIOIMAGEIO_JSON":           {"BIOIMAGEIO_JSON", JSONOutput(), "Always print reports as JSON"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
