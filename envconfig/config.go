// config.go - Haupt-Konfigurationsfunktionen fuer modeltest
//
// Dieses Modul enthaelt:
// - Host: Gibt die Listen-Adresse des Servers zurueck (BIOIMAGEIO_HOST)
// - AllowedOrigins: Gibt erlaubte CORS-Origins zurueck (BIOIMAGEIO_ORIGINS)
// - Decimal: Gibt die Standard-Genauigkeit zurueck (BIOIMAGEIO_DECIMAL)
// - Devices: Gibt die Geraeteliste fuer Pipelines zurueck (BIOIMAGEIO_DEVICES)
// - LogLevel: Gibt Log-Level zurueck (BIOIMAGEIO_DEBUG)
//
// Weitere Konfigurationen sind ausgelagert:
// - config_testrun.go: Einstellungen fuer Testlaeufe
// - config_utils.go: Utility-Funktionen und AsMap/Values
package envconfig

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
)

// defaultPort ist der Standard-Port des Test-Servers
const defaultPort = "11435"

// Host gibt Host und Port fuer den Server zurueck
// Konfigurierbar via BIOIMAGEIO_HOST
// Default: 127.0.0.1:11435
func Host() string {
	s := strings.TrimSpace(Var("BIOIMAGEIO_HOST"))
	s = strings.TrimPrefix(strings.TrimPrefix(s, "http://"), "https://")
	s, _, _ = strings.Cut(s, "/")

	host, port, err := net.SplitHostPort(s)
	if err != nil {
		host, port = "127.0.0.1", defaultPort
		if ip := net.ParseIP(strings.Trim(s, "[]")); ip != nil {
			host = ip.String()
		} else if s != "" {
			host = s
		}
	}

	if n, err := strconv.ParseInt(port, 10, 32); err != nil || n > 65535 || n < 0 {
		slog.Warn("invalid port, using default", "port", port, "default", defaultPort)
		port = defaultPort
	}

	return net.JoinHostPort(host, port)
}

// AllowedOrigins gibt erlaubte Origins zurueck
// Konfigurierbar via BIOIMAGEIO_ORIGINS (komma-separiert)
// Enthaelt Standard-Origins fuer localhost
func AllowedOrigins() (origins []string) {
	if s := Var("BIOIMAGEIO_ORIGINS"); s != "" {
		origins = strings.Split(s, ",")
	}

	for _, origin := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		origins = append(origins,
			fmt.Sprintf("http://%s", origin),
			fmt.Sprintf("https://%s", origin),
			fmt.Sprintf("http://%s", net.JoinHostPort(origin, "*")),
			fmt.Sprintf("https://%s", net.JoinHostPort(origin, "*")),
		)
	}

	return origins
}

// Devices gibt die Geraete fuer die Prediction-Pipeline zurueck
// Konfigurierbar via BIOIMAGEIO_DEVICES (komma-separiert, z.B. "cuda:0,cpu")
// Default: leer (Pipeline entscheidet)
func Devices() []string {
	raw := strings.TrimSpace(Var("BIOIMAGEIO_DEVICES"))
	if raw == "" {
		return nil
	}

	var devices []string
	for _, d := range strings.Split(raw, ",") {
		if d = strings.TrimSpace(d); d != "" {
			devices = append(devices, d)
		}
	}
	return devices
}

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via BIOIMAGEIO_DEBUG
// Werte: 0/false = INFO (Default), 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("BIOIMAGEIO_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
