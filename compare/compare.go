// MODUL: compare
// ZWECK: Numerischer Vergleich von Modell-Output und Referenz-Output
// INPUT: tatsaechlicher Tensor, erwarteter Tensor, Dezimalstellen
// OUTPUT: Result (Match oder Mismatch mit Beschreibung und Statistik)
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: tensor, gonum/floats
// HINWEISE: Toleranz 1.5 * 10^-decimal, strikt kleiner. Gibt nie einen Fehler zurueck.
//           Shapes muessen gleich sein, nur Operanden mit genau einem Element werden gebroadcastet.

// Package compare vergleicht Tensoren auf N Dezimalstellen genau.
package compare

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/bioimageio/modeltest/tensor"
)

// previewLen begrenzt die Anzahl Werte in der Fehlermeldung
const previewLen = 6

// Stats fasst die Abweichungen eines Vergleichs zusammen.
type Stats struct {
	Total      int     `json:"total"`
	Mismatched int     `json:"mismatched"`
	MaxAbsDiff float64 `json:"max_abs_diff"`
	MaxRelDiff float64 `json:"max_rel_diff"`
	FirstIndex int     `json:"first_index"`
}

// Result ist entweder Match oder Mismatch mit Message.
type Result struct {
	Match   bool   `json:"match"`
	Message string `json:"message,omitempty"`
	Stats   Stats  `json:"stats"`
}

// Tolerance gibt die maximale absolute Abweichung fuer decimal Stellen zurueck.
func Tolerance(decimal int) float64 {
	return 1.5 * math.Pow10(-decimal)
}

// Comparable meldet, ob actual und expected elementweise verglichen werden:
// gleiche Shape oder ein Operand mit genau einem Element.
func Comparable(actual, expected *tensor.Tensor) bool {
	return actual.Shape.Equal(expected.Shape) || len(actual.Data) == 1 || len(expected.Data) == 1
}

// ShapeMismatch ist das Ergebnis fuer nicht vergleichbare Shapes.
func ShapeMismatch(actual, expected *tensor.Tensor, decimal int) Result {
	n := max(len(actual.Data), len(expected.Data))
	return Result{
		Message: fmt.Sprintf("%s\n\n(shapes %v, %v mismatch)\n x: %s\n y: %s",
			header(decimal), actual.Shape, expected.Shape, preview(actual.Data), preview(expected.Data)),
		Stats: Stats{Total: n, Mismatched: n, FirstIndex: 0},
	}
}

// AlmostEqual vergleicht actual und expected elementweise.
func AlmostEqual(actual, expected *tensor.Tensor, decimal int) Result {
	if !Comparable(actual, expected) {
		return ShapeMismatch(actual, expected, decimal)
	}

	a, e := actual.Data, expected.Data
	switch {
	case len(a) == len(e):
	case len(e) == 1:
		e = repeat(e[0], len(a))
	case len(a) == 1:
		a = repeat(a[0], len(e))
	}

	stats := compareValues(a, e, Tolerance(decimal))
	if stats.Mismatched == 0 {
		return Result{Match: true, Stats: stats}
	}

	var sb strings.Builder
	sb.WriteString(header(decimal))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Mismatched elements: %d / %d (%s%%)\n",
		stats.Mismatched, stats.Total, formatPercent(stats.Mismatched, stats.Total))
	fmt.Fprintf(&sb, "First mismatch at flat index: %d\n", stats.FirstIndex)
	fmt.Fprintf(&sb, "Max absolute difference among violations: %s\n", formatFloat(stats.MaxAbsDiff))
	fmt.Fprintf(&sb, "Max relative difference among violations: %s\n", formatFloat(stats.MaxRelDiff))
	fmt.Fprintf(&sb, " x: %s\n", preview(a))
	fmt.Fprintf(&sb, " y: %s", preview(e))

	return Result{Message: sb.String(), Stats: stats}
}

func compareValues(a, e []float64, tol float64) Stats {
	stats := Stats{Total: len(a), FirstIndex: -1}

	diff := make([]float64, len(a))
	floats.SubTo(diff, a, e)

	for i, d := range diff {
		if sameSpecial(a[i], e[i]) {
			continue
		}
		abs := math.Abs(d)
		if abs < tol {
			continue
		}

		// NaN, Inf oder Abweichung ueber Toleranz
		stats.Mismatched++
		if stats.FirstIndex < 0 {
			stats.FirstIndex = i
		}
		if abs > stats.MaxAbsDiff || math.IsNaN(abs) {
			stats.MaxAbsDiff = abs
		}
		rel := math.Inf(1)
		if e[i] != 0 {
			rel = abs / math.Abs(e[i])
		}
		if rel > stats.MaxRelDiff || math.IsNaN(rel) {
			stats.MaxRelDiff = rel
		}
	}
	return stats
}

// sameSpecial behandelt NaN an gleicher Stelle und gleiche Unendlichkeiten als gleich
func sameSpecial(a, e float64) bool {
	if math.IsNaN(a) && math.IsNaN(e) {
		return true
	}
	return math.IsInf(a, 0) && a == e
}

func header(decimal int) string {
	return fmt.Sprintf("Arrays are not almost equal to %d decimals", decimal)
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func preview(v []float64) string {
	n := min(len(v), previewLen)
	parts := make([]string, 0, n+1)
	for _, x := range v[:n] {
		parts = append(parts, formatFloat(x))
	}
	if len(v) > n {
		parts = append(parts, "...")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}

func formatPercent(n, total int) string {
	if total == 0 {
		return "0"
	}
	return strconv.FormatFloat(100*float64(n)/float64(total), 'g', 3, 64)
}
