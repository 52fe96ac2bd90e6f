// MODUL: report
// ZWECK: Testbericht mit strukturierten Fehler-Eintraegen und Traceback
// INPUT: weiche Fehler (Failure), fatale Fehler (error mit Stacktrace)
// OUTPUT: Report mit Error (nil bei Erfolg) und Traceback (nur bei fatalen Fehlern)
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: github.com/pkg/errors (Stacktraces)
// HINWEISE: Meldungen werden nie ueberschrieben, nur angehaengt. Error wird erst
//           am Ende aus der Failure-Liste zusammengesetzt.

package resourcetest

import (
	stderrors "errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// FailureKind ordnet einen Fehler einer Phase zu.
type FailureKind string

const (
	KindLoad        FailureKind = "load"
	KindNotModel    FailureKind = "not_model"
	KindInputShape  FailureKind = "input_shape"
	KindOutputShape FailureKind = "output_shape"
	KindPredict     FailureKind = "predict"
	KindCardinality FailureKind = "cardinality"
	KindValue       FailureKind = "value"
	KindInternal    FailureKind = "internal"
)

// Failure ist ein einzelner gefundener Fehler.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Index   int         `json:"index"`
	Name    string      `json:"name,omitempty"`
	Message string      `json:"message"`
	Fatal   bool        `json:"fatal,omitempty"`
}

// Report ist das Ergebnis eines Testlaufs. Error ist genau dann nil,
// wenn Validierung und Vergleich vollstaendig erfolgreich waren.
type Report struct {
	RunID     string    `json:"run_id"`
	Source    string    `json:"source,omitempty"`
	Error     *string   `json:"error"`
	Traceback []string  `json:"traceback"`
	Failures  []Failure `json:"failures,omitempty"`
}

func newReport(source string) *Report {
	return &Report{RunID: uuid.NewString(), Source: source}
}

// OK meldet ob der Lauf fehlerfrei war.
func (r *Report) OK() bool {
	return r.Error == nil
}

// Messages gibt alle Meldungen in Reihenfolge zurueck.
func (r *Report) Messages() []string {
	msgs := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		msgs[i] = f.Message
	}
	return msgs
}

// soft haengt einen weichen Fehler an.
func (r *Report) soft(kind FailureKind, index int, name, msg string) {
	r.Failures = append(r.Failures, Failure{Kind: kind, Index: index, Name: name, Message: msg})
}

// fatal haengt einen fatalen Fehler an und setzt den Traceback.
func (r *Report) fatal(err error) {
	f := Failure{Kind: KindInternal, Index: -1, Message: err.Error(), Fatal: true}
	var se *stageError
	if stderrors.As(err, &se) {
		f.Kind, f.Index, f.Name = se.Kind, se.Index, se.Name
	}
	r.Failures = append(r.Failures, f)
	r.Traceback = traceback(err)
}

// panicked behandelt eine abgefangene Panic wie einen fatalen Fehler.
func (r *Report) panicked(p any, stack []byte) {
	r.Failures = append(r.Failures, Failure{
		Kind:    KindInternal,
		Index:   -1,
		Message: fmt.Sprint(p),
		Fatal:   true,
	})
	r.Traceback = splitStack(string(stack))
}

// finish setzt Error aus allen gesammelten Meldungen zusammen.
func (r *Report) finish() {
	if len(r.Failures) == 0 {
		r.Error = nil
		return
	}
	msg := strings.Join(r.Messages(), "\n")
	r.Error = &msg
}

// ============================================================================
// Fatale Fehler
// ============================================================================

// stageError markiert einen fatalen Fehler mit Phase und Tensor.
type stageError struct {
	Kind  FailureKind
	Index int
	Name  string
	Err   error
}

func (e *stageError) Error() string {
	return e.Err.Error()
}

func (e *stageError) Unwrap() error {
	return e.Err
}

// abort verpackt err als fatalen Fehler der Phase kind mit Stacktrace.
func abort(kind FailureKind, index int, name string, err error) error {
	return errors.WithStack(&stageError{Kind: kind, Index: index, Name: name, Err: err})
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// traceback nimmt den innersten Stacktrace in der Fehlerkette,
// er liegt am naechsten an der eigentlichen Ursache.
func traceback(err error) []string {
	var st stackTracer
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		if s, ok := e.(stackTracer); ok {
			st = s
		}
	}
	if st == nil {
		return splitStack(string(debug.Stack()))
	}

	frames := st.StackTrace()
	lines := make([]string, 0, len(frames))
	for _, f := range frames {
		lines = append(lines, fmt.Sprintf("%+v", f))
	}
	return lines
}

func splitStack(stack string) []string {
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(stack), "\n") {
		if l = strings.TrimRight(l, " \t"); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
