// MODUL: errors
// ZWECK: Fehler-Definitionen und Abbildung auf HTTP-Status und API-Codes
// INPUT: Fehler aus rdf, pipeline, resourcetest und der Anfrage-Validierung
// OUTPUT: JSON-Fehlerantworten {"code": ..., "error": ...}
// NEBENEFFEKTE: HTTP-Responses schreiben
// ABHAENGIGKEITEN: gin, api
// HINWEISE: Ein nicht bestandener Test ist kein Fehler, er kommt als Report mit 200

package server

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/bioimageio/modeltest/api"
	"github.com/bioimageio/modeltest/pipeline"
	"github.com/bioimageio/modeltest/rdf"
	"github.com/bioimageio/modeltest/resourcetest"
)

// ============================================================================
// Fehler-Definitionen
// ============================================================================

var (
	// ErrMissingBody wird geworfen wenn die Anfrage keinen Body hat
	ErrMissingBody = errors.New("missing request body")

	// ErrModelRequired wird geworfen wenn kein Modell angegeben ist
	ErrModelRequired = errors.New("model is required")

	// ErrInvalidRequest wird geworfen bei ungueltigen Anfrage-Feldern
	ErrInvalidRequest = errors.New("invalid request")
)

// ============================================================================
// Fehler-Code Mapping
// ============================================================================

type errorMapping struct {
	err    error
	code   string
	status int
}

// errorCodes wird in Reihenfolge geprueft, der erste Treffer gilt
var errorCodes = []errorMapping{
	{ErrMissingBody, "MISSING_BODY", http.StatusBadRequest},
	{ErrModelRequired, "MODEL_REQUIRED", http.StatusBadRequest},
	{ErrInvalidRequest, "INVALID_REQUEST", http.StatusBadRequest},
	{resourcetest.ErrNotModel, "NOT_A_MODEL", http.StatusBadRequest},
	{rdf.ErrRemoteSource, "REMOTE_SOURCE", http.StatusBadRequest},
	{rdf.ErrInvalid, "INVALID_DESCRIPTION", http.StatusBadRequest},
	{rdf.ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	{os.ErrNotExist, "NOT_FOUND", http.StatusNotFound},
	{pipeline.ErrNoAdapter, "NO_ADAPTER", http.StatusUnprocessableEntity},
	{pipeline.ErrWeightsMissing, "WEIGHTS_MISSING", http.StatusUnprocessableEntity},
}

// classify gibt API-Code und HTTP-Status fuer einen Fehler zurueck.
func classify(err error) (string, int) {
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			return m.code, m.status
		}
	}
	return "INTERNAL_ERROR", http.StatusInternalServerError
}

// abortWithError schreibt den Fehler als JSON und bricht die Kette ab.
func abortWithError(c *gin.Context, err error) {
	code, status := classify(err)
	c.AbortWithStatusJSON(status, api.StatusError{Code: code, ErrorMessage: err.Error()})
}
