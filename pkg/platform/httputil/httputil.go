// Package httputil provides small helpers for writing JSON error responses
// consistent with the domainerrors taxonomy.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "github.com/ltdomains/domain-analyzer/pkg/domainerrors"
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeInvalidInput:       http.StatusBadRequest,
	dErrors.CodeUnknownProfile:     http.StatusBadRequest,
	dErrors.CodeCircularDependency: http.StatusBadRequest,
	dErrors.CodeRateLimited:        http.StatusTooManyRequests,
	dErrors.CodeTransientNetwork:   http.StatusBadGateway,
	dErrors.CodeMalformed:          http.StatusBadGateway,
	dErrors.CodeBudgetExceeded:     http.StatusGatewayTimeout,
	dErrors.CodeStoreError:         http.StatusInternalServerError,
	dErrors.CodeInternal:           http.StatusInternalServerError,
}

// WriteError writes a JSON error body derived from err's domainerrors.Code.
// Internal-shaped errors omit their message from the response to avoid
// leaking implementation detail; all others include it.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	body := map[string]string{"error": string(code)}
	if status != http.StatusInternalServerError {
		body["error_description"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
