package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/tonearmhq/tonearm/internal/bridge/smapi"
)

// maxRequestBody caps how much of a request body the endpoint will read.
// Real player requests are well under a kilobyte.
const maxRequestBody = 1 << 20

// SMAPIHandler serves POST /smapi, the single endpoint players talk to.
// All routing happens inside the request body; the dispatcher decodes the
// envelope and picks the operation.
type SMAPIHandler struct {
	Dispatcher *smapi.Dispatcher
}

func (h *SMAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	status, body := h.Dispatcher.Dispatch(r.Context(), raw, extractBearerToken(r))

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		return parts[1]
	}
	return ""
}
