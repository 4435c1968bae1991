// Package handler provides the HTTP surface of the checkout edge proxy.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"checkout-proxy/internal/model"
	"checkout-proxy/internal/provider"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	registry      *provider.Registry
	logger        *slog.Logger
	allowedOrigin string
}

// New creates a Handler dispatching through the given provider registry.
// allowedOrigin is the CORS origin to advertise; empty means "*".
func New(registry *provider.Registry, logger *slog.Logger, allowedOrigin string) *Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return &Handler{
		registry:      registry,
		logger:        logger,
		allowedOrigin: allowedOrigin,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// /checkout is registered without a method pattern: method handling is done
// inside so that 405s still carry the JSON envelope and CORS headers.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/checkout", h.handleCheckout)

	// MCP transport - same provider registry over JSON-RPC
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)

	// Everything else gets the 404 envelope, not the mux default page.
	mux.HandleFunc("/", h.handleNotFound)
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// setCORS writes the permissive CORS headers. Every response carries them,
// success and error alike, so the page's fetch never fails purely on a
// cross-origin policy check.
func (h *Handler) setCORS(w http.ResponseWriter) {
	header := w.Header()
	header.Set("Access-Control-Allow-Origin", h.allowedOrigin)
	header.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Content-Type")
}

// writeEnvelope sends the uniform response envelope with the given status.
func (h *Handler) writeEnvelope(w http.ResponseWriter, status int, env model.Envelope) {
	h.setCORS(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError renders err as an envelope. Structured APIErrors keep their
// code and status; anything else becomes a 500 with the error's message:
// handler faults are rendered, never leaked as an unhandled fault or an
// empty body.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = &model.APIError{
			Code:       500,
			Message:    err.Error(),
			StatusCode: 500,
			Err:        err,
		}
	}

	h.writeEnvelope(w, apiErr.StatusCode, model.Envelope{
		Code: apiErr.Code,
		Msg:  apiErr.Message,
	})
}

// handleNotFound answers any unrouted path with the 404 envelope.
func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		h.handlePreflight(w, r)
		return
	}
	h.writeEnvelope(w, http.StatusNotFound, model.Envelope{Code: 404, Msg: "Not Found"})
}

// handleHealth returns a simple health check response.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.setCORS(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(healthResponse{Status: "ok"})
}

type healthResponse struct {
	Status string `json:"status"`
}

// decodeJSON reads JSON from the request body into v, capped at
// MaxRequestBodySize.
func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose decoder internals to the client.
		return &model.APIError{
			Code:       400,
			Message:    "invalid JSON body",
			StatusCode: 400,
			Err:        model.ErrUnsupported,
		}
	}
	return nil
}
