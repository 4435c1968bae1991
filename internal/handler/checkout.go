package handler

import (
	"log/slog"
	"net/http"

	"checkout-proxy/internal/model"
)

// handleCheckout serves /checkout for all methods.
//
//	OPTIONS → preflight, no body processing
//	POST    → create order via the provider registry
//	other   → 405 envelope
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		h.handlePreflight(w, r)
	case http.MethodPost:
		h.handleCreateOrder(w, r)
	default:
		h.writeEnvelope(w, http.StatusMethodNotAllowed,
			model.Envelope{Code: 405, Msg: "Method Not Allowed"})
	}
}

// handlePreflight answers CORS preflight requests immediately. This is a
// required responder for the browser, not a business operation.
func (h *Handler) handlePreflight(w http.ResponseWriter, r *http.Request) {
	h.setCORS(w)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleCreateOrder dispatches an order request to its provider handler and
// translates the result into the uniform envelope.
// POST /checkout
func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.OrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	logAttrs := []any{
		slog.String("provider", req.Provider),
		slog.String("domain", req.Domain),
		slog.String("product_id", req.ProductID),
		slog.Int("quantity", req.Quantity),
	}
	if attr, ok := parseAttribution(r.Header.Get(attributionHeader)); ok {
		logAttrs = append(logAttrs,
			slog.String("lander_page", attr.Page),
			slog.String("lander_campaign", attr.Campaign),
		)
	}
	h.logger.InfoContext(ctx, "creating order", logAttrs...)

	handler, ok := h.registry.Lookup(req.Provider)
	if !ok {
		h.writeError(w, model.NewUnsupportedProviderError(req.Provider))
		return
	}

	order, err := handler.CreateOrder(ctx, &req)
	if err != nil {
		h.logger.ErrorContext(ctx, "order creation failed",
			slog.String("provider", req.Provider),
			slog.String("error", err.Error()),
		)
		h.writeError(w, err)
		return
	}

	h.writeEnvelope(w, http.StatusOK, model.Envelope{
		Code: 0,
		Msg:  "ok",
		Data: order,
	})
}
