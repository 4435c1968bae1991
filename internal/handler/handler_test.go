package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"checkout-proxy/internal/model"
	"checkout-proxy/internal/provider"
)

func testHandler(mock *provider.Mock) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := provider.NewRegistry()
	if mock != nil {
		registry.Register("shopyy", mock)
	}
	h := New(registry, logger, "")
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

func postCheckout(t *testing.T, mux *http.ServeMux, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	req := httptest.NewRequest("POST", "/checkout", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func validOrderRequest() model.OrderRequest {
	return model.OrderRequest{
		Provider:  "shopyy",
		Domain:    "https://store.example",
		ProductID: "1001",
		SKUCode:   "S-1",
		Quantity:  1,
		DataFrom:  "external_lander",
	}
}

func assertCORS(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	tests := []struct {
		header string
		want   string
	}{
		{"Access-Control-Allow-Origin", "*"},
		{"Access-Control-Allow-Methods", "POST, OPTIONS"},
		{"Access-Control-Allow-Headers", "Content-Type"},
	}
	for _, tt := range tests {
		if got := w.Header().Get(tt.header); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestPreflight(t *testing.T) {
	mux := testHandler(nil)

	req := httptest.NewRequest("OPTIONS", "/checkout", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	assertCORS(t, w)
}

func TestWrongPath(t *testing.T) {
	mux := testHandler(nil)

	req := httptest.NewRequest("POST", "/orders", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", w.Code)
	}
	var env model.Envelope
	json.NewDecoder(w.Body).Decode(&env)
	if env.Code != 404 {
		t.Errorf("envelope code = %d, want 404", env.Code)
	}
	assertCORS(t, w)
}

func TestWrongMethod(t *testing.T) {
	mux := testHandler(nil)

	for _, method := range []string{"GET", "PUT", "DELETE"} {
		req := httptest.NewRequest(method, "/checkout", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: Status = %d, want 405", method, w.Code)
		}
		var env model.Envelope
		json.NewDecoder(w.Body).Decode(&env)
		if env.Code != 405 {
			t.Errorf("%s: envelope code = %d, want 405", method, env.Code)
		}
		assertCORS(t, w)
	}
}

func TestUnsupportedProvider(t *testing.T) {
	mux := testHandler(&provider.Mock{})

	reqBody := validOrderRequest()
	reqBody.Provider = "shopify"
	w := postCheckout(t, mux, reqBody)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", w.Code)
	}
	var env model.Envelope
	json.NewDecoder(w.Body).Decode(&env)
	if env.Code != 400 || env.Msg != "Unsupported provider" {
		t.Errorf("envelope = %+v, want {400 Unsupported provider}", env)
	}
	assertCORS(t, w)
}

func TestCreateOrderSuccess(t *testing.T) {
	var gotReq *model.OrderRequest
	mock := &provider.Mock{
		CreateOrderFunc: func(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
			gotReq = req
			return &model.Order{CheckoutURL: "https://store.example/o/123"}, nil
		},
	}
	mux := testHandler(mock)

	w := postCheckout(t, mux, validOrderRequest())

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	var env model.Envelope
	json.NewDecoder(w.Body).Decode(&env)
	if env.Code != 0 {
		t.Errorf("envelope code = %d, want 0", env.Code)
	}
	if env.Data == nil || env.Data.CheckoutURL != "https://store.example/o/123" {
		t.Errorf("envelope data = %+v, want checkoutUrl", env.Data)
	}
	if gotReq == nil || gotReq.ProductID != "1001" {
		t.Errorf("handler received %+v, want the posted request", gotReq)
	}
	assertCORS(t, w)
}

func TestProviderRejectionPassthrough(t *testing.T) {
	mock := &provider.Mock{
		CreateOrderFunc: func(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
			return nil, model.NewRejectionError(7, "sold out")
		},
	}
	mux := testHandler(mock)

	w := postCheckout(t, mux, validOrderRequest())

	// Provider business errors are 400s with the provider's own code and
	// message, not 500s: the shopper can correct and retry.
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", w.Code)
	}
	var env model.Envelope
	json.NewDecoder(w.Body).Decode(&env)
	if env.Code != 7 || env.Msg != "sold out" {
		t.Errorf("envelope = %+v, want {7 sold out}", env)
	}
	assertCORS(t, w)
}

func TestProviderFaultBecomes500(t *testing.T) {
	mock := &provider.Mock{
		CreateOrderFunc: func(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
			return nil, model.NewUpstreamError("Shopyy", io.ErrUnexpectedEOF)
		},
	}
	mux := testHandler(mock)

	w := postCheckout(t, mux, validOrderRequest())

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", w.Code)
	}
	var env model.Envelope
	json.NewDecoder(w.Body).Decode(&env)
	if env.Code != 500 {
		t.Errorf("envelope code = %d, want 500", env.Code)
	}
	assertCORS(t, w)
}

func TestInvalidJSONBody(t *testing.T) {
	mux := testHandler(&provider.Mock{})

	req := httptest.NewRequest("POST", "/checkout", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", w.Code)
	}
	assertCORS(t, w)
}

func TestHandleHealth(t *testing.T) {
	mux := testHandler(nil)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", w.Code)
	}
	var resp healthResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Status != "ok" {
		t.Errorf("Status = %s, want ok", resp.Status)
	}
}
