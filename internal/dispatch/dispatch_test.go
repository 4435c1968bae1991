package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"checkout-proxy/internal/model"
)

// recordingNavigator captures navigations instead of performing them.
type recordingNavigator struct {
	urls []string
	err  error
}

func (n *recordingNavigator) Navigate(url string) error {
	if n.err != nil {
		return n.err
	}
	n.urls = append(n.urls, url)
	return nil
}

var product = model.Product{
	SKU:      "SKU-001",
	Name:     "Trail Lantern",
	Price:    59.9,
	Currency: "USD",
}

func providerConfig() model.ProviderCheckout {
	return model.ProviderCheckout{
		Provider:  "shopyy",
		Domain:    "https://store.example",
		ProductID: "1001",
		SKUCode:   "S-1",
	}
}

func newTestDispatcher(proxyEndpoint string, nav Navigator, states *[]ButtonState) *Dispatcher {
	return New(Config{
		ProxyEndpoint: proxyEndpoint,
		Navigator:     nav,
		OnStateChange: func(s ButtonState) {
			if states != nil {
				*states = append(*states, s)
			}
		},
	})
}

func TestSubmitNavigatePlan(t *testing.T) {
	nav := &recordingNavigator{}
	var states []ButtonState
	d := newTestDispatcher("", nav, &states)

	outcome, err := d.Submit(context.Background(), model.DirectCheckout{URL: "https://shop.example/p"}, product, "3")
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	if len(nav.urls) != 1 || nav.urls[0] != "https://shop.example/p" {
		t.Errorf("navigations = %v, want the direct URL", nav.urls)
	}
	if outcome.Quantity != 3 {
		t.Errorf("Quantity = %d, want 3", outcome.Quantity)
	}
	// Page is navigating away: the button stays in the submitting state.
	if d.State() != StateSubmitting {
		t.Errorf("State = %v, want submitting", d.State())
	}
	if len(states) != 1 || states[0] != StateSubmitting {
		t.Errorf("state transitions = %v, want [submitting]", states)
	}
}

func TestSubmitProxySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.OrderRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Provider != "shopyy" || req.Quantity != 2 {
			t.Errorf("proxy received %+v", req)
		}
		json.NewEncoder(w).Encode(model.Envelope{
			Code: 0, Msg: "ok",
			Data: &model.Order{CheckoutURL: "https://store.example/o/1"},
		})
	}))
	defer srv.Close()

	nav := &recordingNavigator{}
	d := newTestDispatcher(srv.URL, nav, nil)

	outcome, err := d.Submit(context.Background(), providerConfig(), product, "2")
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if outcome.URL != "https://store.example/o/1" {
		t.Errorf("URL = %q, want proxy checkout URL", outcome.URL)
	}
	if len(nav.urls) != 1 {
		t.Errorf("navigations = %v, want exactly one", nav.urls)
	}
	if d.State() != StateSubmitting {
		t.Errorf("State = %v, want submitting", d.State())
	}
}

func TestSubmitProxyRejectionRevertsToIdle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(model.Envelope{Code: 7, Msg: "sold out"})
	}))
	defer srv.Close()

	nav := &recordingNavigator{}
	var states []ButtonState
	d := newTestDispatcher(srv.URL, nav, &states)

	_, err := d.Submit(context.Background(), providerConfig(), product, "1")
	if !errors.Is(err, model.ErrProviderRejected) {
		t.Errorf("err = %v, want ErrProviderRejected", err)
	}

	if len(nav.urls) != 0 {
		t.Errorf("navigations = %v, want none on failure", nav.urls)
	}
	if d.State() != StateIdle {
		t.Errorf("State = %v, want idle after failure", d.State())
	}
	if len(states) != 2 || states[0] != StateSubmitting || states[1] != StateIdle {
		t.Errorf("state transitions = %v, want [submitting idle]", states)
	}
	// The raw provider message never reaches the shopper.
	if msg := UserMessage(err); msg != "Failed to create order. Please try again." {
		t.Errorf("UserMessage = %q", msg)
	}
}

func TestSubmitProxyMissingCheckoutURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.Envelope{Code: 0, Msg: "ok"})
	}))
	defer srv.Close()

	nav := &recordingNavigator{}
	d := newTestDispatcher(srv.URL, nav, nil)

	if _, err := d.Submit(context.Background(), providerConfig(), product, "1"); err == nil {
		t.Error("Submit with code 0 but no checkoutUrl: want error")
	}
	if d.State() != StateIdle {
		t.Errorf("State = %v, want idle", d.State())
	}
}

func TestSubmitNetworkFailureRevertsToIdle(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close() // connection refused

	nav := &recordingNavigator{}
	d := newTestDispatcher(srv.URL, nav, nil)

	_, err := d.Submit(context.Background(), providerConfig(), product, "1")
	if !errors.Is(err, model.ErrUpstreamUnavailable) {
		t.Errorf("err = %v, want ErrUpstreamUnavailable", err)
	}
	if d.State() != StateIdle {
		t.Errorf("State = %v, want idle", d.State())
	}
}

func TestSubmitClassificationFailureMakesNoCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	cfg := providerConfig()
	cfg.SKUCode = "" // classification must fail before any network I/O

	var states []ButtonState
	d := newTestDispatcher(srv.URL, &recordingNavigator{}, &states)

	_, err := d.Submit(context.Background(), cfg, product, "1")
	if !errors.Is(err, model.ErrConfigurationMissing) {
		t.Errorf("err = %v, want ErrConfigurationMissing", err)
	}
	if calls != 0 {
		t.Errorf("proxy calls = %d, want 0", calls)
	}
	if len(states) != 0 {
		t.Errorf("state transitions = %v, want none", states)
	}
	if msg := UserMessage(err); msg != "Checkout endpoint is not configured." {
		t.Errorf("UserMessage = %q", msg)
	}
}

func TestSubmitWhileSubmitting(t *testing.T) {
	nav := &recordingNavigator{}
	d := newTestDispatcher("", nav, nil)

	if _, err := d.Submit(context.Background(), model.DirectCheckout{URL: "https://shop.example/p"}, product, "1"); err != nil {
		t.Fatalf("first Submit error: %v", err)
	}

	_, err := d.Submit(context.Background(), model.DirectCheckout{URL: "https://shop.example/p"}, product, "1")
	if !errors.Is(err, ErrSubmissionInFlight) {
		t.Errorf("err = %v, want ErrSubmissionInFlight", err)
	}
}

func TestUserMessageMetadataFailure(t *testing.T) {
	p := product
	p.Meta = map[string]any{"ch": make(chan int)}

	d := newTestDispatcher("", &recordingNavigator{}, nil)
	_, err := d.Submit(context.Background(), model.LegacyRedirectCheckout{Endpoint: "https://x.test/go"}, p, "1")
	if !errors.Is(err, model.ErrMetadataEncoding) {
		t.Fatalf("err = %v, want ErrMetadataEncoding", err)
	}
	if msg := UserMessage(err); msg != "Failed to encode product details. Please try again later." {
		t.Errorf("UserMessage = %q", msg)
	}
}
