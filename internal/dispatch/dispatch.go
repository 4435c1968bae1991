// Package dispatch owns the buy-button lifecycle: it intercepts a
// submission, classifies it, and either navigates or calls the edge proxy.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"checkout-proxy/internal/classify"
	"checkout-proxy/internal/model"
)

// ButtonState models the buy trigger. Two states are enough: on success the
// page navigates away, so there is no Submitting → Idle transition for the
// happy path.
type ButtonState int

const (
	StateIdle ButtonState = iota
	StateSubmitting
)

func (s ButtonState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("ButtonState(%d)", int(s))
	}
}

// ErrSubmissionInFlight is returned when Submit is called while a previous
// submission is still running: the programmatic analogue of the disabled
// trigger element.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// Navigator performs the browser-side navigation for a computed URL.
type Navigator interface {
	Navigate(url string) error
}

// Config holds dispatcher dependencies.
type Config struct {
	// ProxyEndpoint is the pre-resolved edge proxy URL, required for
	// provider-mediated checkouts.
	ProxyEndpoint string

	Navigator Navigator

	// HTTPClient overrides the proxy call client. Nil means a 30s-timeout
	// default.
	HTTPClient *http.Client

	Logger *slog.Logger

	// OnStateChange observes button state transitions (label/icon swaps,
	// enabling and disabling the trigger). May be nil.
	OnStateChange func(ButtonState)
}

// Dispatcher runs one submission at a time.
//
// It is not safe for concurrent use. Like the page it models, submissions
// are serialized only by the in-flight state check, which is advisory: it
// mirrors disabling the trigger element, not a lock.
type Dispatcher struct {
	proxyEndpoint string
	nav           Navigator
	httpClient    *http.Client
	logger        *slog.Logger
	onStateChange func(ButtonState)
	state         ButtonState
}

// New creates a Dispatcher.
func New(cfg Config) *Dispatcher {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		proxyEndpoint: cfg.ProxyEndpoint,
		nav:           cfg.Navigator,
		httpClient:    httpClient,
		logger:        logger,
		onStateChange: cfg.OnStateChange,
	}
}

// State reports the current button state.
func (d *Dispatcher) State() ButtonState {
	return d.state
}

func (d *Dispatcher) setState(s ButtonState) {
	if d.state == s {
		return
	}
	d.state = s
	if d.onStateChange != nil {
		d.onStateChange(s)
	}
}

// Outcome reports what a successful submission did.
type Outcome struct {
	// Quantity is the sanitized quantity; the caller writes it back into
	// the visible field so the displayed number matches the submitted one.
	Quantity int

	// URL the navigator was sent to.
	URL string
}

// Submit runs one buy attempt. Exactly one network call is made for
// provider-mediated checkouts; redirect strategies make none.
//
// On failure the button returns to idle and the detailed cause is both
// logged and returned; show the shopper UserMessage(err), never the raw
// error. There is no automatic retry: re-submitting is the shopper's call.
func (d *Dispatcher) Submit(ctx context.Context, cfg model.CheckoutConfig, product model.Product, rawQuantity string) (*Outcome, error) {
	if d.state == StateSubmitting {
		return nil, ErrSubmissionInFlight
	}

	res, err := classify.Classify(cfg, product, rawQuantity, d.proxyEndpoint)
	if err != nil {
		// Classification failures never transition state and never
		// touch the network.
		d.logger.Error("checkout classification failed",
			slog.String("sku", product.SKU),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	d.setState(StateSubmitting)

	outcome := &Outcome{Quantity: res.Intent.Quantity}

	switch plan := res.Plan.(type) {
	case classify.Navigate:
		// The page is about to unload; the button intentionally stays
		// in the submitting state.
		if err := d.nav.Navigate(plan.URL); err != nil {
			d.setState(StateIdle)
			return nil, fmt.Errorf("navigating: %w", err)
		}
		outcome.URL = plan.URL
		return outcome, nil

	case classify.ProxyCall:
		checkoutURL, err := d.createOrder(ctx, &plan.Request)
		if err != nil {
			d.logger.Error("order creation failed",
				slog.String("provider", plan.Request.Provider),
				slog.String("error", err.Error()),
			)
			d.setState(StateIdle)
			return nil, err
		}
		if err := d.nav.Navigate(checkoutURL); err != nil {
			d.setState(StateIdle)
			return nil, fmt.Errorf("navigating: %w", err)
		}
		outcome.URL = checkoutURL
		return outcome, nil

	default:
		d.setState(StateIdle)
		return nil, fmt.Errorf("unhandled plan %T", plan)
	}
}

// createOrder posts the order request to the edge proxy and extracts the
// checkout URL from the envelope.
func (d *Dispatcher) createOrder(ctx context.Context, orderReq *model.OrderRequest) (string, error) {
	body, err := json.Marshal(orderReq)
	if err != nil {
		return "", fmt.Errorf("marshaling order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.proxyEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	var env model.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("%w: checkout failed with status %d", model.ErrUpstreamUnavailable, resp.StatusCode)
	}

	checkoutURL := ""
	if env.Data != nil {
		checkoutURL = env.Data.CheckoutURL
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || env.Code != 0 || checkoutURL == "" {
		msg := env.Msg
		if msg == "" {
			msg = fmt.Sprintf("checkout failed with status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("%w: code %d: %s", model.ErrProviderRejected, env.Code, msg)
	}

	return checkoutURL, nil
}

// UserMessage maps a Submit error to the generic shopper-facing message for
// its category. Backend details stay in the logs: the shopper never sees
// raw provider text.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrConfigurationMissing):
		return "Checkout endpoint is not configured."
	case errors.Is(err, model.ErrMetadataEncoding):
		return "Failed to encode product details. Please try again later."
	default:
		return "Failed to create order. Please try again."
	}
}
