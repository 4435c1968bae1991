// Package shopyy implements the provider handler for Shopyy storefronts
// using their storefront "buy now" API.
package shopyy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"checkout-proxy/internal/codec"
	"checkout-proxy/internal/model"
)

// buyNowPath is the storefront endpoint that creates an order directly
// from a product, bypassing the cart page.
const buyNowPath = "/homeapi/cart/buynow"

// userAgent identifies this client to upstream servers.
// Required: Shopyy's CDN rate-limits requests without a User-Agent.
const userAgent = "Checkout-Proxy/1.0"

// Name is the provider name this handler registers under.
const Name = "shopyy"

// Config holds Shopyy-specific handler configuration.
type Config struct {
	// Transport overrides the outbound RoundTripper. Use
	// transport.NewChromeTransport when the storefront sits behind a
	// fingerprinting CDN. Nil means http.DefaultTransport.
	Transport http.RoundTripper

	// Timeout for the provider round trip. Zero means 30s.
	Timeout time.Duration
}

// Client implements provider.Handler against the Shopyy storefront API.
// Stateless: the target store domain arrives with each request.
type Client struct {
	httpClient *http.Client
}

// New creates a Shopyy client with the given configuration.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: cfg.Transport,
		},
	}
}

// buyNowRequest is the provider-shaped order body.
type buyNowRequest struct {
	ProductID string `json:"product_id"`
	SKUCode   string `json:"sku_code"`
	Quantity  int    `json:"quantity"`
	DataFrom  string `json:"data_from"`
}

// buyNowFields are the response fields Shopyy may return either at the top
// level or nested under "data", depending on store version.
type buyNowFields struct {
	Code        *int   `json:"code"`
	Msg         string `json:"msg"`
	CheckoutURL string `json:"checkout_url"`
}

type buyNowResponse struct {
	buyNowFields
	Data *buyNowFields `json:"data"`
}

// CreateOrder places a buy-now order and returns the absolute checkout URL.
//
// The caller's quantity is re-sanitized here: the proxy does not trust the
// browser to have clamped it.
func (c *Client) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	if req.Domain == "" || req.ProductID == "" || req.SKUCode == "" {
		return nil, fmt.Errorf("missing shopyy parameters: domain/productId/skuCode")
	}

	dataFrom := req.DataFrom
	if dataFrom == "" {
		dataFrom = "external_lander"
	}

	body := buyNowRequest{
		ProductID: req.ProductID,
		SKUCode:   req.SKUCode,
		Quantity:  codec.ClampQuantity(req.Quantity),
		DataFrom:  dataFrom,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	target := resolveURL(req.Domain, buyNowPath)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, model.NewUpstreamError("Shopyy", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, model.NewUpstreamError("Shopyy",
			fmt.Errorf("buynow returned status %d", resp.StatusCode))
	}

	var parsed buyNowResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, model.NewUpstreamError("Shopyy",
			fmt.Errorf("parsing response: %w", err))
	}

	code, msg, checkoutPath := parsed.resolve()
	if code != 0 || checkoutPath == "" {
		// The store answered but declined the order. This is the
		// shopper's problem (sold out, bad sku), not ours.
		if msg == "" {
			msg = "Shopyy checkout error"
		}
		return nil, model.NewRejectionError(code, msg)
	}

	return &model.Order{CheckoutURL: resolveURL(req.Domain, checkoutPath)}, nil
}

// resolve picks the effective code, message, and checkout path. Fields
// nested under "data" win over top-level ones; an entirely absent code
// counts as success so that stores which only return checkout_url still
// work (the missing-URL check above catches the truly empty response).
func (r *buyNowResponse) resolve() (code int, msg, checkoutPath string) {
	fields := r.buyNowFields
	if r.Data != nil {
		if r.Data.Code != nil {
			fields.Code = r.Data.Code
		}
		if r.Data.Msg != "" {
			fields.Msg = r.Data.Msg
		}
		if r.Data.CheckoutURL != "" {
			fields.CheckoutURL = r.Data.CheckoutURL
		}
	}
	if fields.Code != nil {
		code = *fields.Code
	}
	return code, fields.Msg, fields.CheckoutURL
}

// resolveURL combines a store domain with a path. Well-formed absolute
// domains go through proper URL resolution; syntactically loose ones fall
// back to string concatenation rather than being rejected: merchant-entered
// domains are messy and a missing scheme should not kill the sale.
func resolveURL(domain, path string) string {
	if base, err := url.Parse(domain); err == nil && base.Scheme != "" && base.Host != "" {
		if ref, err := url.Parse(path); err == nil {
			return base.ResolveReference(ref).String()
		}
	}

	trimmed := strings.TrimRight(domain, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return trimmed + path
}
