// Package model defines the domain types shared between the client
// dispatcher and the edge proxy: checkout configurations, purchase intents,
// and the wire envelope.
package model

import (
	"encoding/json"
	"fmt"
)

// CheckoutConfig is a product's declared checkout configuration. It is a
// closed sum: exactly one of the variants below, fixed at page build time.
// The classifier switches over the concrete type, so adding a variant
// surfaces every place that must handle it.
type CheckoutConfig interface {
	checkoutConfig()
}

// DirectCheckout sends the shopper to a fully-formed destination URL.
// No parameters are ever appended.
type DirectCheckout struct {
	URL string
}

// LegacyRedirectCheckout drives a query-string redirect to a legacy order
// form. ProtocolTag is the opaque "wdp" version token the order form
// expects; it is passed through verbatim, never interpreted.
type LegacyRedirectCheckout struct {
	Endpoint    string
	ProtocolTag string
}

// ProviderCheckout requires a round trip through the edge proxy, which
// creates the order against the named provider's API.
type ProviderCheckout struct {
	Provider  string
	Domain    string
	ProductID string
	SKUCode   string
}

func (DirectCheckout) checkoutConfig()         {}
func (LegacyRedirectCheckout) checkoutConfig() {}
func (ProviderCheckout) checkoutConfig()       {}

// Product is the static product data a landing page ships with: the
// skeleton of a purchase intent before quantity and metadata are resolved.
type Product struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`

	// Meta is arbitrary page-defined metadata (string or JSON object)
	// forwarded to the legacy order form as an encoded token.
	Meta any `json:"meta,omitempty"`
}

// PurchaseIntent is created per submission and consumed once. Quantity is
// always in [1,99]; MetadataToken is "" when no metadata was supplied, or a
// non-padded base64url string.
type PurchaseIntent struct {
	ProductSKU    string
	ProductName   string
	UnitPrice     float64
	Currency      string
	Quantity      int
	MetadataToken string
}

// checkoutConfigJSON is the tagged wire form produced by the product-data
// loader. The "type" field selects the variant.
type checkoutConfigJSON struct {
	Type string `json:"type"`

	// direct
	URL string `json:"url,omitempty"`

	// legacy redirect ("wordpress" in loader output)
	Endpoint string `json:"endpoint,omitempty"`
	WDP      string `json:"wdp,omitempty"`

	// provider-mediated
	Provider  string `json:"provider,omitempty"`
	Domain    string `json:"domain,omitempty"`
	ProductID string `json:"productId,omitempty"`
	SKUCode   string `json:"skuCode,omitempty"`
}

// ParseCheckoutConfig decodes the loader's tagged JSON into a concrete
// CheckoutConfig variant. Unknown tags are an error, not a fallback:
// misclassifying a checkout must fail loudly before the buy button is wired.
func ParseCheckoutConfig(data []byte) (CheckoutConfig, error) {
	var raw checkoutConfigJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing checkout config: %w", err)
	}

	switch raw.Type {
	case "direct":
		return DirectCheckout{URL: raw.URL}, nil
	case "wordpress":
		return LegacyRedirectCheckout{Endpoint: raw.Endpoint, ProtocolTag: raw.WDP}, nil
	case "shopyy":
		provider := raw.Provider
		if provider == "" {
			provider = "shopyy"
		}
		return ProviderCheckout{
			Provider:  provider,
			Domain:    raw.Domain,
			ProductID: raw.ProductID,
			SKUCode:   raw.SKUCode,
		}, nil
	default:
		return nil, fmt.Errorf("unknown checkout type %q", raw.Type)
	}
}
