// Package classify turns a product's static checkout configuration plus
// live user input into one concrete submission strategy: a browser
// navigation or a proxy call.
package classify

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"checkout-proxy/internal/codec"
	"checkout-proxy/internal/model"
)

// DataFrom tags proxy-mediated orders with their traffic source.
const DataFrom = "external_lander"

// Plan is the classifier's output: exactly one way to execute the
// submission.
type Plan interface {
	plan()
}

// Navigate sends the browser to URL with a plain GET.
type Navigate struct {
	URL string
}

// ProxyCall posts Request to the edge proxy and navigates to the checkout
// URL the envelope returns.
type ProxyCall struct {
	Request model.OrderRequest
}

func (Navigate) plan()  {}
func (ProxyCall) plan() {}

// Result pairs the plan with the purchase intent it was built from. The
// intent carries the sanitized quantity so the caller can write it back to
// the visible field: the displayed number must never disagree with the
// submitted one.
type Result struct {
	Plan   Plan
	Intent model.PurchaseIntent
}

// Classify selects the submission strategy for cfg. rawQuantity is the
// quantity field's current text; proxyEndpoint is the pre-resolved edge
// proxy URL (required only for provider-mediated checkouts).
//
// Classification errors never reach the network layer: a failed
// classification means no request of any kind is issued.
func Classify(cfg model.CheckoutConfig, product model.Product, rawQuantity, proxyEndpoint string) (*Result, error) {
	quantity := codec.SanitizeQuantity(rawQuantity)

	intent := model.PurchaseIntent{
		ProductSKU:  product.SKU,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Currency:    product.Currency,
		Quantity:    quantity,
	}

	switch c := cfg.(type) {
	case model.DirectCheckout:
		if c.URL == "" {
			return nil, model.NewConfigurationError("checkout url")
		}
		// Fully direct URLs are used as-is: nothing is appended.
		return &Result{Plan: Navigate{URL: c.URL}, Intent: intent}, nil

	case model.LegacyRedirectCheckout:
		if strings.TrimSpace(c.Endpoint) == "" {
			return nil, model.NewConfigurationError("checkout endpoint")
		}

		token, err := codec.EncodeMetadata(product.Meta)
		if err != nil {
			return nil, &model.APIError{
				Code:       400,
				Message:    "failed to encode product metadata",
				StatusCode: 400,
				Err:        fmt.Errorf("%w: %v", model.ErrMetadataEncoding, err),
			}
		}
		intent.MetadataToken = token

		return &Result{
			Plan:   Navigate{URL: legacyURL(c, intent)},
			Intent: intent,
		}, nil

	case model.ProviderCheckout:
		switch {
		case c.Domain == "":
			return nil, model.NewConfigurationError("provider domain")
		case c.ProductID == "":
			return nil, model.NewConfigurationError("product id")
		case c.SKUCode == "":
			return nil, model.NewConfigurationError("sku code")
		case strings.TrimSpace(proxyEndpoint) == "":
			return nil, model.NewConfigurationError("checkout endpoint")
		}

		return &Result{
			Plan: ProxyCall{Request: model.OrderRequest{
				Provider:  c.Provider,
				Domain:    c.Domain,
				ProductID: c.ProductID,
				SKUCode:   c.SKUCode,
				Quantity:  quantity,
				DataFrom:  DataFrom,
			}},
			Intent: intent,
		}, nil

	default:
		return nil, model.NewConfigurationError("checkout type")
	}
}

// legacyURL builds the query-string redirect for a legacy order form.
// Absolute endpoints get params merged into their existing query (same-name
// params are overwritten). Loose endpoint strings fall back to appending,
// picking the connector from whatever separator the string already ends in.
func legacyURL(c model.LegacyRedirectCheckout, intent model.PurchaseIntent) string {
	params := url.Values{}
	params.Set("wdp", c.ProtocolTag)
	params.Set("product_id", intent.ProductSKU)
	params.Set("product_name", intent.ProductName)
	params.Set("price", strconv.FormatFloat(intent.UnitPrice, 'f', -1, 64))
	params.Set("quantity", strconv.Itoa(intent.Quantity))
	params.Set("meta", intent.MetadataToken)
	params.Set("currency", intent.Currency)

	endpoint := strings.TrimSpace(c.Endpoint)

	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		q := u.Query()
		for key, values := range params {
			q.Set(key, values[0])
		}
		u.RawQuery = q.Encode()
		return u.String()
	}

	trimmed := strings.TrimRight(endpoint, "/")
	connector := "/?"
	if strings.Contains(trimmed, "?") {
		connector = "&"
		if strings.HasSuffix(trimmed, "?") || strings.HasSuffix(trimmed, "&") {
			connector = ""
		}
	}
	return trimmed + connector + params.Encode()
}
