package model

// OrderRequest is the wire entity for one provider-mediated purchase
// attempt. Constructed by the client dispatcher, consumed by the edge proxy
// for the duration of a single HTTP request, never persisted.
type OrderRequest struct {
	Provider  string `json:"provider"`
	Domain    string `json:"domain"`
	ProductID string `json:"productId"`
	SKUCode   string `json:"skuCode"`
	Quantity  int    `json:"quantity"`
	DataFrom  string `json:"dataFrom"`
}

// Order is the successful result of a provider call: an absolute URL the
// shopper can be sent to.
type Order struct {
	CheckoutURL string `json:"checkoutUrl"`
}

// Envelope is the uniform response shape the edge proxy returns for every
// request, success or error. Code 0 is the only success discriminator;
// provider error codes are carried through unchanged.
type Envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *Order `json:"data,omitempty"`
}
