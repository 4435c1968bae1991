// Package provider defines the interface for commerce backend integrations
// and the registry the edge proxy dispatches through. Each backend
// (shopyy, ...) supplies its own Handler; adding one means registering it,
// not growing a conditional chain in the proxy.
package provider

import (
	"context"

	"checkout-proxy/internal/model"
)

// Handler creates an order against one backend's native API and normalizes
// the result.
//
// Error contract: a *model.APIError wrapping ErrProviderRejected means the
// backend declined the order (rendered as 400 with the backend's own code
// and message); any other error is a system fault rendered as 500.
type Handler interface {
	CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error)
}

// Registry maps provider names to handlers.
// Registration happens at startup; lookups afterward are read-only, so the
// registry is safe for concurrent request handling without locking.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler under the given provider name, replacing any
// previous registration.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Lookup returns the handler for name, or false if none is registered.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Names lists the registered provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
