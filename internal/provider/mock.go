package provider

import (
	"context"

	"checkout-proxy/internal/model"
)

// Mock implements Handler for testing, configurable via a function field.
type Mock struct {
	CreateOrderFunc func(ctx context.Context, req *model.OrderRequest) (*model.Order, error)
}

// CreateOrder calls the configured CreateOrderFunc or fails as an upstream
// error.
func (m *Mock) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, req)
	}
	return nil, model.NewUpstreamError("mock", context.Canceled)
}

var _ Handler = (*Mock)(nil)
