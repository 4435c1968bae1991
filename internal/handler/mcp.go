// MCP transport for the checkout proxy using the official MCP Go SDK.
// Exposes order creation as a tool so agent traffic can use the same
// provider registry as the landing pages.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"checkout-proxy/internal/model"
)

// CreateOrderInput is the input schema for the create_order tool.
type CreateOrderInput struct {
	Provider  string `json:"provider" jsonschema:"provider name,required"`
	Domain    string `json:"domain" jsonschema:"store domain,required"`
	ProductID string `json:"productId" jsonschema:"provider product ID,required"`
	SKUCode   string `json:"skuCode" jsonschema:"provider SKU code,required"`
	Quantity  int    `json:"quantity,omitempty" jsonschema:"quantity, clamped to 1-99"`
	DataFrom  string `json:"dataFrom,omitempty" jsonschema:"traffic source tag"`
}

// NewMCPServer creates an MCP server with the create_order tool registered.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "checkout-proxy",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Checkout proxy - creates an order against a commerce " +
				"backend and returns the checkout URL to send the buyer to.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_order",
		Description: "Create an order with a commerce provider and return the absolute checkout URL.",
	}, h.mcpCreateOrder)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

func (h *Handler) mcpCreateOrder(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CreateOrderInput,
) (*mcp.CallToolResult, *model.Order, error) {
	handler, ok := h.registry.Lookup(input.Provider)
	if !ok {
		return nil, nil, fmt.Errorf("unsupported provider %q", input.Provider)
	}

	order, err := handler.CreateOrder(ctx, &model.OrderRequest{
		Provider:  input.Provider,
		Domain:    input.Domain,
		ProductID: input.ProductID,
		SKUCode:   input.SKUCode,
		Quantity:  input.Quantity,
		DataFrom:  input.DataFrom,
	})
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	return nil, order, nil
}

// mcpError converts provider errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%d: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details over MCP.
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
