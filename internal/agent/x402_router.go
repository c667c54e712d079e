package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/beacongrid/agentd/internal/x402"
)

// X402Router maps tool names that require a paid upstream call onto
// the x402 client, so the orchestrator's dispatch state machine can
// treat "is this an x402 tool" as a single map lookup (§4.B routing).
type X402Router struct {
	client *x402.Client
	routes map[string]string // tool name -> upstream URL
}

// NewX402Router builds a router over the given client and routes.
func NewX402Router(client *x402.Client, routes map[string]string) *X402Router {
	if routes == nil {
		routes = map[string]string{}
	}
	return &X402Router{client: client, routes: routes}
}

// IsX402Tool reports whether name is routed through the x402 client.
func (r *X402Router) IsX402Tool(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.routes[name]
	return ok
}

// Call performs the paid call for name with args as the JSON request
// body, returning the upstream response body as tool result content.
func (r *X402Router) Call(ctx context.Context, name string, args json.RawMessage) (string, error) {
	url, ok := r.routes[name]
	if !ok {
		return "", fmt.Errorf("x402: no route for tool %q", name)
	}

	var body any = json.RawMessage(args)
	if len(args) == 0 {
		body = struct{}{}
	}

	resp, err := r.client.PostWithPayment(ctx, url, body)
	if err != nil {
		return "", fmt.Errorf("x402 call %q: %w", name, err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("x402 call %q: read response: %w", name, err)
	}
	return string(out), nil
}
