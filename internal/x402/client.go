package x402

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	paymentRequiredHeader = "payment-required"
	paymentHeader         = "X-PAYMENT"
)

// ErrPaymentRejected is returned when a paid retry still comes back 402.
type ErrPaymentRejected struct {
	URL string
}

func (e *ErrPaymentRejected) Error() string {
	return fmt.Sprintf("payment rejected by %s after signed retry", e.URL)
}

// Client is an HTTP client that transparently handles the x402
// challenge/response flow: a bare POST, and on 402 a single signed retry.
type Client struct {
	httpClient *http.Client
	signer     *Signer
	limiter    *rate.Limiter
	endpoints  []string // substrings identifying x402-capable hosts
}

// NewClient builds a Client. limiter may be nil to disable outbound rate
// limiting. endpoints is a list of substrings used by IsX402Endpoint;
// an empty list means every URL is treated as potentially x402-capable.
func NewClient(signer *Signer, limiter *rate.Limiter, endpoints []string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		signer:     signer,
		limiter:    limiter,
		endpoints:  endpoints,
	}
}

// IsX402Endpoint reports whether url matches one of the client's
// configured x402 substrings. Callers may bypass this and force the
// payment flow for a URL regardless of this check.
func (c *Client) IsX402Endpoint(url string) bool {
	if len(c.endpoints) == 0 {
		return true
	}
	for _, e := range c.endpoints {
		if strings.Contains(url, e) {
			return true
		}
	}
	return false
}

// WalletAddress returns the payer address the client signs with.
func (c *Client) WalletAddress() string { return c.signer.Address() }

// PostWithPayment POSTs body (JSON-encoded) to url. If the first attempt
// returns 402, it parses the payment-required header, signs a payment
// authorization, and retries exactly once with the X-PAYMENT header. Any
// non-402 response (including the original request's) is returned as-is
// for the caller to interpret; network errors are returned verbatim.
func (c *Client) PostWithPayment(ctx context.Context, url string, body any) (*http.Response, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	resp, err := c.post(ctx, url, payload, "")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusPaymentRequired {
		return resp, nil
	}
	defer resp.Body.Close()

	required, err := parsePaymentRequired(resp.Header)
	if err != nil {
		return nil, err
	}
	if len(required.Accepts) == 0 {
		return nil, fmt.Errorf("402 response had no payment options")
	}
	requirements := required.Accepts[0]

	paymentPayload, err := c.signer.SignPayment(ctx, requirements)
	if err != nil {
		return nil, fmt.Errorf("sign payment: %w", err)
	}
	headerValue, err := encodePaymentPayload(paymentPayload)
	if err != nil {
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	retryResp, err := c.post(ctx, url, payload, headerValue)
	if err != nil {
		return nil, err
	}
	if retryResp.StatusCode == http.StatusPaymentRequired {
		drainAndClose(retryResp)
		return nil, &ErrPaymentRejected{URL: url}
	}
	return retryResp, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) post(ctx context.Context, url string, body []byte, xPayment string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if xPayment != "" {
		req.Header.Set(paymentHeader, xPayment)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func parsePaymentRequired(h http.Header) (*PaymentRequired, error) {
	encoded := h.Get(paymentRequiredHeader)
	if encoded == "" {
		encoded = h.Get(strings.ToUpper(paymentRequiredHeader))
	}
	if encoded == "" {
		return nil, fmt.Errorf("402 response missing %s header", paymentRequiredHeader)
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode %s header: %w", paymentRequiredHeader, err)
	}
	var required PaymentRequired
	if err := json.Unmarshal(decoded, &required); err != nil {
		return nil, fmt.Errorf("parse %s header: %w", paymentRequiredHeader, err)
	}
	return &required, nil
}

func encodePaymentPayload(p *PaymentPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal payment payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// drainAndClose discards and closes a response body, used when a caller
// decides not to propagate a response further (e.g. a rejected payment).
func drainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
