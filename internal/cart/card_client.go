package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/navalarchive/services/internal/httpx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// CardClient forwards the cart service's proxy operations to the card
// issuer. Responses are relayed untouched, so bodies stay raw JSON.
type CardClient struct {
	baseURL string
	http    *http.Client
}

func NewCardClient(baseURL string, timeout time.Duration) *CardClient {
	return &CardClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *CardClient) ValidateAndPay(ctx context.Context, body interface{}) (json.RawMessage, error) {
	return c.post(ctx, "/api/card/validate-and-pay", body)
}

func (c *CardClient) Issue(ctx context.Context, body interface{}) (json.RawMessage, error) {
	return c.post(ctx, "/api/card/issue", body)
}

func (c *CardClient) SimulatePayment(ctx context.Context, body interface{}) (json.RawMessage, error) {
	return c.post(ctx, "/api/card/simulate-payment", body)
}

func (c *CardClient) Validate(ctx context.Context, cardID string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/card/validate/"+cardID, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *CardClient) post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal card request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *CardClient) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("card service call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read card response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpx.UpstreamError{
			Service:    "card-service",
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}
	return respBody, nil
}
