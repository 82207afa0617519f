package card

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

// HTTPPaymentClient calls the payment processor's simulate endpoint.
type HTTPPaymentClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPPaymentClient(baseURL string, timeout time.Duration) *HTTPPaymentClient {
	return &HTTPPaymentClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *HTTPPaymentClient) Simulate(ctx context.Context, req SimulateRequest) (*SimulateResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal simulate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/payment/simulate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment service call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read payment response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpx.UpstreamError{
			Service:    "payment-service",
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var result SimulateResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}
	return &result, nil
}
