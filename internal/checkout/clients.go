package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/navalarchive/services/internal/httpx"
)

// httpResult is what a downstream call yields when the transport worked:
// whatever status and body the service answered with. Only transport
// failures count against the circuit breaker.
type httpResult struct {
	status int
	body   []byte
}

// downstream wraps one service's base URL with a bounded-timeout client
// and a circuit breaker. An open breaker surfaces as a 502 upstream
// error, same as an unreachable service.
type downstream struct {
	name    string
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[httpResult]
}

func newDownstream(name, baseURL string, timeout time.Duration) *downstream {
	return &downstream{
		name:    name,
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[httpResult](gobreaker.Settings{
			Name:    name,
			Timeout: 10 * time.Second,
		}),
	}
}

func (d *downstream) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return err
	}
	return d.roundTrip(req, out)
}

func (d *downstream) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", d.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return d.roundTrip(req, out)
}

func (d *downstream) roundTrip(req *http.Request, out interface{}) error {
	res, err := d.breaker.Execute(func() (httpResult, error) {
		resp, err := d.http.Do(req)
		if err != nil {
			return httpResult{}, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return httpResult{}, err
		}
		return httpResult{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		return &httpx.UpstreamError{
			Service:    d.name,
			StatusCode: http.StatusBadGateway,
			Body:       fmt.Sprintf("%s unreachable: %v", d.name, err),
		}
	}

	if res.status < 200 || res.status >= 300 {
		return &httpx.UpstreamError{
			Service:    d.name,
			StatusCode: res.status,
			Body:       string(res.body),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", d.name, err)
	}
	return nil
}

// HTTPCardClient implements CardClient against the card issuer.
type HTTPCardClient struct {
	*downstream
}

func NewHTTPCardClient(baseURL string, timeout time.Duration) *HTTPCardClient {
	return &HTTPCardClient{downstream: newDownstream("card-service", baseURL, timeout)}
}

func (c *HTTPCardClient) ValidateWithName(ctx context.Context, cardID, name string) (*CardValidation, error) {
	var result CardValidation
	err := c.postJSON(ctx, "/api/card/validate-with-name", map[string]string{
		"cardId": cardID,
		"name":   name,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPCardClient) Issue(ctx context.Context, name, tier string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.postJSON(ctx, "/api/card/issue", map[string]string{
		"name": name,
		"tier": tier,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// HTTPCartClient implements CartClient against the cart service.
type HTTPCartClient struct {
	*downstream
}

func NewHTTPCartClient(baseURL string, timeout time.Duration) *HTTPCartClient {
	return &HTTPCartClient{downstream: newDownstream("cart-service", baseURL, timeout)}
}

func (c *HTTPCartClient) Total(ctx context.Context, cardID string, isMember bool) (*CartTotal, error) {
	var result CartTotal
	path := fmt.Sprintf("/api/cart/total/%s?isMember=%t", url.PathEscape(cardID), isMember)
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPCartClient) Clear(ctx context.Context, cardID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/cart/"+url.PathEscape(cardID), nil)
	if err != nil {
		return err
	}
	return c.roundTrip(req, nil)
}

func (c *HTTPCartClient) SimulatePayment(ctx context.Context, body interface{}) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.postJSON(ctx, "/api/cart/simulate-payment", body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// HTTPPaymentClient implements PaymentClient against the payment processor.
type HTTPPaymentClient struct {
	*downstream
}

func NewHTTPPaymentClient(baseURL string, timeout time.Duration) *HTTPPaymentClient {
	return &HTTPPaymentClient{downstream: newDownstream("payment-service", baseURL, timeout)}
}

func (c *HTTPPaymentClient) Simulate(ctx context.Context, amount float64, currency, description, cardID string) (*PaymentOutcome, error) {
	var result PaymentOutcome
	err := c.postJSON(ctx, "/api/payment/simulate", map[string]interface{}{
		"amount":      amount,
		"currency":    currency,
		"description": description,
		"cardId":      cardID,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
