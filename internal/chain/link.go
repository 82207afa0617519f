package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/navalarchive/services/internal/httpx"
)

// ErrChainUnavailable means a downstream hop could not produce a result;
// the traversal is all-or-nothing, never partial.
var ErrChainUnavailable = errors.New("chain unavailable")

// Link is one hop. It starts a local span under the propagated trace
// context, forwards to the next link when one is configured, and wraps
// the child's parsed body under next.
type Link struct {
	cfg    LinkConfig
	tracer trace.Tracer
	client *http.Client
}

func NewLink(cfg LinkConfig, timeout time.Duration) *Link {
	return &Link{
		cfg:    cfg,
		tracer: otel.Tracer("chainlink/" + cfg.Name),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// GetTrace performs this hop's part of the traversal.
func (l *Link) GetTrace(ctx context.Context) (*TraceResult, error) {
	ctx, span := l.tracer.Start(ctx, l.cfg.SpanName)
	defer span.End()

	if l.cfg.NextURL == "" {
		return &TraceResult{Service: l.cfg.Name}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.cfg.NextURL+"/trace", nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s could not reach %s: %v", ErrChainUnavailable, l.cfg.Name, l.cfg.NextURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading downstream response: %v", ErrChainUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: downstream of %s returned status %d", ErrChainUnavailable, l.cfg.Name, resp.StatusCode)
	}

	var child TraceResult
	if err := json.Unmarshal(body, &child); err != nil {
		return nil, fmt.Errorf("%w: decoding downstream response: %v", ErrChainUnavailable, err)
	}

	return &TraceResult{Service: l.cfg.Name, Next: &child}, nil
}

// Handler builds the link's HTTP surface.
func (l *Link) Handler() http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/trace", otelhttp.NewHandler(http.HandlerFunc(l.handleTrace), l.cfg.SpanName))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.RespondJSON(w, http.StatusOK, map[string]string{"service": l.cfg.Name, "status": "ok"})
	})
	return r
}

func (l *Link) handleTrace(w http.ResponseWriter, r *http.Request) {
	result, err := l.GetTrace(r.Context())
	if err != nil {
		log.Printf("%s trace failed: %v", l.cfg.Name, err)
		httpx.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}
	httpx.RespondJSON(w, http.StatusOK, result)
}
