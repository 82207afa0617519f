package checkout

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, cardSrv, cartSrv, paySrv *httptest.Server) http.Handler {
	t.Helper()

	timeout := 2 * time.Second
	cards := NewHTTPCardClient(cardSrv.URL, timeout)
	carts := NewHTTPCartClient(cartSrv.URL, timeout)
	payments := NewHTTPPaymentClient(paySrv.URL, timeout)

	service := NewService(cards, carts, payments, time.Minute)
	handler := NewHandler(service, cards, carts)

	r := chi.NewRouter()
	handler.Routes(r)
	return r
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonServer(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestPayEndpoint_MissingFields(t *testing.T) {
	card := jsonServer(http.StatusOK, `{}`)
	defer card.Close()
	h := newTestHandler(t, card, card, card)

	rec := postJSON(t, h, "/api/checkout/pay", map[string]string{"cardId": "", "name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "CardId and Name required")
}

func TestPayEndpoint_RelaysIssuerStatus(t *testing.T) {
	card := jsonServer(http.StatusNotFound, `{"valid":false,"message":"Card not found"}`)
	defer card.Close()
	h := newTestHandler(t, card, card, card)

	rec := postJSON(t, h, "/api/checkout/pay", map[string]interface{}{
		"cardId": "NAV-MISSING", "name": "Alice", "amount": 10,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Card not found")
}

func TestPayEndpoint_PaymentDown(t *testing.T) {
	card := jsonServer(http.StatusOK, `{"valid":true,"nameMatch":true,"notExpired":true}`)
	defer card.Close()
	pay := jsonServer(http.StatusOK, `{}`)
	pay.Close() // unreachable

	h := newTestHandler(t, card, card, pay)

	rec := postJSON(t, h, "/api/checkout/pay", map[string]interface{}{
		"cardId": "NAV-1", "name": "Alice", "amount": 10,
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Payment service unavailable")
}

func TestPayEndpoint_DomainDeclineIs200(t *testing.T) {
	card := jsonServer(http.StatusOK, `{"valid":false,"nameMatch":false,"notExpired":true,"message":"Name does not match card holder"}`)
	defer card.Close()
	h := newTestHandler(t, card, card, card)

	rec := postJSON(t, h, "/api/checkout/pay", map[string]interface{}{
		"cardId": "NAV-1", "name": "Mallory", "amount": 10,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res PayResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Approved)
	assert.Equal(t, "Name does not match card holder", res.Message)
}

func TestCreateMember(t *testing.T) {
	card := jsonServer(http.StatusOK, `{"cardId":"NAV-ABCD1234","tier":"Gold"}`)
	defer card.Close()
	h := newTestHandler(t, card, card, card)

	rec := postJSON(t, h, "/api/members", map[string]string{"name": "Alice", "tier": "Gold"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "NAV-ABCD1234")
	assert.Contains(t, rec.Body.String(), "Member created with card")
}

func TestCreateMember_NameRequired(t *testing.T) {
	card := jsonServer(http.StatusOK, `{}`)
	defer card.Close()
	h := newTestHandler(t, card, card, card)

	rec := postJSON(t, h, "/api/members", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSimulateDonation_ChainDown(t *testing.T) {
	card := jsonServer(http.StatusOK, `{}`)
	defer card.Close()
	cart := jsonServer(http.StatusOK, `{}`)
	cart.Close() // unreachable

	h := newTestHandler(t, card, cart, card)

	rec := postJSON(t, h, "/api/payments/simulate", map[string]interface{}{"amount": 5})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Payment chain unavailable")
}
