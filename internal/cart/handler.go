package cart

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/navalarchive/services/internal/httpx"
)

type Handler struct {
	service *Service
	cards   *CardClient
}

func NewHandler(service *Service, cards *CardClient) *Handler {
	return &Handler{service: service, cards: cards}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Post("/items", h.AddItem)
		r.Get("/{cardId}", h.GetCart)
		r.Get("/total/{cardId}", h.GetTotal)
		r.Delete("/{cardId}", h.Clear)

		// Proxy hops into the card issuer.
		r.Post("/checkout", h.Checkout)
		r.Post("/issue-card", h.IssueCard)
		r.Post("/simulate-payment", h.SimulatePayment)
		r.Get("/validate/{cardId}", h.Validate)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "cart-service"})
	})
}

type addItemDTO struct {
	CardID      string `json:"cardId"`
	ProductID   int64  `json:"productId"`
	Quantity    int    `json:"quantity"`
	MemberPrice bool   `json:"memberPrice"`
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := h.service.AddItem(r.Context(), LineItem{
		CardID:      req.CardID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		MemberPrice: req.MemberPrice,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrCardIDRequired):
			httpx.RespondError(w, http.StatusBadRequest, "CardId required")
		case errors.Is(err, ErrInvalidItem):
			httpx.RespondError(w, http.StatusBadRequest, "ProductId and Quantity must be positive")
		case errors.Is(err, ErrProductNotFound):
			httpx.RespondError(w, http.StatusNotFound, "Product not found")
		default:
			log.Printf("add item failed: %v", err)
			httpx.RespondError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	summary, err := h.service.Total(r.Context(), req.CardID, false)
	if err != nil {
		log.Printf("cart summary failed: %v", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.RespondJSON(w, http.StatusOK, summary)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardId")
	isMember := r.URL.Query().Get("isMember") == "true"

	summary, err := h.service.Total(r.Context(), cardID, isMember)
	if err != nil {
		log.Printf("get cart failed: %v", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.RespondJSON(w, http.StatusOK, summary)
}

func (h *Handler) GetTotal(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardId")
	isMember := r.URL.Query().Get("isMember") == "true"

	summary, err := h.service.Total(r.Context(), cardID, isMember)
	if err != nil {
		log.Printf("get total failed: %v", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"total":     summary.Total,
		"itemCount": summary.ItemCount,
	})
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardId")

	if err := h.service.Clear(r.Context(), cardID); err != nil {
		log.Printf("clear cart failed: %v", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}

type checkoutDTO struct {
	CardID      string  `json:"cardId"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
}

// Checkout forwards a fixed-amount charge to the card issuer's combined
// validate-and-pay operation.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CardID == "" || req.Amount <= 0 {
		httpx.RespondError(w, http.StatusBadRequest, "Amount and CardId required")
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	if req.Description == "" {
		req.Description = "Cart checkout"
	}

	result, err := h.cards.ValidateAndPay(r.Context(), req)
	if err != nil {
		h.relayOrFail(w, err, "checkout forward failed")
		return
	}
	rawJSON(w, http.StatusOK, result)
}

func (h *Handler) IssueCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Tier string `json:"tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.cards.Issue(r.Context(), req)
	if err != nil {
		h.relayOrFail(w, err, "issue-card forward failed")
		return
	}
	rawJSON(w, http.StatusOK, result)
}

func (h *Handler) SimulatePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount      float64 `json:"amount"`
		Currency    string  `json:"currency"`
		Description string  `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	if req.Description == "" {
		req.Description = "Donation"
	}

	result, err := h.cards.SimulatePayment(r.Context(), req)
	if err != nil {
		log.Printf("simulate-payment forward failed: %v", err)
		httpx.RespondError(w, http.StatusBadGateway, "Payment chain unavailable")
		return
	}
	rawJSON(w, http.StatusOK, result)
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	result, err := h.cards.Validate(r.Context(), chi.URLParam(r, "cardId"))
	if err != nil {
		h.relayOrFail(w, err, "validate forward failed")
		return
	}
	rawJSON(w, http.StatusOK, result)
}

func (h *Handler) relayOrFail(w http.ResponseWriter, err error, logMsg string) {
	if httpx.RelayUpstream(w, err) {
		return
	}
	log.Printf("%s: %v", logMsg, err)
	httpx.RespondError(w, http.StatusBadGateway, "Card service unavailable")
}

func rawJSON(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}
