package checkout

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
	cards   *HTTPCardClient
	carts   *HTTPCartClient
}

func NewHandler(service *Service, cards *HTTPCardClient, carts *HTTPCartClient) *Handler {
	return &Handler{
		service: service,
		cards:   cards,
		carts:   carts,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/checkout/pay", h.Pay)
	r.Route("/api/members", func(r chi.Router) {
		r.Post("/", h.CreateMember)
		r.Post("/verify", h.VerifyMember)
	})
	r.Post("/api/payments/simulate", h.SimulateDonation)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "checkout-service"})
	})
}

func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	var req PayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.service.Pay(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			httpx.RespondError(w, http.StatusBadRequest, "CardId and Name required")
		case errors.Is(err, ErrNoAmount):
			httpx.RespondError(w, http.StatusBadRequest, "No cart total and no amount provided")
		case errors.Is(err, ErrPaymentUnavailable):
			httpx.RespondError(w, http.StatusBadGateway, "Payment service unavailable")
		case httpx.RelayUpstream(w, err):
		default:
			log.Printf("checkout failed: %v", err)
			httpx.RespondError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	httpx.RespondJSON(w, http.StatusOK, result)
}

type createMemberDTO struct {
	Name string `json:"name"`
	Tier string `json:"tier"`
}

func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		httpx.RespondError(w, http.StatusBadRequest, "Name required")
		return
	}
	if req.Tier == "" {
		req.Tier = "Standard"
	}

	issued, err := h.cards.Issue(r.Context(), req.Name, req.Tier)
	if err != nil {
		if httpx.RelayUpstream(w, err) {
			return
		}
		log.Printf("member create failed: %v", err)
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to issue card")
		return
	}

	var card struct {
		CardID string `json:"cardId"`
		Tier   string `json:"tier"`
	}
	if err := json.Unmarshal(issued, &card); err != nil || card.CardID == "" {
		log.Printf("member create: bad issuer response: %v", err)
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to issue card")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, map[string]string{
		"cardId":  card.CardID,
		"name":    req.Name,
		"tier":    card.Tier,
		"message": "Member created with card. Use card ID for checkout.",
	})
}

type verifyMemberDTO struct {
	CardID string `json:"cardId"`
	Name   string `json:"name"`
}

func (h *Handler) VerifyMember(w http.ResponseWriter, r *http.Request) {
	var req verifyMemberDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CardID == "" || req.Name == "" {
		httpx.RespondError(w, http.StatusBadRequest, "CardId and Name required")
		return
	}

	validation, err := h.cards.ValidateWithName(r.Context(), req.CardID, req.Name)
	if err != nil {
		if httpx.RelayUpstream(w, err) {
			return
		}
		log.Printf("member verify failed: %v", err)
		httpx.RespondError(w, http.StatusBadGateway, "Card service unavailable")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, validation)
}

type donationDTO struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
}

// SimulateDonation exercises the commerce proxy chain: the request hops
// through the cart and card services before reaching the processor.
func (h *Handler) SimulateDonation(w http.ResponseWriter, r *http.Request) {
	var req donationDTO
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

	result, err := h.carts.SimulatePayment(r.Context(), req)
	if err != nil {
		log.Printf("donation chain failed: %v", err)
		httpx.RespondError(w, http.StatusBadGateway, "Payment chain unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}
