package card

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
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/card", func(r chi.Router) {
		r.Post("/issue", h.Issue)
		r.Get("/validate/{cardId}", h.Validate)
		r.Post("/validate-with-name", h.ValidateWithName)
		r.Post("/validate-and-pay", h.ValidateAndPay)
		r.Post("/simulate-payment", h.SimulatePayment)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "card-service"})
	})
}

type issueRequestDTO struct {
	Name string `json:"name"`
	Tier string `json:"tier"`
}

func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c, err := h.service.Issue(r.Context(), req.Name, req.Tier)
	if err != nil {
		if errors.Is(err, ErrNameRequired) {
			httpx.RespondError(w, http.StatusBadRequest, "Name required")
			return
		}
		log.Printf("issue card failed: %v", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"cardId":    c.CardID,
		"name":      c.Name,
		"tier":      c.Tier,
		"expiresAt": c.ExpiresAt,
		"message":   "Membership card issued",
	})
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardId")

	c, err := h.service.Get(r.Context(), cardID)
	if err != nil {
		if errors.Is(err, ErrCardNotFound) {
			httpx.RespondJSON(w, http.StatusNotFound, map[string]interface{}{
				"valid":   false,
				"message": "Card not found",
			})
			return
		}
		log.Printf("validate card failed: %v", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	valid := !c.Expired(timeNow())
	message := "Card valid"
	if !valid {
		message = "Card expired"
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"valid":     valid,
		"cardId":    c.CardID,
		"name":      c.Name,
		"tier":      c.Tier,
		"expiresAt": c.ExpiresAt,
		"message":   message,
	})
}

type validateWithNameDTO struct {
	CardID string `json:"cardId"`
	Name   string `json:"name"`
}

func (h *Handler) ValidateWithName(w http.ResponseWriter, r *http.Request) {
	var req validateWithNameDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CardID == "" || req.Name == "" {
		httpx.RespondError(w, http.StatusBadRequest, "CardId and Name required")
		return
	}

	res, err := h.service.ValidateWithName(r.Context(), req.CardID, req.Name)
	if err != nil {
		if errors.Is(err, ErrCardNotFound) {
			httpx.RespondJSON(w, http.StatusNotFound, map[string]interface{}{
				"valid":   false,
				"message": "Card not found",
			})
			return
		}
		log.Printf("validate-with-name failed: %v", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, res)
}

type validateAndPayDTO struct {
	CardID      string  `json:"cardId"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
}

func (h *Handler) ValidateAndPay(w http.ResponseWriter, r *http.Request) {
	var req validateAndPayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CardID == "" {
		httpx.RespondError(w, http.StatusBadRequest, "CardId required")
		return
	}
	if req.Amount <= 0 {
		httpx.RespondError(w, http.StatusBadRequest, "Amount required")
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	if req.Description == "" {
		req.Description = "Cart checkout"
	}

	res, err := h.service.ValidateAndPay(r.Context(), req.CardID, SimulateRequest{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, ErrCardNotFound) {
			httpx.RespondJSON(w, http.StatusNotFound, map[string]interface{}{
				"valid":   false,
				"message": "Card not found",
			})
			return
		}
		log.Printf("validate-and-pay failed: %v", err)
		httpx.RespondError(w, http.StatusBadGateway, "Payment service unavailable")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, res)
}

type simulatePaymentDTO struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
}

// SimulatePayment is a plain forwarding hop to the payment processor, used
// by the donation chain (api -> cart -> card -> payment).
func (h *Handler) SimulatePayment(w http.ResponseWriter, r *http.Request) {
	var req simulatePaymentDTO
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

	res, err := h.service.payments.Simulate(r.Context(), SimulateRequest{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
	})
	if err != nil {
		if httpx.RelayUpstream(w, err) {
			return
		}
		log.Printf("simulate-payment forward failed: %v", err)
		httpx.RespondError(w, http.StatusBadGateway, "Payment chain unavailable")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, res)
}
