package payment

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
	r.Route("/api/payment", func(r chi.Router) {
		r.Post("/simulate", h.Simulate)
		r.Get("/transactions", h.Transactions)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "payment-service"})
	})
}

type simulateDTO struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	CardID      string  `json:"cardId"`
}

func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req simulateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.service.Simulate(r.Context(), SimulateRequest{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		CardID:      req.CardID,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			httpx.RespondError(w, http.StatusBadRequest, "Invalid amount")
			return
		}
		log.Printf("simulate failed: %v", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.store.Recent(r.Context(), 50)
	if err != nil {
		log.Printf("list transactions failed: %v", err)
		httpx.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.RespondJSON(w, http.StatusOK, txs)
}
