package payment

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/cash-advance-management/internal/auth"
	"github.com/frahmantamala/cash-advance-management/internal/transport"
	"github.com/frahmantamala/cash-advance-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     service,
	}
}

// RecordPayment handles POST /cash-advances/{id}/payments.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	advanceID := chi.URLParam(r, "id")

	var dto RecordPaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var recordedBy *string
	if user, ok := auth.UserFromContext(r.Context()); ok {
		recordedBy = &user.ID
	}

	p, err := h.Service.RecordPayment(r.Context(), advanceID, recordedBy, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	advanceID := chi.URLParam(r, "id")

	payments, err := h.Service.ListPaymentsByAdvance(r.Context(), advanceID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	total := int64(0)
	for _, p := range payments {
		total += p.AmountIDR
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"payments":       payments,
		"total_paid_idr": total,
	})
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "paymentID")

	p, err := h.Service.GetPayment(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}
