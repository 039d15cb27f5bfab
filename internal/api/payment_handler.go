package api

import (
	"net/http"

	"lunari-cart/internal/payment"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type paymentHandler struct {
	payments payment.Repository
}

// getByOrder returns the most recent payment attempt for an order.
func (h *paymentHandler) getByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		badRequest(w, "INVALID_ID", "order id must be a UUID")
		return
	}

	p, err := h.payments.GetByOrderID(r.Context(), orderID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if p == nil {
		respondError(w, r, payment.ErrPaymentNotFound)
		return
	}
	respond(w, http.StatusOK, p)
}

// getByToken resolves a payment by its provider token, which is all the
// buyer's return page carries.
func (h *paymentHandler) getByToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	p, err := h.payments.GetByToken(r.Context(), token)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if p == nil {
		respondError(w, r, payment.ErrPaymentNotFound)
		return
	}
	respond(w, http.StatusOK, p)
}
