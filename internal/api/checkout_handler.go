package api

import (
	"encoding/json"
	"net/http"

	"lunari-cart/internal/checkout"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type checkoutHandler struct {
	checkout checkout.Service
}

func (h *checkoutHandler) initiate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CartID    string `json:"cartId"`
		ReturnURL string `json:"returnUrl"`
		Notes     string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "INVALID_BODY", "malformed request body")
		return
	}

	cartID, err := uuid.Parse(body.CartID)
	if err != nil {
		badRequest(w, "INVALID_ID", "cartId must be a UUID")
		return
	}
	if body.ReturnURL == "" {
		badRequest(w, "MISSING_RETURN_URL", "returnUrl is required")
		return
	}

	res, err := h.checkout.Initiate(r.Context(), checkout.InitiateParams{
		CartID:    cartID,
		ReturnURL: body.ReturnURL,
		Notes:     body.Notes,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, res)
}

// confirm accepts the token either as JSON or as the token_ws form field
// Transbank posts on return.
func (h *checkoutHandler) confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token_ws")
	if token == "" {
		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			token = body.Token
		}
	}
	if token == "" {
		token = r.FormValue("token_ws")
	}
	if token == "" {
		badRequest(w, "MISSING_TOKEN", "token_ws is required")
		return
	}

	res, err := h.checkout.Confirm(r.Context(), token)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, res)
}

func (h *checkoutHandler) retryPayment(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "INVALID_ID", "order id must be a UUID")
		return
	}

	var body struct {
		ReturnURL string `json:"returnUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "INVALID_BODY", "malformed request body")
		return
	}
	if body.ReturnURL == "" {
		badRequest(w, "MISSING_RETURN_URL", "returnUrl is required")
		return
	}

	res, err := h.checkout.RetryPayment(r.Context(), orderID, body.ReturnURL)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, res)
}

func (h *checkoutHandler) expire(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "INVALID_ID", "order id must be a UUID")
		return
	}

	if err := h.checkout.Expire(r.Context(), orderID); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]bool{"expired": true})
}
