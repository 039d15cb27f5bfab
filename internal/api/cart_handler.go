package api

import (
	"encoding/json"
	"net/http"

	"lunari-cart/internal/cart"
	"lunari-cart/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type cartHandler struct {
	carts cart.Service
}

func (h *cartHandler) getOrCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OwnerID string `json:"ownerId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	ownerID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		// Trusted service callers name the owner explicitly.
		parsed, err := uuid.Parse(body.OwnerID)
		if err != nil {
			badRequest(w, "MISSING_OWNER", "authenticated user or ownerId required")
			return
		}
		ownerID = parsed
	}

	c, err := h.carts.GetOrCreateActiveCart(r.Context(), ownerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *cartHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "INVALID_ID", "cart id must be a UUID")
		return
	}

	c, err := h.carts.GetCart(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *cartHandler) listMine(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		badRequest(w, "MISSING_OWNER", "authentication required")
		return
	}

	carts, err := h.carts.GetCartsByOwner(r.Context(), ownerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, carts)
}

func (h *cartHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.carts.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, stats)
}

func (h *cartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "INVALID_ID", "cart id must be a UUID")
		return
	}

	var body struct {
		ServiceID int `json:"serviceId"`
		Quantity  int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "INVALID_BODY", "malformed request body")
		return
	}

	item, err := h.carts.AddItem(r.Context(), cart.AddItemParams{
		CartID:    cartID,
		ServiceID: body.ServiceID,
		Quantity:  body.Quantity,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, item)
}

func (h *cartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		badRequest(w, "INVALID_ID", "item id must be a UUID")
		return
	}

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "INVALID_BODY", "malformed request body")
		return
	}

	item, err := h.carts.UpdateItemQuantity(r.Context(), itemID, body.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if item == nil {
		// Quantity dropped to zero, line removed.
		respond(w, http.StatusOK, map[string]bool{"removed": true})
		return
	}
	respond(w, http.StatusOK, item)
}

func (h *cartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		badRequest(w, "INVALID_ID", "item id must be a UUID")
		return
	}

	if err := h.carts.RemoveItem(r.Context(), itemID); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]bool{"removed": true})
}

func (h *cartHandler) clear(w http.ResponseWriter, r *http.Request) {
	cartID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "INVALID_ID", "cart id must be a UUID")
		return
	}

	if err := h.carts.ClearCart(r.Context(), cartID); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (h *cartHandler) abandon(w http.ResponseWriter, r *http.Request) {
	cartID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "INVALID_ID", "cart id must be a UUID")
		return
	}

	if err := h.carts.Abandon(r.Context(), cartID); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": string(cart.StatusAbandoned)})
}
