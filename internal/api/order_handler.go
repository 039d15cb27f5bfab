package api

import (
	"net/http"
	"time"

	"lunari-cart/internal/middleware"
	"lunari-cart/internal/order"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type orderHandler struct {
	orders order.Service
}

func (h *orderHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "INVALID_ID", "order id must be a UUID")
		return
	}

	o, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *orderHandler) getByNumber(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, o)
}

// list filters by owner, status, and creation date range. Anonymous
// service callers may name any owner; authenticated users are pinned to
// their own orders.
func (h *orderHandler) list(w http.ResponseWriter, r *http.Request) {
	var f order.Filter

	if uid, ok := middleware.UserIDFrom(r.Context()); ok {
		f.OwnerID = &uid
	} else if raw := r.URL.Query().Get("ownerId"); raw != "" {
		uid, err := uuid.Parse(raw)
		if err != nil {
			badRequest(w, "INVALID_ID", "ownerId must be a UUID")
			return
		}
		f.OwnerID = &uid
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		st := order.Status(raw)
		if !st.Valid() {
			badRequest(w, "INVALID_STATUS", "unknown order status")
			return
		}
		f.Status = &st
	}

	var err error
	if f.From, err = parseDate(r.URL.Query().Get("from")); err != nil {
		badRequest(w, "INVALID_DATE", "from must be RFC 3339 or YYYY-MM-DD")
		return
	}
	if f.To, err = parseDate(r.URL.Query().Get("to")); err != nil {
		badRequest(w, "INVALID_DATE", "to must be RFC 3339 or YYYY-MM-DD")
		return
	}

	orders, err := h.orders.List(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *orderHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "INVALID_ID", "order id must be a UUID")
		return
	}

	o, err := h.orders.Cancel(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
