package api

import (
	"net/http"

	"lunari-cart/internal/jobs"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// jobsHandler exposes the reconciliation queue for operators: jobs that
// exhausted their retries and need a manual replay.
type jobsHandler struct {
	failures jobs.FailureRepository
}

func (h *jobsHandler) listFailures(w http.ResponseWriter, r *http.Request) {
	failures, err := h.failures.ListUnresolved(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if failures == nil {
		failures = []jobs.Failure{}
	}
	respond(w, http.StatusOK, failures)
}

func (h *jobsHandler) resolveFailure(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "INVALID_ID", "failure id must be a UUID")
		return
	}

	if err := h.failures.Resolve(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]bool{"resolved": true})
}
