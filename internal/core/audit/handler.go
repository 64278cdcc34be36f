package audit

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/cash-advance-management/internal/transport"
	"github.com/frahmantamala/cash-advance-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		repo:        repo,
	}
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	limit, offset := transport.Pagination(r)

	entries, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"limit":   limit,
		"offset":  offset,
	})
}

// ListEntityEntries returns the full trail for one entity, oldest first.
func (h *Handler) ListEntityEntries(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	entityID := chi.URLParam(r, "entityID")

	entries, err := h.repo.ListByEntity(r.Context(), entityType, entityID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}
