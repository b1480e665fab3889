package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ovoda/invoice-tracker/internal/api/middleware"
	"github.com/ovoda/invoice-tracker/internal/store"
)

// CategoriesHandler serves the bookkeeping taxonomy.
type CategoriesHandler struct {
	repo store.CategoryRepository
	log  zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(repo store.CategoryRepository, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{repo: repo, log: log}
}

// ListCategories handles GET /api/categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.ListActiveCategories(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}
	if categories == nil {
		categories = []store.CategoryRow{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}
