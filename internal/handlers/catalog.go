package handlers

import (
	"net/http"

	"github.com/stewardbooks/backend/internal/services"
)

type CatalogHandler struct {
	store *services.LedgerStore
}

func NewCatalogHandler(store *services.LedgerStore) *CatalogHandler {
	return &CatalogHandler{store: store}
}

// ListItemTypes lists the org's transaction item types
// @Summary List item types
// @Tags catalog
// @Produce json
// @Success 200 {object} object{itemTypes=[]models.TransactionItemType}
// @Router /catalog/item-types [get]
func (h *CatalogHandler) ListItemTypes(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}

	types, err := h.store.ListItemTypes(r.Context(), session.OrgID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"itemTypes": types})
}

// ListMethods lists the org's payment methods
// @Summary List payment methods
// @Tags catalog
// @Produce json
// @Success 200 {object} object{methods=[]models.TransactionItemMethod}
// @Router /catalog/methods [get]
func (h *CatalogHandler) ListMethods(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}

	methods, err := h.store.ListMethods(r.Context(), session.OrgID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"methods": methods})
}
