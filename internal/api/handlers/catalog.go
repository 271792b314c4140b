package handlers

import (
	"net/http"
	"strings"

	"fjacquet/recurring-ledger/internal/api/middleware"
	"fjacquet/recurring-ledger/internal/logging"
	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/service"
)

// CatalogHandler handles category and merchant endpoints.
type CatalogHandler struct {
	svc *service.Service
	log logging.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(svc *service.Service, log logging.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, log: log}
}

// CreateCategory handles POST /api/categories
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	c, err := h.svc.CreateCategory(r.Context(), middleware.UserID(r.Context()), req.Name, models.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type))))
	if err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, c)
}

// CreateMerchant handles POST /api/merchants
func (h *CatalogHandler) CreateMerchant(w http.ResponseWriter, r *http.Request) {
	var req merchantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	m, err := h.svc.CreateMerchant(r.Context(), middleware.UserID(r.Context()), req.Name)
	if err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, m)
}
