// Package handlers implements the JSON endpoints of the recurring API.
package handlers

import (
	"net/http"
	"strings"

	"fjacquet/recurring-ledger/internal/api/middleware"
	"fjacquet/recurring-ledger/internal/apperrors"
	"fjacquet/recurring-ledger/internal/logging"
	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/service"
)

// RecurringHandler handles rule and occurrence endpoints.
type RecurringHandler struct {
	svc *service.Service
	log logging.Logger
}

// NewRecurringHandler creates a new recurring handler.
func NewRecurringHandler(svc *service.Service, log logging.Logger) *RecurringHandler {
	return &RecurringHandler{svc: svc, log: log}
}

// ListRules handles GET /api/recurring
func (h *RecurringHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.ListRules(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rules)
}

// CreateRule handles POST /api/recurring
func (h *RecurringHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	fields, err := req.fields()
	if err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}

	rule, err := h.svc.CreateRule(r.Context(), middleware.UserID(r.Context()), fields)
	if err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, rule)
}

// UpdateRule handles PUT /api/recurring/{id}. The mode comes from the
// updateMode query parameter, else from the body, else ALL.
func (h *RecurringHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	var req updateRuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	fields, err := req.fields()
	if err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	mode := r.URL.Query().Get("updateMode")
	if mode == "" {
		mode = req.UpdateMode
	}

	result, err := h.svc.ApplyUpdate(r.Context(), middleware.UserID(r.Context()), r.PathValue("id"), fields, models.UpdateMode(mode))
	if err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

// DeleteRule handles DELETE /api/recurring/{id}
func (h *RecurringHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteRule(r.Context(), middleware.UserID(r.Context()), r.PathValue("id")); err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Occurrences handles GET /api/recurring/occurrences. Without from/to the
// default window around today is used.
func (h *RecurringHandler) Occurrences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	from, err := queryDate(r, "from")
	if err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}

	var occs []models.RecurringOccurrence
	if from == nil && to == nil {
		occs, err = h.svc.Occurrences(ctx, middleware.UserID(ctx))
	} else {
		start, end := h.svc.Window()
		if from != nil {
			start = *from
		}
		if to != nil {
			end = *to
		}
		occs, err = h.svc.OccurrencesBetween(ctx, middleware.UserID(ctx), start, end)
	}
	if err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, occs)
}

// Approve handles POST /api/recurring/approve
func (h *RecurringHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	if err := requireString("ruleId", req.RuleID); err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	date, err := requireDate("date", req.Date)
	if err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}

	tx, err := h.svc.Approve(r.Context(), middleware.UserID(r.Context()), service.ApproveRequest{
		RuleID:      req.RuleID,
		Date:        date,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// ApproveAll handles POST /api/recurring/approve-all
func (h *RecurringHandler) ApproveAll(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.ApproveAll(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// Skip handles POST /api/recurring/skip for both skip and unskip actions.
func (h *RecurringHandler) Skip(w http.ResponseWriter, r *http.Request) {
	var req skipRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	if err := requireString("ruleId", req.RuleID); err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	date, err := requireDate("date", req.Date)
	if err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}

	ctx := r.Context()
	switch strings.ToLower(req.Action) {
	case "", "skip":
		err = h.svc.Discard(ctx, middleware.UserID(ctx), req.RuleID, date, req.Description)
	case "unskip":
		err = h.svc.Unskip(ctx, middleware.UserID(ctx), req.RuleID, date)
	default:
		err = &apperrors.ValidationError{Field: "action", Value: req.Action, Reason: "must be skip or unskip"}
	}
	if err != nil {
		middleware.WriteServiceError(w, r, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
