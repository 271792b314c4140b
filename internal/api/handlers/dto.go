package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"fjacquet/recurring-ledger/internal/apperrors"
	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/models"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// decodeJSON decodes exactly one JSON object into v, rejecting unknown
// fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &apperrors.ValidationError{Field: "body", Reason: describeDecodeError(err)}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &apperrors.ValidationError{Field: "body", Reason: "must contain a single JSON object"}
	}
	return nil
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %s has the wrong type", typeErr.Field)
	case errors.Is(err, io.EOF):
		return "is empty"
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		return strings.TrimPrefix(err.Error(), "json: ")
	}
	return "is not valid JSON: " + err.Error()
}

// ruleRequest is the accepted shape of a rule on create and update.
type ruleRequest struct {
	Frequency   string           `json:"frequency"`
	Interval    *int             `json:"interval"`
	Amount      decimal.Decimal  `json:"amount"`
	Currency    string           `json:"currency"`
	Spread      *decimal.Decimal `json:"spread"`
	Type        string           `json:"type"`
	StartDate   *dateutils.Date  `json:"startDate"`
	EndDate     *dateutils.Date  `json:"endDate"`
	Occurrences *int             `json:"occurrences"`
	CategoryID  string           `json:"categoryId"`
	MerchantID  *string          `json:"merchantId"`
	Description string           `json:"description"`
	Notes       string           `json:"notes"`
	IsActive    *bool            `json:"isActive"`
}

// updateRuleRequest adds the update mode to a rule body.
type updateRuleRequest struct {
	ruleRequest
	UpdateMode string `json:"updateMode"`
}

// fields converts the request; field-level checks are left to validation.
func (req ruleRequest) fields() (models.RuleFields, error) {
	if req.StartDate == nil {
		return models.RuleFields{}, &apperrors.ValidationError{Field: "startDate", Reason: "is required"}
	}
	f := models.RuleFields{
		Frequency:      models.Frequency(strings.ToUpper(strings.TrimSpace(req.Frequency))),
		Interval:       1,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Type:           models.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type))),
		StartDate:      *req.StartDate,
		EndDate:        req.EndDate,
		MaxOccurrences: req.Occurrences,
		CategoryID:     req.CategoryID,
		Description:    req.Description,
		Notes:          req.Notes,
		IsActive:       req.IsActive,
	}
	if req.Interval != nil {
		f.Interval = *req.Interval
	}
	if req.Spread != nil {
		f.Spread = *req.Spread
	}
	if req.MerchantID != nil {
		f.MerchantID = strings.TrimSpace(*req.MerchantID)
	}
	return f, nil
}

type approveRequest struct {
	RuleID      string           `json:"ruleId"`
	Date        *dateutils.Date  `json:"date"`
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
}

type skipRequest struct {
	RuleID      string          `json:"ruleId"`
	Date        *dateutils.Date `json:"date"`
	Action      string          `json:"action"`
	Description string          `json:"description"`
}

type categoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type merchantRequest struct {
	Name string `json:"name"`
}

func requireString(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &apperrors.ValidationError{Field: field, Reason: "is required"}
	}
	return nil
}

func requireDate(field string, d *dateutils.Date) (dateutils.Date, error) {
	if d == nil || d.IsZero() {
		return dateutils.Date{}, &apperrors.ValidationError{Field: field, Reason: "is required"}
	}
	return *d, nil
}

// queryDate parses an optional date query parameter.
func queryDate(r *http.Request, name string) (*dateutils.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := dateutils.Parse(raw)
	if err != nil {
		return nil, &apperrors.ValidationError{Field: name, Value: raw, Reason: "must be an ISO-8601 date"}
	}
	return &d, nil
}
