// Package api wires the recurring handlers and middleware into an
// http.Handler.
package api

import (
	"net/http"
	"time"

	"fjacquet/recurring-ledger/internal/api/handlers"
	"fjacquet/recurring-ledger/internal/api/middleware"
	"fjacquet/recurring-ledger/internal/clock"
	"fjacquet/recurring-ledger/internal/logging"
	"fjacquet/recurring-ledger/internal/service"
)

// NewRouter returns the API handler. Every /api route requires the user
// header; /health does not.
func NewRouter(svc *service.Service, clk clock.Clock, log logging.Logger) http.Handler {
	if clk == nil {
		clk = clock.System{}
	}
	log = log.WithField(logging.FieldComponent, "api")

	recurringHandler := handlers.NewRecurringHandler(svc, log)
	catalogHandler := handlers.NewCatalogHandler(svc, log)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/recurring", recurringHandler.ListRules)
	api.HandleFunc("POST /api/recurring", recurringHandler.CreateRule)
	api.HandleFunc("PUT /api/recurring/{id}", recurringHandler.UpdateRule)
	api.HandleFunc("DELETE /api/recurring/{id}", recurringHandler.DeleteRule)
	api.HandleFunc("GET /api/recurring/occurrences", recurringHandler.Occurrences)
	api.HandleFunc("POST /api/recurring/approve", recurringHandler.Approve)
	api.HandleFunc("POST /api/recurring/approve-all", recurringHandler.ApproveAll)
	api.HandleFunc("POST /api/recurring/skip", recurringHandler.Skip)
	api.HandleFunc("POST /api/categories", catalogHandler.CreateCategory)
	api.HandleFunc("POST /api/merchants", catalogHandler.CreateMerchant)

	mux := http.NewServeMux()
	mux.Handle("/api/", middleware.RequireUser(api))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   clk.Now().UTC().Format(time.RFC3339),
		})
	})

	return middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)
}
