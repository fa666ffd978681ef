package controllers

import (
	"net/http"

	"github.com/eventloom/finance-backend/api/responses"
	"github.com/eventloom/finance-backend/internal/finance"
	"github.com/eventloom/finance-backend/pkg/logger"
)

func FinanceOverview(svc FinanceReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overview, err := svc.FinanceOverview(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, finance.FromOverview(overview))
	}
}
