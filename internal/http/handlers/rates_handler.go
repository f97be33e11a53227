package handlers

import (
	"net/http"

	"parktrack/internal/service"
)

// NewRatesHandler returns GET /rates handler exposing the rate table in
// effect, defaults included.
func NewRatesHandler(rates *service.RateService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"rates": rates.Active(r.Context())})
	}
}
