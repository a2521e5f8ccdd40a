package api

import (
	"net/http"
	"strconv"

	"solana-swap-gateway/internal/apperr"
	"solana-swap-gateway/internal/currency"
	"solana-swap-gateway/internal/domain"
)

func (h *handler) priceChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	interval := q.Get("interval")
	if interval == "" {
		interval = domain.Interval1d
	}

	c, err := h.Charts.PriceChart(r.Context(), q.Get("token"), interval)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type exchangeRateResponse struct {
	domain.ExchangeRate
	USD *float64 `json:"usd,omitempty"`
	IDR *float64 `json:"idr,omitempty"`
}

// exchangeRate returns the USD/IDR rate; with ?usd= it also converts the amount.
func (h *handler) exchangeRate(w http.ResponseWriter, r *http.Request) {
	resp := exchangeRateResponse{ExchangeRate: h.Rates.Rate(r.Context())}

	if raw := r.URL.Query().Get("usd"); raw != "" {
		usd, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.writeError(w, r, apperr.Invalid("usd must be a number, got %q", raw))
			return
		}
		idr, err := currency.Convert(usd, resp.Rate)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		resp.USD, resp.IDR = &usd, &idr
	}
	writeJSON(w, http.StatusOK, resp)
}
