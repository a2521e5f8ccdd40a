package api

import (
	"net/http"

	"solana-swap-gateway/internal/domain"
)

func (h *handler) tokenBalance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	balance, err := h.Wallets.Balance(r.Context(), q.Get("wallet"), q.Get("token_mint"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

type balancesBody struct {
	Wallet string   `json:"wallet" validate:"required"`
	Mints  []string `json:"mints" validate:"required,min=1"`
}

type balancesResponse struct {
	Wallet   string                          `json:"wallet"`
	Balances map[string]*domain.TokenBalance `json:"balances"`
}

func (h *handler) tokenBalances(w http.ResponseWriter, r *http.Request) {
	var body balancesBody
	if err := h.decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	balances, err := h.Wallets.Balances(r.Context(), body.Wallet, body.Mints)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balancesResponse{Wallet: body.Wallet, Balances: balances})
}

func (h *handler) walletPortfolio(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.Wallets.Portfolio(r.Context(), r.URL.Query().Get("wallet"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolio)
}
