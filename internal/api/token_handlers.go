package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"solana-swap-gateway/internal/address"
	"solana-swap-gateway/internal/apperr"
	"solana-swap-gateway/internal/domain"
)

// Token search limits.
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

type tokensResponse struct {
	Tokens []*domain.TokenMetadata `json:"tokens"`
	Total  int                     `json:"total"`
}

func newTokensResponse(tokens []*domain.TokenMetadata) tokensResponse {
	if tokens == nil {
		tokens = []*domain.TokenMetadata{}
	}
	return tokensResponse{Tokens: tokens, Total: len(tokens)}
}

func (h *handler) tokenMetadata(w http.ResponseWriter, r *http.Request) {
	mint, err := address.Validate(chi.URLParam(r, "address"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	refresh, err := queryBool(r, "refresh")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.Resolver.Resolve(r.Context(), mint, refresh))
}

func (h *handler) listTokens(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newTokensResponse(h.Tokens.List()))
}

// popularTokens resolves every static token, prices included.
func (h *handler) popularTokens(w http.ResponseWriter, r *http.Request) {
	mints := h.Tokens.Addresses()
	tokens := make([]*domain.TokenMetadata, 0, len(mints))
	for _, mint := range mints {
		tokens = append(tokens, h.Resolver.Resolve(r.Context(), mint, false))
	}
	writeJSON(w, http.StatusOK, newTokensResponse(tokens))
}

func (h *handler) searchTokens(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		h.writeError(w, r, apperr.Invalid("query parameter must be at least 1 character"))
		return
	}
	limit, err := queryInt(r, "limit", DefaultSearchLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	tokens, err := h.Catalog.Search(r.Context(), query, limit)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %v", apperr.ErrPersistence, err))
		return
	}
	writeJSON(w, http.StatusOK, newTokensResponse(tokens))
}
