package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"solana-swap-gateway/internal/apperr"
	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/jupiter"
	"solana-swap-gateway/internal/swap"
)

type quoteBody struct {
	InputMint        string      `json:"inputMint" validate:"required"`
	OutputMint       string      `json:"outputMint" validate:"required"`
	Amount           json.Number `json:"amount" validate:"required"`
	SlippageBps      *int        `json:"slippageBps" validate:"omitempty,gte=0,lte=10000"`
	SwapMode         string      `json:"swapMode" validate:"omitempty,oneof=ExactIn ExactOut"`
	OnlyDirectRoutes bool        `json:"onlyDirectRoutes"`
}

// quote accepts query parameters on GET and a JSON body on POST.
func (h *handler) quote(w http.ResponseWriter, r *http.Request) {
	req, err := h.quoteRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	quote, err := h.Swaps.Quote(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *handler) quoteRequest(r *http.Request) (swap.QuoteRequest, error) {
	var body quoteBody
	if r.Method == http.MethodPost {
		if err := h.decodeBody(r, &body); err != nil {
			return swap.QuoteRequest{}, err
		}
	} else {
		q := r.URL.Query()
		body = quoteBody{
			InputMint:  q.Get("inputMint"),
			OutputMint: q.Get("outputMint"),
			Amount:     json.Number(q.Get("amount")),
			SwapMode:   q.Get("swapMode"),
		}
		if raw := q.Get("slippageBps"); raw != "" {
			bps, err := strconv.Atoi(raw)
			if err != nil {
				return swap.QuoteRequest{}, apperr.Invalid("slippageBps must be an integer, got %q", raw)
			}
			body.SlippageBps = &bps
		}
		direct, err := queryBool(r, "onlyDirectRoutes")
		if err != nil {
			return swap.QuoteRequest{}, err
		}
		body.OnlyDirectRoutes = direct
		if err := h.check(&body); err != nil {
			return swap.QuoteRequest{}, err
		}
	}

	amount, err := body.Amount.Int64()
	if err != nil {
		return swap.QuoteRequest{}, apperr.Invalid("amount must be an integer, got %q", body.Amount.String())
	}
	slippage := swap.DefaultSlippageBps
	if body.SlippageBps != nil {
		slippage = *body.SlippageBps
	}

	return swap.QuoteRequest{
		InputMint:        body.InputMint,
		OutputMint:       body.OutputMint,
		Amount:           amount,
		SlippageBps:      slippage,
		SwapMode:         body.SwapMode,
		OnlyDirectRoutes: body.OnlyDirectRoutes,
	}, nil
}

type buildBody struct {
	UserPublicKey       string        `json:"userPublicKey" validate:"required"`
	QuoteResponse       jupiter.Quote `json:"quoteResponse" validate:"required"`
	WrapAndUnwrapSol    *bool         `json:"wrapAndUnwrapSol"`
	FeeAccount          string        `json:"feeAccount"`
	PriorityFeeLamports *int64        `json:"priorityFeeLamports" validate:"omitempty,gte=0"`
}

func (h *handler) buildSwap(w http.ResponseWriter, r *http.Request) {
	var body buildBody
	if err := h.decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	wrap := true
	if body.WrapAndUnwrapSol != nil {
		wrap = *body.WrapAndUnwrapSol
	}

	result, err := h.Swaps.Build(r.Context(), swap.BuildRequest{
		UserPublicKey:       body.UserPublicKey,
		QuoteResponse:       body.QuoteResponse,
		WrapAndUnwrapSol:    wrap,
		FeeAccount:          body.FeeAccount,
		PriorityFeeLamports: body.PriorityFeeLamports,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type confirmBody struct {
	Signature string `json:"signature"`
}

type confirmResponse struct {
	Success   bool   `json:"success"`
	Signature string `json:"signature"`
}

// confirmSwap reads the signature from the JSON body or the "signature" query parameter.
func (h *handler) confirmSwap(w http.ResponseWriter, r *http.Request) {
	signature := r.URL.Query().Get("signature")
	if signature == "" && r.ContentLength != 0 {
		var body confirmBody
		if err := h.decodeBody(r, &body); err != nil {
			h.writeError(w, r, err)
			return
		}
		signature = body.Signature
	}
	signature = strings.TrimSpace(signature)

	if err := h.Swaps.Confirm(r.Context(), chi.URLParam(r, "id"), signature); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmResponse{Success: true, Signature: signature})
}

type historyResponse struct {
	Swaps []*domain.SwapRecord `json:"swaps"`
	Total int                  `json:"total"`
}

func (h *handler) swapHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", swap.DefaultHistoryLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	records, err := h.Swaps.History(r.Context(), r.URL.Query().Get("wallet"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Swaps: records, Total: len(records)})
}

type feeStatsResponse struct {
	FeeAccount string           `json:"fee_account,omitempty"`
	Stats      []domain.FeeStat `json:"stats"`
}

func (h *handler) feeStats(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("fee_account")

	stats, err := h.Swaps.FeeStats(r.Context(), account)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feeStatsResponse{FeeAccount: account, Stats: stats})
}
