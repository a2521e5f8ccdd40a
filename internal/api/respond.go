package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"solana-swap-gateway/internal/apperr"
	"solana-swap-gateway/internal/storage"
)

const maxRequestBody = 1 << 20

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeError maps err onto a status code and a {"detail": ...} body.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var upstream *apperr.UpstreamError

	switch {
	case errors.Is(err, apperr.ErrInvalidArgument),
		errors.Is(err, apperr.ErrInvalidAddress),
		errors.Is(err, storage.ErrInvalidInput):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		writeDetail(w, http.StatusNotFound, err.Error())
	case errors.As(err, &upstream):
		h.Logger.WithField("service", upstream.Service).WithError(err).Warn("upstream failure")
		writeDetail(w, http.StatusBadGateway, err.Error())
	default:
		h.Logger.WithField("path", r.URL.Path).WithError(err).Error("request failed")
		writeDetail(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeBody decodes a JSON body into v and validates its struct tags.
// Numbers are kept as json.Number so quotes round-trip unchanged.
func (h *handler) decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return apperr.Invalid("malformed JSON body: %v", err)
	}
	return h.check(v)
}

func (h *handler) check(v interface{}) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Invalid("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return apperr.Invalid("%s", strings.Join(msgs, "; "))
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Invalid("%s must be an integer, got %q", key, raw)
	}
	return n, nil
}

func queryBool(r *http.Request, key string) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.Invalid("%s must be a boolean, got %q", key, raw)
	}
	return b, nil
}
